package authnego

// runGuessers runs the linear composition: user preference overrides, then
// the Kerberos guessers, then the NTLM guesser (only when warranted and no
// client certificates were supplied). Guessers run sequentially here;
// nothing requires that — parallelising them is safe so long as insertion
// order is preserved, which sequential execution trivially does.
func runGuessers(sess *Session) {
	guessUserSelections(sess)
	guessKerberos(sess)
	guessNTLM(sess)
	guessScripted(sess)
}
