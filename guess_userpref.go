package authnego

import (
	"strings"

	"github.com/itchyny/gojq"
)

// guessUserSelections implements user-selection override
// guesser: entries whose domain case-insensitively equals the canonical
// hostname (and whose user, if supplied, equals the session username) are
// added with FlagForceAdd and a synthesised server "<service>@<hostname>".
//
// The null-user comparison is documented Open Question: a nil
// User is treated as "match any user", not as a literal nil-equals-username
// comparison.
func guessUserSelections(sess *Session) {
	if sess.providers.Prefs == nil {
		return
	}
	if !sess.providers.Prefs.GSSEnabled() {
		return
	}

	entries, err := sess.providers.Prefs.UserSelections()
	if err != nil {
		sess.providers.Log.Warnf("reading user selections: %v", err)
		return
	}

	for _, e := range entries {
		if !strings.EqualFold(e.Domain, sess.hostname) {
			continue
		}
		if e.User != nil && *e.User != sess.username {
			continue
		}
		if e.Match != "" && !evalMatchFilter(sess, e.Match) {
			continue
		}

		mech := parseMechanismName(e.Mech)
		server := sess.service + "@" + sess.hostname

		sess.selections.add(e.Client, NameUsername, server, true, NameServiceBasedName, mech, FlagForceAdd)
	}
}

// parseMechanismName maps a preference-file mechanism string onto a
// Mechanism tag, defaulting to Kerberos for unrecognised strings so a typo
// in a user's override degrades gracefully instead of being dropped.
func parseMechanismName(s string) Mechanism {
	switch strings.ToLower(s) {
	case "ntlm":
		return MechNTLM
	case "iakerb":
		return MechKerberosIAKERB
	case "pku2u":
		return MechKerberosPKU2U
	case "u2u":
		return MechKerberosU2U
	default:
		return MechKerberos
	}
}

// evalMatchFilter evaluates the additive  "match" gojq
// filter over {hostname, service, username}; a filter that errors or
// yields no truthy result is treated as non-matching rather than fatal, so
// a malformed override simply doesn't apply instead of aborting the whole
// guesser (consistent with "swallow and continue" policy for
// guesser-time failures).
func evalMatchFilter(sess *Session, filter string) bool {
	query, err := gojq.Parse(filter)
	if err != nil {
		sess.providers.Log.Warnf("invalid user-selection match filter %q: %v", filter, err)
		return false
	}

	input := map[string]interface{}{
		"hostname": sess.hostname,
		"service":  sess.service,
		"username": sess.username,
	}

	iter := query.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			return false
		}
		if err, ok := v.(error); ok {
			sess.providers.Log.Warnf("user-selection match filter %q errored: %v", filter, err)
			return false
		}
		if b, ok := v.(bool); ok && b {
			return true
		}
	}
}
