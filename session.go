package authnego

import (
	"os/user"
	"strings"
	"sync/atomic"

	"authnego/providers"
)

// Providers bundles the external collaborators a Session is built against.
// A nil Log is replaced by a discarding sink; the rest may be nil to disable
// the guessers/output that depend on them (a Session with no Kerberos
// provider simply never produces Kerberos selections, it does not error;
// with no NTLM provider the NTLM guesser still emits password-derived
// candidates but enumerates no held credentials).
type Providers struct {
	Kerberos providers.KerberosProvider
	NTLM     providers.NTLMProvider
	Certs    providers.CertStore
	Prefs    providers.PreferenceStore
	Log      providers.LogSink
	Metrics  *Metrics
}

// Session is the immutable-after-Create negotiation context,
// owning the ordered Selection list and the two task queues.
type Session struct {
	hostname     string
	service      string
	username     string
	specificName string
	password     string
	certificates []ClientCertificate
	hints        *ServerHints
	scriptPath   string

	providers Providers

	selections *selectionSet
	serial     *serialQueue
	bg         *backgroundQueue

	canceled atomic.Bool
}

// Create builds a Session and runs the guesser pipeline: input
// normalisation, user-selection overrides, the Kerberos guessers, then the
// NTLM guesser. It returns as soon as enumeration completes; selections
// whose server principal is still unresolved settle asynchronously.
func Create(hostname, service string, info *Info, p Providers) (*Session, error) {
	if err := validateCreateInput(hostname, service); err != nil {
		return nil, err
	}

	if p.Log == nil {
		p.Log = providers.NewNopSink()
	}

	sess := &Session{
		hostname:   canonicalizeHostname(hostname),
		service:    service,
		providers:  p,
		bg:         sharedBackgroundQueue,
		serial:     newSerialQueue(),
	}
	sess.selections = newSelectionSet(sess)

	if info != nil {
		sess.password = info.Password
		sess.certificates = normalizeCertificates(info.Certificates, p.Log)
		sess.hints = info.ServerHints
		sess.scriptPath = info.ScriptPath
	}

	username := ""
	if info != nil {
		username = info.Username
	}
	if username == "" {
		if u, err := user.Current(); err == nil {
			username = u.Username
		}
	}
	if username == "" {
		return nil, ErrNoUsername
	}
	sess.username = username
	sess.specificName = specificNameOf(username)

	runGuessers(sess)

	if len(sess.selections.list()) == 0 {
		p.Log.Warnf("no mechanism guessed a candidate selection for %s/%s", service, hostname)
		sess.Close()
		return nil, ErrNoMechanism
	}

	if p.Metrics != nil {
		p.Metrics.ObserveSelections(sess.service, len(sess.selections.list()))
	}

	return sess, nil
}

// canonicalizeHostname strips any browser-service decoration (a
// "_service._tcp.local."-style prefix some callers pass through verbatim
// from Bonjour/DNS-SD) and trims leading/trailing dots.
func canonicalizeHostname(hostname string) string {
	h := hostname
	if idx := strings.Index(h, "._"); idx >= 0 {
		// Bonjour service-type decoration looks like
		// "myhost._afpovertcp._tcp.local."; keep only the leading label
		// run before the first "._" marker.
		h = h[:idx]
	}
	return strings.Trim(h, ".")
}

// specificNameOf derives the bare username from "user@realm" or
// "domain\user" input.
func specificNameOf(username string) string {
	if idx := strings.Index(username, "@"); idx >= 0 {
		return username[:idx]
	}
	if idx := strings.Index(username, `\`); idx >= 0 {
		return username[idx+1:]
	}
	return username
}

// normalizeCertificates implements certificate-input
// normalisation: Info.Certificates is already a slice of ClientCertificate,
// so a single certificate is passed as a one-element slice by the caller;
// here we only drop zero-value entries, analogous to "any other type is logged and
// discarded".
func normalizeCertificates(certs []ClientCertificate, log providers.LogSink) []ClientCertificate {
	out := make([]ClientCertificate, 0, len(certs))
	for _, c := range certs {
		if len(c.Raw) == 0 {
			log.Warnf("discarding certificate input with no DER bytes")
			continue
		}
		out = append(out, c)
	}
	return out
}

// GetSelections returns the current selection list in guesser insertion
// order.
func (s *Session) GetSelections() []*Selection {
	return s.selections.list()
}

// Cancel marks every selection canceled and wakes any waiter.
func (s *Session) Cancel() {
	s.serial.submitWait(func() {
		s.canceled.Store(true)
		for _, sel := range s.selections.list() {
			sel.mu.Lock()
			sel.canceled = true
			sel.mu.Unlock()
			sel.latch.cancel()
		}
	})
}

// Close releases the session's serial queue goroutine. Selections remain
// valid to read after Close; only further mutation is no longer possible.
func (s *Session) Close() {
	s.serial.close()
}

func (s *Session) isCanceled() bool {
	return s.canceled.Load()
}
