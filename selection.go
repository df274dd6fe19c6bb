package authnego

import (
	"strings"
	"sync"
)

// NameType classifies a client or server principal string.
type NameType int

const (
	NameUsername NameType = iota
	NameKRB5Principal
	NameKRB5PrincipalReferral
	NameUUID
	// NameServiceBasedName is only ever used for server names.
	NameServiceBasedName
)

// AddFlag controls Selection-set insertion behaviour.
type AddFlag int

const (
	// FlagNone applies the specific-name filter normally.
	FlagNone AddFlag = 0
	// FlagForceAdd bypasses the specific-name filter.
	FlagForceAdd AddFlag = 1 << iota
	// FlagNoSPNEGO clears the SPNEGO-wrap policy for this selection.
	FlagNoSPNEGO
)

// Selection is one candidate authentication configuration.
type Selection struct {
	mu sync.Mutex

	session *Session // weak back-reference; Session outlives all Selections

	mech           Mechanism
	client         string
	clientType     NameType
	server         string
	serverType     NameType
	serverKnown    bool
	spnegoWrap     bool
	cert           *ClientCertificate
	cacheHandle    CacheHandle
	label          string
	haveCred       bool
	canceled       bool
	latch          *completionLatch
	acquireResult  *AcquireResult
	resolveErr     error
}

// Mechanism returns the selection's mechanism tag.
func (s *Selection) Mechanism() Mechanism { return s.mech }

// ClientName returns the current client principal string. It may still be
// rewritten by a background resolver or by acquisition until Wait returns.
func (s *Selection) ClientName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

// ClientNameType returns the client name type.
func (s *Selection) ClientNameType() NameType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientType
}

// ServerName returns the current server principal string, which may be
// empty until Wait returns true.
func (s *Selection) ServerName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.server
}

// ServerNameType returns the server name type.
func (s *Selection) ServerNameType() NameType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serverType
}

// UseSPNEGO reports whether the selection should be wrapped in SPNEGO.
func (s *Selection) UseSPNEGO() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spnegoWrap
}

// HaveCredential reports whether a credential cache is already bound.
func (s *Selection) HaveCredential() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.haveCred
}

// Label returns the human-readable label, if any.
func (s *Selection) Label() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.label
}

// Certificate returns the certificate associated with this selection, if any.
func (s *Selection) Certificate() *ClientCertificate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cert
}

// bindCache attaches an already-bound credential cache to the selection:
// have_cred becomes true and label is set from the cache's FriendlyName, if
// any.
func (s *Selection) bindCache(handle CacheHandle, label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cacheHandle = handle
	s.haveCred = true
	if label != "" {
		s.label = label
	}
}

// attachCertificate associates cert with the selection.
func (s *Selection) attachCertificate(cert ClientCertificate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := cert
	s.cert = &c
}

// setClientUUID rewrites the client principal to a UUID string and marks
// its name type accordingly (IAKERB acquisition path).
func (s *Selection) setClientUUID(uuid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = uuid
	s.clientType = NameUUID
}

// updateReferral rewrites client/server together on a KDC referral/
// canonicalisation (a KDC referral rewriting client/server in place).
func (s *Selection) updateReferral(client, server string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = client
	s.server = server
	s.clientType = NameKRB5PrincipalReferral
	s.serverType = NameKRB5PrincipalReferral
}

// CacheHandle returns the bound credential-cache handle, if any.
func (s *Selection) CacheHandle() (CacheHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cacheHandle, s.haveCred
}

// Wait blocks until the selection's server principal has resolved, or the
// owning session is canceled. Returns true on successful resolution, false
// on cancellation.
func (s *Selection) Wait() bool {
	return s.latch.wait()
}

func (s *Selection) key() selectionKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return selectionKey{mech: s.mech, client: s.client, server: s.server, serverType: s.serverType}
}

// selectionKey is the de-duplication tuple: mechanism, client, server,
// server-name type.
type selectionKey struct {
	mech       Mechanism
	client     string
	server     string
	serverType NameType
}

// selectionSet is the append-only, de-duplicated, ordered list of
// candidates built up by the guesser pipeline. Guessers append to it
// directly (optionally from several goroutines); the mutex only protects
// the slice itself, not per-selection fields, which are governed by the
// serial queue (see queue.go) and the completion latch.
type selectionSet struct {
	mu         sync.Mutex
	session    *Session
	selections []*Selection
}

func newSelectionSet(sess *Session) *selectionSet {
	return &selectionSet{session: sess}
}

// addResult reports whether add() inserted a new Selection or returned an
// existing duplicate.
type addResult struct {
	sel       *Selection
	duplicate bool
	filtered  bool
}

// add implements add operation.
func (ss *selectionSet) add(client string, clientType NameType, server string, serverKnown bool, serverType NameType, mech Mechanism, flags AddFlag) addResult {
	if ss.session.specificName != "" && flags&FlagForceAdd == 0 && !strings.HasPrefix(client, ss.session.specificName) {
		return addResult{filtered: true}
	}

	ss.mu.Lock()
	defer ss.mu.Unlock()

	for _, existing := range ss.selections {
		existing.mu.Lock()
		match := existing.mech == mech &&
			existing.client == client &&
			existing.serverType == serverType &&
			(!serverKnown || !existing.serverKnown || existing.server == server)
		existing.mu.Unlock()
		if match {
			return addResult{sel: existing, duplicate: true}
		}
	}

	sel := &Selection{
		session:     ss.session,
		mech:        mech,
		client:      client,
		clientType:  clientType,
		server:      server,
		serverType:  serverType,
		serverKnown: serverKnown,
		spnegoWrap:  flags&FlagNoSPNEGO == 0,
	}
	if serverKnown {
		sel.latch = newSignalledLatch()
	} else {
		sel.latch = newCompletionLatch()
	}

	ss.selections = append(ss.selections, sel)
	return addResult{sel: sel}
}

func (ss *selectionSet) list() []*Selection {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	out := make([]*Selection, len(ss.selections))
	copy(out, ss.selections)
	return out
}
