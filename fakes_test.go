package authnego

import (
	"context"
	"fmt"
	"sync"

	"authnego/providers"
)

// fakeLogSink discards everything except warnings, which it records,
// satisfying providers.LogSink for tests that don't care about log output.
type fakeLogSink struct {
	mu       sync.Mutex
	warnings []string
}

func (f *fakeLogSink) Debugf(format string, args ...interface{}) {}
func (f *fakeLogSink) Infof(format string, args ...interface{})  {}
func (f *fakeLogSink) Warnf(format string, args ...interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.warnings = append(f.warnings, fmt.Sprintf(format, args...))
}
func (f *fakeLogSink) Errorf(format string, args ...interface{}) {}
func (f *fakeLogSink) WithFields(fields map[string]interface{}) providers.LogSink { return f }

// fakeKerberosProvider is a minimal, scriptable KerberosProvider backend.
type fakeKerberosProvider struct {
	mu sync.Mutex

	caches          []providers.CCache
	lkdcRealms      map[string]bool
	hostRealms      map[string][]string
	defaultRealms   []string
	lkdcDiscovered  string
	lkdcDiscoverErr error
	cacheConfig     map[providers.CCacheHandle]map[string]string
	matchResult     map[string]providers.CCacheHandle
	initCredsResult providers.InitCredsResult
	initCredsHandle providers.CCacheHandle
	initCredsErr    error
	nextHandle      int
}

func newFakeKerberosProvider() *fakeKerberosProvider {
	return &fakeKerberosProvider{
		lkdcRealms:  map[string]bool{},
		hostRealms:  map[string][]string{},
		cacheConfig: map[providers.CCacheHandle]map[string]string{},
		matchResult: map[string]providers.CCacheHandle{},
	}
}

func (f *fakeKerberosProvider) ParseName(ctx context.Context, s string, enterprise bool) (providers.Principal, error) {
	for i, c := range s {
		if c == '@' {
			return providers.Principal{Name: s[:i], Realm: s[i+1:]}, nil
		}
	}
	return providers.Principal{}, &ParseFailure{Input: s}
}

func (f *fakeKerberosProvider) CacheCollection(ctx context.Context) ([]providers.CCache, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]providers.CCache(nil), f.caches...), nil
}

func (f *fakeKerberosProvider) IsLKDCPrincipal(p providers.Principal) bool {
	return f.IsLKDCRealm(p.Realm)
}

func (f *fakeKerberosProvider) IsLKDCRealm(realm string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lkdcRealms[realm]
}

func (f *fakeKerberosProvider) GetHostRealm(ctx context.Context, hostname string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hostRealms[hostname], nil
}

func (f *fakeKerberosProvider) GetDefaultRealms(ctx context.Context) ([]string, error) {
	return f.defaultRealms, nil
}

func (f *fakeKerberosProvider) DiscoverLKDCRealm(ctx context.Context, hostname string) (string, error) {
	if f.lkdcDiscoverErr != nil {
		return "", f.lkdcDiscoverErr
	}
	return f.lkdcDiscovered, nil
}

func (f *fakeKerberosProvider) CacheMatch(ctx context.Context, p providers.Principal) (providers.CCacheHandle, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.matchResult[p.Name+"@"+p.Realm]
	return h, ok, nil
}

func (f *fakeKerberosProvider) NewUniqueCache(ctx context.Context) (providers.CCacheHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextHandle++
	h := providers.CCacheHandle(fmt.Sprintf("cache-%d", f.nextHandle))
	f.cacheConfig[h] = map[string]string{}
	return h, nil
}

func (f *fakeKerberosProvider) CacheConfig(ctx context.Context, h providers.CCacheHandle, key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg, ok := f.cacheConfig[h]
	if !ok {
		return "", false
	}
	v, ok := cfg[key]
	return v, ok
}

func (f *fakeKerberosProvider) SetCacheConfig(ctx context.Context, h providers.CCacheHandle, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cacheConfig[h] == nil {
		f.cacheConfig[h] = map[string]string{}
	}
	f.cacheConfig[h][key] = value
	return nil
}

func (f *fakeKerberosProvider) InitCreds(ctx context.Context, req providers.InitCredsRequest) (providers.CCacheHandle, providers.InitCredsResult, error) {
	if f.initCredsErr != nil {
		return "", providers.InitCredsResult{}, f.initCredsErr
	}
	h := f.initCredsHandle
	if h == "" {
		h, _ = f.NewUniqueCache(ctx)
	}
	res := f.initCredsResult
	if res.Client.Name == "" {
		res.Client = req.Client
	}
	return h, res, nil
}

// fakeNTLMProvider is a minimal, scriptable NTLMProvider backend.
type fakeNTLMProvider struct {
	mu sync.Mutex

	creds        []providers.Credential
	labels       map[string]string
	holds        map[string]int
	acquireErr   error
	acquireCred  providers.Credential
	iakerbCred   providers.Credential
	iakerbErr    error
	credUUID     string
}

func newFakeNTLMProvider() *fakeNTLMProvider {
	return &fakeNTLMProvider{labels: map[string]string{}, holds: map[string]int{}}
}

func (f *fakeNTLMProvider) AcquireCred(ctx context.Context, identity providers.NTLMIdentity) (providers.Credential, error) {
	if f.acquireErr != nil {
		return providers.Credential{}, f.acquireErr
	}
	return f.acquireCred, nil
}

func (f *fakeNTLMProvider) IterCreds(ctx context.Context) ([]providers.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]providers.Credential(nil), f.creds...), nil
}

func (f *fakeNTLMProvider) IAKERBInitialCred(ctx context.Context, username, password string) (providers.Credential, error) {
	if f.iakerbErr != nil {
		return providers.Credential{}, f.iakerbErr
	}
	return f.iakerbCred, nil
}

func (f *fakeNTLMProvider) CredUUID(ctx context.Context, cred providers.Credential) (string, error) {
	return f.credUUID, nil
}

func (f *fakeNTLMProvider) CredLabelGet(cred providers.Credential) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.labels[cred.ID]
	return v, ok
}

func (f *fakeNTLMProvider) CredLabelSet(cred providers.Credential, label string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.labels[cred.ID] = label
	return nil
}

func (f *fakeNTLMProvider) CredHold(cred providers.Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.holds[cred.ID]++
	return nil
}

func (f *fakeNTLMProvider) CredUnhold(cred providers.Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.holds[cred.ID]--
	return nil
}

// fakeCertStore is a minimal CertStore backend.
type fakeCertStore struct {
	mappedPrincipal map[string]string
	appleID         map[string]string
	inferredLabel   string
}

func newFakeCertStore() *fakeCertStore {
	return &fakeCertStore{mappedPrincipal: map[string]string{}, appleID: map[string]string{}}
}

func (f *fakeCertStore) Enumerate(ctx context.Context) ([]providers.ClientCertificate, error) {
	return nil, nil
}

func (f *fakeCertStore) MappedKerberosPrincipal(ctx context.Context, cert providers.ClientCertificate) (string, bool) {
	v, ok := f.mappedPrincipal[string(cert.Raw)]
	return v, ok
}

func (f *fakeCertStore) AppleIDAttribute(cert providers.ClientCertificate) (string, bool) {
	v, ok := f.appleID[string(cert.Raw)]
	return v, ok
}

func (f *fakeCertStore) InferLabel(cert providers.ClientCertificate) string {
	if f.inferredLabel != "" {
		return f.inferredLabel
	}
	return "inferred-label"
}

// fakePrefStore is a minimal PreferenceStore backend.
type fakePrefStore struct {
	enabled   bool
	entries   []providers.UserSelectionEntry
	entriesErr error
}

func (f *fakePrefStore) GSSEnabled() bool { return f.enabled }

func (f *fakePrefStore) UserSelections() ([]providers.UserSelectionEntry, error) {
	return f.entries, f.entriesErr
}

// baseProviders returns a Providers bundle with a nop log sink and
// everything else nil, for tests that only exercise a subset of guessers.
func baseProviders() Providers {
	return Providers{Log: &fakeLogSink{}}
}

// newTestSession builds a Session without going through Create, so
// guesser-level tests can wire exactly the providers/state they need.
func newTestSession(hostname, service, username, password string, p Providers) *Session {
	if p.Log == nil {
		p.Log = &fakeLogSink{}
	}
	sess := &Session{
		hostname:     hostname,
		service:      service,
		username:     username,
		specificName: specificNameOf(username),
		password:     password,
		providers:    p,
		bg:           sharedBackgroundQueue,
		serial:       newSerialQueue(),
	}
	sess.selections = newSelectionSet(sess)
	return sess
}
