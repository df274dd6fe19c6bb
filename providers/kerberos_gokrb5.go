package providers

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jcmturner/gokrb5/v8/client"
	"github.com/jcmturner/gokrb5/v8/config"
	"github.com/jcmturner/gokrb5/v8/credentials"

	"authnego/internal/realmcache"
)

// lkdcRealmPrefix and lkdcWellknownRealm are the LKDC realm markers used
// throughout the Kerberos pipeline: a per-host realm ("LKDC:SHA1.<hex>") and
// the pseudo-realm used to select LKDC without pinning a host.
const (
	lkdcRealmPrefix    = "LKDC:"
	lkdcWellknownRealm = "WELLKNOWN:COM.APPLE.LKDC"
)

// cacheEntry is one logical credential cache: a generalisation of loading a
// single ccache into an in-process registry of many, each either backed by a
// real client.Client (once credentials have been acquired) or empty (freshly
// allocated, awaiting InitCreds).
type cacheEntry struct {
	client       *client.Client
	clientPrinc  Principal
	friendlyName string
	lkdcHostname string
	config       map[string]string
}

// Gokrb5Provider is the jcmturner/gokrb5/v8-backed KerberosProvider, direct
// generalisation of gsscred_linux.go (which loads exactly one
// ccache via credentials.LoadCCache + client.NewFromCCache) into the full
// enumerate/init-creds/store surface a KerberosProvider requires.
type Gokrb5Provider struct {
	cfg *config.Config

	mu      sync.Mutex
	caches  map[CCacheHandle]*cacheEntry
	nextID  int

	realmCache *realmcache.Cache
}

// NewGokrb5Provider loads krb5.conf from path (falling back to
// $KRB5_CONFIG, then /etc/krb5.conf) and seeds the provider with any cache already loadable
// from the environment's default ccache (KRB5CCNAME / /tmp/krb5cc_<uid>).
func NewGokrb5Provider(krb5ConfPath string) (*Gokrb5Provider, error) {
	if krb5ConfPath == "" {
		krb5ConfPath = os.Getenv("KRB5_CONFIG")
	}
	if krb5ConfPath == "" {
		krb5ConfPath = "/etc/krb5.conf"
	}
	cfg, err := config.Load(krb5ConfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load krb5.conf from %s: %w", krb5ConfPath, err)
	}

	p := &Gokrb5Provider{
		cfg:        cfg,
		caches:     map[CCacheHandle]*cacheEntry{},
		realmCache: realmcache.New(10*time.Minute, time.Minute),
	}
	p.seedDefaultCache()
	return p, nil
}

// seedDefaultCache mirrors gsscred_linux.go's Connect(): best-effort load of
// the ambient ccache so the existing-cache enumeration steps see it without
// an explicit import step.
func (p *Gokrb5Provider) seedDefaultCache() {
	ccachePath := os.Getenv("KRB5CCNAME")
	if ccachePath == "" {
		ccachePath = fmt.Sprintf("/tmp/krb5cc_%d", os.Getuid())
	}
	ccachePath = strings.TrimPrefix(ccachePath, "FILE:")

	ccache, err := credentials.LoadCCache(ccachePath)
	if err != nil {
		return
	}
	cl, err := client.NewFromCCache(ccache, p.cfg, client.DisablePAFXFAST(true))
	if err != nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	handle := CCacheHandle(fmt.Sprintf("default-%d", p.nextID))
	p.caches[handle] = &cacheEntry{
		client: cl,
		clientPrinc: Principal{
			Name:  cl.Credentials.UserName(),
			Realm: cl.Credentials.Realm(),
		},
		config: map[string]string{},
	}
}

// ParseName parses "name@realm" into a Principal. enterprise is accepted
// for API parity with  (ENTERPRISE parse flag, set by the caller
// when the client string contains two '@') but does not change how the
// split itself is performed: an enterprise name's extra '@' belongs to the
// name half, so splitting on the *last* '@' is correct in both cases.
func (p *Gokrb5Provider) ParseName(ctx context.Context, s string, enterprise bool) (Principal, error) {
	idx := strings.LastIndex(s, "@")
	if idx < 0 {
		return Principal{}, fmt.Errorf("authnego/providers: %q is not a principal (no realm)", s)
	}
	return Principal{Name: s[:idx], Realm: s[idx+1:]}, nil
}

// CacheCollection returns every cache currently registered with the
// provider, generalising gsscred_linux.go's single-ccache load into the
// cccol_cursor_* enumeration family.
func (p *Gokrb5Provider) CacheCollection(ctx context.Context) ([]CCache, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]CCache, 0, len(p.caches))
	for h, e := range p.caches {
		out = append(out, CCache{
			Handle:          h,
			ClientPrincipal: e.clientPrinc,
			FriendlyName:    e.friendlyName,
			LKDCHostname:    e.lkdcHostname,
		})
	}
	return out, nil
}

// IsLKDCPrincipal reports whether p's realm is an LKDC realm.
func (p *Gokrb5Provider) IsLKDCPrincipal(pr Principal) bool { return p.IsLKDCRealm(pr.Realm) }

// IsLKDCRealm reports whether realm is an LKDC realm string.
func (p *Gokrb5Provider) IsLKDCRealm(realm string) bool {
	return realm == lkdcWellknownRealm || strings.HasPrefix(realm, lkdcRealmPrefix)
}

// GetHostRealm maps hostname to candidate realms using krb5.conf's
// domain_realm mapping, falling back to the uppercased DNS domain.
func (p *Gokrb5Provider) GetHostRealm(ctx context.Context, hostname string) ([]string, error) {
	host := strings.ToLower(hostname)
	for suffix, realm := range p.cfg.DomainRealm {
		if strings.HasPrefix(suffix, ".") && strings.HasSuffix(host, suffix) {
			return []string{realm}, nil
		}
		if suffix == host {
			return []string{realm}, nil
		}
	}
	if idx := strings.Index(host, "."); idx >= 0 {
		return []string{strings.ToUpper(host[idx+1:])}, nil
	}
	return []string{strings.ToUpper(host)}, nil
}

// GetDefaultRealms returns krb5.conf's configured default realm.
func (p *Gokrb5Provider) GetDefaultRealms(ctx context.Context) ([]string, error) {
	if p.cfg.LibDefaults.DefaultRealm == "" {
		return nil, nil
	}
	return []string{p.cfg.LibDefaults.DefaultRealm}, nil
}

// DiscoverLKDCRealm implements lkdc_discover_realm. The
// native implementation resolves this via Bonjour/mDNS, a service this
// pack carries no client for (see DESIGN.md Open Question decisions); this
// rendition tries a DNS TXT lookup first (the mechanism real-world LKDC
// peers increasingly also expose over unicast DNS) and otherwise derives a
// deterministic per-host placeholder realm, memoised for ten minutes via
// patrickmn/go-cache so repeated resolver runs for the same host don't
// re-hit the network.
func (p *Gokrb5Provider) DiscoverLKDCRealm(ctx context.Context, hostname string) (string, error) {
	if cached, ok := p.realmCache.Get(hostname); ok {
		return cached, nil
	}

	var resolver net.Resolver
	if txts, err := resolver.LookupTXT(ctx, "lkdc._tcp."+hostname); err == nil {
		for _, txt := range txts {
			if strings.HasPrefix(txt, lkdcRealmPrefix) {
				p.realmCache.Set(hostname, txt)
				return txt, nil
			}
		}
	}

	sum := sha1.Sum([]byte(hostname))
	realm := lkdcRealmPrefix + "SHA1." + strings.ToUpper(hex.EncodeToString(sum[:]))
	p.realmCache.Set(hostname, realm)
	return realm, nil
}

// CacheMatch looks for a registered cache whose client principal matches p.
func (p *Gokrb5Provider) CacheMatch(ctx context.Context, pr Principal) (CCacheHandle, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for h, e := range p.caches {
		if e.clientPrinc.Name == pr.Name && e.clientPrinc.Realm == pr.Realm {
			return h, true, nil
		}
	}
	return "", false, nil
}

// NewUniqueCache allocates a fresh, empty cache entry.
func (p *Gokrb5Provider) NewUniqueCache(ctx context.Context) (CCacheHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	h := CCacheHandle(fmt.Sprintf("cache-%d", p.nextID))
	p.caches[h] = &cacheEntry{config: map[string]string{}}
	return h, nil
}

// CacheConfig reads a cc_set_config-style metadata entry.
func (p *Gokrb5Provider) CacheConfig(ctx context.Context, h CCacheHandle, key string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.caches[h]
	if !ok {
		return "", false
	}
	switch key {
	case "FriendlyName":
		if e.friendlyName == "" {
			return "", false
		}
		return e.friendlyName, true
	case "lkdc-hostname":
		if e.lkdcHostname == "" {
			return "", false
		}
		return e.lkdcHostname, true
	}
	v, ok := e.config[key]
	return v, ok
}

// SetCacheConfig writes a cc_set_config-style metadata entry.
func (p *Gokrb5Provider) SetCacheConfig(ctx context.Context, h CCacheHandle, key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.caches[h]
	if !ok {
		return fmt.Errorf("authnego/providers: unknown cache handle %q", h)
	}
	switch key {
	case "FriendlyName":
		e.friendlyName = value
	case "lkdc-hostname":
		e.lkdcHostname = value
	default:
		e.config[key] = value
	}
	return nil
}

// InitCreds runs the initial-credential exchange and stores the result in a
// matching (or freshly allocated) cache, returning the handle written to
// and the principal the KDC actually granted. PKINIT
// (certificate-based pre-auth) is not implemented by gokrb5/v8; staying out
// of the cryptography business, that path returns a descriptive error
// rather than a hand-rolled PKINIT exchange (see DESIGN.md).
func (p *Gokrb5Provider) InitCreds(ctx context.Context, req InitCredsRequest) (CCacheHandle, InitCredsResult, error) {
	if req.Certificate != nil {
		return "", InitCredsResult{}, fmt.Errorf("authnego/providers: unsupported: PKINIT (gokrb5/v8 has no certificate pre-auth support)")
	}
	if req.Password == "" {
		return "", InitCredsResult{}, fmt.Errorf("authnego/providers: InitCreds requires a password when no certificate is supplied")
	}

	cfg := p.cfg
	if req.KDCHostOverride != "" {
		cfg = cloneConfigWithKDC(p.cfg, req.Client.Realm, req.KDCHostOverride)
	}

	cl := client.NewWithPassword(req.Client.Name, req.Client.Realm, req.Password, cfg, client.DisablePAFXFAST(true))
	if err := cl.Login(); err != nil {
		return "", InitCredsResult{}, fmt.Errorf("authnego/providers: AS exchange failed: %w", err)
	}

	granted := Principal{Name: cl.Credentials.UserName(), Realm: cl.Credentials.Realm()}

	handle, found, err := p.CacheMatch(ctx, granted)
	if err != nil {
		return "", InitCredsResult{}, err
	}
	if !found {
		handle, err = p.NewUniqueCache(ctx)
		if err != nil {
			return "", InitCredsResult{}, err
		}
	}

	p.mu.Lock()
	p.caches[handle].client = cl
	p.caches[handle].clientPrinc = granted
	p.mu.Unlock()

	return handle, InitCredsResult{Client: granted}, nil
}

// cloneConfigWithKDC returns a shallow copy of cfg with realm's KDC list
// pinned to kdcHost, implementing "pin the KDC host to
// tcp/<hostname>" step for LKDC principals.
func cloneConfigWithKDC(cfg *config.Config, realm, kdcHost string) *config.Config {
	clone := *cfg
	realms := make([]config.Realm, len(cfg.Realms))
	copy(realms, cfg.Realms)
	found := false
	for i, r := range realms {
		if r.Realm == realm {
			r.KDC = []string{kdcHost}
			realms[i] = r
			found = true
		}
	}
	if !found {
		realms = append(realms, config.Realm{Realm: realm, KDC: []string{kdcHost}})
	}
	clone.Realms = realms
	return &clone
}
