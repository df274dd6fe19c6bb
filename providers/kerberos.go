// Package providers declares the interfaces to the external collaborators
// an authnego Session is built against: a Kerberos provider, an NTLM/IAKERB
// provider, a certificate store, a preferences store and a logging sink,
// plus one concrete backend per interface.
package providers

import "context"

// Principal is a parsed Kerberos principal (name + realm).
type Principal struct {
	Name  string
	Realm string
}

// CCacheHandle identifies a bound credential cache. Concrete backends use it
// as an opaque key (a registry id such as "cache-1", for the gokrb5 backend).
type CCacheHandle string

// CCache is one entry discovered by enumerating the credential-cache
// collection.
type CCache struct {
	Handle          CCacheHandle
	ClientPrincipal Principal
	FriendlyName    string
	LKDCHostname    string
}

// InitCredsRequest parametrises an initial-credential exchange.
type InitCredsRequest struct {
	Client          Principal
	Enterprise      bool
	Password        string
	Certificate     *ClientCertificate
	KDCHostOverride string
	Canonicalize    bool
}

// InitCredsResult is what the KDC actually granted, which may differ from
// the requested client principal on referral/canonicalisation.
type InitCredsResult struct {
	Client Principal
}

// KerberosProvider is the Kerberos provider collaborator.
type KerberosProvider interface {
	// ParseName parses a principal string, enabling enterprise-name parsing
	// when the caller has determined the string contains two '@'.
	ParseName(ctx context.Context, s string, enterprise bool) (Principal, error)

	// CacheCollection enumerates every credential cache known to the
	// system (cccol_cursor_* family).
	CacheCollection(ctx context.Context) ([]CCache, error)

	// IsLKDCPrincipal reports whether p's realm is an LKDC realm.
	IsLKDCPrincipal(p Principal) bool
	// IsLKDCRealm reports whether realm is an LKDC realm string.
	IsLKDCRealm(realm string) bool

	// GetHostRealm maps a hostname to its candidate Kerberos realms.
	GetHostRealm(ctx context.Context, hostname string) ([]string, error)
	// GetDefaultRealms returns the locally configured default realm(s).
	GetDefaultRealms(ctx context.Context) ([]string, error)
	// DiscoverLKDCRealm performs LKDC realm discovery for hostname.
	DiscoverLKDCRealm(ctx context.Context, hostname string) (string, error)

	// CacheMatch looks for an existing cache matching principal p.
	CacheMatch(ctx context.Context, p Principal) (CCacheHandle, bool, error)
	// NewUniqueCache creates a fresh, empty credential cache.
	NewUniqueCache(ctx context.Context) (CCacheHandle, error)
	// CacheConfig reads a cc_set_config-style metadata entry.
	CacheConfig(ctx context.Context, h CCacheHandle, key string) (string, bool)
	// SetCacheConfig writes a cc_set_config-style metadata entry.
	SetCacheConfig(ctx context.Context, h CCacheHandle, key, value string) error

	// InitCreds runs the initial-credential exchange (password or PKINIT)
	// and stores the result into a matching cache, creating one if needed.
	// It returns the handle written to and what the KDC actually granted.
	InitCreds(ctx context.Context, req InitCredsRequest) (CCacheHandle, InitCredsResult, error)
}
