package authnego

import "authnego/providers"

// ClientCertificate is re-exported from providers so callers building an
// Info value need not import the providers package directly.
type ClientCertificate = providers.ClientCertificate

// CacheHandle identifies a bound credential cache.
type CacheHandle = providers.CCacheHandle

// ServerHints is the server-advertised mechanism-hint map:
// mechanism-OID identifiers mapped to small opaque byte strings.
type ServerHints struct {
	hints           map[string][]byte
	spnegoHostname  string
}

// NewServerHints builds a ServerHints from an OID->bytes map and an
// optional SPNEGO hostname hint.
func NewServerHints(hints map[string][]byte, spnegoHostname string) *ServerHints {
	return &ServerHints{hints: hints, spnegoHostname: spnegoHostname}
}

// Present reports whether any hints were supplied at all.
func (h *ServerHints) Present() bool {
	return h != nil && len(h.hints) > 0
}

// Contains reports whether oid is present among the hints.
func (h *ServerHints) Contains(oid string) bool {
	if h == nil {
		return false
	}
	_, ok := h.hints[oid]
	return ok
}

// Value returns the raw hint bytes for oid.
func (h *ServerHints) Value(oid string) ([]byte, bool) {
	if h == nil {
		return nil, false
	}
	v, ok := h.hints[oid]
	return v, ok
}

// IsRaw reports whether the hint for oid is exactly the literal 3-byte tag
// "raw" (NTLM probe).
func (h *ServerHints) IsRaw(oid string) bool {
	v, ok := h.Value(oid)
	return ok && string(v) == "raw"
}

// SPNEGOHostname returns the optional SPNEGO server-name hint.
func (h *ServerHints) SPNEGOHostname() string {
	if h == nil {
		return ""
	}
	return h.spnegoHostname
}

// Mechanism-OID identifiers recognised by the Kerberos decision table and
// the NTLM guesser, as dotted OID strings: these are the server-hint map
// keys this engine looks for.
const (
	OIDKerberos   = "1.2.840.113554.1.2.2"
	OIDKerberosMS = "1.2.840.48018.1.2.2"
	OIDIAKERB     = "1.3.6.1.5.2.5"
	OIDPKU2U      = "1.3.6.1.5.2.7"
	OIDAppleLKDC  = "1.2.752.43.14.2"
	OIDNTLM       = "1.3.6.1.4.1.311.2.2.10"
)

// Info carries the optional inputs to Create.
type Info struct {
	Username     string
	Password     string
	Certificates []ClientCertificate
	ServerHints  *ServerHints

	// ScriptPath is the additive scripted-guesser extension point: an
	// optional Lua script path. Empty disables it.
	ScriptPath string
}

// AcquireResult is the outcome of an Acquire* call.
type AcquireResult struct {
	Err error
}

// Succeeded reports whether acquisition completed without error.
func (r *AcquireResult) Succeeded() bool { return r != nil && r.Err == nil }
