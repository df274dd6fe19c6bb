package providers

import (
	"context"
	"crypto/x509"
)

// X509Store is the stdlib-backed CertStore: it operates purely on
// in-memory ClientCertificate values the caller supplies and does not
// itself enumerate an OS certificate store. No
// pack example ships a cross-platform (non-keychain) certificate store
// library, so this stays on crypto/x509 by necessity — see DESIGN.md.
type X509Store struct {
	// KerberosPrincipalMap maps a certificate fingerprint-independent key
	// (the raw DER bytes, stringified) to a Kerberos principal, standing in
	// for copy_kerberos_principal_for_certificate in environments with no
	// native certificate-to-principal mapping service (e.g. no Active
	// Directory NTAuth store reachable). Populated by callers that know the
	// mapping out of band; empty by default.
	KerberosPrincipalMap map[string]string
}

// NewX509Store returns an empty X509Store.
func NewX509Store() *X509Store {
	return &X509Store{KerberosPrincipalMap: map[string]string{}}
}

// Enumerate returns no certificates: the stdlib has no notion of a user
// certificate store to enumerate. Callers on this backend must supply
// certificates explicitly via the Create info map.
func (s *X509Store) Enumerate(ctx context.Context) ([]ClientCertificate, error) {
	return nil, nil
}

// MappedKerberosPrincipal looks the certificate up in KerberosPrincipalMap.
func (s *X509Store) MappedKerberosPrincipal(ctx context.Context, cert ClientCertificate) (string, bool) {
	p, ok := s.KerberosPrincipalMap[string(cert.Raw)]
	return p, ok
}

// AppleIDAttribute is never populated outside a real Apple keychain
// environment.
func (s *X509Store) AppleIDAttribute(cert ClientCertificate) (string, bool) {
	return "", false
}

// InferLabel uses the already-extracted subject common name when set, else
// the common name of the parsed DER bytes, else the extracted v1 subject
// name, else the literal "certificate".
func (s *X509Store) InferLabel(cert ClientCertificate) string {
	if cert.Subject.CommonName != "" {
		return cert.Subject.CommonName
	}
	if parsed, err := x509.ParseCertificate(cert.Raw); err == nil && parsed.Subject.CommonName != "" {
		return parsed.Subject.CommonName
	}
	if cert.Subject.SubjectNameV1 != "" {
		return cert.Subject.SubjectNameV1
	}
	return "certificate"
}
