//go:build darwin

package providers

import (
	"context"
	"crypto/x509"

	"github.com/keybase/go-keychain"
)

// KeychainStore is the darwin CertStore backend: it enumerates identities
// from the macOS keychain, grounded on vjeantet-alpaca/kerberos_darwin.go
// (which probes the same native credential surface via GSS.framework) and
// the pack's keybase/go-keychain dependency for identity enumeration.
type KeychainStore struct {
	fallback *X509Store
}

// NewKeychainStore returns a keychain-backed CertStore, falling back to
// X509Store logic for certificates supplied explicitly rather than pulled
// from the keychain.
func NewKeychainStore() *KeychainStore {
	return &KeychainStore{fallback: NewX509Store()}
}

// Enumerate lists identities (certificate + private key pairs) from the
// default macOS keychain.
func (k *KeychainStore) Enumerate(ctx context.Context) ([]ClientCertificate, error) {
	query := keychain.NewItem()
	query.SetSecClass(keychain.SecClassIdentity)
	query.SetMatchLimit(keychain.MatchLimitAll)
	query.SetReturnData(true)
	results, err := keychain.QueryItem(query)
	if err != nil {
		return nil, &IoFailure{Op: "enumerate keychain identities", Err: err}
	}

	certs := make([]ClientCertificate, 0, len(results))
	for _, item := range results {
		der := item.Data
		cc := ClientCertificate{Raw: der}
		if parsed, err := x509.ParseCertificate(der); err == nil {
			cc.Subject.CommonName = parsed.Subject.CommonName
			if len(parsed.Subject.OrganizationalUnit) > 0 {
				cc.Subject.OrganizationalUnitName = parsed.Subject.OrganizationalUnit[0]
			}
			cc.Subject.SubjectNameV1 = parsed.Subject.String()
		}
		certs = append(certs, cc)
	}
	return certs, nil
}

// MappedKerberosPrincipal delegates to the fallback map; a real deployment
// would consult Directory Services here, which is outside what any pack
// library exposes.
func (k *KeychainStore) MappedKerberosPrincipal(ctx context.Context, cert ClientCertificate) (string, bool) {
	return k.fallback.MappedKerberosPrincipal(ctx, cert)
}

// AppleIDAttribute reads the certificate's Apple custom extension carrying
// the account's Apple ID, when present.
func (k *KeychainStore) AppleIDAttribute(cert ClientCertificate) (string, bool) {
	parsed, err := x509.ParseCertificate(cert.Raw)
	if err != nil {
		return "", false
	}
	for _, ext := range parsed.Extensions {
		// 1.2.840.113635.100.6.1.6 is Apple's "AppleID" certificate
		// extension OID, matching the native CertStore's cert_get_appleid.
		if ext.Id.String() == "1.2.840.113635.100.6.1.6" {
			return string(ext.Value), true
		}
	}
	return "", false
}

// InferLabel delegates to the fallback's subject-based heuristic.
func (k *KeychainStore) InferLabel(cert ClientCertificate) string {
	return k.fallback.InferLabel(cert)
}
