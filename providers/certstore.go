package providers

import "context"

// ClientCertificate is a client certificate or identity as supplied by the
// caller or returned by CertStore.Enumerate.
type ClientCertificate struct {
	Raw     []byte // DER-encoded certificate bytes
	Subject CertSubject
}

// CertSubject holds the subset of X.509 subject attributes 
// copies via copy_values: description, commonName, organizationalUnitName
// and the v1 subject name.
type CertSubject struct {
	Description              string
	CommonName                string
	OrganizationalUnitName   string
	SubjectNameV1             string
}

// CertStore is the certificate-store collaborator.
type CertStore interface {
	// Enumerate lists the client certificates/identities available locally
	// (used when the caller supplies none explicitly).
	Enumerate(ctx context.Context) ([]ClientCertificate, error)
	// MappedKerberosPrincipal returns the Kerberos principal a certificate
	// maps to, if the store can determine one.
	MappedKerberosPrincipal(ctx context.Context, cert ClientCertificate) (string, bool)
	// AppleIDAttribute extracts the certificate's AppleID attribute, used
	// as a wellknown-LKDC client fallback.
	AppleIDAttribute(cert ClientCertificate) (string, bool)
	// InferLabel derives a human label from the certificate when neither
	// the friendly-name special case nor the AppleID attribute applies.
	InferLabel(cert ClientCertificate) string
}

// FriendlyName implements friendly-name derivation rule: the
// ".Mac Sharing Certificate"/"MobileMe Sharing Certificate" special case,
// else the AppleID account, else the inferred label. This is pure logic
// over CertStore outputs, so it lives here rather than behind the
// interface — no provider backend needs to reimplement it.
func FriendlyName(store CertStore, ctx context.Context, cert ClientCertificate) string {
	switch cert.Subject.Description {
	case ".Mac Sharing Certificate", "MobileMe Sharing Certificate":
		return cert.Subject.CommonName + "@" + cert.Subject.OrganizationalUnitName
	}
	if id, ok := store.AppleIDAttribute(cert); ok && id != "" {
		return id
	}
	return store.InferLabel(cert)
}
