package providers

import "context"

// NTLMIdentity is the {username, realm, password} triple the session passes
// to acquire_cred_async for the NTLM/IAKERB mechanism.
type NTLMIdentity struct {
	Username string
	Realm    string
	Password string
}

// Credential is an opaque handle to an acquired NTLM/IAKERB credential.
type Credential struct {
	ID          string
	DisplayName string
}

// NTLMProvider is the NTLM/IAKERB provider collaborator.
type NTLMProvider interface {
	// AcquireCred acquires a credential for identity, used by the
	// NTLM acquisition path.
	AcquireCred(ctx context.Context, identity NTLMIdentity) (Credential, error)
	// IterCreds enumerates credentials already held by the provider
	// (the NTLM guesser pipeline's last step).
	IterCreds(ctx context.Context) ([]Credential, error)
	// IAKERBInitialCred performs aapl_initial_cred for the IAKERB
	// acquisition path.
	IAKERBInitialCred(ctx context.Context, username, password string) (Credential, error)
	// CredUUID queries a credential's UUID (used to rewrite sel.client on
	// IAKERB success).
	CredUUID(ctx context.Context, cred Credential) (string, error)

	CredLabelGet(cred Credential) (string, bool)
	CredLabelSet(cred Credential, label string) error
	CredHold(cred Credential) error
	CredUnhold(cred Credential) error
}
