//go:build windows

package providers

import (
	"context"
	"fmt"
	"sync"

	"github.com/alexbrainman/sspi"
	"github.com/alexbrainman/sspi/negotiate"
	"github.com/google/uuid"
)

// SSPIProvider is the windows NTLM/IAKERB provider backend, direct
// generalisation of gsscred_windows.go (which acquires the
// *current user's* SSPI credentials) into acquire-by-identity plus
// credential enumeration/labelling.
type SSPIProvider struct {
	mu    sync.Mutex
	creds map[string]*sspiCred
}

type sspiCred struct {
	cred  *sspi.Credentials
	label string
	held  int
}

// NewSSPIProvider returns an empty SSPI-backed NTLM provider.
func NewSSPIProvider() *SSPIProvider {
	return &SSPIProvider{creds: map[string]*sspiCred{}}
}

// AcquireCred acquires SSPI credentials for identity, direct generalisation
// of gsscred_windows.go's Connect (which only ever acquired the current
// user's credentials).
func (p *SSPIProvider) AcquireCred(ctx context.Context, identity NTLMIdentity) (Credential, error) {
	domain := identity.Realm
	cred, err := negotiate.AcquireUserCredentials(domain, identity.Username, identity.Password)
	if err != nil {
		return Credential{}, fmt.Errorf("authnego/providers: sspi AcquireUserCredentials: %w", err)
	}

	id := identity.Username + "@" + identity.Realm
	p.mu.Lock()
	p.creds[id] = &sspiCred{cred: cred}
	p.mu.Unlock()

	return Credential{ID: id, DisplayName: id}, nil
}

// IterCreds enumerates credentials this provider has acquired. SSPI itself
// exposes no system-wide credential enumeration API (unlike GSS-API's
// gss_iter_creds), so — like gsscred_windows.go's GetCredentials, which
// documents the same limitation — this only reports what AcquireCred has
// already produced in this process.
func (p *SSPIProvider) IterCreds(ctx context.Context) ([]Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Credential, 0, len(p.creds))
	for id := range p.creds {
		out = append(out, Credential{ID: id, DisplayName: id})
	}
	return out, nil
}

// IAKERBInitialCred is not available over SSPI: Windows negotiates IAKERB
// implicitly inside its own Kerberos SSP rather than exposing a distinct
// IAKERB entry point, so this always fails, matching 's
// "complete failure" branch for the no-credentials case.
func (p *SSPIProvider) IAKERBInitialCred(ctx context.Context, username, password string) (Credential, error) {
	return Credential{}, fmt.Errorf("authnego/providers: IAKERB is not exposed by SSPI on windows")
}

// CredUUID synthesises a stable UUID for a credential ID, since SSPI has no
// native credential UUID concept.
func (p *SSPIProvider) CredUUID(ctx context.Context, cred Credential) (string, error) {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(cred.ID)).String(), nil
}

func (p *SSPIProvider) CredLabelGet(cred Credential) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.creds[cred.ID]
	if !ok || c.label == "" {
		return "", false
	}
	return c.label, true
}

func (p *SSPIProvider) CredLabelSet(cred Credential, label string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.creds[cred.ID]
	if !ok {
		return fmt.Errorf("authnego/providers: unknown credential %q", cred.ID)
	}
	c.label = label
	return nil
}

func (p *SSPIProvider) CredHold(cred Credential) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.creds[cred.ID]
	if !ok {
		return fmt.Errorf("authnego/providers: unknown credential %q", cred.ID)
	}
	c.held++
	return nil
}

func (p *SSPIProvider) CredUnhold(cred Credential) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.creds[cred.ID]
	if !ok {
		return fmt.Errorf("authnego/providers: unknown credential %q", cred.ID)
	}
	if c.held > 0 {
		c.held--
	}
	if c.held == 0 {
		c.cred.Release()
		delete(p.creds, cred.ID)
	}
	return nil
}
