//go:build !windows

package providers

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/samuong/go-ntlmssp"
)

// NTLMSSPProvider is the non-windows NTLM/IAKERB provider backend.
// gsscred_other.go has no non-Windows NTLM path at all — it simply
// returns "not supported" — so this is grounded on vjeantet-alpaca's go.mod
// dependency on samuong/go-ntlmssp, the pack's only pure-Go NTLM
// implementation, filling that gap.
//
// AcquireCred mirrors what SSPI's AcquireUserCredentials does on Windows:
// it prepares local credential material (an NTLM negotiate message encoding
// the domain/workstation) without contacting a server — the actual
// challenge/response round trip happens during the authenticated session
// itself, which stays out of scope for this negotiation core.
type NTLMSSPProvider struct {
	workstation string

	mu    sync.Mutex
	creds map[string]*ntlmCred
}

type ntlmCred struct {
	identity NTLMIdentity
	material []byte
	label    string
	held     int
}

// NewNTLMSSPProvider returns an empty go-ntlmssp-backed NTLM provider.
// workstation is advertised in the NTLM negotiate message (may be empty).
func NewNTLMSSPProvider(workstation string) *NTLMSSPProvider {
	return &NTLMSSPProvider{workstation: workstation, creds: map[string]*ntlmCred{}}
}

// AcquireCred implements NTLM acquisition step.
func (p *NTLMSSPProvider) AcquireCred(ctx context.Context, identity NTLMIdentity) (Credential, error) {
	domain, user := ntlmssp.GetDomain(identity.Username)
	if domain == "" {
		domain = identity.Realm
	}
	if user == "" {
		user = identity.Username
	}

	negotiate := ntlmssp.NewNegotiateMessage(domain, p.workstation)

	id := user + "@" + domain
	p.mu.Lock()
	p.creds[id] = &ntlmCred{identity: NTLMIdentity{Username: user, Realm: domain, Password: identity.Password}, material: negotiate}
	p.mu.Unlock()

	return Credential{ID: id, DisplayName: id}, nil
}

// IterCreds enumerates credentials acquired in this process; go-ntlmssp has
// no system credential store to enumerate (it is a wire-protocol library,
// not an SSO agent), matching the limitation gsscred_other.go already
// documents for this platform family.
func (p *NTLMSSPProvider) IterCreds(ctx context.Context) ([]Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Credential, 0, len(p.creds))
	for id := range p.creds {
		out = append(out, Credential{ID: id, DisplayName: id})
	}
	return out, nil
}

// IAKERBInitialCred has no non-Windows pure-Go implementation in the pack;
// it fails, matching "complete failure" branch.
func (p *NTLMSSPProvider) IAKERBInitialCred(ctx context.Context, username, password string) (Credential, error) {
	return Credential{}, fmt.Errorf("authnego/providers: IAKERB has no non-windows backend")
}

// CredUUID synthesises a stable UUID from the negotiate-message material,
// used to rewrite sel.client on IAKERB success (not reachable on this
// backend, but kept for interface parity with the windows backend).
func (p *NTLMSSPProvider) CredUUID(ctx context.Context, cred Credential) (string, error) {
	p.mu.Lock()
	c, ok := p.creds[cred.ID]
	p.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("authnego/providers: unknown credential %q", cred.ID)
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, c.material).String(), nil
}

func (p *NTLMSSPProvider) CredLabelGet(cred Credential) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.creds[cred.ID]
	if !ok || c.label == "" {
		return "", false
	}
	return c.label, true
}

func (p *NTLMSSPProvider) CredLabelSet(cred Credential, label string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.creds[cred.ID]
	if !ok {
		return fmt.Errorf("authnego/providers: unknown credential %q", cred.ID)
	}
	c.label = label
	return nil
}

func (p *NTLMSSPProvider) CredHold(cred Credential) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.creds[cred.ID]
	if !ok {
		return fmt.Errorf("authnego/providers: unknown credential %q", cred.ID)
	}
	c.held++
	return nil
}

func (p *NTLMSSPProvider) CredUnhold(cred Credential) error {
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
		delete(p.creds, cred.ID)
	}
	return nil
}
