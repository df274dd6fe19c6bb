//go:build !windows

package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNTLMSSPProviderAcquireAndIterCreds(t *testing.T) {
	p := NewNTLMSSPProvider("WORKSTATION")

	cred, err := p.AcquireCred(context.Background(), NTLMIdentity{Username: "alice", Realm: "EXAMPLE", Password: "hunter2"})
	require.NoError(t, err)
	assert.Equal(t, "alice@EXAMPLE", cred.ID)

	creds, err := p.IterCreds(context.Background())
	require.NoError(t, err)
	require.Len(t, creds, 1)
	assert.Equal(t, cred.ID, creds[0].ID)
}

func TestNTLMSSPProviderDomainQualifiedUsername(t *testing.T) {
	p := NewNTLMSSPProvider("WORKSTATION")

	cred, err := p.AcquireCred(context.Background(), NTLMIdentity{Username: `EXAMPLE\alice`, Password: "hunter2"})
	require.NoError(t, err)
	assert.Equal(t, "alice@EXAMPLE", cred.ID)
}

func TestNTLMSSPProviderIAKERBUnsupported(t *testing.T) {
	p := NewNTLMSSPProvider("WORKSTATION")
	_, err := p.IAKERBInitialCred(context.Background(), "alice", "hunter2")
	assert.Error(t, err)
}

func TestNTLMSSPProviderCredUUIDIsStable(t *testing.T) {
	p := NewNTLMSSPProvider("WORKSTATION")
	cred, err := p.AcquireCred(context.Background(), NTLMIdentity{Username: "alice", Realm: "EXAMPLE", Password: "hunter2"})
	require.NoError(t, err)

	u1, err := p.CredUUID(context.Background(), cred)
	require.NoError(t, err)
	u2, err := p.CredUUID(context.Background(), cred)
	require.NoError(t, err)
	assert.Equal(t, u1, u2)
}

func TestNTLMSSPProviderLabelAndHoldLifecycle(t *testing.T) {
	p := NewNTLMSSPProvider("WORKSTATION")
	cred, err := p.AcquireCred(context.Background(), NTLMIdentity{Username: "alice", Realm: "EXAMPLE", Password: "hunter2"})
	require.NoError(t, err)

	_, ok := p.CredLabelGet(cred)
	assert.False(t, ok)

	require.NoError(t, p.CredLabelSet(cred, "my-label"))
	label, ok := p.CredLabelGet(cred)
	require.True(t, ok)
	assert.Equal(t, "my-label", label)

	require.NoError(t, p.CredHold(cred))
	require.NoError(t, p.CredHold(cred))
	require.NoError(t, p.CredUnhold(cred))

	creds, err := p.IterCreds(context.Background())
	require.NoError(t, err)
	assert.Len(t, creds, 1, "still held once, must not be evicted")

	require.NoError(t, p.CredUnhold(cred))
	creds, err = p.IterCreds(context.Background())
	require.NoError(t, err)
	assert.Empty(t, creds, "unheld to zero, evicted")
}
