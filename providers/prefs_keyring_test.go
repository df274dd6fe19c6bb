package providers

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// These tests assume a sandboxed test environment with no OS Secret Service
// reachable, so every keyring.Get/Set call errors and KeyringStore falls
// back to the wrapped FileStore. That fallback path is what's asserted here;
// the real-keyring path needs a machine with Keychain/Credential
// Manager/Secret Service available and isn't exercised by this suite.
func newTestKeyringStore(t *testing.T) *KeyringStore {
	t.Helper()
	fs, err := LoadFileStore(filepath.Join(t.TempDir(), "prefs.json"))
	require.NoError(t, err)
	return NewKeyringStore(fs)
}

func TestKeyringStoreFallsBackToFileStoreForGSSEnabled(t *testing.T) {
	k := newTestKeyringStore(t)
	require.True(t, k.GSSEnabled(), "FileStore defaults GSSEnable to true")
}

func TestKeyringStoreFallsBackToFileStoreForUserSelections(t *testing.T) {
	k := newTestKeyringStore(t)

	entries := []UserSelectionEntry{{Mech: "ntlm", Domain: "HOST", Client: "alice@HOST"}}
	require.NoError(t, k.SetUserSelections(entries))

	got, err := k.UserSelections()
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "alice@HOST", got[0].Client)

	// Confirm it actually landed in the fallback file store, not just an
	// in-process cache.
	reloaded, err := k.fallback.UserSelections()
	require.NoError(t, err)
	require.Len(t, reloaded, 1)
}
