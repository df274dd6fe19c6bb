package providers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreMissingFileDefaultsToEnabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.json")

	fs, err := LoadFileStore(path)
	require.NoError(t, err)
	assert.True(t, fs.GSSEnabled())

	entries, err := fs.UserSelections()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileStoreSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")

	fs, err := LoadFileStore(path)
	require.NoError(t, err)

	user := "alice"
	entries := []UserSelectionEntry{{Mech: "ntlm", Domain: "HOST", User: &user, Client: "alice@HOST"}}
	require.NoError(t, fs.SetUserSelections(entries))

	reloaded, err := LoadFileStore(path)
	require.NoError(t, err)

	got, err := reloaded.UserSelections()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ntlm", got[0].Mech)
	assert.Equal(t, "alice@HOST", got[0].Client)
}

func TestFileStoreCorruptFileIsAnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prefs.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))

	_, err := LoadFileStore(path)
	require.Error(t, err)
	var ioErr *IoFailure
	assert.ErrorAs(t, err, &ioErr)
}
