package providers

import (
	"encoding/json"

	"github.com/zalando/go-keyring"
)

const (
	keyringService        = "authnego"
	keyringUserSelections = "user-selections"
	keyringGSSEnable       = "gss-enable"
)

// KeyringStore is a PreferenceStore backed by the OS secret store (macOS
// Keychain, Windows Credential Manager, Secret Service on Linux), grounded
// on vjeantet-alpaca's go.mod dependency on zalando/go-keyring. It falls
// back to a FileStore transparently when no OS keyring is available —
// headless CI, minimal containers — so the engine keeps working there too.
type KeyringStore struct {
	fallback *FileStore
}

// NewKeyringStore wraps fallback (used whenever the OS keyring is
// unavailable or empty for a given key).
func NewKeyringStore(fallback *FileStore) *KeyringStore {
	return &KeyringStore{fallback: fallback}
}

// GSSEnabled implements PreferenceStore.
func (k *KeyringStore) GSSEnabled() bool {
	val, err := keyring.Get(keyringService, keyringGSSEnable)
	if err != nil {
		return k.fallback.GSSEnabled()
	}
	return val == "true"
}

// UserSelections implements PreferenceStore.
func (k *KeyringStore) UserSelections() ([]UserSelectionEntry, error) {
	raw, err := keyring.Get(keyringService, keyringUserSelections)
	if err != nil {
		return k.fallback.UserSelections()
	}
	var entries []UserSelectionEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, &IoFailure{Op: "parse keyring user selections", Err: err}
	}
	return entries, nil
}

// SetUserSelections writes entries into the OS keyring, falling back to the
// file store on any keyring error (e.g. no Secret Service running).
func (k *KeyringStore) SetUserSelections(entries []UserSelectionEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return &IoFailure{Op: "marshal user selections", Err: err}
	}
	if err := keyring.Set(keyringService, keyringUserSelections, string(data)); err != nil {
		return k.fallback.SetUserSelections(entries)
	}
	return nil
}

// CachePassword stores a password under a stable per-principal key, used so
// a caller need not re-prompt across Sessions for the same principal.
func CachePassword(principal, password string) error {
	return keyring.Set(keyringService, "password:"+principal, password)
}

// CachedPassword retrieves a password stored by CachePassword.
func CachedPassword(principal string) (string, bool) {
	val, err := keyring.Get(keyringService, "password:"+principal)
	if err != nil {
		return "", false
	}
	return val, true
}
