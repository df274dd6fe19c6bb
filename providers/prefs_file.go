package providers

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// preferencesDoc is the on-disk shape of the preferences file, direct
// generalisation of config.go's Config struct.
type preferencesDoc struct {
	GSSEnable      *bool                `json:"GSSEnable,omitempty"`
	UserSelections []UserSelectionEntry `json:"UserSelections,omitempty"`
}

// FileStore is the JSON-file-backed PreferenceStore, direct generalisation
// of config.go (LoadConfig/SaveConfig/CreateDefaultConfig).
type FileStore struct {
	path string
	doc  preferencesDoc
}

// DefaultPreferencesPath mirrors DefaultConfigPath, but under
// this module's own config directory.
func DefaultPreferencesPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "authnego", "preferences.json")
}

// LoadFileStore loads preferences from path (DefaultPreferencesPath() if
// empty). A missing file is not an error: it yields the defaults (GSSEnable
// true, no overrides) rather than erroring on first run.
func LoadFileStore(path string) (*FileStore, error) {
	if path == "" {
		path = DefaultPreferencesPath()
	}
	fs := &FileStore{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fs, nil
	}
	if err != nil {
		return nil, &IoFailure{Op: "read preferences", Err: err}
	}
	if err := json.Unmarshal(data, &fs.doc); err != nil {
		return nil, &IoFailure{Op: "parse preferences", Err: err}
	}
	return fs, nil
}

// Save persists the store back to disk, using the same 0600
// permission choice config.go uses for its config file.
func (fs *FileStore) Save() error {
	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &IoFailure{Op: "create preferences directory", Err: err}
	}
	data, err := json.MarshalIndent(fs.doc, "", "  ")
	if err != nil {
		return &IoFailure{Op: "marshal preferences", Err: err}
	}
	if err := os.WriteFile(fs.path, data, 0600); err != nil {
		return &IoFailure{Op: "write preferences", Err: err}
	}
	return nil
}

// SetUserSelections replaces the override list and saves.
func (fs *FileStore) SetUserSelections(entries []UserSelectionEntry) error {
	fs.doc.UserSelections = entries
	return fs.Save()
}

// GSSEnabled implements PreferenceStore.
func (fs *FileStore) GSSEnabled() bool {
	if fs.doc.GSSEnable == nil {
		return true
	}
	return *fs.doc.GSSEnable
}

// UserSelections implements PreferenceStore.
func (fs *FileStore) UserSelections() ([]UserSelectionEntry, error) {
	return fs.doc.UserSelections, nil
}

// IoFailure is declared here, not imported, so that the providers package
// does not depend back on the root module (it reports errors in its own
// right; the root package wraps these where useful).
type IoFailure struct {
	Op  string
	Err error
}

func (e *IoFailure) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *IoFailure) Unwrap() error  { return e.Err }
