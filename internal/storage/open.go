package storage

import "fmt"

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	// BackendPrefs is served by NewPreferences and needs a running fyne app.
	BackendPrefs = "prefs"
)

// Store is a closable key-value backend.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Close() error
}

// Open builds a backend that does not need the GUI.
func Open(backend, path string) (Store, error) {
	switch backend {
	case BackendMemory:
		return NewMemory(), nil
	case BackendFile, "":
		return OpenFile(path)
	case BackendSQLite:
		if path == "" {
			return nil, fmt.Errorf("sqlite backend requires a path")
		}
		return OpenSQLite(path)
	case BackendPrefs:
		return nil, fmt.Errorf("%s backend is only available in the desktop app", backend)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
