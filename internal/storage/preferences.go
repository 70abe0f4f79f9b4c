package storage

import "fyne.io/fyne/v2"

// Preferences adapts fyne's per-application preferences to a key-value store.
// fyne keeps them in the platform's application storage and saves them itself.
type Preferences struct {
	prefs fyne.Preferences
}

// NewPreferences wraps an application's preferences, usually app.Preferences().
func NewPreferences(prefs fyne.Preferences) *Preferences {
	return &Preferences{prefs: prefs}
}

// Get returns the stored value. fyne does not distinguish an empty string from a
// missing key, so an empty value reads as absent.
func (p *Preferences) Get(key string) ([]byte, bool, error) {
	v := p.prefs.String(key)
	if v == "" {
		return nil, false, nil
	}
	return []byte(v), true, nil
}

// Set stores value as a string preference.
func (p *Preferences) Set(key string, value []byte) error {
	p.prefs.SetString(key, string(value))
	return nil
}

// Close is a no-op; the fyne app owns the preferences lifecycle.
func (p *Preferences) Close() error {
	return nil
}
