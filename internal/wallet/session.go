package wallet

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// The session file caches unlocked keys between invocations so a run of
// `owner add` confirmations does not hit the keychain every time. It lives in
// the user cache dir with 0600 permissions:
//
//	Linux:   ~/.cache/astrometer/session.json
//	macOS:   ~/Library/Caches/astrometer/session.json
//	Windows: %LocalAppData%\astrometer\session.json
func sessionFilePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, keychainService, "session.json")
}

// loadSessionKeys never returns nil; a missing or corrupt file reads as empty.
func loadSessionKeys() map[string]string {
	m := make(map[string]string)
	data, err := os.ReadFile(sessionFilePath())
	if err != nil {
		return m
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return make(map[string]string)
	}
	return m
}

func saveSessionKeys(m map[string]string) error {
	path := sessionFilePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// GetSessionKey returns a cached key for ref.
func GetSessionKey(ref string) (string, bool) {
	v, ok := loadSessionKeys()[ref]
	return v, ok
}

// PutSessionKey caches hexKey for ref in the session file.
func PutSessionKey(ref, hexKey string) error {
	m := loadSessionKeys()
	m[ref] = hexKey
	return saveSessionKeys(m)
}

// RemoveSessionKey evicts ref from the session file.
func RemoveSessionKey(ref string) {
	m := loadSessionKeys()
	if _, ok := m[ref]; !ok {
		return
	}
	delete(m, ref)
	_ = saveSessionKeys(m)
}

// SessionUnlocked reports whether the wallet called name has a cached key.
func SessionUnlocked(name string) bool {
	_, ok := GetSessionKey(keychainService + "." + name)
	return ok
}

// Unlock copies the key of a signing wallet into the session file.
func (m *Manager) Unlock(name string) error {
	w, err := m.Get(name)
	if err != nil {
		return err
	}
	if !w.CanSign() {
		return ErrWatchOnly
	}
	key, err := m.ks.Retrieve(w.KeyRef)
	if err != nil {
		return err
	}
	return PutSessionKey(w.KeyRef, key)
}

// ClearSession forgets every cached key.
func ClearSession() error {
	sessionCache.Clear()
	err := os.Remove(sessionFilePath())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
