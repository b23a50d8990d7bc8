// Package session owns the process-wide authentication token and its
// durable slot on disk.
package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/jask/webforge/internal/model"
)

// Per-user token file (0600) with AES-GCM obfuscation. Not a replacement
// for an OS keychain but keeps the token out of plain text.

const fileName = "session.json"

type sessionFile struct {
	Token string `json:"token"` // base64(ciphertext)
}

// Store holds the current token in memory and mirrors it to one file.
type Store struct {
	mu      sync.RWMutex
	path    string
	current model.Session
}

// NewStore returns a store whose durable slot lives in dir. The directory
// is created on first write.
func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, fileName)}
}

// Path is the location of the durable slot.
func (s *Store) Path() string { return s.path }

// Restore reads the persisted token, if any, into memory. A missing file
// yields the absent session.
func (s *Store) Restore() (model.Session, error) {
	sf, err := load(s.path)
	if err != nil {
		return model.Session{}, err
	}
	var sess model.Session
	if sf.Token != "" {
		raw, err := base64.StdEncoding.DecodeString(sf.Token)
		if err != nil {
			return model.Session{}, fmt.Errorf("decode session: %w", err)
		}
		pt, err := decrypt(raw)
		if err != nil {
			return model.Session{}, fmt.Errorf("decrypt session: %w", err)
		}
		sess.Token = string(pt)
	}
	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()
	return sess, nil
}

// Current returns the in-memory session without touching disk.
func (s *Store) Current() model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set stores token in memory and on disk. The write completes before Set
// returns, so a later process observes it.
func (s *Store) Set(token string) error {
	if token == "" {
		return model.Invalid("empty session token")
	}
	ct, err := encrypt([]byte(token))
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := save(s.path, sessionFile{Token: base64.StdEncoding.EncodeToString(ct)}); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	s.current = model.Session{Token: token}
	return nil
}

// Clear drops the token from memory and disk. Safe to call when no session
// exists.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = model.Session{}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

func load(path string) (sessionFile, error) {
	var sf sessionFile
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return sessionFile{}, nil
		}
		return sf, err
	}
	if err := json.Unmarshal(data, &sf); err != nil {
		return sf, fmt.Errorf("parse session file: %w", err)
	}
	return sf, nil
}

func save(path string, sf sessionFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil { // restrict directory
		return err
	}
	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func masterKey() []byte {
	base := fmt.Sprintf("webforge-%s-%s", runtime.GOOS, os.Getenv("USER"))
	hash := sha256.Sum256([]byte(base))
	return hash[:]
}

func newGCM() (cipher.AEAD, error) {
	block, err := aes.NewCipher(masterKey())
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func encrypt(plain []byte) ([]byte, error) {
	gcm, err := newGCM()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plain, nil), nil
}

func decrypt(ciphertext []byte) ([]byte, error) {
	gcm, err := newGCM()
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce := ciphertext[:gcm.NonceSize()]
	body := ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, body, nil)
}
