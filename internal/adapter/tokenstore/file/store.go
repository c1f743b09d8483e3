// Package file persists the session credential in a local file, optionally
// sealed with a passphrase-derived key.
package file

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

const (
	formatVersion = 1
	saltSize      = 16
	keySize       = chacha20poly1305.KeySize

	defaultScryptN = 1 << 15
	scryptR        = 8
	scryptP        = 1
)

// ErrLocked is returned when the file is sealed and no (or a wrong)
// passphrase was configured.
var ErrLocked = errors.New("token file is sealed with a different passphrase")

// envelope is the on-disk representation. Data holds the JSON-encoded
// entries, sealed when Salt and Nonce are present.
type envelope struct {
	Version   int       `json:"version"`
	Salt      []byte    `json:"salt,omitempty"`
	Nonce     []byte    `json:"nonce,omitempty"`
	Data      []byte    `json:"data"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is a TokenStore backed by a single file. Writes replace the file
// atomically (temp file + rename). Last writer wins across processes.
type Store struct {
	path       string
	key        string
	passphrase []byte
	scryptN    int
	log        *slog.Logger

	mu sync.Mutex
}

// New creates a Store at path holding the credential under key. An empty
// passphrase stores the file unsealed with 0600 permissions.
func New(path, key, passphrase string, logger *slog.Logger) *Store {
	return &Store{
		path:       filepath.Clean(path),
		key:        key,
		passphrase: []byte(passphrase),
		scryptN:    defaultScryptN,
		log:        logger.With("adapter", "tokenstore.file"),
	}
}

// Path returns the file location.
func (s *Store) Path() string { return s.path }

func (s *Store) Get(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return "", err
	}
	return entries[s.key], nil
}

func (s *Store) Set(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		if !errors.Is(err, ErrLocked) {
			return err
		}
		// A file sealed with another passphrase is replaced.
		s.log.Warn("replacing token file sealed with another passphrase", slog.String("path", s.path))
		entries = map[string]string{}
	}
	entries[s.key] = token
	return s.write(entries)
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if errors.Is(err, ErrLocked) {
		return s.remove()
	}
	if err != nil {
		return err
	}
	if _, ok := entries[s.key]; !ok {
		return nil
	}
	delete(entries, s.key)
	if len(entries) == 0 {
		return s.remove()
	}
	return s.write(entries)
}

func (s *Store) remove() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("tokenstore.file: remove: %w", err)
	}
	return nil
}

func (s *Store) read() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("tokenstore.file: read: %w", err)
	}
	if len(raw) == 0 {
		return map[string]string{}, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("tokenstore.file: decode: %w", err)
	}
	if env.Version != formatVersion {
		return nil, fmt.Errorf("tokenstore.file: unsupported format version %d", env.Version)
	}

	data := env.Data
	if len(env.Salt) > 0 {
		if len(s.passphrase) == 0 {
			return nil, ErrLocked
		}
		data, err = s.open(env.Salt, env.Nonce, env.Data)
		if err != nil {
			return nil, err
		}
	}

	entries := map[string]string{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("tokenstore.file: decode entries: %w", err)
	}
	return entries, nil
}

func (s *Store) write(entries map[string]string) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("tokenstore.file: encode entries: %w", err)
	}

	env := envelope{Version: formatVersion, Data: data, UpdatedAt: time.Now().UTC()}
	if len(s.passphrase) > 0 {
		env.Salt, env.Nonce, env.Data, err = s.seal(data)
		if err != nil {
			return err
		}
	}

	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("tokenstore.file: encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("tokenstore.file: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return fmt.Errorf("tokenstore.file: create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenstore.file: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenstore.file: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tokenstore.file: close: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("tokenstore.file: chmod: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("tokenstore.file: rename: %w", err)
	}
	return nil
}

func (s *Store) deriveKey(salt []byte) ([]byte, error) {
	key, err := scrypt.Key(s.passphrase, salt, s.scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, fmt.Errorf("tokenstore.file: derive key: %w", err)
	}
	return key, nil
}

func (s *Store) seal(plain []byte) (salt, nonce, sealed []byte, err error) {
	salt = make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, nil, fmt.Errorf("tokenstore.file: salt: %w", err)
	}
	key, err := s.deriveKey(salt)
	if err != nil {
		return nil, nil, nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("tokenstore.file: cipher: %w", err)
	}
	nonce = make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, nil, fmt.Errorf("tokenstore.file: nonce: %w", err)
	}
	return salt, nonce, aead.Seal(nil, nonce, plain, nil), nil
}

func (s *Store) open(salt, nonce, sealed []byte) ([]byte, error) {
	key, err := s.deriveKey(salt)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("tokenstore.file: cipher: %w", err)
	}
	if len(nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("tokenstore.file: bad nonce length %d", len(nonce))
	}
	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrLocked
	}
	return plain, nil
}
