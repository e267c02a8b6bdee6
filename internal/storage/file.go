package storage

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/g-but/fitfoot/internal/apperrors"
)

// File keeps values in a single JSON document on disk.
// Every change rewrites the whole document through a temp file and rename,
// so a crash leaves either the old or the new state, never a torn one.
// When opened with a key the document is sealed with XChaCha20-Poly1305.
type File struct {
	path string
	aead cipher.AEAD

	mu     sync.RWMutex
	values map[string]string
}

// ParseKey decodes hex encoded 32 bytes key (the output of gensecret)
func ParseKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("state key is not hex encoded: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("state key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	return key, nil
}

// OpenFile loads state from path. Missing file means empty state.
// key may be nil to keep the document in plain JSON.
func OpenFile(path string, key []byte) (*File, error) {
	f := &File{
		path:   path,
		values: make(map[string]string),
	}

	if key != nil {
		aead, err := chacha20poly1305.NewX(key)
		if err != nil {
			return nil, fmt.Errorf("error while preparing state cipher. Err: %w", err)
		}
		f.aead = aead
	}

	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("error while reading state file. Err: %w", err)
	}

	if f.aead != nil {
		content, err = f.open(content)
		if err != nil {
			return nil, err
		}
	}

	if err := json.Unmarshal(content, &f.values); err != nil {
		return nil, fmt.Errorf("state file %s is corrupted, remove it to start over. Err: %w", path, err)
	}
	if f.values == nil {
		f.values = make(map[string]string)
	}

	return f, nil
}

func (f *File) Path() string {
	return f.path
}

func (f *File) Get(key string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	v, ok := f.values[key]
	return v, ok
}

func (f *File) Set(key string, value string) error {
	if key == "" {
		return apperrors.ErrStorageKeyInvalid
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	prev, existed := f.values[key]
	f.values[key] = value

	if err := f.save(); err != nil {
		// keep memory in line with disk
		if existed {
			f.values[key] = prev
		} else {
			delete(f.values, key)
		}
		return err
	}
	return nil
}

func (f *File) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, existed := f.values[key]
	if !existed {
		return nil
	}
	delete(f.values, key)

	if err := f.save(); err != nil {
		f.values[key] = prev
		return err
	}
	return nil
}

// save has to be called with write lock held
func (f *File) save() error {
	content, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		return err
	}

	if f.aead != nil {
		content, err = f.seal(content)
		if err != nil {
			return err
		}
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("error while creating state dir. Err: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("error while creating temp state file. Err: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // nolint:errcheck

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("error while writing state. Err: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("error while syncing state. Err: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error while closing state file. Err: %w", err)
	}

	return os.Rename(tmpPath, f.path)
}

func (f *File) seal(plain []byte) ([]byte, error) {
	nonce := make([]byte, f.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("error while generating nonce. Err: %w", err)
	}
	return f.aead.Seal(nonce, nonce, plain, nil), nil
}

func (f *File) open(sealed []byte) ([]byte, error) {
	size := f.aead.NonceSize()
	if len(sealed) < size {
		return nil, fmt.Errorf("state file %s is too short to be encrypted", f.path)
	}

	plain, err := f.aead.Open(nil, sealed[:size], sealed[size:], nil)
	if err != nil {
		return nil, fmt.Errorf("state file %s can't be decrypted, wrong key? Err: %w", f.path, err)
	}
	return plain, nil
}
