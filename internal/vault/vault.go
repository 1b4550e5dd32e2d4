// Package vault holds the password-derived encryption key and performs
// authenticated encryption of individual record fields. A Vault is either
// unlocked (key in memory) or locked; the key is never persisted.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/crypto/pbkdf2"
)

var (
	// ErrLocked is returned by Encrypt/Decrypt after Lock. Recoverable by
	// re-opening the vault with the password.
	ErrLocked = errors.New("vault: locked")
	// ErrKeyDerivation means the key could not be derived from the inputs.
	ErrKeyDerivation = errors.New("vault: key derivation failed")
	// ErrDecrypt covers wrong key, corrupted data and tampering. Retrying
	// with the same key cannot succeed.
	ErrDecrypt = errors.New("vault: decrypt failed")
)

const (
	saltLen = 16
	keyLen  = 32
)

// Params controls the PBKDF2 work factor.
type Params struct {
	Iterations int
}

// DefaultParams matches the original ledger's work factor.
func DefaultParams() Params { return Params{Iterations: 100_000} }

// Vault is the handle passed to every crypto call. The zero value is
// unusable; always construct through Open.
type Vault struct {
	mu     sync.RWMutex
	key    []byte
	locked bool
}

// Open derives the encryption key from password and salt. The salt is the
// persisted KDF salt, not the password-hash salt.
func Open(password string, salt []byte, p Params) (*Vault, error) {
	if password == "" {
		return nil, fmt.Errorf("%w: empty password", ErrKeyDerivation)
	}
	if len(salt) < saltLen {
		return nil, fmt.Errorf("%w: salt too short (%d bytes)", ErrKeyDerivation, len(salt))
	}
	if p.Iterations <= 0 {
		p = DefaultParams()
	}
	key := pbkdf2.Key([]byte(password), salt, p.Iterations, keyLen, sha256.New)
	return &Vault{key: key}, nil
}

// NewSalt generates a fresh random KDF salt for first-run setup.
func NewSalt() ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyDerivation, err)
	}
	return salt, nil
}

// Encrypt seals plaintext with AES-256-GCM under a fresh random nonce and
// returns base64(nonce || ciphertext). Two calls with the same plaintext
// produce different output.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.locked {
		return "", ErrLocked
	}
	gcm, err := v.aead()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("vault: nonce: %w", err)
	}
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Any authentication failure surfaces as
// ErrDecrypt, which callers must keep distinct from a not-found condition.
func (v *Vault) Decrypt(ciphertext string) (string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.locked {
		return "", ErrLocked
	}
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: bad encoding", ErrDecrypt)
	}
	gcm, err := v.aead()
	if err != nil {
		return "", err
	}
	ns := gcm.NonceSize()
	if len(raw) < ns {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecrypt)
	}
	nonce, body := raw[:ns], raw[ns:]
	plain, err := gcm.Open(nil, nonce, body, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return string(plain), nil
}

// Lock zeroes the key. It acts as a barrier: calls already holding the read
// lock complete, nothing starts afterwards.
func (v *Vault) Lock() {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.key {
		v.key[i] = 0
	}
	v.key = nil
	v.locked = true
}

// Locked reports whether Lock has been called.
func (v *Vault) Locked() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.locked
}

func (v *Vault) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(v.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyDerivation, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyDerivation, err)
	}
	return gcm, nil
}

// HashPassword derives a verification hash with its own random salt, encoded
// as "salt$hash". It shares nothing with the encryption key derivation.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: empty password", ErrKeyDerivation)
	}
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("%w: %v", ErrKeyDerivation, err)
	}
	hash := pbkdf2.Key([]byte(password), salt, DefaultParams().Iterations, keyLen, sha256.New)
	return base64.RawStdEncoding.EncodeToString(salt) + "$" + base64.RawStdEncoding.EncodeToString(hash), nil
}

// VerifyPassword checks password against a stored "salt$hash" string.
func VerifyPassword(password, stored string) bool {
	if password == "" || stored == "" {
		return false
	}
	parts := strings.Split(stored, "$")
	if len(parts) != 2 {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}
	got := pbkdf2.Key([]byte(password), salt, DefaultParams().Iterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}
