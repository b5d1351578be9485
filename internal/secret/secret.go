// Package secret stores the restic repository password age-encrypted on
// disk, so the plaintext never sits in a config file. A locally generated
// X25519 identity (file mode 0600) takes the place of an OS keychain.
package secret

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"filippo.io/age"

	"rb-go/internal/config"
)

// Store manages the age identity and the encrypted repository password.
type Store struct {
	identityPath string
	passwordPath string
}

// NewStore creates a Store from configuration.
func NewStore(cfg config.SecretConfig) *Store {
	return &Store{
		identityPath: cfg.IdentityPath,
		passwordPath: cfg.PasswordPath,
	}
}

// Init generates a new X25519 identity and writes it to the identity path.
// Refuses to overwrite an existing identity: losing it would make the
// stored password unrecoverable, so replacing it must be a deliberate
// manual step.
func (s *Store) Init() error {
	if _, err := os.Stat(s.identityPath); err == nil {
		return fmt.Errorf("identity already exists at %s", s.identityPath)
	}

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return fmt.Errorf("generating identity: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.identityPath), 0700); err != nil {
		return fmt.Errorf("creating identity directory: %w", err)
	}
	if err := os.WriteFile(s.identityPath, []byte(identity.String()+"\n"), 0600); err != nil {
		return fmt.Errorf("writing identity: %w", err)
	}

	return nil
}

// Set encrypts the repository password to the identity's recipient and
// writes it to the password path, replacing any previous value.
func (s *Store) Set(password string) error {
	identity, err := s.loadIdentity()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.passwordPath), 0700); err != nil {
		return fmt.Errorf("creating secret directory: %w", err)
	}

	f, err := os.OpenFile(s.passwordPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating password file: %w", err)
	}
	defer f.Close()

	w, err := age.Encrypt(f, identity.Recipient())
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := io.WriteString(w, password); err != nil {
		return fmt.Errorf("writing encrypted password: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing encrypted password: %w", err)
	}

	return nil
}

// Get decrypts and returns the stored repository password.
func (s *Store) Get() (string, error) {
	identity, err := s.loadIdentity()
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(s.passwordPath)
	if err != nil {
		return "", fmt.Errorf("reading password file: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(data), identity)
	if err != nil {
		return "", fmt.Errorf("decrypting password: %w", err)
	}

	password, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading decrypted password: %w", err)
	}

	return string(password), nil
}

// IsConfigured returns true if both the identity and a stored password exist.
func (s *Store) IsConfigured() bool {
	if _, err := os.Stat(s.identityPath); err != nil {
		return false
	}
	if _, err := os.Stat(s.passwordPath); err != nil {
		return false
	}
	return true
}

// loadIdentity reads and parses the X25519 identity file.
func (s *Store) loadIdentity() (*age.X25519Identity, error) {
	data, err := os.ReadFile(s.identityPath)
	if err != nil {
		return nil, fmt.Errorf("reading identity (run 'rb secret init' first): %w", err)
	}

	identities, err := age.ParseIdentities(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing identity: %w", err)
	}
	if len(identities) == 0 {
		return nil, fmt.Errorf("no identities found in %s", s.identityPath)
	}

	identity, ok := identities[0].(*age.X25519Identity)
	if !ok {
		return nil, fmt.Errorf("identity in %s is not an X25519 identity", s.identityPath)
	}

	return identity, nil
}
