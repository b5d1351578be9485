package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"rb-go/internal/restic"
)

// Config represents the main configuration for rb.
type Config struct {
	HostID  string `toml:"host_id"`
	BaseDir string `toml:"base_dir"`
	LogDir  string `toml:"log_dir"`

	Repository RepositoryConfig       `toml:"repository"`
	Secret     SecretConfig           `toml:"secret"`
	Guard      GuardConfig            `toml:"guard"`
	Selector   SelectorConfig         `toml:"selector"`
	Backup     BackupConfig           `toml:"backup"`
	Retention  restic.RetentionPolicy `toml:"retention"`
	History    HistoryConfig          `toml:"history"`
}

// RepositoryConfig locates the restic repository and its credentials.
// If PasswordFile is empty the password comes from the age-encrypted secret
// store (see SecretConfig).
type RepositoryConfig struct {
	URL          string   `toml:"url"`
	PasswordFile string   `toml:"password_file,omitempty"`
	Binary       string   `toml:"binary,omitempty"` // restic binary override
	Env          []string `toml:"env,omitempty"`    // extra KEY=value pairs for the engine
}

// SecretConfig holds paths for the age-encrypted repository password.
type SecretConfig struct {
	IdentityPath string `toml:"identity_path"`
	PasswordPath string `toml:"password_path"`
}

// GuardConfig identifies the backup target host for the pre-flight
// connectivity check. An empty host disables the check.
type GuardConfig struct {
	Host           string `toml:"host,omitempty"`
	Port           int    `toml:"port,omitempty"`
	TimeoutSeconds int    `toml:"timeout_seconds,omitempty"`
}

// SelectorConfig chooses the interactive picker variant.
// Mode is "auto" (probe for fzf, fall back to numbered), "fzf", or "numbered".
type SelectorConfig struct {
	Mode string `toml:"mode"`
}

// BackupConfig lists what `rb backup` snapshots.
type BackupConfig struct {
	Paths    []string `toml:"paths"`
	Excludes []string `toml:"excludes,omitempty"`
	Tags     []string `toml:"tags,omitempty"`
}

// HistoryConfig configures the local operation-history store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type HistoryConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "none"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// NewConfig creates a new Config with the provided values and default paths.
func NewConfig(hostID, baseDir string) *Config {
	return &Config{
		HostID:  hostID,
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Secret: SecretConfig{
			IdentityPath: filepath.Join(baseDir, "keys", "rb.key"),
			PasswordPath: filepath.Join(baseDir, "keys", "repo.age"),
		},
		Guard:    GuardConfig{TimeoutSeconds: 5},
		Selector: SelectorConfig{Mode: "auto"},
		History:  HistoryConfig{Type: "sqlite", DataDir: filepath.Join(baseDir, "db")},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
