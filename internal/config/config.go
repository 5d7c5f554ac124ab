package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	dbFileName       = "dinners.db"
	settingsFileName = "config.yaml"

	// DefaultListenAddr is where `serve` listens unless configured otherwise.
	DefaultListenAddr = "127.0.0.1:8420"
	// DefaultTxTimeout bounds a single export or import transaction.
	DefaultTxTimeout = 30 * time.Second
)

// Environment variables read by Resolve.
const (
	EnvPath       = "DINNERPLAN_PATH"
	EnvListenAddr = "DINNERPLAN_LISTEN_ADDR"
	EnvAdminToken = "DINNERPLAN_ADMIN_TOKEN"
	EnvTxTimeout  = "DINNERPLAN_TX_TIMEOUT"
)

// Settings are the tunables stored in config.yaml.
type Settings struct {
	ListenAddr string        `yaml:"listen_addr" json:"listen_addr"`
	AdminToken string        `yaml:"admin_token,omitempty" json:"-"`
	TxTimeout  time.Duration `yaml:"tx_timeout" json:"tx_timeout"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		ListenAddr: DefaultListenAddr,
		TxTimeout:  DefaultTxTimeout,
	}
}

// Config holds resolved configuration for the dinnerplan directory and database.
type Config struct {
	Dir          string // resolved .dinnerplan directory path
	DBPath       string // full path to dinners.db
	SettingsPath string // full path to config.yaml
	EnvVarSet    bool   // whether DINNERPLAN_PATH was used
	Settings     Settings
}

// Resolve returns the current configuration. A .env file in the working
// directory is loaded first, without overriding variables already set. The
// directory comes from DINNERPLAN_PATH, falling back to $PWD/.dinnerplan.
// Settings start from the defaults, are overlaid by config.yaml when present,
// and then by DINNERPLAN_* environment variables.
func Resolve() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	var dir string
	var envVarSet bool

	if envPath := os.Getenv(EnvPath); envPath != "" {
		dir = envPath
		envVarSet = true
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(cwd, ".dinnerplan")
	}

	cfg := &Config{
		Dir:          dir,
		DBPath:       filepath.Join(dir, dbFileName),
		SettingsPath: filepath.Join(dir, settingsFileName),
		EnvVarSet:    envVarSet,
	}

	settings, err := LoadSettings(cfg.SettingsPath)
	if err != nil {
		return nil, err
	}
	if err := settings.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	cfg.Settings = settings

	return cfg, nil
}

// loadDotEnv loads path into the environment if it exists.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// LoadSettings reads a YAML settings file on top of the defaults. A missing
// file yields the defaults.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if settings.TxTimeout <= 0 {
		return Settings{}, fmt.Errorf("parsing %s: tx_timeout must be positive", path)
	}
	return settings, nil
}

// WriteSettings stores s as YAML at path, readable only by the owner since it
// may carry the admin token.
func WriteSettings(path string, s Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays DINNERPLAN_* variables read through getenv.
func (s *Settings) applyEnv(getenv func(string) string) error {
	if v := getenv(EnvListenAddr); v != "" {
		s.ListenAddr = v
	}
	if v := getenv(EnvAdminToken); v != "" {
		s.AdminToken = v
	}
	if v := getenv(EnvTxTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTxTimeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s: must be positive, got %s", EnvTxTimeout, v)
		}
		s.TxTimeout = d
	}
	return nil
}

// Exists checks if the dinnerplan directory and DB file both exist.
// It returns an error for non-existence failures (e.g. permission errors).
func (c *Config) Exists() (bool, error) {
	if _, err := os.Stat(c.Dir); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if _, err := os.Stat(c.DBPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

var (
	defaultUser     string
	defaultUserOnce sync.Once
)

// DefaultUser returns the username commands act as when --user is not given.
// It tries git config user.name first and falls back to the OS username.
// The result is cached for the lifetime of the process.
func DefaultUser() string {
	defaultUserOnce.Do(func() {
		defaultUser = resolveUser()
	})
	return defaultUser
}

func resolveUser() string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, "git", "config", "user.name").Output()
	if err == nil {
		if name := strings.TrimSpace(string(out)); name != "" {
			return name
		}
	}

	u, err := user.Current()
	if err == nil && u.Username != "" {
		return u.Username
	}

	return "unknown"
}
