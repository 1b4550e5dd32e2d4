package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	Vault    VaultConfig
	Import   ImportConfig
	Budget   BudgetConfig
	UI       UIConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// VaultConfig holds key-derivation settings.
type VaultConfig struct {
	KDFIterations int `mapstructure:"kdf_iterations"`
}

// ImportConfig holds CSV import settings.
type ImportConfig struct {
	DefaultFormat string `mapstructure:"default_format"`
}

// BudgetConfig holds the explicit fallback policy: when no override exists
// for a month, fall back to the category default limit instead of zero.
type BudgetConfig struct {
	FallbackToDefault bool `mapstructure:"fallback_to_default"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	Timezone string
}

// Load reads configuration from file and env. Env var overrides use prefix LEDGERLOCK_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "ledgerlock", "ledger.db"))
	v.SetDefault("vault.kdf_iterations", 100_000)
	v.SetDefault("import.default_format", "checking")
	v.SetDefault("budget.fallback_to_default", false)
	v.SetDefault("ui.timezone", "Local")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("LEDGERLOCK_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "ledgerlock"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("LEDGERLOCK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if
// needed. Only non-sensitive preferences live here; the vault password is
// never written anywhere.
func Save(cfg Config) error {
	path := os.Getenv("LEDGERLOCK_CONFIG")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", "ledgerlock", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("vault.kdf_iterations", cfg.Vault.KDFIterations)
	v.Set("import.default_format", cfg.Import.DefaultFormat)
	v.Set("budget.fallback_to_default", cfg.Budget.FallbackToDefault)
	v.Set("ui.timezone", cfg.UI.Timezone)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
