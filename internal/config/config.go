package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/reconcile/internal/model"
)

// FileName is the config file looked up in the working directory.
const FileName = "reconcile.yaml"

// EnvDSN overrides Storage.DSN when set.
const EnvDSN = "RECONCILE_DSN"

// Config represents the top-level reconcile.yaml configuration.
type Config struct {
	Business     BusinessConfig `yaml:"business"`
	Ledger       LedgerConfig   `yaml:"ledger"`
	BankAccounts []BankAccount  `yaml:"bank_accounts,omitempty"`
	QuickEntries []QuickEntry   `yaml:"quick_entries,omitempty"`
	Storage      StorageConfig  `yaml:"storage"`
	Server       ServerConfig   `yaml:"server"`
	Log          LogConfig      `yaml:"log"`
	Git          GitConfig      `yaml:"git"`
}

// BusinessConfig identifies the business entity.
type BusinessConfig struct {
	Name     string `yaml:"name"`
	Currency string `yaml:"currency"`
}

// LedgerConfig locates the ledger files and its control accounts.
type LedgerConfig struct {
	Root             string `yaml:"root"`
	Receivables      int    `yaml:"receivables"`
	Payables         int    `yaml:"payables"`
	SearchWindowDays int    `yaml:"search_window_days"`
}

// BankAccount is one of the organisation's own bank accounts.
type BankAccount struct {
	ID        int    `yaml:"id"`
	Name      string `yaml:"name"`
	Number    string `yaml:"number"`
	Currency  string `yaml:"currency,omitempty"`
	AccountID int    `yaml:"account_id"`
}

// QuickEntry is a posting template for routine payments and deposits.
type QuickEntry struct {
	ID        int    `yaml:"id"`
	Label     string `yaml:"label"`
	AccountID int    `yaml:"account_id"`
}

// StorageConfig selects the transaction store.
type StorageConfig struct {
	Driver string `yaml:"driver"` // sqlite | postgres
	DSN    string `yaml:"dsn"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console | json
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a reconcile.yaml file from disk and applies environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(businessName string) *Config {
	return &Config{
		Business: BusinessConfig{
			Name:     businessName,
			Currency: "EUR",
		},
		Ledger: LedgerConfig{
			Root:             ".",
			Receivables:      1200,
			Payables:         2100,
			SearchWindowDays: 14,
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			DSN:    "reconcile.db",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Reconcile Bot",
			AuthorEmail: "bot@cleared.dev",
		},
	}
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv() {
	if dsn := os.Getenv(EnvDSN); dsn != "" {
		c.Storage.DSN = dsn
	}
}

// Validate checks the settings that later stages cannot recover from.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Storage.Driver) {
	case "", "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	seen := make(map[int]bool)
	for _, ba := range c.BankAccounts {
		if ba.ID <= 0 {
			return fmt.Errorf("bank account %q: id must be positive", ba.Name)
		}
		if seen[ba.ID] {
			return fmt.Errorf("bank account id %d listed twice", ba.ID)
		}
		seen[ba.ID] = true
	}

	labels := make(map[string]bool)
	for _, qe := range c.QuickEntries {
		if qe.Label == "" {
			return fmt.Errorf("quick entry %d has no label", qe.ID)
		}
		if labels[qe.Label] {
			return fmt.Errorf("quick entry %q listed twice", qe.Label)
		}
		labels[qe.Label] = true
	}
	return nil
}

// Banks returns the configured bank accounts.
func (c *Config) Banks() []model.BankAccount {
	out := make([]model.BankAccount, 0, len(c.BankAccounts))
	for _, ba := range c.BankAccounts {
		currency := ba.Currency
		if currency == "" {
			currency = c.Business.Currency
		}
		out = append(out, model.BankAccount{
			ID:        ba.ID,
			Name:      ba.Name,
			Number:    ba.Number,
			Currency:  currency,
			GLAccount: ba.AccountID,
		})
	}
	return out
}

// QuickEntryTemplates returns the configured quick entries.
func (c *Config) QuickEntryTemplates() []model.QuickEntry {
	out := make([]model.QuickEntry, 0, len(c.QuickEntries))
	for _, qe := range c.QuickEntries {
		out = append(out, model.QuickEntry{ID: qe.ID, Label: qe.Label, GLAccount: qe.AccountID})
	}
	return out
}
