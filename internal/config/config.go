package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tradelog-dev/tradelog/internal/logging"
	"github.com/tradelog-dev/tradelog/internal/model"
)

// FileName is the config file created by init.
const FileName = "tradelog.yaml"

// EnvPrefix prefixes environment overrides, e.g. TRADELOG_DATABASE_PATH.
const EnvPrefix = "TRADELOG"

// keyDelimiter replaces viper's "." so synonym headers may contain dots.
const keyDelimiter = "::"

// Config represents the top-level tradelog.yaml configuration.
type Config struct {
	Database DatabaseConfig  `yaml:"database" mapstructure:"database"`
	Log      LogConfig       `yaml:"log" mapstructure:"log"`
	Import   ImportConfig    `yaml:"import" mapstructure:"import"`
	Mapping  MappingConfig   `yaml:"mapping" mapstructure:"mapping"`
	Git      GitConfig       `yaml:"git" mapstructure:"git"`
	Accounts []model.Account `yaml:"accounts,omitempty" mapstructure:"accounts"`
}

// DatabaseConfig locates the trade store.
type DatabaseConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// ImportConfig controls how files are read and committed.
type ImportConfig struct {
	Dialect   string   `yaml:"dialect" mapstructure:"dialect"`
	ChunkSize int      `yaml:"chunk_size" mapstructure:"chunk_size"`
	Delimiter string   `yaml:"delimiter,omitempty" mapstructure:"delimiter"` // empty sniffs; "tab" allowed
	Notes     string   `yaml:"notes,omitempty" mapstructure:"notes"`         // overrides the dialect's notes
	Tags      []string `yaml:"tags,omitempty" mapstructure:"tags"`           // overrides the dialect's tags
	InboxDir  string   `yaml:"inbox_dir" mapstructure:"inbox_dir"`
}

// MappingConfig extends the built-in header synonyms.
type MappingConfig struct {
	HeaderSynonyms map[string]string `yaml:"header_synonyms,omitempty" mapstructure:"header_synonyms"`
}

// GitConfig is the identity used when a project directory is a git repo.
type GitConfig struct {
	AuthorName  string `yaml:"author_name" mapstructure:"author_name"`
	AuthorEmail string `yaml:"author_email" mapstructure:"author_email"`
}

// Load reads a tradelog.yaml file from disk and applies TRADELOG_*
// environment overrides.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(keyDelimiter, "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default("")
	v.SetDefault(key("database", "path"), d.Database.Path)
	v.SetDefault(key("log", "level"), d.Log.Level)
	v.SetDefault(key("import", "dialect"), d.Import.Dialect)
	v.SetDefault(key("import", "chunk_size"), d.Import.ChunkSize)
	v.SetDefault(key("import", "delimiter"), d.Import.Delimiter)
	v.SetDefault(key("import", "inbox_dir"), d.Import.InboxDir)
	v.SetDefault(key("git", "author_name"), d.Git.AuthorName)
	v.SetDefault(key("git", "author_email"), d.Git.AuthorEmail)
}

func key(parts ...string) string {
	return strings.Join(parts, keyDelimiter)
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

// Default returns a Config with sensible defaults for a new project. A
// non-empty accountID adds one account with that ID.
func Default(accountID string) *Config {
	cfg := &Config{
		Database: DatabaseConfig{Path: "tradelog.db"},
		Log:      LogConfig{Level: "info"},
		Import: ImportConfig{
			Dialect:   "mt5",
			ChunkSize: 50,
			InboxDir:  "inbox",
		},
		Git: GitConfig{
			AuthorName:  "tradelog",
			AuthorEmail: "tradelog@localhost",
		},
	}
	if accountID != "" {
		cfg.Accounts = []model.Account{{ID: accountID, Name: accountID, Broker: "MT5", Currency: "USD"}}
	}
	return cfg
}

// LoadDotEnv loads <dir>/.env into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Validate checks values that would otherwise fail later in an import.
func (c *Config) Validate() error {
	var errs []error
	if c.Import.ChunkSize < 1 {
		errs = append(errs, fmt.Errorf("import.chunk_size must be at least 1, got %d", c.Import.ChunkSize))
	}
	if _, err := c.DelimiterRune(); err != nil {
		errs = append(errs, err)
	}
	if _, ok := logging.ParseLevel(c.Log.Level); !ok {
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	for header, field := range c.Mapping.HeaderSynonyms {
		if _, err := model.ParseField(field); err != nil {
			errs = append(errs, fmt.Errorf("mapping.header_synonyms[%q]: %w", header, err))
		}
	}
	seen := make(map[string]bool, len(c.Accounts))
	for i, a := range c.Accounts {
		switch {
		case strings.TrimSpace(a.ID) == "":
			errs = append(errs, fmt.Errorf("accounts[%d]: id is required", i))
		case seen[a.ID]:
			errs = append(errs, fmt.Errorf("accounts[%d]: duplicate id %q", i, a.ID))
		}
		seen[a.ID] = true
	}
	return errors.Join(errs...)
}

// DelimiterRune returns the configured field delimiter, or 0 to sniff it.
func (c *Config) DelimiterRune() (rune, error) {
	d := c.Import.Delimiter
	switch strings.ToLower(d) {
	case "":
		return 0, nil
	case "tab", `\t`:
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(d)
	if size != len(d) || r == utf8.RuneError || r == '"' || r == '\n' || r == '\r' {
		return 0, fmt.Errorf("import.delimiter %q must be a single character", d)
	}
	return r, nil
}
