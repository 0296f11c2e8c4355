package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradelog-dev/tradelog/internal/model"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default("ftmo-100k")
	cfg.Accounts = append(cfg.Accounts, model.Account{ID: "ic-live", Name: "IC Markets Live", Broker: "MT5", Currency: "EUR"})
	cfg.Import.Delimiter = ";"
	cfg.Import.Tags = []string{"CSV Import", "Prop"}
	cfg.Mapping.HeaderSynonyms = map[string]string{"Net Result": "pnl"}

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tradelog.db", got.Database.Path)
	assert.Equal(t, "info", got.Log.Level)
	assert.Equal(t, "mt5", got.Import.Dialect)
	assert.Equal(t, 50, got.Import.ChunkSize)
	assert.Equal(t, ";", got.Import.Delimiter)
	assert.Equal(t, []string{"CSV Import", "Prop"}, got.Import.Tags)
	assert.Equal(t, "inbox", got.Import.InboxDir)
	require.Len(t, got.Accounts, 2)
	assert.Equal(t, "ftmo-100k", got.Accounts[0].ID)
	assert.Equal(t, "EUR", got.Accounts[1].Currency)
	// Viper lower-cases map keys; header matching is case-insensitive anyway.
	assert.Equal(t, map[string]string{"net result": "pnl"}, got.Mapping.HeaderSynonyms)
	require.NoError(t, got.Validate())
}

func TestDefaults(t *testing.T) {
	cfg := Default("demo")

	assert.Equal(t, "tradelog.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 50, cfg.Import.ChunkSize)
	assert.Equal(t, "", cfg.Import.Delimiter)
	require.Len(t, cfg.Accounts, 1)
	assert.Equal(t, model.Account{ID: "demo", Name: "demo", Broker: "MT5", Currency: "USD"}, cfg.Accounts[0])
	assert.NoError(t, cfg.Validate())

	assert.Empty(t, Default("").Accounts)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_PartialFileGetsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "tradelog.db", cfg.Database.Path)
	assert.Equal(t, 50, cfg.Import.ChunkSize)
	assert.Equal(t, "tradelog@localhost", cfg.Git.AuthorEmail)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default("demo")))

	t.Setenv("TRADELOG_DATABASE_PATH", "/tmp/other.db")
	t.Setenv("TRADELOG_IMPORT_CHUNK_SIZE", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.db", cfg.Database.Path)
	assert.Equal(t, 7, cfg.Import.ChunkSize)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("database: [unclosed\n"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "parsing config")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, LoadDotEnv(dir), "missing .env is fine")

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TRADELOG_LOG_LEVEL=warn\n"), 0o644))
	t.Setenv("TRADELOG_LOG_LEVEL", "")
	os.Unsetenv("TRADELOG_LOG_LEVEL")
	require.NoError(t, LoadDotEnv(dir))
	assert.Equal(t, "warn", os.Getenv("TRADELOG_LOG_LEVEL"))

	path := filepath.Join(dir, FileName)
	require.NoError(t, Save(path, Default("demo")))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"chunk size", func(c *Config) { c.Import.ChunkSize = 0 }, "import.chunk_size"},
		{"delimiter", func(c *Config) { c.Import.Delimiter = ";;" }, "import.delimiter"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"synonym target", func(c *Config) { c.Mapping.HeaderSynonyms = map[string]string{"Result": "profit"} }, "mapping.header_synonyms"},
		{"blank account", func(c *Config) { c.Accounts = append(c.Accounts, model.Account{}) }, "id is required"},
		{"duplicate account", func(c *Config) { c.Accounts = append(c.Accounts, model.Account{ID: "demo"}) }, "duplicate id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default("demo")
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestDelimiterRune(t *testing.T) {
	tests := []struct {
		in   string
		want rune
	}{
		{"", 0},
		{",", ','},
		{";", ';'},
		{"tab", '\t'},
		{"\t", '\t'},
		{"|", '|'},
	}
	for _, tt := range tests {
		cfg := Default("")
		cfg.Import.Delimiter = tt.in
		got, err := cfg.DelimiterRune()
		require.NoError(t, err, "delimiter %q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default("demo")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "path: tradelog.db")
	assert.Contains(t, contents, "chunk_size: 50")
	assert.Contains(t, contents, "inbox_dir: inbox")
	assert.Contains(t, contents, "- id: demo")
	assert.Contains(t, contents, "author_name: tradelog")
	assert.NotContains(t, contents, "header_synonyms")
}
