package commands_test

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradelog-dev/tradelog/internal/commands"
	"github.com/tradelog-dev/tradelog/internal/config"
)

// run executes the root command in process and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := commands.NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// newProject initializes a project for account "demo" and returns its
// config path.
func newProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, _, err := run(t, "init", dir, "--account", "demo")
	require.NoError(t, err)
	return filepath.Join(dir, config.FileName)
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()
	out, _, err := run(t, "init", dir, "--account", "demo")
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized tradelog project at "+dir)

	for _, d := range []string{"logs", "inbox", filepath.Join("inbox", "processed")} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}
	for _, f := range []string{config.FileName, "tradelog.db", ".gitignore"} {
		_, err := os.Stat(filepath.Join(dir, f))
		require.NoError(t, err, "file %s should exist", f)
	}
}

func TestInit_Config(t *testing.T) {
	dir := t.TempDir()
	_, _, err := run(t, "init", dir, "--account", "ic-live", "--name", "IC Markets Live", "--currency", "eur")
	require.NoError(t, err)

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	require.Len(t, cfg.Accounts, 1)
	assert.Equal(t, "ic-live", cfg.Accounts[0].ID)
	assert.Equal(t, "IC Markets Live", cfg.Accounts[0].Name)
	assert.Equal(t, "MT5", cfg.Accounts[0].Broker)
	assert.Equal(t, "EUR", cfg.Accounts[0].Currency)
	assert.Equal(t, "mt5", cfg.Import.Dialect)
}

func TestInit_Gitignore(t *testing.T) {
	dir := t.TempDir()
	_, _, err := run(t, "init", dir, "--account", "demo")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	for _, pattern := range []string{"tradelog.db", ".env"} {
		assert.Contains(t, string(data), pattern)
	}
}

func TestInit_RequiresAccount(t *testing.T) {
	_, _, err := run(t, "init", t.TempDir())
	require.Error(t, err, "init without --account should fail")

	_, _, err = run(t, "init", t.TempDir(), "--account", "  ")
	assert.ErrorContains(t, err, "must not be blank")
}

func TestInit_RefusesExistingProject(t *testing.T) {
	dir := t.TempDir()
	_, _, err := run(t, "init", dir, "--account", "demo")
	require.NoError(t, err)

	_, _, err = run(t, "init", dir, "--account", "other")
	assert.ErrorContains(t, err, "already exists")
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "dev (commit: none")
}

func TestInit_GitRepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	_, _, err := run(t, "init", dir, "--account", "demo", "--git")
	require.NoError(t, err)

	gitLog := func() string {
		cmd := exec.Command("git", "log", "--format=%s|%an <%ae>", "-1")
		cmd.Dir = dir
		out, err := cmd.Output()
		require.NoError(t, err)
		return string(out)
	}
	assert.Contains(t, gitLog(), "init: account demo|tradelog <tradelog@localhost>")

	// A real import commits the import log; a dry run does not.
	cfgPath := filepath.Join(dir, config.FileName)
	out, _, err := run(t, "--config", cfgPath, "import", "../../testdata/mt5_template.csv")
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded in git as")
	assert.Contains(t, gitLog(), "import: mt5_template.csv|")

	out, _, err = run(t, "--config", cfgPath, "import", "../../testdata/mt5_template.csv", "--dry-run")
	require.NoError(t, err)
	assert.NotContains(t, out, "Recorded in git")
	assert.Contains(t, gitLog(), "import: mt5_template.csv|")
}
