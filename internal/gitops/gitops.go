// Package gitops versions a tradelog project directory with git. Only
// text files are committed; the trade database stays ignored.
package gitops

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Init initializes a new git repository at dir.
func Init(dir string) error {
	if _, err := git(dir, nil, "init", "--quiet"); err != nil {
		return err
	}
	return nil
}

// Commit stages paths (relative to dir) and commits them. It returns the
// short hash, or "" when none of the paths changed.
func Commit(dir, message, authorName, authorEmail string, paths ...string) (string, error) {
	add := append([]string{"add", "--"}, paths...)
	if _, err := git(dir, nil, add...); err != nil {
		return "", err
	}

	staged, err := git(dir, nil, "diff", "--cached", "--name-only")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(staged) == "" {
		return "", nil
	}

	author := fmt.Sprintf("%s <%s>", authorName, authorEmail)
	env := []string{"GIT_COMMITTER_NAME=" + authorName, "GIT_COMMITTER_EMAIL=" + authorEmail}
	if _, err := git(dir, env, "commit", "--quiet", "-m", message, "--author", author); err != nil {
		return "", err
	}

	out, err := git(dir, nil, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

func git(dir string, env []string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %s: %w", args[0], strings.TrimSpace(string(out)), err)
	}
	return string(out), nil
}
