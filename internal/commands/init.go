package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tradelog-dev/tradelog/internal/config"
	"github.com/tradelog-dev/tradelog/internal/gitops"
	"github.com/tradelog-dev/tradelog/internal/store"
)

type initOptions struct {
	account  string
	name     string
	broker   string
	currency string
	git      bool
}

func newInitCommand() *cobra.Command {
	var opts initOptions

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new tradelog project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.OutOrStdout(), absDir, opts)
		},
	}

	cmd.Flags().StringVar(&opts.account, "account", "", "id of the first trading account (required)")
	_ = cmd.MarkFlagRequired("account")
	cmd.Flags().StringVar(&opts.name, "name", "", "display name of the account (default: the id)")
	cmd.Flags().StringVar(&opts.broker, "broker", "MT5", "broker or platform of the account")
	cmd.Flags().StringVar(&opts.currency, "currency", "USD", "ISO 4217 account currency")
	cmd.Flags().BoolVar(&opts.git, "git", false, "version the project's config and import log with git")

	return cmd
}

func runInit(out io.Writer, dir string, opts initOptions) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}

	id := strings.TrimSpace(opts.account)
	if id == "" {
		return errors.New("--account must not be blank")
	}
	cfg := config.Default(id)
	a := &cfg.Accounts[0]
	if opts.name != "" {
		a.Name = opts.name
	}
	a.Broker = opts.broker
	a.Currency = strings.ToUpper(opts.currency)
	if err := cfg.Validate(); err != nil {
		return err
	}

	dirs := []string{
		"logs",
		cfg.Import.InboxDir,
		filepath.Join(cfg.Import.InboxDir, "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return err
	}

	gitignore := cfg.Database.Path + "\n" + cfg.Database.Path + "-*\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	dbPath := filepath.Join(dir, cfg.Database.Path)
	if err := store.Migrate(dbPath); err != nil {
		return fmt.Errorf("creating database: %w", err)
	}

	if !opts.git {
		fmt.Fprintf(out, "Initialized tradelog project at %s (account %s)\n", dir, a.ID)
		return nil
	}

	if err := gitops.Init(dir); err != nil {
		return err
	}
	hash, err := gitops.Commit(dir, "init: account "+a.ID, cfg.Git.AuthorName, cfg.Git.AuthorEmail,
		config.FileName, ".gitignore")
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}
	fmt.Fprintf(out, "Initialized tradelog project at %s (account %s, %s)\n", dir, a.ID, hash)
	return nil
}
