package commands

import (
	"github.com/spf13/cobra"

	"github.com/tradelog-dev/tradelog/internal/buildinfo"
	"github.com/tradelog-dev/tradelog/internal/config"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     "tradelog",
		Short:   "Import broker trade history into a trade journal",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.FileName, "path to the project's tradelog.yaml")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log.level (trace, debug, info, warn, error, off)")

	rootCmd.AddCommand(
		newInitCommand(),
		newImportCommand(opts),
		newPreviewCommand(opts),
		newExportCommand(opts),
		newSynonymsCommand(opts),
		newHistoryCommand(opts),
		newAccountsCommand(opts),
	)

	return rootCmd
}
