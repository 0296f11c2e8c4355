package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tradelog-dev/tradelog/internal/journal"
)

func newExportCommand(root *rootOptions) *cobra.Command {
	var (
		account string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write committed trades as CSV",
		Long: `Export writes committed trades with canonical field names as headers, so
the output can be imported again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(cmd, root, false)
			if err != nil {
				return err
			}
			if account != "" {
				if _, err := p.accounts.Resolve(account); err != nil {
					return err
				}
			}

			db, trades, err := p.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			list, err := trades.List(cmd.Context(), account)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				return journal.WriteTrades(cmd.OutOrStdout(), list)
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			if err := journal.WriteTrades(f, list); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d trades to %s\n", len(list), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&account, "account", "a", "", "only export this account (default: all)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default: stdout)")

	return cmd
}
