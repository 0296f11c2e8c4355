package commands

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newAccountsCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List the configured trading accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(cmd, root, false)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			all := p.accounts.All()
			if len(all) == 0 {
				fmt.Fprintf(out, "No accounts configured in %s.\n", root.configPath)
				return nil
			}

			rows := make([][]string, 0, len(all))
			for _, a := range all {
				rows = append(rows, []string{a.ID, a.Name, a.Broker, a.Currency})
			}
			t := newTable("ID", "NAME", "BROKER", "CURRENCY").
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == table.HeaderRow {
						return headerStyle
					}
					return cellStyle
				})
			fmt.Fprintln(out, t.String())
			return nil
		},
	}
}
