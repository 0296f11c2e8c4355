package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tradelog-dev/tradelog/internal/session"
	"github.com/tradelog-dev/tradelog/internal/store"
)

func newPreviewCommand(root *rootOptions) *cobra.Command {
	var (
		account  string
		mappings []string
		dialect  string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Show how a CSV file would be mapped and validated without importing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(cmd, root, true)
			if err != nil {
				return err
			}
			d, err := p.dialect(dialect)
			if err != nil {
				return err
			}
			opts, err := p.sessionOptions(d)
			if err != nil {
				return err
			}
			overrides, err := parseMappings(mappings)
			if err != nil {
				return err
			}

			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("opening %s: %w", path, err)
			}
			defer f.Close()

			s := session.New(session.NewImporter(store.NewMemoryTrades(), 0, p.log), opts, p.log)
			defer s.Close()
			if err := s.Load(filepath.Base(path), f); err != nil {
				return err
			}
			if err := applyMappings(s, overrides); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, title(filepath.Base(path)))
			fmt.Fprintln(out, renderMapping(s.Headers(), s.Columns()))
			if err := s.ConfirmMapping(); err != nil {
				return err
			}
			summary, err := s.Preview()
			if err != nil {
				return err
			}

			acct := p.displayAccount(account)
			fmt.Fprintln(out, renderOutcomes(summary.Outcomes, acct, limit))
			if limit > 0 && summary.Total > limit {
				fmt.Fprintf(out, "(%d more rows not shown)\n", summary.Total-limit)
			}
			printValidation(out, summary, acct)
			return nil
		},
	}

	cmd.Flags().StringVarP(&account, "account", "a", "", "account whose currency formats amounts")
	cmd.Flags().StringArrayVarP(&mappings, "map", "m", nil, "override a column mapping as field=header (repeatable)")
	cmd.Flags().StringVar(&dialect, "dialect", "", "broker dialect (default: import.dialect)")
	cmd.Flags().IntVarP(&limit, "rows", "n", 20, "rows to show (0 shows all)")

	return cmd
}
