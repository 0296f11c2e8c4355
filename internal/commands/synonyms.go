package commands

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/tradelog-dev/tradelog/internal/model"
)

func newSynonymsCommand(root *rootOptions) *cobra.Command {
	var dialect string

	cmd := &cobra.Command{
		Use:   "synonyms",
		Short: "List the header names each trade field is guessed from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(cmd, root, true)
			if err != nil {
				return err
			}
			d, err := p.dialect(dialect)
			if err != nil {
				return err
			}

			order := make(map[model.Field]int, len(model.Fields))
			for i, f := range model.Fields {
				order[f] = i
			}
			headers := d.Synonyms.Keys()
			sort.SliceStable(headers, func(i, j int) bool {
				fi, fj := d.Synonyms[headers[i]], d.Synonyms[headers[j]]
				if fi != fj {
					return order[fi] < order[fj]
				}
				return headers[i] < headers[j]
			})

			rows := make([][]string, 0, len(headers))
			for _, h := range headers {
				rows = append(rows, []string{string(d.Synonyms[h]), h})
			}
			t := newTable("FIELD", "HEADER").
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == table.HeaderRow {
						return headerStyle
					}
					return cellStyle
				})

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, title("dialect "+d.Name))
			fmt.Fprintln(out, t.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&dialect, "dialect", "", "broker dialect (default: import.dialect)")

	return cmd
}
