package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/indexkeeper/internal/membership"
	"github.com/mesh-intelligence/indexkeeper/internal/report"
	"github.com/mesh-intelligence/indexkeeper/pkg/types"
)

func newReportCmd() *cobra.Command {
	var (
		tab    string
		search string
	)
	cmd := &cobra.Command{
		Use:   "report <missing|index|trading>",
		Short: "Print a shareable item list for a tab",
		Long: `Report prints the items still missing from the index, already in the
index, or offered for trade under a variant tab.

Example:
  indexkeeper report missing --tab Lava`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := report.ParseKind(args[0])
			if err != nil {
				return err
			}
			v, err := types.ParseVariant(tab)
			if err != nil {
				return err
			}
			l, err := openLocal()
			if err != nil {
				return err
			}
			defer l.close()

			state, err := l.store.LoadState(l.ownerKey)
			if err != nil {
				return err
			}
			items := membership.View(l.catalog.Items(), v, search)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), report.Render(kind, v, items, state))
			return err
		},
	}
	cmd.Flags().StringVar(&tab, "tab", string(types.VariantNormal), "variant tab")
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive name filter")
	return cmd
}
