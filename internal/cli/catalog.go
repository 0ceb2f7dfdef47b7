package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/indexkeeper/internal/membership"
	"github.com/mesh-intelligence/indexkeeper/pkg/types"
)

func newCatalogCmd() *cobra.Command {
	var (
		tab    string
		mode   string
		search string
	)
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the items under a variant tab with your marks",
		Long: `Catalog lists the items shown under a variant tab, marking those whose
set for that variant is recorded in the selected mode.

Example:
  indexkeeper catalog --tab Lava
  indexkeeper catalog --tab Gold --mode trading --search foo`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := types.ParseVariant(tab)
			if err != nil {
				return err
			}
			m, err := types.ParseMode(mode)
			if err != nil {
				return err
			}
			l, err := openLocal()
			if err != nil {
				return err
			}
			defer l.close()

			entry, err := l.store.Load(l.ownerKey, m)
			if err != nil {
				return err
			}
			items := l.catalog.Items()
			out := cmd.OutOrStdout()
			for _, it := range membership.View(items, v, search) {
				mark := " "
				if entry.Has(types.ItemKey(it.ID), v) {
					mark = "x"
				}
				fmt.Fprintf(out, "[%s] %4d  %s (%s)%s\n", mark, it.ID, it.Name, it.Rarity.OrDefault(), variantsSuffix(entry[types.ItemKey(it.ID)]))
			}
			collected, total := membership.Progress(items, entry, v)
			fmt.Fprintf(out, "%s %s: %d/%d\n", v, m, collected, total)
			return nil
		},
	}
	cmd.Flags().StringVar(&tab, "tab", string(types.VariantNormal), "variant tab")
	cmd.Flags().StringVar(&mode, "mode", string(types.ModeIndex), "index or trading")
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive name filter")
	return cmd
}

func variantsSuffix(vs []types.Variant) string {
	if len(vs) == 0 {
		return ""
	}
	names := make([]string, len(vs))
	for i, v := range vs {
		names[i] = string(v)
	}
	return "  [" + strings.Join(names, ", ") + "]"
}
