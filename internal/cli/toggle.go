package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/indexkeeper/internal/localstore"
	"github.com/mesh-intelligence/indexkeeper/pkg/types"
)

func newToggleCmd() *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "toggle <item-id> <variant>",
		Short: "Add or remove a variant for an item",
		Long: `Toggle flips one variant of one item in the selected mode and saves the
result immediately.

Example:
  indexkeeper toggle 5 Gold
  indexkeeper toggle 5 Lava --mode trading`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("%w: %q is not an item id", types.ErrUnknownItem, args[0])
			}
			v, err := types.ParseVariant(args[1])
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

			item, ok := l.catalog.ByID(id)
			if !ok {
				return fmt.Errorf("%w: %d", types.ErrUnknownItem, id)
			}
			entry, err := l.store.Load(l.ownerKey, m)
			if err != nil {
				return err
			}
			entry = localstore.Toggle(entry, id, v)
			if err := l.store.Persist(l.ownerKey, m, entry); err != nil {
				return err
			}

			verb := "removed from"
			if entry.Has(types.ItemKey(id), v) {
				verb = "added to"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s %s\n", item.Name, v, verb, m)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(types.ModeIndex), "index or trading")
	return cmd
}
