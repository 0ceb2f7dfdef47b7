package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/indexkeeper/internal/shareclient"
	"github.com/mesh-intelligence/indexkeeper/pkg/types"
)

func newShareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "share",
		Short: "Upload both collection modes to the record server",
		Long: `Share sends the current owner's index and trading state to server_url,
replacing whatever the server held for that owner. An owner is required.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := openLocal()
			if err != nil {
				return err
			}
			defer l.close()

			state, err := l.store.LoadState(l.ownerKey)
			if err != nil {
				return err
			}
			client, err := shareclient.New(cfg.serverURL, shareclient.WithLogger(l.log))
			if err != nil {
				return err
			}
			rec, err := client.Share(cmd.Context(), types.ShareRequest{
				OwnerID:      l.ownerKey,
				DisplayName:  cfg.owner.DisplayName,
				AvatarRef:    cfg.owner.AvatarRef,
				IndexEntry:   state.Index,
				TradingEntry: state.Trading,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Shared %d index and %d trading items for %s (updated %s)\n",
				len(rec.IndexEntry), len(rec.TradingEntry), rec.DisplayName, rec.UpdatedAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}

func newPullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Replace local state with the server's record",
		Long: `Pull fetches the current owner's record from server_url and replaces the
local index and trading state with it. Nothing is merged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := openLocal()
			if err != nil {
				return err
			}
			defer l.close()

			client, err := shareclient.New(cfg.serverURL, shareclient.WithLogger(l.log))
			if err != nil {
				return err
			}
			rec, err := client.Fetch(cmd.Context(), l.ownerKey)
			if err != nil {
				return err
			}
			state := types.CollectionState{Index: rec.IndexEntry, Trading: rec.TradingEntry}
			if err := l.store.Replace(l.ownerKey, state); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pulled %d index and %d trading items\n", len(rec.IndexEntry), len(rec.TradingEntry))
			return nil
		},
	}
}
