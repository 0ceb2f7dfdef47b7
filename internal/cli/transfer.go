package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/indexkeeper/internal/synccodec"
)

func newExportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write both collection modes as JSON",
		Long: `Export writes {"index": ..., "trading": ...} for the current owner to
stdout or to --output.`,
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
			data, err := synccodec.Export(state.Index, state.Trading)
			if err != nil {
				return err
			}
			if output == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			if err := os.WriteFile(output, append(data, '\n'), 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write instead of stdout")
	return cmd
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace both collection modes from exported JSON",
		Long: `Import validates an export document and then replaces the current owner's
index and trading state with it. Nothing is merged. Use - to read stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read import: %w", err)
			}
			state, err := synccodec.Import(data)
			if err != nil {
				return err
			}

			l, err := openLocal()
			if err != nil {
				return err
			}
			defer l.close()

			if err := l.store.Replace(l.ownerKey, state); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d index and %d trading items\n", len(state.Index), len(state.Trading))
			return nil
		},
	}
}
