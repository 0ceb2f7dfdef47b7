// Package cli implements the indexkeeper command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/indexkeeper/internal/paths"
	"github.com/mesh-intelligence/indexkeeper/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	owner     string
}

var (
	flags rootFlags
	cfg   settings
)

// NewRootCmd creates the top-level "indexkeeper" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "indexkeeper",
		Short: "Track which variants of each collectible you own or trade",
		Long: "indexkeeper records, per item and per variant, what you have in your index\n" +
			"and what you are willing to trade, keeps it on disk, and shares it with a\n" +
			"record server so it can be pulled on another device.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configDir, err := paths.ResolveConfigDir(flags.configDir)
			if err != nil {
				return err
			}
			v, err := loadConfig(configDir)
			if err != nil {
				return err
			}
			cfg, err = resolveSettings(v)
			return err
		},
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default: platform data dir)")
	root.PersistentFlags().StringVar(&flags.owner, "owner", "", "owner id; empty means anonymous")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newCatalogCmd())
	root.AddCommand(newToggleCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newImportCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newShareCmd())
	root.AddCommand(newPullCmd())
	root.AddCommand(newServeCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	err := root.Execute()
	if err == nil {
		os.Exit(exitSuccess)
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(exitCode(err))
}

// exitCode maps failures outside the user's control to exitSysError.
func exitCode(err error) int {
	if errors.Is(err, types.ErrTransport) {
		return exitSysError
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return exitSysError
	}
	return exitUserError
}
