package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/indexkeeper/internal/paths"
	"github.com/mesh-intelligence/indexkeeper/internal/recordstore"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize indexkeeper configuration and storage",
		Long: "Create the configuration and data directories, write a default config.yaml\n" +
			"if none exists, and initialize the record store.",
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(cfg.configDir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	configPath := filepath.Join(cfg.configDir, paths.ConfigFileName)
	written, err := writeConfigIfMissing(configPath, cfg.dataDir)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	if err := os.MkdirAll(paths.StateDir(cfg.dataDir), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	// Attach then Detach creates the schema and runs any pending legacy
	// migration.
	store := recordstore.NewBackend()
	if err := store.Attach(context.Background(), cfg.storeConfig()); err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	if err := store.Detach(); err != nil {
		return fmt.Errorf("finalize storage: %w", err)
	}

	out := cmd.OutOrStdout()
	if written {
		fmt.Fprintf(out, "Wrote %s\n", configPath)
	}
	fmt.Fprintf(out, "Data directory: %s\n", cfg.dataDir)
	fmt.Fprintln(out, "indexkeeper initialized successfully")
	return nil
}
