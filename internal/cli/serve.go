package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/indexkeeper/internal/catalog"
	"github.com/mesh-intelligence/indexkeeper/internal/identity"
	"github.com/mesh-intelligence/indexkeeper/internal/logger"
	"github.com/mesh-intelligence/indexkeeper/internal/recordstore"
	"github.com/mesh-intelligence/indexkeeper/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the record server",
		Long: `Serve opens the record store, migrates any legacy users.json found in the
data directory, and serves the HTTP API on listen_addr until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	log, err := logger.New(cfg.logMode)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	opts := []recordstore.Option{recordstore.WithLogger(log.With("component", "recordstore"))}
	if cat, err := catalog.Load(cfg.catalogPath); err == nil {
		opts = append(opts, recordstore.WithNameResolver(cat.NameIndex()))
	} else {
		log.Warn("no catalog; legacy name-keyed records are stored unconverted", "path", cfg.catalogPath, "error", err)
	}

	store := recordstore.NewBackend(opts...)
	if err := store.Attach(ctx, cfg.storeConfig()); err != nil {
		return fmt.Errorf("attach record store: %w", err)
	}
	defer store.Detach()

	var exchanger identity.Exchanger
	if cfg.oauth.ClientID != "" {
		ex, err := identity.NewOAuth2Exchanger(cfg.oauth)
		if err != nil {
			return err
		}
		exchanger = ex
	}

	srv := server.New(server.Config{
		ListenAddr:  cfg.listenAddr,
		CORSOrigins: cfg.corsOrigins,
	}, store, exchanger, log)
	return srv.Run(ctx)
}
