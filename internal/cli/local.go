package cli

import (
	"fmt"

	"github.com/mesh-intelligence/indexkeeper/internal/catalog"
	"github.com/mesh-intelligence/indexkeeper/internal/identity"
	"github.com/mesh-intelligence/indexkeeper/internal/localstore"
	"github.com/mesh-intelligence/indexkeeper/internal/logger"
	"github.com/mesh-intelligence/indexkeeper/internal/paths"
)

// local bundles what the client-side commands need: the catalog, the local
// state store and the current owner key.
type local struct {
	catalog  *catalog.Catalog
	store    *localstore.Store
	ownerKey string
	log      *logger.Logger
}

func openLocal() (*local, error) {
	log, err := logger.New(cfg.logMode)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	cat, err := catalog.Load(cfg.catalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog (set %q in config.yaml): %w", cfgKeyCatalog, err)
	}
	kv, err := localstore.NewDirKV(paths.StateDir(cfg.dataDir))
	if err != nil {
		return nil, err
	}
	return &local{
		catalog:  cat,
		store:    localstore.New(kv, cat.NameIndex(), log),
		ownerKey: identity.OwnerKey(cfg.owner),
		log:      log,
	}, nil
}

func (l *local) close() {
	l.log.Sync()
}
