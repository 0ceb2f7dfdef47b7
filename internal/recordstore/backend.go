// Package recordstore is the server-side store of per-owner collection
// snapshots. Each owner has one row; a write replaces the whole row. Writers
// are not serialised by this package: each statement is a single-row upsert
// and the database's row atomicity is what keeps concurrent writes safe.
// Concurrent writes for the same owner are not merged; the later one wins.
package recordstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/indexkeeper/internal/logger"
	"github.com/mesh-intelligence/indexkeeper/internal/migrate"
	"github.com/mesh-intelligence/indexkeeper/pkg/types"
)

// Lifecycle errors.
var (
	ErrDetached        = errors.New("record store is detached")
	ErrAlreadyAttached = errors.New("record store is already attached")
)

// dbFileName is the SQLite database inside DataDir.
const dbFileName = "records.db"

// Backend is the record store. It must be attached before use.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	dialect  dialect

	names migrate.NameResolver
	now   func() time.Time
	log   *logger.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *logger.Logger) Option {
	return func(b *Backend) { b.log = logger.OrNop(l) }
}

// WithNameResolver lets legacy migration convert name-keyed entries to id
// keys. Without it legacy entries are stored as found.
func WithNameResolver(n migrate.NameResolver) Option {
	return func(b *Backend) { b.names = n }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// NewBackend creates a detached Backend.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{now: time.Now, log: logger.Nop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach opens the database described by config, creates the schema, and
// runs the legacy flat-file migration. A failed migration is logged and
// leaves the legacy file for the next start; it does not fail Attach.
func (b *Backend) Attach(ctx context.Context, config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	db, d, err := open(ctx, config)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, createUsers); err != nil {
		db.Close()
		return fmt.Errorf("creating schema: %w", err)
	}

	b.db = db
	b.dialect = d
	b.config = config
	b.attached = true

	if rep, err := b.migrateLegacyLocked(ctx); err != nil {
		b.log.Error("legacy record migration failed; legacy file kept for retry",
			"path", b.legacyPath(), "error", err)
	} else if rep.Found {
		b.log.Info("legacy records migrated",
			"inserted", rep.Inserted, "skipped", rep.Skipped, "archived_to", rep.ArchivedTo)
	}
	return nil
}

func open(ctx context.Context, config types.Config) (*sql.DB, dialect, error) {
	switch config.Backend {
	case types.BackendPostgres:
		db, err := sql.Open(postgresDialect.driver, config.DSN)
		if err != nil {
			return nil, dialect{}, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, dialect{}, fmt.Errorf("ping postgres: %w", err)
		}
		return db, postgresDialect, nil
	default:
		dataDir := config.DataDir
		if dataDir == "" {
			dataDir = "."
		}
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, dialect{}, fmt.Errorf("creating data dir: %w", err)
		}
		db, err := sql.Open(sqliteDialect.driver, filepath.Join(dataDir, dbFileName))
		if err != nil {
			return nil, dialect{}, fmt.Errorf("open sqlite: %w", err)
		}
		// One connection: SQLite allows a single writer and the pool would
		// otherwise surface SQLITE_BUSY under concurrent requests.
		db.SetMaxOpenConns(1)
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, dialect{}, fmt.Errorf("ping sqlite: %w", err)
		}
		return db, sqliteDialect, nil
	}
}

// Detach closes the database. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.attached = false
	err := b.db.Close()
	b.db = nil
	return err
}

// conn returns the open database or ErrDetached.
func (b *Backend) conn() (*sql.DB, dialect, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, dialect{}, ErrDetached
	}
	return b.db, b.dialect, nil
}

// Upsert stores req as the complete record for req.OwnerID, inserting or
// replacing every field. Missing display fields get placeholders. It returns
// the record as stored.
func (b *Backend) Upsert(ctx context.Context, req types.ShareRequest) (types.UserRecord, error) {
	if err := req.Validate(); err != nil {
		return types.UserRecord{}, err
	}
	db, d, err := b.conn()
	if err != nil {
		return types.UserRecord{}, err
	}
	req = req.WithDefaults()

	index, trading, err := encodeEntries(req.IndexEntry, req.TradingEntry)
	if err != nil {
		return types.UserRecord{}, err
	}

	var updated int64
	err = db.QueryRowContext(ctx, d.rebind(upsertUser),
		req.OwnerID, req.DisplayName, req.AvatarRef, index, trading, b.now().UnixNano(),
	).Scan(&updated)
	if err != nil {
		return types.UserRecord{}, fmt.Errorf("upserting record: %w: %w", types.ErrTransport, err)
	}

	return types.UserRecord{
		OwnerID:      req.OwnerID,
		DisplayName:  req.DisplayName,
		AvatarRef:    req.AvatarRef,
		IndexEntry:   req.IndexEntry.Normalize(),
		TradingEntry: req.TradingEntry.Normalize(),
		UpdatedAt:    time.Unix(0, updated).UTC(),
	}, nil
}

// GetOne returns the record for ownerID, or types.ErrNotFound.
func (b *Backend) GetOne(ctx context.Context, ownerID string) (types.UserRecord, error) {
	db, d, err := b.conn()
	if err != nil {
		return types.UserRecord{}, err
	}
	rec, err := scanRecord(db.QueryRowContext(ctx, d.rebind(selectUser), ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return types.UserRecord{}, fmt.Errorf("owner %s: %w", ownerID, types.ErrNotFound)
	}
	if err != nil {
		return types.UserRecord{}, err
	}
	return rec, nil
}

// GetAll returns every record keyed by owner id.
func (b *Backend) GetAll(ctx context.Context) (map[string]types.UserRecord, error) {
	db, d, err := b.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, d.rebind(selectUsers))
	if err != nil {
		return nil, fmt.Errorf("selecting records: %w: %w", types.ErrTransport, err)
	}
	defer rows.Close()

	out := make(map[string]types.UserRecord)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out[rec.OwnerID] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w: %w", types.ErrTransport, err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (types.UserRecord, error) {
	var (
		rec            types.UserRecord
		index, trading string
		updatedAt      int64
	)
	err := row.Scan(&rec.OwnerID, &rec.DisplayName, &rec.AvatarRef, &index, &trading, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, err
	}
	if err != nil {
		return rec, fmt.Errorf("scanning record: %w: %w", types.ErrTransport, err)
	}
	if err := json.Unmarshal([]byte(index), &rec.IndexEntry); err != nil {
		return rec, fmt.Errorf("%w: index entry of %s: %v", types.ErrFormat, rec.OwnerID, err)
	}
	if err := json.Unmarshal([]byte(trading), &rec.TradingEntry); err != nil {
		return rec, fmt.Errorf("%w: trading entry of %s: %v", types.ErrFormat, rec.OwnerID, err)
	}
	rec.IndexEntry = rec.IndexEntry.Normalize()
	rec.TradingEntry = rec.TradingEntry.Normalize()
	rec.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return rec, nil
}

func encodeEntries(index, trading types.CollectionEntry) (string, string, error) {
	i, err := json.Marshal(index.Normalize())
	if err != nil {
		return "", "", fmt.Errorf("encoding index entry: %w", err)
	}
	t, err := json.Marshal(trading.Normalize())
	if err != nil {
		return "", "", fmt.Errorf("encoding trading entry: %w", err)
	}
	return string(i), string(t), nil
}
