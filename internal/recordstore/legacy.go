package recordstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mesh-intelligence/indexkeeper/internal/migrate"
	"github.com/mesh-intelligence/indexkeeper/pkg/types"
)

// Legacy flat-file store: a JSON object of owner id to raw record, written by
// the server generation that predates the database.
const (
	legacyFileName = "users.json"
	archiveSuffix  = ".migrated"
)

// legacyRecord is one value of the legacy file. UpdatedAt is Unix
// milliseconds; zero means unknown.
type legacyRecord struct {
	Username  string                `json:"username"`
	Avatar    string                `json:"avatar"`
	Index     types.CollectionEntry `json:"index"`
	Trading   types.CollectionEntry `json:"trading"`
	UpdatedAt int64                 `json:"updatedAt"`
}

// MigrationReport summarises one legacy migration run.
type MigrationReport struct {
	Found      bool   // a legacy file existed
	Inserted   int    // rows created
	Skipped    int    // owners that already had a row
	ArchivedTo string // where the legacy file was moved
}

func (b *Backend) legacyPath() string {
	if b.config.DataDir == "" {
		return ""
	}
	return filepath.Join(b.config.DataDir, legacyFileName)
}

// MigrateLegacy imports the legacy flat file, if any, into the database.
// Rows are inserted only for owners without one, so a run never overwrites a
// newer upsert and can be repeated after a partial failure. On success the
// file is renamed with an archival suffix; on failure it is left untouched.
func (b *Backend) MigrateLegacy(ctx context.Context) (MigrationReport, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return MigrationReport{}, ErrDetached
	}
	return b.migrateLegacyLocked(ctx)
}

// migrateLegacyLocked requires b.mu held and the backend attached.
func (b *Backend) migrateLegacyLocked(ctx context.Context) (MigrationReport, error) {
	var rep MigrationReport
	path := b.legacyPath()
	if path == "" {
		return rep, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return rep, nil
	}
	if err != nil {
		return rep, fmt.Errorf("reading legacy file: %w", err)
	}
	rep.Found = true

	var legacy map[string]legacyRecord
	if err := json.Unmarshal(data, &legacy); err != nil {
		return rep, fmt.Errorf("%w: legacy file: %v", types.ErrFormat, err)
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return rep, fmt.Errorf("beginning migration: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, b.dialect.rebind(insertUserIfAbsent))
	if err != nil {
		return rep, fmt.Errorf("preparing migration insert: %w", err)
	}
	defer stmt.Close()

	for ownerID, rec := range legacy {
		if ownerID == "" {
			continue
		}
		req := types.ShareRequest{
			OwnerID:      ownerID,
			DisplayName:  rec.Username,
			AvatarRef:    rec.Avatar,
			IndexEntry:   b.migrateEntry(rec.Index),
			TradingEntry: b.migrateEntry(rec.Trading),
		}.WithDefaults()

		index, trading, err := encodeEntries(req.IndexEntry, req.TradingEntry)
		if err != nil {
			return rep, err
		}
		updated := b.now()
		if rec.UpdatedAt > 0 {
			updated = time.UnixMilli(rec.UpdatedAt)
		}

		res, err := stmt.ExecContext(ctx,
			req.OwnerID, req.DisplayName, req.AvatarRef, index, trading, updated.UnixNano())
		if err != nil {
			return rep, fmt.Errorf("inserting legacy record: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			rep.Inserted++
		} else {
			rep.Skipped++
		}
	}

	if err := tx.Commit(); err != nil {
		return rep, fmt.Errorf("committing migration: %w", err)
	}

	archive, err := archivePath(path)
	if err != nil {
		return rep, err
	}
	if err := os.Rename(path, archive); err != nil {
		return rep, fmt.Errorf("archiving legacy file: %w", err)
	}
	rep.ArchivedTo = archive
	return rep, nil
}

// migrateEntry converts a legacy entry to id keys when a name resolver is
// configured.
func (b *Backend) migrateEntry(e types.CollectionEntry) types.CollectionEntry {
	if e == nil {
		return types.CollectionEntry{}
	}
	if b.names == nil {
		return e
	}
	out, _ := migrate.Migrate(e, b.names)
	return out
}

// archivePath picks <path>.migrated, or <path>.migrated.<unix> when an
// earlier archive already holds that name.
func archivePath(path string) (string, error) {
	archive := path + archiveSuffix
	_, err := os.Stat(archive)
	if errors.Is(err, os.ErrNotExist) {
		return archive, nil
	}
	if err != nil {
		return "", fmt.Errorf("checking archive path: %w", err)
	}
	return archive + "." + strconv.FormatInt(time.Now().UnixNano(), 10), nil
}
