package recordstore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/indexkeeper/internal/catalog"
	"github.com/mesh-intelligence/indexkeeper/pkg/types"
)

// fixedClock returns a clock that always reports t.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func setupBackend(t *testing.T, opts ...Option) (*Backend, string) {
	t.Helper()
	dir := t.TempDir()
	b := NewBackend(opts...)
	require.NoError(t, b.Attach(context.Background(), types.Config{
		Backend: types.BackendSQLite,
		DataDir: dir,
	}))
	t.Cleanup(func() { b.Detach() })
	return b, dir
}

func shareReq(owner string, index, trading types.CollectionEntry) types.ShareRequest {
	return types.ShareRequest{OwnerID: owner, IndexEntry: index, TradingEntry: trading}
}

func TestAttachLifecycle(t *testing.T) {
	ctx := context.Background()
	b := NewBackend()
	cfg := types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}

	_, err := b.GetAll(ctx)
	assert.ErrorIs(t, err, ErrDetached)

	require.NoError(t, b.Attach(ctx, cfg))
	assert.ErrorIs(t, b.Attach(ctx, cfg), ErrAlreadyAttached)
	assert.FileExists(t, filepath.Join(cfg.DataDir, dbFileName))

	require.NoError(t, b.Detach())
	require.NoError(t, b.Detach(), "detach is idempotent")

	_, err = b.GetOne(ctx, "u1")
	assert.ErrorIs(t, err, ErrDetached)
}

func TestAttachRejectsInvalidConfig(t *testing.T) {
	err := NewBackend().Attach(context.Background(), types.Config{})
	assert.ErrorIs(t, err, types.ErrBackendEmpty)
}

func TestUpsertInsertsThenGetOne(t *testing.T) {
	ctx := context.Background()
	b, _ := setupBackend(t)

	stored, err := b.Upsert(ctx, types.ShareRequest{
		OwnerID:      "u1",
		DisplayName:  "ada",
		AvatarRef:    "av1",
		IndexEntry:   types.CollectionEntry{"1": {types.VariantGold}},
		TradingEntry: types.CollectionEntry{},
	})
	require.NoError(t, err)
	assert.False(t, stored.UpdatedAt.IsZero())

	got, err := b.GetOne(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ada", got.DisplayName)
	assert.Equal(t, "av1", got.AvatarRef)
	assert.Equal(t, types.CollectionEntry{"1": {types.VariantGold}}, got.IndexEntry)
	assert.Empty(t, got.TradingEntry)
	assert.True(t, stored.UpdatedAt.Equal(got.UpdatedAt))
}

func TestUpsertDefaultsDisplayFields(t *testing.T) {
	ctx := context.Background()
	b, _ := setupBackend(t)

	_, err := b.Upsert(ctx, shareReq("u1", types.CollectionEntry{}, types.CollectionEntry{}))
	require.NoError(t, err)

	got, err := b.GetOne(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, types.DefaultDisplayName, got.DisplayName)
	assert.Equal(t, types.DefaultAvatarRef, got.AvatarRef)
}

func TestUpsertValidation(t *testing.T) {
	ctx := context.Background()
	b, _ := setupBackend(t)

	tests := []types.ShareRequest{
		shareReq("", types.CollectionEntry{}, types.CollectionEntry{}),
		shareReq("u1", nil, types.CollectionEntry{}),
		shareReq("u1", types.CollectionEntry{}, nil),
	}
	for _, req := range tests {
		_, err := b.Upsert(ctx, req)
		assert.ErrorIs(t, err, types.ErrValidation)
	}

	all, err := b.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUpsertReplacesNeverMerges(t *testing.T) {
	ctx := context.Background()
	b, _ := setupBackend(t)

	_, err := b.Upsert(ctx, types.ShareRequest{
		OwnerID:      "u1",
		DisplayName:  "first",
		IndexEntry:   types.CollectionEntry{"2": {types.VariantGold}},
		TradingEntry: types.CollectionEntry{"9": {types.VariantLava}},
	})
	require.NoError(t, err)
	_, err = b.Upsert(ctx, shareReq("u1",
		types.CollectionEntry{"1": {types.VariantGold}},
		types.CollectionEntry{},
	))
	require.NoError(t, err)

	got, err := b.GetOne(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, types.CollectionEntry{"1": {types.VariantGold}}, got.IndexEntry)
	assert.Empty(t, got.TradingEntry)
	assert.Equal(t, types.DefaultDisplayName, got.DisplayName, "every field is overwritten")
}

func TestUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	b, _ := setupBackend(t)
	req := shareReq("u1",
		types.CollectionEntry{"1": {types.VariantGold, types.VariantDiamond}},
		types.CollectionEntry{"3": {types.VariantNormal}},
	)

	_, err := b.Upsert(ctx, req)
	require.NoError(t, err)
	first, err := b.GetOne(ctx, "u1")
	require.NoError(t, err)

	_, err = b.Upsert(ctx, req)
	require.NoError(t, err)
	second, err := b.GetOne(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, first.IndexEntry, second.IndexEntry)
	assert.Equal(t, first.TradingEntry, second.TradingEntry)
	assert.Equal(t, first.DisplayName, second.DisplayName)
	assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))
}

func TestUpdatedAtStrictlyIncreases(t *testing.T) {
	ctx := context.Background()
	// The clock never advances; updated_at must still move forward.
	b, _ := setupBackend(t, WithClock(fixedClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))))
	req := shareReq("u1", types.CollectionEntry{}, types.CollectionEntry{})

	var prev time.Time
	for i := 0; i < 5; i++ {
		rec, err := b.Upsert(ctx, req)
		require.NoError(t, err)
		if i > 0 {
			assert.True(t, rec.UpdatedAt.After(prev), "write %d: %v not after %v", i, rec.UpdatedAt, prev)
		}
		prev = rec.UpdatedAt
	}
}

func TestUpdatedAtDoesNotMoveBackwards(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	b, _ := setupBackend(t, WithClock(clock))
	req := shareReq("u1", types.CollectionEntry{}, types.CollectionEntry{})

	first, err := b.Upsert(ctx, req)
	require.NoError(t, err)

	now = now.Add(-time.Hour)
	second, err := b.Upsert(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
}

func TestGetOneNotFound(t *testing.T) {
	b, _ := setupBackend(t)
	_, err := b.GetOne(context.Background(), "nobody")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestGetAll(t *testing.T) {
	ctx := context.Background()
	b, _ := setupBackend(t)

	for _, owner := range []string{"u1", "u2", "u3"} {
		_, err := b.Upsert(ctx, shareReq(owner,
			types.CollectionEntry{"1": {types.VariantGold}},
			types.CollectionEntry{},
		))
		require.NoError(t, err)
	}

	all, err := b.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "u2", all["u2"].OwnerID)
	assert.Equal(t, types.CollectionEntry{"1": {types.VariantGold}}, all["u3"].IndexEntry)
}

func TestRecordsSurviveReattach(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := types.Config{Backend: types.BackendSQLite, DataDir: dir}

	b := NewBackend()
	require.NoError(t, b.Attach(ctx, cfg))
	_, err := b.Upsert(ctx, shareReq("u1", types.CollectionEntry{"1": {types.VariantGold}}, types.CollectionEntry{}))
	require.NoError(t, err)
	require.NoError(t, b.Detach())

	b2 := NewBackend()
	require.NoError(t, b2.Attach(ctx, cfg))
	defer b2.Detach()
	got, err := b2.GetOne(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, types.CollectionEntry{"1": {types.VariantGold}}, got.IndexEntry)
}

func TestConcurrentUpsertsDifferentOwners(t *testing.T) {
	ctx := context.Background()
	b, _ := setupBackend(t)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			owner := "u" + types.ItemKey(i)
			_, err := b.Upsert(ctx, shareReq(owner, types.CollectionEntry{types.ItemKey(i): {types.VariantGold}}, types.CollectionEntry{}))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	all, err := b.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 20)
}

func TestCorruptRowSurfacesFormatError(t *testing.T) {
	ctx := context.Background()
	b, _ := setupBackend(t)
	_, err := b.db.ExecContext(ctx, `INSERT INTO users (`+userColumns+`) VALUES ('bad', 'x', 'y', 'not json', '{}', 1)`)
	require.NoError(t, err)

	_, err = b.GetOne(ctx, "bad")
	assert.ErrorIs(t, err, types.ErrFormat)
}

func TestRebind(t *testing.T) {
	assert.Equal(t, "SELECT ? FROM t WHERE a = ?", sqliteDialect.rebind("SELECT ? FROM t WHERE a = ?"))
	assert.Equal(t, "SELECT $1 FROM t WHERE a = $2", postgresDialect.rebind("SELECT ? FROM t WHERE a = ?"))
}

func writeLegacy(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, legacyFileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestAttachMigratesLegacyFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := writeLegacy(t, dir, `{
		"u1": {"username": "ada", "avatar": "a1", "index": {"5": ["Gold"]}, "trading": {}, "updatedAt": 1700000000000},
		"u2": {"index": {"Foo": ["Lava"]}}
	}`)

	names := catalog.NameIndex{"Foo": 5}
	b := NewBackend(WithNameResolver(names))
	require.NoError(t, b.Attach(ctx, types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	defer b.Detach()

	u1, err := b.GetOne(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ada", u1.DisplayName)
	assert.Equal(t, types.CollectionEntry{"5": {types.VariantGold}}, u1.IndexEntry)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), u1.UpdatedAt)

	u2, err := b.GetOne(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, types.DefaultDisplayName, u2.DisplayName)
	assert.Equal(t, types.CollectionEntry{"5": {types.VariantLava}}, u2.IndexEntry)
	assert.Empty(t, u2.TradingEntry)

	assert.NoFileExists(t, path)
	assert.FileExists(t, path+archiveSuffix, "legacy file is archived, not deleted")
}

func TestLegacyMigrationIsInsertIfAbsent(t *testing.T) {
	ctx := context.Background()
	b, dir := setupBackend(t)

	_, err := b.Upsert(ctx, shareReq("u1", types.CollectionEntry{"1": {types.VariantDivine}}, types.CollectionEntry{}))
	require.NoError(t, err)

	writeLegacy(t, dir, `{"u1": {"index": {"1": ["Normal"]}}, "u2": {"index": {"2": ["Normal"]}}}`)
	rep, err := b.MigrateLegacy(ctx)
	require.NoError(t, err)
	assert.True(t, rep.Found)
	assert.Equal(t, 1, rep.Inserted)
	assert.Equal(t, 1, rep.Skipped)

	u1, err := b.GetOne(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, types.CollectionEntry{"1": {types.VariantDivine}}, u1.IndexEntry, "live row is never overwritten")

	// A second legacy file (for example restored after a partial run) is
	// archived under a distinct name and changes nothing.
	writeLegacy(t, dir, `{"u2": {"index": {"2": ["Gold"]}}}`)
	rep, err = b.MigrateLegacy(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Inserted)
	assert.Equal(t, 1, rep.Skipped)
	assert.NotEqual(t, filepath.Join(dir, legacyFileName+archiveSuffix), rep.ArchivedTo)

	u2, err := b.GetOne(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, types.CollectionEntry{"2": {types.VariantNormal}}, u2.IndexEntry)
}

func TestFailedLegacyMigrationKeepsFileAndAttaches(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := writeLegacy(t, dir, `{"u1": {"index": `)

	b := NewBackend()
	require.NoError(t, b.Attach(ctx, types.Config{Backend: types.BackendSQLite, DataDir: dir}),
		"migration failure is not fatal")
	defer b.Detach()

	assert.FileExists(t, path)
	assert.NoFileExists(t, path+archiveSuffix)

	_, err := b.MigrateLegacy(ctx)
	assert.ErrorIs(t, err, types.ErrFormat)

	all, err := b.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMigrateLegacyWithoutFile(t *testing.T) {
	b, _ := setupBackend(t)
	rep, err := b.MigrateLegacy(context.Background())
	require.NoError(t, err)
	assert.False(t, rep.Found)
}
