package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mesh-intelligence/indexkeeper/internal/catalog"
	"github.com/mesh-intelligence/indexkeeper/pkg/types"
)

var names = catalog.NameIndex{"Foo": 5, "Bar": 7}

func TestDetect(t *testing.T) {
	assert.Equal(t, SchemaCurrent, Detect(nil))
	assert.Equal(t, SchemaCurrent, Detect(types.CollectionEntry{"5": {types.VariantGold}}))
	assert.Equal(t, SchemaLegacy, Detect(types.CollectionEntry{"Foo": {types.VariantGold}}))
	assert.Equal(t, SchemaLegacy, Detect(types.CollectionEntry{"5": nil, "Foo": nil}))
}

func TestMigrateCurrentIsNoop(t *testing.T) {
	raw := types.CollectionEntry{
		"5": {types.VariantGold, types.VariantCandy},
		"9": {types.VariantNormal},
	}
	want := raw.Clone()

	got, schema := Migrate(raw, names)

	assert.Equal(t, SchemaCurrent, schema)
	assert.Equal(t, want, got)

	again, schema := Migrate(got, names)
	assert.Equal(t, SchemaCurrent, schema)
	assert.Equal(t, want, again)
}

func TestMigrateLegacyResolvesNames(t *testing.T) {
	got, schema := Migrate(types.CollectionEntry{"Foo": {types.VariantGold}}, names)

	assert.Equal(t, SchemaLegacy, schema)
	assert.Equal(t, types.CollectionEntry{"5": {types.VariantGold}}, got)
	assert.NotContains(t, got, "Foo")
}

func TestMigrateDropsUnresolvedNames(t *testing.T) {
	got, schema := Migrate(types.CollectionEntry{"Unknown": {types.VariantGold}}, names)

	assert.Equal(t, SchemaLegacy, schema)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestMigrateMixedKeys(t *testing.T) {
	raw := types.CollectionEntry{
		"5":       {types.VariantLava},
		"Foo":     {types.VariantGold},
		"Bar":     {types.VariantDivine},
		"Removed": {types.VariantGold},
	}

	got, _ := Migrate(raw, names)

	assert.Equal(t, types.CollectionEntry{
		"5": {types.VariantGold, types.VariantLava},
		"7": {types.VariantDivine},
	}, got)
	assert.Equal(t, SchemaCurrent, Detect(got))
}

func TestMigrateKeepsIDKeysBesideNames(t *testing.T) {
	raw := types.CollectionEntry{
		"Foo": {types.VariantGold},
		"7":   {types.VariantLava},
	}

	got, schema := Migrate(raw, names)

	assert.Equal(t, SchemaLegacy, schema)
	assert.Equal(t, types.CollectionEntry{
		"5": {types.VariantGold},
		"7": {types.VariantLava},
	}, got)
}
