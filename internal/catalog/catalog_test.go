package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/indexkeeper/pkg/types"
)

func TestLoad(t *testing.T) {
	c, err := Load("testdata/catalog.json")
	require.NoError(t, err)
	assert.Equal(t, 7, c.Len())

	items := c.Items()
	var names []string
	for _, it := range items {
		names = append(names, it.Name)
	}
	// Sorted by value, ties broken by name.
	assert.Equal(t, []string{
		"Noobini Pizzanini",
		"Lirili Larila",
		"Tim Cheese",
		"Foo",
		"Trippi Troppi",
		"Bombardiro Crocodilo",
		"La Vacca Saturno Saturnita",
	}, names)

	tim, ok := c.ByID(3)
	require.True(t, ok)
	assert.Equal(t, types.RarityCommon, tim.Rarity, "missing rarity defaults to Common")

	foo, ok := c.ByID(5)
	require.True(t, ok)
	assert.True(t, foo.InSet(types.VariantCandy))
	assert.False(t, foo.InSet(types.VariantLava))

	_, ok = c.ByID(99)
	assert.False(t, ok)
}

func TestNameIndex(t *testing.T) {
	c, err := Load("testdata/catalog.json")
	require.NoError(t, err)

	id, ok := c.NameIndex().Resolve("Foo")
	require.True(t, ok)
	assert.Equal(t, 5, id)

	_, ok = c.NameIndex().Resolve("Unknown")
	assert.False(t, ok)
}

func TestParseRejectsBadIDs(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{"duplicate id", `{"A": {"id": 1}, "B": {"id": 1}}`, ErrDuplicateID},
		{"zero id", `{"A": {"id": 0}}`, ErrInvalidID},
		{"negative id", `{"A": {"id": -3}}`, ErrInvalidID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	_, err := Parse(strings.NewReader(`[1,2,3]`))
	assert.Error(t, err)
}

func TestItemsReturnsCopy(t *testing.T) {
	c, err := New([]types.Item{{ID: 1, Name: "A"}})
	require.NoError(t, err)

	items := c.Items()
	items[0].Name = "changed"

	it, _ := c.ByID(1)
	assert.Equal(t, "A", it.Name)
}
