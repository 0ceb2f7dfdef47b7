package synccodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/indexkeeper/pkg/types"
)

func TestExportFormat(t *testing.T) {
	out, err := Export(
		types.CollectionEntry{"5": {types.VariantLava, types.VariantGold}},
		types.CollectionEntry{},
	)
	require.NoError(t, err)

	assert.JSONEq(t, `{"index":{"5":["Gold","Lava"]},"trading":{}}`, string(out))
	assert.Contains(t, string(out), "\n  ", "export is indented for copying")
}

func TestExportNilEntries(t *testing.T) {
	out, err := Export(nil, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"index":{},"trading":{}}`, string(out))
}

func TestRoundTrip(t *testing.T) {
	states := []types.CollectionState{
		{Index: types.CollectionEntry{}, Trading: types.CollectionEntry{}},
		{
			Index:   types.CollectionEntry{"1": {types.VariantNormal, types.VariantGold}, "5": {types.VariantCandy}},
			Trading: types.CollectionEntry{"5": {types.VariantDivine}},
		},
		{
			Index:   types.CollectionEntry{"12": {types.VariantGalaxy, types.VariantCandy, types.VariantLava}},
			Trading: types.CollectionEntry{"3": {types.VariantYinYang}},
		},
	}
	for _, s := range states {
		text, err := Export(s.Index, s.Trading)
		require.NoError(t, err)

		got, err := Import(text)
		require.NoError(t, err)
		assert.True(t, s.Equal(got), "round trip of %v gave %v", s, got)

		again, err := Export(got.Index, got.Trading)
		require.NoError(t, err)
		assert.Equal(t, string(text), string(again), "export is canonical")
	}
}

func TestImportRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"missing trading", `{"index": {}}`},
		{"missing index", `{"trading": {}}`},
		{"not json", `index: {}`},
		{"array document", `[{"index": {}, "trading": {}}]`},
		{"null document", `null`},
		{"index not object", `{"index": [], "trading": {}}`},
		{"index null", `{"index": null, "trading": {}}`},
		{"value not array", `{"index": {"5": "Gold"}, "trading": {}}`},
		{"value null", `{"index": {"5": null}, "trading": {}}`},
		{"element not string", `{"index": {"5": [1]}, "trading": {}}`},
		{"element null", `{"index": {}, "trading": {"5": [null]}}`},
		{"nested array", `{"index": {}, "trading": {"5": [["Gold"]]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Import([]byte(tt.text))
			assert.ErrorIs(t, err, types.ErrFormat)
		})
	}
}

func TestImportIgnoresExtraFields(t *testing.T) {
	got, err := Import([]byte(`{"version": 2, "index": {"5": ["Gold", "Gold"]}, "trading": {"6": []}}`))
	require.NoError(t, err)
	assert.Equal(t, types.CollectionEntry{"5": {types.VariantGold}}, got.Index)
	assert.Empty(t, got.Trading)
}
