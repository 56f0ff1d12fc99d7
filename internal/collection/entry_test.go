package collection

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntry_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Entry
	}{
		{
			name: "catalog key",
			in:   `{"catalogKey":"/works/OL1W","title":"Dune","author":"Frank Herbert"}`,
			want: Entry{CatalogKey: "/works/OL1W", Title: "Dune", Author: "Frank Herbert"},
		},
		{
			name: "legacy key",
			in:   `{"key":" /works/OL2W ","title":"Emma"}`,
			want: Entry{CatalogKey: "/works/OL2W", Title: "Emma"},
		},
		{
			name: "catalogKey wins over key",
			in:   `{"catalogKey":"/works/A","key":"/works/B"}`,
			want: Entry{CatalogKey: "/works/A"},
		},
		{
			name: "extra fields kept, reserved dropped",
			in:   `{"title":"Emma","first_publish_year":1815,"_id":"x","tags":["classic"]}`,
			want: Entry{Title: "Emma", Extra: map[string]any{
				"first_publish_year": float64(1815),
				"tags":               []any{"classic"},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Entry
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEntry_UnmarshalJSON_NotAnObject(t *testing.T) {
	var e Entry
	assert.Error(t, json.Unmarshal([]byte(`"dune"`), &e))
}

func TestEntry_MarshalJSON_FlattensExtra(t *testing.T) {
	e := Entry{
		CatalogKey: "/works/OL1W",
		Title:      "Dune",
		Extra:      map[string]any{"year": 1965, "title": "shadowed"},
	}

	b, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"catalogKey":"/works/OL1W","title":"Dune","year":1965}`, string(b))
}

func TestEntry_WithDetails(t *testing.T) {
	cover := "https://covers.openlibrary.org/b/id/1-L.jpg"
	stored := Entry{CatalogKey: "/works/OL1W", Extra: map[string]any{"description": "old"}}

	got := stored.withDetails(&cover, "new")

	assert.Equal(t, cover, got.Extra["cover"])
	assert.Equal(t, "new", got.Extra["description"])
	assert.Equal(t, "old", stored.Extra["description"], "stored entry must not change")

	noCover := stored.withDetails(nil, "x")
	v, ok := noCover.Extra["cover"]
	assert.True(t, ok)
	assert.Nil(t, v)

	b, err := json.Marshal(noCover)
	require.NoError(t, err)
	assert.JSONEq(t, `{"catalogKey":"/works/OL1W","cover":null,"description":"x"}`, string(b))
}
