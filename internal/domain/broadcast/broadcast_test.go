package broadcast

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecord_JSONRoundTrip(t *testing.T) {
	raw := `{"id":"a1","ts_utc":"2025-09-14T13:00:00Z","repo":"archive","module":"The Signal",` +
		`"rating":"normal","date":"2025-09-14","checksum":"abc",` +
		`"links":{"page":"https://example.test/p"},"streak":7}`

	var rec Record
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	require.Equal(t, "a1", rec.ID)
	require.Equal(t, "archive", rec.Repo)
	require.Equal(t, "https://example.test/p", rec.Page())
	require.Equal(t, json.Number("7"), rec.Extra["streak"])

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	require.JSONEq(t, raw, string(out))
}

func TestRecord_DocumentOmitsEmptyFields(t *testing.T) {
	rec := Record{ID: "x"}
	doc := rec.Document()
	require.Equal(t, map[string]any{"id": "x"}, doc)
}

func TestContentChecksum_StableAndExcludesChecksum(t *testing.T) {
	a := Record{ID: "x", TsUTC: "2025-09-14T13:00:00Z", Rating: "normal"}
	b := a
	b.Checksum = "already-set"
	require.Equal(t, a.ContentChecksum(), b.ContentChecksum())
}

func TestContentChecksum_SensitiveToContent(t *testing.T) {
	a := Record{ID: "x", Rating: "normal"}
	b := Record{ID: "x", Rating: "critical"}
	require.NotEqual(t, a.ContentChecksum(), b.ContentChecksum())
}

func TestFromDocument_MissingVsUnknownFields(t *testing.T) {
	rec := FromDocument(map[string]any{"rating": "critical", "custom": true})
	require.Empty(t, rec.ID)       // missing
	require.Equal(t, "critical", rec.Rating)
	require.Equal(t, true, rec.Extra["custom"]) // unknown, preserved
	require.NotContains(t, rec.Extra, "rating")
}
