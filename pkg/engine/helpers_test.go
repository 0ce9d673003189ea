package engine_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// jsonField returns the raw JSON of one top-level field of doc.
func jsonField(t *testing.T, doc json.RawMessage, field string) string {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(doc, &m))
	v, ok := m[field]
	require.True(t, ok, "field %q missing", field)
	return string(v)
}
