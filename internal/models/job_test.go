package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnsMatchJSONKeys(t *testing.T) {
	rec := JobRecord{ID: "x", Title: "Planner"}
	rec.Normalize()

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	var asMap map[string]any
	require.NoError(t, json.Unmarshal(data, &asMap))

	cols := Columns()
	assert.Len(t, cols, len(asMap))
	for _, c := range cols {
		assert.Contains(t, asMap, c)
	}
}

func TestValues(t *testing.T) {
	seen := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	rec := JobRecord{
		ID:           "abc",
		Requirements: []string{"Licence", "Police check"},
		NumPositions: 2,
		FirstSeen:    seen,
	}
	vals := rec.Values()
	cols := Columns()
	require.Len(t, vals, len(cols))

	byName := map[string]string{}
	for i, c := range cols {
		byName[c] = vals[i]
	}
	assert.Equal(t, "abc", byName["id"])
	assert.Equal(t, "Licence; Police check", byName["requirements"])
	assert.Equal(t, "2", byName["numPositions"])
	assert.Equal(t, "2024-03-01T09:30:00Z", byName["firstSeen"])
	assert.Equal(t, "", byName["lastSeen"])
}

func TestNormalizeAndClone(t *testing.T) {
	rec := JobRecord{Attachments: []string{"a.pdf"}}
	rec.Normalize()
	assert.NotNil(t, rec.Requirements)
	assert.Equal(t, 1, rec.NumPositions)

	c := rec.Clone()
	c.Attachments[0] = "b.pdf"
	assert.Equal(t, "a.pdf", rec.Attachments[0])
}
