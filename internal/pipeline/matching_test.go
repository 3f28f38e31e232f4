package pipeline

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightboard/brightboard-backend/internal/model"
)

func roster(names ...string) []model.Student {
	out := make([]model.Student, len(names))
	for i, n := range names {
		out[i] = model.Student{ID: uuid.New(), Name: n}
	}
	return out
}

func TestMatchRosterExact(t *testing.T) {
	r := roster("Siti Nurhaliza", "Budi Santoso")

	hit, ok := matchRoster(r, "Budi Santoso")
	require.True(t, ok)
	assert.Equal(t, r[1].ID, hit.ID)
}

func TestMatchRosterCaseInsensitive(t *testing.T) {
	r := roster("Siti Nurhaliza")

	hit, ok := matchRoster(r, "siti nurhaliza")
	require.True(t, ok)
	assert.Equal(t, r[0].ID, hit.ID)
}

func TestMatchRosterPartialBothDirections(t *testing.T) {
	r := roster("Siti Nurhaliza", "Budi Santoso")

	// Shorter name on the sheet matches the longer roster entry.
	hit, ok := matchRoster(r, "Nurhaliza")
	require.True(t, ok)
	assert.Equal(t, r[0].ID, hit.ID)

	// Longer name on the sheet matches the shorter roster entry.
	hit, ok = matchRoster(roster("Budi"), "Budi Santoso")
	require.True(t, ok)
	assert.Equal(t, "Budi", hit.Name)
}

func TestMatchRosterAmbiguousIsNoMatch(t *testing.T) {
	r := roster("Siti Nurhaliza", "Siti Aminah")

	_, ok := matchRoster(r, "Siti")
	assert.False(t, ok, "more than one hit must count as no match")
}

func TestMatchRosterNoHit(t *testing.T) {
	r := roster("Siti Nurhaliza")

	_, ok := matchRoster(r, "Completely Different")
	assert.False(t, ok)
}

func TestMatchRosterEmptyExtractedName(t *testing.T) {
	r := roster("Siti Nurhaliza")

	_, ok := matchRoster(r, "   ")
	assert.False(t, ok)
}

func TestManualNameFor(t *testing.T) {
	cfg := &model.GradingConfig{
		IsManualUpload: true,
		ManualEntities: []model.ManualEntity{
			{SheetPath: "/uploads/a.jpg", Name: " Siti Nurhaliza "},
			{SheetPath: "/uploads/b.jpg", Name: "Budi Santoso"},
		},
	}

	assert.Equal(t, "Siti Nurhaliza", manualNameFor(cfg, "/uploads/a.jpg"))
	assert.Equal(t, "Budi Santoso", manualNameFor(cfg, "/uploads/b.jpg"))
	assert.Equal(t, "", manualNameFor(cfg, "/uploads/unbound.jpg"))
}
