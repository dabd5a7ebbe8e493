package main

import (
	"context"
	"strings"
	"testing"

	"github.com/bk001juma/api-matengenezo/internal/storage"
	"github.com/bk001juma/api-matengenezo/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocations(t *testing.T) {
	input := `
# campus registry
Library | -6.7790 | 39.2040 | 50
Admin Block|-6.7801|39.2052|35.5

Cafeteria|-6.7812|39.2033|40
`
	locations, err := parseLocations(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, locations, 3)
	assert.Equal(t, "Library", locations[0].Name)
	assert.Equal(t, -6.7790, locations[0].Latitude)
	assert.Equal(t, 35.5, locations[1].RadiusMeters)
	assert.Equal(t, "Cafeteria", locations[2].Name)
}

func TestParseLocationsErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"missing field", "Library|1|2", "line 1: expected 4 fields"},
		{"bad number", "Library|north|2|10", `invalid latitude "north"`},
		{"zero radius", "ok|1|1|10\nLibrary|1|2|0", "line 2: radius must be positive"},
		{"out of range", "Library|91|2|10", "coordinates out of range"},
		{"empty name", " |1|2|10", "empty name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseLocations(strings.NewReader(tt.input))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	db := testdb.Open(t)
	reg := storage.NewLocations(db)
	ctx := context.Background()

	locations, err := parseLocations(strings.NewReader("Library|1|1|50\nGym|2|2|20"))
	require.NoError(t, err)

	inserted, skipped := seed(ctx, reg, locations)
	assert.Equal(t, 2, inserted)
	assert.Zero(t, skipped)

	again, err := parseLocations(strings.NewReader("Library|1|1|50\nGym|2|2|20"))
	require.NoError(t, err)
	inserted, skipped = seed(ctx, reg, again)
	assert.Zero(t, inserted)
	assert.Equal(t, 2, skipped)

	all, err := reg.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
