package geo

import (
	"testing"

	"github.com/bk001juma/api-matengenezo/internal/model"
	"github.com/stretchr/testify/assert"
)

func library() model.Location {
	return model.Location{ID: 1, Name: "Library", Latitude: 1.0, Longitude: 1.0, RadiusMeters: 50}
}

func TestDistanceToSelfIsZero(t *testing.T) {
	points := [][2]float64{{0, 0}, {-6.7924, 39.2083}, {89.9, -179.9}, {1, 1}}
	for _, p := range points {
		assert.Equal(t, 0.0, Distance(p[0], p[1], p[0], p[1]))
	}
}

func TestDistanceIsSymmetric(t *testing.T) {
	a := [2]float64{-6.7806, 39.2044}
	b := [2]float64{-6.7713, 39.2397}

	assert.InDelta(t, Distance(a[0], a[1], b[0], b[1]), Distance(b[0], b[1], a[0], a[1]), 1e-9)
}

func TestDistanceKnownValues(t *testing.T) {
	// One degree of longitude on the equator.
	assert.InDelta(t, 111194.93, Distance(0, 0, 0, 1), 0.01)
	// Pole to pole.
	assert.InDelta(t, 20015086.80, Distance(90, 0, -90, 0), 0.01)
	// The library scenario point is roughly 1.5m away.
	assert.InDelta(t, 1.57, Distance(1.0, 1.0, 1.00001, 1.00001), 0.01)
}

func TestMatchInsideRadius(t *testing.T) {
	assert.Equal(t, "Library", Match(1.00001, 1.00001, []model.Location{library()}))
}

func TestMatchOutsideEveryRadius(t *testing.T) {
	assert.Equal(t, UnknownLocation, Match(2.0, 2.0, []model.Location{library()}))
}

func TestMatchEmptyRegistry(t *testing.T) {
	assert.Equal(t, UnknownLocation, Match(1.0, 1.0, nil))
}

func TestMatchBoundaryIsInside(t *testing.T) {
	loc := library()
	loc.RadiusMeters = Distance(1.0003, 1.0, loc.Latitude, loc.Longitude)

	assert.Equal(t, "Library", Match(1.0003, 1.0, []model.Location{loc}))
}

func TestMatchPrefersFirstInRegistryOrder(t *testing.T) {
	big := model.Location{ID: 1, Name: "Main Campus", Latitude: 1.0, Longitude: 1.0, RadiusMeters: 5000}
	near := model.Location{ID: 2, Name: "Library", Latitude: 1.0001, Longitude: 1.0001, RadiusMeters: 30}

	// The point sits almost on top of the library but the campus circle
	// comes first.
	assert.Equal(t, "Main Campus", Match(1.0001, 1.0001, []model.Location{big, near}))
	assert.Equal(t, "Library", Match(1.0001, 1.0001, []model.Location{near, big}))
}

func TestMatchSkipsNonContainingLocations(t *testing.T) {
	locations := []model.Location{
		{Name: "Cafeteria", Latitude: -6.7800, Longitude: 39.2000, RadiusMeters: 40},
		{Name: "Hostel B", Latitude: -6.7750, Longitude: 39.2050, RadiusMeters: 60},
		library(),
	}

	assert.Equal(t, "Hostel B", Match(-6.7751, 39.2050, locations))
}

func TestMatchIsDeterministicAndDoesNotMutate(t *testing.T) {
	locations := []model.Location{library(), {Name: "Gym", Latitude: 1.0002, Longitude: 1.0, RadiusMeters: 50}}
	snapshot := append([]model.Location(nil), locations...)

	first := Match(1.0001, 1.0, locations)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Match(1.0001, 1.0, locations))
	}
	assert.Equal(t, snapshot, locations)
}

func TestContainingAgreesWithMatch(t *testing.T) {
	locations := []model.Location{
		{Name: "Gym", Latitude: 1.0002, Longitude: 1.0, RadiusMeters: 50},
		library(),
		{Name: "Far Field", Latitude: 3, Longitude: 3, RadiusMeters: 100},
	}

	got := Containing(1.0001, 1.0, locations)

	if assert.Len(t, got, 2) {
		assert.Equal(t, "Gym", got[0].Name)
		assert.Equal(t, "Library", got[1].Name)
		assert.Equal(t, got[0].Name, Match(1.0001, 1.0, locations))
	}
	assert.Empty(t, Containing(2, 2, locations))
}

func TestOverlaps(t *testing.T) {
	a := library()
	far := model.Location{Name: "Gym", Latitude: 1.001, Longitude: 1.0, RadiusMeters: 20}
	near := model.Location{Name: "Annex", Latitude: 1.0005, Longitude: 1.0, RadiusMeters: 20}

	// ~111m apart with radii summing to 70m.
	assert.False(t, Overlaps(a, far))
	// ~56m apart with radii summing to 70m.
	assert.True(t, Overlaps(a, near))
	assert.True(t, Overlaps(near, a))
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, ValidCoordinates(-90, 180))
	assert.False(t, ValidCoordinates(90.1, 0))
	assert.False(t, ValidCoordinates(0, -180.5))
}
