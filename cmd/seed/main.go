package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/bk001juma/api-matengenezo/internal/config"
	"github.com/bk001juma/api-matengenezo/internal/database"
	"github.com/bk001juma/api-matengenezo/internal/geo"
	"github.com/bk001juma/api-matengenezo/internal/model"
	"github.com/bk001juma/api-matengenezo/internal/storage"
)

func main() {
	filePath := flag.String("file", "data/locations.txt", "Path to location list (name|latitude|longitude|radius_meters)")
	flag.Parse()

	log.Printf("Seeding locations from %s", *filePath)

	cfg := config.Load()
	cfg.GormLogLevel = "silent"

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	file, err := os.Open(*filePath)
	if err != nil {
		log.Fatalf("Failed to open location list: %v", err)
	}
	defer file.Close()

	locations, err := parseLocations(file)
	if err != nil {
		log.Fatalf("Failed to parse location list: %v", err)
	}
	log.Printf("Loaded %d locations from file", len(locations))

	inserted, skipped := seed(context.Background(), storage.NewLocations(db), locations)
	log.Printf("Seeding complete. Inserted: %d, Skipped: %d", inserted, skipped)
}

// parseLocations reads one location per line as
// "name|latitude|longitude|radius_meters". Blank lines and lines starting
// with # are ignored. File order becomes registry order.
func parseLocations(r io.Reader) ([]model.Location, error) {
	var locations []model.Location
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		loc, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		locations = append(locations, loc)
	}

	return locations, scanner.Err()
}

func parseLine(line string) (model.Location, error) {
	parts := strings.Split(line, "|")
	if len(parts) != 4 {
		return model.Location{}, fmt.Errorf("expected 4 fields, got %d", len(parts))
	}

	name := strings.TrimSpace(parts[0])
	if name == "" {
		return model.Location{}, fmt.Errorf("empty name")
	}

	var nums [3]float64
	for i, field := range []string{"latitude", "longitude", "radius_meters"} {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i+1]), 64)
		if err != nil {
			return model.Location{}, fmt.Errorf("invalid %s %q", field, parts[i+1])
		}
		nums[i] = v
	}

	loc := model.Location{Name: name, Latitude: nums[0], Longitude: nums[1], RadiusMeters: nums[2]}
	if !geo.ValidCoordinates(loc.Latitude, loc.Longitude) {
		return model.Location{}, fmt.Errorf("coordinates out of range for %s", name)
	}
	if loc.RadiusMeters <= 0 {
		return model.Location{}, fmt.Errorf("radius must be positive for %s", name)
	}
	return loc, nil
}

type registry interface {
	CreateIfMissing(ctx context.Context, loc *model.Location) (bool, error)
}

func seed(ctx context.Context, reg registry, locations []model.Location) (inserted int, skipped int) {
	for i := range locations {
		ok, err := reg.CreateIfMissing(ctx, &locations[i])
		if err != nil {
			log.Printf("Error inserting location %s: %v", locations[i].Name, err)
			skipped++
			continue
		}
		if ok {
			inserted++
		} else {
			skipped++
		}
	}
	return inserted, skipped
}
