package main

import (
	"fmt"
	"sort"
	"sync"

	"github.com/bk001juma/api-matengenezo/internal/geo"
	"github.com/bk001juma/api-matengenezo/internal/model"
)

// Issue types
const (
	IssueInvalidRadius      = "INVALID_RADIUS"
	IssueInvalidCoordinates = "INVALID_COORDINATES"
	IssueOverlap            = "OVERLAP"
	// IssueShadowed marks a location whose circle lies inside an earlier
	// one. First-match resolution never returns it.
	IssueShadowed = "SHADOWED"
)

type Issue struct {
	Type     string  `json:"type"`
	Location string  `json:"location"`
	ID       int64   `json:"id"`
	Other    string  `json:"other,omitempty"`
	OtherID  int64   `json:"other_id,omitempty"`
	Distance float64 `json:"distance_meters,omitempty"`
	Details  string  `json:"details"`
}

// audit checks every location on its own and every pair for overlap. Pairs
// are split across workers by the index of the earlier location.
func audit(locations []model.Location, workers int) []Issue {
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int, len(locations))
	issueChan := make(chan Issue, 100)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				for _, issue := range auditLocation(locations, i) {
					issueChan <- issue
				}
			}
		}()
	}

	var issues []Issue
	done := make(chan struct{})
	go func() {
		for issue := range issueChan {
			issues = append(issues, issue)
		}
		close(done)
	}()

	for i := range locations {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	close(issueChan)
	<-done

	sort.SliceStable(issues, func(a, b int) bool {
		if issues[a].ID != issues[b].ID {
			return issues[a].ID < issues[b].ID
		}
		if issues[a].OtherID != issues[b].OtherID {
			return issues[a].OtherID < issues[b].OtherID
		}
		return issues[a].Type < issues[b].Type
	})
	return issues
}

// auditLocation reports problems of locations[i] and of its pairs with
// every later location.
func auditLocation(locations []model.Location, i int) []Issue {
	var issues []Issue
	loc := locations[i]

	if loc.RadiusMeters <= 0 {
		issues = append(issues, Issue{
			Type:     IssueInvalidRadius,
			Location: loc.Name,
			ID:       loc.ID,
			Details:  fmt.Sprintf("radius %.2fm is not positive; no point can match", loc.RadiusMeters),
		})
	}
	if !geo.ValidCoordinates(loc.Latitude, loc.Longitude) {
		issues = append(issues, Issue{
			Type:     IssueInvalidCoordinates,
			Location: loc.Name,
			ID:       loc.ID,
			Details:  fmt.Sprintf("centre (%f, %f) is out of range", loc.Latitude, loc.Longitude),
		})
	}

	for _, later := range locations[i+1:] {
		if loc.RadiusMeters <= 0 || later.RadiusMeters <= 0 {
			continue
		}
		if !geo.Overlaps(loc, later) {
			continue
		}

		d := geo.Distance(loc.Latitude, loc.Longitude, later.Latitude, later.Longitude)
		issue := Issue{
			Type:     IssueOverlap,
			Location: loc.Name,
			ID:       loc.ID,
			Other:    later.Name,
			OtherID:  later.ID,
			Distance: d,
			Details:  fmt.Sprintf("points in the overlap resolve to %s", loc.Name),
		}
		if d+later.RadiusMeters <= loc.RadiusMeters {
			issue.Type = IssueShadowed
			issue.Details = fmt.Sprintf("%s lies inside %s and is never matched", later.Name, loc.Name)
		}
		issues = append(issues, issue)
	}
	return issues
}
