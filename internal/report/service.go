// Package report implements report submission and retrieval.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"time"

	"github.com/bk001juma/api-matengenezo/internal/geo"
	"github.com/bk001juma/api-matengenezo/internal/model"
	"github.com/bk001juma/api-matengenezo/internal/upload"
	"github.com/bk001juma/api-matengenezo/internal/validation"
)

// UnknownSummaryLocation is shown in summaries for reports stored without a
// location name.
const UnknownSummaryLocation = "Unknown"

// LocationRegistry lists every campus location in registry order.
type LocationRegistry interface {
	ListAll(ctx context.Context) ([]model.Location, error)
}

// Repository persists reports.
type Repository interface {
	// Create inserts r and calls publish before the insert is committed. An
	// error from publish aborts the insert.
	Create(ctx context.Context, r *model.Report, publish func(ctx context.Context) error) error
	// ListByUser returns the user's reports, most recent first.
	ListByUser(ctx context.Context, userID int64) ([]model.Report, error)
	// FindByID returns ErrNotFound when no report has the id.
	FindByID(ctx context.Context, id int64) (*model.Report, error)
	Save(ctx context.Context, r *model.Report) error
}

// Image is an uploaded file attached to a submission.
type Image struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// Submission carries the raw fields of a new report. Coordinates are kept as
// text so that non-numeric input is reported as a validation error.
type Submission struct {
	UserID      int64
	Description string
	Latitude    string
	Longitude   string
	Image       *Image
}

// Summary is the projection returned by ListForUser.
type Summary struct {
	ID           int64   `json:"id"`
	Description  string  `json:"description"`
	Status       string  `json:"status"`
	ImageURL     *string `json:"image_url"`
	LocationName string  `json:"location_name"`
	Timestamp    string  `json:"timestamp"`
}

// StatusUpdate is a reviewer's transition of a report to a new status.
type StatusUpdate struct {
	ReportID   int64
	ReviewerID int64
	Status     string
	Note       string
}

type Service struct {
	locations LocationRegistry
	reports   Repository
	images    upload.Store
	now       func() time.Time
}

func NewService(locations LocationRegistry, reports Repository, images upload.Store) *Service {
	return &Service{
		locations: locations,
		reports:   reports,
		images:    images,
		now:       time.Now,
	}
}

// Submit validates sub, stores its image, resolves the campus location and
// persists a Pending report. Validation failures return *validation.Error
// and persist nothing. Storage failures return *StorageError; a staged image
// is released so that no file outlives a failed insert.
func (s *Service) Submit(ctx context.Context, sub Submission) (*model.Report, error) {
	v, err := validate(sub)
	if err != nil {
		return nil, err
	}

	var staged upload.Staged
	if v.image != nil {
		staged, err = s.images.Stage(ctx, v.image.ext, v.image.body)
		if err != nil {
			return nil, storageErr("stage image", err)
		}
	}

	r, err := s.create(ctx, sub.UserID, v, staged)
	if err != nil {
		if staged != nil {
			if relErr := staged.Release(ctx); relErr != nil {
				log.Printf("[Report] Failed to release staged image %s: %v", staged.Reference(), relErr)
			}
		}
		return nil, err
	}
	return r, nil
}

func (s *Service) create(ctx context.Context, userID int64, v *validated, staged upload.Staged) (*model.Report, error) {
	locations, err := s.locations.ListAll(ctx)
	if err != nil {
		return nil, storageErr("list locations", err)
	}
	locationName := geo.Match(v.lat, v.lng, locations)

	now := s.now()
	r := &model.Report{
		UserID:       userID,
		Description:  v.description,
		Latitude:     v.lat,
		Longitude:    v.lng,
		LocationName: &locationName,
		Status:       model.StatusPending,
		Timestamp:    &now,
	}

	var publish func(context.Context) error
	if staged != nil {
		ref := staged.Reference()
		r.ImageURL = &ref
		publish = staged.Commit
	}

	if err := s.reports.Create(ctx, r, publish); err != nil {
		return nil, storageErr("create report", err)
	}
	return r, nil
}

// ListForUser returns summaries of every report owned by userID, most recent
// first.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]Summary, error) {
	reports, err := s.reports.ListByUser(ctx, userID)
	if err != nil {
		return nil, storageErr("list reports", err)
	}

	summaries := make([]Summary, 0, len(reports))
	for i := range reports {
		summaries = append(summaries, s.summarize(&reports[i]))
	}
	return summaries, nil
}

func (s *Service) summarize(r *model.Report) Summary {
	sum := Summary{
		ID:           r.ID,
		Description:  r.Description,
		Status:       r.Status,
		LocationName: UnknownSummaryLocation,
	}
	if r.ImageURL != nil && *r.ImageURL != "" {
		u := s.images.URL(*r.ImageURL)
		sum.ImageURL = &u
	}
	if r.LocationName != nil {
		sum.LocationName = *r.LocationName
	}
	ts := s.now()
	if r.Timestamp != nil {
		ts = *r.Timestamp
	}
	sum.Timestamp = ts.Format(time.RFC3339)
	return sum
}

// UpdateStatus moves a report to a new lifecycle status and records the
// transition in its history.
func (s *Service) UpdateStatus(ctx context.Context, u StatusUpdate) (*model.Report, error) {
	if !model.ValidStatus(u.Status) {
		v := validation.New()
		v.Add("status", "The selected status is invalid.")
		return nil, v
	}

	r, err := s.reports.FindByID(ctx, u.ReportID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr("find report", err)
	}

	var history []model.StatusChange
	if len(r.StatusHistory) > 0 {
		if err := json.Unmarshal(r.StatusHistory, &history); err != nil {
			log.Printf("[Report] Discarding unreadable status history of report %d: %v", r.ID, err)
			history = nil
		}
	}
	history = append(history, model.StatusChange{
		From:       r.Status,
		To:         u.Status,
		Note:       u.Note,
		ReviewedBy: u.ReviewerID,
		ChangedAt:  s.now(),
	})
	encoded, err := json.Marshal(history)
	if err != nil {
		return nil, err
	}

	r.Status = u.Status
	r.StatusHistory = encoded
	if err := s.reports.Save(ctx, r); err != nil {
		return nil, storageErr("save report", err)
	}
	return r, nil
}
