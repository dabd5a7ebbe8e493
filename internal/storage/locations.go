package storage

import (
	"context"
	"errors"

	"github.com/bk001juma/api-matengenezo/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrLocationNotFound is returned when a location id does not exist.
var ErrLocationNotFound = errors.New("location not found")

// Locations is the campus location registry.
type Locations struct {
	db *gorm.DB
}

func NewLocations(db *gorm.DB) *Locations {
	return &Locations{db: db}
}

// ListAll returns every location in insertion order. It is read fresh on
// every call so registry edits apply to the next submission.
func (s *Locations) ListAll(ctx context.Context) ([]model.Location, error) {
	var locations []model.Location
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&locations).Error; err != nil {
		return nil, err
	}
	return locations, nil
}

func (s *Locations) Get(ctx context.Context, id int64) (*model.Location, error) {
	var loc model.Location
	err := s.db.WithContext(ctx).First(&loc, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLocationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

func (s *Locations) Create(ctx context.Context, loc *model.Location) error {
	return s.db.WithContext(ctx).Create(loc).Error
}

// CreateIfMissing inserts loc unless a location with the same name exists.
// It reports whether a row was inserted.
func (s *Locations) CreateIfMissing(ctx context.Context, loc *model.Location) (bool, error) {
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(loc)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *Locations) Update(ctx context.Context, loc *model.Location) error {
	result := s.db.WithContext(ctx).Model(&model.Location{}).
		Where("id = ?", loc.ID).
		Updates(map[string]interface{}{
			"name":          loc.Name,
			"latitude":      loc.Latitude,
			"longitude":     loc.Longitude,
			"radius_meters": loc.RadiusMeters,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLocationNotFound
	}
	return nil
}

func (s *Locations) Delete(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Delete(&model.Location{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLocationNotFound
	}
	return nil
}

// NameTaken reports whether another location (not exceptID) uses name.
func (s *Locations) NameTaken(ctx context.Context, name string, exceptID int64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Location{}).
		Where("name = ? AND id <> ?", name, exceptID).
		Count(&count).Error
	return count > 0, err
}
