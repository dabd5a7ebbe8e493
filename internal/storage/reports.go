package storage

import (
	"context"
	"errors"

	"github.com/bk001juma/api-matengenezo/internal/model"
	"github.com/bk001juma/api-matengenezo/internal/report"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Reports is the GORM implementation of report.Repository.
type Reports struct {
	db *gorm.DB
}

func NewReports(db *gorm.DB) *Reports {
	return &Reports{db: db}
}

var _ report.Repository = (*Reports)(nil)

// Create inserts r in a transaction and runs publish before committing it.
// If publish fails the row is rolled back.
func (s *Reports) Create(ctx context.Context, r *model.Report, publish func(ctx context.Context) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(r).Error; err != nil {
			return err
		}
		if publish != nil {
			return publish(ctx)
		}
		return nil
	})
}

func (s *Reports) ListByUser(ctx context.Context, userID int64) ([]model.Report, error) {
	var reports []model.Report
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true}).
		Find(&reports).Error
	if err != nil {
		return nil, err
	}
	return reports, nil
}

func (s *Reports) FindByID(ctx context.Context, id int64) (*model.Report, error) {
	var r model.Report
	err := s.db.WithContext(ctx).First(&r, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, report.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Reports) Save(ctx context.Context, r *model.Report) error {
	return s.db.WithContext(ctx).Save(r).Error
}
