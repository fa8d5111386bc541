package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/geovisor/geovisor/models"
)

type Measurements struct {
	db *gorm.DB
}

func NewMeasurements(db *gorm.DB) *Measurements {
	return &Measurements{db: db}
}

func (r *Measurements) Create(ctx context.Context, m *models.Measurement) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// ByID returns the measurement or nil when no such id exists.
func (r *Measurements) ByID(ctx context.Context, id uint) (*models.Measurement, error) {
	var m models.Measurement
	err := r.db.WithContext(ctx).First(&m, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// ListByProject returns the measurements of one project ordered by id.
func (r *Measurements) ListByProject(ctx context.Context, projectID uint, skip, limit int) ([]models.Measurement, error) {
	if limit <= 0 {
		limit = 100
	}
	var measurements []models.Measurement
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("id").
		Offset(skip).Limit(limit).
		Find(&measurements).Error
	if err != nil {
		return nil, err
	}
	return measurements, nil
}

func (r *Measurements) Delete(ctx context.Context, m *models.Measurement) error {
	return r.db.WithContext(ctx).Delete(m).Error
}
