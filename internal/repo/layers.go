package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/geovisor/geovisor/models"
)

type Layers struct {
	db *gorm.DB
}

func NewLayers(db *gorm.DB) *Layers {
	return &Layers{db: db}
}

func (r *Layers) Create(ctx context.Context, l *models.Layer) error {
	return r.db.WithContext(ctx).Create(l).Error
}

// ByID returns the layer or nil when no such id exists.
func (r *Layers) ByID(ctx context.Context, id uint) (*models.Layer, error) {
	var l models.Layer
	err := r.db.WithContext(ctx).First(&l, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

// ListByProject returns the layers of one project ordered by id.
func (r *Layers) ListByProject(ctx context.Context, projectID uint, skip, limit int) ([]models.Layer, error) {
	if limit <= 0 {
		limit = 100
	}
	var layers []models.Layer
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("id").
		Offset(skip).Limit(limit).
		Find(&layers).Error
	if err != nil {
		return nil, err
	}
	return layers, nil
}

// AllByProject returns every layer of a project, unpaginated. Used when a
// project delete needs the full set of file paths to clean up.
func (r *Layers) AllByProject(ctx context.Context, projectID uint) ([]models.Layer, error) {
	var layers []models.Layer
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Find(&layers).Error
	if err != nil {
		return nil, err
	}
	return layers, nil
}

func (r *Layers) Delete(ctx context.Context, l *models.Layer) error {
	return r.db.WithContext(ctx).Delete(l).Error
}
