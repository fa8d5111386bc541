package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/geovisor/geovisor/models"
)

type Projects struct {
	db *gorm.DB
}

func NewProjects(db *gorm.DB) *Projects {
	return &Projects{db: db}
}

func (r *Projects) Create(ctx context.Context, p *models.Project) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// ByID returns the project or nil when no such id exists.
func (r *Projects) ByID(ctx context.Context, id uint) (*models.Project, error) {
	var p models.Project
	err := r.db.WithContext(ctx).First(&p, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// List returns projects ordered by id. A nil ownerID lists all projects
// (superuser view); otherwise only projects owned by that user.
func (r *Projects) List(ctx context.Context, ownerID *uint, skip, limit int) ([]models.Project, error) {
	if limit <= 0 {
		limit = 100
	}
	q := r.db.WithContext(ctx).Order("id")
	if ownerID != nil {
		q = q.Where("owner_id = ?", *ownerID)
	}
	var projects []models.Project
	if err := q.Offset(skip).Limit(limit).Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *Projects) Save(ctx context.Context, p *models.Project) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// Delete removes the project together with its members, layers and
// measurements in one transaction.
func (r *Projects) Delete(ctx context.Context, p *models.Project) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", p.ID).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", p.ID).Delete(&models.Layer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", p.ID).Delete(&models.Measurement{}).Error; err != nil {
			return err
		}
		return tx.Delete(p).Error
	})
}
