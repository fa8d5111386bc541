// Package handlers implements the HTTP/JSON API surface: authentication,
// user self-service, and project/layer/measurement CRUD.
package handlers

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/geovisor/geovisor/internal/config"
	"github.com/geovisor/geovisor/internal/repo"
	"github.com/geovisor/geovisor/internal/storage"
)

// API bundles the dependencies every handler needs.
type API struct {
	Users        *repo.Users
	Projects     *repo.Projects
	Layers       *repo.Layers
	Measurements *repo.Measurements
	Store        storage.Store
	Cfg          *config.Config
	Log          *logrus.Logger
}

func New(db *gorm.DB, store storage.Store, cfg *config.Config, log *logrus.Logger) *API {
	return &API{
		Users:        repo.NewUsers(db),
		Projects:     repo.NewProjects(db),
		Layers:       repo.NewLayers(db),
		Measurements: repo.NewMeasurements(db),
		Store:        store,
		Cfg:          cfg,
		Log:          log,
	}
}
