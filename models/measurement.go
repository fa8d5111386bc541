package models

import (
	"time"

	"gorm.io/datatypes"
)

// MeasurementType is the kind of geometric measurement taken.
type MeasurementType string

const (
	MeasureDistance         MeasurementType = "distance"
	MeasureArea             MeasurementType = "area"
	MeasurePerimeter        MeasurementType = "perimeter"
	MeasureVolume           MeasurementType = "volume"
	MeasureElevationProfile MeasurementType = "elevation_profile"
)

func (t MeasurementType) Valid() bool {
	switch t {
	case MeasureDistance, MeasureArea, MeasurePerimeter, MeasureVolume, MeasureElevationProfile:
		return true
	}
	return false
}

// MeasurementUnit is the unit the measurement value is expressed in. The
// unit is stored as supplied; it is not cross-checked against the
// measurement type.
type MeasurementUnit string

const (
	UnitMeters       MeasurementUnit = "meters"
	UnitKilometers   MeasurementUnit = "kilometers"
	UnitSquareMeters MeasurementUnit = "square_meters"
	UnitHectares     MeasurementUnit = "hectares"
	UnitCubicMeters  MeasurementUnit = "cubic_meters"
)

func (u MeasurementUnit) Valid() bool {
	switch u {
	case UnitMeters, UnitKilometers, UnitSquareMeters, UnitHectares, UnitCubicMeters:
		return true
	}
	return false
}

// Measurement is a geometric measurement recorded against a project.
// Geometry holds the shape as WKT in the SRID coordinate system.
type Measurement struct {
	ID              uint            `gorm:"primarykey" json:"id"`
	ProjectID       uint            `gorm:"not null;index" json:"project_id"`
	Name            *string         `gorm:"size:255" json:"name"`
	MeasurementType MeasurementType `gorm:"size:32;not null" json:"measurement_type"`
	Geometry        string          `gorm:"type:text" json:"geometry"`
	SRID            int             `gorm:"not null;default:4326" json:"srid"`
	Value           float64         `gorm:"not null" json:"value"`
	Unit            MeasurementUnit `gorm:"size:32;not null" json:"unit"`
	Data            datatypes.JSON  `json:"data"`
	Notes           *string         `gorm:"size:512" json:"notes"`
	CreatedBy       *uint           `json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
}
