package models

import (
	"time"

	"gorm.io/datatypes"
)

// LayerType is the kind of geospatial data a layer holds.
type LayerType string

const (
	LayerVector     LayerType = "vector"
	LayerRaster     LayerType = "raster"
	LayerPointCloud LayerType = "point_cloud"
	LayerModel3D    LayerType = "model_3d"
)

func (t LayerType) Valid() bool {
	switch t {
	case LayerVector, LayerRaster, LayerPointCloud, LayerModel3D:
		return true
	}
	return false
}

// LayerFormat is the file format of the uploaded layer data.
type LayerFormat string

const (
	FormatKML       LayerFormat = "kml"
	FormatKMZ       LayerFormat = "kmz"
	FormatGeoJSON   LayerFormat = "geojson"
	FormatShapefile LayerFormat = "shapefile"
	FormatGeoTIFF   LayerFormat = "geotiff"
	FormatLAS       LayerFormat = "las"
	FormatLAZ       LayerFormat = "laz"
	FormatGLTF      LayerFormat = "gltf"
	FormatIFC       LayerFormat = "ifc"
)

func (f LayerFormat) Valid() bool {
	switch f {
	case FormatKML, FormatKMZ, FormatGeoJSON, FormatShapefile,
		FormatGeoTIFF, FormatLAS, FormatLAZ, FormatGLTF, FormatIFC:
		return true
	}
	return false
}

// Layer is an uploaded geospatial file belonging to a project. FilePath
// points at the stored file; FileSize is measured from what was actually
// written, not the declared upload size.
type Layer struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	ProjectID        uint           `gorm:"not null;index" json:"project_id"`
	Name             string         `gorm:"size:255;not null;index" json:"name"`
	Description      *string        `gorm:"type:text" json:"description"`
	LayerType        LayerType      `gorm:"size:32;not null" json:"layer_type"`
	Format           LayerFormat    `gorm:"size:32;not null" json:"format"`
	FilePath         string         `gorm:"size:512;not null" json:"file_path"`
	FileSize         int64          `json:"file_size"`
	OriginalFilename string         `gorm:"size:255" json:"original_filename"`
	ProcessedPath    *string        `gorm:"size:512" json:"processed_path"`
	ThumbnailPath    *string        `gorm:"size:512" json:"thumbnail_path"`
	BBox             datatypes.JSON `json:"bbox"`
	CRS              *string        `gorm:"size:50" json:"crs"`
	Metadata         datatypes.JSON `gorm:"column:layer_metadata" json:"layer_metadata"`
	Style            datatypes.JSON `json:"style"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}
