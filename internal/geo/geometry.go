// Package geo parses GeoJSON geometries and converts them to Well-Known
// Text for storage. Coordinates are longitude/latitude in EPSG:4326.
package geo

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
)

// SRID is the spatial reference of all stored geometries (WGS84 lon/lat).
const SRID = 4326

// ParseGeoJSON decodes and validates a GeoJSON geometry. It fails on
// malformed JSON, unsupported geometry types, out-of-range coordinates and
// non-closed polygon rings.
func ParseGeoJSON(raw json.RawMessage) (orb.Geometry, error) {
	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil, fmt.Errorf("decode geometry: %w", err)
	}
	geom := g.Geometry()
	if err := Validate(geom); err != nil {
		return nil, err
	}
	return geom, nil
}

// ToWKT returns the Well-Known Text representation of a geometry.
func ToWKT(g orb.Geometry) string {
	return wkt.MarshalString(g)
}

// Validate checks coordinate ranges and structural invariants of a
// geometry.
func Validate(g orb.Geometry) error {
	switch v := g.(type) {
	case orb.Point:
		return checkPoint(v)
	case orb.MultiPoint:
		for _, p := range v {
			if err := checkPoint(p); err != nil {
				return err
			}
		}
	case orb.LineString:
		return checkLineString(v)
	case orb.MultiLineString:
		for _, ls := range v {
			if err := checkLineString(ls); err != nil {
				return err
			}
		}
	case orb.Polygon:
		return checkPolygon(v)
	case orb.MultiPolygon:
		for _, p := range v {
			if err := checkPolygon(p); err != nil {
				return err
			}
		}
	case orb.Collection:
		if len(v) == 0 {
			return fmt.Errorf("empty geometry collection")
		}
		for _, m := range v {
			if err := Validate(m); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unsupported geometry type %q", g.GeoJSONType())
	}
	return nil
}

func checkPoint(p orb.Point) error {
	lon, lat := p[0], p[1]
	if math.IsNaN(lon) || math.IsInf(lon, 0) || math.IsNaN(lat) || math.IsInf(lat, 0) {
		return fmt.Errorf("non-finite coordinate")
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("longitude %v out of range", lon)
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %v out of range", lat)
	}
	return nil
}

func checkLineString(ls orb.LineString) error {
	if len(ls) < 2 {
		return fmt.Errorf("line string needs at least 2 points, got %d", len(ls))
	}
	for _, p := range ls {
		if err := checkPoint(p); err != nil {
			return err
		}
	}
	return nil
}

func checkPolygon(poly orb.Polygon) error {
	if len(poly) == 0 {
		return fmt.Errorf("polygon has no rings")
	}
	for _, ring := range poly {
		if len(ring) < 4 {
			return fmt.Errorf("polygon ring needs at least 4 points, got %d", len(ring))
		}
		if !ring.Closed() {
			return fmt.Errorf("polygon ring is not closed")
		}
		for _, p := range ring {
			if err := checkPoint(p); err != nil {
				return err
			}
		}
	}
	return nil
}
