package wardmap

import (
	"fmt"
	"os"
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/xy"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Ward is one boundary entry loaded from the GeoJSON dataset.
type Ward struct {
	Number   string
	Name     string
	polygons []*geom.Polygon
}

// Mapper answers point-in-polygon lookups against the ward boundaries.
type Mapper struct {
	wards []Ward
}

var titleCaser = cases.Title(language.English)

// SplitWardName separates a raw feature name like "48 RAMOL HATHIJAN" into
// the ward number and a title-cased ward name.
func SplitWardName(raw string) (number, name string) {
	fields := strings.Fields(strings.TrimSpace(raw))
	if len(fields) == 0 {
		return "", ""
	}

	// Leading digits are the ward number when present.
	if strings.IndexFunc(fields[0], func(r rune) bool { return r < '0' || r > '9' }) == -1 {
		number = fields[0]
		fields = fields[1:]
	}

	name = titleCaser.String(strings.ToLower(strings.Join(fields, " ")))
	return number, name
}

// Load reads a GeoJSON FeatureCollection of ward boundaries. Features carry
// the ward label in a "name" property; (Multi)Polygon geometries are kept,
// everything else is skipped.
func Load(path string) (*Mapper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ward dataset: %w", err)
	}
	return Parse(data)
}

// Parse builds a Mapper from raw GeoJSON bytes.
func Parse(data []byte) (*Mapper, error) {
	var fc geojson.FeatureCollection
	if err := fc.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("decode ward geojson: %w", err)
	}

	m := &Mapper{}
	for _, feature := range fc.Features {
		rawName, _ := feature.Properties["name"].(string)
		number, name := SplitWardName(rawName)

		ward := Ward{Number: number, Name: name}
		switch g := feature.Geometry.(type) {
		case *geom.Polygon:
			ward.polygons = append(ward.polygons, g)
		case *geom.MultiPolygon:
			for i := 0; i < g.NumPolygons(); i++ {
				ward.polygons = append(ward.polygons, g.Polygon(i))
			}
		default:
			continue
		}

		if len(ward.polygons) > 0 {
			m.wards = append(m.wards, ward)
		}
	}

	if len(m.wards) == 0 {
		return nil, fmt.Errorf("ward geojson contains no usable polygons")
	}
	return m, nil
}

// Count returns the number of loaded wards.
func (m *Mapper) Count() int {
	return len(m.wards)
}

// Locate maps a coordinate to its ward. GeoJSON orders coordinates lng, lat.
func (m *Mapper) Locate(lat, lng float64) (number, name string, ok bool) {
	point := geom.Coord{lng, lat}

	for _, ward := range m.wards {
		for _, polygon := range ward.polygons {
			if polygonContains(polygon, point) {
				return ward.Number, ward.Name, true
			}
		}
	}
	return "", "", false
}

// polygonContains tests the outer ring, then rejects points inside holes.
func polygonContains(polygon *geom.Polygon, point geom.Coord) bool {
	if polygon.NumLinearRings() == 0 {
		return false
	}

	if !xy.IsPointInRing(polygon.Layout(), point, polygon.LinearRing(0).FlatCoords()) {
		return false
	}
	for i := 1; i < polygon.NumLinearRings(); i++ {
		if xy.IsPointInRing(polygon.Layout(), point, polygon.LinearRing(i).FlatCoords()) {
			return false
		}
	}
	return true
}
