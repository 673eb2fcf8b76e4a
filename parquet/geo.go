package parquet

import (
	"strings"

	"github.com/goccy/go-json"
	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"

	"b00m.in/addressiq/bbox"
)

// GeoKey is the file metadata key holding GeoParquet metadata.
const GeoKey = "geo"

// Geo is the GeoParquet file metadata.
type Geo struct {
	Version       string               `json:"version"`
	PrimaryColumn string               `json:"primary_column"`
	Columns       map[string]GeoColumn `json:"columns"`
}

// GeoColumn describes one geometry column.
type GeoColumn struct {
	Encoding      string    `json:"encoding"`
	GeometryTypes []string  `json:"geometry_types"`
	Bbox          []float64 `json:"bbox"`
	Covering      *Covering `json:"covering,omitempty"`
}

// Covering names the per-row bbox columns of a geometry column.
type Covering struct {
	Bbox struct {
		Xmin []string `json:"xmin"`
		Ymin []string `json:"ymin"`
		Xmax []string `json:"xmax"`
		Ymax []string `json:"ymax"`
	} `json:"bbox"`
}

// ParseGeo decodes the JSON value of the geo metadata key.
func ParseGeo(raw string) (*Geo, error) {
	var g Geo
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		return nil, eris.Wrap(err, "parquet: decode geo metadata")
	}
	return &g, nil
}

// Primary returns the primary geometry column.
func (g *Geo) Primary() (GeoColumn, bool) {
	if g == nil {
		return GeoColumn{}, false
	}
	c, ok := g.Columns[g.PrimaryColumn]
	return c, ok
}

// Bound returns the extent of the column, if declared.
func (c GeoColumn) Bound() (orb.Bound, bool) {
	if len(c.Bbox) != 4 {
		return orb.Bound{}, false
	}
	fs := c.Bbox
	return orb.Bound{Min: orb.Point{fs[0], fs[1]}, Max: orb.Point{fs[2], fs[3]}}, true
}

// CoveringPaths returns the dotted column path of each bbox attribute, if
// the column declares a complete covering.
func (c GeoColumn) CoveringPaths() (map[bbox.Attr]string, bool) {
	if c.Covering == nil {
		return nil, false
	}
	cb := c.Covering.Bbox
	paths := map[bbox.Attr]string{
		bbox.XMin: strings.Join(cb.Xmin, "."),
		bbox.XMax: strings.Join(cb.Xmax, "."),
		bbox.YMin: strings.Join(cb.Ymin, "."),
		bbox.YMax: strings.Join(cb.Ymax, "."),
	}
	for _, p := range paths {
		if p == "" {
			return nil, false
		}
	}
	return paths, true
}

// defaultPaths is the Overture layout: one struct column with the four
// attributes as fields.
func defaultPaths(column string) map[bbox.Attr]string {
	paths := make(map[bbox.Attr]string, len(bbox.Attrs))
	for _, a := range bbox.Attrs {
		paths[a] = column + "." + a.String()
	}
	return paths
}

// boundStats exposes a file extent as statistics for every bbox attribute.
// Each record's xmin and xmax lie within the extent's x range, and likewise
// for y.
func boundStats(b orb.Bound) bbox.Stats {
	return func(a bbox.Attr) (float64, float64, bool) {
		switch a {
		case bbox.XMin, bbox.XMax:
			return b.Min.X(), b.Max.X(), true
		default:
			return b.Min.Y(), b.Max.Y(), true
		}
	}
}
