// Package geometry turns WKB point geometries into longitude and latitude
// columns.
package geometry

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/rotisserie/eris"
)

// CRS is the only coordinate reference system handled. Coordinates are never
// transformed.
const CRS = "EPSG:4326"

// ErrEmpty is wrapped by DecodeError when a row carries no geometry.
var ErrEmpty = eris.New("geometry: empty geometry")

// DecodeError is the per-row failure to decode a geometry.
type DecodeError struct {
	Row int
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("geometry: row %d: %v", e.Row, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode parses a WKB point. Absent input, empty points (NaN coordinates),
// other geometry types and malformed bytes are errors.
func Decode(b []byte) (orb.Point, error) {
	if len(b) == 0 {
		return orb.Point{}, ErrEmpty
	}
	g, err := wkb.Unmarshal(b)
	if err != nil {
		return orb.Point{}, eris.Wrap(err, "geometry: unmarshal wkb")
	}
	pt, ok := g.(orb.Point)
	if !ok {
		return orb.Point{}, eris.Errorf("geometry: expected point, got %s", g.GeoJSONType())
	}
	if math.IsNaN(pt.X()) || math.IsNaN(pt.Y()) {
		return orb.Point{}, ErrEmpty
	}
	return pt, nil
}

// Result is the outcome of decoding one row.
type Result struct {
	Point orb.Point
	Err   error
}

// OK reports whether the row decoded to a point.
func (r Result) OK() bool { return r.Err == nil }

// Lon is the x coordinate.
func (r Result) Lon() float64 { return r.Point.X() }

// Lat is the y coordinate.
func (r Result) Lat() float64 { return r.Point.Y() }
