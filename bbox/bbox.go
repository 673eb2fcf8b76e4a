// Package bbox builds the rectangle overlap predicate used to push a bounding
// box filter down to a GeoParquet dataset.
package bbox

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
)

// Box is an axis aligned rectangle in degrees of longitude and latitude.
type Box struct {
	XMin, YMin, XMax, YMax float64
}

// Parse reads a box from "xmin,ymin,xmax,ymax".
func Parse(s string) (Box, error) {
	cs := strings.Split(s, ",")
	if len(cs) != 4 {
		return Box{}, eris.Errorf("bbox: found malformed bbox len %d", len(cs))
	}
	var fs [4]float64
	for i, c := range cs {
		f, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		if err != nil {
			return Box{}, eris.Wrapf(err, "bbox: parse coordinate %d", i)
		}
		fs[i] = f
	}
	return Box{XMin: fs[0], YMin: fs[1], XMax: fs[2], YMax: fs[3]}, nil
}

func (b Box) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.XMin, b.YMin, b.XMax, b.YMax)
}

// Bound returns b as an orb bound.
func (b Box) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b.XMin, b.YMin}, Max: orb.Point{b.XMax, b.YMax}}
}

// FromBound converts an orb bound.
func FromBound(bound orb.Bound) Box {
	return Box{XMin: bound.Min.X(), YMin: bound.Min.Y(), XMax: bound.Max.X(), YMax: bound.Max.Y()}
}

// Inverted reports whether the box has a min coordinate at or past its max.
func (b Box) Inverted() bool {
	return b.XMin >= b.XMax || b.YMin >= b.YMax
}
