package bbox

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlaps_Boundaries(t *testing.T) {
	p := Overlaps(Box{XMin: 0, YMin: 0, XMax: 10, YMax: 10})

	tests := []struct {
		name string
		rec  Box
		want bool
	}{
		{"overlapping", Box{XMin: 5, YMin: 5, XMax: 15, YMax: 15}, true},
		{"touching edge x=10", Box{XMin: 10, YMin: 0, XMax: 20, YMax: 10}, false},
		{"disjoint", Box{XMin: 20, YMin: 20, XMax: 30, YMax: 30}, false},
		{"contained", Box{XMin: 2, YMin: 2, XMax: 3, YMax: 3}, true},
		{"containing", Box{XMin: -5, YMin: -5, XMax: 15, YMax: 15}, true},
		{"touching edge y=0", Box{XMin: 2, YMin: -4, XMax: 3, YMax: 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Match(tt.rec))
		})
	}
}

func TestOverlaps_Point(t *testing.T) {
	p := Overlaps(Box{XMin: -71.068, YMin: 42.353, XMax: -71.058, YMax: 42.363})
	pt := Box{XMin: -71.06, YMin: 42.36, XMax: -71.06, YMax: 42.36}
	assert.True(t, p.Match(pt))
}

func TestOverlaps_InvertedBox(t *testing.T) {
	inv := Box{XMin: 10, YMin: 0, XMax: 0, YMax: 10}
	assert.True(t, inv.Inverted())

	p := Overlaps(inv)
	for _, rec := range []Box{
		{XMin: 5, YMin: 5, XMax: 6, YMax: 6},
		{XMin: -100, YMin: -100, XMax: -50, YMax: -50},
		{XMin: 50, YMin: 5, XMax: 60, YMax: 6},
		{XMin: 1, YMin: 1, XMax: 1, YMax: 1},
	} {
		assert.False(t, p.Match(rec), rec.String())
	}
	// a record spanning the swapped x edges still matches
	assert.True(t, p.Match(Box{XMin: -1, YMin: -1, XMax: 11, YMax: 11}))
}

func TestPredicate_String(t *testing.T) {
	p := Overlaps(Box{XMin: 0, YMin: 1, XMax: 2, YMax: 3})
	assert.Equal(t, "(xmin < 2) AND (xmax > 0) AND (ymin < 3) AND (ymax > 1)", p.String())
}

func TestPredicate_MayMatch(t *testing.T) {
	p := Overlaps(Box{XMin: 0, YMin: 0, XMax: 10, YMax: 10})

	group := func(lo, hi Box) Stats {
		return func(a Attr) (float64, float64, bool) {
			return a.of(lo), a.of(hi), true
		}
	}

	// every record starts at or beyond x=10
	east := group(Box{XMin: 10, XMax: 11, YMin: 0, YMax: 1}, Box{XMin: 40, XMax: 41, YMin: 5, YMax: 6})
	assert.False(t, p.MayMatch(east))

	mixed := group(Box{XMin: -5, XMax: -4, YMin: 1, YMax: 2}, Box{XMin: 30, XMax: 31, YMin: 3, YMax: 4})
	assert.True(t, p.MayMatch(mixed))

	unknown := func(Attr) (float64, float64, bool) { return 0, 0, false }
	assert.True(t, p.MayMatch(unknown))
}

func TestParse(t *testing.T) {
	b, err := Parse("-71.068, 42.353,-71.058,42.363")
	require.NoError(t, err)
	assert.Equal(t, Box{XMin: -71.068, YMin: 42.353, XMax: -71.058, YMax: 42.363}, b)

	_, err = Parse("1,2,3")
	assert.Error(t, err)
	_, err = Parse("1,2,x,4")
	assert.Error(t, err)
}

func TestBoundRoundTrip(t *testing.T) {
	b := Box{XMin: -3.72, YMin: 40.41, XMax: -3.68, YMax: 40.43}
	bound := b.Bound()
	assert.Equal(t, orb.Point{-3.72, 40.41}, bound.Min)
	assert.Equal(t, b, FromBound(bound))
}
