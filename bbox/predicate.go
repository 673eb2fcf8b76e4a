package bbox

import (
	"fmt"
	"strings"
)

// Attr names one of the four per-record bounding box attributes.
type Attr int

const (
	XMin Attr = iota
	XMax
	YMin
	YMax
)

// Attrs lists the record attributes in the order the predicate uses them.
var Attrs = [...]Attr{XMin, XMax, YMin, YMax}

func (a Attr) String() string {
	switch a {
	case XMin:
		return "xmin"
	case XMax:
		return "xmax"
	case YMin:
		return "ymin"
	case YMax:
		return "ymax"
	}
	return fmt.Sprintf("Attr(%d)", int(a))
}

func (a Attr) of(b Box) float64 {
	switch a {
	case XMin:
		return b.XMin
	case XMax:
		return b.XMax
	case YMin:
		return b.YMin
	default:
		return b.YMax
	}
}

// Op is a strict comparison.
type Op int

const (
	Less Op = iota
	Greater
)

func (o Op) String() string {
	if o == Less {
		return "<"
	}
	return ">"
}

func (o Op) eval(l, r float64) bool {
	if o == Less {
		return l < r
	}
	return l > r
}

// Term compares one record attribute against a constant.
type Term struct {
	Attr  Attr
	Op    Op
	Value float64
}

func (t Term) String() string {
	return fmt.Sprintf("%s %s %g", t.Attr, t.Op, t.Value)
}

// Predicate is a conjunction of terms over a record bounding box.
type Predicate struct {
	Terms []Term
}

// Overlaps builds the rectangle overlap test against b:
//
//	xmin < b.XMax AND xmax > b.XMin AND ymin < b.YMax AND ymax > b.YMin
//
// Both directions are strict, so a record box that only touches an edge of b
// does not match. The box is not validated: with an inverted b only record
// boxes spanning the whole gap between b's swapped edges match.
func Overlaps(b Box) Predicate {
	return Predicate{Terms: []Term{
		{Attr: XMin, Op: Less, Value: b.XMax},
		{Attr: XMax, Op: Greater, Value: b.XMin},
		{Attr: YMin, Op: Less, Value: b.YMax},
		{Attr: YMax, Op: Greater, Value: b.YMin},
	}}
}

// Match evaluates p against a record box.
func (p Predicate) Match(rec Box) bool {
	for _, t := range p.Terms {
		if !t.Op.eval(t.Attr.of(rec), t.Value) {
			return false
		}
	}
	return true
}

// Stats returns the min and max of an attribute over a group of records, and
// false when they are unknown.
type Stats func(a Attr) (min, max float64, ok bool)

// MayMatch reports whether any record of a group described by stats could
// satisfy p. Terms on attributes without statistics are assumed to match, so
// a false result is always safe to prune.
func (p Predicate) MayMatch(stats Stats) bool {
	for _, t := range p.Terms {
		lo, hi, ok := stats(t.Attr)
		if !ok {
			continue
		}
		switch t.Op {
		case Less:
			if !(lo < t.Value) {
				return false
			}
		case Greater:
			if !(hi > t.Value) {
				return false
			}
		}
	}
	return true
}

func (p Predicate) String() string {
	parts := make([]string, len(p.Terms))
	for i, t := range p.Terms {
		parts[i] = "(" + t.String() + ")"
	}
	return strings.Join(parts, " AND ")
}
