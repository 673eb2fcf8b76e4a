// Package address assembles mailing address strings from Overture address
// fields and deduplicates the result.
package address

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Coord is a nullable coordinate.
type Coord struct {
	Value float64
	Valid bool
}

// Some returns a valid coordinate.
func Some(v float64) Coord { return Coord{Value: v, Valid: true} }

func (c Coord) String() string {
	if !c.Valid {
		return ""
	}
	return strconv.FormatFloat(c.Value, 'f', -1, 64)
}

// MarshalJSON encodes an invalid coordinate as null.
func (c Coord) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(c.Value, 'g', -1, 64)), nil
}

// MarshalYAML encodes an invalid coordinate as null.
func (c Coord) MarshalYAML() (any, error) {
	if !c.Valid {
		return nil, nil
	}
	return c.Value, nil
}

// Row holds the fields an address is assembled from. Null source values are
// empty strings.
type Row struct {
	ID        string
	Number    string
	Street    string
	City      string
	State     string
	Postcode  string
	Country   string
	Latitude  Coord
	Longitude Coord
}

// Address is one output record. ID is carried through from the source row
// and does not take part in deduplication.
type Address struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	FullAddress string `json:"full_address" yaml:"full_address"`
	Country     string `json:"country" yaml:"country"`
	Latitude    Coord  `json:"lat" yaml:"lat"`
	Longitude   Coord  `json:"lon" yaml:"lon"`
}

type key struct {
	full, country string
	lat, lon      Coord
}

func (a Address) key() key {
	return key{full: a.FullAddress, country: a.Country, lat: a.Latitude, lon: a.Longitude}
}

var (
	whitespace = regexp.MustCompile(`[\s\p{Zs}]+`)
	emptyParts = regexp.MustCompile(`,(\s+,)+`)
)

func normalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// Format assembles the mailing address of r:
//
//	"<number> <street>, <city>, <state> <postcode>, <country>"
//
// Whitespace runs inside the street and postal parts collapse to a single
// space, empty components leave no doubled commas behind, and leading or
// trailing commas and whitespace are stripped.
func Format(r Row) Address {
	street := normalizeWhitespace(r.Number + " " + r.Street)
	postal := normalizeWhitespace(r.State + " " + r.Postcode)

	full := strings.Join([]string{street, r.City, postal, r.Country}, ", ")
	full = emptyParts.ReplaceAllString(full, ",")
	full = strings.TrimFunc(full, func(c rune) bool {
		return c == ',' || unicode.IsSpace(c)
	})

	return Address{
		ID:          r.ID,
		FullAddress: full,
		Country:     r.Country,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
	}
}

// FormatAll formats every row, keeping order.
func FormatAll(rows []Row) []Address {
	out := make([]Address, len(rows))
	for i, r := range rows {
		out[i] = Format(r)
	}
	return out
}

// Dedup drops addresses equal in full address, country, latitude and
// longitude. When several collide the last one wins, and the survivors keep
// the relative order of their positions in in.
func Dedup(in []Address) []Address {
	last := make(map[key]int, len(in))
	for i, a := range in {
		last[a.key()] = i
	}
	out := make([]Address, 0, len(last))
	for i, a := range in {
		if last[a.key()] == i {
			out = append(out, a)
		}
	}
	return out
}
