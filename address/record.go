package address

import (
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/rotisserie/eris"
)

// Source column names read by FromRecord.
const (
	ColID        = "id"
	ColNumber    = "number"
	ColStreet    = "street"
	ColPostcode  = "postcode"
	ColCountry   = "country"
	ColState     = "admin_level_1"
	ColCity      = "admin_level_2"
	ColLongitude = "longitude"
	ColLatitude  = "latitude"
)

type stringValues interface {
	arrow.Array
	Value(i int) string
}

func stringColumn(rec arrow.Record, name string, required bool) (func(int) string, error) {
	idx := rec.Schema().FieldIndices(name)
	if len(idx) == 0 {
		if required {
			return nil, eris.Errorf("address: column %q not found", name)
		}
		return func(int) string { return "" }, nil
	}
	col, ok := rec.Column(idx[0]).(stringValues)
	if !ok {
		return nil, eris.Errorf("address: column %q is %s, not a string", name, rec.Column(idx[0]).DataType())
	}
	return func(i int) string {
		if col.IsNull(i) {
			return ""
		}
		return strings.Clone(col.Value(i))
	}, nil
}

func coordColumn(rec arrow.Record, name string) (func(int) Coord, error) {
	idx := rec.Schema().FieldIndices(name)
	if len(idx) == 0 {
		return nil, eris.Errorf("address: column %q not found", name)
	}
	col, ok := rec.Column(idx[0]).(*array.Float64)
	if !ok {
		return nil, eris.Errorf("address: column %q is %s, not float64", name, rec.Column(idx[0]).DataType())
	}
	return func(i int) Coord {
		if col.IsNull(i) {
			return Coord{}
		}
		return Some(col.Value(i))
	}, nil
}

// FromRecord reads one Row per record row. State and city come from the
// first two admin levels; coordinates from the decoded longitude and
// latitude columns. The id column is optional.
func FromRecord(rec arrow.Record) ([]Row, error) {
	id, err := stringColumn(rec, ColID, false)
	if err != nil {
		return nil, err
	}
	strs := map[string]func(int) string{}
	for _, name := range []string{ColNumber, ColStreet, ColPostcode, ColCountry, ColState, ColCity} {
		get, err := stringColumn(rec, name, true)
		if err != nil {
			return nil, err
		}
		strs[name] = get
	}
	lon, err := coordColumn(rec, ColLongitude)
	if err != nil {
		return nil, err
	}
	lat, err := coordColumn(rec, ColLatitude)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, rec.NumRows())
	for i := range rows {
		rows[i] = Row{
			ID:        id(i),
			Number:    strs[ColNumber](i),
			Street:    strs[ColStreet](i),
			City:      strs[ColCity](i),
			State:     strs[ColState](i),
			Postcode:  strs[ColPostcode](i),
			Country:   strs[ColCountry](i),
			Latitude:  lat(i),
			Longitude: lon(i),
		}
	}
	return rows, nil
}
