package geometry

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Output column names.
const (
	Longitude = "longitude"
	Latitude  = "latitude"
)

// CRSKey is the schema metadata key recording the coordinate system of the
// decoded columns.
const CRSKey = "crs"

type binaryValues interface {
	arrow.Array
	Value(i int) []byte
}

// DecodeColumn decodes every row of a binary WKB column. A row that fails
// leaves its error in the row's Result; the other rows are unaffected.
func DecodeColumn(arr arrow.Array) ([]Result, error) {
	col, ok := arr.(binaryValues)
	if !ok {
		return nil, eris.Errorf("geometry: column of type %s is not binary", arr.DataType())
	}
	out := make([]Result, col.Len())
	for i := range out {
		if col.IsNull(i) {
			out[i].Err = &DecodeError{Row: i, Err: ErrEmpty}
			continue
		}
		pt, err := Decode(col.Value(i))
		if err != nil {
			out[i].Err = &DecodeError{Row: i, Err: err}
			continue
		}
		out[i].Point = pt
	}
	return out, nil
}

// Coordinates builds the row aligned longitude (x) and latitude (y) columns
// for results. Failed rows are null in both.
func Coordinates(results []Result, mem memory.Allocator) (lon, lat *array.Float64) {
	lb := array.NewFloat64Builder(mem)
	defer lb.Release()
	yb := array.NewFloat64Builder(mem)
	defer yb.Release()
	lb.Reserve(len(results))
	yb.Reserve(len(results))

	for _, r := range results {
		if !r.OK() {
			lb.AppendNull()
			yb.AppendNull()
			continue
		}
		lb.Append(r.Lon())
		yb.Append(r.Lat())
	}
	return lb.NewFloat64Array(), yb.NewFloat64Array()
}

// WithCoordinates decodes column of rec and returns a record with longitude
// and latitude appended. The geometry column is left in place; see
// DropGeometry. The caller owns the returned record.
func WithCoordinates(rec arrow.Record, column string, mem memory.Allocator) (arrow.Record, error) {
	idx := rec.Schema().FieldIndices(column)
	if len(idx) == 0 {
		return nil, eris.Errorf("geometry: column %q not found", column)
	}
	results, err := DecodeColumn(rec.Column(idx[0]))
	if err != nil {
		return nil, err
	}

	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
			zap.L().Debug("geometry: decode failed", zap.Error(r.Err))
		}
	}
	if failed > 0 {
		zap.L().Info("geometry: rows without coordinates",
			zap.Int("failed", failed), zap.Int("rows", len(results)))
	}

	lon, lat := Coordinates(results, mem)
	defer lon.Release()
	defer lat.Release()

	fields := append(append([]arrow.Field{}, rec.Schema().Fields()...),
		arrow.Field{Name: Longitude, Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		arrow.Field{Name: Latitude, Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	)
	cols := append(append([]arrow.Array{}, rec.Columns()...), lon, lat)
	sc := arrow.NewSchema(fields, withCRS(rec.Schema().Metadata()))
	return array.NewRecord(sc, cols, rec.NumRows()), nil
}

func withCRS(md arrow.Metadata) *arrow.Metadata {
	keys := append([]string{}, md.Keys()...)
	vals := append([]string{}, md.Values()...)
	if i := md.FindKey(CRSKey); i >= 0 {
		vals[i] = CRS
	} else {
		keys = append(keys, CRSKey)
		vals = append(vals, CRS)
	}
	out := arrow.NewMetadata(keys, vals)
	return &out
}

// DropGeometry returns rec without column. It is a pure projection, kept
// apart from decoding so the binary geometry never reaches the address
// records. The caller owns the returned record.
func DropGeometry(rec arrow.Record, column string) arrow.Record {
	sc := rec.Schema()
	fields := make([]arrow.Field, 0, sc.NumFields())
	cols := make([]arrow.Array, 0, sc.NumFields())
	for i, f := range sc.Fields() {
		if f.Name == column {
			continue
		}
		fields = append(fields, f)
		cols = append(cols, rec.Column(i))
	}
	md := sc.Metadata()
	return array.NewRecord(arrow.NewSchema(fields, &md), cols, rec.NumRows())
}
