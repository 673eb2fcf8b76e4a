package parquet

import (
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/rotisserie/eris"

	"b00m.in/addressiq/bbox"
)

// bboxValues reads one bbox attribute per row. ok is false for null rows.
type bboxValues func(i int) (v float64, ok bool)

// attrColumn resolves a dotted path, such as "bbox.xmin", to a float reader
// over rec. A null struct at any level makes the row null.
func attrColumn(rec arrow.Record, path string) (bboxValues, error) {
	segs := strings.Split(path, ".")
	idx := rec.Schema().FieldIndices(segs[0])
	if len(idx) == 0 {
		return nil, eris.Errorf("parquet: bbox column %q not in batch", segs[0])
	}
	arr := rec.Column(idx[0])
	parents := []arrow.Array{}
	for _, seg := range segs[1:] {
		st, ok := arr.(*array.Struct)
		if !ok {
			return nil, eris.Errorf("parquet: %q is not a struct in bbox path %q", seg, path)
		}
		i, ok := st.DataType().(*arrow.StructType).FieldIdx(seg)
		if !ok {
			return nil, eris.Errorf("parquet: no field %q in bbox path %q", seg, path)
		}
		parents = append(parents, st)
		arr = st.Field(i)
	}

	var value func(i int) float64
	switch a := arr.(type) {
	case *array.Float32:
		value = func(i int) float64 { return float64(a.Value(i)) }
	case *array.Float64:
		value = a.Value
	default:
		return nil, eris.Errorf("parquet: bbox path %q has type %s, want float", path, arr.DataType())
	}
	return func(i int) (float64, bool) {
		for _, p := range parents {
			if p.IsNull(i) {
				return 0, false
			}
		}
		if arr.IsNull(i) {
			return 0, false
		}
		return value(i), true
	}, nil
}

// matches evaluates pred on every row of rec.
func matches(rec arrow.Record, paths map[bbox.Attr]string, pred bbox.Predicate) ([]bool, error) {
	var cols [len(bbox.Attrs)]bboxValues
	for _, a := range bbox.Attrs {
		col, err := attrColumn(rec, paths[a])
		if err != nil {
			return nil, err
		}
		cols[a] = col
	}

	out := make([]bool, rec.NumRows())
	for i := range out {
		var box [len(bbox.Attrs)]float64
		ok := true
		for _, a := range bbox.Attrs {
			box[a], ok = cols[a](i)
			if !ok {
				break
			}
		}
		if !ok {
			continue
		}
		out[i] = pred.Match(bbox.Box{
			XMin: box[bbox.XMin], YMin: box[bbox.YMin],
			XMax: box[bbox.XMax], YMax: box[bbox.YMax],
		})
	}
	return out, nil
}

// project keeps the named columns of rec, in the order given. An empty list
// keeps every column. The caller releases the result.
func project(rec arrow.Record, columns []string) (arrow.Record, error) {
	if len(columns) == 0 {
		rec.Retain()
		return rec, nil
	}
	fields := make([]arrow.Field, 0, len(columns))
	cols := make([]arrow.Array, 0, len(columns))
	for _, name := range columns {
		idx := rec.Schema().FieldIndices(name)
		if len(idx) == 0 {
			return nil, eris.Errorf("parquet: column %q not in batch", name)
		}
		fields = append(fields, rec.Schema().Field(idx[0]))
		cols = append(cols, rec.Column(idx[0]))
	}
	md := rec.Schema().Metadata()
	return array.NewRecord(arrow.NewSchema(fields, &md), cols, rec.NumRows()), nil
}

// emitMatches yields the runs of consecutive matching rows of rec as
// zero-copy slices. It reports whether the caller should keep reading.
func emitMatches(rec arrow.Record, paths map[bbox.Attr]string, pred bbox.Predicate, columns []string,
	yield func(arrow.Record, error) bool) bool {
	mask, err := matches(rec, paths, pred)
	if err != nil {
		return yield(nil, err)
	}
	out, err := project(rec, columns)
	if err != nil {
		return yield(nil, err)
	}
	defer out.Release()

	for start := 0; start < len(mask); {
		if !mask[start] {
			start++
			continue
		}
		end := start
		for end < len(mask) && mask[end] {
			end++
		}
		run := out.NewSlice(int64(start), int64(end))
		more := yield(run, nil)
		run.Release()
		if !more {
			return false
		}
		start = end
	}
	return true
}
