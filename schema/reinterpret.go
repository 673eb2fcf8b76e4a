package schema

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/rotisserie/eris"
)

// NormalizeArray returns arr with its map columns reinterpreted as
// list<struct<key, value>>. A map array shares the physical layout of a list
// of entry structs, so no values are copied: the validity bitmap, offsets and
// entry children are reused as they are and only the declared type changes.
// The key/value pairs of each row therefore keep their order. The caller owns
// the returned array.
func NormalizeArray(arr arrow.Array) (arrow.Array, error) {
	to, err := normalizeType("", arr.DataType())
	if err != nil {
		return nil, err
	}
	if arrow.TypeEqual(to, arr.DataType()) {
		arr.Retain()
		return arr, nil
	}
	data, err := reinterpret(arr.Data(), to)
	if err != nil {
		return nil, err
	}
	defer data.Release()
	return array.MakeFromData(data), nil
}

func reinterpret(d arrow.ArrayData, to arrow.DataType) (arrow.ArrayData, error) {
	switch t := to.(type) {
	case *arrow.ListType:
		if id := d.DataType().ID(); id != arrow.LIST && id != arrow.MAP {
			return nil, mismatch("", "cannot view %s as %s", d.DataType(), to)
		}
		child, err := reinterpret(d.Children()[0], t.Elem())
		if err != nil {
			return nil, err
		}
		defer child.Release()
		return array.NewData(t, d.Len(), d.Buffers(), []arrow.ArrayData{child}, d.NullN(), d.Offset()), nil
	case *arrow.StructType:
		src := d.Children()
		if d.DataType().ID() != arrow.STRUCT || len(src) != t.NumFields() {
			return nil, mismatch("", "cannot view %s as %s", d.DataType(), to)
		}
		children := make([]arrow.ArrayData, len(src))
		for i, f := range t.Fields() {
			c, err := reinterpret(src[i], f.Type)
			if err != nil {
				for _, done := range children[:i] {
					done.Release()
				}
				return nil, err
			}
			children[i] = c
		}
		defer func() {
			for _, c := range children {
				c.Release()
			}
		}()
		return array.NewData(t, d.Len(), d.Buffers(), children, d.NullN(), d.Offset()), nil
	default:
		d.Retain()
		return d, nil
	}
}

// NormalizeRecord normalizes every column of rec. The caller owns the
// returned record.
func NormalizeRecord(rec arrow.Record) (arrow.Record, error) {
	sc, err := NormalizeSchema(rec.Schema())
	if err != nil {
		return nil, err
	}
	cols := make([]arrow.Array, 0, rec.NumCols())
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()
	for i, col := range rec.Columns() {
		out, err := NormalizeArray(col)
		if err != nil {
			return nil, eris.Wrapf(err, "schema: normalize column %q", rec.ColumnName(i))
		}
		cols = append(cols, out)
	}
	return array.NewRecord(sc, cols, rec.NumRows()), nil
}

// NormalizeTable normalizes every chunk of every column of tbl. Chunk
// boundaries and row order are preserved. The caller owns the returned table.
func NormalizeTable(tbl arrow.Table) (arrow.Table, error) {
	sc, err := NormalizeSchema(tbl.Schema())
	if err != nil {
		return nil, err
	}
	cols := make([]arrow.Column, 0, tbl.NumCols())
	defer func() {
		for i := range cols {
			cols[i].Release()
		}
	}()
	for i := 0; i < int(tbl.NumCols()); i++ {
		field := sc.Field(i)
		src := tbl.Column(i).Data().Chunks()
		chunks := make([]arrow.Array, 0, len(src))
		for _, c := range src {
			out, err := NormalizeArray(c)
			if err != nil {
				releaseAll(chunks)
				return nil, eris.Wrapf(err, "schema: normalize column %q", field.Name)
			}
			chunks = append(chunks, out)
		}
		chunked := arrow.NewChunked(field.Type, chunks)
		releaseAll(chunks)
		cols = append(cols, *arrow.NewColumn(field, chunked))
		chunked.Release()
	}
	return array.NewTable(sc, cols, tbl.NumRows()), nil
}

func releaseAll(arrs []arrow.Array) {
	for _, a := range arrs {
		a.Release()
	}
}
