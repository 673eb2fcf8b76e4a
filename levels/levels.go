// Package levels unpacks the ordered admin hierarchy of an address
// (state, locality, ...) into one named column per position.
package levels

import (
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/rotisserie/eris"
)

// Depth is the number of hierarchy positions unpacked. Entries past it are
// ignored.
const Depth = 5

// Column is the default hierarchy column of the address dataset.
const Column = "address_levels"

// ValueField is the struct field read from every hierarchy entry.
const ValueField = "value"

// Name returns the column name of the 1-based position n.
func Name(n int) string {
	return "admin_level_" + strconv.Itoa(n)
}

type stringValues interface {
	arrow.Array
	Value(i int) string
}

// hierarchy gives row access to a list<struct<..., value: string>> column.
type hierarchy struct {
	list    *array.List
	entries *array.Struct
	values  stringValues
}

func newHierarchy(arr arrow.Array) (*hierarchy, error) {
	list, ok := arr.(*array.List)
	if !ok {
		return nil, eris.Errorf("levels: expected list column, got %s", arr.DataType())
	}
	entries, ok := list.ListValues().(*array.Struct)
	if !ok {
		return nil, eris.Errorf("levels: expected list of struct, got %s", arr.DataType())
	}
	st := entries.DataType().(*arrow.StructType)
	idx, ok := st.FieldIdx(ValueField)
	if !ok {
		return nil, eris.Errorf("levels: entry struct has no %q field", ValueField)
	}
	values, ok := entries.Field(idx).(stringValues)
	if !ok {
		return nil, eris.Errorf("levels: %q field is %s, not a string", ValueField, st.Field(idx).Type)
	}
	return &hierarchy{list: list, entries: entries, values: values}, nil
}

// row returns the first Depth values of row i; a nil slot is a null entry or
// a null value.
// A null row returns nil.
func (h *hierarchy) row(i int) []*string {
	if h.list.IsNull(i) {
		return nil
	}
	start, end := h.list.ValueOffsets(i)
	n := min(int(end-start), Depth)
	out := make([]*string, n)
	for j := 0; j < n; j++ {
		k := int(start) + j
		if h.entries.IsNull(k) || h.values.IsNull(k) {
			continue
		}
		v := h.values.Value(k)
		out[j] = &v
	}
	return out
}

// Values returns the first Depth values of row i of a hierarchy column.
func Values(arr arrow.Array, i int) ([]*string, error) {
	h, err := newHierarchy(arr)
	if err != nil {
		return nil, err
	}
	return h.row(i), nil
}

// Unpack appends admin_level_1 through admin_level_5 to rec, read from the
// hierarchy column. Rows that are null, or shorter than Depth, get nulls in
// the missing positions. The hierarchy column itself is kept. The caller owns
// the returned record.
func Unpack(rec arrow.Record, column string, mem memory.Allocator) (arrow.Record, error) {
	idx := rec.Schema().FieldIndices(column)
	if len(idx) == 0 {
		return nil, eris.Errorf("levels: column %q not found", column)
	}
	h, err := newHierarchy(rec.Column(idx[0]))
	if err != nil {
		return nil, err
	}

	builders := make([]*array.StringBuilder, Depth)
	for i := range builders {
		builders[i] = array.NewStringBuilder(mem)
		defer builders[i].Release()
	}

	rows := int(rec.NumRows())
	for i := 0; i < rows; i++ {
		vals := h.row(i)
		for pos, b := range builders {
			if pos < len(vals) && vals[pos] != nil {
				b.Append(*vals[pos])
			} else {
				b.AppendNull()
			}
		}
	}

	fields := append([]arrow.Field{}, rec.Schema().Fields()...)
	cols := append([]arrow.Array{}, rec.Columns()...)
	added := make([]arrow.Array, Depth)
	for pos, b := range builders {
		added[pos] = b.NewArray()
		defer added[pos].Release()
		fields = append(fields, arrow.Field{Name: Name(pos + 1), Type: arrow.BinaryTypes.String, Nullable: true})
		cols = append(cols, added[pos])
	}

	md := rec.Schema().Metadata()
	return array.NewRecord(arrow.NewSchema(fields, &md), cols, rec.NumRows()), nil
}
