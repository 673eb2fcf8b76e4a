package schema

import (
	"errors"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pair struct{ k, v string }

func buildTags(t *testing.T, mem memory.Allocator, rows [][]pair) *array.Map {
	t.Helper()
	b := array.NewMapBuilder(mem, arrow.BinaryTypes.String, arrow.BinaryTypes.String, false)
	defer b.Release()
	kb := b.KeyBuilder().(*array.StringBuilder)
	ib := b.ItemBuilder().(*array.StringBuilder)
	for _, row := range rows {
		if row == nil {
			b.AppendNull()
			continue
		}
		b.Append(true)
		for _, p := range row {
			kb.Append(p.k)
			ib.Append(p.v)
		}
	}
	return b.NewMapArray()
}

func TestFromArrow_RoundTrip(t *testing.T) {
	dt := arrow.StructOf(
		arrow.Field{Name: "value", Type: arrow.BinaryTypes.String, Nullable: true},
		arrow.Field{Name: "tags", Type: arrow.MapOf(arrow.BinaryTypes.String, arrow.PrimitiveTypes.Int64), Nullable: true},
		arrow.Field{Name: "levels", Type: arrow.ListOf(arrow.PrimitiveTypes.Float32), Nullable: false},
	)
	tree, err := FromArrow(dt)
	require.NoError(t, err)
	assert.Equal(t, 1, CountMaps(tree))

	back, err := ToArrow(tree)
	require.NoError(t, err)
	assert.True(t, arrow.TypeEqual(dt, back), "got %s", back)
}

func TestFromArrow_MapInsideUnsupportedContainer(t *testing.T) {
	dt := arrow.LargeListOf(arrow.MapOf(arrow.BinaryTypes.String, arrow.BinaryTypes.String))
	_, err := FromArrow(dt)
	var mm *SchemaMismatchError
	assert.True(t, errors.As(err, &mm))
}

func TestNormalizeSchema(t *testing.T) {
	md := arrow.NewMetadata([]string{"geo"}, []string{"{}"})
	sc := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "tags", Type: arrow.MapOf(arrow.BinaryTypes.String, arrow.BinaryTypes.String), Nullable: true},
	}, &md)

	got, err := NormalizeSchema(sc)
	require.NoError(t, err)
	assert.Equal(t, "id", got.Field(0).Name)
	assert.Equal(t, arrow.LIST, got.Field(1).Type.ID())
	entry := got.Field(1).Type.(*arrow.ListType).Elem().(*arrow.StructType)
	require.Equal(t, 2, entry.NumFields())
	assert.Equal(t, "key", entry.Field(0).Name)
	assert.Equal(t, "value", entry.Field(1).Name)

	md2 := got.Metadata()
	idx := md2.FindKey("geo")
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, "{}", md2.Values()[idx])
}

func TestNormalizeArray_KeepsPairs(t *testing.T) {
	mem := memory.NewGoAllocator()
	m := buildTags(t, mem, [][]pair{
		{{"b", "2"}, {"a", "1"}},
		nil,
		{},
		{{"only", "x"}},
	})
	defer m.Release()

	out, err := NormalizeArray(m)
	require.NoError(t, err)
	defer out.Release()

	list, ok := out.(*array.List)
	require.True(t, ok, "got %T", out)
	require.Equal(t, 4, list.Len())

	entries := list.ListValues().(*array.Struct)
	keys := entries.Field(0).(*array.String)
	vals := entries.Field(1).(*array.String)

	read := func(row int) []pair {
		start, end := list.ValueOffsets(row)
		var got []pair
		for j := start; j < end; j++ {
			got = append(got, pair{keys.Value(int(j)), vals.Value(int(j))})
		}
		return got
	}

	assert.Equal(t, []pair{{"b", "2"}, {"a", "1"}}, read(0))
	assert.True(t, list.IsNull(1))
	assert.Empty(t, read(2))
	assert.Equal(t, []pair{{"only", "x"}}, read(3))
}

func TestNormalizeArray_NoMapsReturnsSameArray(t *testing.T) {
	mem := memory.NewGoAllocator()
	b := array.NewFloat64Builder(mem)
	defer b.Release()
	b.AppendValues([]float64{1, 2}, nil)
	arr := b.NewArray()
	defer arr.Release()

	out, err := NormalizeArray(arr)
	require.NoError(t, err)
	defer out.Release()
	assert.Same(t, arr, out)
}

func TestNormalizeTable_SlicedChunks(t *testing.T) {
	mem := memory.NewGoAllocator()
	m := buildTags(t, mem, [][]pair{
		{{"k0", "v0"}},
		{{"k1", "v1"}, {"k1b", "v1b"}},
		{{"k2", "v2"}},
	})
	defer m.Release()

	sc := arrow.NewSchema([]arrow.Field{{Name: "tags", Type: m.DataType(), Nullable: true}}, nil)
	rec := array.NewRecord(sc, []arrow.Array{m}, int64(m.Len()))
	defer rec.Release()
	tail := rec.NewSlice(1, 3)
	defer tail.Release()

	tbl := array.NewTableFromRecords(sc, []arrow.Record{tail})
	defer tbl.Release()

	out, err := NormalizeTable(tbl)
	require.NoError(t, err)
	defer out.Release()

	require.EqualValues(t, 2, out.NumRows())
	chunks := out.Column(0).Data().Chunks()
	require.Len(t, chunks, 1)
	list := chunks[0].(*array.List)
	entries := list.ListValues().(*array.Struct)
	keys := entries.Field(0).(*array.String)

	start, end := list.ValueOffsets(0)
	assert.EqualValues(t, 2, end-start)
	assert.Equal(t, "k1", keys.Value(int(start)))
	start, _ = list.ValueOffsets(1)
	assert.Equal(t, "k2", keys.Value(int(start)))
}

func TestNormalizeRecord(t *testing.T) {
	mem := memory.NewGoAllocator()
	m := buildTags(t, mem, [][]pair{{{"x", "y"}}})
	defer m.Release()

	sc := arrow.NewSchema([]arrow.Field{{Name: "tags", Type: m.DataType(), Nullable: true}}, nil)
	rec := array.NewRecord(sc, []arrow.Array{m}, 1)
	defer rec.Release()

	out, err := NormalizeRecord(rec)
	require.NoError(t, err)
	defer out.Release()
	assert.Equal(t, arrow.LIST, out.Column(0).DataType().ID())
	assert.EqualValues(t, 1, out.NumRows())
}
