package parquet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	pq "github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"b00m.in/addressiq/bbox"
	"b00m.in/addressiq/schema"
)

var boston = bbox.Box{XMin: -71.068, YMin: 42.353, XMax: -71.058, YMax: 42.363}

type row struct {
	id   string
	x, y float32
}

var bboxType = arrow.StructOf(
	arrow.Field{Name: "xmin", Type: arrow.PrimitiveTypes.Float32},
	arrow.Field{Name: "xmax", Type: arrow.PrimitiveTypes.Float32},
	arrow.Field{Name: "ymin", Type: arrow.PrimitiveTypes.Float32},
	arrow.Field{Name: "ymax", Type: arrow.PrimitiveTypes.Float32},
)

// writeFixture writes rows as point boxes, two rows per row group.
func writeFixture(t *testing.T, path string, rows []row, geo string) {
	t.Helper()
	mem := memory.NewGoAllocator()

	var md *arrow.Metadata
	if geo != "" {
		m := arrow.NewMetadata([]string{GeoKey}, []string{geo})
		md = &m
	}
	sc := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "bbox", Type: bboxType, Nullable: true},
	}, md)

	b := array.NewRecordBuilder(mem, sc)
	defer b.Release()
	ids := b.Field(0).(*array.StringBuilder)
	boxes := b.Field(1).(*array.StructBuilder)
	for _, r := range rows {
		ids.Append(r.id)
		boxes.Append(true)
		for i, v := range []float32{r.x, r.x, r.y, r.y} {
			boxes.FieldBuilder(i).(*array.Float32Builder).Append(v)
		}
	}
	rec := b.NewRecord()
	defer rec.Release()
	tbl := array.NewTableFromRecords(sc, []arrow.Record{rec})
	defer tbl.Release()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	props := pq.NewWriterProperties(pq.WithAllocator(mem))
	require.NoError(t, pqarrow.WriteTable(tbl, f, 2, props, pqarrow.DefaultWriterProps()))
}

var fixtureRows = []row{
	{"a", -71.060, 42.360},
	{"b", -71.062, 42.355},
	{"c", 0, 0},
	{"d", 1, 1},
	{"e", -71.059, 42.362},
	{"f", -72, 42.360},
}

func collect(t *testing.T, ds *Dataset, pred bbox.Predicate, columns []string) ([]string, []*arrow.Schema) {
	t.Helper()
	var ids []string
	var schemas []*arrow.Schema
	for rec, err := range ds.Read(context.Background(), pred, columns) {
		require.NoError(t, err)
		schemas = append(schemas, rec.Schema())
		col := rec.Column(rec.Schema().FieldIndices("id")[0]).(*array.String)
		for i := 0; i < col.Len(); i++ {
			ids = append(ids, col.Value(i))
		}
	}
	return ids, schemas
}

func TestDataset_ReadFiltersRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "part-0.parquet")
	writeFixture(t, path, fixtureRows, "")

	ds, err := Open(context.Background(), LocalSource{Path: path})
	require.NoError(t, err)
	defer ds.Close()

	ids, _ := collect(t, ds, bbox.Overlaps(boston), nil)
	assert.Equal(t, []string{"a", "b", "e"}, ids)
}

func TestDataset_PrunesRowGroups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "part-0.parquet")
	writeFixture(t, path, fixtureRows, "")

	ds, err := Open(context.Background(), LocalSource{Path: path})
	require.NoError(t, err)
	defer ds.Close()

	plan := ds.Plan(boston, bbox.Overlaps(boston))
	require.Len(t, plan, 1)
	assert.Equal(t, 3, plan[0].RowGroups)
	assert.Equal(t, []int{0, 2}, plan[0].Kept)
	assert.Equal(t, int64(6), plan[0].Rows)
	assert.Equal(t, int64(4), plan[0].KeptRows)
	assert.False(t, plan[0].Skipped)
}

func TestDataset_ColumnSubset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "part-0.parquet")
	writeFixture(t, path, fixtureRows, "")

	ds, err := Open(context.Background(), LocalSource{Path: path})
	require.NoError(t, err)
	defer ds.Close()

	ids, schemas := collect(t, ds, bbox.Overlaps(boston), []string{"id"})
	assert.Equal(t, []string{"a", "b", "e"}, ids)
	for _, sc := range schemas {
		require.Equal(t, 1, sc.NumFields())
		assert.Equal(t, "id", sc.Field(0).Name)
	}
}

func TestDataset_UnknownColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "part-0.parquet")
	writeFixture(t, path, fixtureRows, "")

	ds, err := Open(context.Background(), LocalSource{Path: path})
	require.NoError(t, err)
	defer ds.Close()

	var got error
	for _, err := range ds.Read(context.Background(), bbox.Overlaps(boston), []string{"nope"}) {
		got = err
	}
	assert.ErrorContains(t, got, `"nope"`)
}

func TestDataset_SkipsPartOutsideExtent(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, filepath.Join(dir, "part-0.parquet"), fixtureRows[:2], "")
	far := `{"version":"1.1.0","primary_column":"geometry","columns":{"geometry":` +
		`{"encoding":"WKB","geometry_types":["Point"],"bbox":[10,10,11,11]}}}`
	writeFixture(t, filepath.Join(dir, "part-1.parquet"), []row{{"z", -71.06, 42.36}}, far)

	ds, err := Open(context.Background(), LocalSource{Path: dir})
	require.NoError(t, err)
	defer ds.Close()
	require.Len(t, ds.Parts(), 2)

	plan := ds.Plan(boston, bbox.Overlaps(boston))
	assert.False(t, plan[0].Skipped)
	assert.True(t, plan[1].Skipped)
	assert.True(t, plan[1].HasBound)

	// The declared extent wins over the rows, so "z" is never read.
	ids, _ := collect(t, ds, bbox.Overlaps(boston), nil)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestDataset_CoveringPaths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "part-0.parquet")
	geo := `{"version":"1.1.0","primary_column":"geometry","columns":{"geometry":{"encoding":"WKB",` +
		`"covering":{"bbox":{"xmin":["bbox","xmin"],"ymin":["bbox","ymin"],"xmax":["bbox","xmax"],"ymax":["bbox","ymax"]}}}}}`
	writeFixture(t, path, fixtureRows, geo)

	ds, err := Open(context.Background(), LocalSource{Path: path}, WithBBoxColumn("ignored"))
	require.NoError(t, err)
	defer ds.Close()

	ids, _ := collect(t, ds, bbox.Overlaps(boston), nil)
	assert.Equal(t, []string{"a", "b", "e"}, ids)
}

func TestDataset_Describe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "part-0.parquet")
	writeFixture(t, path, fixtureRows, "")

	ds, err := Open(context.Background(), LocalSource{Path: path})
	require.NoError(t, err)
	defer ds.Close()

	var buf bytes.Buffer
	require.NoError(t, ds.Describe(&buf, DescribeOptions{RowGroups: true}))
	out := buf.String()
	assert.Contains(t, out, "Num Rows: 6")
	assert.Contains(t, out, "Number of RowGroups: 3")
	assert.Contains(t, out, "bbox.xmin")
}

func TestOpen_EmptyDirectory(t *testing.T) {
	_, err := Open(context.Background(), LocalSource{Path: t.TempDir()})
	assert.ErrorContains(t, err, "no parquet parts")
}

func TestOpen_PartSchemaDrift(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, filepath.Join(dir, "part-0.parquet"), fixtureRows[:2], "")

	mem := memory.NewGoAllocator()
	sc := arrow.NewSchema([]arrow.Field{{Name: "id", Type: arrow.PrimitiveTypes.Int64, Nullable: true}}, nil)
	b := array.NewRecordBuilder(mem, sc)
	defer b.Release()
	b.Field(0).(*array.Int64Builder).Append(7)
	rec := b.NewRecord()
	defer rec.Release()
	tbl := array.NewTableFromRecords(sc, []arrow.Record{rec})
	defer tbl.Release()
	f, err := os.Create(filepath.Join(dir, "part-1.parquet"))
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, pqarrow.WriteTable(tbl, f, 2, pq.NewWriterProperties(pq.WithAllocator(mem)), pqarrow.DefaultWriterProps()))

	_, err = Open(context.Background(), LocalSource{Path: dir})
	var mm *schema.SchemaMismatchError
	require.True(t, errors.As(err, &mm), "got %v", err)
	assert.Equal(t, "id", mm.Path)
	assert.ErrorContains(t, err, "part-1.parquet")
}

// memS3 serves objects from memory.
type memS3 struct {
	s3iface.S3API
	objects map[string][]byte
	gets    int
}

func (m *memS3) ListObjectsV2PagesWithContext(_ aws.Context, in *s3.ListObjectsV2Input,
	fn func(*s3.ListObjectsV2Output, bool) bool, _ ...request.Option) error {
	page := &s3.ListObjectsV2Output{}
	for key, body := range m.objects {
		if strings.HasPrefix(key, aws.StringValue(in.Prefix)) {
			page.Contents = append(page.Contents, &s3.Object{Key: aws.String(key), Size: aws.Int64(int64(len(body)))})
		}
	}
	fn(page, true)
	return nil
}

func (m *memS3) HeadObjectWithContext(_ aws.Context, in *s3.HeadObjectInput, _ ...request.Option) (*s3.HeadObjectOutput, error) {
	body, ok := m.objects[aws.StringValue(in.Key)]
	if !ok {
		return nil, fmt.Errorf("no such key %s", aws.StringValue(in.Key))
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(body)))}, nil
}

func (m *memS3) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	m.gets++
	body, ok := m.objects[aws.StringValue(in.Key)]
	if !ok {
		return nil, fmt.Errorf("no such key %s", aws.StringValue(in.Key))
	}
	var from, to int
	if _, err := fmt.Sscanf(aws.StringValue(in.Range), "bytes=%d-%d", &from, &to); err != nil {
		return nil, err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body[from : to+1]))}, nil
}

func TestOpener_S3(t *testing.T) {
	path := filepath.Join(t.TempDir(), "part-0.parquet")
	writeFixture(t, path, fixtureRows, "")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	client := &memS3{objects: map[string][]byte{
		"release/x/theme=addresses/type=address/part-0.parquet": raw,
		"release/x/theme=addresses/type=address/_SUCCESS":       nil,
	}}
	opener := Opener{S3: client}

	ds, err := opener.OpenDataset(context.Background(), "s3://bucket/release/x/theme=addresses/type=address/")
	require.NoError(t, err)
	defer ds.Close()

	require.Len(t, ds.Parts(), 1)
	ids, _ := collect(t, ds, bbox.Overlaps(boston), nil)
	assert.Equal(t, []string{"a", "b", "e"}, ids)
	assert.Positive(t, client.gets)
}

func TestOpener_S3WithoutClient(t *testing.T) {
	_, err := Opener{}.Open(context.Background(), "s3://bucket/prefix")
	assert.ErrorContains(t, err, "no s3 client")
}

func TestObjectReader_ReadAt(t *testing.T) {
	client := &memS3{objects: map[string][]byte{"k": []byte("0123456789")}}
	obj, err := S3Source{Client: client, Bucket: "b"}.Open(context.Background(), Part{Name: "k"})
	require.NoError(t, err)

	buf := make([]byte, 4)
	n, err := obj.ReadAt(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, "2345", string(buf[:n]))

	n, err = obj.ReadAt(buf, 8)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "89", string(buf[:n]))

	_, err = obj.ReadAt(buf, 10)
	assert.ErrorIs(t, err, io.EOF)

	pos, err := obj.Seek(-3, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(7), pos)
}

func TestObjectReader_ContextDone(t *testing.T) {
	client := &memS3{objects: map[string][]byte{"k": []byte("0123456789")}}
	ctx, cancel := context.WithCancel(context.Background())
	obj, err := S3Source{Client: client, Bucket: "b"}.Open(ctx, Part{Name: "k"})
	require.NoError(t, err)
	cancel()

	_, err = obj.ReadAt(make([]byte, 4), 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, client.gets)
}

func TestSplitS3(t *testing.T) {
	bucket, prefix, err := SplitS3("s3://overturemaps-us-west-2/release/2025-05-21.0/theme=addresses/type=address/")
	require.NoError(t, err)
	assert.Equal(t, "overturemaps-us-west-2", bucket)
	assert.Equal(t, "release/2025-05-21.0/theme=addresses/type=address/", prefix)

	_, _, err = SplitS3("s3:///x")
	assert.Error(t, err)
}
