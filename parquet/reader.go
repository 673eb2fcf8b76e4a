// Package parquet reads GeoParquet datasets, local or on S3, and pushes a
// bounding box predicate down to the files, their row groups and their rows.
package parquet

import (
	"context"
	"errors"
	"io"
	"iter"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/metadata"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/rotisserie/eris"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"b00m.in/addressiq/bbox"
	"b00m.in/addressiq/schema"
)

// DefaultBBoxColumn is the per-row bbox struct column of Overture datasets.
const DefaultBBoxColumn = "bbox"

type options struct {
	mem        memory.Allocator
	batchSize  int64
	bboxColumn string
}

// Option configures how a dataset is read.
type Option func(*options)

// WithAllocator sets the allocator arrow data is read into.
func WithAllocator(mem memory.Allocator) Option {
	return func(o *options) { o.mem = mem }
}

// WithBatchSize sets the number of rows decoded per record batch.
func WithBatchSize(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithBBoxColumn names the bbox struct column used when a file declares no
// GeoParquet covering.
func WithBBoxColumn(name string) Option {
	return func(o *options) {
		if name != "" {
			o.bboxColumn = name
		}
	}
}

func newOptions(opts []Option) options {
	o := options{mem: memory.DefaultAllocator, batchSize: 64 * 1024, bboxColumn: DefaultBBoxColumn}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// partReader is one opened part.
type partReader struct {
	Part
	obj   Object
	pf    *file.Reader
	fr    *pqarrow.FileReader
	geo   *Geo
	paths map[bbox.Attr]string
}

func (p *partReader) close() {
	_ = p.pf.Close()
	_ = p.obj.Close()
}

// Dataset is an open set of parquet parts sharing one schema.
type Dataset struct {
	src    Source
	parts  []*partReader
	schema *arrow.Schema
	opts   options
}

// Open lists the parts of src and reads their footers.
func Open(ctx context.Context, src Source, opts ...Option) (*Dataset, error) {
	o := newOptions(opts)
	log := zap.L().With(zap.String("component", "parquet"), zap.Stringer("source", src))

	list, err := src.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, eris.Errorf("parquet: no parquet parts at %s", src)
	}

	d := &Dataset{src: src, opts: o}
	for _, part := range list {
		p, err := d.openPart(ctx, part)
		if err != nil {
			_ = d.Close()
			return nil, err
		}
		d.parts = append(d.parts, p)
	}
	sc, err := d.parts[0].fr.Schema()
	if err != nil {
		_ = d.Close()
		return nil, eris.Wrap(err, "parquet: read arrow schema")
	}
	for _, p := range d.parts[1:] {
		psc, err := p.fr.Schema()
		if err != nil {
			_ = d.Close()
			return nil, eris.Wrapf(err, "parquet: read arrow schema of %s", p.Name)
		}
		if err := schema.CheckSchema(sc, psc); err != nil {
			_ = d.Close()
			return nil, eris.Wrapf(err, "parquet: part %s", p.Name)
		}
	}
	d.schema = sc
	log.Debug("opened dataset", zap.Int("parts", len(d.parts)))
	return d, nil
}

func (d *Dataset) openPart(ctx context.Context, part Part) (*partReader, error) {
	obj, err := d.src.Open(ctx, part)
	if err != nil {
		return nil, err
	}
	pf, err := file.NewParquetReader(obj)
	if err != nil {
		_ = obj.Close()
		return nil, eris.Wrapf(err, "parquet: open %s", part.Name)
	}
	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{BatchSize: d.opts.batchSize}, d.opts.mem)
	if err != nil {
		_ = pf.Close()
		_ = obj.Close()
		return nil, eris.Wrapf(err, "parquet: arrow reader for %s", part.Name)
	}

	p := &partReader{Part: part, obj: obj, pf: pf, fr: fr, paths: defaultPaths(d.opts.bboxColumn)}
	if raw := pf.MetaData().KeyValueMetadata().FindValue(GeoKey); raw != nil {
		geo, err := ParseGeo(*raw)
		if err != nil {
			zap.L().Warn("parquet: ignoring geo metadata", zap.String("part", part.Name), zap.Error(err))
		} else {
			p.geo = geo
			if col, ok := geo.Primary(); ok {
				if paths, ok := col.CoveringPaths(); ok {
					p.paths = paths
				}
			}
		}
	}
	return p, nil
}

// Schema is the arrow schema of the first part.
func (d *Dataset) Schema() *arrow.Schema { return d.schema }

// Parts returns the parts of the dataset in read order.
func (d *Dataset) Parts() []Part {
	out := make([]Part, len(d.parts))
	for i, p := range d.parts {
		out[i] = p.Part
	}
	return out
}

// Close closes every part.
func (d *Dataset) Close() error {
	for _, p := range d.parts {
		p.close()
	}
	d.parts = nil
	return nil
}

// fileMayMatch checks the part's declared extent against pred.
func (p *partReader) fileMayMatch(pred bbox.Predicate) bool {
	col, ok := p.geo.Primary()
	if !ok {
		return true
	}
	b, ok := col.Bound()
	if !ok {
		return true
	}
	return pred.MayMatch(boundStats(b))
}

// rowGroups returns the row groups whose bbox statistics may match pred.
func (p *partReader) rowGroups(pred bbox.Predicate) []int {
	md := p.pf.MetaData()
	leaves := make(map[bbox.Attr]int, len(p.paths))
	for a, path := range p.paths {
		leaves[a] = md.Schema.ColumnIndexByName(path)
	}

	var keep []int
	for rg := 0; rg < p.pf.NumRowGroups(); rg++ {
		rgMeta := p.pf.RowGroup(rg).MetaData()
		stats := func(a bbox.Attr) (float64, float64, bool) {
			return columnStats(rgMeta, leaves[a])
		}
		if pred.MayMatch(stats) {
			keep = append(keep, rg)
		}
	}
	return keep
}

func columnStats(rg *metadata.RowGroupMetaData, leaf int) (float64, float64, bool) {
	if leaf < 0 {
		return 0, 0, false
	}
	chunk, err := rg.ColumnChunk(leaf)
	if err != nil {
		return 0, 0, false
	}
	if set, _ := chunk.StatsSet(); !set {
		return 0, 0, false
	}
	stats, err := chunk.Statistics()
	if err != nil || stats == nil || !stats.HasMinMax() {
		return 0, 0, false
	}
	lo, err := cast.ToFloat64E(metadata.GetStatValue(stats.Type(), stats.EncodeMin()))
	if err != nil {
		return 0, 0, false
	}
	hi, err := cast.ToFloat64E(metadata.GetStatValue(stats.Type(), stats.EncodeMax()))
	if err != nil {
		return 0, 0, false
	}
	return lo, hi, true
}

// leaves returns the leaf column indices covering the requested top-level
// columns plus the bbox column, or nil for every column.
func (p *partReader) leaves(columns []string) ([]int, error) {
	if len(columns) == 0 {
		return nil, nil
	}
	want := make(map[string]bool, len(columns)+1)
	for _, c := range columns {
		want[c] = true
	}
	for _, path := range p.paths {
		want[rootOf(path)] = true
	}

	sc := p.pf.MetaData().Schema
	found := make(map[string]bool, len(want))
	var out []int
	for i := 0; i < sc.NumColumns(); i++ {
		root := rootOf(sc.Column(i).Path())
		if want[root] {
			out = append(out, i)
			found[root] = true
		}
	}
	for _, c := range columns {
		if !found[c] {
			return nil, eris.Errorf("parquet: column %q not found in %s", c, p.Name)
		}
	}
	return out, nil
}

func rootOf(path string) string {
	root, _, _ := strings.Cut(path, ".")
	return root
}

// Read yields the rows of every part that satisfy pred. Parts whose declared
// extent cannot match are skipped, then row groups whose bbox statistics
// cannot match, and the remaining rows are filtered exactly. Matching rows
// are yielded as zero-copy slices of the decoded batches, in file order.
// Yielded records are released once the loop body returns.
func (d *Dataset) Read(ctx context.Context, pred bbox.Predicate, columns []string) iter.Seq2[arrow.Record, error] {
	return func(yield func(arrow.Record, error) bool) {
		log := zap.L().With(zap.String("component", "parquet"))
		for _, p := range d.parts {
			if !p.fileMayMatch(pred) {
				log.Debug("skipping part outside bbox", zap.String("part", p.Name))
				continue
			}
			rgs := p.rowGroups(pred)
			log.Debug("row groups selected", zap.String("part", p.Name),
				zap.Int("kept", len(rgs)), zap.Int("total", p.pf.NumRowGroups()))
			if len(rgs) == 0 {
				continue
			}
			leaves, err := p.leaves(columns)
			if err != nil {
				yield(nil, err)
				return
			}
			if !d.readPart(ctx, p, rgs, leaves, pred, columns, yield) {
				return
			}
		}
	}
}

func (d *Dataset) readPart(ctx context.Context, p *partReader, rgs, leaves []int, pred bbox.Predicate,
	columns []string, yield func(arrow.Record, error) bool) bool {
	rr, err := p.fr.GetRecordReader(ctx, leaves, rgs)
	if err != nil {
		return yield(nil, eris.Wrapf(err, "parquet: record reader for %s", p.Name))
	}
	defer rr.Release()

	for rr.Next() {
		if !emitMatches(rr.Record(), p.paths, pred, columns, yield) {
			return false
		}
	}
	if err := rr.Err(); err != nil && !errors.Is(err, io.EOF) {
		return yield(nil, eris.Wrapf(err, "parquet: read %s", p.Name))
	}
	return true
}
