// Package pipeline turns the rows fetched for a bounding box into formatted,
// deduplicated addresses.
package pipeline

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"b00m.in/addressiq/address"
	"b00m.in/addressiq/fetch"
	"b00m.in/addressiq/geometry"
	"b00m.in/addressiq/levels"
)

// Options configures the transform stages.
type Options struct {
	// Workers bounds how many record batches are transformed at once.
	Workers        int
	GeometryColumn string
	LevelsColumn   string
	Mem            memory.Allocator
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.GeometryColumn == "" {
		o.GeometryColumn = "geometry"
	}
	if o.LevelsColumn == "" {
		o.LevelsColumn = levels.Column
	}
	if o.Mem == nil {
		o.Mem = memory.DefaultAllocator
	}
	return o
}

// Pipeline fetches rows and transforms them into addresses.
type Pipeline struct {
	fetcher *fetch.Fetcher
	opts    Options
}

func New(fetcher *fetch.Fetcher, opts Options) *Pipeline {
	return &Pipeline{fetcher: fetcher, opts: opts.withDefaults()}
}

// Run fetches req and returns its deduplicated addresses. A *fetch.NoDataError
// is returned unchanged when nothing overlaps the box.
func (p *Pipeline) Run(ctx context.Context, req fetch.Request) ([]address.Address, error) {
	tbl, err := p.fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	defer tbl.Release()

	rows, err := p.Rows(ctx, tbl)
	if err != nil {
		return nil, err
	}
	all := address.FormatAll(rows)
	out := address.Dedup(all)
	zap.L().Info("pipeline: addresses formatted",
		zap.String("component", "pipeline"),
		zap.Int("rows", len(all)), zap.Int("unique", len(out)))
	return out, nil
}

// Rows decodes geometry, drops the geometry column and unpacks admin levels
// for every chunk of tbl, then reads the address fields. Chunks are processed
// in parallel; rows come back in table order.
func (p *Pipeline) Rows(ctx context.Context, tbl arrow.Table) ([]address.Row, error) {
	var recs []arrow.Record
	defer func() {
		for _, r := range recs {
			r.Release()
		}
	}()
	tr := array.NewTableReader(tbl, -1)
	defer tr.Release()
	for tr.Next() {
		rec := tr.Record()
		rec.Retain()
		recs = append(recs, rec)
	}

	results := make([][]address.Row, len(recs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i, rec := range recs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows, err := p.transform(rec)
			if err != nil {
				return eris.Wrapf(err, "pipeline: batch %d", i)
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []address.Row
	for _, rows := range results {
		out = append(out, rows...)
	}
	return out, nil
}

func (p *Pipeline) transform(rec arrow.Record) ([]address.Row, error) {
	decoded, err := geometry.WithCoordinates(rec, p.opts.GeometryColumn, p.opts.Mem)
	if err != nil {
		return nil, err
	}
	defer decoded.Release()

	dropped := geometry.DropGeometry(decoded, p.opts.GeometryColumn)
	defer dropped.Release()

	unpacked, err := levels.Unpack(dropped, p.opts.LevelsColumn, p.opts.Mem)
	if err != nil {
		return nil, err
	}
	defer unpacked.Release()

	return address.FromRecord(unpacked)
}
