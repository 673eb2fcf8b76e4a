// Package fetch pulls the rows of a columnar dataset that overlap a bounding
// box and hands them back as a single normalized arrow table.
package fetch

import (
	"context"
	"fmt"
	"iter"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"b00m.in/addressiq/bbox"
	"b00m.in/addressiq/schema"
)

// Dataset is a read handle on a columnar dataset.
type Dataset interface {
	// Schema is the declared schema of the dataset.
	Schema() *arrow.Schema
	// Read yields the batches whose rows satisfy pred, restricted to columns
	// when it is not empty. A yielded record is only valid until the next
	// iteration step; callers that keep it must Retain it. Breaking out of
	// the loop stops the read.
	Read(ctx context.Context, pred bbox.Predicate, columns []string) iter.Seq2[arrow.Record, error]
	Close() error
}

// Opener opens the dataset stored at a location.
type Opener interface {
	Open(ctx context.Context, location string) (Dataset, error)
}

// Request describes one fetch. It is passed by value and never mutated.
type Request struct {
	Location string
	Box      bbox.Box
	Columns  []string
}

// NoDataError is returned when no row of the dataset overlaps the box.
type NoDataError struct {
	Location string
	Box      bbox.Box
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("fetch: no data found in bbox %s at %s", e.Box, e.Location)
}

// Fetcher runs requests against datasets produced by an Opener.
type Fetcher struct {
	opener Opener
}

// New creates a Fetcher.
func New(opener Opener) *Fetcher {
	return &Fetcher{opener: opener}
}

// Fetch reads the rows of req.Location overlapping req.Box. Empty batches are
// discarded; if none remain a *NoDataError is returned, never an empty table.
// The batches are assembled in the order the dataset produced them and the
// resulting table has its map columns rewritten to list<struct<key, value>>.
// The caller owns the returned table.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (arrow.Table, error) {
	log := zap.L().With(zap.String("component", "fetch"), zap.String("location", req.Location))

	ds, err := f.opener.Open(ctx, req.Location)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: open dataset")
	}
	defer func() { _ = ds.Close() }()

	if _, err := schema.FromArrowSchema(ds.Schema()); err != nil {
		return nil, err
	}

	pred := bbox.Overlaps(req.Box)
	log.Debug("reading batches", zap.Stringer("predicate", pred), zap.Strings("columns", req.Columns))

	var batches []arrow.Record
	defer func() {
		for _, b := range batches {
			b.Release()
		}
	}()

	var rows int64
	for rec, err := range ds.Read(ctx, pred, req.Columns) {
		if err != nil {
			return nil, eris.Wrap(err, "fetch: read batches")
		}
		if rec.NumRows() == 0 {
			continue
		}
		if len(batches) > 0 {
			if err := schema.CheckSchema(batches[0].Schema(), rec.Schema()); err != nil {
				return nil, eris.Wrapf(err, "fetch: batch %d", len(batches))
			}
		}
		rec.Retain()
		batches = append(batches, rec)
		rows += rec.NumRows()
	}
	if len(batches) == 0 {
		return nil, &NoDataError{Location: req.Location, Box: req.Box}
	}

	tbl := array.NewTableFromRecords(batches[0].Schema(), batches)
	defer tbl.Release()

	out, err := schema.NormalizeTable(tbl)
	if err != nil {
		return nil, err
	}
	log.Info("fetched rows", zap.Int("batches", len(batches)), zap.Int64("rows", rows))
	return out, nil
}
