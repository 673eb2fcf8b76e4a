package parquet

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"

	"b00m.in/addressiq/bbox"
	"b00m.in/addressiq/fetch"
)

var _ fetch.Opener = Opener{}

// Opener opens "s3://bucket/prefix" locations through an S3 client and any
// other location from the local filesystem.
type Opener struct {
	S3      s3iface.S3API
	Options []Option
}

// Source resolves location to a Source.
func (o Opener) Source(location string) (Source, error) {
	if !strings.HasPrefix(location, "s3://") {
		return LocalSource{Path: location}, nil
	}
	if o.S3 == nil {
		return nil, eris.Errorf("parquet: no s3 client for %s", location)
	}
	bucket, prefix, err := SplitS3(location)
	if err != nil {
		return nil, err
	}
	return S3Source{Client: o.S3, Bucket: bucket, Prefix: prefix}, nil
}

func (o Opener) Open(ctx context.Context, location string) (fetch.Dataset, error) {
	ds, err := o.OpenDataset(ctx, location)
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// OpenDataset is Open returning the concrete dataset.
func (o Opener) OpenDataset(ctx context.Context, location string) (*Dataset, error) {
	src, err := o.Source(location)
	if err != nil {
		return nil, err
	}
	return Open(ctx, src, o.Options...)
}

// PartPlan reports how a read would treat one part.
type PartPlan struct {
	Part
	Bound     orb.Bound
	HasBound  bool
	Skipped   bool
	RowGroups int
	Kept      []int
	Rows      int64
	KeptRows  int64
}

// Plan reports, without reading any data page, which parts and row groups a
// read with pred would touch. box is the query box pred was built from.
func (d *Dataset) Plan(box bbox.Box, pred bbox.Predicate) []PartPlan {
	query := box.Bound()
	out := make([]PartPlan, 0, len(d.parts))
	for _, p := range d.parts {
		pp := PartPlan{Part: p.Part, RowGroups: p.pf.NumRowGroups(), Rows: p.pf.NumRows()}
		if col, ok := p.geo.Primary(); ok {
			pp.Bound, pp.HasBound = col.Bound()
		}
		switch {
		case pp.HasBound && !box.Inverted() && !pp.Bound.Intersects(query):
			pp.Skipped = true
		case !p.fileMayMatch(pred):
			pp.Skipped = true
		default:
			pp.Kept = p.rowGroups(pred)
			for _, rg := range pp.Kept {
				pp.KeptRows += p.pf.RowGroup(rg).NumRows()
			}
		}
		out = append(out, pp)
	}
	return out
}
