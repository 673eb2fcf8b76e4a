package parquet

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/parquet/metadata"
	pqschema "github.com/apache/arrow-go/v18/parquet/schema"
	"github.com/rotisserie/eris"
)

// DescribeOptions selects what Describe prints.
type DescribeOptions struct {
	KeyValueMetadata bool
	RowGroups        bool
}

// Describe writes the footer metadata of every part of d to w.
func (d *Dataset) Describe(w io.Writer, opts DescribeOptions) error {
	for _, p := range d.parts {
		if err := describePart(w, p, opts); err != nil {
			return err
		}
	}
	return nil
}

func describePart(w io.Writer, p *partReader, opts DescribeOptions) error {
	fileMetadata := p.pf.MetaData()

	fmt.Fprintln(w, "File name:", p.Name)
	fmt.Fprintln(w, "Version:", fileMetadata.Version())
	fmt.Fprintln(w, "Created By:", fileMetadata.GetCreatedBy())
	fmt.Fprintln(w, "Num Rows:", p.pf.NumRows())

	keyvaluemeta := fileMetadata.KeyValueMetadata()
	if opts.KeyValueMetadata && keyvaluemeta != nil {
		fmt.Fprintln(w, "Key Value File Metadata:", keyvaluemeta.Len(), "entries")
		keys := keyvaluemeta.Keys()
		values := keyvaluemeta.Values()
		for i := 0; i < keyvaluemeta.Len(); i++ {
			fmt.Fprintf(w, "Key nr %d %s: %s\n", i, keys[i], values[i])
		}
	}
	if col, ok := p.geo.Primary(); ok {
		fmt.Fprintf(w, "Geometry: %s (%s) %v\n", p.geo.PrimaryColumn, col.Encoding, col.GeometryTypes)
	}

	fmt.Fprintln(w, "Number of RowGroups:", p.pf.NumRowGroups())
	fmt.Fprintln(w, "Number of Real Columns:", fileMetadata.Schema.Root().NumFields())
	fmt.Fprintln(w, "Number of Columns:", fileMetadata.Schema.NumColumns())
	for c := 0; c < fileMetadata.Schema.NumColumns(); c++ {
		descr := fileMetadata.Schema.Column(c)
		fmt.Fprintf(w, "Column %d: %s (%s", c, descr.Path(), descr.PhysicalType())
		if descr.ConvertedType() != pqschema.ConvertedTypes.None {
			fmt.Fprintf(w, "/%s", descr.ConvertedType())
		}
		fmt.Fprint(w, ")\n")
	}

	if !opts.RowGroups {
		return nil
	}
	leaves := make(map[int]bool, len(p.paths))
	for _, path := range p.paths {
		leaves[fileMetadata.Schema.ColumnIndexByName(path)] = true
	}
	for r := 0; r < p.pf.NumRowGroups(); r++ {
		rgr := p.pf.RowGroup(r)
		rowGroupMeta := rgr.MetaData()
		fmt.Fprintln(w, "--- Row Group:", r, " ---")
		fmt.Fprintln(w, "--- Total Bytes:", rowGroupMeta.TotalByteSize(), " ---")
		fmt.Fprintln(w, "--- Rows:", rgr.NumRows(), " ---")

		for c := 0; c < fileMetadata.Schema.NumColumns(); c++ {
			if !leaves[c] {
				continue
			}
			chunkMeta, err := rowGroupMeta.ColumnChunk(c)
			if err != nil {
				return eris.Wrapf(err, "parquet: column chunk %d of row group %d", c, r)
			}
			fmt.Fprintln(w, "Column", c, fileMetadata.Schema.Column(c).Path())
			if err := describeStats(w, chunkMeta); err != nil {
				return err
			}
		}
	}
	return nil
}

func describeStats(w io.Writer, chunkMeta *metadata.ColumnChunkMetaData) error {
	set, _ := chunkMeta.StatsSet()
	if !set {
		fmt.Fprintln(w, " Values:", chunkMeta.NumValues(), "Statistics Not Set")
		return nil
	}
	stats, err := chunkMeta.Statistics()
	if err != nil {
		return eris.Wrap(err, "parquet: column statistics")
	}
	fmt.Fprintf(w, " Values: %d", chunkMeta.NumValues())
	if stats.HasMinMax() {
		fmt.Fprintf(w, ", Min: %v, Max: %v",
			metadata.GetStatValue(stats.Type(), stats.EncodeMin()),
			metadata.GetStatValue(stats.Type(), stats.EncodeMax()))
	}
	if stats.HasNullCount() {
		fmt.Fprintf(w, ", Null Values: %d", stats.NullCount())
	}
	fmt.Fprintln(w)
	return nil
}
