package parquet

import (
	"encoding/binary"
	"io"

	"github.com/rotisserie/eris"
)

var (
	magicBytes  = []byte("PAR1")
	magicEBytes = []byte("PARE")
)

// Footer is the trailer of a parquet file.
type Footer struct {
	// MetadataSize is the length of the thrift file metadata before the trailer.
	MetadataSize int64
	Encrypted    bool
}

// ReadFooter reads the last eight bytes of a parquet object of the given size.
func ReadFooter(r io.ReaderAt, size int64) (Footer, error) {
	if size < 12 {
		return Footer{}, eris.Errorf("parquet: %d bytes is too small for a parquet file", size)
	}
	bs := make([]byte, 8)
	if _, err := r.ReadAt(bs, size-8); err != nil && err != io.EOF {
		return Footer{}, eris.Wrap(err, "parquet: read footer")
	}
	f := Footer{MetadataSize: int64(binary.LittleEndian.Uint32(bs[:4]))}
	switch string(bs[4:]) {
	case string(magicBytes):
	case string(magicEBytes):
		f.Encrypted = true
	default:
		return Footer{}, eris.Errorf("parquet: bad magic %q", bs[4:])
	}
	if f.MetadataSize > size-12 {
		return Footer{}, eris.Errorf("parquet: metadata size %d exceeds file size %d", f.MetadataSize, size)
	}
	return f, nil
}
