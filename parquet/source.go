package parquet

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// Object is an open parquet part.
type Object interface {
	io.ReaderAt
	io.Seeker
	io.Closer
}

// Part is one parquet file of a dataset.
type Part struct {
	Name string
	Size int64
}

// Source lists and opens the parts of a dataset.
type Source interface {
	List(ctx context.Context) ([]Part, error)
	Open(ctx context.Context, p Part) (Object, error)
	String() string
}

// IsParquet reports whether name looks like a parquet part.
func IsParquet(name string) bool {
	return strings.HasSuffix(name, ".parquet")
}

// LocalSource reads a single file, or every parquet file below a directory.
type LocalSource struct {
	Path string
}

func (s LocalSource) String() string { return s.Path }

func (s LocalSource) List(_ context.Context) ([]Part, error) {
	info, err := os.Stat(s.Path)
	if err != nil {
		return nil, eris.Wrap(err, "parquet: stat local source")
	}
	if !info.IsDir() {
		return []Part{{Name: s.Path, Size: info.Size()}}, nil
	}

	var parts []Part
	err = filepath.WalkDir(s.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsParquet(path) {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		parts = append(parts, Part{Name: path, Size: fi.Size()})
		return nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "parquet: walk local source")
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].Name < parts[j].Name })
	return parts, nil
}

func (s LocalSource) Open(_ context.Context, p Part) (Object, error) {
	f, err := os.Open(p.Name)
	if err != nil {
		return nil, eris.Wrapf(err, "parquet: open %s", p.Name)
	}
	return f, nil
}
