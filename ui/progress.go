package ui

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/pterm/pterm"
)

// ProgressWriter reports download progress while writing parts of an object
// out of order, as s3manager does.
type ProgressWriter struct {
	Written int64
	Writer  io.WriterAt
	Size    int64
	// Out receives the progress line. Nil means stdout.
	Out io.Writer
}

func (pw *ProgressWriter) WriteAt(p []byte, off int64) (int, error) {
	written := atomic.AddInt64(&pw.Written, int64(len(p)))
	var pct float64
	if pw.Size > 0 {
		pct = float64(written*100) / float64(pw.Size)
	}
	line := fmt.Sprintf("downloaded %s of %s (%.2f%%)\r",
		ByteCountDecimal(written), ByteCountDecimal(pw.Size), pct)
	if pw.Out != nil {
		fmt.Fprint(pw.Out, line)
	} else {
		pterm.Print(line)
	}
	return pw.Writer.WriteAt(p, off)
}

func ByteCountDecimal(b int64) string {
	const unit = 1000
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "kMGTPE"[exp])
}
