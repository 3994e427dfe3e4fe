package pkg

import (
	"io"

	"go.uber.org/multierr"
)

// CombinedWriter fans every write out to all of its writers. A failing writer
// does not stop the others; its error is combined into the returned one.
type CombinedWriter struct {
	Writers []io.Writer
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	cw := &CombinedWriter{}
	for _, w := range writers {
		if w != nil {
			cw.Writers = append(cw.Writers, w)
		}
	}
	return cw
}

// Write reports len(p) as written when at least one writer accepted the
// whole buffer, so the log package does not treat partial fan-out as a
// short write.
func (cw *CombinedWriter) Write(p []byte) (n int, err error) {
	okWriters := 0
	for _, w := range cw.Writers {
		written, werr := w.Write(p)
		if werr != nil {
			err = multierr.Append(err, werr)
			continue
		}
		if written == len(p) {
			okWriters++
		}
	}
	if okWriters > 0 {
		return len(p), err
	}
	return 0, err
}
