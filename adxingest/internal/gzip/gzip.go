// Package gzip provides a streaming gzip compressor that reports how many input bytes it
// consumed, which the upload path records as the raw data size.
package gzip

import (
	"compress/gzip"
	"io"
	"sync/atomic"
)

// Streamer compresses the data read from an input reader. The compressed bytes are
// consumed through Read while a background goroutine drains the input.
type Streamer struct {
	input io.Reader
	size  int64

	pr *io.PipeReader
	pw *io.PipeWriter
	zw *gzip.Writer
}

// New creates an unattached Streamer. Call Reset before reading.
func New() *Streamer {
	return &Streamer{}
}

// Compress is shorthand for New followed by Reset.
func Compress(input io.Reader) *Streamer {
	s := New()
	s.Reset(input)
	return s
}

// Reset attaches the Streamer to input and starts compressing.
func (s *Streamer) Reset(input io.Reader) {
	pr, pw := io.Pipe()

	s.input = input
	s.pr = pr
	s.pw = pw
	s.zw = gzip.NewWriter(pw)
	atomic.StoreInt64(&s.size, 0)

	go s.compress()
}

func (s *Streamer) compress() {
	n, err := io.Copy(s.zw, s.input)
	atomic.StoreInt64(&s.size, n)
	if err != nil {
		s.pw.CloseWithError(err)
		return
	}
	if err := s.zw.Close(); err != nil {
		s.pw.CloseWithError(err)
		return
	}
	s.pw.Close()
}

// Read returns compressed bytes.
func (s *Streamer) Read(p []byte) (int, error) {
	return s.pr.Read(p)
}

// InputSize returns how many uncompressed bytes have been consumed from the input. The
// count is final once Read has returned io.EOF.
func (s *Streamer) InputSize() int64 {
	return atomic.LoadInt64(&s.size)
}
