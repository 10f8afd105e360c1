package v2

import (
	"bufio"
	"bytes"
	"context"
	"io"

	"github.com/adx-client/adx-go/adxdata/errors"
	"github.com/goccy/go-json"
)

// frameReader yields one frame per call, exploiting the service's guarantee that the
// response body is a JSON array formatted one frame per line: the first line opens with
// '[', every following line opens with ',', and the final line is ']'.
type frameReader struct {
	orig    io.ReadCloser
	reader  *bufio.Reader
	ctx     context.Context
	line    []byte
	started bool
}

func newFrameReader(ctx context.Context, r io.ReadCloser) *frameReader {
	return &frameReader{
		orig:   r,
		reader: bufio.NewReader(r),
		ctx:    ctx,
	}
}

// advance reads the next line and strips the leading delimiter, leaving one frame's JSON
// in fr.line. It returns io.EOF on the closing ']'.
func (fr *frameReader) advance() error {
	for {
		if err := fr.ctx.Err(); err != nil {
			return errors.E(errors.OpQuery, errors.KInternal, err)
		}

		line, err := fr.reader.ReadBytes('\n')
		atEOF := err == io.EOF
		if err != nil && !atEOF {
			return errors.E(errors.OpQuery, errors.KIO, err)
		}

		trimmed := trimLine(line)
		if len(trimmed) == 0 {
			if atEOF {
				return errors.ES(errors.OpQuery, errors.KIO, "response stream truncated before the dataset completed")
			}
			continue
		}

		switch trimmed[0] {
		case ']':
			return io.EOF
		case '[':
			if fr.started {
				return errors.ES(errors.OpQuery, errors.KInternal, "unexpected byte '[' mid-stream")
			}
			fr.started = true
		case ',':
			if !fr.started {
				return errors.ES(errors.OpQuery, errors.KInternal, "unexpected byte ',' at start of stream")
			}
		default:
			if !fr.started {
				// Not a frame stream at all. The service puts plain error bodies here.
				rest, _ := io.ReadAll(fr.reader)
				return errors.ES(errors.OpQuery, errors.KHTTPError, "got error: %s%s", string(trimmed), string(rest))
			}
			return errors.ES(errors.OpQuery, errors.KInternal, "unexpected byte %q between frames", trimmed[0])
		}

		rest := bytes.TrimSpace(trimmed[1:])
		if len(rest) == 0 {
			// Delimiter alone on a line, the frame is on the next one.
			continue
		}
		if len(rest) == 1 && rest[0] == ']' {
			return io.EOF
		}

		if atEOF {
			return errors.ES(errors.OpQuery, errors.KIO, "response stream truncated before the dataset completed")
		}

		fr.line = trimmed[1:]
		return nil
	}
}

func trimLine(line []byte) []byte {
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line
}

// decodeFrame decodes the current line into a typed frame.
func (fr *frameReader) decodeFrame() (Frame, error) {
	raw := EveryFrame{}
	if err := json.Unmarshal(fr.line, &raw); err != nil {
		return nil, errors.ES(errors.OpQuery, errors.KInternal, "invalid frame: %s", err)
	}
	return raw.Decode()
}

func (fr *frameReader) Close() error {
	return fr.orig.Close()
}
