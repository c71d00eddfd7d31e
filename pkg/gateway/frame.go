package gateway

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ssargent/vifgate/pkg/codec"
)

const (
	// DefaultMaxFrameSize bounds a single response. Full get_data catalogs
	// run to a few hundred kilobytes.
	DefaultMaxFrameSize = 8 << 20

	readChunkSize = 8192
)

// ErrFrameTooLarge is returned when a response grows past the maximum frame
// size without a terminator.
var ErrFrameTooLarge = errors.New("response frame exceeds maximum size")

// writeFrame writes the message followed by the terminator.
func writeFrame(w io.Writer, msg *codec.Message) error {
	frame := msg.Frame()
	n, err := w.Write(frame)
	if err != nil {
		return err
	}
	if n != len(frame) {
		return io.ErrShortWrite
	}
	return nil
}

// readFrame reads chunks until one contains the terminator and returns
// everything before it. Bytes after the terminator are discarded.
func readFrame(r io.Reader, maxSize int) ([]byte, error) {
	var (
		buf   bytes.Buffer
		chunk = make([]byte, readChunkSize)
	)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			if i := bytes.IndexByte(chunk[:n], codec.Terminator); i >= 0 {
				buf.Write(chunk[:i])
				return buf.Bytes(), nil
			}
			buf.Write(chunk[:n])
			if buf.Len() > maxSize {
				return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, buf.Len())
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}
}
