package stream

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wagiedev/lsp-client-go/internal/errors"
)

// DefaultMaxFrameSize bounds a single message body.
const DefaultMaxFrameSize = 64 * 1024 * 1024 // 64MB

// Framing names a wire framing.
type Framing string

const (
	// FramingHeader is the LSP base protocol: Content-Length headers, then the body.
	FramingHeader Framing = "header"
	// FramingLine is newline-delimited JSON.
	FramingLine Framing = "line"
)

// Framer splits a byte stream into message bodies and writes bodies back with
// the matching envelope. A reader returned by Reader is used by a single
// goroutine; Write calls are serialized by the caller.
type Framer interface {
	// Reader wraps r. Read returns io.EOF only at a clean frame boundary.
	Reader(r io.Reader) FrameReader
	// Write writes one framed body to w.
	Write(w io.Writer, body []byte) error
}

// FrameReader reads one frame body at a time.
type FrameReader interface {
	Read() ([]byte, error)
}

// NewFramer returns the framer for f. An empty value selects header framing.
func NewFramer(f Framing, maxFrameSize int) (Framer, error) {
	if maxFrameSize <= 0 {
		maxFrameSize = DefaultMaxFrameSize
	}

	switch f {
	case FramingHeader, "":
		return &HeaderFramer{MaxFrameSize: maxFrameSize}, nil
	case FramingLine:
		return &LineFramer{MaxFrameSize: maxFrameSize}, nil
	}

	return nil, fmt.Errorf("unknown framing %q", f)
}

// HeaderFramer implements the LSP base protocol framing:
//
//	Content-Length: 52\r\n
//	\r\n
//	{"jsonrpc":"2.0","id":1,"method":"shutdown"}
//
// Header names are case-insensitive. Content-Type is accepted and ignored;
// unknown headers are skipped.
type HeaderFramer struct {
	MaxFrameSize int
}

// Compile-time verification that HeaderFramer implements Framer.
var _ Framer = (*HeaderFramer)(nil)

// Reader implements Framer.
func (f *HeaderFramer) Reader(r io.Reader) FrameReader {
	return &headerReader{r: bufio.NewReader(r), max: f.MaxFrameSize}
}

// Write implements Framer.
func (f *HeaderFramer) Write(w io.Writer, body []byte) error {
	var buf bytes.Buffer

	buf.Grow(len(body) + 32)
	fmt.Fprintf(&buf, "Content-Length: %d\r\n\r\n", len(body))
	buf.Write(body)

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}

	return nil
}

type headerReader struct {
	r   *bufio.Reader
	max int
}

func (h *headerReader) Read() ([]byte, error) {
	length := -1
	sawHeader := false

	for {
		line, err := h.r.ReadString('\n')
		if err != nil {
			if err == io.EOF && !sawHeader && line == "" {
				return nil, io.EOF
			}

			if err == io.EOF {
				return nil, &errors.FrameError{Raw: line, Err: io.ErrUnexpectedEOF}
			}

			return nil, fmt.Errorf("read header: %w", err)
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if !sawHeader {
				// Tolerate stray blank lines between frames.
				continue
			}

			break
		}

		sawHeader = true

		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, &errors.FrameError{Raw: line, Err: fmt.Errorf("malformed header line")}
		}

		if !strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			continue
		}

		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return nil, &errors.FrameError{Raw: line, Err: fmt.Errorf("invalid Content-Length")}
		}

		length = n
	}

	if length < 0 {
		return nil, &errors.FrameError{Err: fmt.Errorf("missing Content-Length")}
	}

	if length > h.max {
		return nil, &errors.FrameError{
			Err: fmt.Errorf("frame of %d bytes exceeds limit of %d", length, h.max),
		}
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(h.r, body); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}

		return nil, &errors.FrameError{Err: fmt.Errorf("read body: %w", err)}
	}

	return body, nil
}

// LineFramer implements newline-delimited JSON framing.
type LineFramer struct {
	MaxFrameSize int
}

// Compile-time verification that LineFramer implements Framer.
var _ Framer = (*LineFramer)(nil)

// Reader implements Framer.
func (f *LineFramer) Reader(r io.Reader) FrameReader {
	scanner := bufio.NewScanner(r)
	// Set large buffer for big messages
	initial := min(f.MaxFrameSize, 64*1024)
	scanner.Buffer(make([]byte, initial), f.MaxFrameSize)

	return &lineReader{scanner: scanner}
}

// Write implements Framer.
func (f *LineFramer) Write(w io.Writer, body []byte) error {
	// Use explicit copy to avoid mutating caller's backing array if slice has spare capacity
	data := make([]byte, len(body)+1)
	copy(data, body)
	data[len(body)] = '\n'

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}

	return nil
}

type lineReader struct {
	scanner *bufio.Scanner
}

func (l *lineReader) Read() ([]byte, error) {
	for l.scanner.Scan() {
		line := bytes.TrimSpace(l.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		// The scanner reuses its buffer.
		out := make([]byte, len(line))
		copy(out, line)

		return out, nil
	}

	if err := l.scanner.Err(); err != nil {
		if err == bufio.ErrTooLong {
			return nil, &errors.FrameError{Err: err}
		}

		return nil, fmt.Errorf("scan line: %w", err)
	}

	return nil, io.EOF
}
