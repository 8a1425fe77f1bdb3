package stream

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/wagiedev/lsp-client-go/internal/errors"
)

// writeAbandonWait bounds how long SendMessage waits for a blocked write to
// return after closing the writer on context cancellation.
const writeAbandonWait = 1 * time.Second

// Conn carries framed messages over a reader/writer pair, typically the stdout
// and stdin of a child process or the two halves of a socket.
//
// Conn satisfies the transport contract of the protocol endpoint: ReadMessages
// is called once by the dispatch loop and SendMessage may be called from any
// goroutine.
type Conn struct {
	log    *slog.Logger
	framer Framer
	r      io.Reader
	w      io.WriteCloser

	mu          sync.Mutex // Protects writes
	writeClosed bool
}

// NewConn creates a Conn. If r also implements io.Closer it is closed by Close.
func NewConn(log *slog.Logger, r io.Reader, w io.WriteCloser, framer Framer) *Conn {
	return &Conn{
		log:    log.With("component", "stream"),
		framer: framer,
		r:      r,
		w:      w,
	}
}

// ReadMessages reads frames until end of stream.
//
// The messages channel is closed at end of stream. A read or framing failure is
// delivered on the error channel before both channels close; after a framing
// error the stream cannot be resynchronized, so reading stops.
func (c *Conn) ReadMessages(ctx context.Context) (<-chan []byte, <-chan error) {
	messages := make(chan []byte)
	errs := make(chan error, 1)

	go func() {
		defer close(messages)
		defer close(errs)
		defer c.log.Debug("ReadMessages goroutine stopped")

		reader := c.framer.Reader(c.r)
		count := 0

		for {
			body, err := reader.Read()
			if err == io.EOF {
				c.log.Debug("End of stream", "message_count", count)

				return
			}

			if err != nil {
				c.log.Debug("Frame read failed", "error", err)

				errs <- err

				return
			}

			count++

			select {
			case messages <- body:
			case <-ctx.Done():
				c.log.Debug("Context cancelled during message send", "error", ctx.Err())

				errs <- ctx.Err()

				return
			}
		}
	}()

	return messages, errs
}

// SendMessage frames and writes data.
//
// This method is safe for concurrent use and respects context cancellation
// even during blocking writes: if ctx is cancelled mid-write the writer is
// closed to unblock it, and subsequent calls return ErrStdinClosed.
func (c *Conn) SendMessage(ctx context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.w == nil {
		return errors.ErrTransportNotConnected
	}

	if c.writeClosed {
		return errors.ErrStdinClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	c.log.Debug("Sending message", "data_len", len(data))

	done := make(chan error, 1)

	go func() {
		done <- c.framer.Write(c.w, data)
	}()

	select {
	case err := <-done:
		if err != nil {
			c.log.Error("Failed to write message", "error", err)

			return err
		}

		return nil

	case <-ctx.Done():
		c.log.Debug("Context cancelled during write, closing writer")

		_ = c.w.Close()
		c.writeClosed = true

		select {
		case <-done:
		case <-time.After(writeAbandonWait):
			c.log.Warn("Write goroutine did not exit after writer close, potential leak")
		}

		return ctx.Err()
	}
}

// CloseWrite closes the write half, signalling that no more input will be sent.
func (c *Conn) CloseWrite() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.w == nil || c.writeClosed {
		return nil
	}

	c.writeClosed = true

	if err := c.w.Close(); err != nil {
		return fmt.Errorf("close writer: %w", err)
	}

	return nil
}

// Close closes both halves. It is safe to call multiple times.
func (c *Conn) Close() error {
	err := c.CloseWrite()

	if rc, ok := c.r.(io.Closer); ok {
		if cerr := rc.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close reader: %w", cerr)
		}
	}

	return err
}
