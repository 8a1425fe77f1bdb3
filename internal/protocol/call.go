package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Call is the handle for an outgoing request.
//
// A Call is resolved exactly once: by the matching response, by its deadline,
// or by the endpoint shutting down. Waiting is the caller's choice; a caller
// that stops waiting does not remove the call from the endpoint.
type Call struct {
	id        int64
	method    string
	createdAt time.Time
	deadline  time.Time
	endpoint  *Endpoint

	// timer is written under the endpoint's pending lock.
	timer *time.Timer

	once   sync.Once
	done   chan struct{}
	result json.RawMessage
	err    error
}

func newCall(e *Endpoint, id int64, method string) *Call {
	return &Call{
		id:        id,
		method:    method,
		createdAt: time.Now(),
		endpoint:  e,
		done:      make(chan struct{}),
	}
}

// failedCall returns a Call that is already resolved with err. Nothing was sent
// for it, and its ID is -1.
func failedCall(method string, err error) *Call {
	c := newCall(nil, -1, method)
	c.resolve(nil, err)

	return c
}

// ID returns the request id, or -1 if the request was never sent.
func (c *Call) ID() int64 { return c.id }

// Method returns the request method.
func (c *Call) Method() string { return c.method }

// CreatedAt returns when the call was issued.
func (c *Call) CreatedAt() time.Time { return c.createdAt }

// Deadline returns the local deadline, if the call has one.
func (c *Call) Deadline() (time.Time, bool) {
	return c.deadline, !c.deadline.IsZero()
}

// Done returns a channel that is closed once the call is resolved.
func (c *Call) Done() <-chan struct{} { return c.done }

// Resolved reports whether the call has been resolved.
func (c *Call) Resolved() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the call is resolved or ctx is done.
//
// If ctx ends first Wait returns ctx.Err() and the call stays pending; it is
// still resolved later by its response, deadline, or endpoint shutdown.
func (c *Call) Wait(ctx context.Context) (json.RawMessage, error) {
	select {
	case <-c.done:
		return c.result, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Decode waits for the call and unmarshals its result into v.
// A nil v discards the result.
func (c *Call) Decode(ctx context.Context, v any) error {
	raw, err := c.Wait(ctx)
	if err != nil {
		return err
	}

	if v == nil {
		return nil
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s result: %w", c.method, err)
	}

	return nil
}

// Cancel asks the peer to abandon this request. It is advisory: the call
// stays pending and receives whatever response the peer eventually sends.
func (c *Call) Cancel(ctx context.Context) error {
	if c.endpoint == nil {
		return nil
	}

	return c.endpoint.Cancel(ctx, c.id)
}

// resolve stores the outcome and wakes waiters. Only the first resolution has
// any effect; it reports whether this call was the one that took effect.
func (c *Call) resolve(result json.RawMessage, err error) bool {
	resolved := false

	c.once.Do(func() {
		c.result = result
		c.err = err
		resolved = true

		close(c.done)
	})

	return resolved
}

func (c *Call) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
	}
}
