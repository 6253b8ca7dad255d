// Package cmdchannel implements the Command Channel (C1): the framed
// transport that delivers TraderCommand records from strategies to the
// engine with at-most-once delivery, either over a lock-free
// shared-memory ring buffer or, as a fallback, a pub/sub topic.
package cmdchannel

import (
	"context"

	"main/internal/codec"
	internalerrors "main/internal/errors"
)

// ErrMalformedRecord is returned for a per-record decode failure: wrong
// magic or an unknown command type. The caller logs and drops; it is
// never fatal.
var ErrMalformedRecord = internalerrors.New("cmdchannel: malformed record")

// Channel is the consumer side of the Command Channel. Recv blocks until
// a record is available, ctx is done, or the channel is fatally closed.
type Channel interface {
	// Recv returns the next decoded command. A non-nil error that wraps
	// ErrMalformedRecord is a per-record failure; the caller should log
	// and continue calling Recv. Any other error is fatal.
	Recv(ctx context.Context) (codec.Command, error)
	// Close releases channel resources.
	Close() error
}
