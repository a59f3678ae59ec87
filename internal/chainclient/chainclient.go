package chainclient

import (
	"context"
	"errors"
)

var (
	// ErrUnreachable is returned when the daemon cannot be reached at the
	// transport level (connection refused, dial or read timeout).
	ErrUnreachable = errors.New("daemon unreachable")

	// ErrMalformedResponse is returned when the daemon answers but the body
	// lacks the expected fields.
	ErrMalformedResponse = errors.New("malformed daemon response")
)

// ChainClient is the read-only view of a daemon needed to build a checkpoint ledger.
type ChainClient interface {
	// Height returns the current chain height. Valid block heights are [0, Height).
	Height(ctx context.Context) (uint64, error)

	// BlockHashByHeight returns the hash of the block at height.
	BlockHashByHeight(ctx context.Context, height uint64) (string, error)
}
