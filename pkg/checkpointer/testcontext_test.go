package checkpointer

import (
	"context"
	"testing"
)

// testContext mirrors testing.T.Context (Go 1.24+): the returned context is
// canceled when the test finishes.
func testContext(tb testing.TB) context.Context {
	tb.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	tb.Cleanup(cancel)
	return ctx
}
