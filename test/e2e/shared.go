//go:build e2e

package e2e

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/derogold/checkpointgen/internal/chainclient/daemon"
	"github.com/derogold/checkpointgen/pkg/ledger"
)

func getEnvUint64(key string, def uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		var out uint64
		_, _ = fmt.Sscanf(v, "%d", &out)
		if out != 0 {
			return out
		}
	}
	return def
}

// newDaemonClient connects to the daemon configured through DAEMON_RPC_* variables.
func newDaemonClient(t *testing.T) *daemon.Client {
	t.Helper()
	cfg, err := daemon.LoadConfig()
	require.NoError(t, err)
	c, err := daemon.New(cfg)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

// seedLedger writes a ledger whose last row is at height last, so a resumed
// run only has to cover the tail of the chain.
func seedLedger(t *testing.T, last uint64, hash string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "checkpoints.csv")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("%d,%s\n", last, hash)), 0o644))
	return path
}

// verifyContiguous checks rows are ascending with no gaps, allowing the single
// duplicated boundary row a resumed run produces.
func verifyContiguous(t *testing.T, rows []ledger.Checkpoint) {
	t.Helper()
	for i := 1; i < len(rows); i++ {
		prev, cur := rows[i-1], rows[i]
		if cur.Height == prev.Height {
			require.Equal(t, prev.Hash, cur.Hash, "duplicate row %d with different hash", cur.Height)
			continue
		}
		require.Equal(t, prev.Height+1, cur.Height, "gap after height %d", prev.Height)
	}
	for _, row := range rows {
		require.Len(t, row.Hash, 64, "hash at height %d", row.Height)
		require.Equal(t, strings.ToLower(row.Hash), row.Hash)
	}
}
