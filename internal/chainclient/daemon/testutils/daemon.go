package testutils

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
)

// FakeDaemon is an httptest server speaking the daemon's /info and
// /json_rpc getblockheaderbyheight endpoints. The chain height is the number
// of hashes it was created with unless overridden by SetHeight.
type FakeDaemon struct {
	server *httptest.Server

	mu          sync.Mutex
	height      uint64
	hashes      []string
	rpcErrors   map[uint64]string
	requested   []uint64
	infoCalls   int
	contentType []string
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  struct {
		Height *uint64 `json:"height"`
	} `json:"params"`
}

// NewFakeDaemon starts a fake daemon whose block at height i has hashes[i].
// The server is closed when the test ends.
func NewFakeDaemon(t *testing.T, hashes ...string) *FakeDaemon {
	t.Helper()
	d := &FakeDaemon{
		height:    uint64(len(hashes)),
		hashes:    hashes,
		rpcErrors: make(map[uint64]string),
	}
	d.server = httptest.NewServer(http.HandlerFunc(d.handle))
	t.Cleanup(d.server.Close)
	return d
}

// URL returns the base URL of the fake daemon.
func (d *FakeDaemon) URL() string {
	return d.server.URL
}

// Host returns the host the fake daemon listens on.
func (d *FakeDaemon) Host() string {
	host, _, _ := net.SplitHostPort(d.server.Listener.Addr().String())
	return host
}

// Port returns the port the fake daemon listens on.
func (d *FakeDaemon) Port() int {
	_, port, _ := net.SplitHostPort(d.server.Listener.Addr().String())
	p, _ := strconv.Atoi(port)
	return p
}

// Close stops the server; subsequent requests fail with connection refused.
func (d *FakeDaemon) Close() {
	d.server.Close()
}

// SetHeight overrides the height reported by /info.
func (d *FakeDaemon) SetHeight(height uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.height = height
}

// SetRPCError makes getblockheaderbyheight return a JSON-RPC error for height.
func (d *FakeDaemon) SetRPCError(height uint64, message string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rpcErrors[height] = message
}

// Requested returns the heights requested via getblockheaderbyheight, in order.
func (d *FakeDaemon) Requested() []uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]uint64(nil), d.requested...)
}

// InfoCalls returns how many times /info was queried.
func (d *FakeDaemon) InfoCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.infoCalls
}

// ContentTypes returns the Content-Type header of every /json_rpc request.
func (d *FakeDaemon) ContentTypes() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.contentType...)
}

func (d *FakeDaemon) handle(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/info":
		d.mu.Lock()
		d.infoCalls++
		height := d.height
		d.mu.Unlock()
		writeJSON(w, map[string]interface{}{"height": height, "status": "OK"})

	case r.Method == http.MethodPost && r.URL.Path == "/json_rpc":
		d.handleJSONRPC(w, r)

	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	}
}

func (d *FakeDaemon) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad request"}`))
		return
	}
	if req.JSONRPC != "2.0" || req.Method != "getblockheaderbyheight" || req.Params.Height == nil {
		writeJSON(w, map[string]interface{}{
			"jsonrpc": "2.0",
			"error":   map[string]interface{}{"code": -32601, "message": "Method not found"},
		})
		return
	}
	height := *req.Params.Height

	d.mu.Lock()
	d.requested = append(d.requested, height)
	d.contentType = append(d.contentType, r.Header.Get("Content-Type"))
	msg, failed := d.rpcErrors[height]
	var hash string
	if height < uint64(len(d.hashes)) {
		hash = d.hashes[height]
	}
	tip := d.height
	d.mu.Unlock()

	if failed {
		writeJSON(w, map[string]interface{}{
			"jsonrpc": "2.0",
			"error":   map[string]interface{}{"code": -1, "message": msg},
		})
		return
	}
	if height >= tip || hash == "" {
		writeJSON(w, map[string]interface{}{
			"jsonrpc": "2.0",
			"error": map[string]interface{}{
				"code":    -2,
				"message": "Too big height: " + strconv.FormatUint(height, 10) + ", current blockchain height = " + strconv.FormatUint(tip, 10),
			},
		})
		return
	}

	writeJSON(w, map[string]interface{}{
		"jsonrpc": "2.0",
		"result": map[string]interface{}{
			"block_header": map[string]interface{}{
				"hash":   hash,
				"height": height,
			},
			"status": "OK",
		},
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
