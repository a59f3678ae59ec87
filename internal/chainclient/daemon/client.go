package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/derogold/checkpointgen/internal/chainclient"
	"github.com/derogold/checkpointgen/pkg/metrics"
	"github.com/derogold/checkpointgen/pkg/utils"
)

const (
	MethodInfo                   = "info"
	MethodGetBlockHeaderByHeight = "getblockheaderbyheight"

	jsonRPCPath    = "/json_rpc"
	maxErrBodySize = 512
)

// Client talks to a daemon over its HTTP interface: plain GET endpoints
// (e.g. /info) and JSON-RPC 2.0 POSTs to /json_rpc. A single http.Client is
// reused for every request.
type Client struct {
	baseURL string
	hc      *http.Client
	log     *zap.SugaredLogger
	metrics *metrics.Metrics // nil if metrics disabled
}

var _ chainclient.ChainClient = (*Client)(nil)

// Option configures the Client.
type Option func(*Client)

// WithMetrics enables metrics collection for the client.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger sets the logger used for per-request debug output.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}

// New creates a daemon client for cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := &Client{
		baseURL: cfg.BaseURL(),
		hc:      &http.Client{Timeout: cfg.Timeout},
		log:     zap.NewNop().Sugar(),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// BaseURL returns the daemon URL requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type infoResponse struct {
	Height *uint64 `json:"height"`
}

// Height returns the current chain height from GET /info.
func (c *Client) Height(ctx context.Context) (uint64, error) {
	var info infoResponse
	err := c.observe(MethodInfo, func() error {
		return c.get(ctx, "/"+MethodInfo, &info)
	})
	if err != nil {
		return 0, fmt.Errorf("get height: %w", err)
	}
	if info.Height == nil {
		return 0, fmt.Errorf("get height: %w: missing field \"height\"", chainclient.ErrMalformedResponse)
	}

	c.log.Debugw("fetched chain height", "height", *info.Height)
	return *info.Height, nil
}

type blockHeaderResult struct {
	BlockHeader *struct {
		Hash string `json:"hash"`
	} `json:"block_header"`
}

// BlockHashByHeight returns result.block_header.hash from the
// getblockheaderbyheight JSON-RPC method.
func (c *Client) BlockHashByHeight(ctx context.Context, height uint64) (string, error) {
	var res blockHeaderResult
	err := c.observe(MethodGetBlockHeaderByHeight, func() error {
		return c.call(ctx, MethodGetBlockHeaderByHeight, map[string]uint64{"height": height}, &res)
	})
	if err != nil {
		return "", fmt.Errorf("get block hash %d: %w", height, err)
	}
	if res.BlockHeader == nil {
		return "", fmt.Errorf("get block hash %d: %w: missing field \"result.block_header\"", height, chainclient.ErrMalformedResponse)
	}
	if !utils.IsHex(res.BlockHeader.Hash) {
		return "", fmt.Errorf("get block hash %d: %w: invalid hash %q", height, chainclient.ErrMalformedResponse, res.BlockHeader.Hash)
	}

	c.log.Debugw("fetched block hash", "height", height, "hash", res.BlockHeader.Hash)
	return res.BlockHeader.Hash, nil
}

// Close releases idle connections held by the underlying HTTP client.
func (c *Client) Close() {
	c.hc.CloseIdleConnections()
}

func (c *Client) observe(method string, fn func() error) error {
	start := time.Now()
	c.metrics.IncRPCInFlight()
	defer c.metrics.DecRPCInFlight()

	err := fn()

	c.metrics.RecordRPCCall(method, err, time.Since(start).Seconds())
	if errors.Is(err, chainclient.ErrUnreachable) {
		c.metrics.IncError(metrics.ErrTypeUnreachable)
	}
	return err
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error,omitempty"`
}

func (c *Client) call(ctx context.Context, method string, params interface{}, out interface{}) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+jsonRPCPath, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	var rr rpcResponse
	if err := c.do(req, &rr); err != nil {
		return err
	}
	if rr.Error != nil {
		return rr.Error
	}
	if len(rr.Result) == 0 || bytes.Equal(rr.Result, []byte("null")) {
		return fmt.Errorf("%w: missing field \"result\"", chainclient.ErrMalformedResponse)
	}
	if err := json.Unmarshal(rr.Result, out); err != nil {
		return fmt.Errorf("%w: decode %s result: %v", chainclient.ErrMalformedResponse, method, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.hc.Do(req)
	if err != nil {
		return classifyTransportError(req, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyTransportError(req, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		if len(raw) > maxErrBodySize {
			raw = raw[:maxErrBodySize]
		}
		return &StatusError{URL: req.URL.String(), StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", chainclient.ErrMalformedResponse, req.URL.Path, err)
	}
	return nil
}

// classifyTransportError marks dial failures and timeouts as ErrUnreachable.
// Cancellation of the caller's context is passed through untouched.
func classifyTransportError(req *http.Request, err error) error {
	if ctxErr := req.Context().Err(); ctxErr != nil {
		return ctxErr
	}

	var opErr *net.OpError
	var netErr net.Error
	if errors.As(err, &opErr) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s %s: %w", chainclient.ErrUnreachable, req.Method, req.URL, err)
	}
	return fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
}
