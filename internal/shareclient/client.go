// Package shareclient pushes a user's collection snapshot to the record
// server and reads snapshots back. A share is validated before any network
// traffic, is never retried, and at most one share runs at a time per Client.
package shareclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mesh-intelligence/indexkeeper/internal/logger"
	"github.com/mesh-intelligence/indexkeeper/pkg/types"
)

// ErrShareInFlight is returned when Share is called while another share is
// pending on the same Client.
var ErrShareInFlight = errors.New("a share is already in progress")

// Status is the outcome of the most recent share.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusOK
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

const defaultTimeout = 15 * time.Second

// Client talks to one record server.
type Client struct {
	base *url.URL
	http *http.Client
	log  *logger.Logger

	mu      sync.Mutex
	status  Status
	lastErr error
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client, which has a 15s timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = logger.OrNop(l) }
}

// New returns a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q", baseURL)
	}
	c := &Client{
		base: u,
		http: &http.Client{Timeout: defaultTimeout},
		log:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Status reports the state of the most recent share and its error, if any.
func (c *Client) Status() (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status, c.lastErr
}

// Share uploads req as the complete record for req.OwnerID. It returns
// types.ErrValidation without contacting the server when a required field is
// missing, and an error wrapping types.ErrTransport on network failure or a
// non-2xx response. A rejected request leaves Status at StatusError like any
// other failed share.
func (c *Client) Share(ctx context.Context, req types.ShareRequest) (types.UserRecord, error) {
	if err := req.Validate(); err != nil {
		c.reject(err)
		return types.UserRecord{}, err
	}
	if err := c.begin(); err != nil {
		return types.UserRecord{}, err
	}

	rec, err := c.share(ctx, req)
	c.finish(err)
	if err != nil {
		c.log.Error("share failed", "owner_id", req.OwnerID, "error", err)
		return types.UserRecord{}, err
	}
	c.log.Info("share stored", "owner_id", rec.OwnerID, "updated_at", rec.UpdatedAt)
	return rec, nil
}

func (c *Client) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == StatusPending {
		return ErrShareInFlight
	}
	c.status = StatusPending
	c.lastErr = nil
	return nil
}

// reject records a share that failed before reaching the network. A share
// already pending keeps its state.
func (c *Client) reject(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == StatusPending {
		return
	}
	c.status = StatusError
	c.lastErr = err
}

func (c *Client) finish(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.status = StatusError
		c.lastErr = err
		return
	}
	c.status = StatusOK
}

func (c *Client) share(ctx context.Context, req types.ShareRequest) (types.UserRecord, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return types.UserRecord{}, fmt.Errorf("encoding share: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("api", "users"), bytes.NewReader(body))
	if err != nil {
		return types.UserRecord{}, fmt.Errorf("%w: %v", types.ErrTransport, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var rec types.UserRecord
	if err := c.do(httpReq, &rec); err != nil {
		return types.UserRecord{}, err
	}
	return rec, nil
}

// Fetch returns the server's record for ownerID, or an error wrapping
// types.ErrNotFound when the server has none.
func (c *Client) Fetch(ctx context.Context, ownerID string) (types.UserRecord, error) {
	if strings.TrimSpace(ownerID) == "" {
		return types.UserRecord{}, fmt.Errorf("%w: ownerId is required", types.ErrValidation)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("api", "users", url.PathEscape(ownerID)), nil)
	if err != nil {
		return types.UserRecord{}, fmt.Errorf("%w: %v", types.ErrTransport, err)
	}
	var rec types.UserRecord
	if err := c.do(httpReq, &rec); err != nil {
		return types.UserRecord{}, err
	}
	return rec, nil
}

// endpoint joins already-escaped path segments onto the base URL.
func (c *Client) endpoint(segments ...string) string {
	return c.base.JoinPath(segments...).String()
}

// apiError mirrors the server's error envelope.
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", types.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env apiError
		_ = json.Unmarshal(data, &env)
		msg := env.Error.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		switch {
		case resp.StatusCode == http.StatusNotFound:
			return fmt.Errorf("%w: %s", types.ErrNotFound, msg)
		case env.Error.Code == "validation_failed":
			return fmt.Errorf("%w: %w: %s", types.ErrTransport, types.ErrValidation, msg)
		default:
			return fmt.Errorf("%w: server returned %d: %s", types.ErrTransport, resp.StatusCode, msg)
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", types.ErrFormat, err)
	}
	return nil
}
