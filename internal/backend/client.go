package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// NetworkErrorMessage is reported for every transport-level failure,
	// including timeouts and unparseable response bodies.
	NetworkErrorMessage = "network error"

	defaultUploadFailure = "upload failed"
	defaultUploadSuccess = "PDF uploaded and processed successfully"
	defaultQueryFailure  = "failed to process query"

	requestIDHeader  = "X-Request-ID"
	maxResponseBytes = 8 << 20
)

// Config configures the backend client.
type Config struct {
	BaseURL    string
	IngestPath string
	QueryPath  string
	HealthPath string
	StatsPath  string
	Timeout    time.Duration
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// Client talks to the ingest and query endpoints of the document backend.
// It implements domain.Ingester and domain.Querier.
type Client struct {
	baseURL    string
	ingestPath string
	queryPath  string
	healthPath string
	statsPath  string
	http       *http.Client
	log        *zap.Logger
}

// ServerError is a non-2xx reply from the backend.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// NewClient creates a backend client, filling unset fields with defaults.
func NewClient(cfg Config, log *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8000"
	}
	if cfg.IngestPath == "" {
		cfg.IngestPath = "/api/v1/ingest"
	}
	if cfg.QueryPath == "" {
		cfg.QueryPath = "/api/v1/query"
	}
	if cfg.HealthPath == "" {
		cfg.HealthPath = "/api/v1/health"
	}
	if cfg.StatsPath == "" {
		cfg.StatsPath = "/api/v1/stats"
	}
	hc := cfg.HTTPClient
	if hc == nil {
		t := cfg.Timeout
		if t == 0 {
			t = 120 * time.Second
		}
		hc = &http.Client{Timeout: t}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		ingestPath: cfg.IngestPath,
		queryPath:  cfg.QueryPath,
		healthPath: cfg.HealthPath,
		statsPath:  cfg.StatsPath,
		http:       hc,
		log:        log.Named("backend"),
	}
}

// BaseURL returns the backend root the client was configured with.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) endpoint(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, *zap.Logger, error) {
	reqID := uuid.NewString()
	url := c.endpoint(path)
	log := c.log.With(zap.String("request_id", reqID), zap.String("method", method), zap.String("url", url))
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, log, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, reqID)
	return req, log, nil
}

// roundTrip sends req and reads the whole body.
func (c *Client) roundTrip(log *zap.Logger, req *http.Request) (int, []byte, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("request failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return 0, nil, err
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		log.Warn("read response body", zap.Int("status", resp.StatusCode), zap.Error(err))
		return resp.StatusCode, nil, err
	}
	log.Debug("response received", zap.Int("status", resp.StatusCode), zap.Int("bytes", len(payload)), zap.Duration("elapsed", time.Since(start)))
	return resp.StatusCode, payload, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, log, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	status, payload, err := c.roundTrip(log, req)
	if err != nil {
		return err
	}
	if !isSuccess(status) {
		return &ServerError{Status: status, Message: serverMessage(payload)}
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func isSuccess(status int) bool { return status >= 200 && status < 300 }
