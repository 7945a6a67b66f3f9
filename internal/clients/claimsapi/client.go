package claimsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"claimbuddy/internal/claims/domain"
	"claimbuddy/internal/claims/ports"
	"claimbuddy/internal/errors"
	"claimbuddy/internal/logging"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
)

// maxLoggedBody caps how much of an error body ends up in logs
const maxLoggedBody = 512

// CallObserver is told about every remote call and how it ended
type CallObserver interface {
	ObserveRemoteCall(operation string, err error, elapsed time.Duration)
}

// Client talks JSON over HTTP to the claims service
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *logging.Logger
	observer   CallObserver
}

// Ensure Client implements the remote port
var _ ports.RemoteClient = (*Client)(nil)

// Option customises a Client
type Option func(*Client)

// WithHTTPClient replaces the default transport
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger replaces the default logger
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithObserver records call outcomes, typically into metrics
func WithObserver(o CallObserver) Option {
	return func(c *Client) { c.observer = o }
}

// NewClient builds a client. Timeouts are applied per call, so the http.Client itself has none.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.Timeouts == (Timeouts{}) {
		cfg.Timeouts = DefaultTimeouts
	}
	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry.MaxAttempts = 1
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	c := &Client{
		config:     cfg,
		httpClient: &http.Client{},
		logger:     logging.NewDefaultLogger("claimsapi"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type eligibilityResponse struct {
	Value *decimal.Decimal `json:"value"`
}

type claimRequest struct {
	OriginVaultAccountID string `json:"originVaultAccountId"`
	DestinationAddress   string `json:"destinationAddress"`
}

type clearPoolResponse struct {
	Message string `json:"message"`
}

// CheckEligibility returns the claimable value. A missing or null value is a malformed response.
func (c *Client) CheckEligibility(ctx context.Context, accountID string, chain domain.Chain) (*decimal.Decimal, error) {
	start := time.Now()
	value, err := c.checkEligibility(ctx, accountID, chain)
	c.observe(OpCheckEligibility, err, start, accountID, chain)
	return value, err
}

func (c *Client) checkEligibility(ctx context.Context, accountID string, chain domain.Chain) (*decimal.Decimal, error) {
	path := "/api/check/" + url.PathEscape(string(chain)) + "/" + url.PathEscape(accountID)
	data, err := c.get(ctx, OpCheckEligibility, path, c.config.Timeouts.Eligibility)
	if err != nil {
		return nil, err
	}

	var resp eligibilityResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errors.Malformed(OpCheckEligibility, err)
	}
	if resp.Value == nil {
		return nil, errors.Malformed(OpCheckEligibility, nil).WithContext("body", truncate(data))
	}
	return resp.Value, nil
}

// CheckClaimHistory returns prior claims for the account. An empty slice means none exist.
func (c *Client) CheckClaimHistory(ctx context.Context, accountID string, chain domain.Chain) ([]json.RawMessage, error) {
	start := time.Now()
	claims, err := c.checkClaimHistory(ctx, accountID, chain)
	c.observe(OpCheckClaimHistory, err, start, accountID, chain)
	return claims, err
}

func (c *Client) checkClaimHistory(ctx context.Context, accountID string, chain domain.Chain) ([]json.RawMessage, error) {
	path := "/api/claims/" + url.PathEscape(string(chain)) + "/" + url.PathEscape(accountID)
	data, err := c.get(ctx, OpCheckClaimHistory, path, c.config.Timeouts.History)
	if err != nil {
		return nil, err
	}

	var claims []json.RawMessage
	if err := json.Unmarshal(data, &claims); err != nil {
		return nil, errors.Malformed(OpCheckClaimHistory, err)
	}
	if claims == nil {
		claims = []json.RawMessage{}
	}
	return claims, nil
}

// SubmitClaim posts a claim moving the account's allocation to destination. Never retried.
func (c *Client) SubmitClaim(ctx context.Context, accountID string, chain domain.Chain, destination string) (json.RawMessage, error) {
	start := time.Now()
	payload, err := c.submitClaim(ctx, accountID, chain, destination)
	c.observe(OpSubmitClaim, err, start, accountID, chain)
	return payload, err
}

func (c *Client) submitClaim(ctx context.Context, accountID string, chain domain.Chain, destination string) (json.RawMessage, error) {
	body, err := json.Marshal(claimRequest{OriginVaultAccountID: accountID, DestinationAddress: destination})
	if err != nil {
		return nil, errors.Unexpected(OpSubmitClaim, err)
	}

	path := "/api/claims/" + url.PathEscape(string(chain))
	data, err := c.do(ctx, OpSubmitClaim, http.MethodPost, path, body, c.config.Timeouts.Submission)
	if err != nil {
		return nil, err
	}

	if !json.Valid(data) {
		return nil, errors.Malformed(OpSubmitClaim, fmt.Errorf("invalid JSON body"))
	}
	if isEmptyJSON(data) {
		return nil, errors.Malformed(OpSubmitClaim, nil).WithContext("body", truncate(data))
	}
	return json.RawMessage(data), nil
}

// GetPoolMetrics reads the service's SDK pool metrics
func (c *Client) GetPoolMetrics(ctx context.Context) (*domain.PoolMetrics, error) {
	start := time.Now()
	metrics, err := c.getPoolMetrics(ctx)
	c.observe(OpGetPoolMetrics, err, start, "", "")
	return metrics, err
}

func (c *Client) getPoolMetrics(ctx context.Context) (*domain.PoolMetrics, error) {
	data, err := c.get(ctx, OpGetPoolMetrics, "/metrics", c.config.Timeouts.Metrics)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Malformed(OpGetPoolMetrics, err)
	}
	if len(raw) == 0 {
		return nil, errors.Malformed(OpGetPoolMetrics, nil).WithContext("body", truncate(data))
	}

	metrics := &domain.PoolMetrics{Raw: raw}
	if v, ok := raw["totalInstances"]; ok && v != nil {
		n, ok := v.(float64)
		if !ok {
			return nil, errors.Malformed(OpGetPoolMetrics, fmt.Errorf("totalInstances is %T, want number", v))
		}
		metrics.TotalInstances = int(n)
	}
	return metrics, nil
}

// ClearPool asks the service to drop idle SDK instances and returns its message
func (c *Client) ClearPool(ctx context.Context) (string, error) {
	start := time.Now()
	message, err := c.clearPool(ctx)
	c.observe(OpClearPool, err, start, "", "")
	return message, err
}

func (c *Client) clearPool(ctx context.Context) (string, error) {
	data, err := c.do(ctx, OpClearPool, http.MethodPost, "/clear-pool", nil, c.config.Timeouts.ClearPool)
	if err != nil {
		return "", err
	}

	var resp clearPoolResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", errors.Malformed(OpClearPool, err)
	}
	if resp.Message == "" {
		resp.Message = "Success"
	}
	return resp.Message, nil
}

// Health succeeds when the service answers 200 on /health
func (c *Client) Health(ctx context.Context) error {
	start := time.Now()
	_, err := c.do(ctx, OpHealth, http.MethodGet, "/health", nil, c.config.Timeouts.Health)
	c.observe(OpHealth, err, start, "", "")
	return err
}

// get issues an idempotent request, retrying transport and 5xx failures when configured
func (c *Client) get(ctx context.Context, op, path string, timeout time.Duration) ([]byte, error) {
	if c.config.Retry.MaxAttempts <= 1 {
		return c.do(ctx, op, http.MethodGet, path, nil, timeout)
	}

	b := backoff.NewExponentialBackOff()
	if c.config.Retry.InitialInterval > 0 {
		b.InitialInterval = c.config.Retry.InitialInterval
	}
	if c.config.Retry.MaxInterval > 0 {
		b.MaxInterval = c.config.Retry.MaxInterval
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.config.Retry.MaxAttempts-1)), ctx)

	var data []byte
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		out, err := c.do(ctx, op, http.MethodGet, path, nil, timeout)
		if err == nil {
			data = out
			return nil
		}
		if !isRetryable(err) {
			return backoff.Permanent(err)
		}
		c.logger.Debug("%s attempt %d failed, retrying: %v", op, attempt, err)
		return err
	}, policy)
	if err != nil {
		if errors.TypeOf(err) == "" {
			// context cancelled between attempts
			return nil, errors.Transport(op, err)
		}
		return nil, err
	}
	return data, nil
}

// do performs one request and classifies any failure. Only a 200 response counts as success.
func (c *Client) do(ctx context.Context, op, method, path string, body []byte, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return nil, errors.Unexpected(op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Transport(op, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Debug("%s: failed to close response body: %v", op, err)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Transport(op, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Protocol(op, resp.StatusCode, truncate(data))
	}
	return data, nil
}

func (c *Client) observe(op string, err error, start time.Time, accountID string, chain domain.Chain) {
	elapsed := time.Since(start)
	if c.observer != nil {
		c.observer.ObserveRemoteCall(op, err, elapsed)
	}
	if err == nil {
		return
	}

	fields := map[string]any{"operation": op, "kind": string(errors.TypeOf(err))}
	if accountID != "" {
		fields["account_id"] = accountID
		fields["chain"] = string(chain)
	}
	if status := errors.StatusCode(err); status != 0 {
		fields["status"] = status
	}
	c.logger.WithFields(fields).Warn("%s failed: %v", op, err)
}

func isRetryable(err error) bool {
	switch errors.TypeOf(err) {
	case errors.ErrorTypeTransport:
		return true
	case errors.ErrorTypeProtocol:
		return errors.StatusCode(err) >= 500
	}
	return false
}

func isEmptyJSON(data []byte) bool {
	switch strings.TrimSpace(string(data)) {
	case "", "null", "{}", "[]", `""`:
		return true
	}
	return false
}

func truncate(data []byte) string {
	if len(data) > maxLoggedBody {
		return string(data[:maxLoggedBody]) + "..."
	}
	return string(data)
}
