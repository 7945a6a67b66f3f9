package claimsapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"claimbuddy/internal/claims/domain"
	apperrors "claimbuddy/internal/errors"
	"claimbuddy/internal/logging"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseURL = "http://claims.test"

type recordingObserver struct {
	calls []string
	kinds []apperrors.ErrorType
}

func (o *recordingObserver) ObserveRemoteCall(operation string, err error, _ time.Duration) {
	o.calls = append(o.calls, operation)
	o.kinds = append(o.kinds, apperrors.TypeOf(err))
}

func newTestClient(t *testing.T, cfg Config) (*Client, *httpmock.MockTransport, *recordingObserver) {
	t.Helper()
	transport := httpmock.NewMockTransport()
	observer := &recordingObserver{}
	if cfg.BaseURL == "" {
		cfg.BaseURL = baseURL + "/"
	}
	client := NewClient(cfg,
		WithHTTPClient(&http.Client{Transport: transport}),
		WithLogger(logging.Discard()),
		WithObserver(observer),
	)
	return client, transport, observer
}

func TestCheckEligibility(t *testing.T) {
	url := baseURL + "/api/check/cardano/1001"

	tests := []struct {
		name      string
		responder httpmock.Responder
		want      string
		kind      apperrors.ErrorType
	}{
		{"number", httpmock.NewStringResponder(200, `{"value": 125.5}`), "125.5", ""},
		{"zero is returned as is", httpmock.NewStringResponder(200, `{"value": 0}`), "0", ""},
		{"quoted number", httpmock.NewStringResponder(200, `{"value": "42"}`), "42", ""},
		{"null value", httpmock.NewStringResponder(200, `{"value": null}`), "", apperrors.ErrorTypeMalformed},
		{"missing value", httpmock.NewStringResponder(200, `{"other": 1}`), "", apperrors.ErrorTypeMalformed},
		{"bad json", httpmock.NewStringResponder(200, `not json`), "", apperrors.ErrorTypeMalformed},
		{"non-200", httpmock.NewStringResponder(404, `{"error":"unknown vault"}`), "", apperrors.ErrorTypeProtocol},
		{"created is not ok", httpmock.NewStringResponder(201, `{"value": 1}`), "", apperrors.ErrorTypeProtocol},
		{"transport", httpmock.NewErrorResponder(errors.New("connection refused")), "", apperrors.ErrorTypeTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, transport, observer := newTestClient(t, Config{})
			transport.RegisterResponder(http.MethodGet, url, tt.responder)

			value, err := client.CheckEligibility(context.Background(), "1001", domain.ChainCardano)
			if tt.kind != "" {
				require.Error(t, err)
				assert.Nil(t, value)
				assert.Equal(t, tt.kind, apperrors.TypeOf(err))
			} else {
				require.NoError(t, err)
				require.NotNil(t, value)
				assert.Equal(t, tt.want, value.String())
			}
			assert.Equal(t, []string{OpCheckEligibility}, observer.calls)
			assert.Equal(t, []apperrors.ErrorType{tt.kind}, observer.kinds)
		})
	}
}

func TestCheckEligibilityTimeout(t *testing.T) {
	client, transport, _ := newTestClient(t, Config{Timeouts: Timeouts{
		Eligibility: 20 * time.Millisecond, History: time.Second, Submission: time.Second,
		Metrics: time.Second, ClearPool: time.Second, Health: time.Second,
	}})
	transport.RegisterResponder(http.MethodGet, baseURL+"/api/check/xrp/7",
		func(req *http.Request) (*http.Response, error) {
			<-req.Context().Done()
			return nil, req.Context().Err()
		})

	start := time.Now()
	_, err := client.CheckEligibility(context.Background(), "7", domain.ChainXRP)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeTransport, apperrors.TypeOf(err))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestCheckClaimHistory(t *testing.T) {
	url := baseURL + "/api/claims/solana/55"

	t.Run("empty list", func(t *testing.T) {
		client, transport, _ := newTestClient(t, Config{})
		transport.RegisterResponder(http.MethodGet, url, httpmock.NewStringResponder(200, `[]`))

		claims, err := client.CheckClaimHistory(context.Background(), "55", domain.ChainSolana)
		require.NoError(t, err)
		assert.NotNil(t, claims)
		assert.Empty(t, claims)
	})

	t.Run("null reads as empty", func(t *testing.T) {
		client, transport, _ := newTestClient(t, Config{})
		transport.RegisterResponder(http.MethodGet, url, httpmock.NewStringResponder(200, `null`))

		claims, err := client.CheckClaimHistory(context.Background(), "55", domain.ChainSolana)
		require.NoError(t, err)
		assert.NotNil(t, claims)
	})

	t.Run("entries kept verbatim", func(t *testing.T) {
		client, transport, _ := newTestClient(t, Config{})
		transport.RegisterResponder(http.MethodGet, url,
			httpmock.NewStringResponder(200, `[{"id":"a"},{"id":"b"}]`))

		claims, err := client.CheckClaimHistory(context.Background(), "55", domain.ChainSolana)
		require.NoError(t, err)
		require.Len(t, claims, 2)
		assert.JSONEq(t, `{"id":"a"}`, string(claims[0]))
	})

	t.Run("object is malformed", func(t *testing.T) {
		client, transport, _ := newTestClient(t, Config{})
		transport.RegisterResponder(http.MethodGet, url, httpmock.NewStringResponder(200, `{"id":"a"}`))

		claims, err := client.CheckClaimHistory(context.Background(), "55", domain.ChainSolana)
		assert.Nil(t, claims)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeMalformed))
	})

	t.Run("server error", func(t *testing.T) {
		client, transport, _ := newTestClient(t, Config{})
		transport.RegisterResponder(http.MethodGet, url, httpmock.NewStringResponder(500, `boom`))

		_, err := client.CheckClaimHistory(context.Background(), "55", domain.ChainSolana)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeProtocol))
		assert.Equal(t, 500, apperrors.StatusCode(err))
	})
}

func TestSubmitClaim(t *testing.T) {
	url := baseURL + "/api/claims/bitcoin"

	t.Run("posts body and returns payload", func(t *testing.T) {
		client, transport, _ := newTestClient(t, Config{})
		transport.RegisterResponder(http.MethodPost, url, func(req *http.Request) (*http.Response, error) {
			var body map[string]string
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				return httpmock.NewStringResponse(400, err.Error()), nil
			}
			assert.Equal(t, "900", body["originVaultAccountId"])
			assert.Equal(t, "addr1xyz", body["destinationAddress"])
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
			return httpmock.NewStringResponse(200, `{"claimId":"c-1","status":"queued"}`), nil
		})

		payload, err := client.SubmitClaim(context.Background(), "900", domain.ChainBitcoin, "addr1xyz")
		require.NoError(t, err)
		assert.JSONEq(t, `{"claimId":"c-1","status":"queued"}`, string(payload))
	})

	t.Run("empty payload is a failure", func(t *testing.T) {
		client, transport, _ := newTestClient(t, Config{})
		transport.RegisterResponder(http.MethodPost, url, httpmock.NewStringResponder(200, `{}`))

		_, err := client.SubmitClaim(context.Background(), "900", domain.ChainBitcoin, "addr1xyz")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeMalformed))
	})

	t.Run("never retried", func(t *testing.T) {
		client, transport, _ := newTestClient(t, Config{Retry: RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}})
		transport.RegisterResponder(http.MethodPost, url, httpmock.NewStringResponder(503, `busy`))

		_, err := client.SubmitClaim(context.Background(), "900", domain.ChainBitcoin, "addr1xyz")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeProtocol))
		assert.Equal(t, 1, transport.GetTotalCallCount())
	})
}

func TestGetRetries(t *testing.T) {
	url := baseURL + "/api/check/bnb/3"
	client, transport, _ := newTestClient(t, Config{Retry: RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}})

	calls := 0
	transport.RegisterResponder(http.MethodGet, url, func(req *http.Request) (*http.Response, error) {
		calls++
		if calls < 3 {
			return httpmock.NewStringResponse(502, `bad gateway`), nil
		}
		return httpmock.NewStringResponse(200, `{"value": 3}`), nil
	})

	value, err := client.CheckEligibility(context.Background(), "3", domain.ChainBNB)
	require.NoError(t, err)
	assert.Equal(t, "3", value.String())
	assert.Equal(t, 3, calls)
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	url := baseURL + "/api/check/bnb/3"
	client, transport, _ := newTestClient(t, Config{Retry: RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}})
	transport.RegisterResponder(http.MethodGet, url, httpmock.NewStringResponder(404, `nope`))

	_, err := client.CheckEligibility(context.Background(), "3", domain.ChainBNB)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeProtocol))
	assert.Equal(t, 1, transport.GetTotalCallCount())
}

func TestPoolEndpoints(t *testing.T) {
	t.Run("metrics", func(t *testing.T) {
		client, transport, _ := newTestClient(t, Config{})
		transport.RegisterResponder(http.MethodGet, baseURL+"/metrics",
			httpmock.NewStringResponder(200, `{"totalInstances": 161, "idleInstances": 40}`))

		metrics, err := client.GetPoolMetrics(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 161, metrics.TotalInstances)
		assert.Equal(t, float64(40), metrics.Raw["idleInstances"])
	})

	t.Run("empty metrics are unavailable", func(t *testing.T) {
		client, transport, _ := newTestClient(t, Config{})
		transport.RegisterResponder(http.MethodGet, baseURL+"/metrics", httpmock.NewStringResponder(200, `{}`))

		_, err := client.GetPoolMetrics(context.Background())
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeMalformed))
	})

	t.Run("clear", func(t *testing.T) {
		client, transport, _ := newTestClient(t, Config{})
		transport.RegisterResponder(http.MethodPost, baseURL+"/clear-pool",
			httpmock.NewStringResponder(200, `{"message":"Cleared 12 idle instances"}`))

		message, err := client.ClearPool(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Cleared 12 idle instances", message)
	})

	t.Run("health", func(t *testing.T) {
		client, transport, observer := newTestClient(t, Config{})
		transport.RegisterResponder(http.MethodGet, baseURL+"/health", httpmock.NewStringResponder(200, `ok`))

		assert.NoError(t, client.Health(context.Background()))
		assert.Equal(t, []string{OpHealth}, observer.calls)
	})
}
