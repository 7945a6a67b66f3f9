package datadog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimbuddy/internal/claims/domain"
	"claimbuddy/internal/errors"
)

// MockDatadogClient is a mock implementation of DatadogInterface
type MockDatadogClient struct {
	SubmitLogsFunc func(ctx context.Context, body []datadogV2.HTTPLogItem, opts *datadogV2.SubmitLogOptionalParameters) (any, *http.Response, error)
	Submitted      []datadogV2.HTTPLogItem
}

func (m *MockDatadogClient) SubmitLogs(ctx context.Context, body []datadogV2.HTTPLogItem, opts *datadogV2.SubmitLogOptionalParameters) (any, *http.Response, error) {
	m.Submitted = append(m.Submitted, body...)
	if m.SubmitLogsFunc != nil {
		return m.SubmitLogsFunc(ctx, body, opts)
	}
	return map[string]any{}, nil, nil
}

func TestReportSummary(t *testing.T) {
	client := &MockDatadogClient{}
	reporter := NewSummaryReporter(client, "claimbuddy", []string{"team:custody"})

	err := reporter.ReportSummary(context.Background(), domain.Summary{
		RunID:     "run-9",
		Completed: true,
		Batches:   3,
		Counters:  domain.Counters{Processed: 60, Claimed: 40},
	})
	require.NoError(t, err)
	require.Len(t, client.Submitted, 1)

	item := client.Submitted[0]
	assert.Equal(t, "claimbuddy", item.GetService())
	assert.Equal(t, logSource, item.GetDdsource())
	assert.Contains(t, item.GetDdtags(), "team:custody")
	assert.Contains(t, item.GetDdtags(), "run_id:run-9")

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(item.Message), &payload))
	assert.Equal(t, "claims_run_summary", payload["event"])
	assert.Equal(t, "info", payload["status"])
	summary := payload["summary"].(map[string]any)
	assert.Equal(t, float64(40), summary["counters"].(map[string]any)["claimed"])
}

func TestReportSummaryInterruptedIsWarn(t *testing.T) {
	client := &MockDatadogClient{}
	require.NoError(t, NewSummaryReporter(client, "", nil).ReportSummary(context.Background(), domain.Summary{}))
	assert.True(t, strings.Contains(client.Submitted[0].Message, `"status":"warn"`))
}

func TestReportSummaryFailure(t *testing.T) {
	client := &MockDatadogClient{
		SubmitLogsFunc: func(context.Context, []datadogV2.HTTPLogItem, *datadogV2.SubmitLogOptionalParameters) (any, *http.Response, error) {
			return nil, nil, fmt.Errorf("403 Forbidden")
		},
	}
	err := NewSummaryReporter(client, "svc", nil).ReportSummary(context.Background(), domain.Summary{Completed: true})
	assert.True(t, errors.IsType(err, errors.ErrorTypeTransport))
}

func TestDatadogClientSubmitLogs(t *testing.T) {
	transport := httpmock.NewMockTransport()
	var apiKey string
	transport.RegisterResponder(http.MethodPost, "https://dd.test/api/v2/logs",
		func(req *http.Request) (*http.Response, error) {
			apiKey = req.Header.Get("DD-API-KEY")
			return httpmock.NewStringResponse(202, `{}`), nil
		})

	client := NewDatadogClient(DatadogConfig{BaseURL: "https://dd.test", APIKey: "secret"}, &http.Client{Transport: transport})
	_, _, err := client.SubmitLogs(context.Background(), []datadogV2.HTTPLogItem{*datadogV2.NewHTTPLogItem("hello")}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, transport.GetTotalCallCount())
	assert.Equal(t, "secret", apiKey)
}
