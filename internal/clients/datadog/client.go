package datadog

import (
	"context"
	"net/http"
	"strings"
	"time"

	datadogapi "github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"

	"claimbuddy/internal/config"
	"claimbuddy/internal/logging"
)

type DatadogClient struct {
	config  DatadogConfig
	logsAPI *datadogV2.LogsApi
	logger  *logging.Logger
}

type DatadogConfig struct {
	BaseURL string
	APIKey  string
	AppKey  string
	Timeout time.Duration
}

// ConfigFrom extracts the Datadog settings from the application config
func ConfigFrom(cfg config.DatadogConfig) DatadogConfig {
	return DatadogConfig{
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		APIKey:  cfg.APIKey,
		AppKey:  cfg.AppKey,
		Timeout: 30 * time.Second,
	}
}

// NewDatadogClient builds a Logs API client. httpClient may be nil.
func NewDatadogClient(cfg DatadogConfig, httpClient *http.Client) *DatadogClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	apiCfg := datadogapi.NewConfiguration()
	apiCfg.HTTPClient = httpClient
	apiCfg.Servers = datadogapi.ServerConfigurations{{URL: cfg.BaseURL}}
	apiCfg.OperationServers = map[string]datadogapi.ServerConfigurations{
		"LogsApi.SubmitLog": {{URL: cfg.BaseURL}},
	}

	return &DatadogClient{
		config:  cfg,
		logsAPI: datadogV2.NewLogsApi(datadogapi.NewAPIClient(apiCfg)),
		logger:  logging.NewDefaultLogger("datadog"),
	}
}

func (c *DatadogClient) authContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, datadogapi.ContextAPIKeys, map[string]datadogapi.APIKey{
		"apiKeyAuth": {Key: c.config.APIKey},
		"appKeyAuth": {Key: c.config.AppKey},
	})
}

func (c *DatadogClient) SubmitLogs(ctx context.Context, body []datadogV2.HTTPLogItem, opts *datadogV2.SubmitLogOptionalParameters) (any, *http.Response, error) {
	var (
		resp     any
		httpResp *http.Response
		err      error
	)
	authCtx := c.authContext(ctx)
	if opts != nil {
		resp, httpResp, err = c.logsAPI.SubmitLog(authCtx, body, *opts)
	} else {
		resp, httpResp, err = c.logsAPI.SubmitLog(authCtx, body)
	}
	if httpResp != nil && httpResp.Body != nil {
		defer func() { _ = httpResp.Body.Close() }()
	}
	if err != nil {
		c.logger.Debug("submit logs failed: %v", err)
	}
	return resp, httpResp, err
}
