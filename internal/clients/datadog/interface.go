package datadog

import (
	"context"
	"net/http"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"
)

// DatadogInterface is the part of the Datadog API this tool uses
type DatadogInterface interface {
	SubmitLogs(ctx context.Context, body []datadogV2.HTTPLogItem, opts *datadogV2.SubmitLogOptionalParameters) (any, *http.Response, error)
}
