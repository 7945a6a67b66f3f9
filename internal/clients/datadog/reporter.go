package datadog

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"

	"claimbuddy/internal/buildinfo"
	"claimbuddy/internal/claims/domain"
	"claimbuddy/internal/claims/ports"
	"claimbuddy/internal/errors"
)

const logSource = "claimbuddy"

// SummaryReporter sends the end-of-run summary to Datadog Logs as one JSON log line
type SummaryReporter struct {
	client  DatadogInterface
	service string
	tags    []string
}

var _ ports.SummaryReporter = (*SummaryReporter)(nil)

// NewSummaryReporter creates a reporter tagging logs with service and tags
func NewSummaryReporter(client DatadogInterface, service string, tags []string) *SummaryReporter {
	return &SummaryReporter{client: client, service: service, tags: tags}
}

type summaryLog struct {
	Event   string         `json:"event"`
	Version string         `json:"version"`
	Status  string         `json:"status"`
	Summary domain.Summary `json:"summary"`
}

// ReportSummary submits the summary. A failure is returned as a transport error for the caller to log.
func (r *SummaryReporter) ReportSummary(ctx context.Context, summary domain.Summary) error {
	status := "info"
	if !summary.Completed || summary.Counters.ClaimFailed > 0 {
		status = "warn"
	}
	message, err := json.Marshal(summaryLog{
		Event:   "claims_run_summary",
		Version: buildinfo.Version,
		Status:  status,
		Summary: summary,
	})
	if err != nil {
		return errors.Unexpected("datadog_submit", err)
	}

	item := datadogV2.NewHTTPLogItem(string(message))
	item.SetDdsource(logSource)
	if r.service != "" {
		item.SetService(r.service)
	}
	if host, err := os.Hostname(); err == nil {
		item.SetHostname(host)
	}
	tags := append([]string{"env:" + buildinfo.BuildEnvironment}, r.tags...)
	if summary.RunID != "" {
		tags = append(tags, "run_id:"+summary.RunID)
	}
	item.SetDdtags(strings.Join(tags, ","))

	if _, _, err := r.client.SubmitLogs(ctx, []datadogV2.HTTPLogItem{*item}, nil); err != nil {
		return errors.Transport("datadog_submit", err)
	}
	return nil
}
