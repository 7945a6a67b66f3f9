package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"claimbuddy/internal/claims/domain"
)

// TruncateText truncates text to the specified length, adding "..." if truncated
func TruncateText(text string, maxLen int) string {
	if text == "" {
		return ""
	}

	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return text[:maxLen]
	}
	return text[:maxLen-3] + "..."
}

// PrintSummary writes the end-of-run report
func PrintSummary(w io.Writer, s domain.Summary) {
	state := "COMPLETED"
	switch {
	case !s.Completed:
		state = "INTERRUPTED"
	case s.DryRun:
		state = "COMPLETED (dry run)"
	}

	c := s.Counters
	fmt.Fprintf(w, "\n=== Claims run %s ===\n", state)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if s.RunID != "" {
		fmt.Fprintf(tw, "Run ID:\t%s\n", s.RunID)
	}
	fmt.Fprintf(tw, "Records consumed:\t%d/%d\n", s.Consumed, s.Total)
	fmt.Fprintf(tw, "Batches:\t%d (size %d)\n", s.Batches, s.BatchSize)
	fmt.Fprintf(tw, "Processed:\t%d\n", c.Processed)
	fmt.Fprintf(tw, "Eligible:\t%d\n", c.Eligible)
	fmt.Fprintf(tw, "Unclaimable:\t%d\n", c.Unclaimable)
	fmt.Fprintf(tw, "Already claimed:\t%d\n", c.AlreadyClaimed)
	fmt.Fprintf(tw, "Claimed:\t%d\n", c.Claimed)
	fmt.Fprintf(tw, "Claim failed:\t%d\n", c.ClaimFailed)
	fmt.Fprintf(tw, "Error checking claims:\t%d\n", c.ErrorCheckingClaims)
	if c.NotProcessed > 0 {
		fmt.Fprintf(tw, "Not processed:\t%d\n", c.NotProcessed)
	}
	if c.Invalid > 0 {
		fmt.Fprintf(tw, "Invalid:\t%d\n", c.Invalid)
	}
	fmt.Fprintf(tw, "Output:\t%s\n", s.OutputFile)
	fmt.Fprintf(tw, "Duration:\t%s\n", s.Duration.Round(time.Second))
	_ = tw.Flush()
}

// PrintRuns writes one line per recorded run
func PrintRuns(w io.Writer, runs []domain.RunInfo) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tSTATUS\tSTARTED\tBATCHES\tCONSUMED\tCLAIMED\tINPUT")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.ID, r.Status, r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Batches, r.Consumed, r.Counters.Claimed, TruncateText(r.InputFile, 40))
	}
	_ = tw.Flush()
}

// PrintRun writes the details of one run
func PrintRun(w io.Writer, r domain.RunInfo) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Run ID:\t%s\n", r.ID)
	fmt.Fprintf(tw, "Status:\t%s\n", r.Status)
	fmt.Fprintf(tw, "Input:\t%s\n", r.InputFile)
	fmt.Fprintf(tw, "Output:\t%s\n", r.OutputFile)
	fmt.Fprintf(tw, "Destination:\t%s\n", r.DestinationAddress)
	fmt.Fprintf(tw, "Batch size:\t%d\n", r.BatchSize)
	fmt.Fprintf(tw, "Started:\t%s\n", r.StartedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(tw, "Updated:\t%s\n", r.UpdatedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(tw, "Batches:\t%d\n", r.Batches)
	fmt.Fprintf(tw, "Consumed:\t%d\n", r.Consumed)
	fmt.Fprintf(tw, "Claimed:\t%d\n", r.Counters.Claimed)
	fmt.Fprintf(tw, "Already claimed:\t%d\n", r.Counters.AlreadyClaimed)
	fmt.Fprintf(tw, "Claim failed:\t%d\n", r.Counters.ClaimFailed)
	fmt.Fprintf(tw, "Error checking claims:\t%d\n", r.Counters.ErrorCheckingClaims)
	_ = tw.Flush()
}

// PrintPoolMetrics writes the pool metrics with utilisation against maxSize
func PrintPoolMetrics(w io.Writer, m domain.PoolMetrics, maxSize int) {
	fmt.Fprintf(w, "Pool: %d/%d instances (%.1f%%)\n", m.TotalInstances, maxSize, m.Utilisation(maxSize))

	keys := make([]string, 0, len(m.Raw))
	for k := range m.Raw {
		if k != "totalInstances" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, k := range keys {
		fmt.Fprintf(tw, "  %s:\t%v\n", k, m.Raw[k])
	}
	_ = tw.Flush()
}
