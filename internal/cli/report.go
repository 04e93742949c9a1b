// Package cli — report.go renders step execution results in text or
// JSON form, shared by the up and install commands.
package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shinji-kodama/devstrap/internal/model"
)

// stepResultJSON is the wire form of one step result for --json
// output. Errors are flattened to strings because error values do not
// marshal usefully.
type stepResultJSON struct {
	Kind       string `json:"kind"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	ExitStatus int    `json:"exitStatus"`
	DurationMS int64  `json:"durationMs"`
	Error      string `json:"error,omitempty"`
}

// printStepResults outputs the result of a plan execution in the
// format selected by the --json flag.
func printStepResults(results []model.StepResult) {
	if IsJSONOutput() {
		printStepResultsJSON(results)
	} else {
		printStepResultsText(results)
	}
}

// printStepResultsJSON outputs the results as a JSON array on stdout.
func printStepResultsJSON(results []model.StepResult) {
	out := make([]stepResultJSON, 0, len(results))
	for _, r := range results {
		jr := stepResultJSON{
			Kind:       r.Kind.String(),
			Name:       r.Name,
			Status:     r.Status.String(),
			ExitStatus: r.ExitStatus,
			DurationMS: r.Duration.Milliseconds(),
		}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		}
		out = append(out, jr)
	}

	data, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(data))
}

// printStepResultsText outputs a compact per-step summary table.
func printStepResultsText(results []model.StepResult) {
	for _, r := range results {
		marker := "ok"
		switch r.Status {
		case model.StepFailed:
			marker = fmt.Sprintf("FAILED (exit %d)", r.ExitStatus)
		case model.StepSkipped:
			marker = "skipped"
		}

		if r.Status == model.StepSkipped {
			fmt.Printf("  %-28s %s\n", r.Name, marker)
			continue
		}
		fmt.Printf("  %-28s %s  (%s)\n", r.Name, marker, formatDuration(r.Duration))
	}
}

// formatDuration renders a duration for human output: sub-second
// durations in milliseconds, everything else in rounded seconds.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(100 * time.Millisecond).String()
}
