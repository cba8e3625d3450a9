package main

// #region imports
import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/vyxenlabs/vyxen-runtime/internal/replay"
)

// #endregion

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to scenario fixture JSON")
	jsonOut := flag.Bool("json", false, "output results as JSON instead of table")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/scenario.json [--json]")
		os.Exit(2)
	}

	fixture, err := replay.LoadFixture(*fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	results, summary, err := replay.Run(context.Background(), fixture)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{"results": results, "summary": summary}); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	} else {
		printTable(results, summary)
	}

	if summary.Mismatched > 0 {
		os.Exit(1)
	}
}

// #endregion main

// #region output

func printTable(results []replay.Result, summary replay.Summary) {
	if summary.Description != "" {
		fmt.Printf("scenario: %s\n\n", summary.Description)
	}
	fmt.Printf("%-20s  %-11s  %-10s  %-8s  %s\n", "Label", "Outcome", "Type", "Match", "Detail")
	for _, r := range results {
		match := "ok"
		if !r.Matched {
			match = "MISMATCH"
		}
		if r.Expected == "" {
			match = "-"
		}
		fmt.Printf("%-20s  %-11s  %-10s  %-8s  %s\n", r.Label, r.Outcome, r.ActionType, match, truncate(r.Detail, 50))
	}
	fmt.Printf("\n%d stimuli: %d matched, %d mismatched (%d committed, %d rejected, %d abstained)\n",
		summary.Total, summary.Matched, summary.Mismatched,
		summary.Committed, summary.Rejected, summary.Abstained)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// #endregion output
