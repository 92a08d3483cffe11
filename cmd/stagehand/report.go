package main

import (
	"fmt"

	"github.com/stagehand-dev/stagehand/internal/domain/resolve"
)

// outcomeMark maps an outcome to the symbol shown in reports.
func outcomeMark(outcome resolve.Outcome) string {
	switch outcome {
	case resolve.OutcomeSatisfied:
		return "✓"
	case resolve.OutcomeProvisioned:
		return "+"
	case resolve.OutcomeBlocked:
		return "⊘"
	case resolve.OutcomeCancelled:
		return "…"
	default:
		return "✗"
	}
}

// printResult renders one line per requirement plus a summary.
func printResult(result *resolve.Result) {
	for _, outcome := range result.Outcomes() {
		fmt.Printf("  %s %s  %s\n", outcomeMark(outcome.Outcome()), outcome.Identity(), outcome.Status().Detail())
		if outcome.Error() != nil && verbose {
			fmt.Printf("      %v\n", outcome.Error())
		}
	}

	fmt.Printf("\n%d requirements, %d provisioned", len(result.Outcomes()), result.ProvisionCount())
	if result.Cancelled() {
		fmt.Print(", run cancelled")
	}
	fmt.Printf(" (%s)\n", result.Overall())
}

// unmetCount counts outcomes that did not end satisfied or provisioned.
func unmetCount(result *resolve.Result) int {
	n := 0
	for _, outcome := range result.Outcomes() {
		if !outcome.Outcome().Met() {
			n++
		}
	}
	return n
}
