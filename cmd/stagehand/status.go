package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check requirements without provisioning anything",
	Long: `Status probes every declared requirement and reports whether it is
satisfied. Nothing is provisioned and the recorded configuration is not
modified.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	svc, prefs := newService()

	result, err := svc.Status(cmd.Context(), projectDir, baseOptions(prefs))
	if err != nil {
		return fmt.Errorf("status failed: %w", err)
	}

	printResult(result)
	return nil
}
