package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Check and provision everything the project requires",
	Long: `Prepare resolves the project's declared requirements.

Each requirement is checked first; already-satisfied requirements are
left alone, so a prepared project resolves to a no-op. Unmet
requirements are provisioned in dependency order. A failure blocks the
requirements that depend on it but independent requirements still
complete.`,
	RunE: runPrepare,
}

var (
	prepareOffline    bool
	prepareRequireAll bool
)

func init() {
	rootCmd.AddCommand(prepareCmd)

	prepareCmd.Flags().BoolVar(&prepareOffline, "offline", false, "Fail provisioning steps that need the network instead of running them")
	prepareCmd.Flags().BoolVar(&prepareRequireAll, "require-all", false, "Treat any unmet requirement as a run failure")
}

func runPrepare(cmd *cobra.Command, _ []string) error {
	svc, prefs := newService()

	opts := baseOptions(prefs)
	if prepareOffline {
		opts.AllowNetwork = false
	}
	opts.RequireAll = prepareRequireAll

	result, err := svc.Prepare(cmd.Context(), projectDir, opts)
	if err != nil {
		return fmt.Errorf("prepare failed: %w", err)
	}

	printResult(result)
	if !result.Succeeded() {
		return fmt.Errorf("%d of %d requirements are not satisfied", unmetCount(result), len(result.Outcomes()))
	}
	return nil
}
