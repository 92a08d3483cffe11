package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Resolve the project and lock the recorded answers",
	Long: `Lock runs a full resolution and, when every requirement ends
satisfied, marks the resolved configuration as locked. Later runs on
other machines reuse the locked answers instead of re-deriving them.

Locking refuses to override values you set by hand unless --force is
given.`,
	RunE: runLock,
}

var unlockCmd = &cobra.Command{
	Use:   "unlock [identity]",
	Short: "Release locked configuration entries",
	Long: `Unlock retags locked entries as ordinary auto-provisioned values so
the next resolution may replace them. With an identity argument only
that requirement is unlocked; without one the whole project is.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUnlock,
}

var (
	lockForce   bool
	lockOffline bool
)

func init() {
	rootCmd.AddCommand(lockCmd)
	rootCmd.AddCommand(unlockCmd)

	lockCmd.Flags().BoolVar(&lockForce, "force", false, "Override user-provided values with resolved ones")
	lockCmd.Flags().BoolVar(&lockOffline, "offline", false, "Fail provisioning steps that need the network instead of running them")
}

func runLock(cmd *cobra.Command, _ []string) error {
	svc, prefs := newService()

	opts := baseOptions(prefs)
	opts.ForceRelock = lockForce
	opts.RequireAll = true
	if lockOffline {
		opts.AllowNetwork = false
	}

	result, locked, err := svc.Lock(cmd.Context(), projectDir, opts)
	if err != nil {
		return fmt.Errorf("lock failed: %w", err)
	}

	printResult(result)
	if !result.Succeeded() {
		return fmt.Errorf("nothing locked: %d requirements are not satisfied", unmetCount(result))
	}
	fmt.Printf("Locked %d configuration entries\n", locked)
	return nil
}

func runUnlock(cmd *cobra.Command, args []string) error {
	svc, _ := newService()

	identity := ""
	if len(args) == 1 {
		identity = args[0]
	}

	erased, err := svc.Unlock(cmd.Context(), projectDir, identity)
	if err != nil {
		return fmt.Errorf("unlock failed: %w", err)
	}
	fmt.Printf("Unlocked %d configuration entries\n", erased)
	return nil
}
