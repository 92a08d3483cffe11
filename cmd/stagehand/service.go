package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage the project's service requirements",
}

var serviceAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Declare a service the project needs running",
	Long: `Add declares a service requirement whose address lands in the NAME
variable, then starts it. The declaration is only written to the project
file when the service came up.`,
	Args: cobra.ExactArgs(1),
	RunE: runServiceAdd,
}

var serviceRemoveCmd = &cobra.Command{
	Use:   "remove NAME",
	Short: "Stop a service and drop it from the project",
	Args:  cobra.ExactArgs(1),
	RunE:  runServiceRemove,
}

var serviceFlavor string

func init() {
	rootCmd.AddCommand(serviceCmd)
	serviceCmd.AddCommand(serviceAddCmd)
	serviceCmd.AddCommand(serviceRemoveCmd)

	serviceAddCmd.Flags().StringVar(&serviceFlavor, "type", "redis", "Service type")
}

func runServiceAdd(cmd *cobra.Command, args []string) error {
	svc, prefs := newService()

	result, err := svc.AddService(cmd.Context(), projectDir, args[0], serviceFlavor, baseOptions(prefs))
	if err != nil {
		if result != nil {
			printResult(result)
		}
		return fmt.Errorf("adding service %s: %w", args[0], err)
	}

	fmt.Printf("Added %s service %s\n", serviceFlavor, args[0])
	return nil
}

func runServiceRemove(cmd *cobra.Command, args []string) error {
	svc, _ := newService()

	if err := svc.RemoveService(cmd.Context(), projectDir, args[0]); err != nil {
		return fmt.Errorf("removing service %s: %w", args[0], err)
	}
	fmt.Printf("Removed service %s\n", args[0])
	return nil
}
