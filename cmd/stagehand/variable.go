package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stagehand-dev/stagehand/internal/domain/requirement"
)

var variableCmd = &cobra.Command{
	Use:   "variable",
	Short: "Manage the project's variable requirements",
}

var variableAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Declare a variable the project needs",
	Long: `Add declares a variable requirement and resolves it immediately. The
declaration is only written to the project file when the variable could
be satisfied, so a typo or an unset value never lands in the project.`,
	Args: cobra.ExactArgs(1),
	RunE: runVariableAdd,
}

var variableRemoveCmd = &cobra.Command{
	Use:   "remove NAME",
	Short: "Drop a variable from the project",
	Args:  cobra.ExactArgs(1),
	RunE:  runVariableRemove,
}

var (
	variableDefault     string
	variableDescription string
)

func init() {
	rootCmd.AddCommand(variableCmd)
	variableCmd.AddCommand(variableAddCmd)
	variableCmd.AddCommand(variableRemoveCmd)

	variableAddCmd.Flags().StringVar(&variableDefault, "default", "", "Value used when the variable is otherwise unset")
	variableAddCmd.Flags().StringVar(&variableDescription, "description", "", "What the variable is for")
}

func runVariableAdd(cmd *cobra.Command, args []string) error {
	svc, prefs := newService()

	params := requirement.VariableParams{
		Default:     variableDefault,
		Description: variableDescription,
	}
	result, err := svc.AddVariable(cmd.Context(), projectDir, args[0], params, baseOptions(prefs))
	if err != nil {
		if result != nil {
			printResult(result)
		}
		return fmt.Errorf("adding variable %s: %w", args[0], err)
	}

	fmt.Printf("Added variable %s\n", args[0])
	return nil
}

func runVariableRemove(cmd *cobra.Command, args []string) error {
	svc, _ := newService()

	if err := svc.RemoveVariable(cmd.Context(), projectDir, args[0]); err != nil {
		return fmt.Errorf("removing variable %s: %w", args[0], err)
	}
	fmt.Printf("Removed variable %s\n", args[0])
	return nil
}
