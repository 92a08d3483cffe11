package main

import (
	"fmt"
	"path"

	"github.com/spf13/cobra"

	"github.com/stagehand-dev/stagehand/internal/domain/requirement"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Manage the project's download requirements",
}

var downloadAddCmd = &cobra.Command{
	Use:   "add NAME URL",
	Short: "Declare a file the project needs downloaded",
	Long: `Add declares a download requirement named NAME and fetches it
immediately. The declaration is only written to the project file when
the download succeeded and, if --sha256 was given, the checksum matched.`,
	Args: cobra.ExactArgs(2),
	RunE: runDownloadAdd,
}

var downloadRemoveCmd = &cobra.Command{
	Use:   "remove NAME",
	Short: "Drop a download from the project",
	Args:  cobra.ExactArgs(1),
	RunE:  runDownloadRemove,
}

var (
	downloadFilename string
	downloadChecksum string
)

func init() {
	rootCmd.AddCommand(downloadCmd)
	downloadCmd.AddCommand(downloadAddCmd)
	downloadCmd.AddCommand(downloadRemoveCmd)

	downloadAddCmd.Flags().StringVar(&downloadFilename, "filename", "", "Local filename (default: derived from URL)")
	downloadAddCmd.Flags().StringVar(&downloadChecksum, "sha256", "", "Expected SHA-256 of the file")
}

func runDownloadAdd(cmd *cobra.Command, args []string) error {
	svc, prefs := newService()

	filename := downloadFilename
	if filename == "" {
		filename = path.Base(args[1])
	}
	params := requirement.DownloadParams{
		URL:      args[1],
		Filename: filename,
		Checksum: downloadChecksum,
	}
	result, err := svc.AddDownload(cmd.Context(), projectDir, args[0], params, baseOptions(prefs))
	if err != nil {
		if result != nil {
			printResult(result)
		}
		return fmt.Errorf("adding download %s: %w", args[0], err)
	}

	fmt.Printf("Added download %s\n", args[0])
	return nil
}

func runDownloadRemove(cmd *cobra.Command, args []string) error {
	svc, _ := newService()

	if err := svc.RemoveDownload(cmd.Context(), projectDir, args[0]); err != nil {
		return fmt.Errorf("removing download %s: %w", args[0], err)
	}
	fmt.Printf("Removed download %s\n", args[0])
	return nil
}
