package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/apprun/apprun/pkg/client"
	"github.com/apprun/apprun/pkg/models"
)

var runCorrelationID string

var runCmd = &cobra.Command{
	Use:   "run <application-id> [-- args...]",
	Short: "Launch a registered application and wait for the outcome",
	Long: `Launches a registered application on the daemon and blocks until the run
resolves. Pass a correlation id to make the run cancellable from another
terminal; without one the server generates an id and prints it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runCorrelationID, "correlation-id", "", "correlation id for later cancellation (generated when empty)")
}

func runRun(cmd *cobra.Command, args []string) error {
	c := client.New(serverURL)

	resp, err := c.Run(&models.RunRequest{
		ApplicationID: args[0],
		Args:          args[1:],
		CorrelationID: runCorrelationID,
	})
	if err != nil {
		return err
	}

	switch outputFormat {
	case "json":
		return json.NewEncoder(os.Stdout).Encode(resp)
	case "yaml":
		return yaml.NewEncoder(os.Stdout).Encode(resp)
	default:
		status := "failed"
		if resp.Outcome.Succeeded {
			status = "succeeded"
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Field", "Value")
		table.Append("Report ID", resp.ReportID)
		table.Append("Correlation ID", resp.CorrelationID)
		table.Append("Status", status)
		table.Append("Started At", resp.Outcome.StartedAt.Format(time.RFC3339))
		table.Append("Finished At", resp.Outcome.FinishedAt.Format(time.RFC3339))
		if resp.Outcome.Error != "" {
			table.Append("Error", resp.Outcome.Error)
		}
		table.Render()

		if resp.Outcome.Output != "" {
			fmt.Printf("\nOutput:\n%s", resp.Outcome.Output)
		}
		return nil
	}
}
