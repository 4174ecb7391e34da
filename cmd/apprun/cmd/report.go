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
)

var reportCmd = &cobra.Command{
	Use:   "report <report-id>",
	Short: "Show a run report",
	Args:  cobra.ExactArgs(1),
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	c := client.NewWithTimeout(serverURL, 30*time.Second)

	report, err := c.GetReport(args[0])
	if err != nil {
		return err
	}

	switch outputFormat {
	case "json":
		return json.NewEncoder(os.Stdout).Encode(report)
	case "yaml":
		return yaml.NewEncoder(os.Stdout).Encode(report)
	default:
		status := "failed"
		if report.Succeeded {
			status = "succeeded"
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Field", "Value")
		table.Append("Report ID", report.ID)
		table.Append("Application", report.ApplicationID)
		table.Append("Correlation ID", report.CorrelationID)
		table.Append("Command", report.Command)
		table.Append("Status", status)
		table.Append("Started At", report.StartedAt.Format(time.RFC3339))
		table.Append("Finished At", report.FinishedAt.Format(time.RFC3339))
		table.Append("Views", fmt.Sprintf("%d", report.ViewCount))
		table.Append("Downloads", fmt.Sprintf("%d", report.DownloadCount))
		if report.Error != "" {
			table.Append("Error", report.Error)
		}
		table.Render()

		if report.Output != "" {
			fmt.Printf("\nOutput:\n%s", report.Output)
		}
		return nil
	}
}
