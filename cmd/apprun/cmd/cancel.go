package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/apprun/apprun/pkg/client"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <correlation-id>",
	Short: "Cancel a running launch by correlation id",
	Args:  cobra.ExactArgs(1),
	RunE:  runCancel,
}

func init() {
	rootCmd.AddCommand(cancelCmd)
}

func runCancel(cmd *cobra.Command, args []string) error {
	c := client.NewWithTimeout(serverURL, 30*time.Second)

	resp, err := c.Cancel(args[0])
	if err != nil {
		return err
	}

	fmt.Println(resp.Message)
	return nil
}
