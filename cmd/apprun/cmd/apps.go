package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/apprun/apprun/pkg/client"
	"github.com/apprun/apprun/pkg/models"
)

var appDescription string

var appCmd = &cobra.Command{
	Use:   "app",
	Short: "Manage registered applications",
}

var appAddCmd = &cobra.Command{
	Use:   "add <name> <binary-path>",
	Short: "Register a new launchable application",
	Args:  cobra.ExactArgs(2),
	RunE:  runAppAdd,
}

func init() {
	rootCmd.AddCommand(appCmd)
	appCmd.AddCommand(appAddCmd)

	appAddCmd.Flags().StringVarP(&appDescription, "description", "d", "", "application description")
}

func runAppAdd(cmd *cobra.Command, args []string) error {
	c := client.NewWithTimeout(serverURL, 30*time.Second)

	app, err := c.CreateApplication(&models.ApplicationRequest{
		Name:        args[0],
		BinaryPath:  args[1],
		Description: appDescription,
	})
	if err != nil {
		return err
	}

	switch outputFormat {
	case "json":
		return json.NewEncoder(os.Stdout).Encode(app)
	case "yaml":
		return yaml.NewEncoder(os.Stdout).Encode(app)
	default:
		fmt.Printf("Application registered: %s\n", app.ID)
		return nil
	}
}
