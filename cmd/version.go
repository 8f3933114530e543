package cmd

import (
	"github.com/spf13/cobra"

	"github.com/brk3/habitbot/internal/apiclient"
	"github.com/brk3/habitbot/pkg/versioninfo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `The "version" command displays the current version info for both client
and server if available.`,
	Run: func(cmd *cobra.Command, args []string) {
		version(cmd)
	},
}

func version(cmd *cobra.Command) {
	cmd.Printf("Client Version: %s (built %s)\n", versioninfo.Version, versioninfo.BuildDate)

	serverVersion, err := apiclient.New(cfg.APIBaseURL).Version(cmd.Context())
	if err != nil {
		cmd.Println("Error fetching server version:", err)
		return
	}
	cmd.Printf("Server Version: %s (built %s)\n", serverVersion.Version, serverVersion.BuildDate)
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
