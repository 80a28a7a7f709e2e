package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/toolbridge/toolbridge/cmd/serve"
	toolsCmd "github.com/toolbridge/toolbridge/cmd/tools"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "toolbridge",
		Short: "MCP tool bridge for a browser-side agent",
		Long: fmt.Sprintf(`toolbridge (v%s)

A bridge between an MCP client on stdin/stdout and a browser-side
agent on a WebSocket or length-prefixed binary socket. Tool calls
issued by the client are correlated, forwarded and answered over a
single multiplexed far-side channel.`, Version),
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of toolbridge",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("toolbridge v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(toolsCmd.ToolsCmd)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
