package tools

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/toolbridge/toolbridge/bridge/tools"
)

var (
	ToolsCmd = &cobra.Command{
		Use:   "tools",
		Short: "Print the tool catalog",
		Long:  `Print the catalog of browser tools the bridge advertises to the near side, as JSON. The output matches what a tools/list request returns.`,
		RunE:  run,
	}
)

// run prints the advertised tool catalog as indented JSON
func run(cmd *cobra.Command, _ []string) error {
	catalog := tools.NewRegistry().List()

	out, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tool catalog: %v", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
