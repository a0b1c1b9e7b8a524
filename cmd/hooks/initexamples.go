package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hookguard/hookguard/pkg/hooks/hookconfig"
)

func newInitExamplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-examples <dir>",
		Short: "Write the bundled example hook configurations to a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := hookconfig.GenerateExamples(args[0]); err != nil {
				return err
			}
			fmt.Printf("wrote %d example hooks to %s\n", len(hookconfig.ExampleConfigs()), args[0])
			return nil
		},
	}
}
