package main

import (
	"github.com/spf13/cobra"

	"github.com/hookguard/hookguard/pkg/hooks"
)

// configDir holds the audit log and runtime state. It has no bearing on
// where hook definitions themselves live; commands that load hooks take
// an explicit path.
var configDir string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hooks",
		Short:         "Manage and inspect the hook runtime",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&configDir, "config-dir", ".hooks", "directory holding the audit log and runtime state")

	root.AddCommand(
		newListCmd(),
		newAddCmd(),
		newRemoveCmd(),
		newToggleCmd(),
		newTestCmd(),
		newValidateCmd(),
		newHistoryCmd(),
		newApprovalCmd(),
		newQualityGateCmd(),
		newConsensusCmd(),
		newInitExamplesCmd(),
		newWatchCmd(),
	)

	return root
}

// openSystem constructs a hooks.System against the root --config-dir flag.
// Callers are responsible for closing it.
func openSystem() (*hooks.System, error) {
	return hooks.New(configDir)
}
