package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hookguard/hookguard/pkg/hooks/hookmodel"
)

func newToggleCmd() *cobra.Command {
	var enableFlag, disableFlag bool

	cmd := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Enable or disable a registered hook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if enableFlag == disableFlag {
				return fmt.Errorf("specify exactly one of --enable or --disable")
			}

			s, err := openSystem()
			if err != nil {
				return err
			}
			defer s.Close()

			id := hookmodel.HookID(args[0])
			if enableFlag {
				if err := s.EnableHook(id); err != nil {
					return err
				}
				fmt.Printf("enabled hook %s\n", id)
				return nil
			}

			if err := s.DisableHook(id); err != nil {
				return err
			}
			fmt.Printf("disabled hook %s\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVar(&enableFlag, "enable", false, "enable the hook")
	cmd.Flags().BoolVar(&disableFlag, "disable", false, "disable the hook")

	return cmd
}
