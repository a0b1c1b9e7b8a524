package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hookguard/hookguard/pkg/hooks/hookmodel"
)

func newRemoveCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Unregister a hook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSystem()
			if err != nil {
				return err
			}
			defer s.Close()

			id := hookmodel.HookID(args[0])

			if !force {
				if _, ok := s.Registry.Get(id); !ok {
					return fmt.Errorf("hook not found: %s", args[0])
				}
			}

			if err := s.RemoveHook(id); err != nil {
				if force {
					return nil
				}
				return err
			}

			fmt.Printf("removed hook %s\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "don't fail if the hook doesn't exist")

	return cmd
}
