package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAddCmd() *cobra.Command {
	var enable bool

	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Register a hook from a JSON or YAML configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSystem()
			if err != nil {
				return err
			}
			defer s.Close()

			id, err := s.RegisterHook(args[0])
			if err != nil {
				return err
			}

			if enable {
				if err := s.EnableHook(id); err != nil {
					return err
				}
			}

			fmt.Printf("registered hook %s\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVar(&enable, "enable", false, "enable the hook immediately after registering it")

	return cmd
}
