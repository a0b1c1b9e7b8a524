package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hookguard/hookguard/pkg/hooks/hookmodel"
)

func newValidateCmd() *cobra.Command {
	var fix bool

	cmd := &cobra.Command{
		Use:   "validate [<id>]",
		Short: "Re-run static security validation against registered hooks",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSystem()
			if err != nil {
				return err
			}
			defer s.Close()

			var targets []*hookmodel.Hook
			if len(args) == 1 {
				hook, ok := s.Registry.Get(hookmodel.HookID(args[0]))
				if !ok {
					return fmt.Errorf("hook not found: %s", args[0])
				}
				targets = []*hookmodel.Hook{hook}
			} else {
				targets = s.ListHooks()
			}

			failures := 0
			for _, hook := range targets {
				if err := s.Validator.ValidateHook(hook); err != nil {
					failures++
					fmt.Printf("%s (%s): INVALID: %v\n", hook.Name, hook.ID, err)
					// The runtime has no config editor to repair a hook in
					// place; the only remediation it can apply on its own
					// is to stop the hook from running until someone fixes
					// its configuration file and re-registers it.
					if fix {
						if err := s.DisableHook(hook.ID); err != nil {
							fmt.Printf("  failed to disable: %v\n", err)
						} else {
							fmt.Println("  disabled pending a corrected configuration")
						}
					}
					continue
				}
				fmt.Printf("%s (%s): OK\n", hook.Name, hook.ID)
			}

			if failures > 0 {
				return fmt.Errorf("%d hook(s) failed validation", failures)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "disable any hook that fails validation")

	return cmd
}
