package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hookguard/hookguard/pkg/hooks/hookmodel"
)

func newTestCmd() *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "test <path-or-id> <event>",
		Short: "Evaluate a hook's conditions against a synthetic event without executing its actions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSystem()
			if err != nil {
				return err
			}
			defer s.Close()

			context := map[string]interface{}{}
			if data != "" {
				if err := json.Unmarshal([]byte(data), &context); err != nil {
					return fmt.Errorf("parsing --data: %w", err)
				}
			}

			event := hookmodel.NewHookEvent(hookmodel.EventType(args[1]), hookmodel.SourceSystemOrigin())
			for k, v := range context {
				event.WithContext(k, v)
			}

			ref := args[0]
			var matched bool

			if hook, ok := s.Registry.Get(hookmodel.HookID(ref)); ok {
				execCtx := hookmodel.FromEvent(event, "test-"+string(hook.ID))
				matched, err = s.Evaluator.Evaluate(hook.Conditions, execCtx)
			} else {
				matched, err = s.TestHook(ref, event)
			}
			if err != nil {
				return err
			}

			if matched {
				fmt.Println("conditions matched")
			} else {
				fmt.Println("conditions did not match")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "JSON object merged into the synthetic event's context")

	return cmd
}
