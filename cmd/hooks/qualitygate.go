package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hookguard/hookguard/pkg/hooks/hookquality"
)

func newQualityGateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quality-gate",
		Short: "Manage quality gates",
	}

	cmd.AddCommand(
		newQualityGateListCmd(),
		newQualityGateAddCmd(),
		newQualityGateRemoveCmd(),
		newQualityGateTestCmd(),
		newQualityGateStatsCmd(),
	)

	return cmd
}

func newQualityGateListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List quality gates registered in this process",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSystem()
			if err != nil {
				return err
			}
			defer s.Close()

			gates := s.Quality.ListGates()
			if len(gates) == 0 {
				fmt.Println("no gates registered; quality gates are process-memory only (see SPEC_FULL.md), so 'add' and 'list' only see each other within one invocation")
				return nil
			}
			for _, g := range gates {
				fmt.Printf("%s enabled=%t criteria=%d\n", g.Name, g.Enabled, len(g.Criteria))
			}
			return nil
		},
	}
}

func newQualityGateAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <config>",
		Short: "Add a quality gate from a JSON configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contents, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading gate configuration: %w", err)
			}

			var gate hookquality.Gate
			if err := json.Unmarshal(contents, &gate); err != nil {
				return fmt.Errorf("parsing gate configuration: %w", err)
			}

			s, err := openSystem()
			if err != nil {
				return err
			}
			defer s.Close()

			s.Quality.AddGate(gate)
			fmt.Printf("added gate %q\n", gate.Name)
			return nil
		},
	}
}

func newQualityGateRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a quality gate by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSystem()
			if err != nil {
				return err
			}
			defer s.Close()

			s.Quality.RemoveGate(args[0])
			fmt.Printf("removed gate %q\n", args[0])
			return nil
		},
	}
}

func newQualityGateTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test <id> <data>",
		Short: "Evaluate one gate against a JSON-encoded stage result",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result hookquality.StageResult
			if err := json.Unmarshal([]byte(args[1]), &result); err != nil {
				return fmt.Errorf("parsing data: %w", err)
			}

			s, err := openSystem()
			if err != nil {
				return err
			}
			defer s.Close()

			results := s.Quality.Evaluate(result)
			for _, r := range results {
				if r.GateName != args[0] {
					continue
				}
				fmt.Printf("passed=%t blocked=%t violations=%d warnings=%d\n", r.Passed, r.Blocked, len(r.Violations), len(r.Warnings))
				for _, v := range r.Violations {
					fmt.Printf("  - %s: %s\n", v.CriterionName, v.Message)
				}
				return nil
			}
			return fmt.Errorf("gate not found or not enabled: %s", args[0])
		},
	}
}

func newQualityGateStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <id>",
		Short: "Show a gate's pass/fail history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSystem()
			if err != nil {
				return err
			}
			defer s.Close()

			stats, ok := s.Quality.Stats(args[0])
			if !ok {
				return fmt.Errorf("no statistics for gate: %s", args[0])
			}
			fmt.Printf("evaluations=%d passes=%d failures=%d pass_rate=%.2f\n", stats.Evaluations, stats.Passes, stats.Failures, stats.PassRate())
			return nil
		},
	}
}
