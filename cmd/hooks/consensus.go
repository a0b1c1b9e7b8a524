package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/hookguard/hookguard/pkg/hooks/hookpipeline"
)

func newConsensusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consensus",
		Short: "Inspect and tune the pipeline's hook integration",
	}

	cmd.AddCommand(
		newConsensusStatusCmd(),
		newConsensusCostSummaryCmd(),
		newConsensusQualityStatusCmd(),
		newConsensusPerformanceCmd(),
		newConsensusConfigureCmd(),
	)

	return cmd
}

func newConsensusStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the pipeline integration's current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := hookpipeline.DefaultConfig()
			fmt.Printf("enabled=%t hook_timeout=%s continue_on_hook_failure=%t\n", cfg.Enabled, cfg.HookTimeout, cfg.ContinueOnHookFailure)
			fmt.Printf("slow_stage_threshold=%s high_memory_threshold_mb=%d high_error_rate_threshold=%.4f alert_cooldown=%s\n",
				cfg.Performance.SlowStageThreshold, cfg.Performance.HighMemoryThresholdMB, cfg.Performance.HighErrorRateThreshold, cfg.Performance.AlertCooldown)
			return nil
		},
	}
}

func newConsensusCostSummaryCmd() *cobra.Command {
	var period string

	cmd := &cobra.Command{
		Use:   "cost-summary",
		Short: "Show cost tracking and budget utilization",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSystem()
			if err != nil {
				return err
			}
			defer s.Close()

			summary := s.Cost.GetCostSummary(period)
			fmt.Printf("period_cost=%.4f total_budget=%.4f total_usage=%.4f utilization=%.2f%% active_budgets=%d exceeded_budgets=%d\n",
				summary.PeriodCost, summary.TotalBudget, summary.TotalUsage, summary.BudgetUtilization*100, summary.ActiveBudgets, summary.ExceededBudgets)
			return nil
		},
	}

	cmd.Flags().StringVar(&period, "period", "", "period key (YYYY-MM-DD); defaults to today")

	return cmd
}

func newConsensusQualityStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quality-status",
		Short: "Show quality gate pass/fail statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSystem()
			if err != nil {
				return err
			}
			defer s.Close()

			gates := s.Quality.ListGates()
			if len(gates) == 0 {
				fmt.Println("no quality gates registered")
				return nil
			}
			for _, g := range gates {
				stats, _ := s.Quality.Stats(g.Name)
				fmt.Printf("%s: evaluations=%d pass_rate=%.2f\n", g.Name, stats.Evaluations, stats.PassRate())
			}
			return nil
		},
	}
}

func newConsensusPerformanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "performance",
		Short: "Show per-stage performance metrics and active alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSystem()
			if err != nil {
				return err
			}
			defer s.Close()

			status := s.Pipeline.PerformanceStatus()
			for stage, durations := range status.StageDurations {
				fmt.Printf("%s: samples=%d error_rate=%.4f\n", stage, len(durations), status.ErrorRates[stage])
			}
			for _, alert := range status.ActiveAlerts {
				fmt.Printf("ALERT %s stage=%s value=%.4f threshold=%.4f at=%s\n", alert.Type, alert.Stage, alert.Value, alert.Threshold, alert.Timestamp.Format(time.RFC3339))
			}
			fmt.Printf("total_alerts=%d\n", status.TotalAlerts)
			return nil
		},
	}
}

func newConsensusConfigureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure <option> <value>",
		Short: "Show what a pipeline configuration option would become (process-memory only; see 'status')",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := hookpipeline.DefaultConfig()

			switch args[0] {
			case "enabled":
				v, err := strconv.ParseBool(args[1])
				if err != nil {
					return fmt.Errorf("enabled must be a bool: %w", err)
				}
				cfg.Enabled = v
			case "hook_timeout_seconds":
				seconds, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("hook_timeout_seconds must be an integer: %w", err)
				}
				cfg.HookTimeout = time.Duration(seconds) * time.Second
			case "continue_on_hook_failure":
				v, err := strconv.ParseBool(args[1])
				if err != nil {
					return fmt.Errorf("continue_on_hook_failure must be a bool: %w", err)
				}
				cfg.ContinueOnHookFailure = v
			default:
				return fmt.Errorf("unknown option: %s", args[0])
			}

			fmt.Printf("enabled=%t hook_timeout=%s continue_on_hook_failure=%t\n", cfg.Enabled, cfg.HookTimeout, cfg.ContinueOnHookFailure)
			fmt.Println("this value is not persisted: pipeline configuration is process-memory only, the same as cost/quality/approval state")
			return nil
		},
	}
}
