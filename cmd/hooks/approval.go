package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hookguard/hookguard/pkg/hooks/hookapproval"
)

func newApprovalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approval",
		Short: "Work the approval queue",
	}

	cmd.AddCommand(newApprovalPendingCmd(), newApprovalApproveCmd(), newApprovalRejectCmd(), newApprovalHistoryCmd())

	return cmd
}

func newApprovalPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List pending approval requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSystem()
			if err != nil {
				return err
			}
			defer s.Close()

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintln(w, "ID\tHOOK\tTYPE\tREQUESTED BY\tCREATED")
			for _, r := range s.Approvals.GetPending() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.HookID, r.RequestType, r.RequestedBy, r.CreatedAt.Format("2006-01-02T15:04:05Z"))
			}
			return nil
		},
	}
}

func approvalDecideCmd(use, short string, decision hookapproval.Status) *cobra.Command {
	var approver string

	cmd := &cobra.Command{
		Use:   use + " <id> [reason]",
		Short: short,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSystem()
			if err != nil {
				return err
			}
			defer s.Close()

			reason := ""
			if len(args) == 2 {
				reason = args[1]
			}

			result, err := s.Approvals.Decide(args[0], approver, decision, reason, nil)
			if err != nil {
				return err
			}

			fmt.Printf("%s: %s\n", result.FinalStatus, result.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&approver, "approver", os.Getenv("USER"), "identity recorded as the decision maker")

	return cmd
}

func newApprovalApproveCmd() *cobra.Command {
	return approvalDecideCmd("approve", "Approve a pending request", hookapproval.StatusApproved)
}

func newApprovalRejectCmd() *cobra.Command {
	return approvalDecideCmd("reject", "Reject a pending request", hookapproval.StatusRejected)
}

func newApprovalHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history [N]",
		Short: "Show recently completed approval requests",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit := 20
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("N must be an integer: %w", err)
				}
				limit = n
			}

			s, err := openSystem()
			if err != nil {
				return err
			}
			defer s.Close()

			completed := s.Approvals.ListCompleted()
			if len(completed) > limit {
				completed = completed[:limit]
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintln(w, "ID\tHOOK\tSTATUS\tCOMPLETED\tDURATION(s)")
			for _, c := range completed {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", c.Request.ID, c.Request.HookID, c.FinalStatus, c.CompletedAt.Format("2006-01-02T15:04:05Z"), c.TotalDurationSeconds)
			}
			return nil
		},
	}
}
