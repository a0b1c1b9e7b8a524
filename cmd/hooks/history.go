package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hookguard/hookguard/pkg/hooks/hookaudit"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit         int
		hookID        string
		failuresOnly  bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent audit log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSystem()
			if err != nil {
				return err
			}
			defer s.Close()

			var events []*hookaudit.Event
			if hookID != "" || failuresOnly {
				criteria := hookaudit.SearchCriteria{HookID: hookID}
				if failuresOnly {
					criteria.EventTypes = []hookaudit.EventType{
						hookaudit.EventExecutionFailed,
						hookaudit.EventExecutionDenied,
						hookaudit.EventSecurityViolation,
					}
				}
				events, err = s.Audit.SearchLogs(criteria)
				if err != nil {
					return err
				}
				if len(events) > limit {
					events = events[len(events)-limit:]
				}
			} else {
				events, err = s.GetAuditLogs(limit)
				if err != nil {
					return err
				}
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintln(w, "TIMESTAMP\tTYPE\tHOOK\tRESULT")
			for _, e := range events {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Timestamp.Format("2006-01-02T15:04:05Z"), e.Type, e.HookID, historyResult(e))
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of entries to show")
	cmd.Flags().StringVar(&hookID, "hook", "", "filter to one hook id")
	cmd.Flags().BoolVar(&failuresOnly, "failures-only", false, "only show failed/denied/violation entries")

	return cmd
}

func historyResult(e *hookaudit.Event) string {
	switch {
	case e.Error != "":
		return "error: " + e.Error
	case e.Violation != "":
		return "violation: " + e.Violation
	case e.Success != nil:
		if *e.Success {
			return "success"
		}
		return "failure"
	default:
		return "-"
	}
}
