package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hookguard/hookguard/pkg/hooks/hookmodel"
)

func newListCmd() *cobra.Command {
	var (
		event       string
		enabledOnly bool
		detailed    bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered hooks",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSystem()
			if err != nil {
				return err
			}
			defer s.Close()

			var list []*hookmodel.Hook
			if event != "" {
				list = s.Registry.FindByEvent(hookmodel.EventType(event))
			} else {
				list = s.ListHooks()
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			defer w.Flush()

			if detailed {
				fmt.Fprintln(w, "ID\tNAME\tENABLED\tPRIORITY\tEVENTS\tDESCRIPTION")
			} else {
				fmt.Fprintln(w, "ID\tNAME\tENABLED\tPRIORITY")
			}

			for _, h := range list {
				if enabledOnly && !h.Enabled {
					continue
				}
				if detailed {
					fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\t%s\n", h.ID, h.Name, h.Enabled, h.Priority, eventsSummary(h.Events), h.Description)
				} else {
					fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", h.ID, h.Name, h.Enabled, h.Priority)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&event, "event", "", "filter to hooks bound to this event type")
	cmd.Flags().BoolVar(&enabledOnly, "enabled-only", false, "only show enabled hooks")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include event bindings and description")

	return cmd
}

func eventsSummary(events []hookmodel.EventType) string {
	out := ""
	for i, e := range events {
		if i > 0 {
			out += ","
		}
		out += string(e)
	}
	return out
}
