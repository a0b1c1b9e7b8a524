package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <dir>",
		Short: "Load hooks from a directory and hot-reload them as files change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSystem()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.LoadHooks(args[0]); err != nil {
				return err
			}
			if err := s.WatchHooks(args[0]); err != nil {
				return err
			}
			fmt.Printf("watching %s, %d hooks loaded; ctrl-c to stop\n", args[0], len(s.ListHooks()))

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			s.Start(ctx)
			<-ctx.Done()
			s.Stop()

			return nil
		},
	}
}
