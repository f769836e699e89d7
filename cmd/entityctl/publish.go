package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// newPublishCmd exercises registry.Registry.Publish directly: it builds
// a demo student and publishes it twice in a row, so the second
// Publish's Unchanged outcome is visible in the printed output.
func newPublishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Publish a demo student tree twice, showing the second publish is a no-op",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newStore()
			if err != nil {
				return fail(err)
			}
			defer s.close()

			student := newDemoStudent()
			first, err := s.registry.Publish(context.Background(), student)
			if err != nil {
				return fail(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "first publish: outcome=%v root=%s changed=%d\n",
				first.Outcome, first.NewRootLogicalID, first.ChangedCount)

			second, err := s.registry.Publish(context.Background(), student)
			if err != nil {
				return fail(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "second publish: outcome=%v root=%s changed=%d\n",
				second.Outcome, second.NewRootLogicalID, second.ChangedCount)
			return nil
		},
	}
}
