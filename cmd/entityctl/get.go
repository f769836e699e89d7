package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// newGetCmd exercises address.Resolver.Resolve: it seeds and publishes a
// demo student, then resolves the given address against it. With no
// address given it resolves the student root itself.
func newGetCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Publish a demo student, then resolve an address against it",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newStore()
			if err != nil {
				return fail(err)
			}
			defer s.close()

			student := newDemoStudent()
			if _, err := s.registry.Publish(context.Background(), student); err != nil {
				return fail(err)
			}

			target := addr
			if target == "" {
				target = "@" + student.LogicalID.String()
			}

			value, err := s.resolver.Resolve(target)
			if err != nil {
				return fail(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %v\n", target, value)
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "address", "", "address to resolve (defaults to the seeded student's own root)")
	return cmd
}
