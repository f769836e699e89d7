package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// newRegisterDemoCmd exercises callable.Registry.Register/Execute: it
// registers the demo letter-grade callable and invokes it once, printing
// the published Container's root logical id.
func newRegisterDemoCmd() *cobra.Command {
	var name string
	var gpa float64

	cmd := &cobra.Command{
		Use:   "register-demo",
		Short: "Register the demo letter-grade callable and execute it once",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newStore()
			if err != nil {
				return fail(err)
			}
			defer s.close()

			if err := s.callable.Register("compute_letter_grade", computeLetterGrade); err != nil {
				return fail(err)
			}

			result, err := s.callable.Execute(context.Background(), "compute_letter_grade", map[string]any{
				"Name": name,
				"GPA":  gpa,
			})
			if err != nil {
				return fail(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "registered compute_letter_grade; published result root: %v\n", result)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Ada Lovelace", "student name passed to the demo callable")
	cmd.Flags().Float64Var(&gpa, "gpa", 3.9, "GPA passed to the demo callable")
	return cmd
}
