package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jtomasevic/entityctl/eventbus"
	"github.com/spf13/cobra"
)

// newWatchCmd exercises eventbus.Bus.Subscribe: it subscribes to pattern,
// then drives a publish and a callable execution so events actually
// fire, printing each one received within the collection window.
func newWatchCmd() *cobra.Command {
	var pattern string
	var window time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Subscribe to store events, then trigger a publish and a callable execution",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newStore()
			if err != nil {
				return fail(err)
			}
			defer s.close()

			var mu sync.Mutex
			var seen []eventbus.Event
			s.bus.Subscribe(eventbus.SubscriptionOptions{
				Pattern: pattern,
				Handler: func(_ context.Context, e eventbus.Event) {
					mu.Lock()
					seen = append(seen, e)
					mu.Unlock()
				},
			})

			if err := s.callable.Register("compute_letter_grade", computeLetterGrade); err != nil {
				return fail(err)
			}
			student := newDemoStudent()
			if _, err := s.registry.Publish(context.Background(), student); err != nil {
				return fail(err)
			}
			if _, err := s.callable.Execute(context.Background(), "compute_letter_grade", map[string]any{
				"Name": student.Name,
				"GPA":  student.GPA,
			}); err != nil {
				return fail(err)
			}

			time.Sleep(window)

			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintf(cmd.OutOrStdout(), "observed %d event(s) matching %q:\n", len(seen), pattern)
			for _, e := range seen {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s  type=%s parent=%v\n", e.Timestamp.Format(time.RFC3339Nano), e.Type, e.ParentID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pattern, "pattern", "", "glob pattern over event types (empty matches every event)")
	cmd.Flags().DurationVar(&window, "window", 250*time.Millisecond, "how long to collect events before printing them")
	return cmd
}
