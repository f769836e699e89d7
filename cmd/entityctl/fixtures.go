package main

import (
	"context"
	"fmt"

	"github.com/jtomasevic/entityctl/entity"
)

// Course and Student are the demo entity types every subcommand seeds
// its store with, so each invocation is self-contained (the store is
// in-process and never persisted between runs, per spec.md's Non-goals).

type Course struct {
	entity.Base
	Name    string
	Credits int
}

func (c *Course) EntityBase() *entity.Base { return &c.Base }
func (c *Course) EntityTypeName() string   { return "Course" }

type Student struct {
	entity.Base
	Name    string
	GPA     float64
	Courses []*Course
}

func (s *Student) EntityBase() *entity.Base { return &s.Base }
func (s *Student) EntityTypeName() string   { return "Student" }

func newDemoStudent() *Student {
	return &Student{
		Base: entity.NewBase(),
		Name: "Ada Lovelace",
		GPA:  3.9,
		Courses: []*Course{
			{Base: entity.NewBase(), Name: "Analytical Engines", Credits: 4},
			{Base: entity.NewBase(), Name: "Number Theory", Credits: 3},
		},
	}
}

// gradeArgs is the demo callable's single args struct (callable.Register
// requires exactly one, since Go's reflect exposes parameter types but
// never parameter names).
type gradeArgs struct {
	Name string
	GPA  float64
}

func computeLetterGrade(_ context.Context, args gradeArgs) (string, error) {
	switch {
	case args.GPA >= 3.7:
		return fmt.Sprintf("%s: A", args.Name), nil
	case args.GPA >= 3.0:
		return fmt.Sprintf("%s: B", args.Name), nil
	default:
		return fmt.Sprintf("%s: C", args.Name), nil
	}
}
