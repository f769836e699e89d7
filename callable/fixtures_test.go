package callable_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jtomasevic/entityctl/entity"
)

// Test fixtures: a small entity pair (Course, Student) plus a handful of
// registrable functions exercising each argument/output pattern.

type course struct {
	entity.Base
	Name    string
	Credits int
}

func (c *course) EntityBase() *entity.Base { return &c.Base }
func (c *course) EntityTypeName() string   { return "Course" }

func newCourse(name string, credits int) *course {
	return &course{Base: entity.NewBase(), Name: name, Credits: credits}
}

type student struct {
	entity.Base
	Name    string
	GPA     float64
	Courses []*course
}

func (s *student) EntityBase() *entity.Base { return &s.Base }
func (s *student) EntityTypeName() string   { return "Student" }

func newStudent(name string, gpa float64, courses ...*course) *student {
	return &student{Base: entity.NewBase(), Name: name, GPA: gpa, Courses: courses}
}

// enrollmentConfig is the sole registered config entity type used by
// ConfigParameterized tests. Per spec.md §4.7, a ConfigParameterized
// callable's single declared parameter IS the config entity type, and
// its own fields stand in for the call's named parameters.
type enrollmentConfig struct {
	entity.Base
	entity.ConfigMarker
	Name   string
	GPA    float64
	MinGPA float64
}

func (c *enrollmentConfig) EntityBase() *entity.Base { return &c.Base }
func (c *enrollmentConfig) EntityTypeName() string   { return "EnrollmentConfig" }

var _ entity.IsConfig = (*enrollmentConfig)(nil)

// --- registrable functions ---

type gradeArgs struct {
	Name string
	GPA  float64
}

func computeLetterGrade(_ context.Context, args gradeArgs) (string, error) {
	switch {
	case args.GPA >= 3.7:
		return "A", nil
	case args.GPA >= 3.0:
		return "B", nil
	default:
		return "C", nil
	}
}

type renameArgs struct {
	Student *student
	NewName string
}

func renameStudent(_ context.Context, args renameArgs) (*student, error) {
	args.Student.Name = args.NewName
	return args.Student, nil
}

type pairArgs struct {
	Name string
	GPA  float64
}

func splitHonorRoll(_ context.Context, args pairArgs) (*student, *course, error) {
	s := newStudent(args.Name, args.GPA)
	c := newCourse("Honors Seminar", 1)
	return s, c, nil
}

type failArgs struct {
	ShouldFail bool
}

func maybeFail(_ context.Context, args failArgs) (string, error) {
	if args.ShouldFail {
		return "", errors.New("intentional failure")
	}
	return "ok", nil
}

func alwaysPanics(_ context.Context, _ failArgs) (string, error) {
	panic("boom")
}

func slowOk(_ context.Context, _ failArgs) (string, error) {
	time.Sleep(50 * time.Millisecond)
	return "ok", nil
}

func enrollIfEligible(_ context.Context, cfg enrollmentConfig) (string, error) {
	if cfg.GPA < cfg.MinGPA {
		return "", fmt.Errorf("gpa %.2f below minimum %.2f", cfg.GPA, cfg.MinGPA)
	}
	return "enrolled", nil
}
