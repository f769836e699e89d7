package registry

import "github.com/jtomasevic/entityctl/entity"

// Test fixtures: a small two-level entity graph (Student -> Courses),
// mirroring entity/fixtures_test.go's shape for a package that cannot
// import another package's _test.go file.

type testCourse struct {
	entity.Base
	Name    string
	Credits int
}

func (c *testCourse) EntityBase() *entity.Base { return &c.Base }
func (c *testCourse) EntityTypeName() string   { return "Course" }

func newTestCourse(name string, credits int) *testCourse {
	return &testCourse{Base: entity.NewBase(), Name: name, Credits: credits}
}

type testStudent struct {
	entity.Base
	Name    string
	GPA     float64
	Courses []*testCourse
}

func (s *testStudent) EntityBase() *entity.Base { return &s.Base }
func (s *testStudent) EntityTypeName() string   { return "Student" }

func newTestStudent(name string, gpa float64, courses ...*testCourse) *testStudent {
	return &testStudent{Base: entity.NewBase(), Name: name, GPA: gpa, Courses: courses}
}

func cloneStudent(s *testStudent) *testStudent {
	courses := make([]*testCourse, len(s.Courses))
	for i, c := range s.Courses {
		cc := *c
		courses[i] = &cc
	}
	cp := *s
	cp.Courses = courses
	return &cp
}
