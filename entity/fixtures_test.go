package entity

// Test fixtures: a small two-level entity graph (Student -> Courses) used
// across fields_test.go, build_test.go, diff_test.go and version_test.go.

type testCourse struct {
	Base
	Name    string
	Credits int
}

func (c *testCourse) EntityBase() *Base      { return &c.Base }
func (c *testCourse) EntityTypeName() string { return "Course" }

func newTestCourse(name string, credits int) *testCourse {
	return &testCourse{Base: NewBase(), Name: name, Credits: credits}
}

type testStudent struct {
	Base
	Name    string
	GPA     float64
	Courses []*testCourse
}

func (s *testStudent) EntityBase() *Base      { return &s.Base }
func (s *testStudent) EntityTypeName() string { return "Student" }

func newTestStudent(name string, gpa float64, courses ...*testCourse) *testStudent {
	return &testStudent{Base: NewBase(), Name: name, GPA: gpa, Courses: courses}
}

// cloneStudent produces a deep, independent copy of s so a test can mutate
// the copy and diff it against the original without aliasing.
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

// testCoursePair is a fixed-arity container of two entity slots: the
// stand-in for a tuple field, since Go has no tuple type.
type testCoursePair struct {
	First  *testCourse
	Second *testCourse
}

func (p testCoursePair) TupleEntities() []IsEntity {
	out := make([]IsEntity, 0, 2)
	if p.First != nil {
		out = append(out, p.First)
	}
	if p.Second != nil {
		out = append(out, p.Second)
	}
	return out
}

// testDepartment exercises every container field kind beyond a plain
// entity slice: Electives is a set, ByCode a map, Capstones a tuple, and
// Notes a mixed container holding both entities and primitives.
type testDepartment struct {
	Base
	Name      string
	Electives []*testCourse `ecs:"set"`
	ByCode    map[string]*testCourse
	Capstones testCoursePair
	Notes     []any
}

func (d *testDepartment) EntityBase() *Base      { return &d.Base }
func (d *testDepartment) EntityTypeName() string { return "Department" }

func newTestDepartment(name string, electives []*testCourse, byCode map[string]*testCourse, capstones testCoursePair, notes []any) *testDepartment {
	return &testDepartment{
		Base:      NewBase(),
		Name:      name,
		Electives: electives,
		ByCode:    byCode,
		Capstones: capstones,
		Notes:     notes,
	}
}

// cloneDepartment produces a deep, independent copy of d, mirroring
// cloneStudent, across all four container shapes.
func cloneDepartment(d *testDepartment) *testDepartment {
	electives := make([]*testCourse, len(d.Electives))
	for i, c := range d.Electives {
		cc := *c
		electives[i] = &cc
	}
	byCode := make(map[string]*testCourse, len(d.ByCode))
	for k, c := range d.ByCode {
		cc := *c
		byCode[k] = &cc
	}
	capstones := d.Capstones
	if capstones.First != nil {
		f := *capstones.First
		capstones.First = &f
	}
	if capstones.Second != nil {
		s := *capstones.Second
		capstones.Second = &s
	}
	notes := make([]any, len(d.Notes))
	for i, n := range d.Notes {
		if c, ok := n.(*testCourse); ok {
			cc := *c
			notes[i] = &cc
		} else {
			notes[i] = n
		}
	}
	cp := *d
	cp.Electives = electives
	cp.ByCode = byCode
	cp.Capstones = capstones
	cp.Notes = notes
	return &cp
}
