package entity

import (
	"testing"

	"github.com/jtomasevic/entityctl/internal/ids"
	"github.com/stretchr/testify/require"
)

func TestVersion_FirstPublishRekeysEveryNode(t *testing.T) {
	student := newTestStudent("Ada", 3.9, newTestCourse("Algorithms", 4))
	oldLogicalID := student.LogicalID
	oldCourseID := student.Courses[0].LogicalID

	tree, _, err := BuildTree(student, nil)
	require.NoError(t, err)

	result, err := Version(tree, nil)
	require.NoError(t, err)
	require.Equal(t, NewVersion, result.Outcome)
	require.Equal(t, 2, result.ChangedCount)
	require.True(t, result.OldRootLogicalID.IsZero())
	require.NotEqual(t, oldLogicalID, result.NewRootLogicalID)

	newRoot := result.Tree.Root().(*testStudent)
	require.NotNil(t, newRoot.PreviousLogicalID)
	require.Equal(t, oldLogicalID, *newRoot.PreviousLogicalID)
	require.NotNil(t, newRoot.ForkedAt)

	// The authoritative graph (Tree.Children), not the copied root's own
	// struct fields, is what carries the rekeyed child identity.
	childEdges := result.Tree.Children[result.NewRootLogicalID]
	require.Len(t, childEdges, 1)
	newCourseID := childEdges[0].Child
	require.NotEqual(t, oldCourseID, newCourseID)

	newCourse, ok := result.Tree.Get(newCourseID)
	require.True(t, ok)
	require.NotNil(t, newCourse.EntityBase().PreviousLogicalID)
	require.Equal(t, oldCourseID, *newCourse.EntityBase().PreviousLogicalID)
}

func TestVersion_UnchangedYieldsNoOp(t *testing.T) {
	student := newTestStudent("Ada", 3.9, newTestCourse("Algorithms", 4))
	oldTree, _, err := BuildTree(student, nil)
	require.NoError(t, err)

	first, err := Version(oldTree, nil)
	require.NoError(t, err)
	require.Equal(t, NewVersion, first.Outcome)

	again := cloneStudent(student)
	newTree, _, err := BuildTree(again, nil)
	require.NoError(t, err)

	result, err := Version(newTree, first.Tree)
	require.NoError(t, err)
	require.Equal(t, Unchanged, result.Outcome)
	require.Equal(t, first.Tree.RootLogicalID, result.NewRootLogicalID)
	require.Nil(t, result.Tree)
}

func TestVersion_UnrelatedNodeKeepsItsLogicalID(t *testing.T) {
	student := newTestStudent("Ada", 3.9,
		newTestCourse("Algorithms", 4),
		newTestCourse("Compilers", 3))
	oldTree, _, err := BuildTree(student, nil)
	require.NoError(t, err)
	published, err := Version(oldTree, nil)
	require.NoError(t, err)

	publishedStudent := published.Tree.Root().(*testStudent)
	childEdges := published.Tree.Children[published.NewRootLogicalID]
	require.Len(t, childEdges, 2)
	algorithmsID, compilersID := childEdges[0].Child, childEdges[1].Child

	// Build the next live generation directly from the published graph
	// (not from the stale struct-field view), mutating only one course.
	algorithms, _ := published.Tree.Get(algorithmsID)
	compilers, _ := published.Tree.Get(compilersID)
	mutatedCourse := *algorithms.(*testCourse)
	mutatedCourse.Credits = 5
	mutated := &testStudent{
		Base:    publishedStudent.Base,
		Name:    publishedStudent.Name,
		GPA:     publishedStudent.GPA,
		Courses: []*testCourse{&mutatedCourse, compilers.(*testCourse)},
	}

	newTree, _, err := BuildTree(mutated, nil)
	require.NoError(t, err)

	result, err := Version(newTree, published.Tree)
	require.NoError(t, err)
	require.Equal(t, NewVersion, result.Outcome)

	_, stillThere := result.Tree.Get(compilersID)
	require.True(t, stillThere, "untouched sibling keeps its logical id across the publish")
}

func TestVersion_ContainerFieldKindsRekeyOnlyChangedSlots(t *testing.T) {
	elective := newTestCourse("Robotics", 3)
	mapped := newTestCourse("Databases", 3)
	first := newTestCourse("Thesis I", 6)
	second := newTestCourse("Thesis II", 6)
	noted := newTestCourse("Seminar", 1)

	dept := newTestDepartment("CS",
		[]*testCourse{elective},
		map[string]*testCourse{"DB101": mapped},
		testCoursePair{First: first, Second: second},
		[]any{noted, "a note"},
	)
	oldTree, _, err := BuildTree(dept, nil)
	require.NoError(t, err)
	published, err := Version(oldTree, nil)
	require.NoError(t, err)
	require.Equal(t, NewVersion, published.Outcome)
	require.Equal(t, 6, published.ChangedCount) // department + 5 entity children, all new

	publishedDept := published.Tree.Root().(*testDepartment)
	slotID := map[Slot]ids.LogicalID{}
	for _, e := range published.Tree.Children[published.NewRootLogicalID] {
		slotID[e.Slot] = e.Child
	}
	electiveID := slotID[Slot{Field: "Electives", Key: "0"}]
	mappedID := slotID[Slot{Field: "ByCode", Key: "DB101"}]
	firstID := slotID[Slot{Field: "Capstones", Key: "0"}]
	secondID := slotID[Slot{Field: "Capstones", Key: "1"}]
	notedID := slotID[Slot{Field: "Notes", Key: "0"}]

	// Build the next generation directly from the published graph (not the
	// stale struct-field view), mutating only the mapped course.
	getCourse := func(id ids.LogicalID) *testCourse {
		e, _ := published.Tree.Get(id)
		return e.(*testCourse)
	}
	mutatedMapped := *getCourse(mappedID)
	mutatedMapped.Credits = 4

	mutated := &testDepartment{
		Base:      publishedDept.Base,
		Name:      publishedDept.Name,
		Electives: []*testCourse{getCourse(electiveID)},
		ByCode:    map[string]*testCourse{"DB101": &mutatedMapped},
		Capstones: testCoursePair{First: getCourse(firstID), Second: getCourse(secondID)},
		Notes:     []any{getCourse(notedID), "a note"},
	}

	newTree, _, err := BuildTree(mutated, nil)
	require.NoError(t, err)

	result, err := Version(newTree, published.Tree)
	require.NoError(t, err)
	require.Equal(t, NewVersion, result.Outcome)
	require.Equal(t, 2, result.ChangedCount) // department + the mutated mapped course

	_, stillThere := result.Tree.Get(electiveID)
	require.True(t, stillThere, "untouched set element keeps its logical id")
	_, stillThere = result.Tree.Get(firstID)
	require.True(t, stillThere, "untouched tuple slot keeps its logical id")
	_, stillThere = result.Tree.Get(secondID)
	require.True(t, stillThere, "untouched tuple slot keeps its logical id")
	_, stillThere = result.Tree.Get(notedID)
	require.True(t, stillThere, "untouched mixed-container entity keeps its logical id")

	_, stillSame := result.Tree.Get(mappedID)
	require.False(t, stillSame, "changed map value is rekeyed to a new logical id")
}

func TestSyncIdentity_CopiesProvenanceOnly(t *testing.T) {
	src := newTestStudent("Ada", 3.9)
	dst := newTestStudent("Ada", 0) // domain field deliberately different

	SyncIdentity(dst, src)

	require.Equal(t, src.LogicalID, dst.LogicalID)
	require.Equal(t, src.LineageID, dst.LineageID)
	require.Equal(t, float64(0), dst.GPA, "SyncIdentity must not touch domain fields")
}
