package entity

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/jtomasevic/entityctl/internal/ids"
)

func TestDiff_FirstPublicationMarksEverythingChanged(t *testing.T) {
	student := newTestStudent("Ada", 3.9, newTestCourse("Algorithms", 4))
	tree, _, err := BuildTree(student, nil)
	require.NoError(t, err)

	changed, err := Diff(tree, nil)
	require.NoError(t, err)
	require.Len(t, changed, tree.NodeCount)
}

func TestDiff_UnchangedTreeYieldsNoChanges(t *testing.T) {
	student := newTestStudent("Ada", 3.9, newTestCourse("Algorithms", 4))
	oldTree, _, err := BuildTree(student, nil)
	require.NoError(t, err)

	again := cloneStudent(student)
	newTree, _, err := BuildTree(again, nil)
	require.NoError(t, err)

	changed, err := Diff(newTree, oldTree)
	require.NoError(t, err)
	require.Empty(t, changed)
}

func TestDiff_LeafChangePropagatesToRoot(t *testing.T) {
	course := newTestCourse("Algorithms", 4)
	student := newTestStudent("Ada", 3.9, course)
	oldTree, _, err := BuildTree(student, nil)
	require.NoError(t, err)

	mutated := cloneStudent(student)
	mutated.Courses[0].Credits = 5 // only the course's primitive field changes

	newTree, _, err := BuildTree(mutated, nil)
	require.NoError(t, err)

	changed, err := Diff(newTree, oldTree)
	require.NoError(t, err)

	require.True(t, changed[mutated.Courses[0].LogicalID], "changed leaf")
	require.True(t, changed[mutated.LogicalID], "root must propagate")
	require.Len(t, changed, 2)
}

func TestDiff_ChangedSetMatchesExactlyViaCmp(t *testing.T) {
	course := newTestCourse("Algorithms", 4)
	student := newTestStudent("Ada", 3.9, course)
	oldTree, _, err := BuildTree(student, nil)
	require.NoError(t, err)

	mutated := cloneStudent(student)
	mutated.Courses[0].Credits = 5

	newTree, _, err := BuildTree(mutated, nil)
	require.NoError(t, err)

	changed, err := Diff(newTree, oldTree)
	require.NoError(t, err)

	var got []ids.LogicalID
	for id, isChanged := range changed {
		if isChanged {
			got = append(got, id)
		}
	}
	want := []ids.LogicalID{mutated.LogicalID, mutated.Courses[0].LogicalID}

	// go-cmp gives a readable element-by-element diff on mismatch, unlike
	// reflect.DeepEqual's plain not-equal verdict; cmpopts.SortSlices
	// makes the comparison order-independent since changed's iteration
	// order (a map) isn't meaningful.
	less := func(a, b ids.LogicalID) bool { return a.String() < b.String() }
	if diff := cmp.Diff(want, got, cmpopts.SortSlices(less)); diff != "" {
		t.Errorf("changed set mismatch (-want +got):\n%s", diff)
	}
}

func TestDiff_SetElementChangePropagates(t *testing.T) {
	elective := newTestCourse("Robotics", 3)
	dept := newTestDepartment("CS", []*testCourse{elective}, nil, testCoursePair{}, nil)
	oldTree, _, err := BuildTree(dept, nil)
	require.NoError(t, err)

	mutated := cloneDepartment(dept)
	mutated.Electives[0].Credits = 4

	newTree, _, err := BuildTree(mutated, nil)
	require.NoError(t, err)

	changed, err := Diff(newTree, oldTree)
	require.NoError(t, err)
	require.True(t, changed[mutated.Electives[0].LogicalID])
	require.True(t, changed[mutated.LogicalID])
	require.Len(t, changed, 2)
}

func TestDiff_MapValueChangePropagates(t *testing.T) {
	mapped := newTestCourse("Databases", 3)
	dept := newTestDepartment("CS", nil, map[string]*testCourse{"DB101": mapped}, testCoursePair{}, nil)
	oldTree, _, err := BuildTree(dept, nil)
	require.NoError(t, err)

	mutated := cloneDepartment(dept)
	mutated.ByCode["DB101"].Credits = 4

	newTree, _, err := BuildTree(mutated, nil)
	require.NoError(t, err)

	changed, err := Diff(newTree, oldTree)
	require.NoError(t, err)
	require.True(t, changed[mutated.ByCode["DB101"].LogicalID])
	require.True(t, changed[mutated.LogicalID])
	require.Len(t, changed, 2)
}

func TestDiff_TupleSlotChangePropagates(t *testing.T) {
	first := newTestCourse("Thesis I", 6)
	second := newTestCourse("Thesis II", 6)
	dept := newTestDepartment("CS", nil, nil, testCoursePair{First: first, Second: second}, nil)
	oldTree, _, err := BuildTree(dept, nil)
	require.NoError(t, err)

	mutated := cloneDepartment(dept)
	mutated.Capstones.Second.Credits = 7

	newTree, _, err := BuildTree(mutated, nil)
	require.NoError(t, err)

	changed, err := Diff(newTree, oldTree)
	require.NoError(t, err)
	require.True(t, changed[mutated.Capstones.Second.LogicalID])
	require.False(t, changed[mutated.Capstones.First.LogicalID])
	require.True(t, changed[mutated.LogicalID])
	require.Len(t, changed, 2)
}

func TestDiff_MixedContainerEntityChangePropagates(t *testing.T) {
	noted := newTestCourse("Seminar", 1)
	dept := newTestDepartment("CS", nil, nil, testCoursePair{}, []any{noted, "unchanged note"})
	oldTree, _, err := BuildTree(dept, nil)
	require.NoError(t, err)

	mutated := cloneDepartment(dept)
	mutated.Notes[0].(*testCourse).Credits = 2

	newTree, _, err := BuildTree(mutated, nil)
	require.NoError(t, err)

	changed, err := Diff(newTree, oldTree)
	require.NoError(t, err)
	require.True(t, changed[mutated.Notes[0].(*testCourse).LogicalID])
	require.True(t, changed[mutated.LogicalID])
	require.Len(t, changed, 2)
}

func TestDiff_AddedChildMarksParentChangedOnly(t *testing.T) {
	course := newTestCourse("Algorithms", 4)
	student := newTestStudent("Ada", 3.9, course)
	oldTree, _, err := BuildTree(student, nil)
	require.NoError(t, err)

	mutated := cloneStudent(student)
	mutated.Courses = append(mutated.Courses, newTestCourse("Compilers", 3))

	newTree, _, err := BuildTree(mutated, nil)
	require.NoError(t, err)

	changed, err := Diff(newTree, oldTree)
	require.NoError(t, err)

	require.True(t, changed[mutated.LogicalID])
	require.True(t, changed[mutated.Courses[1].LogicalID])
	require.False(t, changed[mutated.Courses[0].LogicalID], "untouched sibling stays unchanged")
}
