package store

import (
	"testing"
	"time"

	"github.com/seatlog/seatlog/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertTestStudent(t *testing.T, s *Store, name string) int64 {
	t.Helper()
	id, err := s.InsertStudent(model.Student{
		Name:   name,
		X:      10,
		Y:      20,
		Width:  100,
		Height: 60,
	})
	if err != nil {
		t.Fatalf("insertTestStudent: %v", err)
	}
	return id
}

func TestStudentCRUD(t *testing.T) {
	s := newTestStore(t)

	count, err := s.StudentCount()
	if err != nil {
		t.Fatalf("StudentCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 students, got %d", count)
	}

	dob := time.Date(2015, 4, 12, 0, 0, 0, 0, time.UTC)
	id, err := s.InsertStudent(model.Student{
		Name:         "Alice",
		StudentID:    "A-100",
		X:            5,
		Y:            7,
		Rotation:     90,
		Width:        100,
		Height:       60,
		Notes:        "front row",
		DateOfBirth:  &dob,
		ContactInfo:  "alice@example.com",
		CustomFields: map[string]string{"allergy": "peanuts"},
	})
	if err != nil {
		t.Fatalf("InsertStudent: %v", err)
	}

	got, err := s.GetStudent(id)
	if err != nil {
		t.Fatalf("GetStudent: %v", err)
	}
	if got == nil {
		t.Fatal("expected student, got nil")
	}
	if got.Name != "Alice" {
		t.Errorf("expected name Alice, got %q", got.Name)
	}
	if got.StudentID != "A-100" {
		t.Errorf("expected student id A-100, got %q", got.StudentID)
	}
	if got.DateOfBirth == nil || !got.DateOfBirth.Equal(dob) {
		t.Errorf("expected dob %v, got %v", dob, got.DateOfBirth)
	}
	if got.CustomFields["allergy"] != "peanuts" {
		t.Errorf("expected custom field round-trip, got %v", got.CustomFields)
	}

	// Missing student is (nil, nil), not an error.
	missing, err := s.GetStudent(9999)
	if err != nil {
		t.Fatalf("GetStudent missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing student, got %v", missing)
	}

	// Update.
	got.Name = "Alice B."
	got.Notes = "moved to back row"
	if err := s.UpdateStudent(*got); err != nil {
		t.Fatalf("UpdateStudent: %v", err)
	}
	got, _ = s.GetStudent(id)
	if got.Name != "Alice B." {
		t.Errorf("expected updated name, got %q", got.Name)
	}

	// Updating a missing student reports ErrStudentNotFound.
	ghost := *got
	ghost.ID = 12345
	if err := s.UpdateStudent(ghost); err != ErrStudentNotFound {
		t.Errorf("expected ErrStudentNotFound, got %v", err)
	}

	// Delete.
	if err := s.DeleteStudent(id); err != nil {
		t.Fatalf("DeleteStudent: %v", err)
	}
	got, err = s.GetStudent(id)
	if err != nil {
		t.Fatalf("GetStudent after delete: %v", err)
	}
	if got != nil {
		t.Error("expected student gone after delete")
	}
}

func TestInsertStudentUpsert(t *testing.T) {
	s := newTestStore(t)

	id := insertTestStudent(t, s, "Bob")

	// Re-inserting with the same id replaces the row, never duplicates.
	if _, err := s.InsertStudent(model.Student{ID: id, Name: "Bobby", Width: 50, Height: 50}); err != nil {
		t.Fatalf("upsert InsertStudent: %v", err)
	}
	count, err := s.StudentCount()
	if err != nil {
		t.Fatalf("StudentCount: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 student after upsert, got %d", count)
	}
	got, _ := s.GetStudent(id)
	if got.Name != "Bobby" {
		t.Errorf("expected replaced name Bobby, got %q", got.Name)
	}
}

func TestGetStudentsByIDs(t *testing.T) {
	s := newTestStore(t)

	a := insertTestStudent(t, s, "A")
	b := insertTestStudent(t, s, "B")

	// Dangling id 999 is simply absent from the result.
	students, err := s.GetStudentsByIDs([]int64{a, 999, b})
	if err != nil {
		t.Fatalf("GetStudentsByIDs: %v", err)
	}
	if len(students) != 2 {
		t.Fatalf("expected 2 students, got %d", len(students))
	}
	if students[0].ID != a || students[1].ID != b {
		t.Errorf("expected ids [%d %d], got %v", a, b, students)
	}

	students, err = s.GetStudentsByIDs(nil)
	if err != nil {
		t.Fatalf("GetStudentsByIDs empty: %v", err)
	}
	if len(students) != 0 {
		t.Errorf("expected no students for empty id set, got %d", len(students))
	}
}

func TestGroupChildIDs(t *testing.T) {
	s := newTestStore(t)

	a := insertTestStudent(t, s, "A")
	b := insertTestStudent(t, s, "B")

	groupID, err := s.InsertStudent(model.Student{
		Name:     "Table 1",
		IsGroup:  true,
		ChildIDs: []int64{a, b},
	})
	if err != nil {
		t.Fatalf("InsertStudent group: %v", err)
	}

	got, _ := s.GetStudent(groupID)
	if !got.IsGroup {
		t.Fatal("expected group flag set")
	}
	if len(got.ChildIDs) != 2 || got.ChildIDs[0] != a || got.ChildIDs[1] != b {
		t.Errorf("expected child ids [%d %d], got %v", a, b, got.ChildIDs)
	}

	// A non-group never stores child ids.
	soloID, err := s.InsertStudent(model.Student{Name: "Solo", ChildIDs: []int64{a}})
	if err != nil {
		t.Fatalf("InsertStudent solo: %v", err)
	}
	solo, _ := s.GetStudent(soloID)
	if solo.ChildIDs != nil {
		t.Errorf("expected nil child ids for non-group, got %v", solo.ChildIDs)
	}
}

func TestDeleteStudentCascades(t *testing.T) {
	s := newTestStore(t)

	alice := insertTestStudent(t, s, "Alice")
	bob := insertTestStudent(t, s, "Bob")

	now := time.Now()
	mustInsertBehavior(t, s, alice, "Talking", now)
	mustInsertBehavior(t, s, bob, "Helping", now)
	if _, err := s.InsertHomeworkLog(model.HomeworkLog{StudentID: alice, Timestamp: now, HomeworkType: "Reading", Status: "Done"}); err != nil {
		t.Fatalf("InsertHomeworkLog: %v", err)
	}
	if _, err := s.InsertQuizLog(model.QuizLog{StudentID: alice, Timestamp: now, QuizName: "Math", Score: "8/10"}); err != nil {
		t.Fatalf("InsertQuizLog: %v", err)
	}

	if err := s.DeleteStudent(alice); err != nil {
		t.Fatalf("DeleteStudent: %v", err)
	}

	// Every log of the deleted student is gone, of all three kinds.
	for _, probe := range []struct {
		name string
		got  func() (int, error)
	}{
		{"behavior", func() (int, error) { l, err := s.GetBehaviorLogsForStudent(alice); return len(l), err }},
		{"homework", func() (int, error) { l, err := s.GetHomeworkLogsForStudent(alice); return len(l), err }},
		{"quiz", func() (int, error) { l, err := s.GetQuizLogsForStudent(alice); return len(l), err }},
	} {
		n, err := probe.got()
		if err != nil {
			t.Fatalf("%s logs after cascade: %v", probe.name, err)
		}
		if n != 0 {
			t.Errorf("expected 0 %s logs after cascade, got %d", probe.name, n)
		}
	}

	// Other students' logs survive.
	bobLogs, err := s.GetBehaviorLogsForStudent(bob)
	if err != nil {
		t.Fatalf("GetBehaviorLogsForStudent: %v", err)
	}
	if len(bobLogs) != 1 {
		t.Errorf("expected Bob's log untouched, got %d logs", len(bobLogs))
	}
}

func mustInsertBehavior(t *testing.T, s *Store, studentID int64, behavior string, ts time.Time) int64 {
	t.Helper()
	id, err := s.InsertBehaviorLog(model.BehaviorLog{
		StudentID: studentID,
		Timestamp: ts,
		Behavior:  behavior,
	})
	if err != nil {
		t.Fatalf("InsertBehaviorLog: %v", err)
	}
	return id
}
