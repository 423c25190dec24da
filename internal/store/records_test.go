package store

import (
	"database/sql"
	"reflect"
	"testing"
	"time"

	"github.com/seatlog/seatlog/internal/model"
)

func TestStudentRecordRoundTrip(t *testing.T) {
	dob := time.Date(2014, 9, 30, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		student model.Student
	}{
		{"minimal", model.Student{ID: 1, Name: "A"}},
		{"full", model.Student{
			ID: 2, Name: "B", StudentID: "S-2",
			X: 1.5, Y: 2.5, Rotation: 45, Width: 100, Height: 60,
			Notes: "notes", DateOfBirth: &dob, ContactInfo: "b@example.com",
			CustomFields: map[string]string{"bus": "7", "allergy": "none"},
		}},
		{"group", model.Student{
			ID: 3, Name: "Table", IsGroup: true, ChildIDs: []int64{1, 2},
		}},
		{"non-group drops children", model.Student{
			ID: 4, Name: "C", IsGroup: false, ChildIDs: []int64{9},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewStudentRecord(tt.student).ToStudent()

			want := tt.student
			if !want.IsGroup {
				want.ChildIDs = nil // invariant: member list only for groups
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
			}
		})
	}
}

func TestCustomFieldsRoundTripExact(t *testing.T) {
	fields := map[string]string{"a": "1", "b": "two", "c": ""}
	col := encodeJSONColumn(fields)
	got := decodeCustomFields(col)
	if !reflect.DeepEqual(got, fields) {
		t.Errorf("expected %v, got %v", fields, got)
	}

	// Empty map stores NULL and decodes to nil.
	if encodeJSONColumn(map[string]string{}).Valid {
		t.Error("expected empty map to encode as NULL")
	}
}

func TestDecodeToleratesMalformedColumns(t *testing.T) {
	tests := []struct {
		name string
		col  sql.NullString
	}{
		{"absent", sql.NullString{}},
		{"empty", sql.NullString{String: "", Valid: true}},
		{"garbage", sql.NullString{String: "{not json", Valid: true}},
		{"wrong shape", sql.NullString{String: `["a", 1]`, Valid: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodeCustomFields(tt.col); got != nil {
				t.Errorf("custom fields: expected nil, got %v", got)
			}
			if got := decodeChildIDs(tt.col); got != nil {
				t.Errorf("child ids: expected nil, got %v", got)
			}
		})
	}
}

func TestStudentRecordInvalidDateOfBirth(t *testing.T) {
	r := StudentRecord{ID: 1, Name: "A", DateOfBirth: sql.NullString{String: "not-a-date", Valid: true}}
	got := r.ToStudent()
	if got.DateOfBirth != nil {
		t.Errorf("expected absent dob for malformed column, got %v", got.DateOfBirth)
	}
}

func TestFurnitureRecordRoundTrip(t *testing.T) {
	item := model.FurnitureItem{
		ID: 5, Name: "Teacher desk", X: 1, Y: 2, Rotation: 180,
		Width: 140, Height: 70, Type: "desk", Color: "#8B4513", IsBehindStudents: true,
	}
	got := NewFurnitureRecord(item).ToFurnitureItem()
	if !reflect.DeepEqual(got, item) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, item)
	}
}

func TestLogRecordRoundTrips(t *testing.T) {
	ts := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

	b := model.BehaviorLog{ID: 1, StudentID: 2, Timestamp: ts, Behavior: "Talking", Comment: "again"}
	if got := NewBehaviorLogRecord(b).ToBehaviorLog(); !reflect.DeepEqual(got, b) {
		t.Errorf("behavior round trip mismatch: got %+v", got)
	}

	h := model.HomeworkLog{ID: 1, StudentID: 2, Timestamp: ts, HomeworkType: "Reading", Status: "Done"}
	if got := NewHomeworkLogRecord(h).ToHomeworkLog(); !reflect.DeepEqual(got, h) {
		t.Errorf("homework round trip mismatch: got %+v", got)
	}

	q := model.QuizLog{ID: 1, StudentID: 2, Timestamp: ts, QuizName: "Math", Score: "8/10"}
	if got := NewQuizLogRecord(q).ToQuizLog(); !reflect.DeepEqual(got, q) {
		t.Errorf("quiz round trip mismatch: got %+v", got)
	}
}
