package store

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/seatlog/seatlog/internal/model"
)

// Record types mirror the table shapes. Structured fields (member-id
// lists, custom-field maps) live in opaque JSON text columns; the mapper
// functions below convert them to and from the domain types. Mapping is
// stateless and total: malformed stored text decodes to the empty
// structure, never an error.

const dateLayout = "2006-01-02"

// StudentRecord is the storage shape of one students row.
type StudentRecord struct {
	ID           int64
	Name         string
	StudentID    sql.NullString
	X            float64
	Y            float64
	Rotation     float64
	Width        float64
	Height       float64
	IsGroup      bool
	ChildrenIDs  sql.NullString // JSON array of student ids, groups only
	Notes        sql.NullString
	DateOfBirth  sql.NullString // "2006-01-02"
	ContactInfo  sql.NullString
	CustomFields sql.NullString // JSON object, string values
}

// NewStudentRecord converts a domain student to its storage shape.
func NewStudentRecord(s model.Student) StudentRecord {
	r := StudentRecord{
		ID:           s.ID,
		Name:         s.Name,
		StudentID:    nullable(s.StudentID),
		X:            s.X,
		Y:            s.Y,
		Rotation:     s.Rotation,
		Width:        s.Width,
		Height:       s.Height,
		IsGroup:      s.IsGroup,
		Notes:        nullable(s.Notes),
		ContactInfo:  nullable(s.ContactInfo),
		CustomFields: encodeJSONColumn(s.CustomFields),
	}
	// Member ids are stored only for groups; a non-group row keeps NULL.
	if s.IsGroup {
		r.ChildrenIDs = encodeJSONColumn(s.ChildIDs)
	}
	if s.DateOfBirth != nil {
		r.DateOfBirth = nullable(s.DateOfBirth.Format(dateLayout))
	}
	return r
}

// ToStudent converts a storage row back to the domain shape.
func (r StudentRecord) ToStudent() model.Student {
	s := model.Student{
		ID:           r.ID,
		Name:         r.Name,
		StudentID:    r.StudentID.String,
		X:            r.X,
		Y:            r.Y,
		Rotation:     r.Rotation,
		Width:        r.Width,
		Height:       r.Height,
		IsGroup:      r.IsGroup,
		Notes:        r.Notes.String,
		ContactInfo:  r.ContactInfo.String,
		CustomFields: decodeCustomFields(r.CustomFields),
	}
	if r.IsGroup {
		s.ChildIDs = decodeChildIDs(r.ChildrenIDs)
	}
	if r.DateOfBirth.Valid && r.DateOfBirth.String != "" {
		if d, err := time.Parse(dateLayout, r.DateOfBirth.String); err == nil {
			s.DateOfBirth = &d
		} else {
			slog.Warn("invalid date_of_birth column, treating as absent",
				"student_id", r.ID, "value", r.DateOfBirth.String)
		}
	}
	return s
}

// FurnitureRecord is the storage shape of one furniture_items row.
type FurnitureRecord struct {
	ID               int64
	Name             sql.NullString
	X                float64
	Y                float64
	Rotation         float64
	Width            float64
	Height           float64
	Type             string
	Color            sql.NullString
	IsBehindStudents bool
}

func NewFurnitureRecord(f model.FurnitureItem) FurnitureRecord {
	return FurnitureRecord{
		ID:               f.ID,
		Name:             nullable(f.Name),
		X:                f.X,
		Y:                f.Y,
		Rotation:         f.Rotation,
		Width:            f.Width,
		Height:           f.Height,
		Type:             f.Type,
		Color:            nullable(f.Color),
		IsBehindStudents: f.IsBehindStudents,
	}
}

func (r FurnitureRecord) ToFurnitureItem() model.FurnitureItem {
	return model.FurnitureItem{
		ID:               r.ID,
		Name:             r.Name.String,
		X:                r.X,
		Y:                r.Y,
		Rotation:         r.Rotation,
		Width:            r.Width,
		Height:           r.Height,
		Type:             r.Type,
		Color:            r.Color.String,
		IsBehindStudents: r.IsBehindStudents,
	}
}

// BehaviorLogRecord is the storage shape of one behavior_logs row.
// Timestamps are stored as unix seconds.
type BehaviorLogRecord struct {
	ID        int64
	StudentID int64
	Timestamp int64
	Behavior  string
	Comment   sql.NullString
}

func NewBehaviorLogRecord(l model.BehaviorLog) BehaviorLogRecord {
	return BehaviorLogRecord{
		ID:        l.ID,
		StudentID: l.StudentID,
		Timestamp: l.Timestamp.Unix(),
		Behavior:  l.Behavior,
		Comment:   nullable(l.Comment),
	}
}

func (r BehaviorLogRecord) ToBehaviorLog() model.BehaviorLog {
	return model.BehaviorLog{
		ID:        r.ID,
		StudentID: r.StudentID,
		Timestamp: time.Unix(r.Timestamp, 0).UTC(),
		Behavior:  r.Behavior,
		Comment:   r.Comment.String,
	}
}

// HomeworkLogRecord is the storage shape of one homework_logs row.
type HomeworkLogRecord struct {
	ID           int64
	StudentID    int64
	Timestamp    int64
	HomeworkType string
	Status       string
	Comment      sql.NullString
}

func NewHomeworkLogRecord(l model.HomeworkLog) HomeworkLogRecord {
	return HomeworkLogRecord{
		ID:           l.ID,
		StudentID:    l.StudentID,
		Timestamp:    l.Timestamp.Unix(),
		HomeworkType: l.HomeworkType,
		Status:       l.Status,
		Comment:      nullable(l.Comment),
	}
}

func (r HomeworkLogRecord) ToHomeworkLog() model.HomeworkLog {
	return model.HomeworkLog{
		ID:           r.ID,
		StudentID:    r.StudentID,
		Timestamp:    time.Unix(r.Timestamp, 0).UTC(),
		HomeworkType: r.HomeworkType,
		Status:       r.Status,
		Comment:      r.Comment.String,
	}
}

// QuizLogRecord is the storage shape of one quiz_logs row.
type QuizLogRecord struct {
	ID        int64
	StudentID int64
	Timestamp int64
	QuizName  string
	Score     string
	Comment   sql.NullString
}

func NewQuizLogRecord(l model.QuizLog) QuizLogRecord {
	return QuizLogRecord{
		ID:        l.ID,
		StudentID: l.StudentID,
		Timestamp: l.Timestamp.Unix(),
		QuizName:  l.QuizName,
		Score:     l.Score,
		Comment:   nullable(l.Comment),
	}
}

func (r QuizLogRecord) ToQuizLog() model.QuizLog {
	return model.QuizLog{
		ID:        r.ID,
		StudentID: r.StudentID,
		Timestamp: time.Unix(r.Timestamp, 0).UTC(),
		QuizName:  r.QuizName,
		Score:     r.Score,
		Comment:   r.Comment.String,
	}
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// encodeJSONColumn serializes a list or map to a text column. Empty and
// nil values map to NULL so an untouched row stays distinguishable.
func encodeJSONColumn(v any) sql.NullString {
	switch t := v.(type) {
	case []int64:
		if len(t) == 0 {
			return sql.NullString{}
		}
	case map[string]string:
		if len(t) == 0 {
			return sql.NullString{}
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		// Only marshal failures possible here are unsupported types,
		// which the closed input set above rules out.
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

func decodeChildIDs(col sql.NullString) []int64 {
	if !col.Valid || col.String == "" {
		return nil
	}
	var ids []int64
	if err := json.Unmarshal([]byte(col.String), &ids); err != nil {
		slog.Warn("malformed children_ids column, treating as empty", "value", col.String)
		return nil
	}
	return ids
}

func decodeCustomFields(col sql.NullString) map[string]string {
	if !col.Valid || col.String == "" {
		return nil
	}
	var fields map[string]string
	if err := json.Unmarshal([]byte(col.String), &fields); err != nil {
		slog.Warn("malformed custom_fields column, treating as empty", "value", col.String)
		return nil
	}
	return fields
}
