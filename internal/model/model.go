package model

import "time"

// Mode identifies which logging surface the UI currently shows.
type Mode string

const (
	ModeBehavior Mode = "Behavior"
	ModeQuiz     Mode = "Quiz"
	ModeHomework Mode = "Homework"
)

// Student is a box on the seating chart: either a single student or a
// group container holding other students as members.
type Student struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	StudentID string  `json:"student_id,omitempty"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Rotation  float64 `json:"rotation"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	IsGroup   bool    `json:"is_group"`
	// ChildIDs lists member students. Non-nil only when IsGroup is set.
	ChildIDs     []int64           `json:"child_ids,omitempty"`
	Notes        string            `json:"notes,omitempty"`
	DateOfBirth  *time.Time        `json:"date_of_birth,omitempty"`
	ContactInfo  string            `json:"contact_info,omitempty"`
	CustomFields map[string]string `json:"custom_fields,omitempty"`
}

// FurnitureItem is a non-student shape on the chart (desk, rug, board).
type FurnitureItem struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Type     string  `json:"type"`
	Color    string  `json:"color,omitempty"`
	// IsBehindStudents controls draw order relative to student boxes.
	IsBehindStudents bool `json:"is_behind_students"`
}

// BehaviorLog is an append-only behavior event for one student.
type BehaviorLog struct {
	ID        int64     `json:"id"`
	StudentID int64     `json:"student_id"`
	Timestamp time.Time `json:"timestamp"`
	Behavior  string    `json:"behavior"`
	Comment   string    `json:"comment,omitempty"`
}

// HomeworkLog is an append-only homework event for one student.
type HomeworkLog struct {
	ID           int64     `json:"id"`
	StudentID    int64     `json:"student_id"`
	Timestamp    time.Time `json:"timestamp"`
	HomeworkType string    `json:"homework_type"`
	Status       string    `json:"status"`
	Comment      string    `json:"comment,omitempty"`
}

// QuizLog is an append-only quiz event for one student. Score is kept as
// entered ("8/10", "85%", "B+"); numeric comparisons parse it on demand.
type QuizLog struct {
	ID        int64     `json:"id"`
	StudentID int64     `json:"student_id"`
	Timestamp time.Time `json:"timestamp"`
	QuizName  string    `json:"quiz_name"`
	Score     string    `json:"score"`
	Comment   string    `json:"comment,omitempty"`
}

// StudentView is the read-side projection of a student: the stored record
// plus derived latest-log fields, resolved group members, and any
// conditional formatting selected for the current mode. Never persisted.
type StudentView struct {
	Student
	Children              []StudentView                 `json:"children,omitempty"`
	LastBehavior          *string                       `json:"last_behavior,omitempty"`
	LastBehaviorTimestamp *time.Time                    `json:"last_behavior_timestamp,omitempty"`
	LastQuiz              *string                       `json:"last_quiz,omitempty"`
	LastQuizScore         *string                       `json:"last_quiz_score,omitempty"`
	LastQuizTimestamp     *time.Time                    `json:"last_quiz_timestamp,omitempty"`
	LastHomework          *string                       `json:"last_homework,omitempty"`
	LastHomeworkStatus    *string                       `json:"last_homework_status,omitempty"`
	LastHomeworkTimestamp *time.Time                    `json:"last_homework_timestamp,omitempty"`
	ConditionalFormatting []ConditionalFormattingResult `json:"conditional_formatting,omitempty"`
}

// ConditionalFormattingResult is one matched rule's contribution to a
// student's rendering, attribute name to value.
type ConditionalFormattingResult struct {
	RuleName   string            `json:"rule_name"`
	Formatting map[string]string `json:"formatting"`
}
