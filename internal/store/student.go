package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/seatlog/seatlog/internal/model"
)

const studentColumns = `id, name, student_id, x, y, rotation, width, height,
	is_group, children_ids, notes, date_of_birth, contact_info, custom_fields`

// InsertStudent stores a student. An id of 0 auto-assigns; a non-zero id
// replaces any existing row with that id (upsert).
func (s *Store) InsertStudent(st model.Student) (int64, error) {
	r := NewStudentRecord(st)
	var (
		res sql.Result
		err error
	)
	if r.ID == 0 {
		res, err = s.db.Exec(
			`INSERT INTO students (name, student_id, x, y, rotation, width, height,
			 is_group, children_ids, notes, date_of_birth, contact_info, custom_fields)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.Name, r.StudentID, r.X, r.Y, r.Rotation, r.Width, r.Height,
			r.IsGroup, r.ChildrenIDs, r.Notes, r.DateOfBirth, r.ContactInfo, r.CustomFields,
		)
	} else {
		res, err = s.db.Exec(
			`INSERT INTO students (id, name, student_id, x, y, rotation, width, height,
			 is_group, children_ids, notes, date_of_birth, contact_info, custom_fields)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			 name = excluded.name, student_id = excluded.student_id,
			 x = excluded.x, y = excluded.y, rotation = excluded.rotation,
			 width = excluded.width, height = excluded.height,
			 is_group = excluded.is_group, children_ids = excluded.children_ids,
			 notes = excluded.notes, date_of_birth = excluded.date_of_birth,
			 contact_info = excluded.contact_info, custom_fields = excluded.custom_fields`,
			r.ID, r.Name, r.StudentID, r.X, r.Y, r.Rotation, r.Width, r.Height,
			r.IsGroup, r.ChildrenIDs, r.Notes, r.DateOfBirth, r.ContactInfo, r.CustomFields,
		)
	}
	if err != nil {
		return 0, err
	}
	id := r.ID
	if id == 0 {
		if id, err = res.LastInsertId(); err != nil {
			return 0, err
		}
	}
	s.notifier.Publish(TableStudents)
	return id, nil
}

// GetStudent returns a student by id, or (nil, nil) when it does not exist.
func (s *Store) GetStudent(id int64) (*model.Student, error) {
	row := s.db.QueryRow(`SELECT `+studentColumns+` FROM students WHERE id = ?`, id)
	r, err := scanStudent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	st := r.ToStudent()
	return &st, nil
}

// ListStudents returns all students ordered by id.
func (s *Store) ListStudents() ([]model.Student, error) {
	rows, err := s.db.Query(`SELECT ` + studentColumns + ` FROM students ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var students []model.Student
	for rows.Next() {
		r, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, r.ToStudent())
	}
	return students, rows.Err()
}

// GetStudentsByIDs fetches the students for an id set, ordered by id.
// Ids with no matching row are simply absent from the result; callers
// resolving group members drop dangling references this way.
func (s *Store) GetStudentsByIDs(ids []int64) ([]model.Student, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.Query(
		`SELECT `+studentColumns+` FROM students WHERE id IN (`+placeholders+`) ORDER BY id`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var students []model.Student
	for rows.Next() {
		r, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, r.ToStudent())
	}
	return students, rows.Err()
}

// UpdateStudent rewrites an existing student row.
func (s *Store) UpdateStudent(st model.Student) error {
	r := NewStudentRecord(st)
	res, err := s.db.Exec(
		`UPDATE students SET name = ?, student_id = ?, x = ?, y = ?, rotation = ?,
		 width = ?, height = ?, is_group = ?, children_ids = ?, notes = ?,
		 date_of_birth = ?, contact_info = ?, custom_fields = ?
		 WHERE id = ?`,
		r.Name, r.StudentID, r.X, r.Y, r.Rotation, r.Width, r.Height,
		r.IsGroup, r.ChildrenIDs, r.Notes, r.DateOfBirth, r.ContactInfo, r.CustomFields,
		r.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStudentNotFound
	}
	s.notifier.Publish(TableStudents)
	return nil
}

// DeleteStudent removes a student and, in the same transaction, every
// behavior, homework, and quiz log referencing it.
func (s *Store) DeleteStudent(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"behavior_logs", "homework_logs", "quiz_logs"} {
		if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM %s WHERE student_id = ?`, table), id); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`DELETE FROM students WHERE id = ?`, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.notifier.Publish(TableStudents)
	s.notifier.Publish(TableBehaviorLogs)
	s.notifier.Publish(TableHomeworkLogs)
	s.notifier.Publish(TableQuizLogs)
	return nil
}

// StudentCount returns the number of student rows.
func (s *Store) StudentCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM students`).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (StudentRecord, error) {
	var r StudentRecord
	err := row.Scan(
		&r.ID, &r.Name, &r.StudentID, &r.X, &r.Y, &r.Rotation, &r.Width, &r.Height,
		&r.IsGroup, &r.ChildrenIDs, &r.Notes, &r.DateOfBirth, &r.ContactInfo, &r.CustomFields,
	)
	return r, err
}
