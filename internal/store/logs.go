package store

import (
	"database/sql"
	"time"

	"github.com/seatlog/seatlog/internal/model"
)

// Log writes verify the referenced student inside the same transaction so
// a log can never be created for a student that does not exist.

// InsertBehaviorLog appends a behavior event for a student.
func (s *Store) InsertBehaviorLog(l model.BehaviorLog) (int64, error) {
	r := NewBehaviorLogRecord(l)
	id, err := s.insertLog(r.StudentID,
		`INSERT INTO behavior_logs (student_id, timestamp, behavior, comment) VALUES (?, ?, ?, ?)`,
		r.StudentID, r.Timestamp, r.Behavior, r.Comment,
	)
	if err != nil {
		return 0, err
	}
	s.notifier.Publish(TableBehaviorLogs)
	return id, nil
}

// GetBehaviorLogsForStudent returns a student's behavior logs newest first.
func (s *Store) GetBehaviorLogsForStudent(studentID int64) ([]model.BehaviorLog, error) {
	rows, err := s.db.Query(
		`SELECT id, student_id, timestamp, behavior, comment FROM behavior_logs
		 WHERE student_id = ? ORDER BY timestamp DESC, id DESC`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var logs []model.BehaviorLog
	for rows.Next() {
		var r BehaviorLogRecord
		if err := rows.Scan(&r.ID, &r.StudentID, &r.Timestamp, &r.Behavior, &r.Comment); err != nil {
			return nil, err
		}
		logs = append(logs, r.ToBehaviorLog())
	}
	return logs, rows.Err()
}

// GetLatestBehaviorLog returns a student's most recent behavior log, or
// (nil, nil) when the student has none.
func (s *Store) GetLatestBehaviorLog(studentID int64) (*model.BehaviorLog, error) {
	var r BehaviorLogRecord
	err := s.db.QueryRow(
		`SELECT id, student_id, timestamp, behavior, comment FROM behavior_logs
		 WHERE student_id = ? ORDER BY timestamp DESC, id DESC LIMIT 1`, studentID,
	).Scan(&r.ID, &r.StudentID, &r.Timestamp, &r.Behavior, &r.Comment)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	l := r.ToBehaviorLog()
	return &l, nil
}

// LatestBehaviorLogs returns the most recent behavior log for every
// student that has one, keyed by student id. Students with no logs are
// simply absent from the map.
func (s *Store) LatestBehaviorLogs() (map[int64]model.BehaviorLog, error) {
	rows, err := s.db.Query(
		`SELECT id, student_id, timestamp, behavior, comment FROM behavior_logs
		 ORDER BY timestamp ASC, id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	latest := make(map[int64]model.BehaviorLog)
	for rows.Next() {
		var r BehaviorLogRecord
		if err := rows.Scan(&r.ID, &r.StudentID, &r.Timestamp, &r.Behavior, &r.Comment); err != nil {
			return nil, err
		}
		latest[r.StudentID] = r.ToBehaviorLog()
	}
	return latest, rows.Err()
}

// InsertHomeworkLog appends a homework event for a student.
func (s *Store) InsertHomeworkLog(l model.HomeworkLog) (int64, error) {
	r := NewHomeworkLogRecord(l)
	id, err := s.insertLog(r.StudentID,
		`INSERT INTO homework_logs (student_id, timestamp, homework_type, status, comment) VALUES (?, ?, ?, ?, ?)`,
		r.StudentID, r.Timestamp, r.HomeworkType, r.Status, r.Comment,
	)
	if err != nil {
		return 0, err
	}
	s.notifier.Publish(TableHomeworkLogs)
	return id, nil
}

// GetHomeworkLogsForStudent returns a student's homework logs newest first.
func (s *Store) GetHomeworkLogsForStudent(studentID int64) ([]model.HomeworkLog, error) {
	rows, err := s.db.Query(
		`SELECT id, student_id, timestamp, homework_type, status, comment FROM homework_logs
		 WHERE student_id = ? ORDER BY timestamp DESC, id DESC`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var logs []model.HomeworkLog
	for rows.Next() {
		var r HomeworkLogRecord
		if err := rows.Scan(&r.ID, &r.StudentID, &r.Timestamp, &r.HomeworkType, &r.Status, &r.Comment); err != nil {
			return nil, err
		}
		logs = append(logs, r.ToHomeworkLog())
	}
	return logs, rows.Err()
}

// GetLatestHomeworkLog returns a student's most recent homework log, or
// (nil, nil) when the student has none.
func (s *Store) GetLatestHomeworkLog(studentID int64) (*model.HomeworkLog, error) {
	var r HomeworkLogRecord
	err := s.db.QueryRow(
		`SELECT id, student_id, timestamp, homework_type, status, comment FROM homework_logs
		 WHERE student_id = ? ORDER BY timestamp DESC, id DESC LIMIT 1`, studentID,
	).Scan(&r.ID, &r.StudentID, &r.Timestamp, &r.HomeworkType, &r.Status, &r.Comment)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	l := r.ToHomeworkLog()
	return &l, nil
}

// LatestHomeworkLogs returns the most recent homework log per student.
func (s *Store) LatestHomeworkLogs() (map[int64]model.HomeworkLog, error) {
	rows, err := s.db.Query(
		`SELECT id, student_id, timestamp, homework_type, status, comment FROM homework_logs
		 ORDER BY timestamp ASC, id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	latest := make(map[int64]model.HomeworkLog)
	for rows.Next() {
		var r HomeworkLogRecord
		if err := rows.Scan(&r.ID, &r.StudentID, &r.Timestamp, &r.HomeworkType, &r.Status, &r.Comment); err != nil {
			return nil, err
		}
		latest[r.StudentID] = r.ToHomeworkLog()
	}
	return latest, rows.Err()
}

// InsertQuizLog appends a quiz event for a student.
func (s *Store) InsertQuizLog(l model.QuizLog) (int64, error) {
	r := NewQuizLogRecord(l)
	id, err := s.insertLog(r.StudentID,
		`INSERT INTO quiz_logs (student_id, timestamp, quiz_name, score, comment) VALUES (?, ?, ?, ?, ?)`,
		r.StudentID, r.Timestamp, r.QuizName, r.Score, r.Comment,
	)
	if err != nil {
		return 0, err
	}
	s.notifier.Publish(TableQuizLogs)
	return id, nil
}

// GetQuizLogsForStudent returns a student's quiz logs newest first.
func (s *Store) GetQuizLogsForStudent(studentID int64) ([]model.QuizLog, error) {
	rows, err := s.db.Query(
		`SELECT id, student_id, timestamp, quiz_name, score, comment FROM quiz_logs
		 WHERE student_id = ? ORDER BY timestamp DESC, id DESC`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var logs []model.QuizLog
	for rows.Next() {
		var r QuizLogRecord
		if err := rows.Scan(&r.ID, &r.StudentID, &r.Timestamp, &r.QuizName, &r.Score, &r.Comment); err != nil {
			return nil, err
		}
		logs = append(logs, r.ToQuizLog())
	}
	return logs, rows.Err()
}

// GetLatestQuizLog returns a student's most recent quiz log, or (nil, nil)
// when the student has none.
func (s *Store) GetLatestQuizLog(studentID int64) (*model.QuizLog, error) {
	var r QuizLogRecord
	err := s.db.QueryRow(
		`SELECT id, student_id, timestamp, quiz_name, score, comment FROM quiz_logs
		 WHERE student_id = ? ORDER BY timestamp DESC, id DESC LIMIT 1`, studentID,
	).Scan(&r.ID, &r.StudentID, &r.Timestamp, &r.QuizName, &r.Score, &r.Comment)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	l := r.ToQuizLog()
	return &l, nil
}

// LatestQuizLogs returns the most recent quiz log per student.
func (s *Store) LatestQuizLogs() (map[int64]model.QuizLog, error) {
	rows, err := s.db.Query(
		`SELECT id, student_id, timestamp, quiz_name, score, comment FROM quiz_logs
		 ORDER BY timestamp ASC, id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	latest := make(map[int64]model.QuizLog)
	for rows.Next() {
		var r QuizLogRecord
		if err := rows.Scan(&r.ID, &r.StudentID, &r.Timestamp, &r.QuizName, &r.Score, &r.Comment); err != nil {
			return nil, err
		}
		latest[r.StudentID] = r.ToQuizLog()
	}
	return latest, rows.Err()
}

// PruneLogs deletes logs of all three kinds older than the cutoff and
// returns the number of rows removed. Used by the retention sweep.
func (s *Store) PruneLogs(olderThan time.Time) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	cutoff := olderThan.Unix()
	var total int64
	for _, table := range []string{"behavior_logs", "homework_logs", "quiz_logs"} {
		res, err := tx.Exec(`DELETE FROM `+table+` WHERE timestamp < ?`, cutoff)
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		total += n
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	if total > 0 {
		s.notifier.Publish(TableBehaviorLogs)
		s.notifier.Publish(TableHomeworkLogs)
		s.notifier.Publish(TableQuizLogs)
	}
	return total, nil
}

// insertLog runs a log insert after confirming the student exists, both
// inside one transaction.
func (s *Store) insertLog(studentID int64, query string, args ...any) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRow(`SELECT 1 FROM students WHERE id = ?`, studentID).Scan(&exists)
	if err == sql.ErrNoRows {
		return 0, ErrStudentNotFound
	}
	if err != nil {
		return 0, err
	}

	res, err := tx.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return id, tx.Commit()
}
