package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// ErrStudentNotFound is returned when a log write references a student
// that does not exist.
var ErrStudentNotFound = errors.New("student not found")

// Store wraps the embedded SQLite database holding the seating chart,
// the per-student logs, and the key-value settings.
type Store struct {
	db       *sql.DB
	notifier *Notifier
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// An in-memory database exists per connection; keep the pool at one
	// so every query sees the same schema.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db, notifier: NewNotifier()}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	s.notifier.CloseAll()
	return s.db.Close()
}

// Notifier exposes the store's change notifier for read-side subscribers.
func (s *Store) Notifier() *Notifier {
	return s.notifier
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS students (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		student_id TEXT,
		x REAL NOT NULL DEFAULT 0,
		y REAL NOT NULL DEFAULT 0,
		rotation REAL NOT NULL DEFAULT 0,
		width REAL NOT NULL DEFAULT 0,
		height REAL NOT NULL DEFAULT 0,
		is_group INTEGER NOT NULL DEFAULT 0,
		children_ids TEXT,
		notes TEXT,
		date_of_birth TEXT,
		contact_info TEXT,
		custom_fields TEXT
	);

	CREATE TABLE IF NOT EXISTS furniture_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT,
		x REAL NOT NULL DEFAULT 0,
		y REAL NOT NULL DEFAULT 0,
		rotation REAL NOT NULL DEFAULT 0,
		width REAL NOT NULL DEFAULT 0,
		height REAL NOT NULL DEFAULT 0,
		type TEXT NOT NULL,
		color TEXT,
		is_behind_students INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS behavior_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		student_id INTEGER NOT NULL,
		timestamp INTEGER NOT NULL,
		behavior TEXT NOT NULL,
		comment TEXT,
		FOREIGN KEY (student_id) REFERENCES students(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_behavior_logs_student ON behavior_logs(student_id);

	CREATE TABLE IF NOT EXISTS homework_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		student_id INTEGER NOT NULL,
		timestamp INTEGER NOT NULL,
		homework_type TEXT NOT NULL,
		status TEXT NOT NULL,
		comment TEXT,
		FOREIGN KEY (student_id) REFERENCES students(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_homework_logs_student ON homework_logs(student_id);

	CREATE TABLE IF NOT EXISTS quiz_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		student_id INTEGER NOT NULL,
		timestamp INTEGER NOT NULL,
		quiz_name TEXT NOT NULL,
		score TEXT NOT NULL,
		comment TEXT,
		FOREIGN KEY (student_id) REFERENCES students(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_quiz_logs_student ON quiz_logs(student_id);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}
