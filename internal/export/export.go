// Package export writes the logged events out as CSV or JSON, honoring
// the data-export settings (delimiter, header row, default format).
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/seatlog/seatlog/internal/model"
	"github.com/seatlog/seatlog/internal/store"
)

// Options selects the output shape. Zero values fall back to the
// documented defaults (CSV, comma, header on).
type Options struct {
	Format        string // "CSV" or "JSON"
	CSVDelimiter  string
	IncludeHeader bool
}

// OptionsFromSettings derives export options from the stored settings.
func OptionsFromSettings(cs model.ClassroomSettings) Options {
	return Options{
		Format:        cs.DataExport.DefaultExportFormat,
		CSVDelimiter:  cs.DataExport.CSVDelimiter,
		IncludeHeader: cs.DataExport.IncludeHeader,
	}
}

// Row is one exported log event, flattened across the three log kinds.
type Row struct {
	Kind        string    `json:"kind"` // behavior, homework, quiz
	StudentID   int64     `json:"student_id"`
	StudentName string    `json:"student_name"`
	Timestamp   time.Time `json:"timestamp"`
	Label       string    `json:"label"`  // behavior / homework type / quiz name
	Detail      string    `json:"detail"` // "" / status / score
	Comment     string    `json:"comment,omitempty"`
}

// Document is the top-level JSON export shape.
type Document struct {
	ExportedAt time.Time `json:"exported_at"`
	Logs       []Row     `json:"logs"`
}

// Logs writes every stored log event to w in the selected format.
func Logs(w io.Writer, s *store.Store, opts Options) error {
	rows, err := collect(s)
	if err != nil {
		return fmt.Errorf("collect logs: %w", err)
	}

	switch strings.ToUpper(strings.TrimSpace(opts.Format)) {
	case "", "CSV":
		return writeCSV(w, rows, opts)
	case "JSON":
		return writeJSON(w, rows)
	default:
		return fmt.Errorf("unsupported export format %q", opts.Format)
	}
}

func collect(s *store.Store) ([]Row, error) {
	students, err := s.ListStudents()
	if err != nil {
		return nil, err
	}
	var rows []Row
	for _, st := range students {
		behaviors, err := s.GetBehaviorLogsForStudent(st.ID)
		if err != nil {
			return nil, err
		}
		for _, l := range behaviors {
			rows = append(rows, Row{
				Kind: "behavior", StudentID: st.ID, StudentName: st.Name,
				Timestamp: l.Timestamp, Label: l.Behavior, Comment: l.Comment,
			})
		}
		homework, err := s.GetHomeworkLogsForStudent(st.ID)
		if err != nil {
			return nil, err
		}
		for _, l := range homework {
			rows = append(rows, Row{
				Kind: "homework", StudentID: st.ID, StudentName: st.Name,
				Timestamp: l.Timestamp, Label: l.HomeworkType, Detail: l.Status, Comment: l.Comment,
			})
		}
		quizzes, err := s.GetQuizLogsForStudent(st.ID)
		if err != nil {
			return nil, err
		}
		for _, l := range quizzes {
			rows = append(rows, Row{
				Kind: "quiz", StudentID: st.ID, StudentName: st.Name,
				Timestamp: l.Timestamp, Label: l.QuizName, Detail: l.Score, Comment: l.Comment,
			})
		}
	}
	return rows, nil
}

func writeCSV(w io.Writer, rows []Row, opts Options) error {
	cw := csv.NewWriter(w)
	if d := []rune(opts.CSVDelimiter); len(d) > 0 {
		cw.Comma = d[0]
	}
	if opts.IncludeHeader {
		if err := cw.Write([]string{"kind", "student_id", "student_name", "timestamp", "label", "detail", "comment"}); err != nil {
			return err
		}
	}
	for _, r := range rows {
		record := []string{
			r.Kind,
			fmt.Sprintf("%d", r.StudentID),
			r.StudentName,
			r.Timestamp.UTC().Format(time.RFC3339),
			r.Label,
			r.Detail,
			r.Comment,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, rows []Row) error {
	doc := Document{ExportedAt: time.Now().UTC(), Logs: rows}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
