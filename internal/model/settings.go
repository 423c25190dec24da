package model

// ClassroomSettings is the full user-configurable state of the app. It is
// stored denormalized: every scalar below is one row in the settings table,
// and every list is one row holding a JSON blob.
type ClassroomSettings struct {
	General      GeneralSettings      `json:"general"`
	StudentBox   StudentBoxSettings   `json:"student_box"`
	BehaviorQuiz BehaviorQuizSettings `json:"behavior_quiz"`
	Homework     HomeworkSettings     `json:"homework"`
	DataExport   DataExportSettings   `json:"data_export"`
	Security     SecuritySettings     `json:"security"`

	CustomBehaviors            []string                    `json:"custom_behaviors"`
	CustomHomeworkStatuses     []string                    `json:"custom_homework_statuses"`
	CustomHomeworkTypes        []string                    `json:"custom_homework_types"`
	LiveHomeworkSelectOptions  []string                    `json:"live_homework_select_options"`
	QuizMarkTypes              []MarkType                  `json:"quiz_mark_types"`
	HomeworkMarkTypes          []MarkType                  `json:"homework_mark_types"`
	QuizTemplates              []Template                  `json:"quiz_templates"`
	HomeworkTemplates          []Template                  `json:"homework_templates"`
	ConditionalFormattingRules []ConditionalFormattingRule `json:"conditional_formatting_rules"`
}

// GeneralSettings covers chart-wide display options.
type GeneralSettings struct {
	ShowNames        bool   `json:"show_names"`
	ShowIDs          bool   `json:"show_ids"`
	IDType           string `json:"id_type"`
	Language         string `json:"language"`
	LogRetentionDays int    `json:"log_retention_days"`
	Theme            string `json:"theme"`
}

// StudentBoxSettings covers the appearance of individual student boxes.
type StudentBoxSettings struct {
	ShowLastBehavior bool `json:"show_last_behavior"`
	ShowLastQuiz     bool `json:"show_last_quiz"`
	ShowLastHomework bool `json:"show_last_homework"`
	BoxWidth         int  `json:"box_width"`
	BoxHeight        int  `json:"box_height"`
	FontSize         int  `json:"font_size"`
	CornerRadius     int  `json:"corner_radius"`
	BorderWidth      int  `json:"border_width"`
}

// BehaviorQuizSettings selects how behavior and quiz entries are captured.
type BehaviorQuizSettings struct {
	BehaviorEntryMode string `json:"behavior_entry_mode"`
	QuizEntryMode     string `json:"quiz_entry_mode"`
}

// HomeworkSettings selects how homework entries are captured.
type HomeworkSettings struct {
	LiveModeDefault   string `json:"live_mode_default"`
	HomeworkEntryMode string `json:"homework_entry_mode"`
}

// DataExportSettings controls the export command and endpoint.
type DataExportSettings struct {
	CSVDelimiter        string `json:"csv_delimiter"`
	IncludeHeader       bool   `json:"include_header"`
	DefaultExportFormat string `json:"default_export_format"`
}

// SecuritySettings holds the app-lock configuration. AppPasswordHash is a
// lowercase hex SHA-512 of the raw password; empty means no lock is set.
type SecuritySettings struct {
	AppLockEnabled  bool   `json:"app_lock_enabled"`
	AutoLockMinutes int    `json:"auto_lock_minutes"`
	AppPasswordHash string `json:"app_password_hash,omitempty"`
}

// MarkType is a named quiz or homework mark with an optional hotkey and
// color (hex string, e.g. "#FF0000").
type MarkType struct {
	Name   string `json:"name"`
	Hotkey string `json:"hotkey,omitempty"`
	Color  string `json:"color,omitempty"`
}

// Template is a reusable quiz or homework layout: a name plus the ordered
// item labels it contains.
type Template struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

// DefaultClassroomSettings returns the settings an empty store yields.
// These defaults are the documented contract for absent keys.
func DefaultClassroomSettings() ClassroomSettings {
	return ClassroomSettings{
		General: GeneralSettings{
			ShowNames:        true,
			ShowIDs:          false,
			IDType:           "Student ID",
			Language:         "English",
			LogRetentionDays: 365,
			Theme:            "System Default",
		},
		StudentBox: StudentBoxSettings{
			ShowLastBehavior: true,
			ShowLastQuiz:     true,
			ShowLastHomework: true,
			BoxWidth:         100,
			BoxHeight:        60,
			FontSize:         12,
			CornerRadius:     8,
			BorderWidth:      1,
		},
		BehaviorQuiz: BehaviorQuizSettings{
			BehaviorEntryMode: "Menu",
			QuizEntryMode:     "Menu",
		},
		Homework: HomeworkSettings{
			LiveModeDefault:   "Yes/No",
			HomeworkEntryMode: "Menu",
		},
		DataExport: DataExportSettings{
			CSVDelimiter:        ",",
			IncludeHeader:       true,
			DefaultExportFormat: "CSV",
		},
		Security: SecuritySettings{
			AppLockEnabled:  false,
			AutoLockMinutes: 5,
		},
	}
}
