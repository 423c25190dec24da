package settings

// Preference-store keys. Every scalar setting is one key; list-valued
// settings are stored as JSON text under a single key. This enumeration
// is the authoritative contract for the settings table.
const (
	// General
	KeyShowNames        = "show_names"
	KeyShowIDs          = "show_ids"
	KeyIDType           = "id_type"
	KeyLanguage         = "language"
	KeyLogRetentionDays = "log_retention_days"
	KeyTheme            = "theme"

	// Student box
	KeyShowLastBehavior = "show_last_behavior"
	KeyShowLastQuiz     = "show_last_quiz"
	KeyShowLastHomework = "show_last_homework"
	KeyBoxWidth         = "box_width"
	KeyBoxHeight        = "box_height"
	KeyFontSize         = "font_size"
	KeyCornerRadius     = "corner_radius"
	KeyBorderWidth      = "border_width"

	// Behavior / quiz entry
	KeyBehaviorEntryMode = "behavior_entry_mode"
	KeyQuizEntryMode     = "quiz_entry_mode"

	// Homework entry
	KeyLiveModeDefault   = "live_mode_default"
	KeyHomeworkEntryMode = "homework_entry_mode"

	// Data export
	KeyCSVDelimiter        = "csv_delimiter"
	KeyIncludeHeader       = "include_header"
	KeyDefaultExportFormat = "default_export_format"

	// Security
	KeyAppLockEnabled  = "app_lock_enabled"
	KeyAutoLockMinutes = "auto_lock_minutes"
	KeyAppPasswordHash = "app_password_hash"

	// Structured lists (JSON text values)
	KeyCustomBehaviors            = "custom_behaviors"
	KeyCustomHomeworkStatuses     = "custom_homework_statuses"
	KeyCustomHomeworkTypes        = "custom_homework_types"
	KeyLiveHomeworkSelectOptions  = "live_homework_select_options"
	KeyQuizMarkTypes              = "quiz_mark_types"
	KeyHomeworkMarkTypes          = "homework_mark_types"
	KeyQuizTemplates              = "quiz_templates"
	KeyHomeworkTemplates          = "homework_templates"
	KeyConditionalFormattingRules = "conditional_formatting_rules"
)
