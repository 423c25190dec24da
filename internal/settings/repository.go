package settings

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/seatlog/seatlog/internal/model"
	"github.com/seatlog/seatlog/internal/store"
)

// Repository maps between the flat key-value settings table and the
// composite ClassroomSettings object. Reads substitute the documented
// defaults for missing keys; list-valued settings round-trip through JSON.
type Repository struct {
	store *store.Store
}

func New(s *store.Store) *Repository {
	return &Repository{store: s}
}

// Get assembles the current ClassroomSettings from the store. An empty
// store yields model.DefaultClassroomSettings() exactly.
func (r *Repository) Get() (model.ClassroomSettings, error) {
	raw, err := r.store.GetAllSettings()
	if err != nil {
		return model.ClassroomSettings{}, err
	}

	cs := model.DefaultClassroomSettings()

	readBool(raw, KeyShowNames, &cs.General.ShowNames)
	readBool(raw, KeyShowIDs, &cs.General.ShowIDs)
	readString(raw, KeyIDType, &cs.General.IDType)
	readString(raw, KeyLanguage, &cs.General.Language)
	readInt(raw, KeyLogRetentionDays, &cs.General.LogRetentionDays)
	readString(raw, KeyTheme, &cs.General.Theme)

	readBool(raw, KeyShowLastBehavior, &cs.StudentBox.ShowLastBehavior)
	readBool(raw, KeyShowLastQuiz, &cs.StudentBox.ShowLastQuiz)
	readBool(raw, KeyShowLastHomework, &cs.StudentBox.ShowLastHomework)
	readInt(raw, KeyBoxWidth, &cs.StudentBox.BoxWidth)
	readInt(raw, KeyBoxHeight, &cs.StudentBox.BoxHeight)
	readInt(raw, KeyFontSize, &cs.StudentBox.FontSize)
	readInt(raw, KeyCornerRadius, &cs.StudentBox.CornerRadius)
	readInt(raw, KeyBorderWidth, &cs.StudentBox.BorderWidth)

	readString(raw, KeyBehaviorEntryMode, &cs.BehaviorQuiz.BehaviorEntryMode)
	readString(raw, KeyQuizEntryMode, &cs.BehaviorQuiz.QuizEntryMode)

	readString(raw, KeyLiveModeDefault, &cs.Homework.LiveModeDefault)
	readString(raw, KeyHomeworkEntryMode, &cs.Homework.HomeworkEntryMode)

	readString(raw, KeyCSVDelimiter, &cs.DataExport.CSVDelimiter)
	readBool(raw, KeyIncludeHeader, &cs.DataExport.IncludeHeader)
	readString(raw, KeyDefaultExportFormat, &cs.DataExport.DefaultExportFormat)

	readBool(raw, KeyAppLockEnabled, &cs.Security.AppLockEnabled)
	readInt(raw, KeyAutoLockMinutes, &cs.Security.AutoLockMinutes)
	readString(raw, KeyAppPasswordHash, &cs.Security.AppPasswordHash)

	readJSON(raw, KeyCustomBehaviors, &cs.CustomBehaviors)
	readJSON(raw, KeyCustomHomeworkStatuses, &cs.CustomHomeworkStatuses)
	readJSON(raw, KeyCustomHomeworkTypes, &cs.CustomHomeworkTypes)
	readJSON(raw, KeyLiveHomeworkSelectOptions, &cs.LiveHomeworkSelectOptions)
	readJSON(raw, KeyQuizMarkTypes, &cs.QuizMarkTypes)
	readJSON(raw, KeyHomeworkMarkTypes, &cs.HomeworkMarkTypes)
	readJSON(raw, KeyQuizTemplates, &cs.QuizTemplates)
	readJSON(raw, KeyHomeworkTemplates, &cs.HomeworkTemplates)
	readJSON(raw, KeyConditionalFormattingRules, &cs.ConditionalFormattingRules)

	return cs, nil
}

// Update writes every setting as one atomic batch. The app-lock password
// hash is deliberately not part of the batch; it changes only through
// SetAppPassword and RemoveAppPassword.
func (r *Repository) Update(cs model.ClassroomSettings) error {
	entries := map[string]string{
		KeyShowNames:        strconv.FormatBool(cs.General.ShowNames),
		KeyShowIDs:          strconv.FormatBool(cs.General.ShowIDs),
		KeyIDType:           cs.General.IDType,
		KeyLanguage:         cs.General.Language,
		KeyLogRetentionDays: strconv.Itoa(cs.General.LogRetentionDays),
		KeyTheme:            cs.General.Theme,

		KeyShowLastBehavior: strconv.FormatBool(cs.StudentBox.ShowLastBehavior),
		KeyShowLastQuiz:     strconv.FormatBool(cs.StudentBox.ShowLastQuiz),
		KeyShowLastHomework: strconv.FormatBool(cs.StudentBox.ShowLastHomework),
		KeyBoxWidth:         strconv.Itoa(cs.StudentBox.BoxWidth),
		KeyBoxHeight:        strconv.Itoa(cs.StudentBox.BoxHeight),
		KeyFontSize:         strconv.Itoa(cs.StudentBox.FontSize),
		KeyCornerRadius:     strconv.Itoa(cs.StudentBox.CornerRadius),
		KeyBorderWidth:      strconv.Itoa(cs.StudentBox.BorderWidth),

		KeyBehaviorEntryMode: cs.BehaviorQuiz.BehaviorEntryMode,
		KeyQuizEntryMode:     cs.BehaviorQuiz.QuizEntryMode,

		KeyLiveModeDefault:   cs.Homework.LiveModeDefault,
		KeyHomeworkEntryMode: cs.Homework.HomeworkEntryMode,

		KeyCSVDelimiter:        cs.DataExport.CSVDelimiter,
		KeyIncludeHeader:       strconv.FormatBool(cs.DataExport.IncludeHeader),
		KeyDefaultExportFormat: cs.DataExport.DefaultExportFormat,

		KeyAppLockEnabled:  strconv.FormatBool(cs.Security.AppLockEnabled),
		KeyAutoLockMinutes: strconv.Itoa(cs.Security.AutoLockMinutes),

		KeyCustomBehaviors:            encodeJSON(cs.CustomBehaviors),
		KeyCustomHomeworkStatuses:     encodeJSON(cs.CustomHomeworkStatuses),
		KeyCustomHomeworkTypes:        encodeJSON(cs.CustomHomeworkTypes),
		KeyLiveHomeworkSelectOptions:  encodeJSON(cs.LiveHomeworkSelectOptions),
		KeyQuizMarkTypes:              encodeJSON(cs.QuizMarkTypes),
		KeyHomeworkMarkTypes:          encodeJSON(cs.HomeworkMarkTypes),
		KeyQuizTemplates:              encodeJSON(cs.QuizTemplates),
		KeyHomeworkTemplates:          encodeJSON(cs.HomeworkTemplates),
		KeyConditionalFormattingRules: encodeJSON(cs.ConditionalFormattingRules),
	}
	return r.store.SetSettings(entries)
}

// Watch emits the assembled ClassroomSettings now and again after every
// settings change, until ctx is cancelled. The channel closes on teardown.
func (r *Repository) Watch(ctx context.Context) (<-chan model.ClassroomSettings, error) {
	initial, err := r.Get()
	if err != nil {
		return nil, err
	}

	subID, changes := r.store.Notifier().Subscribe(store.TableSettings)
	out := make(chan model.ClassroomSettings, 1)
	out <- initial

	go func() {
		defer close(out)
		defer r.store.Notifier().Unsubscribe(subID)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				cs, err := r.Get()
				if err != nil {
					slog.Error("settings recompute failed", "error", err)
					continue
				}
				select {
				case out <- cs:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func encodeJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func readString(raw map[string]string, key string, dst *string) {
	if v, ok := raw[key]; ok {
		*dst = v
	}
}

func readBool(raw map[string]string, key string, dst *bool) {
	v, ok := raw[key]
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("malformed bool setting, keeping default", "key", key, "value", v)
		return
	}
	*dst = b
}

func readInt(raw map[string]string, key string, dst *int) {
	v, ok := raw[key]
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("malformed int setting, keeping default", "key", key, "value", v)
		return
	}
	*dst = n
}

// readJSON decodes a structured setting. Absent, empty, and malformed
// values all leave the default in place rather than failing.
func readJSON[T any](raw map[string]string, key string, dst *T) {
	v, ok := raw[key]
	if !ok || v == "" || v == "null" {
		return
	}
	var decoded T
	if err := json.Unmarshal([]byte(v), &decoded); err != nil {
		slog.Warn("malformed JSON setting, keeping default", "key", key)
		return
	}
	*dst = decoded
}
