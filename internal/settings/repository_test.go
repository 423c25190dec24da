package settings

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/seatlog/seatlog/internal/model"
	"github.com/seatlog/seatlog/internal/store"
)

func newTestRepo(t *testing.T) (*Repository, *store.Store) {
	t.Helper()
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return New(s), s
}

func TestEmptyStoreYieldsDefaults(t *testing.T) {
	r, _ := newTestRepo(t)

	cs, err := r.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(cs, model.DefaultClassroomSettings()) {
		t.Errorf("expected documented defaults, got %+v", cs)
	}
	if cs.General.LogRetentionDays != 365 {
		t.Errorf("expected log_retention_days 365, got %d", cs.General.LogRetentionDays)
	}
	if cs.DataExport.CSVDelimiter != "," {
		t.Errorf("expected csv_delimiter ',', got %q", cs.DataExport.CSVDelimiter)
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	r, _ := newTestRepo(t)

	cs := model.DefaultClassroomSettings()
	cs.General.ShowIDs = true
	cs.General.LogRetentionDays = 30
	cs.StudentBox.BoxWidth = 140
	cs.DataExport.CSVDelimiter = ";"
	cs.CustomBehaviors = []string{"Talking", "OffTask", "Helping"}
	cs.QuizMarkTypes = []model.MarkType{
		{Name: "Star", Hotkey: "s", Color: "#FFD700"},
		{Name: "Check"},
	}
	cs.QuizTemplates = []model.Template{
		{Name: "Weekly", Items: []string{"Q1", "Q2", "Q3"}},
	}
	cs.ConditionalFormattingRules = []model.ConditionalFormattingRule{
		{
			Name:      "talkers",
			IsEnabled: true,
			Priority:  2,
			Condition: model.Condition{
				Type:       "behavior_count",
				Parameters: map[string]string{"behavior": "Talking", "min_count": "3", "window_days": "7"},
			},
			Formatting:  model.Formatting{BackgroundColor: "#FF0000"},
			ActiveModes: []model.Mode{model.ModeBehavior},
		},
	}

	if err := r.Update(cs); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := r.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(got, cs) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, cs)
	}
}

func TestMalformedStoredValuesKeepDefaults(t *testing.T) {
	r, s := newTestRepo(t)

	if err := s.SetSettings(map[string]string{
		KeyLogRetentionDays: "not-a-number",
		KeyShowNames:        "maybe",
		KeyCustomBehaviors:  "{broken json",
	}); err != nil {
		t.Fatalf("SetSettings: %v", err)
	}

	cs, err := r.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cs.General.LogRetentionDays != 365 {
		t.Errorf("expected default retention for malformed int, got %d", cs.General.LogRetentionDays)
	}
	if !cs.General.ShowNames {
		t.Error("expected default show_names for malformed bool")
	}
	if cs.CustomBehaviors != nil {
		t.Errorf("expected default behaviors for malformed JSON, got %v", cs.CustomBehaviors)
	}
}

func TestAppPasswordLifecycle(t *testing.T) {
	r, _ := newTestRepo(t)

	// No password configured: every check fails.
	ok, err := r.CheckAppPassword("anything")
	if err != nil {
		t.Fatalf("CheckAppPassword: %v", err)
	}
	if ok {
		t.Error("expected check to fail with no password set")
	}

	if err := r.SetAppPassword("hunter2"); err != nil {
		t.Fatalf("SetAppPassword: %v", err)
	}

	cs, _ := r.Get()
	if !cs.Security.AppLockEnabled {
		t.Error("expected app lock enabled after SetAppPassword")
	}
	if cs.Security.AppPasswordHash != HashPassword("hunter2") {
		t.Error("expected stored hash to match HashPassword output")
	}
	// SHA-512 renders as 128 lowercase hex chars.
	if len(cs.Security.AppPasswordHash) != 128 {
		t.Errorf("expected 128-char hash, got %d", len(cs.Security.AppPasswordHash))
	}

	ok, _ = r.CheckAppPassword("hunter2")
	if !ok {
		t.Error("expected correct password to verify")
	}
	ok, _ = r.CheckAppPassword("wrong")
	if ok {
		t.Error("expected wrong password to fail")
	}

	if err := r.RemoveAppPassword(); err != nil {
		t.Fatalf("RemoveAppPassword: %v", err)
	}
	cs, _ = r.Get()
	if cs.Security.AppLockEnabled {
		t.Error("expected app lock disabled after removal")
	}
	if cs.Security.AppPasswordHash != "" {
		t.Error("expected hash cleared after removal")
	}
	ok, _ = r.CheckAppPassword("hunter2")
	if ok {
		t.Error("expected check to fail after removal")
	}
}

func TestUpdateDoesNotTouchPasswordHash(t *testing.T) {
	r, _ := newTestRepo(t)

	if err := r.SetAppPassword("hunter2"); err != nil {
		t.Fatalf("SetAppPassword: %v", err)
	}
	cs, _ := r.Get()
	cs.Security.AppPasswordHash = "" // a settings save never carries the hash
	if err := r.Update(cs); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, _ := r.Get()
	if got.Security.AppPasswordHash != HashPassword("hunter2") {
		t.Error("expected password hash to survive a settings update")
	}
}

func TestWatchEmitsOnChange(t *testing.T) {
	r, _ := newTestRepo(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := r.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	// Initial snapshot is the defaults.
	select {
	case cs := <-ch:
		if cs.General.LogRetentionDays != 365 {
			t.Errorf("expected default snapshot, got retention %d", cs.General.LogRetentionDays)
		}
	case <-time.After(time.Second):
		t.Fatal("expected initial snapshot")
	}

	update := model.DefaultClassroomSettings()
	update.General.LogRetentionDays = 14
	if err := r.Update(update); err != nil {
		t.Fatalf("Update: %v", err)
	}

	select {
	case cs := <-ch:
		if cs.General.LogRetentionDays != 14 {
			t.Errorf("expected re-emitted retention 14, got %d", cs.General.LogRetentionDays)
		}
	case <-time.After(time.Second):
		t.Fatal("expected re-emission after settings change")
	}

	// Cancellation closes the stream.
	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			// One buffered emission may still be in flight; the next
			// receive must observe the close.
			if _, ok := <-ch; ok {
				t.Error("expected channel closed after cancel")
			}
		}
	case <-time.After(time.Second):
		t.Fatal("expected channel close after cancel")
	}
}
