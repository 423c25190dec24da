package repo

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/seatlog/seatlog/internal/model"
	"github.com/seatlog/seatlog/internal/settings"
	"github.com/seatlog/seatlog/internal/store"
)

func newTestClassroom(t *testing.T) (*Classroom, *store.Store) {
	t.Helper()
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return New(s, settings.New(s)), s
}

func insertStudent(t *testing.T, s *store.Store, st model.Student) int64 {
	t.Helper()
	id, err := s.InsertStudent(st)
	if err != nil {
		t.Fatalf("insert student %q: %v", st.Name, err)
	}
	return id
}

func findView(t *testing.T, views []model.StudentView, id int64) model.StudentView {
	t.Helper()
	for _, v := range views {
		if v.ID == id {
			return v
		}
	}
	t.Fatalf("student %d not in projection (%d views)", id, len(views))
	return model.StudentView{}
}

func TestStudentsLatestLogProjection(t *testing.T) {
	c, s := newTestClassroom(t)
	alice := insertStudent(t, s, model.Student{Name: "Alice"})
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	// No logs yet: all latest fields absent.
	views, err := c.Students(model.ModeBehavior)
	if err != nil {
		t.Fatalf("Students: %v", err)
	}
	v := findView(t, views, alice)
	if v.LastBehavior != nil || v.LastQuiz != nil || v.LastHomework != nil {
		t.Errorf("expected empty latest fields, got %+v", v)
	}

	if _, err := s.InsertBehaviorLog(model.BehaviorLog{StudentID: alice, Timestamp: base, Behavior: "Talking"}); err != nil {
		t.Fatalf("insert log: %v", err)
	}
	views, err = c.Students(model.ModeBehavior)
	if err != nil {
		t.Fatalf("Students: %v", err)
	}
	v = findView(t, views, alice)
	if v.LastBehavior == nil || *v.LastBehavior != "Talking" {
		t.Fatalf("expected last behavior Talking, got %+v", v.LastBehavior)
	}
	if v.LastBehaviorTimestamp == nil || !v.LastBehaviorTimestamp.Equal(base) {
		t.Errorf("expected timestamp %v, got %v", base, v.LastBehaviorTimestamp)
	}

	// A newer log replaces the projection.
	if _, err := s.InsertBehaviorLog(model.BehaviorLog{StudentID: alice, Timestamp: base.Add(time.Hour), Behavior: "Off Task"}); err != nil {
		t.Fatalf("insert log: %v", err)
	}
	views, err = c.Students(model.ModeBehavior)
	if err != nil {
		t.Fatalf("Students: %v", err)
	}
	v = findView(t, views, alice)
	if v.LastBehavior == nil || *v.LastBehavior != "Off Task" {
		t.Errorf("expected last behavior Off Task, got %v", v.LastBehavior)
	}

	// Quiz and homework projections are independent of behavior.
	if _, err := s.InsertQuizLog(model.QuizLog{StudentID: alice, Timestamp: base, QuizName: "Math", Score: "8/10"}); err != nil {
		t.Fatalf("insert quiz: %v", err)
	}
	if _, err := s.InsertHomeworkLog(model.HomeworkLog{StudentID: alice, Timestamp: base, HomeworkType: "Reading", Status: "Done"}); err != nil {
		t.Fatalf("insert homework: %v", err)
	}
	views, err = c.Students(model.ModeBehavior)
	if err != nil {
		t.Fatalf("Students: %v", err)
	}
	v = findView(t, views, alice)
	if v.LastQuiz == nil || *v.LastQuiz != "Math" || *v.LastQuizScore != "8/10" {
		t.Errorf("unexpected quiz projection: %v %v", v.LastQuiz, v.LastQuizScore)
	}
	if v.LastHomework == nil || *v.LastHomework != "Reading" || *v.LastHomeworkStatus != "Done" {
		t.Errorf("unexpected homework projection: %v %v", v.LastHomework, v.LastHomeworkStatus)
	}
}

func TestStudentsResolvesGroupChildren(t *testing.T) {
	c, s := newTestClassroom(t)
	alice := insertStudent(t, s, model.Student{Name: "Alice"})
	bob := insertStudent(t, s, model.Student{Name: "Bob"})
	group := insertStudent(t, s, model.Student{
		Name:     "Table 3",
		IsGroup:  true,
		ChildIDs: []int64{alice, bob, 9999}, // 9999 does not exist
	})

	views, err := c.Students(model.ModeBehavior)
	if err != nil {
		t.Fatalf("Students: %v", err)
	}
	g := findView(t, views, group)
	if len(g.Children) != 2 {
		t.Fatalf("expected dangling child dropped, got %d children", len(g.Children))
	}
	if g.Children[0].Name != "Alice" || g.Children[1].Name != "Bob" {
		t.Errorf("unexpected children order: %q, %q", g.Children[0].Name, g.Children[1].Name)
	}

	// Members carry their own latest-log projection inside the group.
	if _, err := s.InsertBehaviorLog(model.BehaviorLog{StudentID: bob, Timestamp: time.Now(), Behavior: "Helping"}); err != nil {
		t.Fatalf("insert log: %v", err)
	}
	views, err = c.Students(model.ModeBehavior)
	if err != nil {
		t.Fatalf("Students: %v", err)
	}
	g = findView(t, views, group)
	if g.Children[1].LastBehavior == nil || *g.Children[1].LastBehavior != "Helping" {
		t.Errorf("expected child projection inside group, got %+v", g.Children[1].LastBehavior)
	}
}

func TestStudentsAppliesFormattingRules(t *testing.T) {
	c, s := newTestClassroom(t)
	sr := settings.New(s)

	alice := insertStudent(t, s, model.Student{Name: "Alice"})
	bob := insertStudent(t, s, model.Student{Name: "Bob"})
	group := insertStudent(t, s, model.Student{Name: "Front Row", IsGroup: true, ChildIDs: []int64{alice}})

	cs, err := sr.Get()
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	cs.ConditionalFormattingRules = []model.ConditionalFormattingRule{
		{
			Name:      "frequent talkers",
			IsEnabled: true,
			Priority:  2,
			Condition: model.Condition{Type: "behavior_count", Parameters: map[string]string{
				"behavior": "Talking", "min_count": "2", "window_days": "7",
			}},
			Formatting: model.Formatting{BackgroundColor: "#FF0000"},
		},
		{
			Name:      "front row",
			IsEnabled: true,
			Priority:  1,
			Condition: model.Condition{Type: "group", Parameters: map[string]string{
				"group_id": "3",
			}},
			Formatting: model.Formatting{BorderColor: "#00FF00"},
		},
	}
	cs.ConditionalFormattingRules[1].Condition.Parameters["group_id"] = strconv.FormatInt(group, 10)
	if err := sr.Update(cs); err != nil {
		t.Fatalf("update settings: %v", err)
	}

	now := time.Now()
	for i := 0; i < 2; i++ {
		if _, err := s.InsertBehaviorLog(model.BehaviorLog{
			StudentID: alice, Timestamp: now.Add(-time.Duration(i) * time.Hour), Behavior: "Talking",
		}); err != nil {
			t.Fatalf("insert log: %v", err)
		}
	}

	views, err := c.Students(model.ModeBehavior)
	if err != nil {
		t.Fatalf("Students: %v", err)
	}

	a := findView(t, views, alice)
	if len(a.ConditionalFormatting) != 2 {
		t.Fatalf("expected both rules to match Alice, got %+v", a.ConditionalFormatting)
	}
	if a.ConditionalFormatting[0].RuleName != "frequent talkers" {
		t.Errorf("expected higher priority first, got %q", a.ConditionalFormatting[0].RuleName)
	}
	if a.ConditionalFormatting[1].Formatting["border_color"] != "#00FF00" {
		t.Errorf("expected group rule border, got %+v", a.ConditionalFormatting[1].Formatting)
	}

	b := findView(t, views, bob)
	if len(b.ConditionalFormatting) != 0 {
		t.Errorf("expected no formatting for Bob, got %+v", b.ConditionalFormatting)
	}
}

func TestWatchStudentsEmitsOnChange(t *testing.T) {
	c, s := newTestClassroom(t)
	alice := insertStudent(t, s, model.Student{Name: "Alice"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := c.WatchStudents(ctx, model.ModeBehavior)
	if err != nil {
		t.Fatalf("WatchStudents: %v", err)
	}

	initial := recvViews(t, ch)
	if len(initial) != 1 || initial[0].LastBehavior != nil {
		t.Fatalf("unexpected initial snapshot: %+v", initial)
	}

	if _, err := s.InsertBehaviorLog(model.BehaviorLog{StudentID: alice, Timestamp: time.Now(), Behavior: "Talking"}); err != nil {
		t.Fatalf("insert log: %v", err)
	}
	next := recvViews(t, ch)
	if next[0].LastBehavior == nil || *next[0].LastBehavior != "Talking" {
		t.Errorf("expected recomputed projection, got %+v", next[0].LastBehavior)
	}

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			// A snapshot may still be buffered; the next receive must see close.
			if _, ok := <-ch; ok {
				t.Error("expected channel to close after cancel")
			}
		}
	case <-time.After(2 * time.Second):
		t.Error("channel did not close after cancel")
	}
}

func recvViews(t *testing.T, ch <-chan []model.StudentView) []model.StudentView {
	t.Helper()
	select {
	case views, ok := <-ch:
		if !ok {
			t.Fatal("watch channel closed unexpectedly")
		}
		return views
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for projection")
		return nil
	}
}

func TestWatchFurnitureEmitsOnChange(t *testing.T) {
	c, s := newTestClassroom(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := c.WatchFurniture(ctx)
	if err != nil {
		t.Fatalf("WatchFurniture: %v", err)
	}
	select {
	case items := <-ch:
		if len(items) != 0 {
			t.Fatalf("expected empty initial snapshot, got %d items", len(items))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no initial snapshot")
	}

	if _, err := s.InsertFurnitureItem(model.FurnitureItem{Type: "desk", Width: 120, Height: 60}); err != nil {
		t.Fatalf("insert furniture: %v", err)
	}
	select {
	case items := <-ch:
		if len(items) != 1 || items[0].Type != "desk" {
			t.Errorf("unexpected recomputed furniture: %+v", items)
		}
	case <-time.After(2 * time.Second):
		t.Error("no update after insert")
	}
}
