// Package repo composes the entity store and the settings repository into
// the read-side projections the UI renders: students with derived
// latest-log fields, resolved group members, and conditional formatting.
package repo

import (
	"context"
	"log/slog"
	"time"

	"github.com/seatlog/seatlog/internal/format"
	"github.com/seatlog/seatlog/internal/model"
	"github.com/seatlog/seatlog/internal/settings"
	"github.com/seatlog/seatlog/internal/store"
)

// Classroom joins entity-store reads with latest-log projections and the
// formatting evaluator. Projections recompute fully on every read; data
// volumes are a single classroom.
type Classroom struct {
	store    *store.Store
	settings *settings.Repository
	// now is replaceable so rule time windows are testable.
	now func() time.Time
}

func New(s *store.Store, sr *settings.Repository) *Classroom {
	return &Classroom{store: s, settings: sr, now: time.Now}
}

// Students builds the current projection for the given UI mode.
func (c *Classroom) Students(mode model.Mode) ([]model.StudentView, error) {
	students, err := c.store.ListStudents()
	if err != nil {
		return nil, err
	}
	if len(students) == 0 {
		return nil, nil
	}

	latestBehavior, err := c.store.LatestBehaviorLogs()
	if err != nil {
		return nil, err
	}
	latestQuiz, err := c.store.LatestQuizLogs()
	if err != nil {
		return nil, err
	}
	latestHomework, err := c.store.LatestHomeworkLogs()
	if err != nil {
		return nil, err
	}
	cs, err := c.settings.Get()
	if err != nil {
		return nil, err
	}

	// Membership map: student id -> ids of the groups that list it.
	memberOf := make(map[int64]map[int64]bool)
	for _, st := range students {
		if !st.IsGroup {
			continue
		}
		for _, childID := range st.ChildIDs {
			if memberOf[childID] == nil {
				memberOf[childID] = make(map[int64]bool)
			}
			memberOf[childID][st.ID] = true
		}
	}

	rules := cs.ConditionalFormattingRules
	needHistory := rulesNeedBehaviorHistory(rules)

	views := make(map[int64]model.StudentView, len(students))
	for _, st := range students {
		view := model.StudentView{Student: st}
		if l, ok := latestBehavior[st.ID]; ok {
			view.LastBehavior = &l.Behavior
			ts := l.Timestamp
			view.LastBehaviorTimestamp = &ts
		}
		if l, ok := latestQuiz[st.ID]; ok {
			view.LastQuiz = &l.QuizName
			view.LastQuizScore = &l.Score
			ts := l.Timestamp
			view.LastQuizTimestamp = &ts
		}
		if l, ok := latestHomework[st.ID]; ok {
			view.LastHomework = &l.HomeworkType
			view.LastHomeworkStatus = &l.Status
			ts := l.Timestamp
			view.LastHomeworkTimestamp = &ts
		}

		if len(rules) > 0 {
			evalCtx := format.Context{
				Student:        view,
				MemberOfGroups: memberOf[st.ID],
				Mode:           mode,
				Now:            c.now(),
			}
			if needHistory {
				history, err := c.store.GetBehaviorLogsForStudent(st.ID)
				if err != nil {
					return nil, err
				}
				evalCtx.BehaviorLogs = history
			}
			view.ConditionalFormatting = format.Evaluate(rules, evalCtx)
		}
		views[st.ID] = view
	}

	// Resolve group members one level deep, dropping dangling ids.
	result := make([]model.StudentView, 0, len(students))
	for _, st := range students {
		view := views[st.ID]
		if st.IsGroup {
			for _, childID := range st.ChildIDs {
				child, ok := views[childID]
				if !ok {
					slog.Warn("group references missing student, dropping",
						"group_id", st.ID, "child_id", childID)
					continue
				}
				child.Children = nil
				view.Children = append(view.Children, child)
			}
		}
		result = append(result, view)
	}
	return result, nil
}

// Furniture returns all furniture items for rendering.
func (c *Classroom) Furniture() ([]model.FurnitureItem, error) {
	return c.store.ListFurnitureItems()
}

// WatchStudents emits the student projection now and again whenever any
// table the projection depends on changes. The goroutine stops and the
// channel closes when ctx is cancelled.
func (c *Classroom) WatchStudents(ctx context.Context, mode model.Mode) (<-chan []model.StudentView, error) {
	initial, err := c.Students(mode)
	if err != nil {
		return nil, err
	}

	subID, changes := c.store.Notifier().Subscribe(
		store.TableStudents,
		store.TableBehaviorLogs,
		store.TableHomeworkLogs,
		store.TableQuizLogs,
		store.TableSettings,
	)
	out := make(chan []model.StudentView, 1)
	out <- initial

	go func() {
		defer close(out)
		defer c.store.Notifier().Unsubscribe(subID)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				views, err := c.Students(mode)
				if err != nil {
					slog.Error("student projection recompute failed", "error", err)
					continue
				}
				select {
				case out <- views:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// WatchFurniture emits the furniture list now and on every change, until
// ctx is cancelled.
func (c *Classroom) WatchFurniture(ctx context.Context) (<-chan []model.FurnitureItem, error) {
	initial, err := c.Furniture()
	if err != nil {
		return nil, err
	}

	subID, changes := c.store.Notifier().Subscribe(store.TableFurniture)
	out := make(chan []model.FurnitureItem, 1)
	out <- initial

	go func() {
		defer close(out)
		defer c.store.Notifier().Unsubscribe(subID)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				items, err := c.Furniture()
				if err != nil {
					slog.Error("furniture recompute failed", "error", err)
					continue
				}
				select {
				case out <- items:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func rulesNeedBehaviorHistory(rules []model.ConditionalFormattingRule) bool {
	for _, r := range rules {
		if r.IsEnabled && r.Condition.Type == "behavior_count" {
			return true
		}
	}
	return false
}
