package store

import (
	"sync"

	"github.com/google/uuid"
)

// Table names used as notification topics.
const (
	TableStudents     = "students"
	TableFurniture    = "furniture_items"
	TableBehaviorLogs = "behavior_logs"
	TableHomeworkLogs = "homework_logs"
	TableQuizLogs     = "quiz_logs"
	TableSettings     = "settings"
)

// Notifier is an in-process publish/subscribe hub keyed by table name.
// Every committed mutation publishes its table; subscribers re-run their
// dependent queries on signal. Signals coalesce: a subscriber that has a
// pending signal does not queue more.
type Notifier struct {
	mu     sync.Mutex
	subs   map[string]*subscription
	closed bool
}

type subscription struct {
	id     string
	tables map[string]bool
	ch     chan struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[string]*subscription)}
}

// Subscribe registers interest in one or more tables. The returned channel
// receives a coalesced signal after each matching publish. Call
// Unsubscribe with the returned id when done; the channel is closed then.
func (n *Notifier) Subscribe(tables ...string) (string, <-chan struct{}) {
	sub := &subscription{
		id:     uuid.NewString(),
		tables: make(map[string]bool, len(tables)),
		ch:     make(chan struct{}, 1),
	}
	for _, t := range tables {
		sub.tables[t] = true
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		close(sub.ch)
		return sub.id, sub.ch
	}
	n.subs[sub.id] = sub
	return sub.id, sub.ch
}

// Unsubscribe removes a subscription and closes its channel. Unknown ids
// are ignored.
func (n *Notifier) Unsubscribe(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if sub, ok := n.subs[id]; ok {
		delete(n.subs, id)
		close(sub.ch)
	}
}

// Publish signals every subscriber interested in the given table.
func (n *Notifier) Publish(table string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, sub := range n.subs {
		if !sub.tables[table] {
			continue
		}
		select {
		case sub.ch <- struct{}{}:
		default: // a signal is already pending
		}
	}
}

// CloseAll closes every subscriber channel. Used on store shutdown.
func (n *Notifier) CloseAll() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	for id, sub := range n.subs {
		delete(n.subs, id)
		close(sub.ch)
	}
}
