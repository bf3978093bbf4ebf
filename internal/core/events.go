package core

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/auction/internal/auction"
)

// EventType distinguishes the notifications sent to subscribers.
type EventType string

const (
	EventState          EventType = "state"
	EventImportProgress EventType = "import_progress"
)

// Event is a notification for dashboard subscribers.
type Event struct {
	ID      string           `json:"id"`
	Type    EventType        `json:"type"`
	Kind    auction.Kind     `json:"kind,omitempty"`
	Summary *auction.Summary `json:"summary,omitempty"`
	Message string           `json:"message,omitempty"`
	Warning string           `json:"warning,omitempty"`

	// Import progress
	ImportID  string `json:"importId,omitempty"`
	BytesRead int64  `json:"bytesRead,omitempty"`
	BytesSize int64  `json:"bytesSize,omitempty"`

	At time.Time `json:"at"`
}

// subscriberBuffer bounds each subscriber channel. Slow subscribers miss
// events rather than stalling dispatch.
const subscriberBuffer = 16

type broker struct {
	mu     sync.Mutex
	subs   map[chan Event]struct{}
	closed bool
}

func newBroker() *broker {
	return &broker{subs: make(map[chan Event]struct{})}
}

func (b *broker) subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[ch]; ok {
				delete(b.subs, ch)
				close(ch)
			}
		})
	}
	return ch, cancel
}

func (b *broker) publish(e Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

func (b *broker) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		close(ch)
		delete(b.subs, ch)
	}
}

func (b *broker) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Subscribe registers for change notifications. The returned cancel func
// unregisters and closes the channel; the channel is also closed when the
// service is closed.
func (s *Service) Subscribe() (<-chan Event, func()) {
	return s.events.subscribe()
}
