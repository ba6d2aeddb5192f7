// Package hub is the development fan-out server the client core talks to: an
// SSE broadcast endpoint plus the history and mark-read REST API.
package hub

import (
	"log"
	"sync"

	"weddinghub/internal/common"
)

// Broadcaster fans every notification out to every connected subscriber.
// Addressing is deliberately not done here: all sessions share one broadcast
// channel and the client-side classifier discards what is not theirs.
type Broadcaster struct {
	mu    sync.RWMutex
	subs  map[uint64]chan common.Notification
	next  uint64
	slack int
}

func NewBroadcaster(slack int) *Broadcaster {
	if slack <= 0 {
		slack = 16
	}
	return &Broadcaster{
		subs:  make(map[uint64]chan common.Notification),
		slack: slack,
	}
}

// Subscribe registers a new subscriber channel. The returned func removes the
// subscription; calling it more than once is harmless.
func (b *Broadcaster) Subscribe() (<-chan common.Notification, func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	ch := make(chan common.Notification, b.slack)
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
	return ch, unsubscribe
}

// Broadcast delivers n to every subscriber. A subscriber that cannot keep up
// loses the event rather than blocking the rest; the client recovers dropped
// items through the history fetch.
func (b *Broadcaster) Broadcast(n common.Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs {
		select {
		case ch <- n:
		default:
			log.Printf("hub: subscriber %d is slow, dropping notification %d", id, n.ID)
		}
	}
}

// SubscriberCount reports how many streams are currently connected.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
