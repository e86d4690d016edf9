package catalog

import (
	"sync"

	"github.com/nasir-hacker-7/power.modz.hub/models"
)

// Broker fans catalog snapshots out to live subscribers. Delivery is
// last-writer-wins: a subscriber that falls behind only ever sees the latest
// snapshot, never a backlog, and Publish never blocks on a slow consumer.
type Broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan []models.ContentItem
	latest []models.ContentItem
	seeded bool
}

// NewBroker returns a broker with no subscribers.
func NewBroker() *Broker {
	return &Broker{subs: map[int]chan []models.ContentItem{}}
}

// Subscribe registers a live listener. The returned channel immediately
// carries the latest published snapshot, if any. The cancel function tears
// the subscription down and closes the channel; it is safe to call more than
// once.
func (b *Broker) Subscribe() (<-chan []models.ContentItem, func()) {
	ch := make(chan []models.ContentItem, 1)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	if b.seeded {
		ch <- b.latest
	}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish replaces the current snapshot and notifies every subscriber.
func (b *Broker) Publish(items []models.ContentItem) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.latest = items
	b.seeded = true
	for _, ch := range b.subs {
		// Drop the stale pending snapshot so the channel always holds
		// the freshest one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- items:
		default:
		}
	}
}
