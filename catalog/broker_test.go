package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nasir-hacker-7/power.modz.hub/models"
)

func snapshot(ids ...string) []models.ContentItem {
	items := make([]models.ContentItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, models.ContentItem{ID: id, IsVisible: true})
	}
	return items
}

func TestBrokerDeliversToSubscribers(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Publish(snapshot("a"))

	select {
	case got := <-ch:
		require.Len(t, got, 1)
		assert.Equal(t, "a", got[0].ID)
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}
}

func TestBrokerSeedsLateSubscriber(t *testing.T) {
	b := NewBroker()
	b.Publish(snapshot("a", "b"))

	ch, cancel := b.Subscribe()
	defer cancel()

	select {
	case got := <-ch:
		assert.Len(t, got, 2)
	case <-time.After(time.Second):
		t.Fatal("late subscriber got no seed")
	}
}

func TestBrokerLatestWins(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe()
	defer cancel()

	// Nobody reads between publishes: the slow consumer must see only the
	// freshest snapshot.
	b.Publish(snapshot("old"))
	b.Publish(snapshot("new"))

	select {
	case got := <-ch:
		require.Len(t, got, 1)
		assert.Equal(t, "new", got[0].ID)
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}

	select {
	case extra, ok := <-ch:
		if ok {
			t.Fatalf("unexpected backlog delivery: %v", extra)
		}
	default:
	}
}

func TestBrokerCancelClosesChannel(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe()

	cancel()
	cancel() // safe to call twice

	_, ok := <-ch
	assert.False(t, ok, "channel must be closed after cancel")

	// Publishing after cancel must not panic or deliver.
	b.Publish(snapshot("a"))
}

func TestBrokerPublishDoesNotBlock(t *testing.T) {
	b := NewBroker()
	_, cancel := b.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish(snapshot("x"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}
