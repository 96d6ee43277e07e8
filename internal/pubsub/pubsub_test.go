package pubsub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSubscribePublishDirect(t *testing.T) {
	b := New()
	sub := b.NewSubscriber()

	counts := b.Subscribe(sub, "news")
	require.Equal(t, []int{1}, counts)

	delivered := b.Publish("news", "hello")
	require.Equal(t, 1, delivered)

	select {
	case msg := <-sub.Deliveries:
		require.Equal(t, "news", msg.Channel)
		require.Equal(t, "hello", msg.Payload)
		require.Empty(t, msg.Pattern)
	case <-time.After(time.Second):
		t.Fatal("expected a delivered message")
	}
}

func TestPatternMatchDelivery(t *testing.T) {
	b := New()
	sub := b.NewSubscriber()

	b.PSubscribe(sub, "news.*")
	delivered := b.Publish("news.sports", "score")
	require.Equal(t, 1, delivered)

	msg := <-sub.Deliveries
	require.Equal(t, "news.*", msg.Pattern)
	require.Equal(t, "news.sports", msg.Channel)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	sub := b.NewSubscriber()
	b.Subscribe(sub, "a", "b")

	channels := b.Unsubscribe(sub, "a")
	require.Equal(t, []string{"a"}, channels)
	require.Equal(t, 0, b.Publish("a", "x"))
	require.Equal(t, 1, b.Publish("b", "x"))
}

func TestNumSubAndNumPat(t *testing.T) {
	b := New()
	s1 := b.NewSubscriber()
	s2 := b.NewSubscriber()
	b.Subscribe(s1, "ch")
	b.Subscribe(s2, "ch")
	b.PSubscribe(s1, "p.*")

	counts := b.NumSub("ch")
	require.Equal(t, 2, counts["ch"])
	require.Equal(t, 1, b.NumPat())
}

func TestMarkDeliveryStartedIsIdempotent(t *testing.T) {
	b := New()
	sub := b.NewSubscriber()
	require.True(t, sub.MarkDeliveryStarted())
	require.False(t, sub.MarkDeliveryStarted())
}
