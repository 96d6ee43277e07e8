// Package pubsub implements channel and pattern publish/subscribe,
// independent of the keyspace: messages are fire-and-forget and never
// touch the Store.
package pubsub

import (
	"sync"
	"sync/atomic"

	"github.com/gobwas/glob"
	"github.com/google/uuid"
)

// Message is delivered to a subscriber's Deliveries channel.
type Message struct {
	Pattern string // set only for pattern matches ("pmessage")
	Channel string
	Payload string
}

// Subscriber is one connection's pub/sub registration. Deliveries is
// buffered; a slow reader drops messages rather than blocking PUBLISH.
type Subscriber struct {
	ID         uuid.UUID
	Deliveries chan Message
	channels   map[string]bool
	patterns   map[string]bool

	deliveryStarted atomic.Bool
}

func newSubscriber() *Subscriber {
	return &Subscriber{
		ID:         uuid.New(),
		Deliveries: make(chan Message, 256),
		channels:   make(map[string]bool),
		patterns:   make(map[string]bool),
	}
}

// MarkDeliveryStarted reports true the first time it's called on a
// given subscriber, so a connection loop can spawn exactly one
// delivery goroutine regardless of how many SUBSCRIBE calls it sees.
func (s *Subscriber) MarkDeliveryStarted() bool {
	return s.deliveryStarted.CompareAndSwap(false, true)
}

// SubscriptionCount is the total channels+patterns a subscriber is
// registered for, the number RESP replies to SUBSCRIBE/UNSUBSCRIBE
// carry.
func (s *Subscriber) SubscriptionCount() int {
	return len(s.channels) + len(s.patterns)
}

// Broker owns all channel and pattern subscriptions for the server.
type Broker struct {
	mu          sync.RWMutex
	channels    map[string]map[uuid.UUID]*Subscriber
	patterns    map[string]map[uuid.UUID]*Subscriber
	compiled    map[string]glob.Glob
	trie        *patternTrie
	subscribers map[uuid.UUID]*Subscriber
}

func New() *Broker {
	return &Broker{
		channels:    make(map[string]map[uuid.UUID]*Subscriber),
		patterns:    make(map[string]map[uuid.UUID]*Subscriber),
		compiled:    make(map[string]glob.Glob),
		trie:        newPatternTrie(),
		subscribers: make(map[uuid.UUID]*Subscriber),
	}
}

// NewSubscriber registers (but does not yet subscribe) a fresh
// Subscriber for a connection.
func (b *Broker) NewSubscriber() *Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub := newSubscriber()
	b.subscribers[sub.ID] = sub
	return sub
}

// Subscribe adds sub to each channel and returns the cumulative
// subscription count after each addition, the per-channel reply
// SUBSCRIBE needs.
func (b *Broker) Subscribe(sub *Subscriber, channels ...string) []int {
	b.mu.Lock()
	defer b.mu.Unlock()

	counts := make([]int, 0, len(channels))
	for _, ch := range channels {
		if b.channels[ch] == nil {
			b.channels[ch] = make(map[uuid.UUID]*Subscriber)
		}
		b.channels[ch][sub.ID] = sub
		sub.channels[ch] = true
		counts = append(counts, sub.SubscriptionCount())
	}
	return counts
}

func (b *Broker) Unsubscribe(sub *Subscriber, channels ...string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(channels) == 0 {
		for ch := range sub.channels {
			channels = append(channels, ch)
		}
	}
	for _, ch := range channels {
		if subs, ok := b.channels[ch]; ok {
			delete(subs, sub.ID)
			if len(subs) == 0 {
				delete(b.channels, ch)
			}
		}
		delete(sub.channels, ch)
	}
	return channels
}

func (b *Broker) PSubscribe(sub *Subscriber, patterns ...string) []int {
	b.mu.Lock()
	defer b.mu.Unlock()

	counts := make([]int, 0, len(patterns))
	for _, p := range patterns {
		if b.patterns[p] == nil {
			b.patterns[p] = make(map[uuid.UUID]*Subscriber)
			b.trie.insert(p)
			if g, err := glob.Compile(p); err == nil {
				b.compiled[p] = g
			}
		}
		b.patterns[p][sub.ID] = sub
		sub.patterns[p] = true
		counts = append(counts, sub.SubscriptionCount())
	}
	return counts
}

func (b *Broker) PUnsubscribe(sub *Subscriber, patterns ...string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(patterns) == 0 {
		for p := range sub.patterns {
			patterns = append(patterns, p)
		}
	}
	for _, p := range patterns {
		if subs, ok := b.patterns[p]; ok {
			delete(subs, sub.ID)
			if len(subs) == 0 {
				delete(b.patterns, p)
				b.trie.remove(p)
				delete(b.compiled, p)
			}
		}
		delete(sub.patterns, p)
	}
	return patterns
}

// Publish fans payload out to direct channel subscribers and to every
// registered pattern whose glob matches channel. Returns the number of
// subscribers that received it.
func (b *Broker) Publish(channel, payload string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	if subs, ok := b.channels[channel]; ok {
		for _, s := range subs {
			if trySend(s.Deliveries, Message{Channel: channel, Payload: payload}) {
				delivered++
			}
		}
	}

	for _, pattern := range b.trie.candidates(channel) {
		g, ok := b.compiled[pattern]
		if !ok || !g.Match(channel) {
			continue
		}
		for _, s := range b.patterns[pattern] {
			if trySend(s.Deliveries, Message{Pattern: pattern, Channel: channel, Payload: payload}) {
				delivered++
			}
		}
	}
	return delivered
}

func trySend(ch chan Message, m Message) bool {
	select {
	case ch <- m:
		return true
	default:
		return false
	}
}

// Remove unsubscribes sub from everything, for connection teardown.
func (b *Broker) Remove(sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range sub.channels {
		if subs, ok := b.channels[ch]; ok {
			delete(subs, sub.ID)
			if len(subs) == 0 {
				delete(b.channels, ch)
			}
		}
	}
	for p := range sub.patterns {
		if subs, ok := b.patterns[p]; ok {
			delete(subs, sub.ID)
			if len(subs) == 0 {
				delete(b.patterns, p)
				b.trie.remove(p)
				delete(b.compiled, p)
			}
		}
	}
	delete(b.subscribers, sub.ID)
}

// NumSub reports subscriber counts per channel (PUBSUB NUMSUB).
func (b *Broker) NumSub(channels ...string) map[string]int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string]int, len(channels))
	for _, ch := range channels {
		out[ch] = len(b.channels[ch])
	}
	return out
}

// NumPat reports the number of distinct patterns subscribed to
// (PUBSUB NUMPAT).
func (b *Broker) NumPat() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.patterns)
}

// Channels lists active channels, optionally filtered by a glob
// pattern (PUBSUB CHANNELS).
func (b *Broker) Channels(pattern string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var g glob.Glob
	if pattern != "" {
		if compiled, err := glob.Compile(pattern); err == nil {
			g = compiled
		}
	}
	out := make([]string, 0, len(b.channels))
	for ch := range b.channels {
		if g == nil || g.Match(ch) {
			out = append(out, ch)
		}
	}
	return out
}
