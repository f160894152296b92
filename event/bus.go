package event

import (
	"sync"
	"time"
)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is an in-memory Emitter. Delivery is synchronous and in subscription
// order; topic subscribers run before wildcard subscribers. Safe for
// concurrent use.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string][]subscription
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string][]subscription)}
}

// Emit implements Emitter. A zero e.Time is set to now.
func (b *Bus) Emit(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[e.Topic])+len(b.subs[All]))
	for _, s := range b.subs[e.Topic] {
		handlers = append(handlers, s.handler)
	}
	if e.Topic != All {
		for _, s := range b.subs[All] {
			handlers = append(handlers, s.handler)
		}
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}

// On implements Emitter. Calling the returned function more than once is a no-op.
func (b *Bus) On(topic string, h Handler) (off func()) {
	if h == nil {
		return func() {}
	}
	b.mu.Lock()
	if b.subs == nil {
		b.subs = make(map[string][]subscription)
	}
	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, handler: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(topic, id) })
	}
}

// Once subscribes h for a single delivery.
func (b *Bus) Once(topic string, h Handler) (off func()) {
	var (
		once   sync.Once
		cancel func()
		mu     sync.Mutex
	)
	mu.Lock()
	defer mu.Unlock()
	cancel = b.On(topic, func(e Event) {
		once.Do(func() {
			mu.Lock()
			c := cancel
			mu.Unlock()
			c()
			h(e)
		})
	})
	return cancel
}

// Subscribers returns the number of handlers subscribed to topic.
func (b *Bus) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

func (b *Bus) remove(topic string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.subs[topic]
	for i, s := range list {
		if s.id == id {
			b.subs[topic] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(b.subs[topic]) == 0 {
		delete(b.subs, topic)
	}
}

// Ensure Bus implements Emitter.
var _ Emitter = (*Bus)(nil)
