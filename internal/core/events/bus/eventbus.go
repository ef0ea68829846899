package bus

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

type subscription[E any] struct {
	id      string
	topic   string
	handler Handler[E]
	mu      sync.Mutex
	active  bool
	cancel  func()
}

func (s *subscription[E]) ID() string    { return s.id }
func (s *subscription[E]) Topic() string { return s.topic }

func (s *subscription[E]) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *subscription[E]) Cancel() error {
	s.mu.Lock()
	wasActive := s.active
	s.active = false
	s.mu.Unlock()
	if wasActive && s.cancel != nil {
		s.cancel()
	}
	return nil
}

type Bus[E any] struct {
	mu sync.RWMutex
	// handlers: topic -> subID -> subscription
	handlers  map[string]map[string]*subscription[E]
	metrics   Metrics
	observers map[Observer]struct{}
}

// New creates an empty bus.
func New[E any]() *Bus[E] {
	return &Bus[E]{
		handlers:  make(map[string]map[string]*subscription[E]),
		observers: make(map[Observer]struct{}),
	}
}

// Subscribe registers handler for topic. Use AllTopics to receive everything.
func (b *Bus[E]) Subscribe(topic string, handler Handler[E]) (Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers[topic] == nil {
		b.handlers[topic] = make(map[string]*subscription[E])
	}
	id := uuid.NewString()
	s := &subscription[E]{id: id, topic: topic, handler: handler, active: true}
	s.cancel = func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if m, ok := b.handlers[topic]; ok {
			delete(m, id)
			if len(m) == 0 {
				delete(b.handlers, topic)
			}
		}
	}
	b.handlers[topic][id] = s
	return s, nil
}

// Unsubscribe cancels sub. It is safe to call with nil.
func (b *Bus[E]) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return nil
	}
	return sub.Cancel()
}

// Publish delivers event to the subscribers of topic and of AllTopics.
func (b *Bus[E]) Publish(topic string, event E) error {
	return b.deliver(topic, event)
}

// AddObserver registers obs. Metrics are only counted while at least one
// observer is registered.
func (b *Bus[E]) AddObserver(obs Observer) {
	b.mu.Lock()
	b.observers[obs] = struct{}{}
	b.mu.Unlock()
}

func (b *Bus[E]) RemoveObserver(obs Observer) {
	b.mu.Lock()
	delete(b.observers, obs)
	b.mu.Unlock()
}

// Metrics returns a snapshot of the counters.
func (b *Bus[E]) Metrics() Metrics {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.metrics
}

// Topics lists topics that currently have subscribers.
func (b *Bus[E]) Topics() []TopicInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]TopicInfo, 0, len(b.handlers))
	for name, subs := range b.handlers {
		out = append(out, TopicInfo{Name: name, Subs: len(subs)})
	}
	return out
}

func (b *Bus[E]) deliver(topic string, event E) error {
	start := time.Now()
	b.mu.RLock()
	subs := make([]*subscription[E], 0, len(b.handlers[topic])+len(b.handlers[AllTopics]))
	for _, s := range b.handlers[topic] {
		subs = append(subs, s)
	}
	if topic != AllTopics {
		for _, s := range b.handlers[AllTopics] {
			subs = append(subs, s)
		}
	}
	observers := make([]Observer, 0, len(b.observers))
	for obs := range b.observers {
		observers = append(observers, obs)
	}
	b.mu.RUnlock()

	for _, obs := range observers {
		obs.OnPublish(topic)
	}

	var all error
	for _, s := range subs {
		if !s.IsActive() {
			continue
		}
		if err := s.handler(topic, event); err != nil {
			all = errors.Join(all, err)
		}
	}

	if len(observers) > 0 {
		dur := time.Since(start).Microseconds()
		for _, obs := range observers {
			obs.OnDelivered(topic, len(subs), all, dur)
		}
		b.mu.Lock()
		b.metrics.Published++
		b.metrics.DeliveredHandlers += uint64(len(subs))
		if all != nil {
			b.metrics.Errors++
		}
		b.metrics.Topics = uint64(len(b.handlers))
		var subsCount uint64
		for _, m := range b.handlers {
			subsCount += uint64(len(m))
		}
		b.metrics.SubscribersActive = subsCount
		b.mu.Unlock()
	}
	return all
}
