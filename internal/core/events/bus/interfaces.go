package bus

// Bus is a thread-safe, in-process pub/sub bus for one event type.
//
// Key characteristics:
// - Topic fan-out: handlers subscribe to a topic, or to AllTopics.
// - Synchronous delivery: Publish calls handlers in the caller goroutine.
// - Error aggregation: handler errors are joined and returned from Publish.
// - Optional observability: metrics are collected only while observers are registered.
//
// Handlers should be quick or offload heavy work; a slow handler stalls the publisher.

// AllTopics subscribes a handler to every topic.
const AllTopics = "*"

// Handler is invoked per delivered event.
type Handler[E any] func(topic string, event E) error

// Subscription is a registered handler. Cancel or Bus.Unsubscribe stops it.
type Subscription interface {
	ID() string
	Topic() string
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

// Observer is notified about deliveries and errors. Observers should return quickly.
type Observer interface {
	OnPublish(topic string)
	OnDelivered(topic string, handlers int, err error, durationMicros int64)
}

// Metrics is a minimal set of counters, updated only while at least one
// observer is registered.
type Metrics struct {
	Published         uint64 `json:"published"`
	DeliveredHandlers uint64 `json:"delivered_handlers"`
	Errors            uint64 `json:"errors"`
	SubscribersActive uint64 `json:"subscribers_active"`
	Topics            uint64 `json:"topics"`
}

// TopicInfo is a snapshot of one topic.
type TopicInfo struct {
	Name string `json:"name"`
	Subs int    `json:"subscribers"`
}
