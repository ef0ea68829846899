package sim

import (
	"github.com/zeusync/vehicore/internal/core/events/bus"
	"github.com/zeusync/vehicore/internal/core/observability/log"
	"github.com/zeusync/vehicore/internal/core/variables"
)

// BusBroadcaster publishes variable changes on a bus, one topic per entity.
// Handler failures are logged and otherwise ignored.
type BusBroadcaster struct {
	bus    *bus.Bus[variables.ChangeEvent]
	logger log.Log
}

var _ variables.Broadcaster = (*BusBroadcaster)(nil)

func NewBusBroadcaster(b *bus.Bus[variables.ChangeEvent], logger log.Log) *BusBroadcaster {
	if logger == nil {
		logger = log.NewNop()
	}
	return &BusBroadcaster{bus: b, logger: logger}
}

func (b *BusBroadcaster) Broadcast(ev variables.ChangeEvent) {
	if err := b.bus.Publish(ev.EntityID, ev); err != nil {
		b.logger.Warn("change event delivery failed",
			log.String("entity", ev.EntityID),
			log.String("key", ev.Key),
			log.Error(err),
		)
	}
}
