package injector

import (
	"github.com/zeusync/vehicore/internal/core/observability/log"
)

// slowDeliveryMicros is the delivery time above which a publish is logged.
const slowDeliveryMicros = 10_000

// deliveryObserver logs failed and slow change deliveries. Registering it
// also turns on the bus metrics reported by /healthz.
type deliveryObserver struct {
	logger log.Log
}

func newDeliveryObserver(logger log.Log) *deliveryObserver {
	return &deliveryObserver{logger: logger.With(log.String("component", "bus"))}
}

func (o *deliveryObserver) OnPublish(string) {}

func (o *deliveryObserver) OnDelivered(topic string, handlers int, err error, durationMicros int64) {
	if err != nil {
		o.logger.Warn("change delivery failed",
			log.String("topic", topic), log.Int("handlers", handlers), log.Error(err))
	}
	if durationMicros > slowDeliveryMicros {
		o.logger.Debug("slow change delivery",
			log.String("topic", topic), log.Int("handlers", handlers), log.Int64("micros", durationMicros))
	}
}
