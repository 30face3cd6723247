package realtime

import (
	"context"
	"log"
	"time"

	"classtrack/internal/metrics"
	"classtrack/internal/model"
)

// BusPublisher adapts the bus to the attendance service's Publisher
// contract. Publishing never fails a request; a bus error costs at most the
// event.
type BusPublisher struct {
	bus Bus
}

// NewBusPublisher wraps a bus.
func NewBusPublisher(bus Bus) *BusPublisher {
	return &BusPublisher{bus: bus}
}

func (p *BusPublisher) publish(evt Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.bus.Publish(ctx, evt); err != nil {
		log.Printf("realtime: publish %s failed: %v", evt.Name, err)
		return
	}
	metrics.EventsPublished.Inc()
}

// RecordUpserted publishes an upsert event for a created or updated record.
func (p *BusPublisher) RecordUpserted(rec model.PopulatedRecord) {
	p.publish(UpsertEvent(rec))
}

// RecordDeleted publishes a delete event carrying only the record id.
func (p *BusPublisher) RecordDeleted(id, studentID string) {
	p.publish(DeleteEvent(id, studentID))
}
