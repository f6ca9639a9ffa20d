// Package realtime carries domain events from the services to connected
// dashboards. Delivery is best-effort and at-most-once: events are published
// after the originating transaction commits and are never persisted.
package realtime

import (
	"context"
	"encoding/json"
	"time"
)

const (
	SaleCreated    = "sale.created"
	SaleCancelled  = "sale.cancelled"
	StockUpdated   = "stock.updated"
	AlertCreated   = "alert.created"
	AlertResolved  = "alert.resolved"
	AlertDeleted   = "alert.deleted"
	ProductCreated = "product.created"
	ProductUpdated = "product.updated"
	ProductDeleted = "product.deleted"

	CustomerCreated = "customer.created"
	CustomerUpdated = "customer.updated"
	CustomerDeleted = "customer.deleted"

	LocationCreated         = "location.created"
	LocationUpdated         = "location.updated"
	LocationDeleted         = "location.deleted"
	LocationProductsUpdated = "location.products_updated"

	PrescriptionCreated       = "prescription.created"
	PrescriptionUpdated       = "prescription.updated"
	PrescriptionStatusUpdated = "prescription.status_updated"
	PrescriptionDispensed     = "prescription.dispensed"
	PrescriptionDeleted       = "prescription.deleted"
)

// Event is one "entity changed" notification. Payload is the full entity as
// returned by the API so clients can merge it without re-fetching.
type Event struct {
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewEvent marshals payload into an Event stamped with the current time.
func NewEvent(eventType string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Payload: data, OccurredAt: time.Now().UTC()}, nil
}

// Publisher is the capability injected into services. Implementations must not
// block the caller for long and must not return delivery failures: a lost
// event never fails the operation that produced it.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}
