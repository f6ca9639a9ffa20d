package service

import (
	"context"
	"fmt"

	"botica/internal/model"
	"botica/internal/realtime"
	"botica/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Effects collects what a transaction changed so it can be announced once
// the transaction has committed. Nothing is published from inside a tx.
type Effects struct {
	products       map[uuid.UUID]*model.Product
	order          []uuid.UUID
	AlertsCreated  []model.Alert
	AlertsResolved []model.Alert
}

func newEffects() *Effects {
	return &Effects{products: make(map[uuid.UUID]*model.Product)}
}

// touch records the latest state of a product whose stock changed.
func (fx *Effects) touch(p *model.Product) {
	if _, seen := fx.products[p.ID]; !seen {
		fx.order = append(fx.order, p.ID)
	}
	cp := *p
	fx.products[p.ID] = &cp
}

// Products returns the touched products in first-touch order.
func (fx *Effects) Products() []*model.Product {
	out := make([]*model.Product, 0, len(fx.order))
	for _, id := range fx.order {
		out = append(out, fx.products[id])
	}
	return out
}

// Jobs is the async work the services hand off. *worker.Dispatcher satisfies it.
type Jobs interface {
	EnqueueReceipt(ctx context.Context, saleID uuid.UUID) error
	EnqueueEmail(ctx context.Context, payload worker.EmailJobPayload) error
}

// Notifier publishes domain events and queues follow-up jobs. Every method is
// best effort: failures are logged, never returned.
type Notifier struct {
	pub          realtime.Publisher
	jobs         Jobs
	alertEmailTo string
}

// NewNotifier builds a Notifier. pub and jobs may be nil.
func NewNotifier(pub realtime.Publisher, jobs Jobs, alertEmailTo string) *Notifier {
	if pub == nil {
		pub = realtime.NopPublisher{}
	}
	return &Notifier{pub: pub, jobs: jobs, alertEmailTo: alertEmailTo}
}

func (n *Notifier) publish(ctx context.Context, eventType string, payload any) {
	ev, err := realtime.NewEvent(eventType, payload)
	if err != nil {
		log.Warn().Err(err).Str("event", eventType).Msg("notifier: failed to encode event")
		return
	}
	n.pub.Publish(ctx, ev)
}

// Announce publishes stock and alert events for a committed transaction and
// mails critical alerts when an alert recipient is configured.
func (n *Notifier) Announce(ctx context.Context, fx *Effects) {
	if fx == nil {
		return
	}
	for _, p := range fx.Products() {
		n.publish(ctx, realtime.StockUpdated, productToResponse(p))
	}
	for i := range fx.AlertsResolved {
		n.publish(ctx, realtime.AlertResolved, alertToResponse(&fx.AlertsResolved[i]))
	}
	for i := range fx.AlertsCreated {
		a := &fx.AlertsCreated[i]
		n.publish(ctx, realtime.AlertCreated, alertToResponse(a))
		if a.AlertLevel == model.LevelCritical {
			n.mailAlert(ctx, a)
		}
	}
}

func (n *Notifier) mailAlert(ctx context.Context, a *model.Alert) {
	if n.jobs == nil || n.alertEmailTo == "" {
		return
	}
	job := worker.EmailJobPayload{
		ToEmail: n.alertEmailTo,
		Subject: "Alerta crítica de inventario",
		Body:    fmt.Sprintf("%s\n\nRegistrada el %s.", a.Message, a.CreatedAt.Format("02/01/2006 15:04")),
	}
	if err := n.jobs.EnqueueEmail(ctx, job); err != nil {
		log.Warn().Err(err).Str("alert_id", a.ID.String()).Msg("notifier: failed to enqueue alert email")
	}
}

func (n *Notifier) enqueueReceipt(ctx context.Context, saleID uuid.UUID) {
	if n.jobs == nil {
		return
	}
	if err := n.jobs.EnqueueReceipt(ctx, saleID); err != nil {
		log.Warn().Err(err).Str("sale_id", saleID.String()).Msg("notifier: failed to enqueue receipt")
	}
}
