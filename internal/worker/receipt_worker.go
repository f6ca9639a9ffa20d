package worker

// receipt_worker.go
// Renders the PDF receipt ("boleta") of a recorded sale, stores its path on
// the sale and, when the customer has an email, queues it for delivery.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"botica/internal/infra"
	"botica/internal/model"
	"botica/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// EmailQueue is satisfied by *Dispatcher.
type EmailQueue interface {
	EnqueueEmail(ctx context.Context, payload EmailJobPayload) error
}

type ReceiptWorker struct {
	sales        repository.SaleRepository
	emails       EmailQueue
	businessName string
	storagePath  string
	render       func(sale *model.Sale, businessName, storagePath string) (string, error)
}

func NewReceiptWorker(sales repository.SaleRepository, emails EmailQueue, businessName, storagePath string) *ReceiptWorker {
	return &ReceiptWorker{
		sales:        sales,
		emails:       emails,
		businessName: businessName,
		storagePath:  storagePath,
		render:       infra.GenerateReceiptPDF,
	}
}

func (w *ReceiptWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReceiptJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("%w: invalid receipt payload: %v", ErrPermanent, err)
	}
	saleID, err := uuid.Parse(payload.SaleID)
	if err != nil {
		return fmt.Errorf("%w: invalid sale_id %q", ErrPermanent, payload.SaleID)
	}

	sale, err := w.sales.FindByID(ctx, saleID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: sale %s not found", ErrPermanent, saleID)
	}
	if err != nil {
		return err
	}

	path, err := w.render(sale, w.businessName, w.storagePath)
	if err != nil {
		return err
	}
	if err := w.sales.SetReceiptPath(ctx, saleID, path); err != nil {
		return err
	}
	log.Info().Str("pdf", path).Str("sale_number", sale.SaleNumber).Msg("receipt_worker: receipt generated")

	if sale.Customer == nil || sale.Customer.Email == nil || *sale.Customer.Email == "" {
		return nil
	}
	job := EmailJobPayload{
		ToEmail:        *sale.Customer.Email,
		Subject:        fmt.Sprintf("%s: Boleta %s", w.businessName, sale.SaleNumber),
		Body:           fmt.Sprintf("Adjuntamos su boleta de venta.\nTotal: S/ %s", sale.Total.StringFixed(2)),
		AttachmentPath: path,
	}
	if err := w.emails.EnqueueEmail(ctx, job); err != nil {
		log.Warn().Err(err).Str("sale_number", sale.SaleNumber).Msg("receipt_worker: failed to enqueue email")
	}
	return nil
}
