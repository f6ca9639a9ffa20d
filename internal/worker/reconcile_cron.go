package worker

// reconcile_cron.go
// Background goroutine that periodically compares each product's stored
// quantity with the sum of its stock movements and reports any drift.

import (
	"context"
	"time"

	"botica/internal/repository"

	"github.com/rs/zerolog/log"
)

// DriftFinder is satisfied by repository.ProductRepository.
type DriftFinder interface {
	FindStockDrift(ctx context.Context) ([]repository.StockDrift, error)
}

// StartReconcileCron launches the reconciliation ticker. It respects ctx for
// graceful shutdown. A non-positive interval disables it.
func StartReconcileCron(ctx context.Context, finder DriftFinder, interval time.Duration) {
	if interval <= 0 {
		log.Info().Msg("reconcile_cron: disabled")
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Info().Dur("interval", interval).Msg("reconcile_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("reconcile_cron: shutting down")
				return
			case <-ticker.C:
				Reconcile(ctx, finder)
			}
		}
	}()
}

// Reconcile runs one pass and returns how many products drifted.
func Reconcile(ctx context.Context, finder DriftFinder) int {
	drifts, err := finder.FindStockDrift(ctx)
	if err != nil {
		log.Error().Err(err).Msg("reconcile_cron: failed to query stock drift")
		return 0
	}
	for _, d := range drifts {
		log.Warn().
			Str("product_id", d.ProductID.String()).
			Str("sku", d.SKU).
			Int("stored", d.StoredQuantity).
			Int("ledger", d.LedgerQuantity).
			Msg("reconcile_cron: stock drift detected")
	}
	return len(drifts)
}
