package service_test

import (
	"context"
	"testing"

	"botica/internal/dto"
	"botica/internal/model"
	"botica/internal/realtime"
	"botica/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func move(t *testing.T, inv *inventory, id uuid.UUID, delta int) {
	t.Helper()
	typ := model.MovementPurchase
	if delta < 0 {
		typ = model.MovementSale
	}
	_, err := inv.stock.ApplyMovement(context.Background(), service.MovementInput{ProductID: id, Delta: delta, Type: typ})
	require.NoError(t, err)
}

func TestAlerts_LowStockRaisedOnce(t *testing.T) {
	inv := newInventory(true)
	p := inv.seedProduct("Amoxicilina 500mg", 15, 10, 100)

	move(t, inv, p.ID, -5) // 10: low
	move(t, inv, p.ID, -2) // 8: still low

	open := inv.alertRepo.open(p.ID)
	require.Len(t, open, 1)
	assert.Equal(t, model.AlertLowStock, open[0].AlertType)
	assert.Equal(t, model.LevelWarning, open[0].AlertLevel)
	assert.Equal(t, 1, inv.pub.count(realtime.AlertCreated))
	assert.Empty(t, inv.jobs.emails)
}

func TestAlerts_OutOfStockReplacesLowAndMails(t *testing.T) {
	inv := newInventory(true)
	p := inv.seedProduct("Loratadina 10mg", 12, 10, 100)

	move(t, inv, p.ID, -4) // 8: low
	move(t, inv, p.ID, -8) // 0: out of stock

	open := inv.alertRepo.open(p.ID)
	require.Len(t, open, 1)
	assert.Equal(t, model.AlertOutOfStock, open[0].AlertType)
	assert.Equal(t, model.LevelCritical, open[0].AlertLevel)
	assert.Equal(t, 1, inv.pub.count(realtime.AlertResolved))

	require.Len(t, inv.jobs.emails, 1)
	assert.Equal(t, "alertas@botica.pe", inv.jobs.emails[0].ToEmail)
	assert.Contains(t, inv.jobs.emails[0].Body, "Loratadina 10mg")
}

func TestAlerts_RestockResolvesWhenAutoResolve(t *testing.T) {
	inv := newInventory(true)
	p := inv.seedProduct("Omeprazol 20mg", 0, 10, 100)

	move(t, inv, p.ID, 5)  // 5: low
	move(t, inv, p.ID, 45) // 50: normal

	assert.Empty(t, inv.alertRepo.open(p.ID))
	all, err := inv.alerts.ListByProduct(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].IsResolved)
	assert.NotNil(t, all[0].ResolvedAt)
}

func TestAlerts_RestockKeepsAlertWithoutAutoResolve(t *testing.T) {
	inv := newInventory(false)
	p := inv.seedProduct("Diclofenaco gel", 11, 10, 100)

	move(t, inv, p.ID, -3) // 8: low
	move(t, inv, p.ID, 40) // 48: normal

	open := inv.alertRepo.open(p.ID)
	require.Len(t, open, 1)
	assert.Equal(t, model.AlertLowStock, open[0].AlertType)
	assert.Zero(t, inv.pub.count(realtime.AlertResolved))
}

func TestAlerts_Overstock(t *testing.T) {
	inv := newInventory(true)
	p := inv.seedProduct("Suero oral", 90, 10, 100)

	move(t, inv, p.ID, 10)

	open := inv.alertRepo.open(p.ID)
	require.Len(t, open, 1)
	assert.Equal(t, model.AlertOverstock, open[0].AlertType)
	assert.Equal(t, model.LevelInfo, open[0].AlertLevel)
}

func TestResolve_IsIdempotent(t *testing.T) {
	inv := newInventory(true)
	p := inv.seedProduct("Clorfenamina", 12, 10, 100)
	move(t, inv, p.ID, -5)
	open := inv.alertRepo.open(p.ID)
	require.Len(t, open, 1)

	first, err := inv.alerts.Resolve(context.Background(), open[0].ID)
	require.NoError(t, err)
	assert.True(t, first.IsResolved)

	second, err := inv.alerts.Resolve(context.Background(), open[0].ID)
	require.NoError(t, err)
	assert.True(t, second.IsResolved)
	assert.Equal(t, first.ResolvedAt.Unix(), second.ResolvedAt.Unix())

	assert.Equal(t, 1, inv.pub.count(realtime.AlertResolved))
}

func TestResolve_UnknownAlert(t *testing.T) {
	inv := newInventory(true)
	_, err := inv.alerts.Resolve(context.Background(), uuid.New())
	var nf *service.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestCreateAlert_RejectsDuplicateOpenType(t *testing.T) {
	inv := newInventory(true)
	p := inv.seedProduct("Jarabe para la tos", 40, 10, 100)

	req := dto.CreateAlertRequest{
		ProductID: p.ID.String(),
		AlertType: model.AlertLowStock,
		Message:   "Revisar lote",
	}
	resp, err := inv.alerts.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.LevelWarning, resp.AlertLevel)

	_, err = inv.alerts.Create(context.Background(), req)
	var ce *service.ConflictError
	assert.ErrorAs(t, err, &ce)
}

func TestResolveByProduct_AndStats(t *testing.T) {
	inv := newInventory(false)
	p := inv.seedProduct("Ketorolaco", 11, 10, 100)
	move(t, inv, p.ID, -11) // 0: out of stock

	stats, err := inv.alerts.Stats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Critical)
	assert.EqualValues(t, 1, stats.Unresolved)

	resolved, err := inv.alerts.ResolveByProduct(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.True(t, resolved[0].IsResolved)

	stats, err = inv.alerts.Stats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 0, stats.Unresolved)
	assert.EqualValues(t, 1, stats.Resolved)
}
