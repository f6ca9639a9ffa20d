package infra

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"botica/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReceiptPDF(t *testing.T) {
	d := decimal.RequireFromString
	sale := &model.Sale{
		SaleNumber:    "VTA-202603-0012",
		Subtotal:      d("37.50"),
		Discount:      d("2.50"),
		TaxAmount:     d("6.30"),
		Total:         d("41.30"),
		PaymentMethod: model.PaymentCard,
		ServedBy:      "Químico Farmacéutico",
		CreatedAt:     time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		Customer:      &model.Customer{FirstName: "José", LastName: "Ñahui"},
		Items: []model.SaleItem{
			{Quantity: 3, Subtotal: d("37.50"), Product: &model.Product{Name: "Amoxicilina con ácido clavulánico 875mg"}},
			{Quantity: 1, Subtotal: d("0.00")},
		},
	}
	dir := filepath.Join(t.TempDir(), "receipts")

	path, err := GenerateReceiptPDF(sale, "Botica Santa Rosa", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "boleta_VTA-202603-0012.pdf"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}
