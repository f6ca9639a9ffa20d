package infra

// Sale receipt ("boleta") rendered with go-pdf/fpdf on a
// thermal-paper sized page (74mm wide). The file is written to
// storagePath/boleta_{sale_number}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"botica/internal/model"

	"github.com/go-pdf/fpdf"
)

var paymentLabels = map[string]string{
	model.PaymentCash:     "Efectivo",
	model.PaymentCard:     "Tarjeta",
	model.PaymentTransfer: "Transferencia",
	model.PaymentCredit:   "Crédito",
}

// GenerateReceiptPDF renders the receipt of a recorded sale. The sale must have
// Items with their Product preloaded. Returns the path of the generated file.
func GenerateReceiptPDF(sale *model.Sale, businessName, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	filePath := filepath.Join(storagePath, fmt.Sprintf("boleta_%s.pdf", sale.SaleNumber))

	height := 110.0 + float64(len(sale.Items))*5
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: height},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(false, 4)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, tr(businessName), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, tr("Boleta de Venta"), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, sale.SaleNumber, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, sale.CreatedAt.Format("02/01/2006  15:04"), "", 1, "L", false, 0, "")
	if sale.Customer != nil {
		name := sale.Customer.FirstName + " " + sale.Customer.LastName
		pdf.CellFormat(contentW, 4, tr("Cliente: "+name), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(contentW, 4, tr("Atendido por: "+sale.ServedBy), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	col1 := contentW * 0.52
	col2 := contentW * 0.16
	col3 := contentW * 0.32

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Producto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Cant", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, item := range sale.Items {
		name := ""
		if item.Product != nil {
			name = item.Product.Name
		}
		if utf8.RuneCountInString(name) > 22 {
			name = string([]rune(name)[:21]) + "."
		}
		pdf.CellFormat(col1, 5, tr(name), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, fmt.Sprintf("x%d", item.Quantity), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, "S/ "+item.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 7)
	line := func(label, value string) {
		pdf.CellFormat(col1+col2, 5, tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 5, value, "", 1, "R", false, 0, "")
	}
	line("Subtotal:", "S/ "+sale.Subtotal.StringFixed(2))
	if !sale.Discount.IsZero() {
		line("Descuento:", "-S/ "+sale.Discount.StringFixed(2))
	}
	line("IGV (18%):", "S/ "+sale.TaxAmount.StringFixed(2))

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1+col2, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, "S/ "+sale.Total.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 7)
	method := paymentLabels[sale.PaymentMethod]
	if method == "" {
		method = sale.PaymentMethod
	}
	pdf.CellFormat(contentW, 4, tr("Pago: "+method), "", 1, "L", false, 0, "")

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, tr("¡Gracias por su compra!"), "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
