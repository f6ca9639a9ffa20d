package service

import (
	"time"

	"botica/internal/dto"
	"botica/internal/model"
	"botica/internal/repository"
)

const dateLayout = "2006-01-02"

func formatDate(t time.Time) string { return t.Format(dateLayout) }

func productToResponse(p *model.Product) *dto.ProductResponse {
	resp := &dto.ProductResponse{
		ID:                   p.ID.String(),
		Name:                 p.Name,
		SKU:                  p.SKU,
		Description:          p.Description,
		UnitPrice:            p.UnitPrice,
		UnitCost:             p.UnitCost,
		Unit:                 p.Unit,
		Quantity:             p.Quantity,
		MinStockLevel:        p.MinStockLevel,
		MaxStockLevel:        p.MaxStockLevel,
		StockStatus:          Classify(p.Quantity, p.MinStockLevel, p.MaxStockLevel),
		Status:               p.Status,
		RequiresPrescription: p.RequiresPrescription,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
	if p.CategoryID != nil {
		id := p.CategoryID.String()
		resp.CategoryID = &id
	}
	if p.Category != nil {
		name := p.Category.Name
		resp.Category = &name
	}
	if p.ExpirationDate != nil {
		d := formatDate(*p.ExpirationDate)
		resp.ExpirationDate = &d
	}
	return resp
}

func categoryToResponse(c *model.Category) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:          c.ID.String(),
		Name:        c.Name,
		Description: c.Description,
		Active:      c.Active,
	}
}

func movementToResponse(m *model.StockMovement) dto.StockMovementResponse {
	resp := dto.StockMovementResponse{
		ID:             m.ID.String(),
		ProductID:      m.ProductID.String(),
		MovementType:   m.MovementType,
		Quantity:       m.Quantity,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		Notes:          m.Notes,
		CreatedBy:      m.CreatedBy,
		CreatedAt:      m.CreatedAt,
	}
	if m.Product != nil {
		resp.ProductName = m.Product.Name
	}
	if m.ReferenceID != nil {
		ref := m.ReferenceID.String()
		resp.ReferenceID = &ref
	}
	return resp
}

func driftToResponse(d repository.StockDrift) dto.StockDriftResponse {
	return dto.StockDriftResponse{
		ProductID:      d.ProductID.String(),
		Name:           d.Name,
		SKU:            d.SKU,
		StoredQuantity: d.StoredQuantity,
		LedgerQuantity: d.LedgerQuantity,
		Difference:     d.StoredQuantity - d.LedgerQuantity,
	}
}

func alertToResponse(a *model.Alert) dto.AlertResponse {
	resp := dto.AlertResponse{
		ID:         a.ID.String(),
		ProductID:  a.ProductID.String(),
		AlertType:  a.AlertType,
		AlertLevel: a.AlertLevel,
		Message:    a.Message,
		IsResolved: a.IsResolved,
		ResolvedAt: a.ResolvedAt,
		CreatedAt:  a.CreatedAt,
	}
	if a.Product != nil {
		resp.ProductName = a.Product.Name
		resp.ProductSKU = a.Product.SKU
		q := a.Product.Quantity
		resp.Quantity = &q
	}
	return resp
}

func saleToResponse(s *model.Sale) *dto.SaleResponse {
	resp := &dto.SaleResponse{
		ID:            s.ID.String(),
		SaleNumber:    s.SaleNumber,
		Subtotal:      s.Subtotal,
		Discount:      s.Discount,
		TaxAmount:     s.TaxAmount,
		Total:         s.Total,
		PaymentMethod: s.PaymentMethod,
		PaymentStatus: s.PaymentStatus,
		Notes:         s.Notes,
		ServedBy:      s.ServedBy,
		HasReceipt:    s.ReceiptPath != nil,
		CancelledAt:   s.CancelledAt,
		CancelReason:  s.CancelReason,
		CreatedAt:     s.CreatedAt,
		Items:         make([]dto.SaleItemResponse, 0, len(s.Items)),
	}
	if s.CustomerID != nil {
		id := s.CustomerID.String()
		resp.CustomerID = &id
	}
	if s.Customer != nil {
		name := s.Customer.FirstName + " " + s.Customer.LastName
		resp.CustomerName = &name
	}
	for _, it := range s.Items {
		item := dto.SaleItemResponse{
			ID:        it.ID.String(),
			ProductID: it.ProductID.String(),
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Discount:  it.Discount,
			Subtotal:  it.Subtotal,
		}
		if it.Product != nil {
			item.ProductName = it.Product.Name
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}

func customerToResponse(c *model.Customer) dto.CustomerResponse {
	return dto.CustomerResponse{
		ID:             c.ID.String(),
		FirstName:      c.FirstName,
		LastName:       c.LastName,
		Email:          c.Email,
		Phone:          c.Phone,
		Address:        c.Address,
		City:           c.City,
		Country:        c.Country,
		DocumentType:   c.DocumentType,
		DocumentNumber: c.DocumentNumber,
		CustomerType:   c.CustomerType,
		Status:         c.Status,
		TotalPurchases: c.TotalPurchases,
		CreatedAt:      c.CreatedAt,
	}
}

func locationToResponse(l *model.Location) dto.LocationResponse {
	return dto.LocationResponse{
		ID:           l.ID.String(),
		Name:         l.Name,
		Description:  l.Description,
		Address:      l.Address,
		Latitude:     l.Latitude,
		Longitude:    l.Longitude,
		LocationType: l.LocationType,
		IsActive:     l.IsActive,
		ContactName:  l.ContactName,
		ContactPhone: l.ContactPhone,
		CreatedAt:    l.CreatedAt,
	}
}

func prescriptionToResponse(p *model.Prescription) dto.PrescriptionResponse {
	resp := dto.PrescriptionResponse{
		ID:                 p.ID.String(),
		PrescriptionNumber: p.PrescriptionNumber,
		CustomerID:         p.CustomerID.String(),
		DoctorName:         p.DoctorName,
		DoctorLicense:      p.DoctorLicense,
		IssueDate:          formatDate(p.IssueDate),
		Diagnosis:          p.Diagnosis,
		Notes:              p.Notes,
		Status:             p.Status,
		CreatedAt:          p.CreatedAt,
		Items:              make([]dto.PrescriptionItemResponse, 0, len(p.Items)),
	}
	if p.ExpirationDate != nil {
		d := formatDate(*p.ExpirationDate)
		resp.ExpirationDate = &d
	}
	if p.Customer != nil {
		resp.CustomerName = p.Customer.FirstName + " " + p.Customer.LastName
	}
	for _, it := range p.Items {
		item := dto.PrescriptionItemResponse{
			ID:                 it.ID.String(),
			ProductID:          it.ProductID.String(),
			QuantityPrescribed: it.QuantityPrescribed,
			QuantityDispensed:  it.QuantityDispensed,
			DosageInstructions: it.DosageInstructions,
			TreatmentDuration:  it.TreatmentDuration,
		}
		if it.Product != nil {
			item.ProductName = it.Product.Name
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}
