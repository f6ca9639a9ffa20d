package handler

import (
	"context"
	"net/http"
	"testing"

	"botica/internal/dto"
	"botica/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStock struct {
	service.StockService
	got *service.MovementInput
	err error
}

func (f *fakeStock) ApplyMovement(_ context.Context, in service.MovementInput) (*dto.ProductResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.got = &in
	return &dto.ProductResponse{ID: in.ProductID.String(), Quantity: 10 + in.Delta}, nil
}

func stockRouter(stock service.StockService) *gin.Engine {
	r := gin.New()
	h := NewProductsHandler(nil, stock, nil)
	r.PATCH("/v1/products/:id/stock", h.AdjustStock)
	return r
}

func TestAdjustStock(t *testing.T) {
	stock := &fakeStock{}
	id := uuid.New()

	w := request(stockRouter(stock), http.MethodPatch, "/v1/products/"+id.String()+"/stock", dto.StockMovementRequest{
		Quantity: -3, MovementType: "adjustment", Notes: "merma", CreatedBy: "ana",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, service.MovementInput{ProductID: id, Delta: -3, Type: "adjustment", Note: "merma", Actor: "ana"}, *stock.got)
	assert.Contains(t, w.Body.String(), `"quantity":7`)
}

func TestAdjustStock_Validation(t *testing.T) {
	r := stockRouter(&fakeStock{})
	path := "/v1/products/" + uuid.NewString() + "/stock"

	w := request(r, http.MethodPatch, path, `{"quantity":0,"movement_type":"adjustment"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = request(r, http.MethodPatch, path, `{"quantity":5,"movement_type":"gift"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"MovementType":"oneof"`)
}

func TestAdjustStock_NegativeResult(t *testing.T) {
	stock := &fakeStock{err: &service.ConflictError{Msg: "stock insuficiente"}}
	w := request(stockRouter(stock), http.MethodPatch, "/v1/products/"+uuid.NewString()+"/stock",
		dto.StockMovementRequest{Quantity: -50, MovementType: "sale"})
	assert.Equal(t, http.StatusConflict, w.Code)
}
