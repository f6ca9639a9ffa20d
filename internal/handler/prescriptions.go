package handler

import (
	"net/http"

	"botica/internal/dto"
	"botica/internal/service"

	"github.com/gin-gonic/gin"
)

type PrescriptionsHandler struct{ svc service.PrescriptionService }

func NewPrescriptionsHandler(svc service.PrescriptionService) *PrescriptionsHandler {
	return &PrescriptionsHandler{svc: svc}
}

// Create godoc
// @Summary      Registrar receta
// @Tags         prescriptions
// @Accept       json
// @Produce      json
// @Param        body body     dto.CreatePrescriptionRequest true "Receta con sus ítems"
// @Success      201  {object} dto.PrescriptionResponse
// @Failure      404  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/prescriptions [post]
func (h *PrescriptionsHandler) Create(c *gin.Context) {
	var req dto.CreatePrescriptionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *PrescriptionsHandler) List(c *gin.Context) {
	var filter dto.PrescriptionFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PrescriptionsHandler) Search(c *gin.Context) {
	resp, err := h.svc.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PrescriptionsHandler) Pending(c *gin.Context) {
	resp, err := h.svc.Pending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PrescriptionsHandler) Expired(c *gin.Context) {
	resp, err := h.svc.Expired(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PrescriptionsHandler) ByCustomer(c *gin.Context) {
	id, ok := paramUUID(c, "customerId")
	if !ok {
		return
	}
	resp, err := h.svc.ByCustomer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PrescriptionsHandler) Get(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PrescriptionsHandler) Update(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdatePrescriptionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PrescriptionsHandler) UpdateStatus(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdatePrescriptionStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PrescriptionsHandler) Delete(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Cancel(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Dispense godoc
// @Summary      Dispensar ítem de receta
// @Description  Suma la cantidad dispensada al ítem y recalcula el estado de la receta.
// @Tags         prescriptions
// @Accept       json
// @Produce      json
// @Param        itemId path     string               true "UUID del ítem"
// @Param        body   body     dto.DispenseRequest  true "Cantidad"
// @Success      200    {object} dto.PrescriptionResponse
// @Failure      404    {object} apierror.APIError
// @Failure      409    {object} apierror.APIError
// @Failure      422    {object} apierror.APIError
// @Router       /v1/prescriptions/items/{itemId}/dispense [patch]
func (h *PrescriptionsHandler) Dispense(c *gin.Context) {
	itemID, ok := paramUUID(c, "itemId")
	if !ok {
		return
	}
	var req dto.DispenseRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Dispense(c.Request.Context(), itemID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
