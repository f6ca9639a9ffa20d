package handler

import (
	"net/http"

	"botica/internal/dto"
	"botica/internal/service"

	"github.com/gin-gonic/gin"
)

type AlertsHandler struct{ svc service.AlertService }

func NewAlertsHandler(svc service.AlertService) *AlertsHandler { return &AlertsHandler{svc: svc} }

// List returns every alert, or only those of one product when product_id is set.
func (h *AlertsHandler) List(c *gin.Context) {
	if raw := c.Query("product_id"); raw != "" {
		id, ok := parseUUID(c, raw)
		if !ok {
			return
		}
		resp, err := h.svc.ListByProduct(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
		return
	}
	resp, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Active godoc
// @Summary      Alertas activas
// @Description  Alertas sin resolver ordenadas por severidad y luego por fecha descendente.
// @Tags         alerts
// @Produce      json
// @Success      200 {array} dto.AlertResponse
// @Router       /v1/alerts/active [get]
func (h *AlertsHandler) Active(c *gin.Context) {
	resp, err := h.svc.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AlertsHandler) Stats(c *gin.Context) {
	resp, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AlertsHandler) Create(c *gin.Context) {
	var req dto.CreateAlertRequest
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

func (h *AlertsHandler) Get(c *gin.Context) {
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

// Resolve godoc
// @Summary      Resolver alerta
// @Description  Idempotente: resolver una alerta ya resuelta devuelve su estado actual.
// @Tags         alerts
// @Produce      json
// @Param        id path string true "UUID de la alerta"
// @Success      200 {object} dto.AlertResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/alerts/{id}/resolve [patch]
func (h *AlertsHandler) Resolve(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Resolve(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AlertsHandler) Delete(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
