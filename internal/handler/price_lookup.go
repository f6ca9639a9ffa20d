package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"botica/internal/apierror"
	"botica/internal/dto"
	"botica/internal/repository"
	"botica/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const priceCacheTTL = 4 * time.Hour

// PriceLookupHandler serves the counter price check by SKU. Entries are
// invalidated by ProductService.Update.
type PriceLookupHandler struct {
	repo repository.ProductRepository
	rdb  *redis.Client
}

func NewPriceLookupHandler(repo repository.ProductRepository, rdb *redis.Client) *PriceLookupHandler {
	return &PriceLookupHandler{repo: repo, rdb: rdb}
}

// BySKU godoc
// @Summary  Consulta de precio por SKU
// @Tags     products
// @Produce  json
// @Param    sku path     string true "SKU"
// @Success  200 {object} dto.PriceLookupResponse
// @Failure  404 {object} apierror.APIError
// @Router   /v1/products/sku/{sku} [get]
func (h *PriceLookupHandler) BySKU(c *gin.Context) {
	sku := c.Param("sku")
	ctx := c.Request.Context()
	cacheKey := service.PriceCacheKey(sku)

	if h.rdb != nil {
		if cached, err := h.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var resp dto.PriceLookupResponse
			if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
				c.JSON(http.StatusOK, resp)
				return
			}
		}
	}

	p, err := h.repo.FindBySKU(ctx, sku)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !p.IsActive()) {
		c.JSON(http.StatusNotFound, apierror.New("Producto no encontrado"))
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	resp := dto.PriceLookupResponse{
		ID:                   p.ID.String(),
		Name:                 p.Name,
		SKU:                  p.SKU,
		UnitPrice:            p.UnitPrice,
		Unit:                 p.Unit,
		RequiresPrescription: p.RequiresPrescription,
	}

	if h.rdb != nil {
		if b, jsonErr := json.Marshal(resp); jsonErr == nil {
			if err := h.rdb.Set(context.Background(), cacheKey, b, priceCacheTTL).Err(); err != nil {
				log.Debug().Err(err).Str("sku", sku).Msg("price cache write failed")
			}
		}
	}

	c.JSON(http.StatusOK, resp)
}
