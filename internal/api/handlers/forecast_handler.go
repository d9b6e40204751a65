package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/andresuchdata/stockforecast/internal/forecast"
	"github.com/andresuchdata/stockforecast/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type ForecastHandler struct {
	service *service.StockForecastService
}

func NewForecastHandler(service *service.StockForecastService) *ForecastHandler {
	return &ForecastHandler{service: service}
}

// GetProductForecast handles GET /products/:id/forecast
func (h *ForecastHandler) GetProductForecast(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	result, err := h.service.ProductForecast(c.Request.Context(), id)
	if err != nil {
		var dataErr *forecast.DataError
		if errors.As(err, &dataErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": dataErr.Error()})
			return
		}
		log.Error().Err(err).Int64("product_id", id).Msg("forecast failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute forecast"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetFleetStatus handles GET /forecast/summary
func (h *ForecastHandler) GetFleetStatus(c *gin.Context) {
	forecasts, err := h.service.FleetStatus(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("fleet status failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute fleet status"})
		return
	}

	counts := map[string]int{}
	for _, f := range forecasts {
		counts[f.Status.Kind]++
	}

	c.JSON(http.StatusOK, gin.H{
		"products": forecasts,
		"summary":  counts,
	})
}

// TriggerTraining handles POST /forecast/train. Training is synchronous
// and heavy; this endpoint exists for out-of-band invocation (operators,
// schedulers), not for the request path.
func (h *ForecastHandler) TriggerTraining(c *gin.Context) {
	report, err := h.service.Train(c.Request.Context())
	if err != nil {
		if errors.Is(err, forecast.ErrInsufficientData) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Msg("training failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "training failed"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// InvalidateProduct handles POST /products/:id/forecast/invalidate, called
// by the host application after it accepts an order.
func (h *ForecastHandler) InvalidateProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	h.service.InvalidateProduct(c.Request.Context(), id)
	c.Status(http.StatusNoContent)
}
