package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/stockcast/backend-go/internal/domain"
	"github.com/andresuchdata/stockcast/backend-go/internal/service"
)

type ForecastService interface {
	Forecast(ctx context.Context, req service.ForecastRequest) (*domain.ForecastResponse, error)
}

type ForecastHandler struct {
	forecasts      ForecastService
	defaultPeriods int
}

func NewForecastHandler(forecasts ForecastService, defaultPeriods int) *ForecastHandler {
	if defaultPeriods <= 0 {
		defaultPeriods = 30
	}
	return &ForecastHandler{forecasts: forecasts, defaultPeriods: defaultPeriods}
}

// Forecast handles GET /forecast/:id?periods=N&from=YYYY-MM-DD&to=YYYY-MM-DD.
// Out-of-range periods are rejected by the service, never clamped here.
func (h *ForecastHandler) Forecast(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	req := service.ForecastRequest{ProductID: id, Periods: h.defaultPeriods}
	if raw := strings.TrimSpace(c.Query("periods")); raw != "" {
		periods, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "periods must be an integer")
			return
		}
		req.Periods = periods
	}

	var err error
	if req.From, err = parseOptionalDate(c.Query("from")); err != nil {
		badRequest(c, "from must be a date in YYYY-MM-DD format")
		return
	}
	if req.To, err = parseOptionalDate(c.Query("to")); err != nil {
		badRequest(c, "to must be a date in YYYY-MM-DD format")
		return
	}
	if !req.From.IsZero() && !req.To.IsZero() && req.To.Before(req.From) {
		badRequest(c, "to must not be before from")
		return
	}

	resp, err := h.forecasts.Forecast(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
