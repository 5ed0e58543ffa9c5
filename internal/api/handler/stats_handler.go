package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/isitech/bibliotheque/internal/api/metrics"
	"github.com/isitech/bibliotheque/internal/core/ports"
)

type StatsHandler struct {
	service ports.LibraryService
}

func NewStatsHandler(service ports.LibraryService) *StatsHandler {
	return &StatsHandler{service: service}
}

// Get handles GET /v1/stats and refreshes the catalog gauges on the way.
//
// @Summary      Library statistics
// @Tags         stats
// @Produce      json
// @Success      200  {object}  domain.Stats
// @Router       /v1/stats [get]
func (h *StatsHandler) Get(c echo.Context) error {
	stats := h.service.Stats(c.Request().Context())
	metrics.SetCatalog(stats.TotalBooks, stats.AvailableBooks)
	return c.JSON(http.StatusOK, stats)
}
