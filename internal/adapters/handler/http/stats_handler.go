package http

import (
	"net/http"

	"github.com/comitanigiacomo/sentsei-srs-engine/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/services"
	"github.com/gin-gonic/gin"
)

type StatsHandler struct {
	svc *services.StatsService
}

func NewStatsHandler(svc *services.StatsService) *StatsHandler {
	return &StatsHandler{
		svc: svc,
	}
}

func (h *StatsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/srs/stats", h.GetDeckStats)
}

func (h *StatsHandler) GetDeckStats(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	stats, err := h.svc.GetDeckStats(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
