package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/comitanigiacomo/sentsei-srs-engine/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/domain"
	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/services"
	"github.com/gin-gonic/gin"
)

type DeckHandler struct {
	svc *services.DeckService
}

func NewDeckHandler(svc *services.DeckService) *DeckHandler {
	return &DeckHandler{
		svc: svc,
	}
}

// addItemRequest carries one deck item in the millisecond wire format. The
// scheduling fields are optional; a client adding a freshly learned
// sentence sends only the text fields.
type addItemRequest struct {
	Sentence      string   `json:"sentence" binding:"required"`
	Translation   string   `json:"translation" binding:"required"`
	Lang          string   `json:"lang" binding:"required"`
	Pronunciation string   `json:"pronunciation"`
	AddedAt       *float64 `json:"addedAt"`
	NextReview    *float64 `json:"nextReview"`
	Interval      *float64 `json:"interval"`
	EaseFactor    *float64 `json:"easeFactor"`
	ReviewCount   *int     `json:"reviewCount"`
}

type reviewRequest struct {
	Sentence    string  `json:"sentence" binding:"required"`
	Lang        string  `json:"lang" binding:"required"`
	Interval    float64 `json:"interval" binding:"required"`
	EaseFactor  float64 `json:"easeFactor" binding:"required"`
	NextReview  float64 `json:"nextReview" binding:"required"`
	ReviewCount int     `json:"reviewCount"`
}

func (h *DeckHandler) RegisterRoutes(router *gin.RouterGroup) {
	srs := router.Group("/srs")
	{
		srs.GET("/deck", h.GetDeck)
		srs.PUT("/deck", h.ReplaceDeck)
		srs.POST("/item", h.AddItem)
		srs.DELETE("/item", h.RemoveItem)
		srs.POST("/review", h.RecordReview)
	}
}

func (h *DeckHandler) GetDeck(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	deck, err := h.svc.GetDeck(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, deck)
}

func (h *DeckHandler) ReplaceDeck(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var deck domain.Deck
	if err := c.ShouldBindJSON(&deck); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "deck must be an array of objects"})
		return
	}

	count, err := h.svc.ReplaceDeck(c.Request.Context(), userID, deck)
	if err != nil {
		if errors.Is(err, domain.ErrDeckTooLarge) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "data too large (max 1MB)"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "count": count})
}

func (h *DeckHandler) AddItem(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := domain.NewDeckItem(req.Sentence, req.Translation, req.Lang, req.Pronunciation, time.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.AddedAt != nil {
		item.AddedAt = time.UnixMilli(int64(*req.AddedAt)).UTC()
	}
	if req.NextReview != nil {
		item.NextReview = time.UnixMilli(int64(*req.NextReview)).UTC()
	}
	if req.Interval != nil {
		item.Interval = time.Duration(*req.Interval) * time.Millisecond
	}
	if req.EaseFactor != nil {
		item.EaseFactor = *req.EaseFactor
	}
	if req.ReviewCount != nil {
		item.ReviewCount = *req.ReviewCount
	}

	added, count, err := h.svc.AddItem(c.Request.Context(), userID, item)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDeckTooLarge):
			c.JSON(http.StatusBadRequest, gin.H{"error": "data too large (max 1MB)"})
		case errors.Is(err, domain.ErrInvalidInterval),
			errors.Is(err, domain.ErrInvalidEaseFactor),
			errors.Is(err, domain.ErrNegativeReviewCount):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "added": added, "count": count})
}

func (h *DeckHandler) RemoveItem(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	sentence := c.Query("sentence")
	lang := c.Query("lang")
	if sentence == "" || lang == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sentence and lang query parameters required"})
		return
	}

	removed, count, err := h.svc.RemoveItem(c.Request.Context(), userID, sentence, lang)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "removed": removed, "count": count})
}

func (h *DeckHandler) RecordReview(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := services.ReviewInput{
		Sentence:    req.Sentence,
		Lang:        req.Lang,
		Interval:    time.Duration(req.Interval) * time.Millisecond,
		EaseFactor:  req.EaseFactor,
		NextReview:  time.UnixMilli(int64(req.NextReview)).UTC(),
		ReviewCount: req.ReviewCount,
	}

	if err := h.svc.RecordReview(c.Request.Context(), userID, input); err != nil {
		switch {
		case errors.Is(err, domain.ErrItemNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "srs item not found"})
		case errors.Is(err, domain.ErrInvalidInterval),
			errors.Is(err, domain.ErrInvalidEaseFactor),
			errors.Is(err, domain.ErrNegativeReviewCount):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
