package rating

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the rating endpoints on an authenticated group,
// e.g. /api/ratings.
func (h *Handler) RegisterRoutes(g *gin.RouterGroup) {
	g.POST("", h.Submit)
	g.GET("", h.History)
	g.GET("/count", h.Count)
}

func (h *Handler) Submit(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var inputs []Input
	if err := c.ShouldBindJSON(&inputs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No ratings provided"})
		return
	}

	if err := h.svc.Submit(c.Request.Context(), userID, inputs); err != nil {
		switch {
		case errors.Is(err, ErrNoRatings), errors.Is(err, ErrInvalidScore):
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Ratings saved"})
}

func (h *Handler) History(c *gin.Context) {
	userID := c.GetInt64("user_id")

	entries, err := h.svc.History(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) Count(c *gin.Context) {
	userID := c.GetInt64("user_id")

	count, err := h.svc.Count(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}
