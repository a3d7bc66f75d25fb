package recommend

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the recommendation endpoint on an authenticated
// group, e.g. GET /api/recs.
func (h *Handler) RegisterRoutes(g *gin.RouterGroup) {
	g.GET("", h.Recommend)
}

// RegisterMovieRoutes registers the similar-movies endpoint, e.g.
// GET /api/movies/:id/similar.
func (h *Handler) RegisterMovieRoutes(g *gin.RouterGroup) {
	g.GET("/:id/similar", h.SimilarMovies)
}

func (h *Handler) Recommend(c *gin.Context) {
	userID := c.GetInt64("user_id")

	recs, err := h.svc.RecommendWithDetails(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrModelNotReady) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Latent vectors not loaded yet"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (h *Handler) SimilarMovies(c *gin.Context) {
	mlID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid movie id"})
		return
	}

	k := defaultSimilarK
	if raw := c.Query("k"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			k = parsed
		}
	}

	sims, err := h.svc.SimilarMovies(c.Request.Context(), mlID, k)
	if err != nil {
		if errors.Is(err, ErrModelNotReady) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Latent vectors not loaded yet"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusOK, sims)
}
