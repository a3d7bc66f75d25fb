package admin

import (
	"errors"
	"net/http"

	"filmly/internal/factors"
	"filmly/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler exposes the operator endpoints. They are guarded by a shared key
// rather than a user token.
type Handler struct {
	store         *factors.Store
	adminKey      string
	defaultSource string
}

func NewHandler(store *factors.Store, adminKey, defaultSource string) *Handler {
	return &Handler{
		store:         store,
		adminKey:      adminKey,
		defaultSource: defaultSource,
	}
}

func (h *Handler) RegisterRoutes(g *gin.RouterGroup) {
	g.POST("/reload-model", h.reloadModel)
}

type reloadRequest struct {
	Source string `json:"source"`
}

func (h *Handler) reloadModel(c *gin.Context) {
	if h.adminKey == "" || c.GetHeader("x-admin-key") != h.adminKey {
		c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
		return
	}

	var req reloadRequest
	// Body is optional; an empty body reloads the configured source.
	_ = c.ShouldBindJSON(&req)
	source := req.Source
	if source == "" {
		source = h.defaultSource
	}
	if source == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No model source configured"})
		return
	}

	reloadID := uuid.New().String()
	logger.Info("model reload requested",
		zap.String("reloadId", reloadID), zap.String("source", source))

	snap, err := h.store.Load(c.Request.Context(), source)
	if err != nil {
		logger.Error("model reload failed", zap.String("reloadId", reloadID), zap.Error(err))
		if errors.Is(err, factors.ErrMalformedModel) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Malformed model artifact", "details": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not reload model"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Model reloaded",
		"reloadId": reloadID,
		"items":    snap.Len(),
		"dims":     snap.Dims(),
		"source":   source,
	})
}
