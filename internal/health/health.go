package health

import (
	"context"
	"net/http"
	"time"

	"filmly/internal/factors"
	"filmly/internal/plattform"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type Status struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Services  map[string]interface{} `json:"services"`
}

type Service interface {
	Check(ctx context.Context) Status
}

type healthService struct {
	mongoClient *plattform.MongoService
	rdb         *redis.Client
	store       *factors.Store
}

// NewService builds the health checker. rdb may be nil when the similarity
// cache is disabled.
func NewService(mongoClient *plattform.MongoService, rdb *redis.Client, store *factors.Store) Service {
	return &healthService{
		mongoClient: mongoClient,
		rdb:         rdb,
		store:       store,
	}
}

func (s *healthService) Check(ctx context.Context) Status {
	services := make(map[string]interface{})
	overallStatus := "ok"

	// 1. MongoDB Check
	mongoStatus := "ok"
	if err := s.mongoClient.Ping(ctx); err != nil {
		mongoStatus = "down"
		overallStatus = "degraded"
	}
	services["mongodb"] = map[string]string{
		"status": mongoStatus,
	}

	// 2. Redis Check (optional dependency; a dead cache degrades nothing)
	if s.rdb != nil {
		redisStatus := "ok"
		if err := s.rdb.Ping(ctx).Err(); err != nil {
			redisStatus = "down"
		}
		services["redis"] = map[string]string{
			"status": redisStatus,
		}
	}

	// 3. Model Check. Recommendations return 503 until the first snapshot is
	// published, so surface that here too.
	modelStatus := "ok"
	if !s.store.IsReady() {
		modelStatus = "not_loaded"
		overallStatus = "degraded"
	}
	model := map[string]interface{}{
		"status": modelStatus,
	}
	if snap := s.store.Current(); snap != nil {
		model["items"] = snap.Len()
		model["dims"] = snap.Dims()
	}
	services["model"] = model

	return Status{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Services:  services,
	}
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *gin.RouterGroup) {
	g.GET("/health", h.HealthCheck)
}

func (h *Handler) HealthCheck(c *gin.Context) {
	status := h.svc.Check(c.Request.Context())
	httpStatus := http.StatusOK
	if status.Status != "ok" {
		httpStatus = http.StatusServiceUnavailable
	}
	c.JSON(httpStatus, status)
}
