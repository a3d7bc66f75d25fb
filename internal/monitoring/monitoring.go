package monitoring

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"filmly/internal/factors"
	"filmly/internal/plattform"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

type ModelStats struct {
	Loaded     bool   `json:"loaded"`
	Items      int    `json:"items"`
	Dims       int    `json:"dims"`
	Generation uint64 `json:"generation"`
}

type SystemStats struct {
	// Process specific
	NumGoroutine int    `json:"num_goroutine"`
	Alloc        uint64 `json:"alloc_bytes"`
	Sys          uint64 `json:"sys_bytes"`
	NumGC        uint32 `json:"num_gc"`

	// System wide
	TotalRAM        uint64                 `json:"total_ram"`
	AvailableRAM    uint64                 `json:"available_ram"`
	UsedRAMPercent  float64                `json:"used_ram_percent"`
	TotalCPUCores   int                    `json:"total_cpu_cores"`
	CPUUsagePercent []float64              `json:"cpu_usage_percent"`
	CPUTemperatures []host.TemperatureStat `json:"cpu_temperatures"`
}

type MonitoringStatus struct {
	Timestamp time.Time   `json:"timestamp"`
	MongoDB   string      `json:"mongodb"`
	Model     ModelStats  `json:"model"`
	System    SystemStats `json:"system"`
}

type Service interface {
	GetStatus(ctx context.Context) MonitoringStatus
}

type monitoringService struct {
	mongoClient *plattform.MongoService
	store       *factors.Store
}

func NewService(mongoClient *plattform.MongoService, store *factors.Store) Service {
	return &monitoringService{
		mongoClient: mongoClient,
		store:       store,
	}
}

func (s *monitoringService) GetStatus(ctx context.Context) MonitoringStatus {
	// 1. MongoDB Status
	mongoStatus := "ok"
	if err := s.mongoClient.Ping(ctx); err != nil {
		mongoStatus = "down"
	}

	// 2. Model Status
	model := ModelStats{
		Loaded:     s.store.IsReady(),
		Generation: s.store.Generation(),
	}
	if snap := s.store.Current(); snap != nil {
		model.Items = snap.Len()
		model.Dims = snap.Dims()
	}

	// 3. System Stats (Process)
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	// 4. System Stats (Host)
	vMem, _ := mem.VirtualMemory()
	cpuPercent, _ := cpu.Percent(0, true) // per cpu
	temps, _ := host.SensorsTemperatures()

	sysStats := SystemStats{
		NumGoroutine: runtime.NumGoroutine(),
		Alloc:        memStats.Alloc,
		Sys:          memStats.Sys,
		NumGC:        memStats.NumGC,

		TotalCPUCores:   runtime.NumCPU(),
		CPUUsagePercent: cpuPercent,
		CPUTemperatures: temps,
	}

	if vMem != nil {
		sysStats.TotalRAM = vMem.Total
		sysStats.AvailableRAM = vMem.Available
		sysStats.UsedRAMPercent = vMem.UsedPercent
	}

	return MonitoringStatus{
		Timestamp: time.Now(),
		MongoDB:   mongoStatus,
		Model:     model,
		System:    sysStats,
	}
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *gin.RouterGroup) {
	g.GET("/monitoring", h.GetMonitoringStatus)
}

func (h *Handler) GetMonitoringStatus(c *gin.Context) {
	status := h.svc.GetStatus(c.Request.Context())
	c.JSON(http.StatusOK, status)
}
