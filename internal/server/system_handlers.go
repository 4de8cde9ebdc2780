package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/qaoa/internal/config"
	"github.com/aristath/qaoa/internal/modules/runs"
)

// SystemHandlers serves system monitoring endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	cfg         *config.Config
	runsRepo    *runs.Repository
	startupTime time.Time
}

// NewSystemHandlers creates system handlers
func NewSystemHandlers(log zerolog.Logger, cfg *config.Config, runsRepo *runs.Repository) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		cfg:         cfg,
		runsRepo:    runsRepo,
		startupTime: time.Now(),
	}
}

// SystemStatusResponse is returned by GET /api/system/status
type SystemStatusResponse struct {
	Status         string  `json:"status"`
	UptimeHours    float64 `json:"uptime_hours"`
	CPUPercent     float64 `json:"cpu_percent"`
	MemoryPercent  float64 `json:"memory_percent"`
	TotalRuns      int     `json:"total_runs"`
	DefaultBackend string  `json:"default_backend"`
	MaxQubits      int     `json:"max_qubits"`
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.getSystemStats()

	totalRuns := 0
	if h.runsRepo != nil {
		count, err := h.runsRepo.Count(r.Context())
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to count runs")
		} else {
			totalRuns = count
		}
	}

	h.writeJSON(w, SystemStatusResponse{
		Status:         "running",
		UptimeHours:    time.Since(h.startupTime).Hours(),
		CPUPercent:     cpuPercent,
		MemoryPercent:  memPercent,
		TotalRuns:      totalRuns,
		DefaultBackend: h.cfg.DefaultBackend,
		MaxQubits:      h.cfg.MaxQubits,
	})
}

// getSystemStats returns CPU and memory usage percentages
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	var cpuUsage, memUsage float64

	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err == nil && len(cpuPercent) > 0 {
		cpuUsage = cpuPercent[0]
	} else if err != nil {
		h.log.Debug().Err(err).Msg("Failed to read CPU usage")
	}

	memStat, err := mem.VirtualMemory()
	if err == nil {
		memUsage = memStat.UsedPercent
	} else {
		h.log.Debug().Err(err).Msg("Failed to read memory usage")
	}

	return cpuUsage, memUsage
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
