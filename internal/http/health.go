package http

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is a dependency whose connectivity the health endpoint reports.
// Implemented by database.Database.
type Pinger interface {
	Ping() error
}

// PingFunc adapts a function to Pinger.
type PingFunc func() error

func (f PingFunc) Ping() error { return f() }

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

type HealthController struct {
	db      Pinger
	version string
	extra   map[string]Pinger
}

func NewHealthController(db Pinger, version string) *HealthController {
	return &HealthController{
		db:      db,
		version: version,
		extra:   make(map[string]Pinger),
	}
}

// AddCheck reports an additional dependency under name.
func (h *HealthController) AddCheck(name string, p Pinger) {
	h.extra[name] = p
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	// Check database connectivity
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "not configured"
	}

	names := make([]string, 0, len(h.extra))
	for name := range h.extra {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := h.extra[name].Ping(); err != nil {
			checks[name] = "error: " + err.Error()
			status = "unhealthy"
			continue
		}
		checks[name] = "ok"
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}
