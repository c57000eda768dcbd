package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/juju/loggo/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Tomlord1122/todo-service/internal/service"
)

var logger = loggo.GetLogger("todo.server")

// HealthChecker reports the state of the backing store.
// A "status" of "down" turns /health into a 503.
type HealthChecker interface {
	Health() map[string]string
}

type Server struct {
	todoService service.TodoService
	health      HealthChecker
	metrics     *Collector
	registry    *prometheus.Registry
}

// New builds a Server with its own metrics registry.
func New(todoService service.TodoService, health HealthChecker) *Server {
	registry := prometheus.NewRegistry()
	metrics := NewMetricsCollector()
	registry.MustRegister(
		metrics,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Server{
		todoService: todoService,
		health:      health,
		metrics:     metrics,
		registry:    registry,
	}
}

// NewServer returns an http.Server listening on port and serving the todo API.
func NewServer(port int, todoService service.TodoService, health HealthChecker) *http.Server {
	appServer := New(todoService, health)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      appServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
