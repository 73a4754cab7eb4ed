// Package health tracks dependency liveness for the gRPC health service and
// the /healthz endpoint.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/motohub/workshop-service/internal/pkg/logger"
)

const checkTimeout = 2 * time.Second

type CheckFunc func(ctx context.Context) error

type Checker struct {
	server   *health.Server
	service  string
	interval time.Duration
	logger   logger.ZapLogger

	mu      sync.RWMutex
	checks  map[string]CheckFunc
	results map[string]string
}

func NewChecker(server *health.Server, service string, interval time.Duration, log logger.ZapLogger) *Checker {
	return &Checker{
		server:   server,
		service:  service,
		interval: interval,
		logger:   log,
		checks:   make(map[string]CheckFunc),
		results:  make(map[string]string),
	}
}

func (c *Checker) Add(name string, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = fn
}

// CheckOnce runs every check and publishes the aggregate serving status.
func (c *Checker) CheckOnce(ctx context.Context) bool {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for k, v := range c.checks {
		checks[k] = v
	}
	c.mu.RUnlock()

	results := make(map[string]string, len(checks))
	healthy := true
	for name, fn := range checks {
		cctx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := fn(cctx)
		cancel()
		if err != nil {
			healthy = false
			results[name] = err.Error()
			c.logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
			continue
		}
		results[name] = "ok"
	}

	c.mu.Lock()
	c.results = results
	c.mu.Unlock()

	status := healthpb.HealthCheckResponse_SERVING
	if !healthy {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	if c.server != nil {
		c.server.SetServingStatus("", status)
		c.server.SetServingStatus(c.service, status)
	}
	return healthy
}

// Run re-checks on every interval until ctx is done.
func (c *Checker) Run(ctx context.Context) {
	c.CheckOnce(ctx)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckOnce(ctx)
		}
	}
}

type report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Handler serves the last results. Before the first run every check is
// reported as pending.
func (c *Checker) Handler(gc *gin.Context) {
	c.mu.RLock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	out := report{Status: "ok", Checks: make(map[string]string, len(names))}
	for _, name := range names {
		res, ok := c.results[name]
		if !ok {
			res = "pending"
		}
		if res != "ok" {
			out.Status = "degraded"
		}
		out.Checks[name] = res
	}
	c.mu.RUnlock()

	code := http.StatusOK
	if out.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	gc.JSON(code, out)
}
