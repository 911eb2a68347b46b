package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/genzone/backend/libs/tasks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var maintenanceCallsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "maintenance_calls_total",
		Help: "Total number of maintenance endpoint calls by job and outcome",
	},
	[]string{"job", "result"},
)

// maxErrorBody bounds how much of a failed response is kept for the error
const maxErrorBody = 1024

// HTTPDoer is the part of http.Client used for maintenance calls
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// MaintenanceService calls service maintenance endpoints with the shared API key
type MaintenanceService struct {
	client HTTPDoer
	apiKey string
	logger *zap.Logger
}

// NewMaintenanceService creates a new maintenance service.
// A nil client defaults to an http.Client with a 30 second timeout.
func NewMaintenanceService(client HTTPDoer, apiKey string, logger *zap.Logger) *MaintenanceService {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &MaintenanceService{client: client, apiKey: apiKey, logger: logger}
}

// Call issues the request described by the payload. Any non-2xx status is an error.
func (s *MaintenanceService) Call(ctx context.Context, p tasks.MaintenancePayload) error {
	req, err := http.NewRequestWithContext(ctx, p.Method, p.URL, nil)
	if err != nil {
		maintenanceCallsTotal.WithLabelValues(p.Job, "invalid").Inc()
		return fmt.Errorf("failed to build %s request: %w", p.Job, err)
	}
	req.Header.Set("X-API-Key", s.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		maintenanceCallsTotal.WithLabelValues(p.Job, "error").Inc()
		return fmt.Errorf("failed to call %s: %w", p.Job, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		maintenanceCallsTotal.WithLabelValues(p.Job, "error").Inc()
		return fmt.Errorf("%s returned status %d: %s", p.Job, resp.StatusCode, body)
	}

	maintenanceCallsTotal.WithLabelValues(p.Job, "ok").Inc()
	s.logger.Info("maintenance job completed",
		zap.String("job", p.Job),
		zap.Int("status", resp.StatusCode),
		zap.ByteString("response", body),
	)
	return nil
}
