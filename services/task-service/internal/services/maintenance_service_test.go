package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/genzone/backend/libs/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingDoer struct{}

func (failingDoer) Do(req *http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func TestMaintenanceService_Call(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		expectedError string
	}{
		{name: "ok", status: http.StatusOK},
		{name: "no content", status: http.StatusNoContent},
		{name: "unauthorized", status: http.StatusUnauthorized, expectedError: "returned status 401"},
		{name: "server error", status: http.StatusInternalServerError, expectedError: "returned status 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				gotMethod string
				gotPath   string
				gotKey    string
			)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotMethod = r.Method
				gotPath = r.URL.Path
				gotKey = r.Header.Get("X-API-Key")
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			svc := NewMaintenanceService(srv.Client(), "secret-key", zap.NewNop())
			err := svc.Call(context.Background(), tasks.MaintenancePayload{
				Job:    "token-cleanup",
				Method: http.MethodDelete,
				URL:    srv.URL + "/api/v1/maintenance/tokens",
			})

			if tt.expectedError != "" {
				assert.ErrorContains(t, err, tt.expectedError)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, http.MethodDelete, gotMethod)
			assert.Equal(t, "/api/v1/maintenance/tokens", gotPath)
			assert.Equal(t, "secret-key", gotKey)
		})
	}
}

func TestMaintenanceService_CallErrors(t *testing.T) {
	svc := NewMaintenanceService(failingDoer{}, "secret-key", zap.NewNop())

	err := svc.Call(context.Background(), tasks.MaintenancePayload{Job: "token-cleanup", Method: http.MethodDelete, URL: "http://auth/api/v1/maintenance/tokens"})
	assert.ErrorContains(t, err, "connection refused")

	err = svc.Call(context.Background(), tasks.MaintenancePayload{Job: "token-cleanup", Method: "BAD METHOD", URL: "http://auth"})
	assert.ErrorContains(t, err, "failed to build")
}

func TestNewMaintenanceService_DefaultClient(t *testing.T) {
	svc := NewMaintenanceService(nil, "k", zap.NewNop())
	assert.IsType(t, &http.Client{}, svc.client)
}
