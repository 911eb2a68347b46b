package main

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/genzone/backend/libs/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockEnqueuer struct {
	payloads  []tasks.MaintenancePayload
	uniqueFor time.Duration
	err       error
}

func (m *mockEnqueuer) EnqueueMaintenance(ctx context.Context, p tasks.MaintenancePayload, uniqueFor time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.payloads = append(m.payloads, p)
	m.uniqueFor = uniqueFor
	return nil
}

func TestMaintenanceJobs(t *testing.T) {
	jobs := MaintenanceJobs("http://auth:8081/", "0 3 * * *", "30 3 * * *")

	require.Len(t, jobs, 2)
	assert.Equal(t, "0 3 * * *", jobs[0].Spec)
	assert.Equal(t, "http://auth:8081/api/v1/maintenance/tokens", jobs[0].Payload.URL)
	assert.Equal(t, http.MethodDelete, jobs[0].Payload.Method)
	assert.Equal(t, "30 3 * * *", jobs[1].Spec)
	assert.Equal(t, "http://auth:8081/api/v1/maintenance/unverified", jobs[1].Payload.URL)
}

func TestScheduler_Add(t *testing.T) {
	tests := []struct {
		name          string
		spec          string
		errorContains string
	}{
		{name: "standard spec", spec: "0 3 * * *"},
		{name: "descriptor", spec: "@daily"},
		{name: "invalid spec", spec: "every night", errorContains: "invalid schedule"},
		{name: "seconds field is rejected", spec: "0 0 3 * * *", errorContains: "invalid schedule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler(&mockEnqueuer{}, zap.NewNop(), time.Hour)
			err := s.Add(Job{Spec: tt.spec, Payload: tasks.MaintenancePayload{Job: "token-cleanup", URL: "http://auth"}})

			if tt.errorContains != "" {
				assert.ErrorContains(t, err, tt.errorContains)
			} else {
				assert.NoError(t, err)
				assert.Len(t, s.cron.Entries(), 1)
			}
		})
	}
}

func TestScheduler_EnqueueFunc(t *testing.T) {
	payload := tasks.MaintenancePayload{Job: "token-cleanup", Method: http.MethodDelete, URL: "http://auth/api/v1/maintenance/tokens"}

	t.Run("enqueues with uniqueness window", func(t *testing.T) {
		enqueuer := &mockEnqueuer{}
		s := NewScheduler(enqueuer, zap.NewNop(), 30*time.Minute)

		s.enqueueFunc(payload)()

		require.Len(t, enqueuer.payloads, 1)
		assert.Equal(t, payload, enqueuer.payloads[0])
		assert.Equal(t, 30*time.Minute, enqueuer.uniqueFor)
	})

	t.Run("enqueue failure is logged only", func(t *testing.T) {
		enqueuer := &mockEnqueuer{err: errors.New("redis down")}
		s := NewScheduler(enqueuer, zap.NewNop(), time.Hour)

		assert.NotPanics(t, s.enqueueFunc(payload))
		assert.Empty(t, enqueuer.payloads)
	})
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(&mockEnqueuer{}, zap.NewNop(), time.Hour)
	require.NoError(t, s.Add(MaintenanceJobs("http://auth", "@daily", "@daily")...))

	s.Start()
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
