// Package tasks defines background job types shared by producers and the worker
package tasks

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/hibiken/asynq"
)

// Task type names routed by the worker mux
const (
	TypeEmailDelivery   = "email:deliver"
	TypeMaintenanceCall = "maintenance:call"
)

// Queues served by the worker, with their priorities
const (
	QueueImmediate = "immediate"
	QueueDefault   = "default"
)

// Email template slugs seeded by the task-service migrations
const (
	TemplateVerifyEmail = "verify-email"
)

// EmailPayload asks the worker to render a template and send it to one recipient.
// Vars fill the {{1}}, {{2}}, ... placeholders of the template in order.
type EmailPayload struct {
	Template string   `json:"template"`
	To       string   `json:"to"`
	Vars     []string `json:"vars,omitempty"`
}

// MaintenancePayload asks the worker to call a service maintenance endpoint
type MaintenancePayload struct {
	Job    string `json:"job"`
	Method string `json:"method"`
	URL    string `json:"url"`
}

// NewEmailTask builds an email delivery task
func NewEmailTask(p EmailPayload) (*asynq.Task, error) {
	if strings.TrimSpace(p.To) == "" {
		return nil, fmt.Errorf("email recipient is required")
	}
	if p.Template == "" {
		return nil, fmt.Errorf("email template is required")
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal email payload: %w", err)
	}
	return asynq.NewTask(TypeEmailDelivery, payload), nil
}

// ParseEmailPayload decodes the payload of an email delivery task
func ParseEmailPayload(t *asynq.Task) (EmailPayload, error) {
	var p EmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return EmailPayload{}, fmt.Errorf("failed to unmarshal email payload: %w", err)
	}
	return p, nil
}

// NewMaintenanceTask builds a maintenance call task
func NewMaintenanceTask(p MaintenancePayload) (*asynq.Task, error) {
	if p.Job == "" || p.URL == "" {
		return nil, fmt.Errorf("maintenance job and url are required")
	}
	if p.Method == "" {
		p.Method = http.MethodPost
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal maintenance payload: %w", err)
	}
	return asynq.NewTask(TypeMaintenanceCall, payload), nil
}

// ParseMaintenancePayload decodes the payload of a maintenance call task
func ParseMaintenancePayload(t *asynq.Task) (MaintenancePayload, error) {
	var p MaintenancePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return MaintenancePayload{}, fmt.Errorf("failed to unmarshal maintenance payload: %w", err)
	}
	return p, nil
}
