package models

import "time"

// EmailTemplate is a stored subject/body pair with positional {{N}} placeholders
type EmailTemplate struct {
	ID              int       `json:"id"`
	Slug            string    `json:"slug"`
	SubjectTemplate string    `json:"subjectTemplate"`
	BodyTemplate    string    `json:"bodyTemplate"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// DeliveryStatus is the outcome of one delivery attempt
type DeliveryStatus string

const (
	DeliveryStatusCompleted DeliveryStatus = "Completed"
	DeliveryStatusFailed    DeliveryStatus = "Failed"
)

// EmailDelivery records one attempt to send a templated email
type EmailDelivery struct {
	ID           int            `json:"id"`
	TemplateSlug string         `json:"templateSlug"`
	Recipient    string         `json:"recipient"`
	Status       DeliveryStatus `json:"status"`
	Error        string         `json:"error,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}
