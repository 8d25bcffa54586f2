// Package models defines shared domain types for the RTCC server.
package models

import "time"

// IncidentSeverity grades an incident for triage and map rendering.
type IncidentSeverity string

const (
	SeverityLow      IncidentSeverity = "low"
	SeverityMedium   IncidentSeverity = "medium"
	SeverityHigh     IncidentSeverity = "high"
	SeverityCritical IncidentSeverity = "critical"
)

// IncidentStatus tracks an incident through its lifecycle.
type IncidentStatus string

const (
	IncidentOpen     IncidentStatus = "open"
	IncidentAssigned IncidentStatus = "assigned"
	IncidentClosed   IncidentStatus = "closed"
)

// Incident represents a command incident tracked by the operations center.
type Incident struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Description  string           `json:"description,omitempty"`
	Severity     IncidentSeverity `json:"severity"`
	Status       IncidentStatus   `json:"status"`
	EntityType   string           `json:"entity_type,omitempty"`  // "lpr", "cctv", "drone", ...
	Jurisdiction string           `json:"jurisdiction,omitempty"` // owning agency code: "RBPD", "FDOT", ...
	Latitude     float64          `json:"latitude"`
	Longitude    float64          `json:"longitude"`
	AssignedTo   string           `json:"assigned_to,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	ClosedAt     *time.Time       `json:"closed_at,omitempty"`
}

// ValidSeverities contains all recognized incident severities.
var ValidSeverities = map[IncidentSeverity]bool{
	SeverityLow:      true,
	SeverityMedium:   true,
	SeverityHigh:     true,
	SeverityCritical: true,
}
