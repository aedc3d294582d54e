// internal/domain/tracking/entity.go
package tracking

import (
	"time"

	"assistance-gateway/internal/domain/request"
	"assistance-gateway/internal/domain/shared"
)

// Provider is the assigned service provider.
type Provider struct {
	Name        string `json:"name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
}

// Position is a provider's last reported coordinate.
type Position struct {
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type Location struct {
	Provider *Position `json:"provider,omitempty"`
}

// ETA carries the arrival estimate. Older backends send eta_minutes.
type ETA struct {
	Minutes    *int `json:"minutes,omitempty"`
	EtaMinutes *int `json:"eta_minutes,omitempty"`
}

// Snapshot is one live-tracking response. Snapshots are replaced whole, never
// merged field by field.
type Snapshot struct {
	RequestID  shared.ID      `json:"request_id,omitempty"`
	Status     request.Status `json:"status,omitempty"`
	Provider   *Provider      `json:"provider,omitempty"`
	Location   *Location      `json:"location,omitempty"`
	ETA        *ETA           `json:"eta,omitempty"`
	DistanceKm *float64       `json:"distance_km,omitempty"`
	Distance   *float64       `json:"distance,omitempty"`
	FetchedAt  time.Time      `json:"fetched_at"`
}

// Display is the view model derived from a snapshot.
type Display struct {
	Status        request.Status         `json:"status"`
	ETAMinutes    *int                   `json:"eta_minutes,omitempty"`
	ETALabel      string                 `json:"eta_label"`
	DistanceKm    *float64               `json:"distance_km,omitempty"`
	DistanceLabel string                 `json:"distance_label"`
	Provider      *Provider              `json:"provider,omitempty"`
	Position      *Position              `json:"position,omitempty"`
	Timeline      []request.TimelineStep `json:"timeline"`
}
