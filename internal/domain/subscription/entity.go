// internal/domain/subscription/entity.go
package subscription

import (
	"strings"

	"assistance-gateway/internal/domain/catalog"
	"assistance-gateway/internal/domain/shared"
)

const StatusActive = "ACTIVE"

// Plan is the nested plan object some subscription payloads carry.
type Plan struct {
	ID   shared.ID `json:"id,omitempty"`
	Name string    `json:"name,omitempty"`
}

// Subscription is a user's plan subscription as returned by the Assistance API.
type Subscription struct {
	ID       shared.ID `json:"id,omitempty"`
	Status   string    `json:"status"`
	PlanName string    `json:"plan_name,omitempty"`
	Plan     *Plan     `json:"plan,omitempty"`
	Category string    `json:"category,omitempty"`
	EndDate  string    `json:"end_date,omitempty"`
}

// IsActive reports whether the subscription status is ACTIVE.
func (s Subscription) IsActive() bool {
	return strings.EqualFold(strings.TrimSpace(s.Status), StatusActive)
}

// SearchText is the lower-cased text that plan keywords are matched against.
func (s Subscription) SearchText() string {
	parts := []string{s.PlanName, s.Category}
	if s.Plan != nil {
		parts = append(parts, s.Plan.Name)
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// PlanKeywords maps a plan type to the keywords that identify it in a
// subscription's plan name or category.
var PlanKeywords = map[catalog.PlanType][]string{
	catalog.PlanTypeDrive:  {"drive", "vial", "roadside", "vehicular", "auto"},
	catalog.PlanTypeHealth: {"health", "salud", "medical", "medica"},
}
