// internal/domain/wizard/dto.go
package wizard

import (
	"encoding/json"

	"assistance-gateway/internal/domain/catalog"
)

type StartSessionRequest struct {
	PlanType catalog.PlanType `json:"plan_type"`
}

type SelectServiceRequest struct {
	PlanType  catalog.PlanType `json:"plan_type" binding:"required"`
	ServiceID string           `json:"service_id" binding:"required"`
}

type SetLocationRequest struct {
	Address   string   `json:"location_address"`
	City      string   `json:"location_city"`
	State     string   `json:"location_state"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type LocateRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" binding:"required,gte=-180,lte=180"`
}

type LookupAddressRequest struct {
	Address string `json:"address" binding:"required"`
}

// UpdateFormRequest carries a partial sub-form keyed by form type, e.g.
// {"vehicle": {"vehicle_make": "Toyota"}}.
type UpdateFormRequest map[catalog.FormType]json.RawMessage

type UpdateDetailsRequest struct {
	Description *string `json:"description"`
	Phone       *string `json:"phone"`
	Priority    *string `json:"priority"`
}

// CatalogItem is a catalog entry annotated with the caller's eligibility.
type CatalogItem struct {
	catalog.ServiceCatalogEntry
	Eligible bool `json:"eligible"`
}

type CatalogResponse struct {
	PlanType  catalog.PlanType   `json:"plan_type"`
	HasPlan   bool               `json:"has_plan"`
	Services  []CatalogItem      `json:"services"`
	PlanTypes []catalog.PlanType `json:"plan_types"`
}

// LocateResponse reports the reverse-geocoded address, or asks the caller
// to type the address when geocoding failed.
type LocateResponse struct {
	Session             *SessionView `json:"session"`
	ManualEntryRequired bool         `json:"manual_entry_required"`
	Message             string       `json:"message,omitempty"`
}

// AdvanceResponse is returned by advance/back. Blocked is set when a guard
// kept the session on the same step.
type AdvanceResponse struct {
	Session *SessionView      `json:"session"`
	Blocked bool              `json:"blocked"`
	Missing []string          `json:"missing,omitempty"`
	Result  *ValidationResult `json:"validation,omitempty"`
	Message string            `json:"message,omitempty"`
}

type SubmitResponse struct {
	RequestID    string `json:"request_id"`
	TrackingPath string `json:"tracking_path"`
}

// SessionView is the client-facing projection of a session.
type SessionView struct {
	*Session
	StepIndex    int      `json:"step_index"`
	ConfirmIndex int      `json:"confirm_index"`
	Steps        []Step   `json:"steps"`
	CanAdvance   bool     `json:"can_advance"`
	Missing      []string `json:"missing,omitempty"`
}
