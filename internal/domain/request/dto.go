// internal/domain/request/dto.go
package request

// ServiceRequest is the submission payload sent to the Assistance API. It is
// assembled once from a wizard session and never modified after sending.
type ServiceRequest struct {
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Phone             string   `json:"phone"`
	Priority          Priority `json:"priority"`
	LocationAddress   string   `json:"location_address,omitempty"`
	LocationCity      string   `json:"location_city,omitempty"`
	LocationLatitude  *float64 `json:"location_latitude,omitempty"`
	LocationLongitude *float64 `json:"location_longitude,omitempty"`

	ServiceID      string  `json:"service_id"`
	PlanType       string  `json:"plan_type"`
	LimitPerYear   *int    `json:"limit_per_year"`
	CoverageAmount float64 `json:"coverage_amount"`

	VehicleInfo       *VehicleInfo           `json:"vehicle_info,omitempty"`
	HealthInfo        *HealthInfo            `json:"health_info,omitempty"`
	ServiceForm       map[string]interface{} `json:"service_form,omitempty"`
	MawdyService      MawdyService           `json:"mawdy_service"`
	ServiceValidation *ServiceValidation     `json:"service_validation,omitempty"`
}

type VehicleInfo struct {
	Make         string `json:"vehicle_make"`
	Model        string `json:"vehicle_model"`
	Year         *int   `json:"vehicle_year"`
	Plate        string `json:"vehicle_plate"`
	Color        string `json:"vehicle_color,omitempty"`
	IncidentType string `json:"incident_type"`
	Validation   string `json:"validation_status,omitempty"`
}

type HealthInfo struct {
	Symptoms           string `json:"symptoms"`
	SymptomDuration    string `json:"symptom_duration"`
	PainLevel          *int   `json:"pain_level,omitempty"`
	HasFever           bool   `json:"has_fever"`
	HasBreathing       bool   `json:"has_breathing_difficulty"`
	ChronicDisease     string `json:"chronic_conditions,omitempty"`
	Allergies          string `json:"allergies,omitempty"`
	CurrentMedications string `json:"current_medications,omitempty"`
	PatientAge         string `json:"patient_age,omitempty"`
	UrgencyLevel       string `json:"urgency_level,omitempty"`
	Validation         string `json:"validation_status,omitempty"`
}

// MawdyService describes the catalog service the request was raised under.
type MawdyService struct {
	ServiceID   string `json:"service_id"`
	ServiceName string `json:"service_name"`
	PlanType    string `json:"plan_type"`
	ServiceFlow string `json:"service_flow"`
	FormType    string `json:"form_type,omitempty"`
}

type ServiceValidation struct {
	FormType          string `json:"form_type"`
	ValidationStatus  string `json:"validation_status"`
	ValidationMessage string `json:"validation_message,omitempty"`
	AutoApproved      bool   `json:"auto_approved"`
}

// CreateResult is the normalised response of a create call.
type CreateResult struct {
	ID string `json:"id"`
}

type CancelRequest struct {
	Reason string `json:"reason"`
}
