package assistance

import (
	"bytes"
	"encoding/json"
	"strings"

	"assistance-gateway/internal/domain/shared"
)

// ValidationResponse is the body of every validate* endpoint.
type ValidationResponse struct {
	ValidationStatus  string   `json:"validation_status"`
	ValidationMessage string   `json:"validation_message"`
	ConfidenceScore   *float64 `json:"confidence_score,omitempty"`
	UrgencyLevel      string   `json:"urgency_level,omitempty"`
	AutoApproved      bool     `json:"auto_approved,omitempty"`
}

// VehicleValidationRequest is the vehicle sub-form as the validator expects it.
type VehicleValidationRequest struct {
	VehicleMake         string `json:"vehicle_make"`
	VehicleModel        string `json:"vehicle_model"`
	VehicleYear         *int   `json:"vehicle_year"`
	VehiclePlate        string `json:"vehicle_plate"`
	VehicleColor        string `json:"vehicle_color,omitempty"`
	IncidentType        string `json:"incident_type"`
	IncidentDescription string `json:"incident_description,omitempty"`
	ServiceID           string `json:"service_id"`
}

// HealthValidationRequest is the health questionnaire.
type HealthValidationRequest struct {
	Symptoms               string `json:"symptoms"`
	SymptomDuration        string `json:"symptom_duration"`
	PainLevel              *int   `json:"pain_level,omitempty"`
	HasFever               bool   `json:"has_fever"`
	HasBreathingDifficulty bool   `json:"has_breathing_difficulty"`
	ChronicConditions      string `json:"chronic_conditions,omitempty"`
	Allergies              string `json:"allergies,omitempty"`
	CurrentMedications     string `json:"current_medications,omitempty"`
	PatientAge             string `json:"patient_age,omitempty"`
	ServiceID              string `json:"service_id"`
}

// ServiceValidationRequest nests the form-type-specific fields under the form
// type, e.g. {"form_type":"taxi","taxi":{...}}.
type ServiceValidationRequest struct {
	ServiceID string
	FormType  string
	Fields    map[string]interface{}
}

func (r ServiceValidationRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"service_id": r.ServiceID,
		"form_type":  r.FormType,
		r.FormType:   r.Fields,
	})
}

// createEnvelope covers both {id} and {request:{id}} response shapes.
type createEnvelope struct {
	ID      shared.ID `json:"id"`
	Request *struct {
		ID shared.ID `json:"id"`
	} `json:"request"`
}

func (e createEnvelope) requestID() string {
	if e.ID != "" {
		return string(e.ID)
	}
	if e.Request != nil {
		return string(e.Request.ID)
	}
	return ""
}

// decodeList decodes either a bare JSON array or an object with a "results"
// array into out.
func decodeList(data []byte, out interface{}) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, out)
	}
	var envelope struct {
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return err
	}
	if len(envelope.Results) == 0 || string(envelope.Results) == "null" {
		return nil
	}
	return json.Unmarshal(envelope.Results, out)
}

// errorMessage extracts the server's message from an error body.
func errorMessage(data []byte) string {
	var body map[string]interface{}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	for _, key := range []string{"error", "detail", "message"} {
		if v, ok := body[key].(string); ok && v != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
