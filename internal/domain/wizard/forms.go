// internal/domain/wizard/forms.go
package wizard

import (
	"encoding/json"
	"fmt"
	"strings"

	"assistance-gateway/internal/domain/catalog"
	"assistance-gateway/internal/domain/shared"
)

// CategoryForm is the detail sub-form of one form type.
type CategoryForm interface {
	// Missing lists the required fields that are still empty.
	Missing() []string
}

type VehicleForm struct {
	VehicleMake         string `json:"vehicle_make"`
	VehicleModel        string `json:"vehicle_model"`
	VehicleYear         NumericText `json:"vehicle_year"`
	VehiclePlate        string      `json:"vehicle_plate"`
	VehicleColor        string      `json:"vehicle_color"`
	IncidentType        string      `json:"incident_type"`
	IncidentDescription string      `json:"incident_description"`
}

// NumericText is free text that also accepts a bare JSON number, so
// "vehicle_year": 2019 and "vehicle_year": "2019" decode alike.
type NumericText string

func (t *NumericText) UnmarshalJSON(data []byte) error {
	var id shared.ID
	if err := id.UnmarshalJSON(data); err != nil {
		return err
	}
	*t = NumericText(id)
	return nil
}

func (f VehicleForm) Missing() []string {
	return missing(
		"vehicle_make", f.VehicleMake,
		"vehicle_model", f.VehicleModel,
		"vehicle_plate", f.VehiclePlate,
		"incident_type", f.IncidentType,
	)
}

type HealthForm struct {
	Symptoms               string `json:"symptoms"`
	SymptomDuration        string `json:"symptom_duration"`
	PainLevel              *int   `json:"pain_level,omitempty"`
	HasFever               bool   `json:"has_fever"`
	HasBreathingDifficulty bool   `json:"has_breathing_difficulty"`
	ChronicConditions      string `json:"chronic_conditions"`
	Allergies              string `json:"allergies"`
	CurrentMedications     string `json:"current_medications"`
	PatientAge             string `json:"patient_age"`
}

func (f HealthForm) Missing() []string {
	return missing(
		"symptoms", f.Symptoms,
		"symptom_duration", f.SymptomDuration,
	)
}

type TaxiForm struct {
	PickupAddress      string `json:"pickup_address"`
	DestinationAddress string `json:"destination_address"`
	Passengers         *int   `json:"passengers,omitempty"`
	Notes              string `json:"notes"`
}

func (f TaxiForm) Missing() []string {
	return missing(
		"pickup_address", f.PickupAddress,
		"destination_address", f.DestinationAddress,
	)
}

type LegalForm struct {
	LegalIssueType  string `json:"legal_issue_type"`
	CaseDescription string `json:"case_description"`
	IncidentDate    string `json:"incident_date"`
	PoliceReport    bool   `json:"police_report"`
}

func (f LegalForm) Missing() []string {
	return missing(
		"legal_issue_type", f.LegalIssueType,
		"case_description", f.CaseDescription,
	)
}

type GenericForm struct {
	ServiceDetails string `json:"service_details"`
	PreferredDate  string `json:"preferred_date"`
	Notes          string `json:"notes"`
}

func (f GenericForm) Missing() []string {
	return missing("service_details", f.ServiceDetails)
}

type ConsultationForm struct {
	Specialty          string `json:"specialty"`
	ConsultationReason string `json:"consultation_reason"`
	PreferredDate      string `json:"preferred_date"`
	PreferredTime      string `json:"preferred_time"`
}

func (f ConsultationForm) Missing() []string {
	return missing(
		"specialty", f.Specialty,
		"consultation_reason", f.ConsultationReason,
	)
}

type VideoConsultationForm struct {
	Specialty          string `json:"specialty"`
	ConsultationReason string `json:"consultation_reason"`
	PreferredSchedule  string `json:"preferred_schedule"`
	Platform           string `json:"platform"`
}

func (f VideoConsultationForm) Missing() []string {
	return missing(
		"specialty", f.Specialty,
		"consultation_reason", f.ConsultationReason,
		"preferred_schedule", f.PreferredSchedule,
	)
}

type LabExamForm struct {
	ExamType        string `json:"exam_type"`
	PreferredDate   string `json:"preferred_date"`
	Fasting         bool   `json:"fasting"`
	PrescriptionRef string `json:"prescription_ref"`
}

func (f LabExamForm) Missing() []string {
	return missing(
		"exam_type", f.ExamType,
		"preferred_date", f.PreferredDate,
	)
}

type MedicationForm struct {
	MedicationName  string `json:"medication_name"`
	Quantity        string `json:"quantity"`
	PrescriptionRef string `json:"prescription_ref"`
	DeliveryAddress string `json:"delivery_address"`
}

func (f MedicationForm) Missing() []string {
	return missing(
		"medication_name", f.MedicationName,
		"quantity", f.Quantity,
	)
}

type DeliveryForm struct {
	PickupAddress   string `json:"pickup_address"`
	DeliveryAddress string `json:"delivery_address"`
	ItemDescription string `json:"item_description"`
	Notes           string `json:"notes"`
}

func (f DeliveryForm) Missing() []string {
	return missing(
		"pickup_address", f.PickupAddress,
		"delivery_address", f.DeliveryAddress,
		"item_description", f.ItemDescription,
	)
}

type LocationForm struct {
	Address   string   `json:"location_address"`
	City      string   `json:"location_city"`
	State     string   `json:"location_state,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Source    string   `json:"source,omitempty"` // gps, manual, lookup
}

func (f LocationForm) Missing() []string {
	return missing("location_address", f.Address)
}

type DetailsForm struct {
	Description string `json:"description"`
	Phone       string `json:"phone"`
	Priority    string `json:"priority"`
}

func (f DetailsForm) Missing() []string {
	return missing(
		"description", f.Description,
		"phone", f.Phone,
	)
}

// FormData accumulates every sub-form for the session. Navigating back never
// clears it.
type FormData struct {
	Location          LocationForm          `json:"location"`
	Details           DetailsForm           `json:"details"`
	Vehicle           VehicleForm           `json:"vehicle"`
	Health            HealthForm            `json:"health"`
	Taxi              TaxiForm              `json:"taxi"`
	Legal             LegalForm             `json:"legal"`
	Generic           GenericForm           `json:"generic"`
	Consultation      ConsultationForm      `json:"consultation"`
	VideoConsultation VideoConsultationForm `json:"video_consultation"`
	LabExam           LabExamForm           `json:"lab_exam"`
	Medication        MedicationForm        `json:"medication"`
	Delivery          DeliveryForm          `json:"delivery"`
}

// Form returns a pointer to the sub-form for kind.
func (d *FormData) Form(kind catalog.FormType) (CategoryForm, error) {
	switch kind {
	case catalog.FormVehicle:
		return &d.Vehicle, nil
	case catalog.FormHealth:
		return &d.Health, nil
	case catalog.FormTaxi:
		return &d.Taxi, nil
	case catalog.FormLegal:
		return &d.Legal, nil
	case catalog.FormGeneric:
		return &d.Generic, nil
	case catalog.FormConsultation:
		return &d.Consultation, nil
	case catalog.FormVideoConsultation:
		return &d.VideoConsultation, nil
	case catalog.FormLabExam:
		return &d.LabExam, nil
	case catalog.FormMedication:
		return &d.Medication, nil
	case catalog.FormDelivery:
		return &d.Delivery, nil
	}
	return nil, fmt.Errorf("no category form for form type %q", kind)
}

// Apply merges a partial JSON object into the sub-form for kind. Keys that are
// absent from raw keep their current values.
func (d *FormData) Apply(kind catalog.FormType, raw json.RawMessage) error {
	form, err := d.Form(kind)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, form); err != nil {
		return fmt.Errorf("invalid %s form: %w", kind, err)
	}
	return nil
}

// Fields returns the sub-form for kind as a plain JSON object.
func (d *FormData) Fields(kind catalog.FormType) (map[string]interface{}, error) {
	form, err := d.Form(kind)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(form)
	if err != nil {
		return nil, err
	}
	out := map[string]interface{}{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func missing(pairs ...string) []string {
	var out []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			out = append(out, pairs[i])
		}
	}
	return out
}
