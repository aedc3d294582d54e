// internal/domain/wizard/entity.go
package wizard

import (
	"time"

	"assistance-gateway/internal/domain/catalog"
)

// ValidationStatus is the advisory outcome of a validation round-trip.
type ValidationStatus string

const (
	ValidationApproved      ValidationStatus = "APPROVED"
	ValidationPendingReview ValidationStatus = "PENDING_REVIEW"
	ValidationFailed        ValidationStatus = "FAILED"
)

// Passes reports whether the status lets the wizard advance.
func (s ValidationStatus) Passes() bool {
	return s == ValidationApproved || s == ValidationPendingReview
}

// ValidationResult is the outcome of validating one category form.
type ValidationResult struct {
	Status          ValidationStatus `json:"validation_status"`
	Message         string           `json:"validation_message,omitempty"`
	ConfidenceScore *float64         `json:"confidence_score,omitempty"`
	UrgencyLevel    string           `json:"urgency_level,omitempty"` // health only: LOW, MEDIUM, HIGH, CRITICAL
	AutoApproved    bool             `json:"auto_approved,omitempty"`
	// Fingerprint identifies the form contents that produced this result.
	Fingerprint string    `json:"fingerprint"`
	ValidatedAt time.Time `json:"validated_at"`
}

// Session is one run through the request wizard. It lives only until the
// request is submitted or the caller abandons it.
type Session struct {
	ID          string                                 `json:"id"`
	Owner       string                                 `json:"owner"`
	PlanType    catalog.PlanType                       `json:"plan_type,omitempty"`
	Service     *catalog.ServiceCatalogEntry           `json:"service,omitempty"`
	Branch      Branch                                 `json:"branch"`
	Step        Step                                   `json:"step"`
	FormData    FormData                               `json:"form_data"`
	Validations map[catalog.FormType]*ValidationResult `json:"validations,omitempty"`
	Visited     []Step                                 `json:"visited,omitempty"`
	LastError   string                                 `json:"last_error,omitempty"`
	RequestID   string                                 `json:"request_id,omitempty"`
	CreatedAt   time.Time                              `json:"created_at"`
	UpdatedAt   time.Time                              `json:"updated_at"`
}

// StepIndex is the 1-based number of the current step.
func (s *Session) StepIndex() int {
	return s.Branch.Index(s.Step)
}

// Validation returns the stored result for the active category form.
func (s *Session) Validation() *ValidationResult {
	if s.Validations == nil {
		return nil
	}
	return s.Validations[s.Branch.Kind]
}

func (s *Session) setValidation(kind catalog.FormType, r *ValidationResult) {
	if s.Validations == nil {
		s.Validations = make(map[catalog.FormType]*ValidationResult)
	}
	s.Validations[kind] = r
}

// RecordValidation stores r as the result for the active category form.
func (s *Session) RecordValidation(r *ValidationResult) {
	s.setValidation(s.Branch.Kind, r)
}

// Missing lists the required fields of the current step that are still empty.
func (s *Session) Missing() []string {
	switch s.Step {
	case StepSelectService:
		if s.Service == nil {
			return []string{"service_id"}
		}
	case StepLocation:
		return s.FormData.Location.Missing()
	case StepCategoryForm:
		form, err := s.FormData.Form(s.Branch.Kind)
		if err != nil {
			return []string{string(s.Branch.Kind)}
		}
		return form.Missing()
	case StepDetails:
		return s.FormData.Details.Missing()
	}
	return nil
}

// MoveTo sets the current step and records it in the traversal trail.
func (s *Session) MoveTo(step Step) {
	s.Step = step
	s.Visited = append(s.Visited, step)
}
