package wizard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"assistance-gateway/internal/domain/catalog"
	"assistance-gateway/internal/domain/wizard"
	"assistance-gateway/internal/pkg/assistance"
	xerrors "assistance-gateway/internal/pkg/errors"

	"go.uber.org/zap"
)

const (
	autoApprovedMessage  = "Validation is not available for this service. The request was approved automatically."
	vehicleFailedMessage = "We could not validate the vehicle information. Please review it and try again."
	healthFailedMessage  = "We could not validate the health questionnaire. Please review it and try again."
	serviceFailedMessage = "We could not validate the service details. Please review them and try again."
)

// Fingerprint hashes the contents of the active category form.
func Fingerprint(sess *wizard.Session) (string, error) {
	form, err := sess.FormData.Form(sess.Branch.Kind)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(form)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(append([]byte(sess.Branch.Kind+":"), data...))
	return hex.EncodeToString(sum[:]), nil
}

// validate runs the validation round-trip for the active category form and
// records the result on the session. An APPROVED result for unchanged form
// contents is reused without calling the Assistance API.
func (s *WizardService) validate(ctx context.Context, sess *wizard.Session) (*wizard.ValidationResult, error) {
	fp, err := Fingerprint(sess)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint form: %w", err)
	}

	if prev := sess.Validation(); prev != nil && prev.Status == wizard.ValidationApproved && prev.Fingerprint == fp {
		s.logger.Debug("reusing approved validation",
			zap.String("session_id", sess.ID),
			zap.String("form_type", string(sess.Branch.Kind)),
		)
		return prev, nil
	}

	var (
		resp        *assistance.ValidationResponse
		callErr     error
		fallbackFor []int
		failedMsg   string
	)
	serviceID := sess.Service.ID

	switch sess.Branch.Validation {
	case wizard.ValidationVehicle:
		v := sess.FormData.Vehicle
		resp, callErr = s.upstream.ValidateVehicle(ctx, &assistance.VehicleValidationRequest{
			VehicleMake:         v.VehicleMake,
			VehicleModel:        v.VehicleModel,
			VehicleYear:         CoerceYear(string(v.VehicleYear)),
			VehiclePlate:        v.VehiclePlate,
			VehicleColor:        v.VehicleColor,
			IncidentType:        v.IncidentType,
			IncidentDescription: v.IncidentDescription,
			ServiceID:           serviceID,
		})
		fallbackFor = []int{http.StatusNotFound}
		failedMsg = vehicleFailedMessage
	case wizard.ValidationHealth:
		h := sess.FormData.Health
		resp, callErr = s.upstream.ValidateHealth(ctx, &assistance.HealthValidationRequest{
			Symptoms:               h.Symptoms,
			SymptomDuration:        h.SymptomDuration,
			PainLevel:              h.PainLevel,
			HasFever:               h.HasFever,
			HasBreathingDifficulty: h.HasBreathingDifficulty,
			ChronicConditions:      h.ChronicConditions,
			Allergies:              h.Allergies,
			CurrentMedications:     h.CurrentMedications,
			PatientAge:             h.PatientAge,
			ServiceID:              serviceID,
		})
		fallbackFor = []int{http.StatusNotFound}
		failedMsg = healthFailedMessage
	case wizard.ValidationService:
		fields, err := sess.FormData.Fields(sess.Branch.Kind)
		if err != nil {
			return nil, err
		}
		resp, callErr = s.upstream.ValidateService(ctx, &assistance.ServiceValidationRequest{
			ServiceID: serviceID,
			FormType:  string(sess.Branch.Kind),
			Fields:    fields,
		})
		fallbackFor = []int{http.StatusNotFound, http.StatusNotImplemented}
		failedMsg = serviceFailedMessage
	default:
		return nil, fmt.Errorf("%w: form %q has no validation", xerrors.ErrInvalidInput, sess.Branch.Kind)
	}

	result := &wizard.ValidationResult{
		Fingerprint: fp,
		ValidatedAt: s.now(),
	}

	switch {
	case callErr != nil && xerrors.IsStatus(callErr, fallbackFor...):
		result.Status = wizard.ValidationApproved
		result.AutoApproved = true
		result.Message = autoApprovedMessage
		s.logger.Info("validation endpoint unavailable, auto-approving",
			zap.String("session_id", sess.ID),
			zap.String("form_type", string(sess.Branch.Kind)),
			zap.Int("status", xerrors.StatusCode(callErr)),
		)
	case callErr != nil:
		result.Status = wizard.ValidationFailed
		result.Message = xerrors.ServerMessage(callErr)
		if result.Message == "" {
			result.Message = failedMsg
		}
		s.logger.Warn("validation round-trip failed",
			zap.String("session_id", sess.ID),
			zap.String("form_type", string(sess.Branch.Kind)),
			zap.Error(callErr),
		)
	default:
		result.Status = parseValidationStatus(resp.ValidationStatus)
		result.Message = resp.ValidationMessage
		result.ConfidenceScore = resp.ConfidenceScore
		result.AutoApproved = resp.AutoApproved
		if sess.Branch.Kind == catalog.FormHealth {
			result.UrgencyLevel = strings.ToUpper(strings.TrimSpace(resp.UrgencyLevel))
		}
		if result.Status == wizard.ValidationFailed && result.Message == "" {
			result.Message = failedMsg
		}
	}

	sess.RecordValidation(result)
	return result, nil
}

// parseValidationStatus maps the advisory status. Unknown values are treated
// as PENDING_REVIEW; only an explicit FAILED blocks the wizard.
func parseValidationStatus(s string) wizard.ValidationStatus {
	switch st := wizard.ValidationStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case wizard.ValidationApproved, wizard.ValidationFailed, wizard.ValidationPendingReview:
		return st
	}
	return wizard.ValidationPendingReview
}
