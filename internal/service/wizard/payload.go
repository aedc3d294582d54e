package wizard

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"assistance-gateway/internal/domain/catalog"
	"assistance-gateway/internal/domain/request"
	"assistance-gateway/internal/domain/wizard"
	"assistance-gateway/internal/pkg/geo"
)

// AssemblePayload builds the submission payload from a session. The result
// is never modified once it has been sent.
func AssemblePayload(sess *wizard.Session) (*request.ServiceRequest, error) {
	if sess.Service == nil {
		return nil, fmt.Errorf("session %s has no selected service", sess.ID)
	}
	svc := sess.Service
	fd := sess.FormData

	priority := request.Priority(fd.Details.Priority)
	if !priority.Valid() {
		priority = request.PriorityMedium
	}

	p := &request.ServiceRequest{
		Title:          svc.Name,
		Description:    fd.Details.Description,
		Phone:          fd.Details.Phone,
		Priority:       priority,
		ServiceID:      svc.ID,
		PlanType:       string(svc.PlanType),
		LimitPerYear:   svc.LimitPerYear,
		CoverageAmount: svc.CoverageAmount,
		MawdyService: request.MawdyService{
			ServiceID:   svc.ID,
			ServiceName: svc.Name,
			PlanType:    string(svc.PlanType),
			ServiceFlow: string(svc.ServiceFlow),
			FormType:    string(svc.FormType),
		},
	}

	if sess.Branch.NeedsLocation || fd.Location.Address != "" {
		p.LocationAddress = fd.Location.Address
		p.LocationCity = fd.Location.City
		if fd.Location.Latitude != nil && fd.Location.Longitude != nil {
			lat := geo.RoundCoordinate(*fd.Location.Latitude)
			lng := geo.RoundCoordinate(*fd.Location.Longitude)
			p.LocationLatitude = &lat
			p.LocationLongitude = &lng
		}
	}

	validation := sess.Validation()
	status := func() string {
		if validation == nil {
			return ""
		}
		return string(validation.Status)
	}

	switch sess.Branch.Kind {
	case catalog.FormVehicle:
		v := fd.Vehicle
		p.VehicleInfo = &request.VehicleInfo{
			Make:         v.VehicleMake,
			Model:        v.VehicleModel,
			Year:         CoerceYear(string(v.VehicleYear)),
			Plate:        v.VehiclePlate,
			Color:        v.VehicleColor,
			IncidentType: v.IncidentType,
			Validation:   status(),
		}
		if v.IncidentDescription != "" && p.Description == "" {
			p.Description = v.IncidentDescription
		}
	case catalog.FormHealth:
		h := fd.Health
		p.HealthInfo = &request.HealthInfo{
			Symptoms:           h.Symptoms,
			SymptomDuration:    h.SymptomDuration,
			PainLevel:          h.PainLevel,
			HasFever:           h.HasFever,
			HasBreathing:       h.HasBreathingDifficulty,
			ChronicDisease:     h.ChronicConditions,
			Allergies:          h.Allergies,
			CurrentMedications: h.CurrentMedications,
			PatientAge:         h.PatientAge,
			Validation:         status(),
		}
		if validation != nil {
			p.HealthInfo.UrgencyLevel = validation.UrgencyLevel
		}
	case catalog.FormNone:
	default:
		fields, err := fd.Fields(sess.Branch.Kind)
		if err != nil {
			return nil, err
		}
		p.ServiceForm = map[string]interface{}{string(sess.Branch.Kind): fields}
		if validation != nil {
			p.ServiceValidation = &request.ServiceValidation{
				FormType:          string(sess.Branch.Kind),
				ValidationStatus:  string(validation.Status),
				ValidationMessage: validation.Message,
				AutoApproved:      validation.AutoApproved,
			}
		}
	}

	return p, nil
}

// CoerceYear turns a free-text vehicle year into an integer, or nil when it
// is empty or not a number.
func CoerceYear(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &y
}

func marshalPayload(p *request.ServiceRequest) (json.RawMessage, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return data, nil
}
