// internal/service/wizard/wizard_service.go
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"assistance-gateway/internal/domain/catalog"
	"assistance-gateway/internal/domain/request"
	"assistance-gateway/internal/domain/submission"
	"assistance-gateway/internal/domain/wizard"
	"assistance-gateway/internal/pkg/assistance"
	xerrors "assistance-gateway/internal/pkg/errors"
	"assistance-gateway/internal/pkg/geo"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// SessionStore persists wizard sessions and their operation lock.
type SessionStore interface {
	Get(ctx context.Context, id string) (*wizard.Session, error)
	Save(ctx context.Context, sess *wizard.Session) error
	Delete(ctx context.Context, id string) error
	Lock(ctx context.Context, id string) (func(), error)
}

// Upstream is the part of the Assistance API the wizard calls.
type Upstream interface {
	ValidateVehicle(ctx context.Context, req *assistance.VehicleValidationRequest) (*assistance.ValidationResponse, error)
	ValidateHealth(ctx context.Context, req *assistance.HealthValidationRequest) (*assistance.ValidationResponse, error)
	ValidateService(ctx context.Context, req *assistance.ServiceValidationRequest) (*assistance.ValidationResponse, error)
	CreateRequest(ctx context.Context, payload *request.ServiceRequest) (*request.CreateResult, error)
}

// PlanChecker resolves which plan types the caller holds.
type PlanChecker interface {
	ActivePlans(ctx context.Context) (map[catalog.PlanType]bool, error)
}

// Ledger records successful submissions.
type Ledger interface {
	Create(ctx context.Context, rec *submission.Record) error
}

// GenericSubmitError is shown when the Assistance API gives no message.
const GenericSubmitError = "Unable to create the service request. Please try again."

const manualEntryMessage = "We could not determine your address. Please enter it manually."

// SubmitError is returned when the Assistance API rejected a submission. The
// session stays at CONFIRM with its data intact.
type SubmitError struct {
	Message string
	Err     error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("submission failed: %s", e.Message)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// AdvanceOutcome describes the result of a forward move. Reason is the
// sentinel for the guard that blocked it.
type AdvanceOutcome struct {
	Session    *wizard.Session
	Blocked    bool
	Reason     error
	Missing    []string
	Validation *wizard.ValidationResult
	Message    string
}

// LocateOutcome reports the session after a geocoding attempt.
type LocateOutcome struct {
	Session             *wizard.Session
	ManualEntryRequired bool
	Message             string
}

type WizardService struct {
	store    SessionStore
	catalog  *catalog.Catalog
	plans    PlanChecker
	upstream Upstream
	geocoder geo.Geocoder
	ledger   Ledger
	logger   *zap.Logger
	now      func() time.Time
}

// NewWizardService builds the service. ledger may be nil.
func NewWizardService(
	store SessionStore,
	cat *catalog.Catalog,
	plans PlanChecker,
	upstream Upstream,
	geocoder geo.Geocoder,
	ledger Ledger,
	logger *zap.Logger,
) *WizardService {
	return &WizardService{
		store:    store,
		catalog:  cat,
		plans:    plans,
		upstream: upstream,
		geocoder: geocoder,
		ledger:   ledger,
		logger:   logger,
		now:      time.Now,
	}
}

// Start opens a new wizard session for owner.
func (s *WizardService) Start(ctx context.Context, owner string, req *wizard.StartSessionRequest) (*wizard.Session, error) {
	if req.PlanType != "" && !req.PlanType.Valid() {
		return nil, fmt.Errorf("%w: unknown plan type %q", xerrors.ErrInvalidInput, req.PlanType)
	}

	now := s.now()
	sess := &wizard.Session{
		ID:        ulid.Make().String(),
		Owner:     owner,
		PlanType:  req.PlanType,
		CreatedAt: now,
		UpdatedAt: now,
	}
	sess.MoveTo(wizard.StepSelectService)

	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	s.logger.Info("wizard session started",
		zap.String("session_id", sess.ID),
		zap.String("owner", owner),
	)
	return sess, nil
}

// Get returns the caller's session.
func (s *WizardService) Get(ctx context.Context, owner, id string) (*wizard.Session, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Owner != owner {
		return nil, xerrors.ErrNotFound
	}
	return sess, nil
}

// Discard abandons the session.
func (s *WizardService) Discard(ctx context.Context, owner, id string) error {
	if _, err := s.Get(ctx, owner, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("wizard session discarded", zap.String("session_id", id))
	return nil
}

// Catalog lists the services of a plan type, flagged with whether the caller
// holds a matching subscription. Without a plan type the session's is used.
// It only reads the session and never takes the session lock.
func (s *WizardService) Catalog(ctx context.Context, owner, id string, plan catalog.PlanType) (*wizard.CatalogResponse, error) {
	sess, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if plan == "" {
		plan = sess.PlanType
	}
	if !plan.Valid() {
		return nil, fmt.Errorf("%w: plan_type is required", xerrors.ErrInvalidInput)
	}

	held, err := s.plans.ActivePlans(ctx)
	if err != nil {
		return nil, err
	}

	out := &wizard.CatalogResponse{
		PlanType:  plan,
		HasPlan:   held[plan],
		PlanTypes: s.catalog.PlanTypes(),
	}
	for _, e := range s.catalog.ByPlan(plan) {
		out.Services = append(out.Services, wizard.CatalogItem{ServiceCatalogEntry: e, Eligible: held[plan]})
	}
	return out, nil
}

// SelectService binds a catalog service to the session and computes its
// branch. A session keeps its first service for its whole life.
func (s *WizardService) SelectService(ctx context.Context, owner, id string, req *wizard.SelectServiceRequest) (*wizard.Session, error) {
	return s.mutateSession(ctx, owner, id, func(sess *wizard.Session) error {
		if sess.Step != wizard.StepSelectService {
			return xerrors.ErrWrongStep
		}

		entry, ok := s.catalog.Get(req.ServiceID)
		if !ok {
			return fmt.Errorf("%w: unknown service %q", xerrors.ErrNotFound, req.ServiceID)
		}
		if entry.PlanType != req.PlanType {
			return fmt.Errorf("%w: service %s is not part of plan %s", xerrors.ErrInvalidInput, entry.ID, req.PlanType)
		}
		if sess.Service != nil {
			if sess.Service.ID == entry.ID {
				return nil
			}
			return xerrors.ErrServiceLocked
		}

		held, err := s.plans.ActivePlans(ctx)
		if err != nil {
			return err
		}
		if !held[entry.PlanType] {
			return xerrors.ErrNoActivePlan
		}

		sess.PlanType = entry.PlanType
		sess.Service = &entry
		sess.Branch = wizard.BranchFor(entry)

		s.logger.Info("wizard service selected",
			zap.String("session_id", sess.ID),
			zap.String("service_id", entry.ID),
			zap.Bool("needs_location", sess.Branch.NeedsLocation),
			zap.Bool("needs_category_form", sess.Branch.NeedsCategoryForm),
		)
		return nil
	})
}

// SetLocation stores a manually entered address.
func (s *WizardService) SetLocation(ctx context.Context, owner, id string, req *wizard.SetLocationRequest) (*wizard.Session, error) {
	return s.mutateSession(ctx, owner, id, func(sess *wizard.Session) error {
		if sess.Step != wizard.StepLocation {
			return xerrors.ErrWrongStep
		}

		loc := &sess.FormData.Location
		loc.Address = strings.TrimSpace(req.Address)
		loc.City = strings.TrimSpace(req.City)
		loc.State = strings.TrimSpace(req.State)
		loc.Source = "manual"
		if req.Latitude != nil && req.Longitude != nil {
			loc.Latitude = roundedPtr(*req.Latitude)
			loc.Longitude = roundedPtr(*req.Longitude)
		}
		return nil
	})
}

// Locate reverse-geocodes device coordinates. A geocoding failure keeps the
// coordinates and asks for manual entry; it never fails the call.
func (s *WizardService) Locate(ctx context.Context, owner, id string, req *wizard.LocateRequest) (*LocateOutcome, error) {
	if req.Latitude == nil || req.Longitude == nil {
		return nil, fmt.Errorf("%w: latitude and longitude are required", xerrors.ErrInvalidInput)
	}
	lat, lng := *req.Latitude, *req.Longitude

	out := &LocateOutcome{}
	sess, err := s.mutateSession(ctx, owner, id, func(sess *wizard.Session) error {
		if sess.Step != wizard.StepLocation {
			return xerrors.ErrWrongStep
		}

		loc := &sess.FormData.Location
		loc.Latitude = roundedPtr(lat)
		loc.Longitude = roundedPtr(lng)

		res, err := s.geocoder.ReverseGeocode(ctx, lat, lng)
		if err != nil {
			s.logger.Warn("reverse geocoding failed",
				zap.String("session_id", sess.ID),
				zap.Error(err),
			)
			out.ManualEntryRequired = true
			out.Message = manualEntryMessage
			return nil
		}
		applyGeocode(loc, res, "gps")
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.Session = sess
	return out, nil
}

// LookupAddress resolves a typed address. Failures ask for manual entry.
func (s *WizardService) LookupAddress(ctx context.Context, owner, id string, req *wizard.LookupAddressRequest) (*LocateOutcome, error) {
	out := &LocateOutcome{}
	sess, err := s.mutateSession(ctx, owner, id, func(sess *wizard.Session) error {
		if sess.Step != wizard.StepLocation {
			return xerrors.ErrWrongStep
		}

		res, err := s.geocoder.Geocode(ctx, strings.TrimSpace(req.Address))
		if err != nil {
			s.logger.Warn("address lookup failed",
				zap.String("session_id", sess.ID),
				zap.Error(err),
			)
			out.ManualEntryRequired = true
			out.Message = manualEntryMessage
			return nil
		}
		applyGeocode(&sess.FormData.Location, res, "lookup")
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.Session = sess
	return out, nil
}

// UpdateForm merges partial fields into the active category form.
func (s *WizardService) UpdateForm(ctx context.Context, owner, id string, req wizard.UpdateFormRequest) (*wizard.Session, error) {
	return s.mutateSession(ctx, owner, id, func(sess *wizard.Session) error {
		if sess.Step != wizard.StepCategoryForm {
			return xerrors.ErrWrongStep
		}
		if len(req) == 0 {
			return fmt.Errorf("%w: empty form update", xerrors.ErrInvalidInput)
		}
		for kind, raw := range req {
			if kind != sess.Branch.Kind {
				return fmt.Errorf("%w: session uses the %q form, not %q", xerrors.ErrInvalidInput, sess.Branch.Kind, kind)
			}
			if err := sess.FormData.Apply(kind, raw); err != nil {
				return fmt.Errorf("%w: %v", xerrors.ErrInvalidInput, err)
			}
		}
		return nil
	})
}

// UpdateDetails sets description, phone and priority.
func (s *WizardService) UpdateDetails(ctx context.Context, owner, id string, req *wizard.UpdateDetailsRequest) (*wizard.Session, error) {
	return s.mutateSession(ctx, owner, id, func(sess *wizard.Session) error {
		if sess.Step != wizard.StepDetails {
			return xerrors.ErrWrongStep
		}

		d := &sess.FormData.Details
		if req.Description != nil {
			d.Description = strings.TrimSpace(*req.Description)
		}
		if req.Phone != nil {
			d.Phone = strings.TrimSpace(*req.Phone)
		}
		if req.Priority != nil {
			p := request.Priority(strings.ToUpper(strings.TrimSpace(*req.Priority)))
			if p != "" && !p.Valid() {
				return fmt.Errorf("%w: priority must be LOW, MEDIUM or HIGH", xerrors.ErrInvalidInput)
			}
			d.Priority = string(p)
		}
		return nil
	})
}

// Advance moves to the next step of the branch once the current step's guard
// holds. Leaving CATEGORY_FORM runs the validation round-trip.
func (s *WizardService) Advance(ctx context.Context, owner, id string) (*AdvanceOutcome, error) {
	out := &AdvanceOutcome{}
	sess, err := s.mutateSession(ctx, owner, id, func(sess *wizard.Session) error {
		switch sess.Step {
		case wizard.StepConfirm, wizard.StepSubmitted:
			return xerrors.ErrWrongStep
		}

		if missing := sess.Missing(); len(missing) > 0 {
			out.Blocked = true
			out.Reason = xerrors.ErrGuardFailed
			out.Missing = missing
			out.Message = "Please complete the required fields."
			return nil
		}

		switch sess.Step {
		case wizard.StepSelectService:
			held, err := s.plans.ActivePlans(ctx)
			if err != nil {
				return err
			}
			if !held[sess.Service.PlanType] {
				out.Blocked = true
				out.Reason = xerrors.ErrNoActivePlan
				out.Message = xerrors.ErrNoActivePlan.Error()
				return nil
			}
		case wizard.StepCategoryForm:
			result, err := s.validate(ctx, sess)
			if err != nil {
				return err
			}
			out.Validation = result
			if !result.Status.Passes() {
				out.Blocked = true
				out.Reason = xerrors.ErrValidationFailed
				out.Message = result.Message
				return nil
			}
			out.Message = result.Message
		case wizard.StepDetails:
			if sess.FormData.Details.Priority == "" {
				sess.FormData.Details.Priority = string(request.PriorityMedium)
			}
		}

		next, ok := sess.Branch.Next(sess.Step)
		if !ok {
			return xerrors.ErrWrongStep
		}
		sess.MoveTo(next)
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.Session = sess
	return out, nil
}

// Back returns to the previous step of the branch. Form data is kept.
func (s *WizardService) Back(ctx context.Context, owner, id string) (*wizard.Session, error) {
	return s.mutateSession(ctx, owner, id, func(sess *wizard.Session) error {
		if sess.Step == wizard.StepSubmitted {
			return xerrors.ErrWrongStep
		}
		prev, ok := sess.Branch.Prev(sess.Step)
		if !ok {
			return xerrors.ErrWrongStep
		}
		sess.MoveTo(prev)
		return nil
	})
}

// Submit assembles and sends the service request. On success the session is
// destroyed and returned in its SUBMITTED state. On failure it stays at
// CONFIRM with LastError set and a *SubmitError is returned with it.
func (s *WizardService) Submit(ctx context.Context, owner, id string) (*wizard.Session, error) {
	release, err := s.store.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	sess, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if sess.Step != wizard.StepConfirm {
		return nil, xerrors.ErrWrongStep
	}
	if missing := readinessGaps(sess); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", xerrors.ErrGuardFailed, strings.Join(missing, ", "))
	}

	payload, err := AssemblePayload(sess)
	if err != nil {
		return nil, err
	}

	res, err := s.upstream.CreateRequest(ctx, payload)
	if err != nil {
		msg := xerrors.ServerMessage(err)
		if msg == "" {
			msg = GenericSubmitError
		}
		sess.LastError = msg
		sess.UpdatedAt = s.now()
		if saveErr := s.store.Save(ctx, sess); saveErr != nil {
			s.logger.Error("failed to save session after submit failure", zap.Error(saveErr))
		}
		s.logger.Warn("service request submission failed",
			zap.String("session_id", sess.ID),
			zap.String("service_id", payload.ServiceID),
			zap.Error(err),
		)
		return sess, &SubmitError{Message: msg, Err: err}
	}

	sess.RequestID = res.ID
	sess.LastError = ""
	sess.MoveTo(wizard.StepSubmitted)
	sess.UpdatedAt = s.now()

	s.record(ctx, sess, payload)

	if err := s.store.Delete(ctx, sess.ID); err != nil {
		s.logger.Warn("failed to delete submitted session", zap.String("session_id", sess.ID), zap.Error(err))
	}
	s.logger.Info("service request submitted",
		zap.String("session_id", sess.ID),
		zap.String("request_id", res.ID),
		zap.String("service_id", payload.ServiceID),
	)
	return sess, nil
}

func (s *WizardService) record(ctx context.Context, sess *wizard.Session, payload *request.ServiceRequest) {
	if s.ledger == nil {
		return
	}
	raw, err := marshalPayload(payload)
	if err != nil {
		s.logger.Warn("failed to encode ledger payload", zap.Error(err))
	}

	steps := make([]string, 0, len(sess.Visited))
	for _, st := range sess.Visited {
		steps = append(steps, string(st))
	}
	rec := &submission.Record{
		SessionID: sess.ID,
		RequestID: sess.RequestID,
		Owner:     sess.Owner,
		ServiceID: sess.Service.ID,
		PlanType:  string(sess.PlanType),
		FormType:  string(sess.Branch.Kind),
		Steps:     steps,
		Payload:   raw,
	}
	if err := s.ledger.Create(ctx, rec); err != nil {
		s.logger.Warn("failed to record submission",
			zap.String("session_id", sess.ID),
			zap.String("request_id", sess.RequestID),
			zap.Error(err),
		)
	}
}

// mutateSession runs fn on the locked, freshly loaded session and saves the
// result.
func (s *WizardService) mutateSession(ctx context.Context, owner, id string, fn func(sess *wizard.Session) error) (*wizard.Session, error) {
	release, err := s.store.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	sess, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}

	sess.LastError = ""
	sess.UpdatedAt = s.now()
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// readinessGaps re-checks every guard of the branch before submission.
func readinessGaps(sess *wizard.Session) []string {
	if sess.Service == nil {
		return []string{"service_id"}
	}
	var gaps []string
	if sess.Branch.Has(wizard.StepLocation) {
		gaps = append(gaps, sess.FormData.Location.Missing()...)
	}
	if sess.Branch.Has(wizard.StepCategoryForm) {
		form, err := sess.FormData.Form(sess.Branch.Kind)
		if err != nil {
			return []string{string(sess.Branch.Kind)}
		}
		gaps = append(gaps, form.Missing()...)
		if v := sess.Validation(); v == nil || !v.Status.Passes() {
			gaps = append(gaps, "validation")
		}
	}
	return append(gaps, sess.FormData.Details.Missing()...)
}

func applyGeocode(loc *wizard.LocationForm, res *geo.Result, source string) {
	loc.Address = res.FormattedAddress
	if res.City != "" {
		loc.City = res.City
	}
	if res.State != "" {
		loc.State = res.State
	}
	loc.Latitude = roundedPtr(res.Latitude)
	loc.Longitude = roundedPtr(res.Longitude)
	loc.Source = source
}

func roundedPtr(v float64) *float64 {
	r := geo.RoundCoordinate(v)
	return &r
}

// IsSubmitError reports whether err is a rejected submission.
func IsSubmitError(err error) (*SubmitError, bool) {
	var se *SubmitError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
