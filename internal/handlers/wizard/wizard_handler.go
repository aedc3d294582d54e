// internal/handlers/wizard/wizard_handler.go
package wizard

import (
	"errors"
	"io"
	"net/http"

	"assistance-gateway/internal/domain/catalog"
	"assistance-gateway/internal/domain/request"
	wstypes "assistance-gateway/internal/domain/websocket"
	"assistance-gateway/internal/domain/wizard"
	"assistance-gateway/internal/middleware"
	"assistance-gateway/internal/pkg/response"
	service "assistance-gateway/internal/service/wizard"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Notifier pushes request lifecycle events to the owner's open connections.
type Notifier interface {
	SendToOwner(owner string, msg *wstypes.WSMessage)
}

type WizardHandler struct {
	wizardService *service.WizardService
	notifier      Notifier
	logger        *zap.Logger
}

// NewWizardHandler builds the handler. notifier may be nil.
func NewWizardHandler(wizardService *service.WizardService, notifier Notifier, logger *zap.Logger) *WizardHandler {
	return &WizardHandler{
		wizardService: wizardService,
		notifier:      notifier,
		logger:        logger,
	}
}

// TrackingPath is where the client goes once a request exists.
func TrackingPath(requestID string) string {
	return "/api/v1/requests/" + requestID + "/tracking"
}

// StartSession opens a new wizard session
func (h *WizardHandler) StartSession(c *gin.Context) {
	owner := middleware.MustGetOwner(c)

	var req wizard.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	sess, err := h.wizardService.Start(c.Request.Context(), owner, &req)
	if err != nil {
		response.FromError(c, "failed to start session", err)
		return
	}

	response.Success(c, http.StatusCreated, "session started", service.View(sess))
}

// GetSession returns the session view
func (h *WizardHandler) GetSession(c *gin.Context) {
	sess, err := h.wizardService.Get(c.Request.Context(), middleware.MustGetOwner(c), c.Param("id"))
	if err != nil {
		response.FromError(c, "session not found", err)
		return
	}
	response.Success(c, http.StatusOK, "session retrieved", service.View(sess))
}

// DiscardSession abandons the session
func (h *WizardHandler) DiscardSession(c *gin.Context) {
	if err := h.wizardService.Discard(c.Request.Context(), middleware.MustGetOwner(c), c.Param("id")); err != nil {
		response.FromError(c, "failed to discard session", err)
		return
	}
	response.Success(c, http.StatusOK, "session discarded", nil)
}

// GetCatalog lists the services of a plan type with the caller's eligibility
func (h *WizardHandler) GetCatalog(c *gin.Context) {
	plan := catalog.PlanType(c.Query("plan_type"))

	resp, err := h.wizardService.Catalog(c.Request.Context(), middleware.MustGetOwner(c), c.Param("id"), plan)
	if err != nil {
		response.FromError(c, "failed to load catalog", err)
		return
	}
	response.Success(c, http.StatusOK, "catalog retrieved", resp)
}

// SelectService picks the service for the session
func (h *WizardHandler) SelectService(c *gin.Context) {
	var req wizard.SelectServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	sess, err := h.wizardService.SelectService(c.Request.Context(), middleware.MustGetOwner(c), c.Param("id"), &req)
	if err != nil {
		response.FromError(c, "failed to select service", err)
		return
	}
	response.Success(c, http.StatusOK, "service selected", service.View(sess))
}

// SetLocation stores a manually entered location
func (h *WizardHandler) SetLocation(c *gin.Context) {
	var req wizard.SetLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	sess, err := h.wizardService.SetLocation(c.Request.Context(), middleware.MustGetOwner(c), c.Param("id"), &req)
	if err != nil {
		response.FromError(c, "failed to set location", err)
		return
	}
	response.Success(c, http.StatusOK, "location updated", service.View(sess))
}

// Locate reverse-geocodes the device position into the location form
func (h *WizardHandler) Locate(c *gin.Context) {
	var req wizard.LocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	out, err := h.wizardService.Locate(c.Request.Context(), middleware.MustGetOwner(c), c.Param("id"), &req)
	if err != nil {
		response.FromError(c, "failed to locate", err)
		return
	}
	response.Success(c, http.StatusOK, "location resolved", locateResponse(out))
}

// LookupAddress forward-geocodes a typed address into the location form
func (h *WizardHandler) LookupAddress(c *gin.Context) {
	var req wizard.LookupAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	out, err := h.wizardService.LookupAddress(c.Request.Context(), middleware.MustGetOwner(c), c.Param("id"), &req)
	if err != nil {
		response.FromError(c, "failed to look up address", err)
		return
	}
	response.Success(c, http.StatusOK, "address resolved", locateResponse(out))
}

// UpdateForm merges fields into the category form
func (h *WizardHandler) UpdateForm(c *gin.Context) {
	var req wizard.UpdateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	sess, err := h.wizardService.UpdateForm(c.Request.Context(), middleware.MustGetOwner(c), c.Param("id"), req)
	if err != nil {
		response.FromError(c, "failed to update form", err)
		return
	}
	response.Success(c, http.StatusOK, "form updated", service.View(sess))
}

// UpdateDetails merges the request details
func (h *WizardHandler) UpdateDetails(c *gin.Context) {
	var req wizard.UpdateDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	sess, err := h.wizardService.UpdateDetails(c.Request.Context(), middleware.MustGetOwner(c), c.Param("id"), &req)
	if err != nil {
		response.FromError(c, "failed to update details", err)
		return
	}
	response.Success(c, http.StatusOK, "details updated", service.View(sess))
}

// Advance moves the session forward when the current step is complete
func (h *WizardHandler) Advance(c *gin.Context) {
	out, err := h.wizardService.Advance(c.Request.Context(), middleware.MustGetOwner(c), c.Param("id"))
	if err != nil {
		response.FromError(c, "failed to advance", err)
		return
	}

	resp := wizard.AdvanceResponse{
		Session: service.View(out.Session),
		Blocked: out.Blocked,
		Missing: out.Missing,
		Result:  out.Validation,
		Message: out.Message,
	}
	if out.Blocked {
		response.Error(c, response.StatusFor(out.Reason), out.Message, out.Reason, resp)
		return
	}
	response.Success(c, http.StatusOK, "step completed", resp)
}

// Back returns to the previous step
func (h *WizardHandler) Back(c *gin.Context) {
	sess, err := h.wizardService.Back(c.Request.Context(), middleware.MustGetOwner(c), c.Param("id"))
	if err != nil {
		response.FromError(c, "failed to go back", err)
		return
	}
	response.Success(c, http.StatusOK, "moved back", wizard.AdvanceResponse{Session: service.View(sess)})
}

// Submit creates the service request
func (h *WizardHandler) Submit(c *gin.Context) {
	owner := middleware.MustGetOwner(c)

	sess, err := h.wizardService.Submit(c.Request.Context(), owner, c.Param("id"))
	if se, ok := service.IsSubmitError(err); ok {
		status := response.StatusFor(se.Err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		response.Error(c, status, se.Message, err, service.View(sess))
		return
	}
	if err != nil {
		response.FromError(c, "failed to submit request", err)
		return
	}

	path := TrackingPath(sess.RequestID)
	if h.notifier != nil {
		h.notifier.SendToOwner(owner, wstypes.NewMessage(wstypes.EventTypeRequestCreated, wstypes.RequestEventData{
			RequestID:    sess.RequestID,
			Status:       request.StatusPending,
			TrackingPath: path,
		}))
	}

	response.Success(c, http.StatusCreated, "service request created", wizard.SubmitResponse{
		RequestID:    sess.RequestID,
		TrackingPath: path,
	})
}

func locateResponse(out *service.LocateOutcome) wizard.LocateResponse {
	return wizard.LocateResponse{
		Session:             service.View(out.Session),
		ManualEntryRequired: out.ManualEntryRequired,
		Message:             out.Message,
	}
}
