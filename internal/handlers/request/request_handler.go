// internal/handlers/request/request_handler.go
package request

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"assistance-gateway/internal/domain/request"
	"assistance-gateway/internal/domain/submission"
	wstypes "assistance-gateway/internal/domain/websocket"
	"assistance-gateway/internal/middleware"
	"assistance-gateway/internal/pkg/response"
	service "assistance-gateway/internal/service/request"
	"assistance-gateway/internal/service/tracking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Notifier pushes request lifecycle events to the owner's open connections.
type Notifier interface {
	SendToOwner(owner string, msg *wstypes.WSMessage)
}

type RequestHandler struct {
	requestService *service.RequestService
	notifier       Notifier
	logger         *zap.Logger
}

// NewRequestHandler builds the handler. notifier may be nil.
func NewRequestHandler(requestService *service.RequestService, notifier Notifier, logger *zap.Logger) *RequestHandler {
	return &RequestHandler{
		requestService: requestService,
		notifier:       notifier,
		logger:         logger,
	}
}

// ListMyRequests lists the caller's service requests
func (h *RequestHandler) ListMyRequests(c *gin.Context) {
	list, err := h.requestService.ListMyRequests(c.Request.Context())
	if err != nil {
		response.FromError(c, "failed to load requests", err)
		return
	}
	response.Success(c, http.StatusOK, "requests retrieved", gin.H{
		"requests": list,
		"total":    len(list),
	})
}

// CancelRequest cancels a pending request
func (h *RequestHandler) CancelRequest(c *gin.Context) {
	var req request.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	id := c.Param("id")
	if err := h.requestService.Cancel(c.Request.Context(), id, req.Reason); err != nil {
		response.FromError(c, "failed to cancel request", err)
		return
	}

	if h.notifier != nil {
		h.notifier.SendToOwner(middleware.MustGetOwner(c), wstypes.NewMessage(wstypes.EventTypeRequestCancelled, wstypes.RequestEventData{
			RequestID: id,
			Status:    request.StatusCancelled,
		}))
	}
	response.Success(c, http.StatusOK, "request cancelled", gin.H{"request_id": id})
}

// GetTracking fetches the live-tracking snapshot once. The status query
// parameter is the caller's last known status, used when the snapshot
// carries none.
func (h *RequestHandler) GetTracking(c *gin.Context) {
	status := request.ParseStatus(c.Query("status"))

	view, err := h.requestService.Tracking(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		response.FromError(c, "failed to load tracking", err)
		return
	}
	response.Success(c, http.StatusOK, "tracking retrieved", view)
}

// GetTimeline projects a status onto the request progression
func (h *RequestHandler) GetTimeline(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("status"))
	if raw == "" {
		response.ValidationError(c, "status is required", nil)
		return
	}
	status := request.ParseStatus(raw)

	response.Success(c, http.StatusOK, "timeline retrieved", gin.H{
		"request_id": c.Param("id"),
		"status":     status,
		"timeline":   tracking.Timeline(status),
	})
}

// ListSubmissions lists the submissions recorded for the caller
func (h *RequestHandler) ListSubmissions(c *gin.Context) {
	var filters submission.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	resp, err := h.requestService.Submissions(c.Request.Context(), middleware.MustGetOwner(c), &filters)
	if err != nil {
		response.FromError(c, "failed to load submissions", err)
		return
	}
	response.Success(c, http.StatusOK, "submissions retrieved", resp)
}
