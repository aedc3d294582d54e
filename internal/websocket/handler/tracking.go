// Package handler holds the websocket message handlers.
package handler

import (
	"context"
	"fmt"
	"strings"

	"assistance-gateway/internal/domain/request"
	wstypes "assistance-gateway/internal/domain/websocket"
	xerrors "assistance-gateway/internal/pkg/errors"
	"assistance-gateway/internal/service/tracking"
	ws "assistance-gateway/internal/websocket"

	"go.uber.org/zap"
)

// TrackingHandler runs one live-tracking poller per (connection, request)
// and pushes every update to the connection.
type TrackingHandler struct {
	registry *tracking.Registry
	logger   *zap.Logger
}

func NewTrackingHandler(registry *tracking.Registry, logger *zap.Logger) *TrackingHandler {
	return &TrackingHandler{
		registry: registry,
		logger:   logger,
	}
}

func (h *TrackingHandler) SupportedEvents() []wstypes.EventType {
	return []wstypes.EventType{
		wstypes.EventTypeTrackingOpen,
		wstypes.EventTypeTrackingClose,
	}
}

func (h *TrackingHandler) HandleMessage(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	if client.IsClosed() {
		return ws.ErrClientClosed
	}

	switch msg.Type {
	case wstypes.EventTypeTrackingOpen:
		var req wstypes.TrackingOpenRequest
		if err := msg.DecodeData(&req); err != nil {
			return fmt.Errorf("%w: %v", xerrors.ErrInvalidInput, err)
		}
		req.RequestID = strings.TrimSpace(req.RequestID)
		if req.RequestID == "" {
			return fmt.Errorf("%w: request_id is required", xerrors.ErrInvalidInput)
		}
		h.open(ctx, client, req.RequestID, request.ParseStatus(string(req.Status)))
		return nil

	case wstypes.EventTypeTrackingClose:
		var req wstypes.TrackingCloseRequest
		if err := msg.DecodeData(&req); err != nil {
			return fmt.Errorf("%w: %v", xerrors.ErrInvalidInput, err)
		}
		h.close(client, strings.TrimSpace(req.RequestID))
		return nil

	default:
		return fmt.Errorf("unsupported event type: %s", msg.Type)
	}
}

// ViewID scopes a tracking view to one connection.
func ViewID(clientID, requestID string) string {
	return clientID + ":" + requestID
}

func (h *TrackingHandler) open(ctx context.Context, client *ws.Client, requestID string, status request.Status) {
	viewID := ViewID(client.ID(), requestID)

	if running, ok := h.registry.Get(viewID); ok && !isDone(running) {
		h.logger.Debug("tracking view already open",
			zap.String("client_id", client.ID()),
			zap.String("request_id", requestID),
		)
		if snap := running.Snapshot(); snap != nil {
			client.SendMessage(wstypes.NewMessage(wstypes.EventTypeTrackingSnapshot, wstypes.TrackingSnapshotData{
				RequestID: requestID,
				Snapshot:  snap,
				Display:   tracking.Project(snap, running.Status()),
			}))
		}
		return
	}

	h.logger.Info("tracking view opened",
		zap.String("client_id", client.ID()),
		zap.String("request_id", requestID),
		zap.String("status", string(status)),
	)

	h.registry.Open(ctx, viewID, requestID, status, func(u tracking.Update) {
		client.SendMessage(wstypes.NewMessage(wstypes.EventTypeTrackingSnapshot, wstypes.TrackingSnapshotData{
			RequestID: u.RequestID,
			Snapshot:  u.Snapshot,
			Display:   u.Display,
			Initial:   u.Initial,
			Stale:     u.Stale,
		}))
		if u.Final {
			client.SendMessage(wstypes.NewMessage(wstypes.EventTypeTrackingStopped, wstypes.TrackingStoppedData{
				RequestID: u.RequestID,
				Status:    u.Display.Status,
				Reason:    wstypes.StopReasonTerminal,
			}))
		}
	})
}

func isDone(h *tracking.CancelHandle) bool {
	select {
	case <-h.Done():
		return true
	default:
		return false
	}
}

func (h *TrackingHandler) close(client *ws.Client, requestID string) {
	running := h.registry.Close(ViewID(client.ID(), requestID))

	h.logger.Info("tracking view closed",
		zap.String("client_id", client.ID()),
		zap.String("request_id", requestID),
		zap.Bool("was_running", running),
	)

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeTrackingStopped, wstypes.TrackingStoppedData{
		RequestID: requestID,
		Reason:    wstypes.StopReasonClosed,
	}))
}
