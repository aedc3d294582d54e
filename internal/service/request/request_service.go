// internal/service/request/request_service.go
package request

import (
	"context"
	"fmt"
	"strings"

	"assistance-gateway/internal/domain/request"
	"assistance-gateway/internal/domain/submission"
	"assistance-gateway/internal/domain/tracking"
	xerrors "assistance-gateway/internal/pkg/errors"
	trackingsvc "assistance-gateway/internal/service/tracking"

	"go.uber.org/zap"
)

// Upstream is the part of the Assistance API used for existing requests.
type Upstream interface {
	GetMyRequests(ctx context.Context) ([]request.Summary, error)
	GetLiveTracking(ctx context.Context, requestID string) (*tracking.Snapshot, error)
	CancelRequest(ctx context.Context, requestID, reason string) error
}

// SubmissionLister reads the submission ledger.
type SubmissionLister interface {
	ListByOwner(ctx context.Context, owner string, filters *submission.ListFilters) ([]submission.Record, int64, error)
}

// TrackingView is a one-shot tracking read.
type TrackingView struct {
	Snapshot *tracking.Snapshot `json:"snapshot"`
	Display  tracking.Display   `json:"display"`
}

type RequestService struct {
	upstream Upstream
	ledger   SubmissionLister
	logger   *zap.Logger
}

// NewRequestService builds the service. ledger may be nil when no database
// is configured.
func NewRequestService(upstream Upstream, ledger SubmissionLister, logger *zap.Logger) *RequestService {
	return &RequestService{
		upstream: upstream,
		ledger:   ledger,
		logger:   logger,
	}
}

// ListMyRequests returns the caller's requests.
func (s *RequestService) ListMyRequests(ctx context.Context) ([]request.Summary, error) {
	list, err := s.upstream.GetMyRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	if list == nil {
		list = []request.Summary{}
	}
	return list, nil
}

// Cancel cancels one of the caller's requests. Only PENDING requests can be
// cancelled.
func (s *RequestService) Cancel(ctx context.Context, requestID, reason string) error {
	list, err := s.upstream.GetMyRequests(ctx)
	if err != nil {
		return fmt.Errorf("failed to load request: %w", err)
	}

	var found *request.Summary
	for i := range list {
		if list[i].ID.String() == requestID {
			found = &list[i]
			break
		}
	}
	if found == nil {
		return xerrors.ErrNotFound
	}
	if found.Status != request.StatusPending {
		return fmt.Errorf("%w: request is %s", xerrors.ErrCancelNotAllowed, found.Status)
	}

	if err := s.upstream.CancelRequest(ctx, requestID, strings.TrimSpace(reason)); err != nil {
		return err
	}
	s.logger.Info("request cancelled", zap.String("request_id", requestID))
	return nil
}

// Tracking fetches the current snapshot once and projects it.
func (s *RequestService) Tracking(ctx context.Context, requestID string, status request.Status) (*TrackingView, error) {
	snap, err := s.upstream.GetLiveTracking(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return &TrackingView{
		Snapshot: snap,
		Display:  trackingsvc.Project(snap, status),
	}, nil
}

// Submissions lists the caller's recorded submissions.
func (s *RequestService) Submissions(ctx context.Context, owner string, filters *submission.ListFilters) (*submission.ListResponse, error) {
	filters.Normalize()
	if s.ledger == nil {
		return &submission.ListResponse{Submissions: []submission.Record{}, Page: filters.Page, PageSize: filters.PageSize}, nil
	}
	records, total, err := s.ledger.ListByOwner(ctx, owner, filters)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []submission.Record{}
	}
	return &submission.ListResponse{
		Submissions: records,
		Total:       total,
		Page:        filters.Page,
		PageSize:    filters.PageSize,
	}, nil
}
