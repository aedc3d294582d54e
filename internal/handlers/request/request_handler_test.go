package request

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"assistance-gateway/internal/domain/request"
	"assistance-gateway/internal/domain/tracking"
	wstypes "assistance-gateway/internal/domain/websocket"
	"assistance-gateway/internal/middleware"
	xerrors "assistance-gateway/internal/pkg/errors"
	"assistance-gateway/internal/pkg/identity"
	service "assistance-gateway/internal/service/request"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubUpstream struct {
	list      []request.Summary
	snap      *tracking.Snapshot
	listErr   error
	cancelled map[string]string
}

func (s *stubUpstream) GetMyRequests(context.Context) ([]request.Summary, error) {
	return s.list, s.listErr
}

func (s *stubUpstream) GetLiveTracking(context.Context, string) (*tracking.Snapshot, error) {
	return s.snap, nil
}

func (s *stubUpstream) CancelRequest(_ context.Context, id, reason string) error {
	s.cancelled[id] = reason
	return nil
}

type recordingNotifier struct {
	sent []*wstypes.WSMessage
}

func (r *recordingNotifier) SendToOwner(_ string, msg *wstypes.WSMessage) {
	r.sent = append(r.sent, msg)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// trustedTokens accepts every token; the middleware tests cover refusal.
type trustedTokens struct{}

func (trustedTokens) Verify(_ context.Context, token string) (identity.Identity, error) {
	return identity.FromToken(token)
}

func (trustedTokens) Forget(string) {}

func newRouter(up *stubUpstream, notifier Notifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewRequestHandler(service.NewRequestService(up, nil, zap.NewNop()), notifier, zap.NewNop())

	r := gin.New()
	g := r.Group("/api/v1", middleware.Identity(trustedTokens{}))
	g.GET("/requests", h.ListMyRequests)
	g.POST("/requests/:id/cancel", h.CancelRequest)
	g.GET("/requests/:id/tracking", h.GetTracking)
	g.GET("/requests/:id/timeline", h.GetTimeline)
	g.GET("/submissions", h.ListSubmissions)
	return r
}

func call(t *testing.T, r *gin.Engine, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer token-a")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w.Code, env
}

func TestListMyRequests(t *testing.T) {
	up := &stubUpstream{list: []request.Summary{{ID: "1", Status: request.StatusPending}}}
	code, env := call(t, newRouter(up, nil), http.MethodGet, "/api/v1/requests", "")

	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"total":1`)
}

func TestListMyRequestsUpstreamUnauthorized(t *testing.T) {
	up := &stubUpstream{listErr: &xerrors.APIError{StatusCode: http.StatusUnauthorized, Message: "Token expired", Op: "getMyRequests"}}
	code, env := call(t, newRouter(up, nil), http.MethodGet, "/api/v1/requests", "")

	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Token expired", env.Message)
}

func TestCancelRequest(t *testing.T) {
	up := &stubUpstream{
		list: []request.Summary{
			{ID: "1", Status: request.StatusPending},
			{ID: "2", Status: request.StatusAssigned},
		},
		cancelled: map[string]string{},
	}
	notifier := &recordingNotifier{}
	r := newRouter(up, notifier)

	code, _ := call(t, r, http.MethodPost, "/api/v1/requests/1/cancel", `{"reason":"duplicada"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "duplicada", up.cancelled["1"])
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, wstypes.EventTypeRequestCancelled, notifier.sent[0].Type)

	code, _ = call(t, r, http.MethodPost, "/api/v1/requests/2/cancel", "")
	assert.Equal(t, http.StatusConflict, code)

	code, _ = call(t, r, http.MethodPost, "/api/v1/requests/9/cancel", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestGetTrackingFallsBackToQueryStatus(t *testing.T) {
	up := &stubUpstream{snap: &tracking.Snapshot{RequestID: "5"}}
	code, env := call(t, newRouter(up, nil), http.MethodGet, "/api/v1/requests/5/tracking?status=en_route", "")

	require.Equal(t, http.StatusOK, code)
	var view struct {
		Display tracking.Display `json:"display"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, request.StatusEnRoute, view.Display.Status)
	assert.Equal(t, "calculating", view.Display.ETALabel)
}

func TestGetTimeline(t *testing.T) {
	r := newRouter(&stubUpstream{}, nil)

	code, _ := call(t, r, http.MethodGet, "/api/v1/requests/5/timeline", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, env := call(t, r, http.MethodGet, "/api/v1/requests/5/timeline?status=ARRIVED", "")
	require.Equal(t, http.StatusOK, code)
	var body struct {
		Timeline []request.TimelineStep `json:"timeline"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	require.Len(t, body.Timeline, len(request.Progression))
	for _, step := range body.Timeline {
		assert.Equal(t, step.Status.Rank() <= request.StatusArrived.Rank(), step.Done, step.Status)
		assert.Equal(t, step.Status == request.StatusArrived, step.Current, step.Status)
	}
}

func TestListSubmissionsWithoutLedger(t *testing.T) {
	code, env := call(t, newRouter(&stubUpstream{}, nil), http.MethodGet, "/api/v1/submissions?page=2", "")

	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"submissions":[]`)
	assert.Contains(t, string(env.Data), `"page":2`)
}
