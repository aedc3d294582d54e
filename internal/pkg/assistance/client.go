// Package assistance is the HTTP client for the external Assistance API.
package assistance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"assistance-gateway/internal/domain/request"
	"assistance-gateway/internal/domain/shared"
	"assistance-gateway/internal/domain/subscription"
	"assistance-gateway/internal/domain/tracking"
	"assistance-gateway/internal/pkg/geo"
	xerrors "assistance-gateway/internal/pkg/errors"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxBodySize = 4 << 20

type Config struct {
	BaseURL string
	Timeout time.Duration
	// RPS and Burst throttle outbound calls across all callers.
	RPS   float64
	Burst int
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

type tokenKey struct{}

// WithToken attaches the caller's bearer token; every upstream call made with
// the returned context is authenticated as that caller.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom returns the bearer token attached by WithToken.
func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// GetMyRequests lists the caller's service requests.
func (c *Client) GetMyRequests(ctx context.Context) ([]request.Summary, error) {
	data, err := c.do(ctx, "getMyRequests", http.MethodGet, "/api/assistance/requests/my-requests/", nil)
	if err != nil {
		return nil, err
	}
	var out []request.Summary
	if err := decodeList(data, &out); err != nil {
		return nil, fmt.Errorf("getMyRequests: decode: %w", err)
	}
	for i := range out {
		out[i].Status = request.ParseStatus(string(out[i].Status))
	}
	return out, nil
}

// GetLiveTracking fetches the current tracking snapshot of a request.
func (c *Client) GetLiveTracking(ctx context.Context, requestID string) (*tracking.Snapshot, error) {
	path := fmt.Sprintf("/api/assistance/requests/%s/live-tracking/", url.PathEscape(requestID))
	data, err := c.do(ctx, "getLiveTracking", http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var snap tracking.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("getLiveTracking: decode: %w", err)
	}
	snap.RequestID = shared.ID(requestID)
	snap.Status = request.ParseStatus(string(snap.Status))
	snap.FetchedAt = time.Now()
	return &snap, nil
}

// CancelRequest cancels a pending request.
func (c *Client) CancelRequest(ctx context.Context, requestID, reason string) error {
	path := fmt.Sprintf("/api/assistance/requests/%s/cancel/", url.PathEscape(requestID))
	_, err := c.do(ctx, "cancelRequest", http.MethodPost, path, request.CancelRequest{Reason: reason})
	return err
}

func (c *Client) ValidateVehicle(ctx context.Context, req *VehicleValidationRequest) (*ValidationResponse, error) {
	return c.validate(ctx, "validateVehicle", "/api/assistance/validate/vehicle/", req)
}

func (c *Client) ValidateHealth(ctx context.Context, req *HealthValidationRequest) (*ValidationResponse, error) {
	return c.validate(ctx, "validateHealth", "/api/assistance/validate/health/", req)
}

func (c *Client) ValidateService(ctx context.Context, req *ServiceValidationRequest) (*ValidationResponse, error) {
	return c.validate(ctx, "validateService", "/api/assistance/validate/service/", req)
}

func (c *Client) validate(ctx context.Context, op, path string, body interface{}) (*ValidationResponse, error) {
	data, err := c.do(ctx, op, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	var out ValidationResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", op, err)
	}
	out.ValidationStatus = strings.ToUpper(strings.TrimSpace(out.ValidationStatus))
	return &out, nil
}

// CreateRequest submits an assembled service request and returns its id.
func (c *Client) CreateRequest(ctx context.Context, payload *request.ServiceRequest) (*request.CreateResult, error) {
	data, err := c.do(ctx, "createRequest", http.MethodPost, "/api/assistance/requests/", payload)
	if err != nil {
		return nil, err
	}
	var env createEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("createRequest: decode: %w", err)
	}
	id := env.requestID()
	if id == "" {
		return nil, fmt.Errorf("createRequest: response carried no request id")
	}
	return &request.CreateResult{ID: id}, nil
}

// Geocode resolves a free-text address through the Assistance API.
func (c *Client) Geocode(ctx context.Context, address string) (*geo.Result, error) {
	return c.geocode(ctx, "geocode", "/api/assistance/geocode/", map[string]interface{}{"address": address})
}

// ReverseGeocode resolves device coordinates through the Assistance API.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (*geo.Result, error) {
	return c.geocode(ctx, "reverseGeocode", "/api/assistance/geocode/reverse/", map[string]interface{}{
		"latitude":  lat,
		"longitude": lng,
	})
}

func (c *Client) geocode(ctx context.Context, op, path string, body interface{}) (*geo.Result, error) {
	data, err := c.do(ctx, op, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	var out geo.Result
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", op, err)
	}
	if out.FormattedAddress == "" {
		return nil, fmt.Errorf("%s: %w", op, geo.ErrNoResults)
	}
	return &out, nil
}

// GetMySubscriptions lists the caller's plan subscriptions.
func (c *Client) GetMySubscriptions(ctx context.Context) ([]subscription.Subscription, error) {
	data, err := c.do(ctx, "getMySubscriptions", http.MethodGet, "/api/subscriptions/my-subscriptions/", nil)
	if err != nil {
		return nil, err
	}
	var out []subscription.Subscription
	if err := decodeList(data, &out); err != nil {
		return nil, fmt.Errorf("getMySubscriptions: decode: %w", err)
	}
	return out, nil
}

// CheckToken makes one authenticated call with token. The Assistance API
// answers 401 or 403 for tokens it did not issue.
func (c *Client) CheckToken(ctx context.Context, token string) error {
	_, err := c.do(WithToken(ctx, token), "checkToken", http.MethodGet, "/api/subscriptions/my-subscriptions/", nil)
	return err
}

func (c *Client) do(ctx context.Context, op, method, path string, body interface{}) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := TokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", op, err)
	}

	c.logger.Debug("assistance api call",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &xerrors.APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data),
			Op:         op,
		}
	}
	return data, nil
}
