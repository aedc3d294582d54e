package submission

import (
	"encoding/json"
	"time"
)

// Record is one successfully submitted wizard session.
type Record struct {
	ID        int64           `json:"id"`
	SessionID string          `json:"session_id"`
	RequestID string          `json:"request_id"`
	Owner     string          `json:"owner"`
	ServiceID string          `json:"service_id"`
	PlanType  string          `json:"plan_type"`
	FormType  string          `json:"form_type,omitempty"`
	Steps     []string        `json:"steps"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type ListFilters struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

// Normalize applies the default page (1) and page size (20, at most 100).
func (f *ListFilters) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 20
	}
}

type ListResponse struct {
	Submissions []Record `json:"submissions"`
	Total       int64    `json:"total"`
	Page        int      `json:"page"`
	PageSize    int      `json:"page_size"`
}
