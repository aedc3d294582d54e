// internal/domain/request/entity.go
package request

import (
	"strings"
	"time"

	"assistance-gateway/internal/domain/shared"
)

// Status is the lifecycle state of a service request.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusAssigned   Status = "ASSIGNED"
	StatusEnRoute    Status = "EN_ROUTE"
	StatusArrived    Status = "ARRIVED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// Progression is the ordered happy path. CANCELLED is reachable from any
// non-terminal state and is not part of it.
var Progression = []Status{
	StatusPending,
	StatusAssigned,
	StatusEnRoute,
	StatusArrived,
	StatusInProgress,
	StatusCompleted,
}

// ParseStatus normalises an upstream status string ("en_route" -> EN_ROUTE).
func ParseStatus(s string) Status {
	return Status(strings.ToUpper(strings.TrimSpace(s)))
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Rank is the position of s in Progression, or -1.
func (s Status) Rank() int {
	for i, p := range Progression {
		if p == s {
			return i
		}
	}
	return -1
}

// Priority of a service request.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Summary is one entry of the caller's request list.
type Summary struct {
	ID              shared.ID `json:"id"`
	Title           string    `json:"title"`
	Status          Status    `json:"status"`
	Priority        Priority  `json:"priority,omitempty"`
	ServiceID       string    `json:"service_id,omitempty"`
	PlanType        string    `json:"plan_type,omitempty"`
	LocationAddress string    `json:"location_address,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
}

// TimelineStep is one row of the status timeline.
type TimelineStep struct {
	Status  Status `json:"status"`
	Done    bool   `json:"done"`
	Current bool   `json:"current"`
}
