// internal/domain/catalog/entity.go
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// PlanType is the top-level subscription category a service belongs to.
type PlanType string

const (
	PlanTypeDrive  PlanType = "DRIVE"
	PlanTypeHealth PlanType = "HEALTH"
)

func (p PlanType) Valid() bool {
	return p == PlanTypeDrive || p == PlanTypeHealth
}

// ServiceFlow describes how a service is fulfilled.
type ServiceFlow string

const (
	FlowImmediate ServiceFlow = "IMMEDIATE"
	FlowScheduled ServiceFlow = "SCHEDULED"
	FlowCallback  ServiceFlow = "CALLBACK"
	FlowClaim     ServiceFlow = "CLAIM"
)

func (f ServiceFlow) Valid() bool {
	switch f {
	case FlowImmediate, FlowScheduled, FlowCallback, FlowClaim:
		return true
	}
	return false
}

// FormType selects the detail sub-form rendered for a service. The zero value
// means the service has no category form.
type FormType string

const (
	FormNone              FormType = ""
	FormVehicle           FormType = "vehicle"
	FormHealth            FormType = "health"
	FormTaxi              FormType = "taxi"
	FormLegal             FormType = "legal"
	FormGeneric           FormType = "generic"
	FormConsultation      FormType = "consultation"
	FormVideoConsultation FormType = "video_consultation"
	FormLabExam           FormType = "lab_exam"
	FormMedication        FormType = "medication"
	FormDelivery          FormType = "delivery"
)

// FormTypes lists every form type that renders a category form.
var FormTypes = []FormType{
	FormVehicle, FormHealth, FormTaxi, FormLegal, FormGeneric,
	FormConsultation, FormVideoConsultation, FormLabExam, FormMedication, FormDelivery,
}

// HasForm reports whether f selects a category form.
func (f FormType) HasForm() bool {
	for _, t := range FormTypes {
		if f == t {
			return true
		}
	}
	return false
}

// ServiceCatalogEntry is one assistance service offered under a plan.
type ServiceCatalogEntry struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Description    string      `json:"description,omitempty"`
	PlanType       PlanType    `json:"plan_type"`
	ServiceFlow    ServiceFlow `json:"service_flow"`
	FormType       FormType    `json:"form_type,omitempty"`
	LimitPerYear   *int        `json:"limit_per_year,omitempty"`
	CoverageAmount float64     `json:"coverage_amount"`
}

func (e ServiceCatalogEntry) validate() error {
	if e.ID == "" {
		return fmt.Errorf("catalog entry without id")
	}
	if !e.PlanType.Valid() {
		return fmt.Errorf("catalog entry %s: invalid plan type %q", e.ID, e.PlanType)
	}
	if !e.ServiceFlow.Valid() {
		return fmt.Errorf("catalog entry %s: invalid service flow %q", e.ID, e.ServiceFlow)
	}
	if e.FormType != FormNone && !e.FormType.HasForm() {
		return fmt.Errorf("catalog entry %s: invalid form type %q", e.ID, e.FormType)
	}
	if e.LimitPerYear != nil && *e.LimitPerYear <= 0 {
		return fmt.Errorf("catalog entry %s: limit_per_year must be positive", e.ID)
	}
	if e.CoverageAmount < 0 {
		return fmt.Errorf("catalog entry %s: coverage_amount must not be negative", e.ID)
	}
	return nil
}

// Catalog is a read-only lookup table of services. It is built once at
// startup and shared; callers always receive copies.
type Catalog struct {
	byID    map[string]ServiceCatalogEntry
	ordered []string
}

func New(entries []ServiceCatalogEntry) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]ServiceCatalogEntry, len(entries))}
	for _, e := range entries {
		if err := e.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[e.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog entry %s", e.ID)
		}
		if e.LimitPerYear != nil {
			limit := *e.LimitPerYear
			e.LimitPerYear = &limit
		}
		c.byID[e.ID] = e
		c.ordered = append(c.ordered, e.ID)
	}
	return c, nil
}

// LoadFile builds a catalog from a JSON array of entries.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	var entries []ServiceCatalogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return New(entries)
}

// Get returns a copy of the entry with the given id.
func (c *Catalog) Get(id string) (ServiceCatalogEntry, bool) {
	e, ok := c.byID[id]
	if !ok {
		return ServiceCatalogEntry{}, false
	}
	return e.clone(), true
}

// ByPlan returns the entries for a plan type in catalog order.
func (c *Catalog) ByPlan(plan PlanType) []ServiceCatalogEntry {
	var out []ServiceCatalogEntry
	for _, id := range c.ordered {
		if e := c.byID[id]; e.PlanType == plan {
			out = append(out, e.clone())
		}
	}
	return out
}

// PlanTypes returns the plan types present in the catalog.
func (c *Catalog) PlanTypes() []PlanType {
	seen := map[PlanType]bool{}
	var out []PlanType
	for _, e := range c.byID {
		if !seen[e.PlanType] {
			seen[e.PlanType] = true
			out = append(out, e.PlanType)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (c *Catalog) Len() int { return len(c.ordered) }

func (e ServiceCatalogEntry) clone() ServiceCatalogEntry {
	if e.LimitPerYear != nil {
		limit := *e.LimitPerYear
		e.LimitPerYear = &limit
	}
	return e
}
