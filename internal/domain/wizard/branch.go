// internal/domain/wizard/branch.go
package wizard

import "assistance-gateway/internal/domain/catalog"

// Step names a wizard state. Step numbers are derived from the branch.
type Step string

const (
	StepSelectService Step = "SELECT_SERVICE"
	StepLocation      Step = "LOCATION"
	StepCategoryForm  Step = "CATEGORY_FORM"
	StepDetails       Step = "DETAILS"
	StepConfirm       Step = "CONFIRM"
	StepSubmitted     Step = "SUBMITTED"
)

// ValidationKind selects which validation round-trip a category form uses.
type ValidationKind string

const (
	ValidationNone    ValidationKind = ""
	ValidationVehicle ValidationKind = "vehicle"
	ValidationHealth  ValidationKind = "health"
	ValidationService ValidationKind = "service"
)

// Branch is the path through the wizard for one selected service. It is
// computed once, when the service is selected, and drives both forward and
// backward navigation.
type Branch struct {
	Kind              catalog.FormType `json:"kind"`
	NeedsLocation     bool             `json:"needs_location"`
	NeedsCategoryForm bool             `json:"needs_category_form"`
	Validation        ValidationKind   `json:"validation"`
}

// BranchFor derives the branch for a catalog entry.
func BranchFor(e catalog.ServiceCatalogEntry) Branch {
	b := Branch{
		Kind:              e.FormType,
		NeedsLocation:     e.ServiceFlow == catalog.FlowImmediate,
		NeedsCategoryForm: e.FormType.HasForm(),
	}
	if b.NeedsCategoryForm {
		switch e.FormType {
		case catalog.FormVehicle:
			b.Validation = ValidationVehicle
		case catalog.FormHealth:
			b.Validation = ValidationHealth
		default:
			b.Validation = ValidationService
		}
	}
	return b
}

// confirmBase counts the steps every branch has up to and including CONFIRM:
// SELECT_SERVICE, DETAILS and CONFIRM.
const confirmBase = 3

// Steps returns the ordered steps that exist for the branch, ending at CONFIRM.
func (b Branch) Steps() []Step {
	steps := []Step{StepSelectService}
	if b.NeedsLocation {
		steps = append(steps, StepLocation)
	}
	if b.NeedsCategoryForm {
		steps = append(steps, StepCategoryForm)
	}
	return append(steps, StepDetails, StepConfirm)
}

// Index returns the 1-based position of s, or 0 when the branch skips s.
func (b Branch) Index(s Step) int {
	if s == StepSubmitted {
		return b.ConfirmIndex() + 1
	}
	for i, step := range b.Steps() {
		if step == s {
			return i + 1
		}
	}
	return 0
}

// ConfirmIndex is the step number of CONFIRM.
func (b Branch) ConfirmIndex() int {
	return confirmBase + b2i(b.NeedsLocation) + b2i(b.NeedsCategoryForm)
}

// Next returns the step after s. CONFIRM has no next step; leaving it goes
// through submission.
func (b Branch) Next(s Step) (Step, bool) {
	steps := b.Steps()
	for i, step := range steps {
		if step == s && i+1 < len(steps) {
			return steps[i+1], true
		}
	}
	return "", false
}

// Prev returns the step before s.
func (b Branch) Prev(s Step) (Step, bool) {
	steps := b.Steps()
	for i, step := range steps {
		if step == s && i > 0 {
			return steps[i-1], true
		}
	}
	return "", false
}

// Has reports whether the branch visits s.
func (b Branch) Has(s Step) bool {
	return b.Index(s) > 0
}

func b2i(v bool) int {
	if v {
		return 1
	}
	return 0
}
