package wizard

import (
	"encoding/json"
	"testing"

	"assistance-gateway/internal/domain/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBranchForDerivesFlags(t *testing.T) {
	cases := []struct {
		name  string
		entry catalog.ServiceCatalogEntry
		want  Branch
	}{
		{
			name:  "immediate vehicle",
			entry: catalog.ServiceCatalogEntry{ServiceFlow: catalog.FlowImmediate, FormType: catalog.FormVehicle},
			want:  Branch{Kind: catalog.FormVehicle, NeedsLocation: true, NeedsCategoryForm: true, Validation: ValidationVehicle},
		},
		{
			name:  "scheduled health",
			entry: catalog.ServiceCatalogEntry{ServiceFlow: catalog.FlowScheduled, FormType: catalog.FormHealth},
			want:  Branch{Kind: catalog.FormHealth, NeedsCategoryForm: true, Validation: ValidationHealth},
		},
		{
			name:  "immediate taxi uses generic validation",
			entry: catalog.ServiceCatalogEntry{ServiceFlow: catalog.FlowImmediate, FormType: catalog.FormTaxi},
			want:  Branch{Kind: catalog.FormTaxi, NeedsLocation: true, NeedsCategoryForm: true, Validation: ValidationService},
		},
		{
			name:  "callback without form",
			entry: catalog.ServiceCatalogEntry{ServiceFlow: catalog.FlowCallback},
			want:  Branch{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, BranchFor(tc.entry))
		})
	}
}

// Walking forward from SELECT_SERVICE to CONFIRM and back again must visit
// exactly the steps of the branch, in reverse, for every flag combination.
func TestBranchNavigationIsSymmetric(t *testing.T) {
	for _, needsLocation := range []bool{true, false} {
		for _, needsForm := range []bool{true, false} {
			b := Branch{NeedsLocation: needsLocation, NeedsCategoryForm: needsForm}
			if needsForm {
				b.Kind = catalog.FormGeneric
			}

			expected := []Step{StepSelectService}
			if needsLocation {
				expected = append(expected, StepLocation)
			}
			if needsForm {
				expected = append(expected, StepCategoryForm)
			}
			expected = append(expected, StepDetails, StepConfirm)

			forward := []Step{StepSelectService}
			for step := StepSelectService; ; {
				next, ok := b.Next(step)
				if !ok {
					break
				}
				forward = append(forward, next)
				step = next
			}
			require.Equal(t, expected, forward, "forward location=%v form=%v", needsLocation, needsForm)

			backward := []Step{StepConfirm}
			for step := StepConfirm; ; {
				prev, ok := b.Prev(step)
				if !ok {
					break
				}
				backward = append(backward, prev)
				step = prev
			}
			for i, j := 0, len(backward)-1; i < j; i, j = i+1, j-1 {
				backward[i], backward[j] = backward[j], backward[i]
			}
			require.Equal(t, expected, backward, "backward location=%v form=%v", needsLocation, needsForm)

			assert.Equal(t, len(expected), b.ConfirmIndex())
			assert.Equal(t, b.ConfirmIndex(), b.Index(StepConfirm))
			assert.Equal(t, b.ConfirmIndex()+1, b.Index(StepSubmitted))
			assert.Equal(t, needsLocation, b.Has(StepLocation))
			assert.Equal(t, needsForm, b.Has(StepCategoryForm))
		}
	}
}

func TestBranchIndexNumbersStepsContiguously(t *testing.T) {
	b := Branch{NeedsLocation: false, NeedsCategoryForm: true, Kind: catalog.FormHealth}
	assert.Equal(t, 1, b.Index(StepSelectService))
	assert.Equal(t, 0, b.Index(StepLocation))
	assert.Equal(t, 2, b.Index(StepCategoryForm))
	assert.Equal(t, 3, b.Index(StepDetails))
	assert.Equal(t, 4, b.Index(StepConfirm))
}

func TestFormDataApplyMergesFields(t *testing.T) {
	var d FormData
	require.NoError(t, d.Apply(catalog.FormVehicle, json.RawMessage(`{"vehicle_make":"Toyota","vehicle_year":"2019"}`)))
	require.NoError(t, d.Apply(catalog.FormVehicle, json.RawMessage(`{"vehicle_model":"Corolla"}`)))

	assert.Equal(t, "Toyota", d.Vehicle.VehicleMake)
	assert.Equal(t, "Corolla", d.Vehicle.VehicleModel)
	assert.Equal(t, NumericText("2019"), d.Vehicle.VehicleYear)
	assert.Equal(t, []string{"vehicle_plate", "incident_type"}, d.Vehicle.Missing())

	assert.Error(t, d.Apply(catalog.FormNone, json.RawMessage(`{}`)))
	assert.Error(t, d.Apply(catalog.FormTaxi, json.RawMessage(`{"pickup_address": 5}`)))
}

func TestFormDataApplyAcceptsNumericYear(t *testing.T) {
	var d FormData
	require.NoError(t, d.Apply(catalog.FormVehicle, json.RawMessage(`{"vehicle_year":2019}`)))
	assert.Equal(t, NumericText("2019"), d.Vehicle.VehicleYear)

	require.NoError(t, d.Apply(catalog.FormVehicle, json.RawMessage(`{"vehicle_year":"2020"}`)))
	assert.Equal(t, NumericText("2020"), d.Vehicle.VehicleYear)

	assert.Error(t, d.Apply(catalog.FormVehicle, json.RawMessage(`{"vehicle_year":{"y":2019}}`)))

	fields, err := d.Fields(catalog.FormVehicle)
	require.NoError(t, err)
	assert.Equal(t, "2020", fields["vehicle_year"])
}

func TestRequiredFieldSets(t *testing.T) {
	var d FormData
	for _, kind := range catalog.FormTypes {
		form, err := d.Form(kind)
		require.NoError(t, err)
		assert.NotEmpty(t, form.Missing(), "empty %s form must be incomplete", kind)
	}

	d.Generic.ServiceDetails = "  "
	assert.Equal(t, []string{"service_details"}, d.Generic.Missing())

	fields, err := d.Fields(catalog.FormLabExam)
	require.NoError(t, err)
	assert.Contains(t, fields, "exam_type")
}

func TestValidationStatusPasses(t *testing.T) {
	assert.True(t, ValidationApproved.Passes())
	assert.True(t, ValidationPendingReview.Passes())
	assert.False(t, ValidationFailed.Passes())
	assert.False(t, ValidationStatus("").Passes())
}
