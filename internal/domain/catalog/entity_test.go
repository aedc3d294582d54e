package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	c := Default()
	assert.Equal(t, len(DefaultEntries()), c.Len())
	assert.Equal(t, []PlanType{PlanTypeDrive, PlanTypeHealth}, c.PlanTypes())

	for _, e := range c.ByPlan(PlanTypeDrive) {
		assert.Equal(t, PlanTypeDrive, e.PlanType)
	}
}

func TestCatalogReturnsCopies(t *testing.T) {
	c := Default()
	e, ok := c.Get("drive_towing")
	require.True(t, ok)
	require.NotNil(t, e.LimitPerYear)

	*e.LimitPerYear = 99
	e.Name = "changed"

	again, _ := c.Get("drive_towing")
	assert.Equal(t, 3, *again.LimitPerYear)
	assert.Equal(t, "Grúa", again.Name)
}

func TestNewRejectsInvalidEntries(t *testing.T) {
	zero := 0
	cases := map[string]ServiceCatalogEntry{
		"missing id":     {PlanType: PlanTypeDrive, ServiceFlow: FlowImmediate},
		"bad plan":       {ID: "x", PlanType: "BOAT", ServiceFlow: FlowImmediate},
		"bad flow":       {ID: "x", PlanType: PlanTypeDrive, ServiceFlow: "NOW"},
		"bad form":       {ID: "x", PlanType: PlanTypeDrive, ServiceFlow: FlowImmediate, FormType: "pet"},
		"zero limit":     {ID: "x", PlanType: PlanTypeDrive, ServiceFlow: FlowImmediate, LimitPerYear: &zero},
		"negative cover": {ID: "x", PlanType: PlanTypeDrive, ServiceFlow: FlowImmediate, CoverageAmount: -1},
	}
	for name, entry := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New([]ServiceCatalogEntry{entry})
			assert.Error(t, err)
		})
	}

	_, err := New([]ServiceCatalogEntry{
		{ID: "dup", PlanType: PlanTypeDrive, ServiceFlow: FlowCallback},
		{ID: "dup", PlanType: PlanTypeDrive, ServiceFlow: FlowCallback},
	})
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	body := `[{"id":"a","name":"A","plan_type":"HEALTH","service_flow":"CALLBACK","coverage_amount":10}]`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	c, err := LoadFile(path)
	require.NoError(t, err)
	e, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, FormNone, e.FormType)
	assert.Nil(t, e.LimitPerYear)
}
