package catalog_test

import (
	"sort"
	"testing"

	"github.com/empresahub/console/pkg/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptors_OrderedByID(t *testing.T) {
	descs := catalog.Descriptors()
	require.NotEmpty(t, descs)

	ids := make([]string, len(descs))
	for i, d := range descs {
		ids[i] = string(d.ID)
	}
	assert.True(t, sort.StringsAreSorted(ids), "descriptors must be ordered by module id, got %v", ids)
}

func TestDescriptors_ExactlyOneMandatory(t *testing.T) {
	var mandatory []catalog.ModuleID
	for _, d := range catalog.Descriptors() {
		if d.Mandatory {
			mandatory = append(mandatory, d.ID)
		}
	}
	require.Len(t, mandatory, 1)
	assert.Equal(t, catalog.MandatoryModuleID(), mandatory[0])
}

func TestMandatory_ImpliesImplementedAndDefaultEnabled(t *testing.T) {
	d, ok := catalog.Lookup(catalog.MandatoryModuleID())
	require.True(t, ok)
	assert.True(t, d.Implemented)
	assert.True(t, d.DefaultEnabled)
}

func TestLookup_UnknownID(t *testing.T) {
	_, ok := catalog.Lookup("warehouse")
	assert.False(t, ok)
}

func TestIsImplemented(t *testing.T) {
	assert.True(t, catalog.IsImplemented(catalog.ModulePeople))
	assert.False(t, catalog.IsImplemented(catalog.ModuleProjects), "projects is catalogued but not implemented")
	assert.False(t, catalog.IsImplemented("warehouse"), "unknown ids are not implemented")
}

func TestValidateToggle(t *testing.T) {
	tests := []struct {
		name    string
		id      catalog.ModuleID
		enabled bool
		wantErr error
	}{
		{"enable implemented", catalog.ModulePeople, true, nil},
		{"disable optional", catalog.ModuleDocs, false, nil},
		{"re-enable mandatory is a no-op", catalog.ModuleCore, true, nil},
		{"disable mandatory", catalog.ModuleCore, false, catalog.ErrMandatory},
		{"enable unimplemented", catalog.ModuleProjects, true, catalog.ErrNotImplemented},
		{"disable unimplemented is allowed", catalog.ModuleReports, false, nil},
		{"unknown id", "warehouse", true, catalog.ErrUnknownModule},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := catalog.ValidateToggle(tt.id, tt.enabled)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestDescriptors_ReturnsCopy(t *testing.T) {
	first := catalog.Descriptors()
	first[0].Title = "mutated"

	again := catalog.Descriptors()
	assert.NotEqual(t, "mutated", again[0].Title)
}
