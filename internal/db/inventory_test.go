package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laundry-coordinator/config"
	"laundry-coordinator/internal/model"
)

func TestInventory_Generated(t *testing.T) {
	machines, err := Inventory(config.InventoryConfig{Levels: []string{"9", "17"}, WashersPerLevel: 2, DryersPerLevel: 1})
	require.NoError(t, err)
	require.Len(t, machines, 6)

	assert.Equal(t, "9_washer_1", machines[0].ID)
	assert.Equal(t, model.KindWasher, machines[0].Kind)
	assert.Equal(t, "9_dryer_1", machines[2].ID)
	assert.Equal(t, model.KindDryer, machines[2].Kind)
	assert.Equal(t, "17", machines[5].Level)
	for _, m := range machines {
		assert.Equal(t, model.StatusAvailable, m.Status)
	}
}

func TestInventory_Explicit(t *testing.T) {
	testCases := []struct {
		name      string
		specs     []config.MachineSpec
		expected  []model.Machine
		expectErr bool
	}{
		{
			name:  "Short ids with level",
			specs: []config.MachineSpec{{ID: "W1", Level: "9"}, {ID: "D1", Level: "9"}},
			expected: []model.Machine{
				{ID: "W1", Kind: model.KindWasher, Level: "9", Seq: 1, Status: model.StatusAvailable},
				{ID: "D1", Kind: model.KindDryer, Level: "9", Seq: 1, Status: model.StatusAvailable},
			},
		},
		{
			name:  "Level taken from id",
			specs: []config.MachineSpec{{ID: "17_dryer_3"}},
			expected: []model.Machine{
				{ID: "17_dryer_3", Kind: model.KindDryer, Level: "17", Seq: 3, Status: model.StatusAvailable},
			},
		},
		{
			name:      "Missing level",
			specs:     []config.MachineSpec{{ID: "W1"}},
			expectErr: true,
		},
		{
			name:      "Duplicate id",
			specs:     []config.MachineSpec{{ID: "W1", Level: "9"}, {ID: "W1", Level: "17"}},
			expectErr: true,
		},
		{
			name:      "Bad kind override",
			specs:     []config.MachineSpec{{ID: "W1", Level: "9", Kind: "oven"}},
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			machines, err := Inventory(config.InventoryConfig{Machines: tc.specs})
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, machines)
		})
	}
}
