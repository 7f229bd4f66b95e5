package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"laundry-coordinator/internal/model"
)

func TestParseMachineID(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expected  ParsedID
		expectErr bool
	}{
		{
			name:     "Short washer",
			raw:      "W1",
			expected: ParsedID{Kind: model.KindWasher, Seq: 1},
		},
		{
			name:     "Short dryer lowercase",
			raw:      "d3",
			expected: ParsedID{Kind: model.KindDryer, Seq: 3},
		},
		{
			name:     "Level underscore form",
			raw:      "9_washer_1",
			expected: ParsedID{Kind: model.KindWasher, Level: "9", Seq: 1},
		},
		{
			name:     "Level dash short kind",
			raw:      "17-D2",
			expected: ParsedID{Kind: model.KindDryer, Level: "17", Seq: 2},
		},
		{
			name:     "Extra whitespace",
			raw:      "  9   W  4 ",
			expected: ParsedID{Kind: model.KindWasher, Level: "9", Seq: 4},
		},
		{
			name:      "Zero sequence",
			raw:       "W0",
			expectErr: true,
		},
		{
			name:      "Unknown kind",
			raw:       "9_toaster_1",
			expectErr: true,
		},
		{
			name:      "Garbage",
			raw:       "InvalidName",
			expectErr: true,
		},
		{
			name:      "Empty",
			raw:       "",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := ParseMachineID(tc.raw)
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, parsed)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("Washer")
	assert.NoError(t, err)
	assert.Equal(t, model.KindWasher, k)

	k, err = ParseKind(" d ")
	assert.NoError(t, err)
	assert.Equal(t, model.KindDryer, k)

	_, err = ParseKind("oven")
	assert.Error(t, err)

	_, err = ParseKind("")
	assert.Error(t, err)
}
