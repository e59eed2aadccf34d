package main

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsHeader(t *testing.T) {
	tests := []struct {
		name string
		row  []string
		want bool
	}{
		{
			name: "documented header",
			row:  []string{"experiment", "variant", "unit", "metric", "value"},
			want: true,
		},
		{
			name: "header with observed_at",
			row:  []string{"experiment", "variant", "unit", "metric", "value", "observed_at"},
			want: true,
		},
		{
			name: "data row with experiment named experiment",
			row:  []string{"experiment", "treatment", "unit-1", "conversion", "1"},
			want: false,
		},
		{
			name: "short row",
			row:  []string{"experiment"},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isHeader(tt.row))
		})
	}
}

func TestParseObservation(t *testing.T) {
	runID = uuid.New()

	obs, err := parseObservation([]string{
		"checkout-button", "treatment", "unit-1", "conversion", "0.5", "2021-04-29T20:01:34Z",
	})
	require.NoError(t, err)
	assert.Equal(t, runID, obs.RunID)
	assert.Equal(t, "checkout-button", obs.Experiment)
	assert.Equal(t, "treatment", obs.Variant)
	assert.Equal(t, "unit-1", obs.Unit)
	assert.Equal(t, "conversion", obs.Metric)
	assert.Equal(t, 0.5, obs.Value)
	assert.True(t, obs.ObservedAt.Equal(time.Date(2021, 4, 29, 20, 1, 34, 0, time.UTC)))

	_, err = parseObservation([]string{"a", "b", "c", "d", "not-a-number"})
	assert.Error(t, err)

	_, err = parseObservation([]string{"a", "b", "c", "d", "1", "yesterday"})
	assert.Error(t, err)

	_, err = parseObservation([]string{"a", "b"})
	assert.Error(t, err)
}
