package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigTypeError(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		want     string
	}{
		{
			name:     "ClickHouse config type",
			expected: "*ch.ClickhouseConfig",
			want:     "invalid configuration type: expected *ch.ClickhouseConfig",
		},
		{
			name:     "Pipeline config type",
			expected: "*slippy.PipelineConfig",
			want:     "invalid configuration type: expected *slippy.PipelineConfig",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newConfigTypeError(tt.expected)

			require.Error(t, err)
			assert.IsType(t, &configTypeError{}, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}
