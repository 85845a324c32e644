package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantMode string
		wantRest []string
		wantErr  bool
	}{
		{"mode flag", []string{"--mode=api"}, ModeAPI, nil, false},
		{"subcommand shorthand", []string{"api", "--max-concurrent=150"}, ModeAPI, []string{"--max-concurrent=150"}, false},
		{"alias", []string{"--mode=settlement-service"}, ModeSweeper, nil, false},
		{"single letter alias", []string{"s", "--interval=30s"}, ModeSweeper, []string{"--interval=30s"}, false},
		{"flags before subcommand pass through", []string{"--interval=30s", "sweeper"}, ModeSweeper, []string{"--interval=30s"}, false},
		{"no mode", []string{"--max-concurrent=150"}, "", []string{"--max-concurrent=150"}, true},
		{"unknown mode", []string{"--mode=bogus"}, "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, rest, err := ParseMode(tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMode, mode)
			assert.Equal(t, tt.wantRest, rest)
		})
	}
}
