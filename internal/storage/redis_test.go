package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterTempKeys(t *testing.T) {
	tests := []struct {
		name        string
		keys        []string
		wantBatch   []string
		wantSkipped []string
	}{
		{
			name:      "all temp keys",
			keys:      []string{"system:tmp:a", "system:tmp:b"},
			wantBatch: []string{"system:tmp:a", "system:tmp:b"},
		},
		{
			name:        "business keys are skipped",
			keys:        []string{"system:tmp:a", "system:health", "user:session:42"},
			wantBatch:   []string{"system:tmp:a"},
			wantSkipped: []string{"system:health", "user:session:42"},
		},
		{
			name:        "near miss prefix is skipped",
			keys:        []string{"system:tmpx:a", "system:tm:b"},
			wantSkipped: []string{"system:tmpx:a", "system:tm:b"},
		},
		{
			name: "empty scan page",
			keys: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch, skipped := filterTempKeys(tt.keys)
			assert.Equal(t, tt.wantBatch, batch)
			assert.Equal(t, tt.wantSkipped, skipped)
		})
	}
}
