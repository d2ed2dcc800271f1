package http

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCount(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr string
	}{
		{``, 0, ""},
		{`null`, 0, ""},
		{`""`, 0, ""},
		{`"  "`, 0, ""},
		{`0`, 0, ""},
		{`12`, 12, ""},
		{`"12"`, 12, ""},
		{`" 7 "`, 7, ""},
		{`7.9`, 7, ""},
		{`2147483647`, 2147483647, ""},
		{`"abc"`, 0, "must be a whole number"},
		{`"7.5"`, 0, "must be a whole number"},
		{`true`, 0, "must be a whole number"},
		{`-1`, 0, "must not be negative"},
		{`"-4"`, 0, "must not be negative"},
		{`2147483648`, 0, "is too large"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseCount("diarrhea", json.RawMessage(tt.raw))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, "diarrhea "+tt.wantErr, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToNewObservation_TrimsVillage(t *testing.T) {
	village := "  Greenfield "
	rainfall := "MEDIUM"
	in, err := submission{Village: &village, Diarrhea: json.RawMessage(`3`), Rainfall: &rainfall}.toNewObservation()
	require.NoError(t, err)

	assert.Equal(t, "Greenfield", in.Village)
	assert.Equal(t, 3, in.Diarrhea)
	assert.Zero(t, in.Fever)
	assert.Equal(t, "Medium", string(in.Rainfall))
}
