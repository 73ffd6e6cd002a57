package contract

import (
	"testing"

	"github.com/prpulse/prpulse/schema"
	"github.com/stretchr/testify/assert"
)

func TestSanitizeOrg(t *testing.T) {
	tests := []struct {
		name string
		org  string
		want string
	}{
		{"lowercase passthrough", "acme", "acme"},
		{"uppercase", "Acme", "acme"},
		{"spaces to dashes", "Acme Corp", "acme-corp"},
		{"underscores to dashes", "acme_corp", "acme-corp"},
		{"mixed", "Acme_Corp Labs", "acme-corp-labs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeOrg(tt.org))
		})
	}
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "YES", "true", "1"} {
		got, err := ParseBoolString(s)
		assert.NoError(t, err)
		assert.True(t, got)
	}
	for _, s := range []string{"no", "False", "0"} {
		got, err := ParseBoolString(s)
		assert.NoError(t, err)
		assert.False(t, got)
	}
	_, err := ParseBoolString("maybe")
	assert.Error(t, err)
}

func TestFormatRate(t *testing.T) {
	rate := 87.25
	assert.Equal(t, "87.2%", FormatRate(&rate))
	assert.Equal(t, "-", FormatRate(nil))
}

func TestFormatHours(t *testing.T) {
	hours := 4.0
	assert.Equal(t, "4.0h", FormatHours(&hours))
	assert.Equal(t, "-", FormatHours(nil))
}

func TestTrendGlyph(t *testing.T) {
	assert.Equal(t, "↑", TrendGlyph(schema.TrendUp))
	assert.Equal(t, "↓", TrendGlyph(schema.TrendDown))
	assert.Equal(t, "→", TrendGlyph(schema.TrendStable))
	assert.Equal(t, "~", TrendGlyph(schema.TrendMixed))
	assert.Equal(t, "", TrendGlyph(schema.NoTrend))
}
