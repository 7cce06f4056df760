package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanLines(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "trims and drops empties",
			raw:  "\n  Seniority Level  \n\n\tMid-Senior level\n   \n",
			want: []string{"Seniority Level", "Mid-Senior level"},
		},
		{
			name: "single line",
			raw:  "Full-time",
			want: []string{"Full-time"},
		},
		{
			name: "only whitespace",
			raw:  " \n\t\n ",
			want: nil,
		},
		{
			name: "empty input",
			raw:  "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanLines(tt.raw))
		})
	}
}

func TestJoinLines(t *testing.T) {
	assert.Equal(t, "a. b. c", JoinLines([]string{"a", "b", "c"}))
	assert.Equal(t, "solo", JoinLines([]string{"solo"}))
	assert.Equal(t, "", JoinLines(nil))
}

func TestOptionalField(t *testing.T) {
	got := optionalField([]string{"Employment Type", "Full-time"})
	require.NotNil(t, got)
	assert.Equal(t, "Full-time", *got)

	assert.Nil(t, optionalField([]string{"Employment Type"}), "label with no value lines is null")
	assert.Nil(t, optionalField(nil))
}

func TestMultiField(t *testing.T) {
	assert.Equal(t, []string{"Tech", "Finance"}, multiField([]string{"Industries", "Tech", "Finance"}))
	assert.Empty(t, multiField([]string{"Industries"}))
	assert.Empty(t, multiField(nil))
}
