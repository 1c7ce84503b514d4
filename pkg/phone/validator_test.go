package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPlausible(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		want  bool
	}{
		{"valid US number", "+1 (202) 456-1111", true},
		{"national format", "(202) 456-1111", true},
		{"too few digits", "123-456", false},
		{"empty", "", false},
		{"letters only", "call us maybe", false},
		{"seven plain digits", "5550102", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPlausible(tt.phone))
		})
	}
}

func TestNormalize(t *testing.T) {
	got, err := Normalize("(202) 456-1111", "US")
	assert.NoError(t, err)
	assert.Equal(t, "+12024561111", got)

	_, err = Normalize("", "US")
	assert.Error(t, err)

	_, err = Normalize("not a number", "US")
	assert.Error(t, err)
}
