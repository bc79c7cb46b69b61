package country

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		in   string
		name string
		code string
	}{
		{"Mexico", "Mexico", "MX"},
		{"  argentina ", "Argentina", "AR"},
		{"USA", "United States", "US"},
		{"United States of America", "United States", "US"},
		{"UK", "United Kingdom", "GB"},
		{"DE", "Germany", "DE"},
		{"fra", "France", "FR"},
		{"The Netherlands", "Netherlands", "NL"},
		{"Canada", "Canada", "CA"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m := Lookup(tt.in)
			assert.True(t, m.Found)
			assert.Equal(t, tt.name, m.Name)
			assert.Equal(t, tt.code, m.Code)
		})
	}
}

func TestLookupNotFound(t *testing.T) {
	for _, in := range []string{"", "   ", "Atlantis", "XX"} {
		m := Lookup(in)
		assert.False(t, m.Found, in)
		assert.Empty(t, m.Name, in)
	}
}

func TestNormalize(t *testing.T) {
	out, all := Normalize([]string{"Mexico", "usa"})
	assert.True(t, all)
	assert.Equal(t, []string{"Mexico", "United States"}, out)

	out, all = Normalize([]string{"Mexico", "Atlantis"})
	assert.False(t, all)
	assert.Equal(t, []string{"Mexico"}, out)
}

func TestName(t *testing.T) {
	name, ok := Name("Canada")
	assert.True(t, ok)
	assert.Equal(t, "Canada", name)
}
