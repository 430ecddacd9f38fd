package formfactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTV(t *testing.T) {
	tests := []struct {
		ff   FormFactor
		want bool
	}{
		{Desktop, false},
		{Mobile, false},
		{Holographic, true},
		{Xbox, true},
		{TV, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.ff.IsTV(), string(tt.ff))
	}
}

func TestParse(t *testing.T) {
	assert.Equal(t, Xbox, Parse("xbox"))
	assert.Equal(t, TV, Parse("tv"))
	assert.Equal(t, Desktop, Parse("toaster"))
	assert.Equal(t, Desktop, Parse(""))
}

func TestDetectForceTV(t *testing.T) {
	info := Detect(true)
	assert.True(t, info.FormFactor.IsTV())
	assert.NotEmpty(t, info.OS)
	assert.NotEmpty(t, info.DeviceName())
}

func TestDetectWithoutForce(t *testing.T) {
	info := Detect(false)
	assert.False(t, info.Forced)
	assert.NotEmpty(t, info.FormFactor)
}
