package hardware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectStable(t *testing.T) {
	// Detection must return the same answer on every call.
	first := Detect()
	for i := 0; i < 4; i++ {
		assert.Equal(t, first, Detect())
	}
}

func TestConfigMasksSIMD(t *testing.T) {
	orig := GetConfig()
	defer func() { require.NoError(t, SetConfig(orig)) }()

	off := DefaultConfig()
	off.UseSIMD = false
	require.NoError(t, SetConfig(off))

	assert.False(t, Active().Has(CapWideSIMD))
	assert.False(t, Active().Has(CapFMA))

	on := DefaultConfig()
	require.NoError(t, SetConfig(on))
	assert.Equal(t, Detect(), Active())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"zero alignment allowed", func(c *Config) { c.Alignment = 0 }, false},
		{"non power of two alignment", func(c *Config) { c.Alignment = 24 }, true},
		{"negative workers", func(c *Config) { c.Workers = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCapabilityString(t *testing.T) {
	assert.Equal(t, "none", Capability(0).String())
	assert.Equal(t, "simd", CapWideSIMD.String())
	assert.Equal(t, "simd,fma", (CapWideSIMD | CapFMA).String())
}
