package gpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidBackend(t *testing.T) {
	for _, name := range []string{"", "vulkan", "Metal", "dx12", "gl"} {
		assert.True(t, ValidBackend(name), name)
	}
	assert.False(t, ValidBackend("directx9"))
}

func TestValidPowerPreference(t *testing.T) {
	assert.True(t, ValidPowerPreference(""))
	assert.True(t, ValidPowerPreference("low-power"))
	assert.True(t, ValidPowerPreference("High-Performance"))
	assert.False(t, ValidPowerPreference("turbo"))
}

func TestCreateInstanceUnknownBackend(t *testing.T) {
	_, err := CreateInstance(Options{Backend: "directx9"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directx9")
}

func TestAcquireHeadless(t *testing.T) {
	b, err := Acquire(Options{}, nil)
	if err != nil {
		t.Skipf("no gpu adapter available: %v", err)
	}
	defer b.Release()

	assert.NotNil(t, b.Device)
	assert.NotNil(t, b.Queue)
	assert.Greater(t, b.MaxTextureDimension2D(), uint32(0))
	assert.False(t, b.Lost())

	b.Release()
	assert.Nil(t, b.Device)
}

func TestLostFlag(t *testing.T) {
	var b Backend
	assert.False(t, b.Lost())
	b.lost.Store(true)
	assert.True(t, b.Lost())
}
