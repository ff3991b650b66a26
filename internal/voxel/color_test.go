package voxel_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coreman2200/funtimes-vortex/internal/voxel"
)

var colorCases = []struct {
	pack    byte
	r, g, b uint8
}{
	{0x00, 0, 0, 0},
	{0xFB, 255, 255, 255}, // all channels full: 111 11 _ 11
	{0xE0, 255, 0, 0},     // pure red
	{0x18, 0, 255, 0},     // pure green
	{0x03, 0, 0, 255},     // pure blue
	{0x20, 36, 0, 0},      // dimmest red step
}

func TestChannelExpansion(t *testing.T) {
	for i, c := range colorCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			r, g, b := voxel.Channels(c.pack)
			assert.Equal(t, c.r, r)
			assert.Equal(t, c.g, g)
			assert.Equal(t, c.b, b)
		})
	}
}

func TestFromRGBQuantizes(t *testing.T) {
	assert.EqualValues(t, 0xFB, voxel.FromRGB(255, 255, 255))
	assert.EqualValues(t, 0xE0, voxel.FromRGB(255, 0, 0))
	assert.EqualValues(t, 0x00, voxel.FromRGB(31, 63, 63))
	// Quantize then expand lands back on the same quantized byte.
	c := voxel.FromRGB(200, 120, 90)
	r, g, b := voxel.Channels(c)
	assert.Equal(t, c, voxel.FromRGB(r, g, b))
}

func TestPackIgnoresHighBits(t *testing.T) {
	assert.Equal(t, voxel.Pack332(7, 3, 3), voxel.Pack332(0xFF, 0xFF, 0xFF))
}
