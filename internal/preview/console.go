// Package preview renders the currently displayed azimuth slice to the
// terminal when running without panel hardware.
package preview

import (
	"image"
	"image/color"
	"time"

	"periph.io/x/conn/v3/display"
	"periph.io/x/extra/devices/screen"

	"github.com/coreman2200/funtimes-vortex/internal/geom"
	"github.com/coreman2200/funtimes-vortex/internal/voxel"
)

// RotSource reports the rotor step.
type RotSource interface {
	Rot() int
}

// Console draws the front buffer's active slice as ANSI blocks.
type Console struct {
	drawer   display.Drawer
	space    *voxel.Space
	mapper   *geom.Mapper
	rot      RotSource
	img      *image.NRGBA
	throttle time.Duration
	lastEmit time.Time
}

func NewConsole(space *voxel.Space, mapper *geom.Mapper, rot RotSource) *Console {
	b := space.Bounds()
	return &Console{
		drawer:   screen.New(b.Z),
		space:    space,
		mapper:   mapper,
		rot:      rot,
		img:      image.NewNRGBA(image.Rect(0, 0, b.X, b.Z)),
		throttle: 100 * time.Millisecond,
	}
}

// Render draws one preview frame, throttled so a fast caller does not
// flood the terminal.
func (c *Console) Render() error {
	now := time.Now()
	if c.lastEmit.Add(c.throttle).After(now) {
		return nil
	}
	c.lastEmit = now

	az := c.mapper.ActiveSlice(c.rot.Rot())
	b := c.space.Bounds()
	_ = c.space.SliceY(az, func(x, z int, v byte) {
		r, g, bb := voxel.Channels(v)
		// z grows upward; image rows grow downward.
		c.img.SetNRGBA(x, b.Z-1-z, color.NRGBA{R: r, G: g, B: bb, A: 255})
	})
	return c.drawer.Draw(c.drawer.Bounds(), c.img, image.Point{})
}

// RunLoop renders until done closes.
func (c *Console) RunLoop(done <-chan struct{}) {
	ticker := time.NewTicker(c.throttle)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			_ = c.Render()
		}
	}
}
