// Package scan feeds the hub75 driver from the voxel volume: it snapshots
// one front-buffer generation per refresh, advances the rotor step, and
// reverse-projects panel pixels to voxels through the geometry mapper.
package scan

import (
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-vortex/internal/geom"
	"github.com/coreman2200/funtimes-vortex/internal/hub75"
	"github.com/coreman2200/funtimes-vortex/internal/voxel"
)

// Source implements hub75.SliceSource over a voxel.Space and geom.Mapper.
type Source struct {
	space  *voxel.Space
	mapper *geom.Mapper
	mux    *hub75.Mux
	chains int
	width  int
	log    zerolog.Logger

	rot   atomic.Int64
	front []byte // scan-owned copy of one front-buffer generation

	culled     int // voxels outside the volume this refresh
	lastCulled int
}

// NewSource validates that the panel topology matches the volume: the row
// count the multiplexer drives must equal the volume height.
func NewSource(space *voxel.Space, mapper *geom.Mapper, mux *hub75.Mux, chains, width int, log zerolog.Logger) (*Source, error) {
	if space == nil || mapper == nil || mux == nil {
		return nil, fmt.Errorf("%w: nil scan source component", hub75.ErrConfig)
	}
	if chains <= 0 || width <= 0 {
		return nil, fmt.Errorf("%w: chains=%d width=%d", hub75.ErrConfig, chains, width)
	}
	if rows := mux.Field() * 2; rows != space.Bounds().Z {
		return nil, fmt.Errorf("%w: %d panel rows vs %d voxel layers", hub75.ErrConfig, rows, space.Bounds().Z)
	}
	s := &Source{
		space:  space,
		mapper: mapper,
		mux:    mux,
		chains: chains,
		width:  width,
		log:    log,
	}
	s.front = make([]byte, len(space.Front()))
	copy(s.front, space.Front())
	return s, nil
}

// NextRefresh snapshots the front buffer and advances the rotor one azimuth
// step. The snapshot is a copy into a scan-owned array, not an alias: a
// writer that swaps mid-refresh — even one that runs ahead and reclaims the
// snapshotted page as its next back buffer — cannot disturb the rows served
// for this refresh.
func (s *Source) NextRefresh() {
	copy(s.front, s.space.Front())
	s.rot.Add(1)
	if s.culled > 0 && s.culled != s.lastCulled {
		// Log once per refresh at most, and only when the count moves, to
		// bound log volume on a permanently out-of-range projection.
		s.log.Warn().Int("culled", s.culled).Msg("voxels outside volume culled from projection")
	}
	s.lastCulled = s.culled
	s.culled = 0
}

// Rot returns the current rotor step. Safe from other goroutines.
func (s *Source) Rot() int { return int(s.rot.Load()) }

// FillRows fills one [upper, lower] row pair per chain for the given
// address code, reverse-projecting each panel pixel to a voxel in the
// snapshotted generation. Pixels whose voxel falls outside the volume are
// culled dark.
func (s *Source) FillRows(rows [][2][]byte, addr int) {
	rot := int(s.rot.Load())
	upper, lower := s.mux.Rows(addr)
	for chain := 0; chain < s.chains && chain < len(rows); chain++ {
		s.fillRow(rows[chain][0], chain, upper, rot)
		s.fillRow(rows[chain][1], chain, lower, rot)
	}
}

func (s *Source) fillRow(dst []byte, panel, row, rot int) {
	for col := 0; col < s.width; col++ {
		x, y, z, ok := s.mapper.VoxelAt(panel, row, col, rot)
		if !ok {
			dst[col] = 0
			continue
		}
		i, ok := s.space.Index(x, y, z)
		if !ok {
			dst[col] = 0
			s.culled++
			continue
		}
		dst[col] = s.front[i]
	}
}
