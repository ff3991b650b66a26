// Package ws exposes the daemon's observation surface: a websocket feed of
// the currently displayed azimuth slice, a diagnostics push channel and a
// health endpoint. It only ever reads the front buffer; it cannot disturb
// scan-out.
package ws

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	diag "github.com/coreman2200/funtimes-vortex/internal/diagnostics"
	"github.com/coreman2200/funtimes-vortex/internal/geom"
	"github.com/coreman2200/funtimes-vortex/internal/voxel"
)

// RotSource reports the rotor step, for picking the slice to preview.
type RotSource interface {
	Rot() int
}

type State struct {
	mu sync.RWMutex

	space  *voxel.Space
	mapper *geom.Mapper
	rot    RotSource

	Driver    string
	frameID   uint64
	startTime time.Time

	clients     map[*websocket.Conn]bool
	diagClients map[*websocket.Conn]bool
}

func NewState(space *voxel.Space, mapper *geom.Mapper, rot RotSource, driver string) *State {
	return &State{
		space:       space,
		mapper:      mapper,
		rot:         rot,
		Driver:      driver,
		startTime:   time.Now(),
		clients:     map[*websocket.Conn]bool{},
		diagClients: map[*websocket.Conn]bool{},
	}
}

// slicePayload is one preview frame: the azimuth slice the panels face,
// expanded to 8-bit RGB, x-major.
type slicePayload struct {
	Frame   uint64 `json:"frame"`
	Azimuth int    `json:"azimuth"`
	W       int    `json:"w"`
	H       int    `json:"h"`
	RGB     string `json:"rgb"`
}

// RunPreviewLoop broadcasts the active slice to subscribers about 20 times
// a second until the done channel closes.
func (s *State) RunPreviewLoop(done <-chan struct{}) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.broadcastSlice()
		}
	}
}

func (s *State) broadcastSlice() {
	s.mu.RLock()
	idle := len(s.clients) == 0
	s.mu.RUnlock()
	if idle {
		return
	}

	b := s.space.Bounds()
	az := s.mapper.ActiveSlice(s.rot.Rot())
	rgb := make([]byte, b.X*b.Z*3)
	_ = s.space.SliceY(az, func(x, z int, c byte) {
		r, g, bb := voxel.Channels(c)
		i := (z*b.X + x) * 3
		rgb[i], rgb[i+1], rgb[i+2] = r, g, bb
	})

	s.mu.Lock()
	s.frameID++
	payload := slicePayload{
		Frame:   s.frameID,
		Azimuth: az,
		W:       b.X,
		H:       b.Z,
		RGB:     base64.StdEncoding.EncodeToString(rgb),
	}
	msg, err := json.Marshal(payload)
	if err != nil {
		s.mu.Unlock()
		return
	}
	for c := range s.clients {
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			delete(s.clients, c)
			c.Close()
		}
	}
	s.mu.Unlock()
}

// PushDiag fans a diagnostic out to /diag subscribers.
func (s *State) PushDiag(d diag.Diagnostic) {
	msg, err := json.Marshal(d)
	if err != nil {
		return
	}
	s.mu.Lock()
	for c := range s.diagClients {
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			delete(s.diagClients, c)
			c.Close()
		}
	}
	s.mu.Unlock()
}

func (s *State) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()
	go s.drain(conn, s.clients)
}

func (s *State) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.diagClients[conn] = true
	s.mu.Unlock()
	go s.drain(conn, s.diagClients)
}

// drain keeps the read side of a subscriber alive and removes it on error.
func (s *State) drain(conn *websocket.Conn, set map[*websocket.Conn]bool) {
	defer func() {
		s.mu.Lock()
		delete(set, conn)
		s.mu.Unlock()
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	b := s.space.Bounds()
	resp := map[string]any{
		"ok":      true,
		"driver":  s.Driver,
		"uptime":  time.Since(s.startTime).Seconds(),
		"voxels":  map[string]int{"x": b.X, "y": b.Y, "z": b.Z},
		"azimuth": s.mapper.ActiveSlice(s.rot.Rot()),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Warn().Err(err).Msg("health encode failed")
	}
}
