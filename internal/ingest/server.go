package ingest

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-vortex/internal/voxel"
)

// Server accepts point-stream connections and writes frames into the
// volume's back buffer, swapping once per complete frame. Concurrent
// connections contend for the back buffer, so Apply serializes them: one
// complete frame writes and swaps before the next starts.
type Server struct {
	addr  string
	space *voxel.Space
	log   zerolog.Logger

	mu     sync.Mutex // owns the back buffer during Apply
	frames atomic.Uint64
	culled atomic.Uint64
}

func NewServer(addr string, space *voxel.Space, log zerolog.Logger) *Server {
	return &Server{addr: addr, space: space, log: log}
}

// Frames returns the number of complete frames applied since start.
func (s *Server) Frames() uint64 { return s.frames.Load() }

// Culled returns the total out-of-range points dropped since start.
func (s *Server) Culled() uint64 { return s.culled.Load() }

// Run listens until ctx is cancelled. Each accepted connection streams
// frames; a protocol error closes that connection only.
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	s.log.Info().Str("addr", s.addr).Msg("point stream listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		go s.handle(ctx, conn)
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	peer := conn.RemoteAddr().String()
	s.log.Info().Str("peer", peer).Msg("sender connected")

	r := bufio.NewReaderSize(conn, 1<<16)
	for {
		if ctx.Err() != nil {
			return
		}
		pts, err := ReadFrame(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.log.Info().Str("peer", peer).Msg("sender disconnected")
			} else {
				s.log.Warn().Err(err).Str("peer", peer).Msg("dropping sender")
			}
			return
		}
		culled := s.Apply(pts)
		if culled > 0 {
			// One line per frame at most; the sender is the one to fix.
			s.log.Warn().Str("peer", peer).Int("culled", culled).Msg("out-of-range points culled")
		}
	}
}

// Apply darkens the back buffer, writes the frame's points and swaps.
// Returns the number of out-of-range points culled. Safe for concurrent
// senders; frames apply whole, in acquisition order.
func (s *Server) Apply(pts []Point) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.space.ClearBack()
	culled := 0
	for _, p := range pts {
		if err := s.space.Set(int(p.X), int(p.Y), int(p.Z), p.C); err != nil {
			culled++
		}
	}
	s.space.Swap()
	s.frames.Add(1)
	s.culled.Add(uint64(culled))
	return culled
}
