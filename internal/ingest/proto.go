// Package ingest receives voxel point frames from the content-generation
// collaborator and applies them to the volume's back buffer. The sender is
// typically off-board, streaming over TCP; it never touches scan-out
// internals — the buffer swap at end of frame is the whole contract.
package ingest

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Wire format, as the off-board sender emits it:
//
//	magic   [4]byte  ff ff ff ff
//	zipped  uint32   big endian, compressed payload length in bytes
//	payload []byte   gzip stream of 4-byte points: x, y, z, rgb332
//
// The point count is implicit: decompressed length over four. Sparse by
// design: only lit voxels travel; the receiver darkens the rest.

var frameMagic = [4]byte{0xff, 0xff, 0xff, 0xff}

// ErrBadFrame reports a malformed or oversized frame.
var ErrBadFrame = errors.New("ingest: malformed frame")

// Point is one lit voxel.
type Point struct {
	X, Y, Z uint8
	C       byte // RGB332
}

const (
	pointSize = 4
	// maxPoints matches the sender's per-frame cap; anything larger is a
	// protocol violation, not a bigger display.
	maxPoints = 100000
	// maxZipped bounds the compressed payload. Worst case gzip expansion
	// over the point budget, rounded generously.
	maxZipped = maxPoints*pointSize + 1<<16
)

// WriteFrame emits one frame. Used by tests and Go-side senders.
func WriteFrame(w io.Writer, pts []Point) error {
	if len(pts) > maxPoints {
		return fmt.Errorf("%w: %d points", ErrBadFrame, len(pts))
	}
	raw := make([]byte, len(pts)*pointSize)
	for i, p := range pts {
		raw[i*4+0] = p.X
		raw[i*4+1] = p.Y
		raw[i*4+2] = p.Z
		raw[i*4+3] = p.C
	}
	var zipped bytes.Buffer
	zw := gzip.NewWriter(&zipped)
	if _, err := zw.Write(raw); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}

	hdr := make([]byte, 8)
	copy(hdr, frameMagic[:])
	binary.BigEndian.PutUint32(hdr[4:], uint32(zipped.Len()))
	if _, err := w.Write(hdr); err != nil {
		return err
	}
	_, err := w.Write(zipped.Bytes())
	return err
}

// ReadFrame reads one frame. io.EOF before any header byte means the
// stream ended cleanly between frames.
func ReadFrame(r io.Reader) ([]Point, error) {
	hdr := make([]byte, 8)
	if _, err := io.ReadFull(r, hdr); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: truncated header: %v", ErrBadFrame, err)
	}
	if [4]byte(hdr[:4]) != frameMagic {
		return nil, fmt.Errorf("%w: bad magic % x", ErrBadFrame, hdr[:4])
	}
	zlen := binary.BigEndian.Uint32(hdr[4:])
	if zlen > maxZipped {
		return nil, fmt.Errorf("%w: %d compressed bytes", ErrBadFrame, zlen)
	}

	zipped := make([]byte, zlen)
	if _, err := io.ReadFull(r, zipped); err != nil {
		return nil, fmt.Errorf("%w: truncated payload: %v", ErrBadFrame, err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(zipped))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	raw, err := io.ReadAll(io.LimitReader(zr, maxPoints*pointSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	if err := zr.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	if len(raw) > maxPoints*pointSize || len(raw)%pointSize != 0 {
		return nil, fmt.Errorf("%w: %d decompressed bytes", ErrBadFrame, len(raw))
	}

	pts := make([]Point, len(raw)/pointSize)
	for i := range pts {
		pts[i] = Point{X: raw[i*4], Y: raw[i*4+1], Z: raw[i*4+2], C: raw[i*4+3]}
	}
	return pts, nil
}
