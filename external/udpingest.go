// udpingest.go - UDP image-line ingest and reassembly

/*
Sp3ctra - real-time additive synthesis engine
Copyright (C) 2026 Ondulab
License: GPLv3 or later
*/

package external

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/charmbracelet/log"
)

// Packet type byte values recognized on the wire (§6 UDP wire protocol).
const (
	PacketTypeImageData byte = 0x01
	PacketTypeIMUData   byte = 0x02
)

// packetHeaderLen is the fixed-layout header size: 1 type byte + 2-byte
// big-endian fragment index.
const packetHeaderLen = 3

// Line is one fully reassembled image line: three equal-length byte
// slices of raw pixel intensities.
type Line struct {
	R, G, B []byte
}

// LineAssembler reassembles a full image line from N_fragments consecutive
// UDP datagrams. A full line is a function of (dpi, pixelsPerFragment,
// fragmentsPerLine), with pixelsPerLine in {1728, 3456} (§6). The assembler
// is not reliability-aware: Reset clears only the seen-fragment flags, so
// a missing fragment's span keeps the bytes last written there (zero
// before the first write). UDPSource.ReceiveLine waits until every
// fragment has arrived (§7 UDP/ingest failures -- not the core's concern).
type LineAssembler struct {
	PixelsPerFragment int
	FragmentsPerLine  int

	r, g, b []byte
	seen    []bool
}

// NewLineAssembler builds an assembler for the given fragment geometry.
func NewLineAssembler(pixelsPerFragment, fragmentsPerLine int) *LineAssembler {
	n := pixelsPerFragment * fragmentsPerLine
	return &LineAssembler{
		PixelsPerFragment: pixelsPerFragment,
		FragmentsPerLine:  fragmentsPerLine,
		r:                 make([]byte, n),
		g:                 make([]byte, n),
		b:                 make([]byte, n),
		seen:              make([]bool, fragmentsPerLine),
	}
}

// Reset clears the seen-fragment tracking for the next line.
func (a *LineAssembler) Reset() {
	for i := range a.seen {
		a.seen[i] = false
	}
}

// Complete reports whether every fragment of the current line has arrived.
func (a *LineAssembler) Complete() bool {
	for _, s := range a.seen {
		if !s {
			return false
		}
	}
	return true
}

// AddFragment writes one fragment's RGB payload into the assembler at its
// declared index. payload must hold exactly 3*PixelsPerFragment bytes
// (R, G, B planes concatenated).
func (a *LineAssembler) AddFragment(fragmentIndex int, payload []byte) error {
	if fragmentIndex < 0 || fragmentIndex >= a.FragmentsPerLine {
		return fmt.Errorf("external: fragment index %d out of range [0,%d)", fragmentIndex, a.FragmentsPerLine)
	}
	want := 3 * a.PixelsPerFragment
	if len(payload) != want {
		return fmt.Errorf("external: fragment payload length %d, want %d", len(payload), want)
	}
	start := fragmentIndex * a.PixelsPerFragment
	copy(a.r[start:start+a.PixelsPerFragment], payload[0:a.PixelsPerFragment])
	copy(a.g[start:start+a.PixelsPerFragment], payload[a.PixelsPerFragment:2*a.PixelsPerFragment])
	copy(a.b[start:start+a.PixelsPerFragment], payload[2*a.PixelsPerFragment:3*a.PixelsPerFragment])
	a.seen[fragmentIndex] = true
	return nil
}

// Line returns the assembled line; spans of fragments not yet seen hold
// whatever was last written there.
func (a *LineAssembler) Line() Line {
	return Line{R: a.r, G: a.g, B: a.b}
}

// ParsePacket splits a raw datagram into its packet type, fragment index,
// and payload, per the fixed-layout header (§6).
func ParsePacket(datagram []byte) (packetType byte, fragmentIndex int, payload []byte, err error) {
	if len(datagram) < packetHeaderLen {
		return 0, 0, nil, fmt.Errorf("external: datagram too short (%d bytes)", len(datagram))
	}
	packetType = datagram[0]
	fragmentIndex = int(binary.BigEndian.Uint16(datagram[1:3]))
	payload = datagram[packetHeaderLen:]
	return packetType, fragmentIndex, payload, nil
}

// UDPSource listens for image-data datagrams and reassembles complete
// lines, handing each to onLine. UDP reliability is explicitly not the
// core's concern (§1 Non-goals); this is best-effort, lossy, and never
// blocks the synthesis pipeline waiting for a dropped fragment.
type UDPSource struct {
	conn      *net.UDPConn
	assembler *LineAssembler
	logger    *log.Logger
}

// NewUDPSource binds a UDP listener on addr and prepares a line assembler
// for the given fragment geometry.
func NewUDPSource(addr string, pixelsPerFragment, fragmentsPerLine int, logger *log.Logger) (*UDPSource, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("external: resolve %q: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("external: listen %q: %w", addr, err)
	}
	return &UDPSource{
		conn:      conn,
		assembler: NewLineAssembler(pixelsPerFragment, fragmentsPerLine),
		logger:    logger,
	}, nil
}

// Close releases the underlying socket.
func (s *UDPSource) Close() error {
	return s.conn.Close()
}

// ReceiveLine blocks for datagrams until a full line is assembled, then
// returns its R/G/B planes. IMU-data packets are skipped (out of scope for
// this spec). Satisfies synth.ImageSource.
func (s *UDPSource) ReceiveLine(buf []byte) (r, g, b []byte, err error) {
	s.assembler.Reset()
	for !s.assembler.Complete() {
		n, _, readErr := s.conn.ReadFromUDP(buf)
		if readErr != nil {
			return nil, nil, nil, readErr
		}
		packetType, fragIdx, payload, parseErr := ParsePacket(buf[:n])
		if parseErr != nil {
			if s.logger != nil {
				s.logger.Warn("dropping malformed datagram", "err", parseErr)
			}
			continue
		}
		if packetType != PacketTypeImageData {
			continue
		}
		if addErr := s.assembler.AddFragment(fragIdx, payload); addErr != nil {
			if s.logger != nil {
				s.logger.Warn("dropping fragment", "err", addErr)
			}
		}
	}
	line := s.assembler.Line()
	return line.R, line.G, line.B, nil
}
