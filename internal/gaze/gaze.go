// Package gaze receives gaze-tracker fixation points.
//
// A gaze bridge (for example a Tobii stream exporter) sends one JSON datagram
// per sample:
//
//	{"x": 812.4, "y": 433.1, "valid": true}
//
// with x and y in screen pixels. Samples with "valid": false (eyes not found)
// are dropped.
package gaze

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"net"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/vedantwpatil/precision-mouse/internal/latest"
	"github.com/vedantwpatil/precision-mouse/internal/logging"
)

// DefaultAddr is where the stream is expected when nothing is configured.
const DefaultAddr = "127.0.0.1:5555"

// Sample is one gaze fixation.
type Sample struct {
	Point image.Point
	// Seq increases by one for every accepted sample.
	Seq uint64
	At  time.Time
}

// Stream is anything producing gaze samples.
type Stream interface {
	Latest() (Sample, bool)
	Connected() bool
}

// UDPSource listens for gaze datagrams.
type UDPSource struct {
	addr   string
	logger *slog.Logger
	clock  func() time.Time

	sample latest.Value[Sample]

	mu     sync.Mutex
	conn   net.PacketConn
	done   chan struct{}
	seq    uint64
	failed error
}

// NewUDPSource creates a source for addr. Call Open to start receiving.
func NewUDPSource(addr string, logger *slog.Logger) *UDPSource {
	if addr == "" {
		addr = DefaultAddr
	}
	return &UDPSource{addr: addr, logger: logging.OrDiscard(logger), clock: time.Now}
}

// Open binds the socket.
func (s *UDPSource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return nil
	}
	conn, err := net.ListenPacket("udp", s.addr)
	if err != nil {
		return fmt.Errorf("listen for gaze samples on %s: %w", s.addr, err)
	}
	s.conn = conn
	s.done = make(chan struct{})
	s.failed = nil
	s.sample.Reset()
	go s.readLoop(conn, s.done)
	return nil
}

// LocalAddr returns the bound address, or nil when closed.
func (s *UDPSource) LocalAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

func (s *UDPSource) readLoop(conn net.PacketConn, done chan struct{}) {
	defer close(done)

	buf := make([]byte, 2048)
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				s.mu.Lock()
				s.failed = err
				s.mu.Unlock()
				s.logger.Warn("gaze stream failed", "addr", s.addr, "error", err)
			}
			return
		}
		p, ok, err := ParseDatagram(buf[:n])
		if err != nil {
			s.logger.Debug("skipping gaze datagram", "error", err)
			continue
		}
		if !ok {
			continue
		}
		s.mu.Lock()
		s.seq++
		seq := s.seq
		s.mu.Unlock()
		s.sample.Store(Sample{Point: p, Seq: seq, At: s.clock()})
	}
}

// Latest returns the most recent accepted sample.
func (s *UDPSource) Latest() (Sample, bool) {
	return s.sample.Load()
}

// Connected reports whether the socket is open and healthy.
func (s *UDPSource) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil && s.failed == nil
}

// Close releases the socket.
func (s *UDPSource) Close() error {
	s.mu.Lock()
	conn, done := s.conn, s.done
	s.conn = nil
	s.mu.Unlock()

	if conn == nil {
		return nil
	}
	err := conn.Close()
	<-done
	return err
}

// ParseDatagram extracts the gaze point. ok is false for samples the tracker
// marked invalid.
func ParseDatagram(b []byte) (p image.Point, ok bool, err error) {
	if !gjson.ValidBytes(b) {
		return image.Point{}, false, errors.New("gaze datagram is not valid JSON")
	}
	res := gjson.GetManyBytes(b, "x", "y", "valid")
	x, y, valid := res[0], res[1], res[2]
	if valid.Exists() && !valid.Bool() {
		return image.Point{}, false, nil
	}
	if x.Type != gjson.Number || y.Type != gjson.Number {
		return image.Point{}, false, errors.New("gaze datagram needs numeric x and y")
	}
	return image.Pt(int(math.Round(x.Float())), int(math.Round(y.Float()))), true, nil
}
