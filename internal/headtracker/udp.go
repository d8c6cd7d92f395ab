package headtracker

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"sync"

	"github.com/vedantwpatil/precision-mouse/internal/logging"
)

// OpentrackPacketSize is the length of an opentrack "UDP over network"
// datagram: six little-endian float64 values x, y, z (cm), yaw, pitch, roll
// (degrees).
const OpentrackPacketSize = 6 * 8

// DefaultUDPAddr is opentrack's default output port.
const DefaultUDPAddr = "127.0.0.1:4242"

// UDPClient receives poses from opentrack's UDP output.
type UDPClient struct {
	addr   string
	logger *slog.Logger

	feed

	connMu sync.Mutex
	conn   net.PacketConn
	done   chan struct{}
}

// NewUDPClient creates a client that listens on addr.
func NewUDPClient(addr string, logger *slog.Logger) *UDPClient {
	if addr == "" {
		addr = DefaultUDPAddr
	}
	return &UDPClient{addr: addr, logger: logging.OrDiscard(logger)}
}

// Open binds the socket and starts receiving.
func (c *UDPClient) Open() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != nil {
		return nil
	}
	conn, err := net.ListenPacket("udp", c.addr)
	if err != nil {
		return fmt.Errorf("listen for opentrack on %s: %w", c.addr, err)
	}
	c.conn = conn
	c.done = make(chan struct{})
	c.start()
	go c.readLoop(conn, c.done)
	return nil
}

// LocalAddr returns the bound address, or nil when closed.
func (c *UDPClient) LocalAddr() net.Addr {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == nil {
		return nil
	}
	return c.conn.LocalAddr()
}

func (c *UDPClient) readLoop(conn net.PacketConn, done chan struct{}) {
	defer close(done)

	buf := make([]byte, 512)
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				c.fail(fmt.Errorf("opentrack receive: %w", err))
			}
			return
		}
		pose, err := DecodeOpentrack(buf[:n])
		if err != nil {
			c.logger.Debug("skipping opentrack datagram", "size", n, "error", err)
			continue
		}
		c.pose.Store(pose)
	}
}

// Read returns the latest pose.
func (c *UDPClient) Read() (Pose, error) {
	return c.read()
}

// Close releases the socket.
func (c *UDPClient) Close() error {
	c.connMu.Lock()
	conn, done := c.conn, c.done
	c.conn = nil
	c.connMu.Unlock()

	if conn == nil {
		return nil
	}
	c.stop()
	err := conn.Close()
	<-done
	return err
}

// DecodeOpentrack parses one opentrack datagram.
func DecodeOpentrack(b []byte) (Pose, error) {
	if len(b) != OpentrackPacketSize {
		return Pose{}, fmt.Errorf("opentrack datagram is %d bytes, want %d", len(b), OpentrackPacketSize)
	}
	var v [6]float64
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	// centimetres to millimetres
	return FromDegrees(v[3], v[4], v[0]*10, v[1]*10), nil
}
