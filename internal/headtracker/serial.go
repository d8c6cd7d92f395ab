package headtracker

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"go.bug.st/serial"

	"github.com/vedantwpatil/precision-mouse/internal/logging"
)

// DefaultBaudRate matches the common Arduino head-tracker firmware.
const DefaultBaudRate = 115200

// PortOpener opens a serial port. Tests replace it to avoid hardware.
type PortOpener func(path string, mode *serial.Mode) (io.ReadWriteCloser, error)

func openSerialPort(path string, mode *serial.Mode) (io.ReadWriteCloser, error) {
	return serial.Open(path, mode)
}

// SerialClient reads line-oriented samples from a serial head tracker. Each
// line holds "yaw pitch x y" in degrees and millimetres, separated by commas
// or whitespace.
type SerialClient struct {
	path   string
	mode   *serial.Mode
	opener PortOpener
	logger *slog.Logger

	feed

	portMu sync.Mutex
	port   io.ReadWriteCloser
	done   chan struct{}
}

// SerialOption configures a SerialClient.
type SerialOption func(*SerialClient)

// WithPortOpener replaces the function used to open the port.
func WithPortOpener(open PortOpener) SerialOption {
	return func(c *SerialClient) { c.opener = open }
}

// WithSerialLogger sets the logger for malformed-line diagnostics.
func WithSerialLogger(logger *slog.Logger) SerialOption {
	return func(c *SerialClient) { c.logger = logger }
}

// NewSerialClient creates a client for the port at path.
func NewSerialClient(path string, baudRate int, opts ...SerialOption) *SerialClient {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	c := &SerialClient{
		path: path,
		mode: &serial.Mode{
			BaudRate: baudRate,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		},
		opener: openSerialPort,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open opens the port and starts reading samples.
func (c *SerialClient) Open() error {
	c.portMu.Lock()
	defer c.portMu.Unlock()

	if c.port != nil {
		return nil
	}
	port, err := c.opener(c.path, c.mode)
	if err != nil {
		return fmt.Errorf("open serial head tracker %s: %w", c.path, err)
	}
	c.port = port
	c.done = make(chan struct{})
	c.start()
	go c.readLoop(port, c.done)
	return nil
}

func (c *SerialClient) readLoop(port io.Reader, done chan struct{}) {
	defer close(done)

	scan := bufio.NewScanner(port)
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		if line == "" {
			continue
		}
		pose, err := ParseLine(line)
		if err != nil {
			c.logger.Debug("skipping head tracker line", "line", line, "error", err)
			continue
		}
		c.pose.Store(pose)
	}
	err := scan.Err()
	if err == nil {
		err = io.EOF
	}
	c.fail(fmt.Errorf("serial head tracker %s: %w", c.path, err))
}

// Read returns the latest pose.
func (c *SerialClient) Read() (Pose, error) {
	return c.read()
}

// Close closes the port and waits for the reader to exit.
func (c *SerialClient) Close() error {
	c.portMu.Lock()
	port, done := c.port, c.done
	c.port = nil
	c.portMu.Unlock()

	if port == nil {
		return nil
	}
	c.stop()
	err := port.Close()
	<-done
	return err
}

// ParseLine decodes one "yaw pitch x y" sample.
func ParseLine(line string) (Pose, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == ';'
	})
	if len(fields) != 4 {
		return Pose{}, fmt.Errorf("expected 4 fields, got %d", len(fields))
	}
	var vals [4]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Pose{}, fmt.Errorf("field %d: %w", i, err)
		}
		vals[i] = v
	}
	return FromDegrees(vals[0], vals[1], vals[2], vals[3]), nil
}
