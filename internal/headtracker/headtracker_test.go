package headtracker

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

func encodeOpentrack(x, y, z, yaw, pitch, roll float64) []byte {
	b := make([]byte, OpentrackPacketSize)
	for i, f := range []float64{x, y, z, yaw, pitch, roll} {
		binary.LittleEndian.PutUint64(b[i*8:], math.Float64bits(f))
	}
	return b
}

type pipePort struct {
	*io.PipeReader
}

func (pipePort) Write(b []byte) (int, error) { return len(b), nil }

func TestFromDegrees(t *testing.T) {
	p := FromDegrees(180, -90, 500, 0)
	assert.InDelta(t, AxisRange, p.Yaw, 1e-9)
	assert.InDelta(t, -AxisRange/2, p.Pitch, 1e-9)
	assert.InDelta(t, AxisRange, p.X, 1e-9)
	assert.Zero(t, p.Y)
}

func TestPoseTranslationMirrorsAxes(t *testing.T) {
	p := Pose{X: 30.7, Y: -12.2}
	assert.Equal(t, image.Pt(-30, 12), p.Translation())
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line    string
		want    Pose
		wantErr bool
	}{
		{line: "0,0,0,0", want: Pose{}},
		{line: "90 -45\t0;0", want: FromDegrees(90, -45, 0, 0)},
		{line: "1.5, 2.5, 10, -10", want: FromDegrees(1.5, 2.5, 10, -10)},
		{line: "1,2,3", wantErr: true},
		{line: "a,b,c,d", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSerialClientReadsLatestLine(t *testing.T) {
	r, w := io.Pipe()
	var gotPath string
	var gotMode *serial.Mode
	client := NewSerialClient("/dev/ttyUSB0", 0, WithPortOpener(func(path string, mode *serial.Mode) (io.ReadWriteCloser, error) {
		gotPath, gotMode = path, mode
		return pipePort{r}, nil
	}))

	_, err := client.Read()
	assert.ErrorIs(t, err, ErrNotOpen)

	require.NoError(t, client.Open())
	assert.Equal(t, "/dev/ttyUSB0", gotPath)
	assert.Equal(t, DefaultBaudRate, gotMode.BaudRate)

	_, err = client.Read()
	assert.ErrorIs(t, err, ErrNoData)

	_, err = fmt.Fprint(w, "garbage\n10,5,0,0\n20,-5,1,1\n")
	require.NoError(t, err)

	want := FromDegrees(20, -5, 1, 1)
	assert.Eventually(t, func() bool {
		got, err := client.Read()
		return err == nil && got == want
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, client.Close())
	_, err = client.Read()
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestSerialClientReportsUnplug(t *testing.T) {
	r, w := io.Pipe()
	client := NewSerialClient("/dev/ttyACM0", 9600, WithPortOpener(func(string, *serial.Mode) (io.ReadWriteCloser, error) {
		return pipePort{r}, nil
	}))
	require.NoError(t, client.Open())
	defer client.Close()

	w.CloseWithError(errors.New("device removed"))

	assert.Eventually(t, func() bool {
		_, err := client.Read()
		return err != nil && !errors.Is(err, ErrNoData) && !errors.Is(err, ErrNotOpen)
	}, time.Second, 5*time.Millisecond)
}

func TestSerialClientOpenError(t *testing.T) {
	client := NewSerialClient("/dev/missing", 9600, WithPortOpener(func(string, *serial.Mode) (io.ReadWriteCloser, error) {
		return nil, errors.New("no such file")
	}))
	err := client.Open()
	assert.ErrorContains(t, err, "/dev/missing")
	assert.NoError(t, client.Close())
}

func TestDecodeOpentrack(t *testing.T) {
	pose, err := DecodeOpentrack(encodeOpentrack(1, 2, 3, 45, -30, 0))
	require.NoError(t, err)
	assert.Equal(t, FromDegrees(45, -30, 10, 20), pose)

	_, err = DecodeOpentrack(make([]byte, 10))
	assert.Error(t, err)
}

func TestUDPClientReceivesDatagrams(t *testing.T) {
	client := NewUDPClient("127.0.0.1:0", nil)
	require.NoError(t, client.Open())
	defer client.Close()

	conn, err := net.Dial("udp", client.LocalAddr().String())
	require.NoError(t, err)
	defer conn.Close()

	want := FromDegrees(-12, 8, 0, 0)
	assert.Eventually(t, func() bool {
		_, _ = conn.Write([]byte("short"))
		_, _ = conn.Write(encodeOpentrack(0, 0, 0, -12, 8, 0))
		got, err := client.Read()
		return err == nil && got == want
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, client.Close())
	assert.Nil(t, client.LocalAddr())
	_, err = client.Read()
	assert.ErrorIs(t, err, ErrNotOpen)
}
