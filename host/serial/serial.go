package serial

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"sync"
)

// Port is a serial connection to the focuser's debug console.
// Implementations:
// - Native serial (using github.com/tarm/serial)
// - LoopPort (in-memory, for tests)
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate of the debug UART; USB CDC ignores it
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns the focuser debug console settings
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
	}
}

// ReadLines calls fn for every complete line read from r until r returns an
// error or fn returns false. Carriage returns are stripped. Returns nil on EOF.
func ReadLines(r io.Reader, fn func(line string) bool) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if !fn(strings.TrimRight(sc.Text(), "\r")) {
			return nil
		}
	}
	return sc.Err()
}

// LoopPort is an in-memory Port: reads drain the bytes given to Feed, writes are recorded
type LoopPort struct {
	mu      sync.Mutex
	in      bytes.Buffer
	written bytes.Buffer
	closed  bool
}

// NewLoopPort creates an empty in-memory port
func NewLoopPort() *LoopPort {
	return &LoopPort{}
}

// Feed queues data for Read
func (p *LoopPort) Feed(data string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.in.WriteString(data)
}

func (p *LoopPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	return p.in.Read(b)
}

func (p *LoopPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	return p.written.Write(b)
}

func (p *LoopPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *LoopPort) Flush() error {
	return nil
}

// Written returns everything written to the port
func (p *LoopPort) Written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.String()
}
