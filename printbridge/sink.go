package printbridge

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"go.bug.st/serial"
)

// Sink is where a bridge printer's bytes end up
type Sink interface {
	Write(ctx context.Context, data []byte) error
	String() string
}

// TCPSink writes to a raw socket printer (JetDirect, port 9100)
type TCPSink struct {
	Addr    string
	Timeout time.Duration
}

func (s *TCPSink) Write(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", s.Addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetWriteDeadline(deadline)
	}
	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("failed to write to %s: %w", s.Addr, err)
	}
	return nil
}

func (s *TCPSink) String() string { return "tcp://" + s.Addr }

// SerialSink writes to a serial or Bluetooth SPP printer
type SerialSink struct {
	Port string
	Baud int
}

func (s *SerialSink) Write(_ context.Context, data []byte) error {
	port, err := serial.Open(s.Port, &serial.Mode{BaudRate: s.Baud})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", s.Port, err)
	}
	defer port.Close()

	for len(data) > 0 {
		n, err := port.Write(data)
		if err != nil {
			return fmt.Errorf("failed to write to serial port %s: %w", s.Port, err)
		}
		data = data[n:]
	}
	if err := port.Drain(); err != nil {
		return fmt.Errorf("failed to drain serial port %s: %w", s.Port, err)
	}
	return nil
}

func (s *SerialSink) String() string { return fmt.Sprintf("serial://%s?baud=%d", s.Port, s.Baud) }

// FileSink appends to a file: a USB line printer device (/dev/usb/lp0) or a spool file
type FileSink struct {
	Path string
}

func (s *FileSink) Write(_ context.Context, data []byte) error {
	f, err := os.OpenFile(s.Path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", s.Path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", s.Path, err)
	}
	return f.Close()
}

func (s *FileSink) String() string { return "file://" + s.Path }

// ParseTarget builds a sink from a printer target:
//
//	tcp://192.168.1.50:9100
//	serial:///dev/ttyUSB0?baud=19200   (serial://COM3 on Windows)
//	file:///dev/usb/lp0
func ParseTarget(target string) (Sink, error) {
	u, err := url.Parse(strings.TrimSpace(target))
	if err != nil {
		return nil, fmt.Errorf("invalid printer target %q: %w", target, err)
	}

	switch u.Scheme {
	case "tcp":
		if u.Host == "" {
			return nil, fmt.Errorf("printer target %q has no host", target)
		}
		addr := u.Host
		if u.Port() == "" {
			addr = net.JoinHostPort(u.Hostname(), "9100")
		}
		return &TCPSink{Addr: addr, Timeout: 10 * time.Second}, nil
	case "serial":
		port := u.Host + u.Path
		if port == "" {
			return nil, fmt.Errorf("printer target %q has no port", target)
		}
		baud := 9600
		if raw := u.Query().Get("baud"); raw != "" {
			baud, err = strconv.Atoi(raw)
			if err != nil || baud <= 0 {
				return nil, fmt.Errorf("printer target %q has an invalid baud rate", target)
			}
		}
		return &SerialSink{Port: port, Baud: baud}, nil
	case "file":
		if u.Path == "" {
			return nil, fmt.Errorf("printer target %q has no path", target)
		}
		return &FileSink{Path: u.Path}, nil
	default:
		return nil, fmt.Errorf("printer target %q: unsupported scheme %q", target, u.Scheme)
	}
}
