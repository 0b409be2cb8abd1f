// Package probe checks whether TCP endpoints accept connections.
// Results are advisory: filtered ports read as unreachable.
package probe

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// MaxScanSpan is the largest end-start difference Scan accepts.
	MaxScanSpan = 50

	DefaultConnectTimeout = 5 * time.Second
	DefaultScanTimeout    = 500 * time.Millisecond

	maxBannerLen = 255
)

var (
	// ErrRangeTooLarge is returned when a scan spans more than MaxScanSpan ports.
	ErrRangeTooLarge = errors.New("port range too large")
	// ErrInvalidRange is returned for inverted ranges or ports outside 1..65535.
	ErrInvalidRange = errors.New("invalid port range")
)

// Result is the outcome of one connection attempt.
type Result struct {
	Host        string        `json:"host"`
	Port        int           `json:"port"`
	Reachable   bool          `json:"reachable"`
	ErrorDetail string        `json:"error_detail,omitempty"`
	Banner      string        `json:"banner,omitempty"`
	Latency     time.Duration `json:"latency"`
}

// Address returns host:port.
func (r Result) Address() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// Prober dials TCP endpoints with bounded timeouts.
type Prober struct {
	connectTimeout time.Duration
	scanTimeout    time.Duration
}

// New creates a Prober. Non-positive timeouts fall back to the defaults.
func New(connectTimeout, scanTimeout time.Duration) *Prober {
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	if scanTimeout <= 0 {
		scanTimeout = DefaultScanTimeout
	}
	return &Prober{connectTimeout: connectTimeout, scanTimeout: scanTimeout}
}

// ConnectTimeout is the timeout used when a caller passes zero.
func (p *Prober) ConnectTimeout() time.Duration { return p.connectTimeout }

// ScanTimeout is the per-port timeout used when a caller passes zero.
func (p *Prober) ScanTimeout() time.Duration { return p.scanTimeout }

// Probe attempts one TCP connection. It never fails: refusal, timeout, DNS
// errors and cancellation all yield Reachable=false with ErrorDetail set.
func (p *Prober) Probe(ctx context.Context, host string, port int, timeout time.Duration) Result {
	conn, res := p.dial(ctx, host, port, timeout)
	if conn != nil {
		conn.Close()
	}
	return res
}

// Identify probes host:port and, when the connect succeeds, reads the
// server identification line (e.g. "SSH-2.0-OpenSSH_9.6") within the same
// deadline. A missing banner leaves the result reachable.
func (p *Prober) Identify(ctx context.Context, host string, port int, timeout time.Duration) Result {
	if timeout <= 0 {
		timeout = p.connectTimeout
	}
	start := time.Now()
	conn, res := p.dial(ctx, host, port, timeout)
	if conn == nil {
		return res
	}
	defer conn.Close()

	remaining := timeout - time.Since(start)
	if remaining <= 0 {
		return res
	}
	conn.SetReadDeadline(time.Now().Add(remaining))

	line, err := bufio.NewReaderSize(conn, maxBannerLen+1).ReadString('\n')
	if len(line) > maxBannerLen {
		line = line[:maxBannerLen]
	}
	res.Banner = strings.TrimSpace(line)
	if err != nil && res.Banner == "" {
		log.Debug().Str("addr", res.Address()).Err(err).Msg("No banner received")
	}
	return res
}

func (p *Prober) dial(ctx context.Context, host string, port int, timeout time.Duration) (net.Conn, Result) {
	if timeout <= 0 {
		timeout = p.connectTimeout
	}
	res := Result{Host: host, Port: port}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	var d net.Dialer
	conn, err := d.DialContext(dialCtx, "tcp", res.Address())
	res.Latency = time.Since(start)
	if err != nil {
		res.ErrorDetail = describe(err, timeout)
		return nil, res
	}
	res.Reachable = true
	return conn, res
}

// CheckRange validates a scan range without dialing anything.
func CheckRange(start, end int) error {
	if start < 1 || end > 65535 || start > end {
		return fmt.Errorf("%w: %d-%d", ErrInvalidRange, start, end)
	}
	if end-start > MaxScanSpan {
		return fmt.Errorf("%w: %d-%d spans %d ports, maximum is %d", ErrRangeTooLarge, start, end, end-start, MaxScanSpan)
	}
	return nil
}

// Scan probes every port in [start, end] in ascending order and returns the
// reachable ones. Ranges wider than MaxScanSpan are rejected before any
// connection is attempted.
func (p *Prober) Scan(ctx context.Context, host string, start, end int, perPort time.Duration) ([]Result, error) {
	if err := CheckRange(start, end); err != nil {
		return nil, err
	}
	if perPort <= 0 {
		perPort = p.scanTimeout
	}

	var open []Result
	for port := start; port <= end; port++ {
		res := p.Probe(ctx, host, port, perPort)
		if res.Reachable {
			open = append(open, res)
		}
	}

	log.Debug().
		Str("host", host).
		Int("start", start).
		Int("end", end).
		Int("open", len(open)).
		Msg("Port scan finished")

	return open, nil
}

func describe(err error, timeout time.Duration) string {
	var dnsErr *net.DNSError
	switch {
	case errors.As(err, &dnsErr):
		return fmt.Sprintf("DNS lookup failed: %s", dnsErr.Err)
	case errors.Is(err, context.DeadlineExceeded), isTimeout(err):
		return fmt.Sprintf("timed out after %v", timeout)
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return err.Error()
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
