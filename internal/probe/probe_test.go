package probe

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listen starts a loopback listener that accepts connections and writes
// banner (if any) to each one.
func listen(t *testing.T, banner string) (string, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			if banner != "" {
				conn.Write([]byte(banner))
			}
			conn.Close()
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port
}

// closedPort returns a loopback port with nothing listening on it.
func closedPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

func TestProbe(t *testing.T) {
	p := New(time.Second, 200*time.Millisecond)

	t.Run("reachable", func(t *testing.T) {
		host, port := listen(t, "")
		res := p.Probe(context.Background(), host, port, time.Second)
		assert.True(t, res.Reachable)
		assert.Empty(t, res.ErrorDetail)
		assert.Equal(t, port, res.Port)
	})

	t.Run("refused", func(t *testing.T) {
		port := closedPort(t)
		res := p.Probe(context.Background(), "127.0.0.1", port, time.Second)
		assert.False(t, res.Reachable)
		assert.NotEmpty(t, res.ErrorDetail)
	})

	t.Run("cancelled context", func(t *testing.T) {
		host, port := listen(t, "")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res := p.Probe(ctx, host, port, time.Second)
		assert.False(t, res.Reachable)
		assert.NotEmpty(t, res.ErrorDetail)
	})

	t.Run("unresolvable host stays within timeout", func(t *testing.T) {
		start := time.Now()
		res := p.Probe(context.Background(), "host.invalid", 22, 500*time.Millisecond)
		assert.False(t, res.Reachable)
		assert.NotEmpty(t, res.ErrorDetail)
		assert.Less(t, time.Since(start), 2*time.Second)
	})
}

func TestIdentify(t *testing.T) {
	p := New(time.Second, 0)

	t.Run("reads banner", func(t *testing.T) {
		host, port := listen(t, "SSH-2.0-OpenSSH_9.6\r\n")
		res := p.Identify(context.Background(), host, port, time.Second)
		assert.True(t, res.Reachable)
		assert.Equal(t, "SSH-2.0-OpenSSH_9.6", res.Banner)
	})

	t.Run("silent server stays reachable", func(t *testing.T) {
		host, port := listen(t, "")
		res := p.Identify(context.Background(), host, port, 300*time.Millisecond)
		assert.True(t, res.Reachable)
		assert.Empty(t, res.Banner)
	})

	t.Run("unreachable", func(t *testing.T) {
		res := p.Identify(context.Background(), "127.0.0.1", closedPort(t), time.Second)
		assert.False(t, res.Reachable)
		assert.Empty(t, res.Banner)
	})
}

func TestCheckRange(t *testing.T) {
	testCases := []struct {
		desc       string
		start, end int
		want       error
	}{
		{"span 50 accepted", 20, 70, nil},
		{"single port", 22, 22, nil},
		{"span 60 rejected", 20, 80, ErrRangeTooLarge},
		{"span 51 rejected", 1, 52, ErrRangeTooLarge},
		{"inverted", 80, 20, ErrInvalidRange},
		{"zero port", 0, 10, ErrInvalidRange},
		{"above max", 65530, 65536, ErrInvalidRange},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			err := CheckRange(tc.start, tc.end)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestScan(t *testing.T) {
	p := New(time.Second, 200*time.Millisecond)

	t.Run("rejects wide range without dialing", func(t *testing.T) {
		open, err := p.Scan(context.Background(), "127.0.0.1", 20, 80, 0)
		assert.ErrorIs(t, err, ErrRangeTooLarge)
		assert.Nil(t, open)
	})

	t.Run("returns only reachable ports", func(t *testing.T) {
		host, port := listen(t, "")
		start := port - 2
		if start < 1 {
			start = 1
		}
		open, err := p.Scan(context.Background(), host, start, port, 0)
		require.NoError(t, err)

		found := false
		for i, res := range open {
			assert.True(t, res.Reachable)
			if i > 0 {
				assert.Greater(t, res.Port, open[i-1].Port)
			}
			if res.Port == port {
				found = true
			}
		}
		assert.True(t, found, "listening port %d not reported", port)
	})
}

func TestNewDefaults(t *testing.T) {
	p := New(0, -1)
	assert.Equal(t, DefaultConnectTimeout, p.ConnectTimeout())
	assert.Equal(t, DefaultScanTimeout, p.ScanTimeout())
}
