package health

import (
	"context"
	"net"
	"strconv"
	"time"
)

// Prober decides whether a frame management address is reachable.
type Prober interface {
	Probe(ctx context.Context, host string) Connectivity
}

// TCPProber opens and immediately closes a TCP connection.
type TCPProber struct {
	Port    int
	Timeout time.Duration
}

func NewTCPProber(port int, timeout time.Duration) *TCPProber {
	if port == 0 {
		port = 22
	}
	if timeout == 0 {
		timeout = 8 * time.Second
	}
	return &TCPProber{Port: port, Timeout: timeout}
}

func (p *TCPProber) Probe(ctx context.Context, host string) Connectivity {
	dialer := net.Dialer{Timeout: p.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(p.Port)))
	if err != nil {
		return Offline
	}
	conn.Close()
	return Online
}
