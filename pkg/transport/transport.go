package transport

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/sshenum/sshenum/internal/netutil"
	"github.com/sshenum/sshenum/pkg/enum"
)

// clientVersion is the version string announced to targets. It makes
// no attempt to masquerade: the tool sends one malformed packet and
// leaves, there is nothing to hide from a packet capture.
const clientVersion = "SSH-2.0-sshenum_0.1.0"

// Config configures the dialer. The zero value is usable: default
// timeout, any address family, silent logger.
type Config struct {
	// Timeout bounds the TCP connect, each handshake step, and each
	// packet read/write. Zero means netutil.DefaultTimeout (30s).
	Timeout time.Duration

	// Network is the dial network: "tcp", "tcp4", or "tcp6". Empty
	// means "tcp".
	Network string

	// Log receives handshake tracing at debug level. The zero
	// logger discards everything.
	Log zerolog.Logger
}

func (c Config) withDefaults() Config {
	if c.Timeout == 0 {
		c.Timeout = netutil.DefaultTimeout
	}
	if c.Network == "" {
		c.Network = "tcp"
	}
	return c
}

// Dialer opens SSH transport connections. It implements
// enum.Capability.
type Dialer struct {
	cfg Config
}

var _ enum.Capability = (*Dialer)(nil)

// NewDialer returns a Dialer with defaults applied.
func NewDialer(cfg Config) *Dialer {
	return &Dialer{cfg: cfg.withDefaults()}
}

// Open establishes the TCP connection. Failures here are connection
// errors by the capability contract.
func (d *Dialer) Open(ctx context.Context, addr string) (enum.Conn, error) {
	tcp, err := netutil.Dial(ctx, d.cfg.Network, addr, d.cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	return &Conn{
		tcp: tcp,
		br:  bufio.NewReader(tcp),
		cfg: d.cfg,
	}, nil
}

// Conn is an open TCP connection that has not yet spoken SSH.
type Conn struct {
	tcp net.Conn
	br  *bufio.Reader
	cfg Config
}

// Close releases the underlying connection.
func (c *Conn) Close() error {
	return c.tcp.Close()
}

// Session is a connection with completed key exchange.
type Session struct {
	tcp       net.Conn
	br        *bufio.Reader
	timeout   time.Duration
	sessionID []byte
	read      *cipherState
	write     *cipherState
}

var _ enum.Session = (*Session)(nil)

// SessionID returns the exchange hash of the completed key exchange.
func (s *Session) SessionID() []byte {
	return s.sessionID
}

// WritePacket encrypts and sends one message payload.
func (s *Session) WritePacket(payload []byte) error {
	s.tcp.SetWriteDeadline(s.deadline())
	return s.write.writePacket(s.tcp, payload)
}

// ReadPacket receives and decrypts the next message payload. A
// server-sent DISCONNECT is a payload like any other; errors mean the
// transport itself failed.
func (s *Session) ReadPacket() ([]byte, error) {
	s.tcp.SetReadDeadline(s.deadline())
	return s.read.readPacket(s.br)
}

// Close releases the underlying connection.
func (s *Session) Close() error {
	return s.tcp.Close()
}

func (s *Session) deadline() time.Time {
	if s.timeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(s.timeout)
}
