// Package netutil provides the small dialing helpers shared by the
// banner probe and the SSH transport: address family selection,
// host:port joining, and the default connect timeout.
package netutil

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds connects, handshakes, and per-message reads
// unless the operator overrides it. The OS socket default is
// effectively unbounded, which is useless against a target that
// silently drops packets.
const DefaultTimeout = 30 * time.Second

// Network returns the dial network for the requested address family.
// The ipv6 flag forces tcp6; otherwise the resolver picks.
func Network(ipv6 bool) string {
	if ipv6 {
		return "tcp6"
	}
	return "tcp"
}

// JoinHostPort joins host and port, bracketing IPv6 literals.
func JoinHostPort(host string, port int) string {
	return net.JoinHostPort(strings.Trim(host, "[]"), strconv.Itoa(port))
}

// Dial opens a TCP connection with a bounded connect timeout.
func Dial(ctx context.Context, network, addr string, timeout time.Duration) (net.Conn, error) {
	d := net.Dialer{Timeout: timeout}
	return d.DialContext(ctx, network, addr)
}
