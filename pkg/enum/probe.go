package enum

import (
	"bufio"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sshenum/sshenum/internal/netutil"
)

// openSSHVersion matches the version token in banners like
// "SSH-2.0-OpenSSH_7.2p2 Ubuntu-4ubuntu2.4".
var openSSHVersion = regexp.MustCompile(`-OpenSSH_(\d+\.\d+)`)

// ProbeResult is advisory output only: it tells the operator whether
// the target advertises a version in the affected range. It feeds
// nothing in the enumeration pipeline.
type ProbeResult struct {
	Banner  string
	Version string
	Known   bool

	// LikelyVulnerable is true for advertised OpenSSH versions
	// through 7.7, the range affected by the parsing-order defect.
	LikelyVulnerable bool
}

// ParseBanner extracts the OpenSSH version token from a server
// version banner.
func ParseBanner(banner string) ProbeResult {
	res := ProbeResult{Banner: strings.TrimRight(banner, "\r\n")}

	m := openSSHVersion.FindStringSubmatch(res.Banner)
	if m == nil {
		return res
	}
	res.Version = m[1]

	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return res
	}
	res.Known = true
	res.LikelyVulnerable = v <= 7.7
	return res
}

// Probe opens a throwaway connection, reads the server's version
// banner, and parses it. The connection is closed without ever
// starting a handshake.
func Probe(ctx context.Context, cfg Config, timeout time.Duration) (ProbeResult, error) {
	conn, err := netutil.Dial(ctx, netutil.Network(cfg.IPv6), cfg.Addr(), timeout)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("banner probe: %w", err)
	}
	defer conn.Close()

	if timeout > 0 {
		conn.SetReadDeadline(time.Now().Add(timeout))
	}
	banner, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return ProbeResult{}, fmt.Errorf("banner probe: reading banner: %w", err)
	}
	return ParseBanner(banner), nil
}
