package main

import (
	"fmt"
	"os"

	"github.com/mjwhitta/cli"
)

// Version info
var version = "0.1.0"

// Exit codes
const (
	ExitSuccess = iota
	ExitError
	ExitMissingArg
)

// Global flags
var flags struct {
	port     int
	threads  int
	verbose  bool
	ipv6     bool
	wordlist string
	username string
	timeout  int
	debug    bool
}

// Target host
var hostname string

func init() {
	// Configure cli
	cli.Align = true
	cli.Authors = []string{"sshenum authors"}
	cli.Banner = fmt.Sprintf("%s [OPTIONS] <hostname>", os.Args[0])
	cli.Info(
		"sshenum "+version+" - OpenSSH username enumeration (CVE-2018-15473)",
		"",
		"Determines which candidate usernames exist on a target by",
		"sending a truncated publickey authentication request and",
		"observing which of two failure paths the server takes.",
		"Affects OpenSSH through 7.7.",
		"",
		"Output prefixes are fixed for machine parsing:",
		"  [+]  valid username (always printed)",
		"  [-]  invalid username (printed with --verbose)",
		"  [!]  negotiation/connection diagnostics (always printed)",
	)
	cli.ExitStatus(
		"0 - Success",
		"1 - Error",
		"2 - Missing or invalid argument",
	)

	// Define flags (short, long, default, description)
	cli.Flag(&flags.port, "p", "port", 22, "SSH port")
	cli.Flag(&flags.threads, "t", "threads", 4, "Number of concurrent workers")
	cli.Flag(&flags.verbose, "v", "verbose", false, "Print invalid usernames too")
	cli.Flag(&flags.ipv6, "6", "ipv6", false, "Target is an IPv6 address")
	cli.Flag(&flags.wordlist, "w", "wordlist", "", "Path to username wordlist")
	cli.Flag(&flags.username, "u", "username", "", "A single username to test")
	cli.Flag(&flags.timeout, "T", "timeout", 30, "Connect/read timeout in seconds")
	cli.Flag(&flags.debug, "d", "debug", false, "Trace the SSH exchange to stderr")

	cli.Parse()

	if cli.NArg() != 1 {
		cli.Usage(ExitMissingArg)
	}
	hostname = cli.Arg(0)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
