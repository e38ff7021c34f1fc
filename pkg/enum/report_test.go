package enum

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func reportAll(verbose bool, outcomes ...Outcome) []string {
	old := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = old }()

	var buf bytes.Buffer
	r := &Reporter{Out: &buf, Verbose: verbose}
	for _, o := range outcomes {
		r.Report(o)
	}
	if buf.Len() == 0 {
		return nil
	}
	return strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
}

func TestReporterPrefixes(t *testing.T) {
	lines := reportAll(true,
		Outcome{Username: "root", Verdict: VerdictValid},
		Outcome{Username: "bogus123", Verdict: VerdictInvalid},
		Outcome{Username: "web", Verdict: VerdictNegotiationFailed, Reason: "no common kex algorithm"},
		Outcome{Username: "db", Verdict: VerdictConnectionError, Reason: "connection refused"},
	)

	want := []string{
		"[+] root found!",
		"[-] bogus123 not found",
		"[!] SSH negotiation failed for user web: no common kex algorithm",
		"[!] connection error for user db: connection refused",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), strings.Join(lines, "\n"))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestReporterQuietHidesInvalidOnly(t *testing.T) {
	lines := reportAll(false,
		Outcome{Username: "root", Verdict: VerdictValid},
		Outcome{Username: "bogus123", Verdict: VerdictInvalid},
		Outcome{Username: "db", Verdict: VerdictConnectionError, Reason: "connection refused"},
	)

	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "[+] root found!") {
		t.Fatal("valid outcome missing without verbose")
	}
	if strings.Contains(joined, "bogus123") {
		t.Fatal("invalid outcome printed without verbose")
	}
	if !strings.Contains(joined, "[!] connection error for user db") {
		t.Fatal("diagnostic missing without verbose")
	}
}
