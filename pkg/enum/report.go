package enum

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Reporter prints outcomes one line each. The prefixes are fixed so
// callers can parse the output mechanically regardless of coloring:
//
//	"[+] " valid username (always printed)
//	"[-] " invalid username (printed only when verbose)
//	"[!] " negotiation or connection diagnostics (always printed)
//
// Each outcome is written with a single Fprintf, so lines from
// concurrent attempts never interleave mid-line even if the process
// is killed partway through a run.
type Reporter struct {
	Out     io.Writer
	Verbose bool
}

// Report prints one outcome. Nothing is ever silently dropped: the
// only suppression is Invalid outcomes without verbose, which is the
// documented contract.
func (r *Reporter) Report(o Outcome) {
	switch o.Verdict {
	case VerdictValid:
		fmt.Fprintf(r.Out, "[+] %s found!\n", color.YellowString(o.Username))
	case VerdictInvalid:
		if r.Verbose {
			fmt.Fprintf(r.Out, "[-] %s not found\n", color.RedString(o.Username))
		}
	case VerdictNegotiationFailed:
		fmt.Fprintf(r.Out, "%s\n", color.RedString(
			"[!] SSH negotiation failed for user %s: %s", o.Username, o.Reason))
	case VerdictConnectionError:
		fmt.Fprintf(r.Out, "%s\n", color.RedString(
			"[!] connection error for user %s: %s", o.Username, o.Reason))
	}
}
