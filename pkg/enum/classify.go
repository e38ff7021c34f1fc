package enum

import (
	"errors"

	"github.com/sshenum/sshenum/pkg/wire"
)

// EDUCATIONAL: Reading the Server's Two Failure Paths
//
// After the truncated publickey request is sent, a vulnerable server
// takes one of two code paths:
//
//	Client                                     Server (OpenSSH <= 7.7)
//	   |                                          |
//	   |  USERAUTH_REQUEST (has-signature absent) |
//	   |----------------------------------------->|
//	   |                                          |
//	   |             user unknown: bail out early |
//	   |  USERAUTH_FAILURE                        |
//	   |<-----------------------------------------|   => Invalid
//	   |                                          |
//	   |        user known: parse the full packet |
//	   |        ... which is truncated -> fatal() |
//	   |  DISCONNECT ("Packet corrupt")           |
//	   |<-----------------------------------------|   => Valid
//
// The signal is purely which message arrives, never how long it
// takes. Patched servers parse the packet before validating the user
// and disconnect for everyone, which shows up as Valid for every
// candidate: the version probe exists to warn the operator about that
// case up front.

// Classify maps the server's reaction to the malformed request onto a
// Verdict. reply is the first significant message received after the
// request (banners and keepalives already skipped); transportErr is
// the failure that prevented such a message from arriving. Exactly
// one of the two is meaningful. Classify is a pure function: it
// inspects only its arguments.
func Classify(reply wire.Message, transportErr error) Verdict {
	if transportErr != nil {
		if errors.Is(transportErr, ErrNegotiation) {
			return VerdictNegotiationFailed
		}
		// Refused, reset, timed out, or EOF without a DISCONNECT:
		// the target never took a classifiable failure path. This
		// must not read as Invalid.
		return VerdictConnectionError
	}

	switch reply.(type) {
	case *wire.UserauthFailure:
		// Early bailout before the truncated tail was parsed.
		return VerdictInvalid
	case *wire.Disconnect:
		// Full parse attempted for an existing account and died on
		// the truncation.
		return VerdictValid
	case *wire.UserauthSuccess:
		// Only possible against a server accepting the key without
		// a signature. The account certainly exists.
		return VerdictValid
	default:
		// A reply outside the authentication flow; report it as a
		// negotiation-level anomaly rather than guessing.
		return VerdictNegotiationFailed
	}
}
