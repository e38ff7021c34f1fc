package enum

// Verdict is the per-candidate classification.
type Verdict int

const (
	// VerdictValid: the username exists on the target.
	VerdictValid Verdict = iota

	// VerdictInvalid: the username does not exist on the target.
	VerdictInvalid

	// VerdictNegotiationFailed: the SSH handshake or service
	// negotiation failed before the crafted request was sent.
	VerdictNegotiationFailed

	// VerdictConnectionError: the transport failed outright
	// (refused, reset, timed out) before or during the exchange.
	VerdictConnectionError
)

// String returns a short lower-case label for logs.
func (v Verdict) String() string {
	switch v {
	case VerdictValid:
		return "valid"
	case VerdictInvalid:
		return "invalid"
	case VerdictNegotiationFailed:
		return "negotiation-failed"
	case VerdictConnectionError:
		return "connection-error"
	default:
		return "unknown"
	}
}

// Outcome is the result of one enumeration attempt. Exactly one is
// produced per candidate per run.
type Outcome struct {
	Username string
	Verdict  Verdict

	// Reason carries diagnostic detail for NegotiationFailed and
	// ConnectionError outcomes. Empty for Valid and Invalid.
	Reason string
}
