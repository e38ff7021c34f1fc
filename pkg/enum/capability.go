package enum

import (
	"context"
	"errors"
)

// Sentinel errors for the capability contract and the request
// builder. Implementations wrap these with fmt.Errorf and %w so
// callers can classify with errors.Is while still seeing the
// underlying detail.
var (
	// ErrNegotiation marks a protocol-level handshake failure:
	// version mismatch, no common algorithms, a rejected service
	// request. Transport-level failures (refused, reset, timeout)
	// are deliberately NOT wrapped in it.
	ErrNegotiation = errors.New("ssh negotiation failed")

	// ErrKeyGeneration marks a local failure to produce ephemeral
	// key material.
	ErrKeyGeneration = errors.New("ephemeral key generation failed")

	// ErrEncoding marks a request that cannot be built, such as a
	// missing session identifier. It indicates a bug in the caller,
	// not a property of the target.
	ErrEncoding = errors.New("cannot encode authentication request")
)

// Capability is the SSH client capability the enumeration core
// consumes. It deliberately stops at raw message exchange: the core
// needs to send one non-conformant packet and observe which failure
// path the server takes, nothing more.
//
// The contract any substitute implementation must preserve: a
// server's structural rejection of a request (DISCONNECT) and its
// ordinary authentication failure (USERAUTH_FAILURE) must arrive as
// distinguishable messages from ReadPacket, never be collapsed into a
// generic error. The whole classifier rests on that distinction.
type Capability interface {
	// Open establishes a transport connection to addr. Errors from
	// Open are connection errors by definition.
	Open(ctx context.Context, addr string) (Conn, error)
}

// Conn is an open but not yet negotiated transport connection.
type Conn interface {
	// Handshake performs version exchange and key exchange.
	// Protocol-level failures wrap ErrNegotiation; anything else is
	// treated as a connection error.
	Handshake(ctx context.Context) (Session, error)

	// Close releases the connection. Safe to call after Handshake
	// regardless of its outcome.
	Close() error
}

// Session is a connection with completed key exchange, exchanging
// encrypted message payloads.
type Session interface {
	// SessionID returns the session identifier derived from key
	// exchange. Non-empty once the handshake has completed.
	SessionID() []byte

	// WritePacket sends one message payload.
	WritePacket(payload []byte) error

	// ReadPacket returns the next message payload. A server-sent
	// DISCONNECT is returned as a payload, not an error; an error
	// means the transport itself failed.
	ReadPacket() ([]byte, error)

	// Close releases the connection underneath the session.
	Close() error
}
