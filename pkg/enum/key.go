package enum

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/ssh"
)

// EphemeralKey is a throwaway public key used to populate the key
// blob of the crafted request. The private half is discarded at
// generation time: no signature is ever produced, that is the point
// of the truncated request. Generate one per attempt, never share or
// cache across attempts.
type EphemeralKey struct {
	Algorithm string
	Blob      []byte
}

// GenerateEphemeralKey produces a fresh ed25519 key and marshals its
// public half into SSH wire format. Failures wrap ErrKeyGeneration.
func GenerateEphemeralKey() (*EphemeralKey, error) {
	return generateEphemeralKey(rand.Reader)
}

func generateEphemeralKey(random io.Reader) (*EphemeralKey, error) {
	pub, _, err := ed25519.GenerateKey(random)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}
	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}
	return &EphemeralKey{
		Algorithm: sshPub.Type(),
		Blob:      sshPub.Marshal(),
	}, nil
}
