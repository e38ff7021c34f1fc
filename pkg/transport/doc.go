// Package transport is the production SSH client capability behind
// the enumeration core: TCP dialing, RFC 4253 version exchange,
// curve25519 key exchange, and the encrypted binary packet protocol.
//
// It implements exactly as much of SSH as the attack needs. One key
// exchange method (curve25519-sha256), one cipher (aes128-ctr), one
// MAC (hmac-sha2-256), no compression, no rekeying, no channels.
// OpenSSH has shipped all three algorithms since 6.5, which predates
// the entire version range affected by CVE-2018-15473, so the narrow
// proposal never costs a negotiation in practice.
//
// The one property the rest of the program depends on: a server-sent
// DISCONNECT comes back from ReadPacket as a message payload, while a
// dead socket comes back as an error. Collapsing those two would
// destroy the valid/invalid signal.
package transport
