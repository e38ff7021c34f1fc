// Package wire encodes and decodes SSH authentication-phase protocol
// messages.
//
// This package covers the message set exchanged between the end of key
// exchange and the authentication verdict:
//
//	SSH_MSG_SERVICE_REQUEST  (5)
//	SSH_MSG_SERVICE_ACCEPT   (6)
//	SSH_MSG_USERAUTH_REQUEST (50)
//	SSH_MSG_USERAUTH_FAILURE (51)
//	SSH_MSG_USERAUTH_SUCCESS (52)
//	SSH_MSG_USERAUTH_BANNER  (53)
//
// plus the transport-level notifications a server may interleave
// (DISCONNECT, IGNORE, DEBUG, UNIMPLEMENTED).
//
// Primitive field encodings follow RFC 4251 section 5: byte, boolean
// (exactly one byte, 0x00 or 0x01), uint32 (big-endian), string
// (uint32 length prefix + bytes), and name-list (comma-separated
// string).
//
// The publickey USERAUTH_REQUEST marshaller additionally supports a
// deliberately non-conformant encoding mode that omits the trailing
// "has-signature" boolean from the payload entirely. That mode exists
// for CVE-2018-15473 and is not reachable through any other message.
package wire
