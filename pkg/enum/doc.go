// Package enum implements OpenSSH username enumeration via
// CVE-2018-15473.
//
// OpenSSH through 7.7 does not delay the bailout for an invalid
// authenticating user until the packet containing the request has
// been fully parsed. Sending a deliberately truncated publickey
// authentication request therefore produces two observably different
// failure modes: servers that know the user attempt the full parse
// and disconnect on the truncated packet, servers that do not know
// the user answer with an ordinary USERAUTH_FAILURE before ever
// reaching the malformed tail.
//
// The package is organized around that single differential signal:
//
//   - BuildMalformedRequest crafts the truncated request.
//   - Classify maps the server's reaction to a Verdict.
//   - Runner drives one connection through the whole exchange.
//   - Engine fans candidates out across a bounded worker pool.
//
// The SSH transport itself is consumed through the Capability
// interface; package transport provides the production
// implementation, and tests substitute fakes.
package enum
