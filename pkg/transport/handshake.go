package transport

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/ssh"

	"github.com/sshenum/sshenum/pkg/enum"
	"github.com/sshenum/sshenum/pkg/wire"
)

// Client algorithm proposals, in preference order.
var (
	kexAlgorithms = []string{
		"curve25519-sha256",
		"curve25519-sha256@libssh.org",
	}
	hostKeyAlgorithms = []string{
		"ssh-ed25519",
		"ecdsa-sha2-nistp256",
		"rsa-sha2-512",
		"rsa-sha2-256",
		"ssh-rsa",
	}
	cipherAlgorithms      = []string{"aes128-ctr"}
	macAlgorithms         = []string{"hmac-sha2-256"}
	compressionAlgorithms = []string{"none"}
)

// Limits on the pre-kex greeting; RFC 4253 section 4.2 allows
// arbitrary banner lines before the version string.
const (
	maxBannerLines  = 64
	maxGreetingLine = 8192
	versionPrefix   = "SSH-"
)

// Handshake performs version exchange and key exchange and returns an
// encrypted session. Protocol-level failures wrap enum.ErrNegotiation;
// socket failures do not.
func (c *Conn) Handshake(ctx context.Context) (enum.Session, error) {
	deadline := time.Now().Add(c.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.tcp.SetDeadline(deadline)
	defer c.tcp.SetDeadline(time.Time{})

	serverVersion, err := c.exchangeVersions()
	if err != nil {
		return nil, err
	}
	c.cfg.Log.Debug().Str("server", serverVersion).Msg("version exchange complete")

	read := &cipherState{}
	write := &cipherState{}

	clientKexInit, err := buildKexInit()
	if err != nil {
		return nil, err
	}
	if err := write.writePacket(c.tcp, clientKexInit); err != nil {
		return nil, err
	}
	serverKexInit, err := read.readPacket(c.br)
	if err != nil {
		return nil, err
	}
	if len(serverKexInit) == 0 || serverKexInit[0] != wire.MsgKexInit {
		return nil, fmt.Errorf("%w: expected KEXINIT, got message %d",
			enum.ErrNegotiation, firstByte(serverKexInit))
	}

	remote, err := parseKexInit(serverKexInit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", enum.ErrNegotiation, err)
	}
	if err := negotiate(remote); err != nil {
		return nil, err
	}
	// The server may have optimistically sent a guessed first kex
	// packet; with mismatched preferences it must be discarded.
	if remote.firstKexFollows && !sameFirstChoice(kexAlgorithms, remote.kex) {
		if _, err := read.readPacket(c.br); err != nil {
			return nil, err
		}
	}

	sessionID, keys, err := c.exchangeKeys(read, write, serverVersion, clientKexInit, serverKexInit)
	if err != nil {
		return nil, err
	}

	if err := write.writePacket(c.tcp, []byte{wire.MsgNewKeys}); err != nil {
		return nil, err
	}
	newKeys, err := read.readPacket(c.br)
	if err != nil {
		return nil, err
	}
	if len(newKeys) != 1 || newKeys[0] != wire.MsgNewKeys {
		return nil, fmt.Errorf("%w: expected NEWKEYS, got message %d",
			enum.ErrNegotiation, firstByte(newKeys))
	}

	if err := write.enable(keys.keyC2S, keys.ivC2S, keys.macC2S); err != nil {
		return nil, err
	}
	if err := read.enable(keys.keyS2C, keys.ivS2C, keys.macS2C); err != nil {
		return nil, err
	}
	c.cfg.Log.Debug().Msg("key exchange complete")

	return &Session{
		tcp:       c.tcp,
		br:        c.br,
		timeout:   c.cfg.Timeout,
		sessionID: sessionID,
		read:      read,
		write:     write,
	}, nil
}

// exchangeVersions sends our version string and reads the server's,
// skipping any pre-version banner lines.
func (c *Conn) exchangeVersions() (string, error) {
	if _, err := c.tcp.Write([]byte(clientVersion + "\r\n")); err != nil {
		return "", err
	}
	for i := 0; i < maxBannerLines; i++ {
		line, err := c.br.ReadString('\n')
		if err != nil {
			return "", err
		}
		if len(line) > maxGreetingLine {
			return "", fmt.Errorf("%w: greeting line too long", enum.ErrNegotiation)
		}
		line = strings.TrimRight(line, "\r\n")
		if !strings.HasPrefix(line, versionPrefix) {
			continue
		}
		if !strings.HasPrefix(line, "SSH-2.0-") && !strings.HasPrefix(line, "SSH-1.99-") {
			return "", fmt.Errorf("%w: unsupported protocol version %q",
				enum.ErrNegotiation, line)
		}
		return line, nil
	}
	return "", fmt.Errorf("%w: no version string in greeting", enum.ErrNegotiation)
}

// kexInitMsg is the server's decoded KEXINIT proposal.
type kexInitMsg struct {
	kex             []string
	hostKey         []string
	cipherC2S       []string
	cipherS2C       []string
	macC2S          []string
	macS2C          []string
	compC2S         []string
	compS2C         []string
	firstKexFollows bool
}

func buildKexInit() ([]byte, error) {
	cookie := make([]byte, 16)
	if _, err := rand.Read(cookie); err != nil {
		return nil, fmt.Errorf("transport: generating kex cookie: %w", err)
	}
	b := wire.NewBuffer()
	b.PutByte(wire.MsgKexInit)
	for _, c := range cookie {
		b.PutByte(c)
	}
	b.PutNameList(kexAlgorithms)
	b.PutNameList(hostKeyAlgorithms)
	b.PutNameList(cipherAlgorithms)
	b.PutNameList(cipherAlgorithms)
	b.PutNameList(macAlgorithms)
	b.PutNameList(macAlgorithms)
	b.PutNameList(compressionAlgorithms)
	b.PutNameList(compressionAlgorithms)
	b.PutNameList(nil) // languages client to server
	b.PutNameList(nil) // languages server to client
	b.PutBool(false)   // first_kex_packet_follows
	b.PutUint32(0)     // reserved
	return b.Bytes(), nil
}

func parseKexInit(payload []byte) (*kexInitMsg, error) {
	r := wire.NewReader(payload[1:])
	r.Take(16) // cookie
	m := &kexInitMsg{
		kex:       r.NameList(),
		hostKey:   r.NameList(),
		cipherC2S: r.NameList(),
		cipherS2C: r.NameList(),
		macC2S:    r.NameList(),
		macS2C:    r.NameList(),
		compC2S:   r.NameList(),
		compS2C:   r.NameList(),
	}
	r.NameList() // languages client to server
	r.NameList() // languages server to client
	m.firstKexFollows = r.Bool()
	r.Uint32() // reserved
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("parsing KEXINIT: %w", err)
	}
	return m, nil
}

// negotiate checks that every direction has a mutually supported
// algorithm. RFC 4253 picks the first client algorithm the server
// also lists; with single-element client lists the check degenerates
// to membership.
func negotiate(remote *kexInitMsg) error {
	checks := []struct {
		what   string
		client []string
		server []string
	}{
		{"kex algorithm", kexAlgorithms, remote.kex},
		{"host key algorithm", hostKeyAlgorithms, remote.hostKey},
		{"client-to-server cipher", cipherAlgorithms, remote.cipherC2S},
		{"server-to-client cipher", cipherAlgorithms, remote.cipherS2C},
		{"client-to-server MAC", macAlgorithms, remote.macC2S},
		{"server-to-client MAC", macAlgorithms, remote.macS2C},
		{"client-to-server compression", compressionAlgorithms, remote.compC2S},
		{"server-to-client compression", compressionAlgorithms, remote.compS2C},
	}
	for _, c := range checks {
		if _, err := firstCommon(c.what, c.client, c.server); err != nil {
			return err
		}
	}
	return nil
}

func firstCommon(what string, client, server []string) (string, error) {
	for _, c := range client {
		for _, s := range server {
			if c == s {
				return c, nil
			}
		}
	}
	return "", fmt.Errorf("%w: no common %s (server offers %s)",
		enum.ErrNegotiation, what, strings.Join(server, ","))
}

func sameFirstChoice(client, server []string) bool {
	return len(client) > 0 && len(server) > 0 && client[0] == server[0]
}

// sessionKeys holds the six derived key blocks of RFC 4253 section
// 7.2.
type sessionKeys struct {
	ivC2S, ivS2C   []byte
	keyC2S, keyS2C []byte
	macC2S, macS2C []byte
}

// exchangeKeys runs curve25519 ECDH, verifies the host key signature
// over the exchange hash, and derives the directional keys. The
// returned hash doubles as the session identifier.
func (c *Conn) exchangeKeys(read, write *cipherState, serverVersion string, clientKexInit, serverKexInit []byte) ([]byte, *sessionKeys, error) {
	var scalar [32]byte
	if _, err := rand.Read(scalar[:]); err != nil {
		return nil, nil, fmt.Errorf("transport: generating kex scalar: %w", err)
	}
	clientPub, err := curve25519.X25519(scalar[:], curve25519.Basepoint)
	if err != nil {
		return nil, nil, fmt.Errorf("transport: computing kex public value: %w", err)
	}

	b := wire.NewBuffer()
	b.PutByte(wire.MsgKexECDHInit)
	b.PutString(clientPub)
	if err := write.writePacket(c.tcp, b.Bytes()); err != nil {
		return nil, nil, err
	}

	reply, err := read.readPacket(c.br)
	if err != nil {
		return nil, nil, err
	}
	if len(reply) == 0 || reply[0] != wire.MsgKexECDHReply {
		return nil, nil, fmt.Errorf("%w: expected ECDH reply, got message %d",
			enum.ErrNegotiation, firstByte(reply))
	}
	r := wire.NewReader(reply[1:])
	hostKeyBlob := r.String()
	serverPub := r.String()
	sigBlob := r.String()
	if err := r.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: parsing ECDH reply: %v", enum.ErrNegotiation, err)
	}

	secret, err := curve25519.X25519(scalar[:], serverPub)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: bad server kex value: %v", enum.ErrNegotiation, err)
	}

	// Exchange hash per RFC 5656 section 4: versions, KEXINIT
	// payloads, host key, both ECDH values, shared secret.
	hb := wire.NewBuffer()
	hb.PutText(clientVersion)
	hb.PutText(serverVersion)
	hb.PutString(clientKexInit)
	hb.PutString(serverKexInit)
	hb.PutString(hostKeyBlob)
	hb.PutString(clientPub)
	hb.PutString(serverPub)
	hb.PutMpint(secret)
	exchangeHash := sha256.Sum256(hb.Bytes())

	if err := verifyHostKey(hostKeyBlob, sigBlob, exchangeHash[:]); err != nil {
		return nil, nil, err
	}

	return exchangeHash[:], deriveKeys(secret, exchangeHash[:]), nil
}

// verifyHostKey checks the server's signature over the exchange hash.
// The key itself is not checked against known_hosts: this tool never
// sends a secret worth protecting, but a broken signature still means
// the peer is not speaking SSH properly.
func verifyHostKey(hostKeyBlob, sigBlob, exchangeHash []byte) error {
	hostKey, err := ssh.ParsePublicKey(hostKeyBlob)
	if err != nil {
		return fmt.Errorf("%w: parsing host key: %v", enum.ErrNegotiation, err)
	}
	r := wire.NewReader(sigBlob)
	sig := &ssh.Signature{
		Format: r.Text(),
		Blob:   r.String(),
	}
	if err := r.Err(); err != nil {
		return fmt.Errorf("%w: parsing host key signature: %v", enum.ErrNegotiation, err)
	}
	if err := hostKey.Verify(exchangeHash, sig); err != nil {
		return fmt.Errorf("%w: host key signature: %v", enum.ErrNegotiation, err)
	}
	return nil
}

// deriveKeys expands the shared secret and exchange hash into the six
// directional key blocks (RFC 4253 section 7.2). On the first key
// exchange the session identifier is the exchange hash itself.
func deriveKeys(secret, exchangeHash []byte) *sessionKeys {
	kb := wire.NewBuffer()
	kb.PutMpint(secret)
	k := kb.Bytes()

	kdf := func(letter byte, need int) []byte {
		d := sha256.New()
		d.Write(k)
		d.Write(exchangeHash)
		d.Write([]byte{letter})
		d.Write(exchangeHash) // session id
		out := d.Sum(nil)
		for len(out) < need {
			d.Reset()
			d.Write(k)
			d.Write(exchangeHash)
			d.Write(out)
			out = append(out, d.Sum(nil)...)
		}
		return out[:need]
	}

	return &sessionKeys{
		ivC2S:  kdf('A', 16),
		ivS2C:  kdf('B', 16),
		keyC2S: kdf('C', 16),
		keyS2C: kdf('D', 16),
		macC2S: kdf('E', 32),
		macS2C: kdf('F', 32),
	}
}

func firstByte(p []byte) byte {
	if len(p) == 0 {
		return 0
	}
	return p[0]
}
