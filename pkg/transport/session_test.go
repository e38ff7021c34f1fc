package transport

import (
	"bufio"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/ssh"

	"github.com/sshenum/sshenum/pkg/enum"
	"github.com/sshenum/sshenum/pkg/wire"
)

// pipeCapability hands the runner one end of a net.Pipe and runs a
// scripted sshd on the other, exercising the real handshake, packet
// crypto, and classification end to end.
type pipeCapability struct {
	t     *testing.T
	valid map[string]bool
}

func (c pipeCapability) Open(ctx context.Context, addr string) (enum.Conn, error) {
	client, server := net.Pipe()
	go fakeSSHD(c.t, server, c.valid)
	return &Conn{
		tcp: client,
		br:  bufio.NewReader(client),
		cfg: Config{Timeout: 5 * time.Second}.withDefaults(),
	}, nil
}

const fakeServerVersion = "SSH-2.0-OpenSSH_7.2p2 testpipe"

// fakeSSHD speaks just enough server-side SSH to reach the
// authentication request, then mimics the vulnerable behavior:
// DISCONNECT for known users, USERAUTH_FAILURE for unknown ones.
func fakeSSHD(t *testing.T, conn net.Conn, valid map[string]bool) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))
	br := bufio.NewReader(conn)

	fail := func(stage string, err error) bool {
		if err != nil {
			t.Errorf("fake sshd: %s: %v", stage, err)
			return true
		}
		return false
	}

	// Version exchange.
	line, err := br.ReadString('\n')
	if fail("reading client version", err) {
		return
	}
	clientVer := strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(clientVer, "SSH-2.0-") {
		t.Errorf("fake sshd: bad client version %q", clientVer)
		return
	}
	if _, err := conn.Write([]byte(fakeServerVersion + "\r\n")); fail("writing version", err) {
		return
	}

	read := &cipherState{}
	write := &cipherState{}

	// KEXINIT both ways; the server proposal mirrors the client's.
	clientKexInit, err := read.readPacket(br)
	if fail("reading KEXINIT", err) {
		return
	}
	serverKexInit, err := buildKexInit()
	if fail("building KEXINIT", err) {
		return
	}
	if err := write.writePacket(conn, serverKexInit); fail("writing KEXINIT", err) {
		return
	}

	// ECDH responder.
	init, err := read.readPacket(br)
	if fail("reading ECDH init", err) {
		return
	}
	if init[0] != wire.MsgKexECDHInit {
		t.Errorf("fake sshd: expected ECDH init, got message %d", init[0])
		return
	}
	clientPub := wire.NewReader(init[1:]).String()

	var scalar [32]byte
	if _, err := rand.Read(scalar[:]); fail("generating scalar", err) {
		return
	}
	serverPub, err := curve25519.X25519(scalar[:], curve25519.Basepoint)
	if fail("computing public value", err) {
		return
	}
	secret, err := curve25519.X25519(scalar[:], clientPub)
	if fail("computing shared secret", err) {
		return
	}

	_, hostPriv, err := ed25519.GenerateKey(rand.Reader)
	if fail("generating host key", err) {
		return
	}
	signer, err := ssh.NewSignerFromKey(hostPriv)
	if fail("wrapping host key", err) {
		return
	}
	hostKeyBlob := signer.PublicKey().Marshal()

	hb := wire.NewBuffer()
	hb.PutText(clientVer)
	hb.PutText(fakeServerVersion)
	hb.PutString(clientKexInit)
	hb.PutString(serverKexInit)
	hb.PutString(hostKeyBlob)
	hb.PutString(clientPub)
	hb.PutString(serverPub)
	hb.PutMpint(secret)
	exchangeHash := sha256.Sum256(hb.Bytes())

	sig, err := signer.Sign(rand.Reader, exchangeHash[:])
	if fail("signing exchange hash", err) {
		return
	}
	sb := wire.NewBuffer()
	sb.PutText(sig.Format)
	sb.PutString(sig.Blob)

	reply := wire.NewBuffer()
	reply.PutByte(wire.MsgKexECDHReply)
	reply.PutString(hostKeyBlob)
	reply.PutString(serverPub)
	reply.PutString(sb.Bytes())
	if err := write.writePacket(conn, reply.Bytes()); fail("writing ECDH reply", err) {
		return
	}

	// NEWKEYS: client sends first, then expects ours.
	if _, err := read.readPacket(br); fail("reading NEWKEYS", err) {
		return
	}
	if err := write.writePacket(conn, []byte{wire.MsgNewKeys}); fail("writing NEWKEYS", err) {
		return
	}

	keys := deriveKeys(secret, exchangeHash[:])
	if err := write.enable(keys.keyS2C, keys.ivS2C, keys.macS2C); fail("enabling write cipher", err) {
		return
	}
	if err := read.enable(keys.keyC2S, keys.ivC2S, keys.macC2S); fail("enabling read cipher", err) {
		return
	}

	// Service phase, now encrypted.
	svc, err := read.readPacket(br)
	if fail("reading service request", err) {
		return
	}
	msg, err := wire.Decode(svc)
	if fail("decoding service request", err) {
		return
	}
	if req, ok := msg.(*wire.ServiceRequest); !ok || req.Service != wire.ServiceUserAuth {
		t.Errorf("fake sshd: unexpected service request %#v", msg)
		return
	}
	accept := &wire.ServiceAccept{Service: wire.ServiceUserAuth}
	if err := write.writePacket(conn, accept.Marshal()); fail("writing service accept", err) {
		return
	}

	// The crafted request. Assert it is truncated exactly as the
	// defect requires: user, service, method, then immediately the
	// algorithm and blob with nothing left over.
	auth, err := read.readPacket(br)
	if fail("reading userauth request", err) {
		return
	}
	if auth[0] != wire.MsgUserauthRequest {
		t.Errorf("fake sshd: expected USERAUTH_REQUEST, got message %d", auth[0])
		return
	}
	ar := wire.NewReader(auth[1:])
	user := ar.Text()
	service := ar.Text()
	method := ar.Text()
	alg := ar.Text()
	blob := ar.String()
	if fail("parsing userauth request", ar.Err()) {
		return
	}
	if service != wire.ServiceConnection || method != wire.MethodPublickey {
		t.Errorf("fake sshd: unexpected request for %q/%q", service, method)
		return
	}
	if _, err := ssh.ParsePublicKey(blob); fail("parsing ephemeral key blob", err) {
		return
	}
	if alg == "" || ar.Remaining() != 0 {
		t.Errorf("fake sshd: request not truncated as expected (alg=%q, %d bytes left)",
			alg, ar.Remaining())
		return
	}

	var verdict wire.Message
	if valid[user] {
		verdict = &wire.Disconnect{ReasonCode: 2, Description: "Packet corrupt"}
	} else {
		verdict = &wire.UserauthFailure{Methods: []string{"publickey"}}
	}
	switch m := verdict.(type) {
	case *wire.Disconnect:
		err = write.writePacket(conn, m.Marshal())
	case *wire.UserauthFailure:
		err = write.writePacket(conn, m.Marshal())
	}
	fail("writing verdict", err)
}

func TestEnumerationAgainstScriptedServer(t *testing.T) {
	runner := &enum.Runner{
		Cap:  pipeCapability{t: t, valid: map[string]bool{"root": true}},
		Addr: "target:22",
		Log:  zerolog.Nop(),
	}
	ctx := context.Background()

	cases := map[string]enum.Verdict{
		"root":     enum.VerdictValid,
		"bogus123": enum.VerdictInvalid,
	}
	for user, want := range cases {
		t.Run(user, func(t *testing.T) {
			out := runner.Attempt(ctx, user)
			if out.Verdict != want {
				t.Fatalf("verdict = %v (%s), want %v", out.Verdict, out.Reason, want)
			}
			if out.Username != user {
				t.Fatalf("outcome username = %q, want %q", out.Username, user)
			}
		})
	}
}
