package transport

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"hash"
	"io"
)

// maxPacketSize rejects decrypted lengths no sane sshd produces,
// which is the first thing to trip when key derivation went wrong.
const maxPacketSize = 256 * 1024

// minPadding is the RFC 4253 section 6 floor.
const minPadding = 4

// cipherState is one direction of the binary packet protocol. Before
// NEWKEYS it frames packets in the clear; enable switches it to
// aes128-ctr with hmac-sha2-256. The sequence number spans both
// phases, as the MAC computation requires.
type cipherState struct {
	stream cipher.Stream
	mac    hash.Hash
	seq    uint32
}

func (s *cipherState) enable(key, iv, macKey []byte) error {
	block, err := aes.NewCipher(key)
	if err != nil {
		return fmt.Errorf("transport: initializing cipher: %w", err)
	}
	s.stream = cipher.NewCTR(block, iv)
	s.mac = hmac.New(sha256.New, macKey)
	return nil
}

// blockSize is the padding granularity: the cipher block once
// encryption is on, else the RFC minimum of 8.
func (s *cipherState) blockSize() int {
	if s.stream != nil {
		return aes.BlockSize
	}
	return 8
}

// writePacket frames, MACs, encrypts, and sends one payload.
func (s *cipherState) writePacket(w io.Writer, payload []byte) error {
	bs := s.blockSize()
	padLen := bs - (5+len(payload))%bs
	if padLen < minPadding {
		padLen += bs
	}

	pkt := make([]byte, 5+len(payload)+padLen)
	binary.BigEndian.PutUint32(pkt, uint32(1+len(payload)+padLen))
	pkt[4] = byte(padLen)
	copy(pkt[5:], payload)
	if _, err := rand.Read(pkt[5+len(payload):]); err != nil {
		return fmt.Errorf("transport: generating padding: %w", err)
	}

	var tag []byte
	if s.mac != nil {
		tag = s.sum(pkt)
	}
	if s.stream != nil {
		s.stream.XORKeyStream(pkt, pkt)
	}
	s.seq++

	if _, err := w.Write(pkt); err != nil {
		return err
	}
	if len(tag) > 0 {
		if _, err := w.Write(tag); err != nil {
			return err
		}
	}
	return nil
}

// readPacket receives, decrypts, and verifies one packet, returning
// its payload with length prefix and padding stripped.
func (s *cipherState) readPacket(r io.Reader) ([]byte, error) {
	bs := s.blockSize()

	pkt := make([]byte, bs)
	if _, err := io.ReadFull(r, pkt); err != nil {
		return nil, err
	}
	if s.stream != nil {
		s.stream.XORKeyStream(pkt, pkt)
	}

	length := binary.BigEndian.Uint32(pkt[:4])
	if length < 1 || length > maxPacketSize {
		return nil, fmt.Errorf("transport: implausible packet length %d", length)
	}
	total := 4 + int(length)
	if total%bs != 0 || total < bs {
		return nil, fmt.Errorf("transport: packet length %d not aligned to block size %d", length, bs)
	}

	rest := make([]byte, total-bs)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, err
	}
	if s.stream != nil {
		s.stream.XORKeyStream(rest, rest)
	}
	pkt = append(pkt, rest...)

	if s.mac != nil {
		tag := make([]byte, s.mac.Size())
		if _, err := io.ReadFull(r, tag); err != nil {
			return nil, err
		}
		if !hmac.Equal(tag, s.sum(pkt)) {
			return nil, fmt.Errorf("transport: corrupt MAC on packet %d", s.seq)
		}
	}
	s.seq++

	padLen := int(pkt[4])
	if padLen < minPadding || 1+padLen > int(length) {
		return nil, fmt.Errorf("transport: invalid padding length %d", padLen)
	}
	return pkt[5 : total-padLen], nil
}

func (s *cipherState) sum(pkt []byte) []byte {
	var seqBuf [4]byte
	binary.BigEndian.PutUint32(seqBuf[:], s.seq)
	s.mac.Reset()
	s.mac.Write(seqBuf[:])
	s.mac.Write(pkt)
	return s.mac.Sum(nil)
}
