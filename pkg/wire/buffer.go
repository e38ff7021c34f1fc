package wire

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// ErrMalformedMessage is wrapped by every decode failure in this
// package: unknown message numbers, truncated fields, and string
// lengths that overrun the payload.
var ErrMalformedMessage = fmt.Errorf("malformed ssh message")

// Buffer builds an SSH message payload field by field.
type Buffer struct {
	buf []byte
}

// NewBuffer returns an empty payload builder.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// PutByte appends a single raw byte.
func (b *Buffer) PutByte(v byte) {
	b.buf = append(b.buf, v)
}

// PutBool appends a strict RFC 4251 boolean: one byte, 0x00 or 0x01.
func (b *Buffer) PutBool(v bool) {
	if v {
		b.buf = append(b.buf, 1)
	} else {
		b.buf = append(b.buf, 0)
	}
}

// PutUint32 appends a big-endian uint32.
func (b *Buffer) PutUint32(v uint32) {
	b.buf = binary.BigEndian.AppendUint32(b.buf, v)
}

// PutString appends a binary string: uint32 length prefix + bytes.
func (b *Buffer) PutString(s []byte) {
	b.PutUint32(uint32(len(s)))
	b.buf = append(b.buf, s...)
}

// PutText appends a binary string from a Go string.
func (b *Buffer) PutText(s string) {
	b.PutString([]byte(s))
}

// PutNameList appends an RFC 4251 name-list: a string containing
// comma-separated names.
func (b *Buffer) PutNameList(names []string) {
	b.PutText(strings.Join(names, ","))
}

// PutMpint appends a multiple-precision integer from its unsigned
// big-endian magnitude: leading zero bytes are stripped, and a zero
// byte is prepended when the high bit is set so the value stays
// positive.
func (b *Buffer) PutMpint(v []byte) {
	for len(v) > 0 && v[0] == 0 {
		v = v[1:]
	}
	if len(v) > 0 && v[0]&0x80 != 0 {
		b.PutUint32(uint32(len(v) + 1))
		b.buf = append(b.buf, 0)
		b.buf = append(b.buf, v...)
		return
	}
	b.PutString(v)
}

// Bytes returns the accumulated payload.
func (b *Buffer) Bytes() []byte {
	return b.buf
}

// Reader consumes an SSH message payload field by field. It carries a
// sticky error: after the first short read every further accessor
// returns a zero value, so callers check Err once at the end.
type Reader struct {
	rest []byte
	err  error
}

// NewReader returns a reader over the given payload.
func NewReader(p []byte) *Reader {
	return &Reader{rest: p}
}

func (r *Reader) fail(what string) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: truncated %s field", ErrMalformedMessage, what)
	}
}

// Byte consumes one raw byte.
func (r *Reader) Byte() byte {
	if r.err != nil || len(r.rest) < 1 {
		r.fail("byte")
		return 0
	}
	v := r.rest[0]
	r.rest = r.rest[1:]
	return v
}

// Bool consumes a boolean. Any nonzero byte reads as true, matching
// RFC 4251's requirement that receivers be liberal.
func (r *Reader) Bool() bool {
	return r.Byte() != 0
}

// Take consumes n raw bytes, such as a fixed-size cookie.
func (r *Reader) Take(n int) []byte {
	if r.err != nil || len(r.rest) < n {
		r.fail("raw")
		return nil
	}
	v := r.rest[:n]
	r.rest = r.rest[n:]
	return v
}

// Uint32 consumes a big-endian uint32.
func (r *Reader) Uint32() uint32 {
	if r.err != nil || len(r.rest) < 4 {
		r.fail("uint32")
		return 0
	}
	v := binary.BigEndian.Uint32(r.rest)
	r.rest = r.rest[4:]
	return v
}

// String consumes a binary string.
func (r *Reader) String() []byte {
	n := r.Uint32()
	if r.err != nil || uint32(len(r.rest)) < n {
		r.fail("string")
		return nil
	}
	v := r.rest[:n]
	r.rest = r.rest[n:]
	return v
}

// Text consumes a binary string as a Go string.
func (r *Reader) Text() string {
	return string(r.String())
}

// NameList consumes a name-list.
func (r *Reader) NameList() []string {
	s := r.Text()
	if r.err != nil || s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// Remaining reports how many unread bytes are left.
func (r *Reader) Remaining() int {
	return len(r.rest)
}

// Err returns the first decode error, if any.
func (r *Reader) Err() error {
	return r.err
}
