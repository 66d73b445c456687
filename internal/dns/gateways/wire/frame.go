// Package wire implements the adns message format.
//
// Every message is an 8-byte big-endian header followed by a UTF-8 body:
//
//	[id:u32][code:u16][body_len:u16][body: body_len bytes]
//
// In a request code is the query type; in a response it is the result code.
// Bodies are at most 253 bytes, the longest valid domain name.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/bassosimone/runtimex"
)

const (
	HeaderSize     = 8
	MaxBodyLen     = 253
	MaxMessageSize = HeaderSize + MaxBodyLen
)

var (
	// ErrShortHeader means fewer than HeaderSize bytes were available.
	ErrShortHeader = errors.New("incomplete header")
	// ErrEmptyBody means the header declared a zero-length body.
	ErrEmptyBody = errors.New("zero-length body")
	// ErrBodyTooLong means a body longer than MaxBodyLen was declared or supplied.
	ErrBodyTooLong = errors.New("body length too large")
	// ErrShortBody means a stream ended before the declared body length was read.
	ErrShortBody = errors.New("incomplete body")
	// ErrTruncatedBody means a datagram is shorter than its own declared length.
	ErrTruncatedBody = errors.New("incomplete (truncated) body")
	// ErrInvalidUTF8 means the body bytes are not valid UTF-8 text.
	ErrInvalidUTF8 = errors.New("body is not valid UTF-8")
)

// Header is the fixed-size prefix of every message.
type Header struct {
	ID      uint32
	Code    uint16
	BodyLen uint16
}

// DecodeHeader unpacks the first HeaderSize bytes of b.
// It does not check BodyLen against MaxBodyLen; see Header.Validate.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: got %d bytes", ErrShortHeader, len(b))
	}
	return Header{
		ID:      binary.BigEndian.Uint32(b[0:4]),
		Code:    binary.BigEndian.Uint16(b[4:6]),
		BodyLen: binary.BigEndian.Uint16(b[6:8]),
	}, nil
}

// Validate reports whether the declared body length is acceptable for a request.
func (h Header) Validate() error {
	if h.BodyLen == 0 {
		return ErrEmptyBody
	}
	return h.ValidateReply()
}

// ValidateReply is Validate for replies, where an empty body is allowed.
func (h Header) ValidateReply() error {
	if h.BodyLen > MaxBodyLen {
		return fmt.Errorf("%w (%d)", ErrBodyTooLong, h.BodyLen)
	}
	return nil
}

// Encode packs a complete message. The payload must fit in MaxBodyLen bytes.
func Encode(id uint32, code uint16, payload string) ([]byte, error) {
	if len(payload) > MaxBodyLen {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrBodyTooLong, len(payload), MaxBodyLen)
	}
	buf := make([]byte, HeaderSize, HeaderSize+len(payload))
	binary.BigEndian.PutUint32(buf[0:4], id)
	binary.BigEndian.PutUint16(buf[4:6], code)
	//gosec:disable G115 -- len(payload) <= MaxBodyLen was checked above.
	binary.BigEndian.PutUint16(buf[6:8], uint16(len(payload)))
	return append(buf, payload...), nil
}

// MustEncode is like Encode but panics when the payload is too long. Use it only
// for payloads that are bounded by construction.
func MustEncode(id uint32, code uint16, payload string) []byte {
	return runtimex.PanicOnError1(Encode(id, code, payload))
}

// ReadFrame reads exactly one request from a stream.
//
// The header is read first. If it declares an unacceptable body length the header
// is returned together with the Validate error and the body is left unread.
// A stream that ends early yields ErrShortHeader or ErrShortBody; any other read
// error is returned unchanged.
func ReadFrame(r io.Reader) (Header, []byte, error) {
	return readFrame(r, Header.Validate)
}

// ReadReply is ReadFrame for replies, which may have an empty body.
func ReadReply(r io.Reader) (Header, []byte, error) {
	return readFrame(r, Header.ValidateReply)
}

func readFrame(r io.Reader, validate func(Header) error) (Header, []byte, error) {
	var raw [HeaderSize]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		if isEOF(err) {
			return Header{}, nil, fmt.Errorf("%w: %w", ErrShortHeader, err)
		}
		return Header{}, nil, err
	}

	h, err := DecodeHeader(raw[:])
	if err != nil {
		return Header{}, nil, err
	}
	if err := validate(h); err != nil {
		return h, nil, err
	}

	body := make([]byte, h.BodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		if isEOF(err) {
			return h, nil, fmt.Errorf("%w: %w", ErrShortBody, err)
		}
		return h, nil, err
	}
	return h, body, nil
}

// ParseDatagram splits a request datagram into its header and body.
//
// A datagram shorter than HeaderSize yields ErrShortHeader and a zero Header.
// For header validation failures and ErrTruncatedBody the decoded header is
// returned so the caller can answer the request id. Bytes past the declared
// body length are ignored.
func ParseDatagram(b []byte) (Header, []byte, error) {
	return parseDatagram(b, Header.Validate)
}

// ParseReplyDatagram is ParseDatagram for replies, which may have an empty body.
func ParseReplyDatagram(b []byte) (Header, []byte, error) {
	return parseDatagram(b, Header.ValidateReply)
}

func parseDatagram(b []byte, validate func(Header) error) (Header, []byte, error) {
	h, err := DecodeHeader(b)
	if err != nil {
		return Header{}, nil, err
	}
	if err := validate(h); err != nil {
		return h, nil, err
	}
	end := HeaderSize + int(h.BodyLen)
	if end > len(b) {
		return h, nil, fmt.Errorf("%w: declared %d bytes, received %d", ErrTruncatedBody, h.BodyLen, len(b)-HeaderSize)
	}
	return h, b[HeaderSize:end], nil
}

// DecodeText converts a body to a string, rejecting invalid UTF-8.
func DecodeText(body []byte) (string, error) {
	if !utf8.Valid(body) {
		return "", ErrInvalidUTF8
	}
	return string(body), nil
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
