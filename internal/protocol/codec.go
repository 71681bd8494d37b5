// Package protocol implements the OVNT framing used between embedding clients
// and the server, and the MessagePack payloads carried inside it.
//
// Frame layout (all integers little-endian):
//
//	magic      4   "OVNT" (4F 56 4E 54)
//	version    1   0x01
//	type       1   4 = data
//	length     4   payload length N
//	sender    16   UUID
//	target   1+16  tag (1 = present) followed by the UUID when present
//	message   16   UUID
//	payload    N
package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
)

var Magic = [4]byte{0x4F, 0x56, 0x4E, 0x54}

const (
	Version     byte = 0x01
	MsgTypeData byte = 4

	targetAbsent  byte = 0
	targetPresent byte = 1

	// fixed part: magic, version, type, length, sender, target tag, message id
	minHeaderLen = 4 + 1 + 1 + 4 + 16 + 1 + 16
	idLen        = 16
)

var (
	// ErrConnClosed reports a clean end of stream before the first byte of a frame.
	ErrConnClosed = errors.New("connection closed")
	// ErrBadMagic reports a frame that does not start with "OVNT".
	ErrBadMagic = errors.New("invalid magic bytes")
	// ErrUnsupportedVersion reports a version byte other than 1.
	ErrUnsupportedVersion = errors.New("unsupported protocol version")
	// ErrTruncated reports end of stream inside a frame.
	ErrTruncated = errors.New("truncated frame")
	// ErrPayloadTooLarge reports a declared payload length above the reader's limit.
	ErrPayloadTooLarge = errors.New("payload too large")
)

// Message is one OVNT frame.
type Message struct {
	SenderID  uuid.UUID
	TargetID  *uuid.UUID
	MessageID uuid.UUID
	// Type is the message type byte. Zero encodes as MsgTypeData; any value is
	// accepted when reading.
	Type    byte
	Payload []byte
}

// NewMessage builds a data message with a fresh message id.
func NewMessage(sender uuid.UUID, target *uuid.UUID, payload []byte) Message {
	return Message{SenderID: sender, TargetID: target, MessageID: uuid.New(), Type: MsgTypeData, Payload: payload}
}

// FrameError describes a framing failure. Header fields parsed before the
// failure are kept so the reader can still address a reply.
type FrameError struct {
	Err       error
	HasSender bool
	SenderID  uuid.UUID
	MessageID uuid.UUID
}

func (e *FrameError) Error() string { return "ovnt: " + e.Err.Error() }

func (e *FrameError) Unwrap() error { return e.Err }

// Encode serializes m into a single frame.
func Encode(m Message) []byte {
	n := minHeaderLen + len(m.Payload)
	if m.TargetID != nil {
		n += idLen
	}
	b := make([]byte, 0, n)
	b = append(b, Magic[:]...)
	b = append(b, Version)
	typ := m.Type
	if typ == 0 {
		typ = MsgTypeData
	}
	b = append(b, typ)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(m.Payload)))
	b = append(b, m.SenderID[:]...)
	if m.TargetID != nil {
		b = append(b, targetPresent)
		b = append(b, m.TargetID[:]...)
	} else {
		b = append(b, targetAbsent)
	}
	b = append(b, m.MessageID[:]...)
	b = append(b, m.Payload...)
	return b
}

// Decode parses exactly one frame from b. Trailing bytes are an error.
func Decode(b []byte) (Message, error) {
	r := bytes.NewReader(b)
	m, err := ReadMessage(r, 0)
	if err != nil {
		return m, err
	}
	if r.Len() != 0 {
		return m, fmt.Errorf("ovnt: %d trailing bytes after frame", r.Len())
	}
	return m, nil
}

// WriteMessage writes one frame to w.
func WriteMessage(w io.Writer, m Message) error {
	_, err := w.Write(Encode(m))
	return err
}

// ReadMessage reads one frame from r. maxPayload bounds the declared payload
// length; zero means unbounded. A clean EOF before the first byte yields
// ErrConnClosed; every other failure is a *FrameError.
func ReadMessage(r io.Reader, maxPayload int) (Message, error) {
	var m Message
	var fixed [4 + 1 + 1 + 4 + idLen + 1]byte
	if _, err := io.ReadFull(r, fixed[:5]); err != nil {
		if errors.Is(err, io.EOF) {
			return m, ErrConnClosed
		}
		return m, &FrameError{Err: readErr(err)}
	}
	if !bytes.Equal(fixed[0:4], Magic[:]) {
		return m, &FrameError{Err: fmt.Errorf("%w: % x", ErrBadMagic, fixed[0:4])}
	}
	if fixed[4] != Version {
		return m, &FrameError{Err: fmt.Errorf("%w: %d", ErrUnsupportedVersion, fixed[4])}
	}
	if _, err := io.ReadFull(r, fixed[5:]); err != nil {
		return m, &FrameError{Err: readErr(err)}
	}
	m.Type = fixed[5]
	length := binary.LittleEndian.Uint32(fixed[6:10])
	copy(m.SenderID[:], fixed[10:26])
	fe := &FrameError{HasSender: true, SenderID: m.SenderID}

	if fixed[26] == targetPresent {
		var target uuid.UUID
		if _, err := io.ReadFull(r, target[:]); err != nil {
			fe.Err = readErr(err)
			return m, fe
		}
		m.TargetID = &target
	}
	if _, err := io.ReadFull(r, m.MessageID[:]); err != nil {
		fe.Err = readErr(err)
		return m, fe
	}
	fe.MessageID = m.MessageID
	if maxPayload > 0 && int64(length) > int64(maxPayload) {
		fe.Err = fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, length, maxPayload)
		return m, fe
	}
	m.Payload = make([]byte, length)
	if _, err := io.ReadFull(r, m.Payload); err != nil {
		fe.Err = readErr(err)
		return m, fe
	}
	return m, nil
}

// readErr maps short reads to ErrTruncated and keeps other I/O errors.
func readErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return err
}
