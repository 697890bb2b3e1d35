package protocol

import (
	"bytes"
	"encoding/binary"
)

// StartResponse is the device's answer to the handshake start request.
//
// Two shapes exist on the wire and are distinguished by length: modern
// devices return the full structured response, older devices return a bare
// 4-byte error code. Legacy reports which shape was decoded; for legacy
// responses only ErrorCode is meaningful.
type StartResponse struct {
	// Legacy is true when the device answered with the old-style bare
	// error code instead of the structured response
	Legacy bool

	// ErrorCode is the legacy error code (legacy responses only)
	ErrorCode uint32

	// ProtocolVersion is the update protocol version the device speaks
	ProtocolVersion uint16

	// HeaderType identifies the firmware header layout used by the device
	HeaderType uint16

	// ReturnValue is non-zero when the device reports a startup error
	ReturnValue uint32

	// Version is the raw NUL-padded version string of the running image
	Version string

	// MaximumPDUSize is the largest payload the device accepts per block
	MaximumPDUSize uint32

	// FlashProtection is the device's flash protection status bitmask
	FlashProtection uint32

	// MinRollback is the minimum rollback version the device enforces
	MinRollback int32

	// KeyVersion is the version of the key the running image is signed with
	KeyVersion uint32

	// Offset is the lowest flash address the device permits writes to
	Offset uint32
}

// DecodeStartResponse parses a handshake reply.
//
// Fewer than 8 received bytes is a protocol violation and returns
// TruncatedResponseError. A reply shorter than the structured size decodes
// as the legacy variant; a full-size reply decodes as the structured
// variant. The raw bytes are never overlaid onto a struct: each field is
// read explicitly in big-endian order.
func DecodeStartResponse(buf []byte) (*StartResponse, error) {
	if len(buf) < 2*LegacyResponseSize {
		return nil, &TruncatedResponseError{Received: len(buf), Minimum: 2 * LegacyResponseSize}
	}
	if len(buf) < StartResponseSize {
		return &StartResponse{
			Legacy:    true,
			ErrorCode: binary.BigEndian.Uint32(buf[0:4]),
		}, nil
	}
	raw := buf[8 : 8+VersionStringSize]
	return &StartResponse{
		ProtocolVersion: binary.BigEndian.Uint16(buf[0:2]),
		HeaderType:      binary.BigEndian.Uint16(buf[2:4]),
		ReturnValue:     binary.BigEndian.Uint32(buf[4:8]),
		Version:         string(bytes.TrimRight(raw, "\x00")),
		MaximumPDUSize:  binary.BigEndian.Uint32(buf[40:44]),
		FlashProtection: binary.BigEndian.Uint32(buf[44:48]),
		MinRollback:     int32(binary.BigEndian.Uint32(buf[48:52])),
		KeyVersion:      binary.BigEndian.Uint32(buf[52:56]),
		Offset:          binary.BigEndian.Uint32(buf[56:60]),
	}, nil
}

// EncodeStartResponse serializes a structured start response into its
// 60-byte wire form. Device simulators and tests use this to fabricate
// handshake replies; a real host never sends one.
func EncodeStartResponse(r *StartResponse) []byte {
	buf := make([]byte, StartResponseSize)
	binary.BigEndian.PutUint16(buf[0:2], r.ProtocolVersion)
	binary.BigEndian.PutUint16(buf[2:4], r.HeaderType)
	binary.BigEndian.PutUint32(buf[4:8], r.ReturnValue)
	copy(buf[8:8+VersionStringSize], r.Version)
	binary.BigEndian.PutUint32(buf[40:44], r.MaximumPDUSize)
	binary.BigEndian.PutUint32(buf[44:48], r.FlashProtection)
	binary.BigEndian.PutUint32(buf[48:52], uint32(r.MinRollback))
	binary.BigEndian.PutUint32(buf[52:56], r.KeyVersion)
	binary.BigEndian.PutUint32(buf[56:60], r.Offset)
	return buf
}
