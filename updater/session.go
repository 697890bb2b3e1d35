package updater

import (
	"context"
	"fmt"
	"strings"

	"github.com/myrkr/go-crosec/protocol"
)

// Session is the device state negotiated by the handshake. It is an
// immutable snapshot: created once by Setup and only read afterwards, so a
// transfer can never observe the session changing under it.
type Session struct {
	// ProtocolVersion is the update protocol version in use (5 or 6)
	ProtocolVersion uint16

	// HeaderType identifies the firmware header layout used by the device
	HeaderType uint16

	// WriteableOffset is the lowest flash address the device accepts
	// writes to; it selects which firmware section to transfer
	WriteableOffset uint32

	// MaxPDUSize is the largest payload the device accepts per block
	MaxPDUSize uint32

	// FlashProtection is the device's flash protection status bitmask
	FlashProtection uint32

	// MinRollback is the minimum rollback version the device enforces
	MinRollback int32

	// KeyVersion is the version of the key the running image is signed with
	KeyVersion uint32

	// RawVersion is the unparsed version string from the handshake
	RawVersion string

	// Version is the parsed device version
	Version protocol.Version
}

// Describe returns the session as human-readable key/value lines.
func (s *Session) Describe() string {
	var b strings.Builder
	kv := func(key, value string) {
		fmt.Fprintf(&b, "%-22s %s\n", key+":", value)
	}
	kv("GitHash", s.Version.Hash)
	kv("Dirty", fmt.Sprintf("%t", s.Version.Dirty))
	kv("ProtocolVersion", fmt.Sprintf("%d", s.ProtocolVersion))
	kv("HeaderType", fmt.Sprintf("%d", s.HeaderType))
	kv("MaxPDUSize", fmt.Sprintf("%d", s.MaxPDUSize))
	kv("FlashProtectionStatus", fmt.Sprintf("%#x", s.FlashProtection))
	kv("RawVersion", s.RawVersion)
	kv("KeyVersion", fmt.Sprintf("%d", s.KeyVersion))
	kv("MinRollback", fmt.Sprintf("%d", s.MinRollback))
	kv("WriteableOffset", fmt.Sprintf("%#x", s.WriteableOffset))
	return b.String()
}

// Setup performs the update handshake and returns the negotiated session:
//  1. Drain any stale data left on the IN endpoint by a previous aborted
//     session; a non-empty read means the device is still talking, so the
//     drain is retried until the endpoint times out idle.
//  2. Send the start sentinel (a bare frame header announcing its own
//     size) and read the device's start response.
//  3. Validate the protocol version and the device's reported status,
//     and parse the version string.
//
// Both steps are bounded by the setup retry count; exhausting it fails the
// whole setup.
func (u *Updater) Setup(ctx context.Context) (*Session, error) {
	u.reportProgress(Progress{Phase: PhaseSetup})

	if err := u.retry(ctx, u.config.SetupRetries, "flush", u.flush); err != nil {
		return nil, fmt.Errorf("failed to flush device to idle state: %w", err)
	}

	var resp *protocol.StartResponse
	err := u.retry(ctx, u.config.SetupRetries, "start request", func(ctx context.Context) error {
		r, err := u.startRequest(ctx)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send start request: %w", err)
	}

	if resp.Legacy {
		if resp.ErrorCode != 0 {
			return nil, &DeviceError{Code: resp.ErrorCode}
		}
		return nil, fmt.Errorf("device sent a legacy response with no error code")
	}
	if resp.ProtocolVersion < protocol.MinProtocolVersion ||
		resp.ProtocolVersion > protocol.MaxProtocolVersion {
		return nil, &protocol.UnsupportedVersionError{Version: resp.ProtocolVersion}
	}
	if resp.ReturnValue != 0 {
		return nil, &DeviceError{Code: resp.ReturnValue}
	}
	if resp.MaximumPDUSize == 0 {
		return nil, fmt.Errorf("device reported a zero maximum PDU size")
	}

	version, err := protocol.ParseVersion(resp.Version)
	if err != nil {
		return nil, fmt.Errorf("failed parsing device version: %w", err)
	}

	u.session = &Session{
		ProtocolVersion: resp.ProtocolVersion,
		HeaderType:      resp.HeaderType,
		WriteableOffset: resp.Offset,
		MaxPDUSize:      resp.MaximumPDUSize,
		FlashProtection: resp.FlashProtection,
		MinRollback:     resp.MinRollback,
		KeyVersion:      resp.KeyVersion,
		RawVersion:      resp.Version,
		Version:         *version,
	}

	u.logInfo("device session established",
		"board", version.BoardName,
		"version", version.Triplet,
		"protocol_version", int(resp.ProtocolVersion),
		"max_pdu_size", int(resp.MaximumPDUSize),
		"writeable_offset", fmt.Sprintf("%#x", resp.Offset),
	)

	return u.session, nil
}

// flush attempts a short-timeout read with no prior send. An error or an
// empty read means the endpoint is idle, which is the desired state; data
// coming back is a soft failure so the retry wrapper drains again.
func (u *Updater) flush(ctx context.Context) error {
	buf := make([]byte, u.transport.MaxPacketSize())
	n, err := u.transport.Recv(ctx, buf, u.config.FlushTimeout)
	if err != nil || n == 0 {
		return nil
	}
	u.logDebug("flushing stale bytes", "count", n)
	return &StaleDataError{Bytes: n}
}

// startRequest sends the handshake sentinel and decodes the reply. The
// sentinel is a frame header whose block size covers only itself; the
// device answers with its start response.
func (u *Updater) startRequest(ctx context.Context) (*protocol.StartResponse, error) {
	hdr := protocol.EncodeFrameHeader(protocol.FrameHeaderSize, 0)
	reply, err := u.xfer(ctx, hdr, protocol.StartResponseSize, true)
	if err != nil {
		return nil, err
	}
	return protocol.DecodeStartResponse(reply)
}
