package protocol

// Protocol version range accepted during the handshake.
const (
	// MinProtocolVersion is the oldest protocol version this library speaks
	MinProtocolVersion = 5

	// MaxProtocolVersion is the newest protocol version this library speaks
	MaxProtocolVersion = 6
)

// Wire structure sizes in bytes.
const (
	// FrameHeaderSize is the size of the update frame header:
	// BLOCK_SIZE(4) + BLOCK_BASE(4) + BLOCK_DIGEST(4)
	FrameHeaderSize = 12

	// StartResponseSize is the size of the structured start response:
	// PROTOCOL_VERSION(2) + HEADER_TYPE(2) + RETURN_VALUE(4) + VERSION(32) +
	// MAX_PDU_SIZE(4) + FLASH_PROTECTION(4) + MIN_ROLLBACK(4) +
	// KEY_VERSION(4) + OFFSET(4)
	StartResponseSize = 60

	// LegacyResponseSize is the size of the legacy start response,
	// a bare error code
	LegacyResponseSize = 4

	// VersionStringSize is the size of the fixed version field inside the
	// start response
	VersionStringSize = 32

	// BlockReplySize is the size of the per-block status reply
	BlockReplySize = 4
)

// UpdateDoneMagic is the value sent as a bare payload to tell the device the
// update session is over. The device acknowledges with a single byte which
// is discarded.
const UpdateDoneMagic = 0xB007AB1E

// StatusSuccess is the device status meaning a block was accepted. Any other
// value is a device-reported error code.
const StatusSuccess = 0

// FillByte is the erased-flash fill value. Trailing runs of this byte are
// trimmed from a section before transfer since the device's flash is already
// erased to it.
const FillByte = 0xFF

// USB descriptor values identifying the update interface on the device.
// The interface class is vendor-specific (0xFF).
const (
	// SubclassGoogleUpdate is the bInterfaceSubClass of the update interface
	SubclassGoogleUpdate = 0x53

	// ProtocolGoogleUpdate is the bInterfaceProtocol of the update interface
	ProtocolGoogleUpdate = 0xFF
)
