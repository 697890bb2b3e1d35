// Package protocol implements the ChromeOS EC firmware update wire protocol
// carried over USB bulk endpoints.
//
// This package provides pure, stateless encoding and decoding of the
// fixed-layout wire structures used by the update protocol. All multi-byte
// integers are big-endian on the wire.
//
// # Wire Overview
//
// Every firmware block is preceded by an update frame header:
//
//	[BLOCK_SIZE(4)][BLOCK_BASE(4)][BLOCK_DIGEST(4)]
//
// BLOCK_SIZE counts the header itself plus the payload that follows.
// BLOCK_DIGEST is reserved and always zero in this protocol variant.
//
// The handshake is started by sending a bare header whose BLOCK_SIZE equals
// the header size, to which the device answers with a start response:
//
//	[PROTOCOL_VERSION(2)][HEADER_TYPE(2)][RETURN_VALUE(4)][VERSION(32)]
//	[MAX_PDU_SIZE(4)][FLASH_PROTECTION(4)][MIN_ROLLBACK(4)][KEY_VERSION(4)]
//	[OFFSET(4)]
//
// Older devices answer with a bare 4-byte error code instead; the decoder
// distinguishes the two shapes by length. See DecodeStartResponse.
//
// # Codec Functions
//
// Use EncodeFrameHeader to build the header prepended to each block:
//
//	hdr := protocol.EncodeFrameHeader(payloadLen+protocol.FrameHeaderSize, addr)
//
// Use DecodeStartResponse to interpret the handshake reply:
//
//	resp, err := protocol.DecodeStartResponse(buf)
//	if resp.Legacy {
//	    // old-style device, resp.ErrorCode carries the failure
//	}
//
// Use ParseVersion to split the device's raw version string into its
// board name, version triplet, git hash and dirty flag.
package protocol
