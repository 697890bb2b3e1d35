package protocol

import (
	"encoding/binary"
	"fmt"
)

// UpdateFrameHeader is the fixed header sent immediately before each block
// of firmware payload.
//
// Wire layout (all fields big-endian):
//
//	[BLOCK_SIZE(4)][BLOCK_BASE(4)][BLOCK_DIGEST(4)]
type UpdateFrameHeader struct {
	// BlockSize is the total transfer size in bytes, header included
	BlockSize uint32

	// BlockBase is the target flash address the payload is written to
	BlockBase uint32

	// BlockDigest is reserved and always zero in this protocol variant
	BlockDigest uint32
}

// Encode serializes the header into its 12-byte wire form.
func (h UpdateFrameHeader) Encode() []byte {
	buf := make([]byte, FrameHeaderSize)
	binary.BigEndian.PutUint32(buf[0:4], h.BlockSize)
	binary.BigEndian.PutUint32(buf[4:8], h.BlockBase)
	binary.BigEndian.PutUint32(buf[8:12], h.BlockDigest)
	return buf
}

// EncodeFrameHeader builds the wire form of an update frame header with the
// given block size and target address. The digest field is reserved and
// always sent as zero.
func EncodeFrameHeader(blockSize, blockBase uint32) []byte {
	return UpdateFrameHeader{BlockSize: blockSize, BlockBase: blockBase}.Encode()
}

// DecodeFrameHeader parses the 12-byte wire form of an update frame header.
// It is the inverse of EncodeFrameHeader and is mainly useful for device
// simulators and tests.
func DecodeFrameHeader(buf []byte) (UpdateFrameHeader, error) {
	if len(buf) < FrameHeaderSize {
		return UpdateFrameHeader{}, fmt.Errorf("frame header too short: got %d bytes, need %d", len(buf), FrameHeaderSize)
	}
	return UpdateFrameHeader{
		BlockSize:   binary.BigEndian.Uint32(buf[0:4]),
		BlockBase:   binary.BigEndian.Uint32(buf[4:8]),
		BlockDigest: binary.BigEndian.Uint32(buf[8:12]),
	}, nil
}
