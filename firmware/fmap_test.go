package firmware

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testArea struct {
	offset uint32
	size   uint32
	name   string
}

// buildImage fabricates an EC image with a flashmap at fmapOffset.
func buildImage(t *testing.T, size int, fmapOffset int, areas []testArea) []byte {
	t.Helper()
	blob := make([]byte, size)

	hdr := blob[fmapOffset:]
	copy(hdr, fmapSignature)
	hdr[8], hdr[9] = 1, 1 // version
	binary.LittleEndian.PutUint32(hdr[18:22], uint32(size))
	copy(hdr[22:54], "FMAP")
	binary.LittleEndian.PutUint16(hdr[54:56], uint16(len(areas)))

	for i, a := range areas {
		raw := hdr[fmapHeaderSize+i*fmapAreaSize:]
		binary.LittleEndian.PutUint32(raw[0:4], a.offset)
		binary.LittleEndian.PutUint32(raw[4:8], a.size)
		copy(raw[8:8+fmapNameSize], a.name)
	}
	return blob
}

func TestParse(t *testing.T) {
	blob := buildImage(t, 0x4000, 0x2000, []testArea{
		{offset: 0x0, size: 0x800, name: "EC_RO"},
		{offset: 0x900, size: 32, name: "RO_FRID"},
		{offset: 0x1000, size: 0x800, name: "EC_RW"},
		{offset: 0x1900, size: 32, name: "RW_FWID"},
	})
	copy(blob[0x900:], "cheese_v1.1.1750-262261b")
	copy(blob[0x1900:], "cheese_v1.1.1755-4da9520")
	blob[0x1000] = 0xAB // first RW payload byte

	fw, err := Parse(blob)
	require.NoError(t, err)

	sections := fw.Sections()
	require.Len(t, sections, 2)

	assert.Equal(t, "EC_RO", sections[0].Name)
	assert.Equal(t, uint32(0x0), sections[0].Offset)
	assert.Equal(t, 0x800, sections[0].Size)
	assert.Equal(t, "cheese_v1.1.1750-262261b", sections[0].Version)
	assert.False(t, sections[0].UpdateNeeded)

	assert.Equal(t, "EC_RW", sections[1].Name)
	assert.Equal(t, uint32(0x1000), sections[1].Offset)
	assert.Equal(t, "cheese_v1.1.1755-4da9520", sections[1].Version)

	img, err := fw.ImageBytes(sections[1].ImageIndex)
	require.NoError(t, err)
	assert.Len(t, img, 0x800)
	assert.Equal(t, byte(0xAB), img[0])
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		blob   []byte
		errMsg string
	}{
		{
			name:   "no signature",
			blob:   make([]byte, 0x1000),
			errMsg: "no flashmap signature",
		},
		{
			name:   "truncated header",
			blob:   append(make([]byte, 0x100), []byte(fmapSignature)...),
			errMsg: "truncated flashmap header",
		},
		{
			name: "no ec areas",
			blob: buildImage(t, 0x1000, 0x800, []testArea{
				{offset: 0, size: 16, name: "BOOT_STUB"},
			}),
			errMsg: "no EC_RO or EC_RW area",
		},
		{
			name: "area out of range",
			blob: buildImage(t, 0x1000, 0x800, []testArea{
				{offset: 0x900, size: 0x1000, name: "EC_RW"},
			}),
			errMsg: "exceeds image",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.blob)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestPickSections(t *testing.T) {
	blob := buildImage(t, 0x4000, 0x2000, []testArea{
		{offset: 0x0, size: 0x100, name: "EC_RO"},
		{offset: 0x1000, size: 0x100, name: "EC_RW"},
	})
	fw, err := Parse(blob)
	require.NoError(t, err)

	require.NoError(t, fw.PickSections(0x1000))
	sections := fw.Sections()
	assert.False(t, sections[0].UpdateNeeded)
	assert.True(t, sections[1].UpdateNeeded)

	err = fw.PickSections(0xdead)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no writeable section")
}

func TestNewValidation(t *testing.T) {
	_, err := New([]Section{{Name: "EC_RW", ImageIndex: 1}}, [][]byte{{0x01}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	_, err = New([]Section{{Name: "EC_RW", ImageIndex: 0, Size: 2}}, [][]byte{{0x01}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match")

	fw, err := New([]Section{{Name: "EC_RW", ImageIndex: 0, Size: 1}}, [][]byte{{0x01}})
	require.NoError(t, err)
	assert.Len(t, fw.Sections(), 1)
}
