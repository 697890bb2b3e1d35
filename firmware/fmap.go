package firmware

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Flashmap (FMAP) layout constants. All multi-byte fields are
// little-endian, unlike the update wire protocol.
const (
	// fmapSignature marks the start of the flashmap header
	fmapSignature = "__FMAP__"

	// fmapHeaderSize is signature(8) + ver(2) + base(8) + size(4) +
	// name(32) + nareas(2)
	fmapHeaderSize = 56

	// fmapAreaSize is offset(4) + size(4) + name(32) + flags(2)
	fmapAreaSize = 42

	// fmapNameSize is the fixed size of FMAP name fields
	fmapNameSize = 32
)

// Flashmap area names carrying the EC sections and their version strings.
const (
	areaROSection = "EC_RO"
	areaROVersion = "RO_FRID"
	areaRWSection = "EC_RW"
	areaRWVersion = "RW_FWID"
)

type fmapArea struct {
	offset uint32
	size   uint32
	name   string
}

// Parse locates the flashmap inside a raw EC image and builds a Firmware
// with sections for the EC_RO and EC_RW regions. Section version strings
// are read from the RO_FRID and RW_FWID areas when present.
func Parse(blob []byte) (*Firmware, error) {
	areas, err := parseFlashmap(blob)
	if err != nil {
		return nil, err
	}

	var sections []Section
	var images [][]byte
	for _, names := range [][2]string{
		{areaROSection, areaROVersion},
		{areaRWSection, areaRWVersion},
	} {
		area, ok := areas[names[0]]
		if !ok {
			continue
		}
		end := int(area.offset) + int(area.size)
		if end > len(blob) {
			return nil, fmt.Errorf("area %s exceeds image: offset %#x size %#x, image is %#x bytes",
				area.name, area.offset, area.size, len(blob))
		}
		version := ""
		if vArea, ok := areas[names[1]]; ok {
			vEnd := int(vArea.offset) + int(vArea.size)
			if vEnd > len(blob) {
				return nil, fmt.Errorf("area %s exceeds image: offset %#x size %#x, image is %#x bytes",
					vArea.name, vArea.offset, vArea.size, len(blob))
			}
			version = string(bytes.TrimRight(blob[vArea.offset:vEnd], "\x00"))
		}
		sections = append(sections, Section{
			Name:       area.name,
			ImageIndex: len(images),
			Offset:     area.offset,
			Size:       int(area.size),
			Version:    version,
		})
		images = append(images, blob[area.offset:end])
	}

	if len(sections) == 0 {
		return nil, fmt.Errorf("flashmap has no %s or %s area", areaROSection, areaRWSection)
	}
	return &Firmware{sections: sections, images: images}, nil
}

// parseFlashmap finds the FMAP signature and decodes the area table.
func parseFlashmap(blob []byte) (map[string]fmapArea, error) {
	start := bytes.Index(blob, []byte(fmapSignature))
	if start < 0 {
		return nil, fmt.Errorf("no flashmap signature found")
	}
	if len(blob)-start < fmapHeaderSize {
		return nil, fmt.Errorf("truncated flashmap header at %#x", start)
	}

	hdr := blob[start:]
	nareas := int(binary.LittleEndian.Uint16(hdr[54:56]))
	if len(hdr) < fmapHeaderSize+nareas*fmapAreaSize {
		return nil, fmt.Errorf("truncated flashmap: %d areas declared at %#x", nareas, start)
	}

	areas := make(map[string]fmapArea, nareas)
	for i := 0; i < nareas; i++ {
		raw := hdr[fmapHeaderSize+i*fmapAreaSize:]
		name := string(bytes.TrimRight(raw[8:8+fmapNameSize], "\x00"))
		areas[name] = fmapArea{
			offset: binary.LittleEndian.Uint32(raw[0:4]),
			size:   binary.LittleEndian.Uint32(raw[4:8]),
			name:   name,
		}
	}
	return areas, nil
}
