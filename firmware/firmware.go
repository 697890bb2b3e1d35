package firmware

import "fmt"

// Section describes one updatable region of a firmware image.
type Section struct {
	// Name is the flashmap area name, e.g. "EC_RW"
	Name string

	// ImageIndex selects the section's payload via Firmware.ImageBytes
	ImageIndex int

	// Offset is the target flash address of the section
	Offset uint32

	// Size is the section size in bytes
	Size int

	// Version is the section's embedded version string, if any
	Version string

	// UpdateNeeded marks the section for transfer; set by PickSections
	UpdateNeeded bool
}

// Firmware is a parsed firmware container: an ordered set of sections and
// their payload bytes.
type Firmware struct {
	sections []Section
	images   [][]byte
}

// New builds a Firmware from explicit sections and payloads, for containers
// that do not carry a flashmap. Every section's ImageIndex must reference a
// payload and every section's Size must match its payload length.
func New(sections []Section, images [][]byte) (*Firmware, error) {
	for i, s := range sections {
		if s.ImageIndex < 0 || s.ImageIndex >= len(images) {
			return nil, fmt.Errorf("section %d (%s): image index %d out of range", i, s.Name, s.ImageIndex)
		}
		if s.Size != len(images[s.ImageIndex]) {
			return nil, fmt.Errorf("section %d (%s): size %d does not match payload length %d",
				i, s.Name, s.Size, len(images[s.ImageIndex]))
		}
	}
	return &Firmware{sections: sections, images: images}, nil
}

// Sections returns the firmware's sections. The returned slice aliases the
// firmware's own state, so UpdateNeeded flags set by PickSections are
// visible through it.
func (f *Firmware) Sections() []Section {
	return f.sections
}

// ImageBytes returns the payload of the section with the given image index.
func (f *Firmware) ImageBytes(idx int) ([]byte, error) {
	if idx < 0 || idx >= len(f.images) {
		return nil, fmt.Errorf("image index %d out of range (have %d images)", idx, len(f.images))
	}
	return f.images[idx], nil
}

// PickSections flags every section whose target address equals the device's
// writeable offset. The device only accepts writes to the firmware copy it
// is not running, so exactly the section(s) based there need transferring.
// Returns an error if no section matches.
func (f *Firmware) PickSections(writeableOffset uint32) error {
	found := false
	for i := range f.sections {
		if f.sections[i].Offset != writeableOffset {
			continue
		}
		f.sections[i].UpdateNeeded = true
		found = true
	}
	if !found {
		return fmt.Errorf("no writeable section found at offset %#x", writeableOffset)
	}
	return nil
}
