// Package firmware models ChromeOS EC firmware images as a set of named
// sections with target addresses and per-section update status.
//
// EC images carry a flashmap (FMAP) describing the read-only and
// read-write copies of the firmware. Parse locates the flashmap inside a
// raw image and builds a Firmware whose sections reference the EC_RO and
// EC_RW regions, with their version strings read from the RO_FRID and
// RW_FWID areas.
//
// Which section actually needs to be transferred depends on the device: an
// EC only accepts writes to the copy it is not currently running, and it
// reports that region's base address during the update handshake. Call
// PickSections with the reported writeable offset to flag the matching
// section.
//
//	fw, err := firmware.Parse(blob)
//	if err != nil {
//	    return err
//	}
//	if err := fw.PickSections(session.WriteableOffset); err != nil {
//	    return err
//	}
//
// Images that do not use a flashmap can be described directly with New.
package firmware
