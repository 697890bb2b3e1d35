package updater

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/myrkr/go-crosec/firmware"
	"github.com/myrkr/go-crosec/protocol"
)

// Firmware is the container contract consumed by WriteFirmware. A parsed
// *firmware.Firmware satisfies it; so does any other container that can
// enumerate sections and hand out their payloads.
type Firmware interface {
	// Sections lists the container's sections; those flagged UpdateNeeded
	// get transferred
	Sections() []firmware.Section

	// ImageBytes returns the payload for a section's image index
	ImageBytes(idx int) ([]byte, error)
}

// blockInfo describes one retryable unit of transfer: a frame header and
// the image slice it covers. It lives for a single retry loop invocation.
type blockInfo struct {
	header      protocol.UpdateFrameHeader
	image       []byte
	offset      int
	payloadSize int
}

// transferBlock sends a single block: the frame header as one transfer,
// the payload sliced into max-packet-size chunks in order, then a status
// reply read. Each attempt is self-contained so the retry wrapper can
// re-run it without shared mutable state.
func (u *Updater) transferBlock(ctx context.Context, blk *blockInfo) error {
	if blk.offset+blk.payloadSize > len(blk.image) {
		return &OutOfBoundsError{
			Offset:      blk.offset,
			PayloadSize: blk.payloadSize,
			ImageSize:   len(blk.image),
		}
	}

	if _, err := u.xfer(ctx, blk.header.Encode(), 0, false); err != nil {
		return fmt.Errorf("send block header: %w", err)
	}

	payload := blk.image[blk.offset : blk.offset+blk.payloadSize]
	chunkSize := u.transport.MaxPacketSize()
	for start := 0; start < len(payload); start += chunkSize {
		end := start + chunkSize
		if end > len(payload) {
			end = len(payload)
		}
		if _, err := u.xfer(ctx, payload[start:end], 0, false); err != nil {
			return fmt.Errorf("send chunk at offset %d: %w", start, err)
		}
	}

	reply, err := u.xfer(ctx, nil, protocol.BlockReplySize, true)
	if err != nil {
		return fmt.Errorf("read block reply: %w", err)
	}
	if len(reply) == 0 {
		return ErrNoReply
	}
	var status uint32
	for _, b := range reply {
		status = status<<8 | uint32(b)
	}
	if status != protocol.StatusSuccess {
		return &DeviceError{Code: status}
	}
	return nil
}

// transferSection streams one firmware section to the device in
// acknowledged blocks. Trailing erased bytes are trimmed first: the
// device's flash is already erased to the fill value, so sending them is
// wasted bandwidth. Trimming only shortens the data, never the section's
// target address.
func (u *Updater) transferSection(ctx context.Context, fw Firmware, section *firmware.Section, prog *writeProgress) error {
	img, err := fw.ImageBytes(section.ImageIndex)
	if err != nil {
		return fmt.Errorf("failed to find section image: %w", err)
	}
	if len(img) != section.Size {
		return &ImageMismatchError{ImageSize: len(img), SectionSize: section.Size}
	}

	data := trimFill(img)
	u.logDebug("trimmed trailing fill bytes",
		"section", section.Name,
		"trimmed", len(img)-len(data),
	)
	u.logDebug("sending section",
		"section", section.Name,
		"bytes", len(data),
		"addr", fmt.Sprintf("%#x", section.Offset),
	)

	addr := section.Offset
	offset := 0
	remaining := len(data)
	for remaining > 0 {
		payloadSize := remaining
		if max := int(u.session.MaxPDUSize); payloadSize > max {
			payloadSize = max
		}
		blk := &blockInfo{
			header: protocol.UpdateFrameHeader{
				BlockSize: uint32(payloadSize + protocol.FrameHeaderSize),
				BlockBase: addr,
			},
			image:       data,
			offset:      offset,
			payloadSize: payloadSize,
		}

		err := u.retry(ctx, u.config.BlockRetries, "transfer block", func(ctx context.Context) error {
			return u.transferBlock(ctx, blk)
		})
		if err != nil {
			return fmt.Errorf("failed to transfer block at %#x, %d bytes to go: %w", addr, remaining, err)
		}

		remaining -= payloadSize
		offset += payloadSize
		addr += uint32(payloadSize)
		prog.advance(u, section.Name, payloadSize)
	}

	return nil
}

// WriteFirmware transfers every section flagged as needing an update. The
// first section failure aborts the transfer, but the end-of-session signal
// is sent exactly once either way so the device knows the host is done.
// Returns ErrNothingToDo when no section was flagged.
func (u *Updater) WriteFirmware(ctx context.Context, fw Firmware) error {
	if u.session == nil {
		return ErrNotReady
	}

	prog := u.newWriteProgress(fw)
	sections := fw.Sections()
	transferred := 0
	var transferErr error
	for i := range sections {
		if !sections[i].UpdateNeeded {
			continue
		}
		if err := u.transferSection(ctx, fw, &sections[i], prog); err != nil {
			transferErr = fmt.Errorf("section %s: %w", sections[i].Name, err)
			break
		}
		transferred++
	}

	u.sendDone(ctx)

	if transferErr != nil {
		return transferErr
	}
	if transferred == 0 {
		return ErrNothingToDo
	}

	u.reportProgress(Progress{
		Phase:        PhaseComplete,
		BytesWritten: prog.written,
		TotalBytes:   prog.total,
		Percentage:   100,
		Elapsed:      time.Since(prog.start),
	})
	u.logInfo("firmware write complete",
		"sections", transferred,
		"bytes", prog.written,
		"elapsed", time.Since(prog.start).String(),
	)
	return nil
}

// sendDone tells the device the session is over. This is best-effort: the
// write outcome is decided by the section transfers alone, so a failure
// here is only logged.
func (u *Updater) sendDone(ctx context.Context) {
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, protocol.UpdateDoneMagic)
	if _, err := u.xfer(ctx, out, 1, false); err != nil {
		u.logDebug("error on transfer of done", "error", err.Error())
	}
}

// trimFill drops trailing fill bytes from the end of a section payload.
func trimFill(data []byte) []byte {
	n := len(data)
	for n > 0 && data[n-1] == protocol.FillByte {
		n--
	}
	return data[:n]
}

// writeProgress tracks byte accounting across the sections of one write.
type writeProgress struct {
	written int
	total   int
	start   time.Time
}

func (u *Updater) newWriteProgress(fw Firmware) *writeProgress {
	total := 0
	for _, s := range fw.Sections() {
		if !s.UpdateNeeded {
			continue
		}
		if img, err := fw.ImageBytes(s.ImageIndex); err == nil {
			total += len(trimFill(img))
		}
	}
	return &writeProgress{total: total, start: time.Now()}
}

func (p *writeProgress) advance(u *Updater, section string, n int) {
	p.written += n
	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.written) / float64(p.total) * 100
	}
	u.reportProgress(Progress{
		Phase:        PhaseWrite,
		Section:      section,
		BytesWritten: p.written,
		TotalBytes:   p.total,
		Percentage:   percentage,
		Elapsed:      time.Since(p.start),
	})
}
