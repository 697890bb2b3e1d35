package updater

import (
	"errors"
	"fmt"
)

// ErrNothingToDo indicates no firmware section was flagged as needing an
// update, so nothing was transferred.
var ErrNothingToDo = errors.New("no section required an update")

// ErrNotReady indicates WriteFirmware was called before a successful Setup.
var ErrNotReady = errors.New("no device session, call Setup first")

// ErrNoReply indicates the device returned zero bytes for a block reply.
var ErrNoReply = errors.New("zero bytes received for block reply")

// DeviceError indicates the device returned a non-zero status or error
// code.
type DeviceError struct {
	Code uint32
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device reported error %#x", e.Code)
}

// ShortWriteError indicates a bulk send transferred fewer bytes than
// requested.
type ShortWriteError struct {
	Sent     int
	Expected int
}

func (e *ShortWriteError) Error() string {
	return fmt.Sprintf("only sent %d/%d bytes", e.Sent, e.Expected)
}

// StaleDataError indicates the IN endpoint still held data from a previous
// session during the setup flush. It is retried: the flush loops until the
// endpoint drains idle.
type StaleDataError struct {
	Bytes int
}

func (e *StaleDataError) Error() string {
	return fmt.Sprintf("flushed %d stale bytes", e.Bytes)
}

// OutOfBoundsError indicates a block would read past the end of its
// section image. This is a programming or data error, never retried.
type OutOfBoundsError struct {
	Offset      int
	PayloadSize int
	ImageSize   int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("offset %d plus payload size %d exceeds image size %d",
		e.Offset, e.PayloadSize, e.ImageSize)
}

// ImageMismatchError indicates a section's payload length does not match
// the section size. Never retried.
type ImageMismatchError struct {
	ImageSize   int
	SectionSize int
}

func (e *ImageMismatchError) Error() string {
	return fmt.Sprintf("image and section sizes do not match: image = %d bytes vs section = %d bytes",
		e.ImageSize, e.SectionSize)
}
