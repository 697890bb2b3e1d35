// Package updater drives firmware updates to a ChromeOS EC over a USB bulk
// transport.
//
// # Overview
//
// This package orchestrates the complete update sequence:
//   - Draining stale data left on the endpoint by an aborted session
//   - A versioned handshake negotiating block sizing and the writeable
//     flash region
//   - Streaming each flagged firmware section in retried, acknowledged
//     blocks, with trailing erased bytes trimmed
//   - A best-effort end-of-session signal, sent whether or not the
//     transfer succeeded
//
// # Basic Usage
//
//	dev, err := usb.Open(vid, pid)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Close()
//
//	u := updater.New(dev)
//	session, err := u.Setup(context.Background())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fw, err := firmware.Parse(blob)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := fw.PickSections(session.WriteableOffset); err != nil {
//	    log.Fatal(err)
//	}
//	if err := u.WriteFirmware(context.Background(), fw); err != nil {
//	    log.Fatal(err)
//	}
//
// # Configuration Options
//
// Customize behavior with functional options:
//
//	u := updater.New(dev,
//	    updater.WithProgressCallback(progressFunc),
//	    updater.WithLogger(myLogger),
//	    updater.WithBlockRetries(10),
//	    updater.WithRecvTimeout(10*time.Second),
//	)
//
// # Error Handling
//
// The package surfaces structured error types:
//   - DeviceError: the device returned a non-zero status code
//   - ShortWriteError: a bulk write sent fewer bytes than requested
//   - OutOfBoundsError: a block would read past its section image
//   - ImageMismatchError: section and image sizes disagree
//   - StaleDataError: the endpoint still held data during flush
//   - ErrNothingToDo: no section was flagged for update
//
// Transient failures are retried up to a bound per operation; structural
// ones (OutOfBoundsError, ImageMismatchError, unsupported protocol
// versions) abort immediately.
//
// # Hardware Independence
//
// The package does not implement USB itself. Any Transport implementation
// works, including in-memory simulators for testing; the usb package
// provides the gousb-backed one.
package updater
