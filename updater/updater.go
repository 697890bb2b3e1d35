package updater

import (
	"context"
	"fmt"
	"time"
)

// Transport is a bulk-endpoint channel to the device. Implementations
// perform one blocking transfer at a time; the per-call timeout bounds how
// long a single transfer may take.
type Transport interface {
	// Send writes buf to the OUT endpoint and returns the number of
	// bytes actually transferred.
	Send(ctx context.Context, buf []byte, timeout time.Duration) (int, error)

	// Recv reads up to len(buf) bytes from the IN endpoint and returns
	// the number of bytes actually transferred.
	Recv(ctx context.Context, buf []byte, timeout time.Duration) (int, error)

	// MaxPacketSize returns the endpoint's wMaxPacketSize. Block payloads
	// are sliced into chunks of this size.
	MaxPacketSize() int
}

// Updater drives the firmware update protocol against a single device.
// It owns its transport's endpoints for the lifetime of the session; no
// other component may transfer on them concurrently.
type Updater struct {
	transport Transport
	config    Config
	session   *Session
}

// New creates an Updater for the given transport.
//
// Example:
//
//	dev, _ := usb.Open(vid, pid)
//	u := updater.New(dev,
//	    updater.WithLogger(myLogger),
//	    updater.WithProgressCallback(progressFunc),
//	)
func New(transport Transport, opts ...Option) *Updater {
	if transport == nil {
		panic("transport cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Updater{
		transport: transport,
		config:    cfg,
	}
}

// Session returns the negotiated device session, or nil before Setup has
// succeeded.
func (u *Updater) Session() *Session {
	return u.session
}

// Describe returns a human-readable key/value summary of the negotiated
// session, or an empty string before Setup has succeeded.
func (u *Updater) Describe() string {
	if u.session == nil {
		return ""
	}
	return u.session.Describe()
}

// xfer performs one send and/or receive exchange on the transport. A send
// that transfers fewer bytes than requested fails with ShortWriteError. A
// receive that transfers fewer than inLen bytes fails unless allowLess is
// set; the received prefix is returned.
func (u *Updater) xfer(ctx context.Context, out []byte, inLen int, allowLess bool) ([]byte, error) {
	if len(out) > 0 {
		n, err := u.transport.Send(ctx, out, u.config.SendTimeout)
		if err != nil {
			return nil, fmt.Errorf("bulk send of %d bytes: %w", len(out), err)
		}
		if n != len(out) {
			return nil, &ShortWriteError{Sent: n, Expected: len(out)}
		}
	}

	if inLen > 0 {
		buf := make([]byte, inLen)
		n, err := u.transport.Recv(ctx, buf, u.config.RecvTimeout)
		if err != nil {
			return nil, fmt.Errorf("bulk recv of %d bytes: %w", inLen, err)
		}
		if n != inLen && !allowLess {
			return nil, fmt.Errorf("only received %d/%d bytes", n, inLen)
		}
		return buf[:n], nil
	}

	return nil, nil
}

func (u *Updater) logDebug(msg string, keysAndValues ...interface{}) {
	if u.config.Logger != nil {
		u.config.Logger.Debug(msg, keysAndValues...)
	}
}

func (u *Updater) logInfo(msg string, keysAndValues ...interface{}) {
	if u.config.Logger != nil {
		u.config.Logger.Info(msg, keysAndValues...)
	}
}

func (u *Updater) reportProgress(progress Progress) {
	if u.config.ProgressCallback != nil {
		u.config.ProgressCallback(progress)
	}
}
