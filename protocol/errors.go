package protocol

import "fmt"

// TruncatedResponseError indicates the device returned fewer bytes than the
// smallest valid response.
type TruncatedResponseError struct {
	Received int
	Minimum  int
}

func (e *TruncatedResponseError) Error() string {
	return fmt.Sprintf("truncated response: got %d bytes, minimum is %d", e.Received, e.Minimum)
}

// UnsupportedVersionError indicates the device speaks a protocol version
// outside the supported range.
type UnsupportedVersionError struct {
	Version uint16
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported protocol version %d (supported: %d-%d)",
		e.Version, MinProtocolVersion, MaxProtocolVersion)
}

// VersionParseError indicates the device's version string is malformed.
type VersionParseError struct {
	Raw    string
	Reason string
}

func (e *VersionParseError) Error() string {
	return fmt.Sprintf("malformed version string %q: %s", e.Raw, e.Reason)
}
