package protocol

import (
	"strconv"
	"strings"
)

// Version is the parsed form of a device version string.
//
// The raw string looks like "cheese_v1.1.1755-4da9520", optionally with a
// trailing '+' when the image was built from a dirty tree.
type Version struct {
	// BoardName is the board the image was built for
	BoardName string

	// Triplet is the dotted epoch.major.minor version
	Triplet string

	// Hash is the abbreviated git hash of the build
	Hash string

	// Dirty is true when the image was built from a modified tree
	Dirty bool
}

// ParseVersion parses a raw device version string of the form
// "<board>_v<epoch>.<major>.<minor>-<hash>[+]".
func ParseVersion(raw string) (*Version, error) {
	board, rest, ok := strings.Cut(raw, "_v")
	if !ok || board == "" {
		return nil, &VersionParseError{Raw: raw, Reason: "missing \"_v\" separator"}
	}
	triplet, hash, ok := strings.Cut(rest, "-")
	if !ok || hash == "" {
		return nil, &VersionParseError{Raw: raw, Reason: "missing git hash"}
	}
	fields := strings.Split(triplet, ".")
	if len(fields) != 3 {
		return nil, &VersionParseError{Raw: raw, Reason: "version is not a triplet"}
	}
	for _, f := range fields {
		if _, err := strconv.ParseUint(f, 10, 32); err != nil {
			return nil, &VersionParseError{Raw: raw, Reason: "non-numeric version component " + strconv.Quote(f)}
		}
	}
	dirty := strings.HasSuffix(hash, "+")
	return &Version{
		BoardName: board,
		Triplet:   triplet,
		Hash:      strings.TrimSuffix(hash, "+"),
		Dirty:     dirty,
	}, nil
}
