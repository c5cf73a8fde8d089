package shared

const (
	// ContinuationMarker prefixes every entry of a timestamp node except the last.
	ContinuationMarker = 0xff

	// AttestationMarker introduces an attestation entry.
	AttestationMarker = 0x00

	// AttestationTagSize is the length of the tag that identifies an attestation kind.
	AttestationTagSize = 8

	// MaxURILength bounds the calendar URI carried by a pending attestation.
	MaxURILength = 1000

	// MajorVersion of the detached timestamp file format.
	MajorVersion = 1
)

// HeaderMagic opens every detached timestamp file.
var HeaderMagic = []byte("\x00OpenTimestamps\x00\x00Proof\x00\xbf\x89\xe2\xe8\x84\xe8\x92\x94")
