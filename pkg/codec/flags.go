package codec

// Flags is the frame header flag bitfield.
type Flags uint8

// Flag bits.
const (
	// FlagHasCRC32C marks a 4-byte CRC32C trailer
	FlagHasCRC32C Flags = 0x01

	// FlagHasBlake3 marks a 32-byte BLAKE3 trailer
	FlagHasBlake3 Flags = 0x02

	// FlagIsFirst marks the declared first frame of a logical sequence
	FlagIsFirst Flags = 0x04

	// FlagIsLast marks the declared last frame of a logical sequence
	FlagIsLast Flags = 0x08

	// FlagHasPreamble means the frame is preceded on the wire by a
	// repeating preamble run
	FlagHasPreamble Flags = 0x10

	// FlagHasSyncPrefix means the frame is preceded by the robust sync word
	FlagHasSyncPrefix Flags = 0x20

	// FlagIsSuperframe means the payload holds an index summarizing a prior
	// range (opaque to the codec)
	FlagIsSuperframe Flags = 0x40

	// FlagHasSkipList means the payload includes back-offset skip links
	// (opaque to the codec)
	FlagHasSkipList Flags = 0x80
)

// TrailerType identifies the integrity trailer attached to a frame.
type TrailerType int

// Trailer variants.
const (
	TrailerNone TrailerType = iota
	TrailerCRC32C
	TrailerBlake3
)

// Size returns the encoded trailer length in bytes.
func (t TrailerType) Size() int {
	switch t {
	case TrailerCRC32C:
		return CRC32CSize
	case TrailerBlake3:
		return Blake3Size
	default:
		return 0
	}
}

func (t TrailerType) String() string {
	switch t {
	case TrailerCRC32C:
		return "crc32c"
	case TrailerBlake3:
		return "blake3"
	default:
		return "none"
	}
}

// HasCRC32C reports whether the CRC32C trailer bit is set.
func (f Flags) HasCRC32C() bool { return f&FlagHasCRC32C != 0 }

// HasBlake3 reports whether the BLAKE3 trailer bit is set.
func (f Flags) HasBlake3() bool { return f&FlagHasBlake3 != 0 }

// IsFirst reports whether the frame declares itself first in a sequence.
func (f Flags) IsFirst() bool { return f&FlagIsFirst != 0 }

// IsLast reports whether the frame declares itself last in a sequence.
func (f Flags) IsLast() bool { return f&FlagIsLast != 0 }

// HasPreamble reports whether a preamble run precedes the frame on the wire.
func (f Flags) HasPreamble() bool { return f&FlagHasPreamble != 0 }

// HasSyncPrefix reports whether the sync word precedes the frame on the wire.
func (f Flags) HasSyncPrefix() bool { return f&FlagHasSyncPrefix != 0 }

// IsSuperframe reports whether the payload carries a superframe index.
func (f Flags) IsSuperframe() bool { return f&FlagIsSuperframe != 0 }

// HasSkipList reports whether the payload carries skip links.
func (f Flags) HasSkipList() bool { return f&FlagHasSkipList != 0 }

// combinedIntegrity reports whether both trailer bits are set, which strict
// mode rejects.
func (f Flags) combinedIntegrity() bool {
	return f.HasCRC32C() && f.HasBlake3()
}

// TrailerType returns the trailer variant selected by the flag bits.
// When both bits are set (accepted only in recovery mode) BLAKE3 takes
// precedence.
func (f Flags) TrailerType() TrailerType {
	switch {
	case f.HasBlake3():
		return TrailerBlake3
	case f.HasCRC32C():
		return TrailerCRC32C
	default:
		return TrailerNone
	}
}
