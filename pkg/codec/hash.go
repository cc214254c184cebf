package codec

import (
	"hash/crc32"

	"lukechampine.com/blake3"
)

// castagnoli is the CRC32C table (polynomial 0x1EDC6F41).
var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// ComputeFrameHash returns BLAKE3-256 over the frame's complete wire bytes
// (marker‖header‖payload‖trailer). This is the value the next frame in a
// chain must carry as its prev_hash.
func ComputeFrameHash(f *Frame) [Blake3Size]byte {
	return blake3.Sum256(f.WireBytes())
}

// HashFrameBytes returns BLAKE3-256 over an already-encoded frame. The slice
// must hold exactly marker‖header‖payload‖trailer, with no prefix.
func HashFrameBytes(encoded []byte) [Blake3Size]byte {
	return blake3.Sum256(encoded)
}

// crc32cSum computes the CRC32C checksum of data.
func crc32cSum(data []byte) uint32 {
	return crc32.Checksum(data, castagnoli)
}

// computeTrailer returns the trailer bytes of the given type over
// marker‖header‖payload (the covered slice), or nil for TrailerNone.
func computeTrailer(t TrailerType, covered []byte) []byte {
	switch t {
	case TrailerCRC32C:
		sum := crc32cSum(covered)
		return []byte{byte(sum >> 24), byte(sum >> 16), byte(sum >> 8), byte(sum)}
	case TrailerBlake3:
		h := blake3.Sum256(covered)
		return h[:]
	default:
		return nil
	}
}
