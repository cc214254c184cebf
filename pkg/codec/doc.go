// Package codec implements the Durapack frame format: encoding, strict
// decoding, and the constants and types shared by the scanner and linker.
//
// # Frame Format
//
// A frame is four contiguous regions:
//
//	[Marker(4)][Header(46)][Payload(0..MaxPayload)][Trailer(0|4|32)]
//
// The marker is the fixed bytes "DURP". The header, big-endian throughout:
//
//	version(1) frame_id(8) prev_hash(32) payload_len(4) flags(1)
//
// prev_hash is the BLAKE3-256 of the complete previous frame
// (marker‖header‖payload‖trailer) and is all zeros for the first frame of a
// chain. The optional trailer is a CRC32C checksum (Castagnoli polynomial)
// or a BLAKE3-256 hash and covers marker‖header‖payload of this frame only.
//
// Frames may additionally be preceded on the wire by a preamble run and/or
// the robust sync word; these prefixes help a scanner resynchronize on
// damaged media and are never covered by trailers or chain hashes.
//
// # Strict Decoding
//
// Decode and DecodeZeroCopy validate everything about a frame at a known
// offset: marker, version, declared sizes, flag combinations, and trailer.
// Validation runs cheapest-first and stops at the first failure; every
// failure is a typed error (BadMarkerError, ChecksumMismatchError, ...)
// usable with errors.As. BLAKE3 trailers are compared in constant time.
//
// The zero-copy variant returns frames whose payload and trailer alias the
// source buffer; the caller owns the buffer's lifetime and can detach a
// frame with Clone. No input — empty, truncated, or adversarial — causes a
// panic or unbounded allocation.
//
// # Chaining
//
// ComputeFrameHash produces the value the next frame must carry as
// prev_hash. Encoding is deterministic, so hashing an encoded frame and
// hashing its decoded struct agree.
package codec
