// Package scan recovers frames from byte buffers of unknown cleanliness:
// partially corrupted, truncated, reordered, duplicated, or interleaved
// with garbage.
//
// The scanner walks the buffer trying three search strategies per
// candidate position, strongest first: an exact marker match (vectorized
// substring search), sync-word/preamble-assisted resynchronization, and an
// optional bounded-Hamming slide that tolerates single-bit marker damage.
// A candidate only becomes a result if the strict decoder accepts it;
// failed candidates advance the cursor by one byte and are counted in the
// statistics, never surfaced as errors.
//
// Each located frame carries a confidence score in [0, 1] composed from
// marker quality, prefix presence, trailer class, size sanity, and
// consistency with the previously located frame.
//
// The scanner never mutates its input, terminates on every input, and with
// the default options never returns a frame that would not strictly decode
// at the reported offset.
package scan
