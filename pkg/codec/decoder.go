package codec

import (
	"crypto/subtle"
)

// DecodeOptions relaxes strict validation for recovery-mode consumers.
type DecodeOptions struct {
	// AllowCombinedIntegrity accepts frames with both integrity flag bits
	// set, giving the BLAKE3 trailer precedence. Strict mode rejects the
	// combination with InvalidFlagsError.
	AllowCombinedIntegrity bool
}

// Decode parses and fully validates a frame that starts at data[0]. The
// returned frame owns its payload and trailer bytes; data may be reused or
// discarded afterwards.
func Decode(data []byte) (*Frame, error) {
	return decode(data, DecodeOptions{}, true)
}

// DecodeWithOptions is Decode with recovery-mode knobs.
func DecodeWithOptions(data []byte, opts DecodeOptions) (*Frame, error) {
	return decode(data, opts, true)
}

// DecodeZeroCopy parses and fully validates a frame that starts at data[0],
// returning a frame whose payload and trailer are sub-slices of data. The
// caller must keep data alive and unmodified for the lifetime of the frame;
// use Frame.Clone to detach.
func DecodeZeroCopy(data []byte) (*Frame, error) {
	return decode(data, DecodeOptions{}, false)
}

// FrameSize reports the total encoded size of the frame starting at data[0]
// without validating payload or trailer contents. It needs only the marker
// and header bytes.
func FrameSize(data []byte) (int, error) {
	if len(data) < FrameOverhead {
		return 0, &UnexpectedEOFError{Needed: FrameOverhead, Got: len(data)}
	}
	var marker [MarkerSize]byte
	copy(marker[:], data[:MarkerSize])
	if marker != FrameMarker {
		return 0, &BadMarkerError{Got: marker}
	}
	h := parseHeader(data[MarkerSize:FrameOverhead])
	if h.PayloadLen > MaxPayload {
		return 0, &PayloadTooLargeError{Len: uint64(h.PayloadLen)}
	}
	return FrameOverhead + int(h.PayloadLen) + h.Flags.TrailerType().Size(), nil
}

// decode runs the strict validation pipeline, cheapest check first,
// stopping at the first failure. It never panics on any input.
func decode(data []byte, opts DecodeOptions, copyBytes bool) (*Frame, error) {
	// 1. Marker.
	if len(data) < MarkerSize {
		return nil, &UnexpectedEOFError{Needed: FrameOverhead, Got: len(data)}
	}
	var marker [MarkerSize]byte
	copy(marker[:], data[:MarkerSize])
	if marker != FrameMarker {
		return nil, &BadMarkerError{Got: marker}
	}

	// 2. Version.
	if len(data) < MarkerSize+1 {
		return nil, &UnexpectedEOFError{Needed: FrameOverhead, Got: len(data)}
	}
	if data[MarkerSize] != ProtocolVersion {
		return nil, &UnsupportedVersionError{Version: data[MarkerSize]}
	}

	// Remaining header.
	if len(data) < FrameOverhead {
		return nil, &UnexpectedEOFError{Needed: FrameOverhead, Got: len(data)}
	}
	header := parseHeader(data[MarkerSize:FrameOverhead])

	// 3. Declared payload length.
	if header.PayloadLen > MaxPayload {
		return nil, &PayloadTooLargeError{Len: uint64(header.PayloadLen)}
	}

	// 4. Flag combinations.
	if header.Flags.combinedIntegrity() && !opts.AllowCombinedIntegrity {
		return nil, &InvalidFlagsError{Flags: header.Flags}
	}

	// 5. Buffer covers payload and declared trailer.
	trailerType := header.Flags.TrailerType()
	payloadEnd := FrameOverhead + int(header.PayloadLen)
	total := payloadEnd + trailerType.Size()
	if len(data) < total {
		return nil, &UnexpectedEOFError{Needed: total, Got: len(data)}
	}

	// 6. Trailer verification over marker‖header‖payload.
	covered := data[:payloadEnd]
	stored := data[payloadEnd:total]
	switch trailerType {
	case TrailerCRC32C:
		actual := computeTrailer(TrailerCRC32C, covered)
		if string(actual) != string(stored) {
			return nil, &ChecksumMismatchError{
				Expected: append([]byte(nil), stored...),
				Actual:   actual,
			}
		}
	case TrailerBlake3:
		actual := computeTrailer(TrailerBlake3, covered)
		if subtle.ConstantTimeCompare(actual, stored) != 1 {
			return nil, &ChecksumMismatchError{
				Expected: append([]byte(nil), stored...),
				Actual:   actual,
			}
		}
	}

	frame := &Frame{Header: header}
	if copyBytes {
		frame.Payload = append([]byte(nil), data[FrameOverhead:payloadEnd]...)
		if trailerType != TrailerNone {
			frame.Trailer = append([]byte(nil), stored...)
		}
	} else {
		frame.Payload = data[FrameOverhead:payloadEnd:payloadEnd]
		if trailerType != TrailerNone {
			frame.Trailer = data[payloadEnd:total:total]
		}
	}
	return frame, nil
}
