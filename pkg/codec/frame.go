package codec

import (
	"encoding/binary"
)

// FrameHeader holds the fixed metadata that follows the marker.
type FrameHeader struct {
	Version    uint8
	FrameID    uint64
	PrevHash   [Blake3Size]byte
	PayloadLen uint32
	Flags      Flags
}

// NewFrameHeader returns a header for the current protocol version.
func NewFrameHeader(frameID uint64, prevHash [Blake3Size]byte, payloadLen uint32, flags Flags) FrameHeader {
	return FrameHeader{
		Version:    ProtocolVersion,
		FrameID:    frameID,
		PrevHash:   prevHash,
		PayloadLen: payloadLen,
		Flags:      flags,
	}
}

// Validate checks the header against the format limits.
func (h FrameHeader) Validate() error {
	if h.Version != ProtocolVersion {
		return &UnsupportedVersionError{Version: h.Version}
	}
	if h.PayloadLen > MaxPayload {
		return &PayloadTooLargeError{Len: uint64(h.PayloadLen)}
	}
	return nil
}

// IsChainRoot reports whether the header begins a chain: PrevHash is all
// zeros or the frame is declared first.
func (h FrameHeader) IsChainRoot() bool {
	if h.Flags.IsFirst() {
		return true
	}
	return h.PrevHash == [Blake3Size]byte{}
}

// appendTo writes the header's 46 bytes into dst, which must have room.
func (h FrameHeader) appendTo(dst []byte) {
	dst[offVersion] = h.Version
	binary.BigEndian.PutUint64(dst[offFrameID:], h.FrameID)
	copy(dst[offPrevHash:], h.PrevHash[:])
	binary.BigEndian.PutUint32(dst[offPayloadLen:], h.PayloadLen)
	dst[offFlags] = byte(h.Flags)
}

// parseHeader reads the 46 header bytes at data (marker excluded).
func parseHeader(data []byte) FrameHeader {
	var h FrameHeader
	h.Version = data[offVersion]
	h.FrameID = binary.BigEndian.Uint64(data[offFrameID:])
	copy(h.PrevHash[:], data[offPrevHash:offPrevHash+Blake3Size])
	h.PayloadLen = binary.BigEndian.Uint32(data[offPayloadLen:])
	h.Flags = Flags(data[offFlags])
	return h
}

// Frame is a complete decoded record: header plus payload and optional
// trailer bytes. Depending on the decoder used, Payload and Trailer either
// own their bytes or alias the source buffer.
type Frame struct {
	Header  FrameHeader
	Payload []byte
	Trailer []byte

	// SkipLinks holds back-links parsed from the payload of frames with
	// FlagHasSkipList. The codec never populates this during decode; the
	// linker fills it from ParseSkipLinks, or the caller sets it.
	SkipLinks []SkipLink
}

// FrameID returns the header frame identifier.
func (f *Frame) FrameID() uint64 { return f.Header.FrameID }

// TotalSize returns the encoded size of the frame in bytes, excluding any
// preamble or sync prefix.
func (f *Frame) TotalSize() int {
	return FrameOverhead + len(f.Payload) + len(f.Trailer)
}

// Validate checks internal consistency between header and payload.
func (f *Frame) Validate() error {
	if err := f.Header.Validate(); err != nil {
		return err
	}
	if uint32(len(f.Payload)) != f.Header.PayloadLen {
		return &UnexpectedEOFError{
			Needed: FrameOverhead + int(f.Header.PayloadLen),
			Got:    FrameOverhead + len(f.Payload),
		}
	}
	return nil
}

// WireBytes re-encodes the frame's canonical wire representation
// (marker‖header‖payload‖trailer) without any preamble or sync prefix.
// Encoding is deterministic: identical fields always yield identical bytes.
func (f *Frame) WireBytes() []byte {
	buf := make([]byte, 0, f.TotalSize())
	buf = append(buf, FrameMarker[:]...)
	var hdr [HeaderSize]byte
	f.Header.appendTo(hdr[:])
	buf = append(buf, hdr[:]...)
	buf = append(buf, f.Payload...)
	buf = append(buf, f.Trailer...)
	return buf
}

// Clone returns a deep copy whose payload and trailer own their bytes.
// Use this to detach a zero-copy frame from its source buffer.
func (f *Frame) Clone() *Frame {
	c := &Frame{Header: f.Header}
	if f.Payload != nil {
		c.Payload = append([]byte(nil), f.Payload...)
	}
	if f.Trailer != nil {
		c.Trailer = append([]byte(nil), f.Trailer...)
	}
	if f.SkipLinks != nil {
		c.SkipLinks = append([]SkipLink(nil), f.SkipLinks...)
	}
	return c
}
