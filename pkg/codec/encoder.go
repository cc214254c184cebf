package codec

// FrameBuilder assembles a single frame. Options are chained; Build returns
// the wire bytes. The same builder state always produces byte-identical
// output.
type FrameBuilder struct {
	frameID  uint64
	prevHash [Blake3Size]byte
	payload  []byte
	flags    Flags
}

// NewFrameBuilder starts a builder for the given frame ID with an empty
// payload, zero prev_hash, and no flags.
func NewFrameBuilder(frameID uint64) *FrameBuilder {
	return &FrameBuilder{frameID: frameID}
}

// Payload sets the frame payload. The builder does not copy it.
func (b *FrameBuilder) Payload(p []byte) *FrameBuilder {
	b.payload = p
	return b
}

// PrevHash sets the back-link to the previous frame's full-frame hash.
func (b *FrameBuilder) PrevHash(h [Blake3Size]byte) *FrameBuilder {
	b.prevHash = h
	return b
}

// WithCRC32C attaches a 4-byte CRC32C trailer.
func (b *FrameBuilder) WithCRC32C() *FrameBuilder {
	b.flags |= FlagHasCRC32C
	return b
}

// WithBlake3 attaches a 32-byte BLAKE3 trailer.
func (b *FrameBuilder) WithBlake3() *FrameBuilder {
	b.flags |= FlagHasBlake3
	return b
}

// MarkFirst declares this the first frame of a sequence and zeroes the
// back-link.
func (b *FrameBuilder) MarkFirst() *FrameBuilder {
	b.flags |= FlagIsFirst
	b.prevHash = [Blake3Size]byte{}
	return b
}

// MarkLast declares this the last frame of a sequence.
func (b *FrameBuilder) MarkLast() *FrameBuilder {
	b.flags |= FlagIsLast
	return b
}

// AsSuperframe marks the payload as a superframe index.
func (b *FrameBuilder) AsSuperframe() *FrameBuilder {
	b.flags |= FlagIsSuperframe
	return b
}

// WithSkipList marks the payload as carrying skip links.
func (b *FrameBuilder) WithSkipList() *FrameBuilder {
	b.flags |= FlagHasSkipList
	return b
}

// WithPreamble prefixes the encoded frame with a preamble run of
// MinPreambleLen bytes of PreamblePattern.
func (b *FrameBuilder) WithPreamble() *FrameBuilder {
	b.flags |= FlagHasPreamble
	return b
}

// WithSyncPrefix prefixes the encoded frame with the robust sync word,
// after any preamble.
func (b *FrameBuilder) WithSyncPrefix() *FrameBuilder {
	b.flags |= FlagHasSyncPrefix
	return b
}

// Build validates the options and returns the encoded frame, including any
// requested preamble or sync prefix.
func (b *FrameBuilder) Build() ([]byte, error) {
	_, encoded, err := b.BuildStruct()
	return encoded, err
}

// BuildStruct returns the Frame record alongside its encoded bytes. The
// Frame's payload aliases the builder's payload slice; its trailer owns its
// bytes. The encoded slice includes any preamble/sync prefix, while the
// Frame and its hash never cover the prefix.
func (b *FrameBuilder) BuildStruct() (*Frame, []byte, error) {
	if b.flags.combinedIntegrity() {
		return nil, nil, &InvalidFlagsError{Flags: b.flags}
	}
	if uint64(len(b.payload)) > MaxPayload {
		return nil, nil, &PayloadTooLargeError{Len: uint64(len(b.payload))}
	}

	header := NewFrameHeader(b.frameID, b.prevHash, uint32(len(b.payload)), b.flags)
	if err := header.Validate(); err != nil {
		return nil, nil, err
	}

	trailerType := b.flags.TrailerType()
	prefixLen := 0
	if b.flags.HasPreamble() {
		prefixLen += MinPreambleLen
	}
	if b.flags.HasSyncPrefix() {
		prefixLen += len(RobustSyncWord)
	}

	total := prefixLen + FrameOverhead + len(b.payload) + trailerType.Size()
	buf := make([]byte, 0, total)

	if b.flags.HasPreamble() {
		for i := 0; i < MinPreambleLen; i++ {
			buf = append(buf, PreamblePattern)
		}
	}
	if b.flags.HasSyncPrefix() {
		buf = append(buf, RobustSyncWord[:]...)
	}

	frameStart := len(buf)
	buf = append(buf, FrameMarker[:]...)
	var hdr [HeaderSize]byte
	header.appendTo(hdr[:])
	buf = append(buf, hdr[:]...)
	buf = append(buf, b.payload...)

	// Trailer covers marker‖header‖payload, never the prefix.
	trailer := computeTrailer(trailerType, buf[frameStart:])
	buf = append(buf, trailer...)

	frame := &Frame{
		Header:  header,
		Payload: b.payload,
		Trailer: trailer,
	}
	return frame, buf, nil
}

// EncodeFrame re-encodes an existing Frame record, recomputing its trailer
// from the flag bits. The output carries no preamble or sync prefix; use
// FrameBuilder for wire prefixes.
func EncodeFrame(f *Frame) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if f.Header.Flags.combinedIntegrity() {
		return nil, &InvalidFlagsError{Flags: f.Header.Flags}
	}

	trailerType := f.Header.Flags.TrailerType()
	buf := make([]byte, 0, FrameOverhead+len(f.Payload)+trailerType.Size())
	buf = append(buf, FrameMarker[:]...)
	var hdr [HeaderSize]byte
	f.Header.appendTo(hdr[:])
	buf = append(buf, hdr[:]...)
	buf = append(buf, f.Payload...)
	buf = append(buf, computeTrailer(trailerType, buf)...)
	return buf, nil
}
