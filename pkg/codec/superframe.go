package codec

import (
	"encoding/binary"
	"fmt"
)

// SuperframeIndex summarizes a prior range of frames. It travels as the
// payload of a frame with FlagIsSuperframe and is opaque to the decoder;
// the helpers here define its byte layout.
type SuperframeIndex struct {
	// RangeStart and RangeEnd bound the summarized frame IDs (inclusive).
	RangeStart uint64
	RangeEnd   uint64

	// RecentIDs lists the last frame IDs before the superframe, for quick
	// local resync.
	RecentIDs []uint64

	// Offsets holds best-effort byte offsets of summarized frames relative
	// to the superframe position.
	Offsets []uint32

	// Checksums holds CRC32C checksums of the summarized frames.
	Checksums []uint32
}

// EncodeSuperframeIndex serializes the index as a superframe payload.
// Layout, big-endian: range_start(8) range_end(8) then three u16-counted
// arrays of u64 recent IDs, u32 offsets, u32 checksums.
func EncodeSuperframeIndex(idx *SuperframeIndex) ([]byte, error) {
	if len(idx.RecentIDs) > 0xFFFF || len(idx.Offsets) > 0xFFFF || len(idx.Checksums) > 0xFFFF {
		return nil, fmt.Errorf("superframe index section too long")
	}
	size := 16 + 2 + len(idx.RecentIDs)*8 + 2 + len(idx.Offsets)*4 + 2 + len(idx.Checksums)*4
	buf := make([]byte, 0, size)
	buf = binary.BigEndian.AppendUint64(buf, idx.RangeStart)
	buf = binary.BigEndian.AppendUint64(buf, idx.RangeEnd)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(idx.RecentIDs)))
	for _, id := range idx.RecentIDs {
		buf = binary.BigEndian.AppendUint64(buf, id)
	}
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(idx.Offsets)))
	for _, off := range idx.Offsets {
		buf = binary.BigEndian.AppendUint32(buf, off)
	}
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(idx.Checksums)))
	for _, sum := range idx.Checksums {
		buf = binary.BigEndian.AppendUint32(buf, sum)
	}
	return buf, nil
}

// ParseSuperframeIndex reads a superframe payload written by
// EncodeSuperframeIndex.
func ParseSuperframeIndex(payload []byte) (*SuperframeIndex, error) {
	if len(payload) < 16 {
		return nil, &UnexpectedEOFError{Needed: 16, Got: len(payload)}
	}
	idx := &SuperframeIndex{
		RangeStart: binary.BigEndian.Uint64(payload),
		RangeEnd:   binary.BigEndian.Uint64(payload[8:]),
	}
	off := 16

	readCount := func() (int, error) {
		if len(payload) < off+2 {
			return 0, &UnexpectedEOFError{Needed: off + 2, Got: len(payload)}
		}
		n := int(binary.BigEndian.Uint16(payload[off:]))
		off += 2
		return n, nil
	}

	n, err := readCount()
	if err != nil {
		return nil, err
	}
	if len(payload) < off+n*8 {
		return nil, &UnexpectedEOFError{Needed: off + n*8, Got: len(payload)}
	}
	for i := 0; i < n; i++ {
		idx.RecentIDs = append(idx.RecentIDs, binary.BigEndian.Uint64(payload[off:]))
		off += 8
	}

	n, err = readCount()
	if err != nil {
		return nil, err
	}
	if len(payload) < off+n*4 {
		return nil, &UnexpectedEOFError{Needed: off + n*4, Got: len(payload)}
	}
	for i := 0; i < n; i++ {
		idx.Offsets = append(idx.Offsets, binary.BigEndian.Uint32(payload[off:]))
		off += 4
	}

	n, err = readCount()
	if err != nil {
		return nil, err
	}
	if len(payload) < off+n*4 {
		return nil, &UnexpectedEOFError{Needed: off + n*4, Got: len(payload)}
	}
	for i := 0; i < n; i++ {
		idx.Checksums = append(idx.Checksums, binary.BigEndian.Uint32(payload[off:]))
		off += 4
	}

	return idx, nil
}
