package codec

import (
	"encoding/binary"
	"fmt"
)

// SkipLink is a back-offset link embedded in the payload of frames with
// FlagHasSkipList. Level k points 2^k frames back; Hint carries an optional
// relative byte offset (0 when unknown). The core decoder treats these
// bytes as opaque payload; only the helpers in this file interpret them.
type SkipLink struct {
	Level    uint8
	TargetID uint64
	Hint     uint32
}

// skipLinkEntrySize is level(1) + target_id(8) + hint(4).
const skipLinkEntrySize = 13

// EncodeSkipLinks serializes links followed by the application payload.
// Layout: count(1) then count entries of level‖target_id‖hint, big-endian.
func EncodeSkipLinks(links []SkipLink, rest []byte) ([]byte, error) {
	if len(links) > 255 {
		return nil, fmt.Errorf("too many skip links: %d", len(links))
	}
	buf := make([]byte, 0, 1+len(links)*skipLinkEntrySize+len(rest))
	buf = append(buf, byte(len(links)))
	for _, l := range links {
		buf = append(buf, l.Level)
		buf = binary.BigEndian.AppendUint64(buf, l.TargetID)
		buf = binary.BigEndian.AppendUint32(buf, l.Hint)
	}
	return append(buf, rest...), nil
}

// ParseSkipLinks reads the skip links from a payload written by
// EncodeSkipLinks and returns them with the remaining application bytes.
func ParseSkipLinks(payload []byte) ([]SkipLink, []byte, error) {
	if len(payload) < 1 {
		return nil, nil, &UnexpectedEOFError{Needed: 1, Got: 0}
	}
	count := int(payload[0])
	need := 1 + count*skipLinkEntrySize
	if len(payload) < need {
		return nil, nil, &UnexpectedEOFError{Needed: need, Got: len(payload)}
	}
	links := make([]SkipLink, 0, count)
	off := 1
	for i := 0; i < count; i++ {
		links = append(links, SkipLink{
			Level:    payload[off],
			TargetID: binary.BigEndian.Uint64(payload[off+1:]),
			Hint:     binary.BigEndian.Uint32(payload[off+9:]),
		})
		off += skipLinkEntrySize
	}
	return links, payload[off:], nil
}

// BuildSkipLinks returns the power-of-two back-links for frameID over the
// chain starting at startID: level k targets frameID − 2^k, for every level
// whose target is still ≥ startID.
func BuildSkipLinks(frameID, startID uint64) []SkipLink {
	var links []SkipLink
	for k := uint8(0); k < 64; k++ {
		dist := uint64(1) << k
		if dist > frameID || frameID-dist < startID {
			break
		}
		links = append(links, SkipLink{Level: k, TargetID: frameID - dist})
	}
	return links
}
