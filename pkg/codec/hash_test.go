package codec

import (
	"bytes"
	"testing"
)

func TestComputeFrameHash_CoversTrailer(t *testing.T) {
	withTrailer, _, err := NewFrameBuilder(1).Payload([]byte("same payload")).WithCRC32C().BuildStruct()
	if err != nil {
		t.Fatalf("BuildStruct failed: %v", err)
	}
	without, _, err := NewFrameBuilder(1).Payload([]byte("same payload")).BuildStruct()
	if err != nil {
		t.Fatalf("BuildStruct failed: %v", err)
	}

	// The chain hash covers the complete frame, trailer included, so the
	// two must differ even though header ID and payload match.
	if ComputeFrameHash(withTrailer) == ComputeFrameHash(without) {
		t.Error("frame hash ignores the trailer")
	}
}

func TestComputeFrameHash_MatchesEncodedBytes(t *testing.T) {
	frame, encoded, err := NewFrameBuilder(12).Payload([]byte("hash me")).WithBlake3().BuildStruct()
	if err != nil {
		t.Fatalf("BuildStruct failed: %v", err)
	}

	if ComputeFrameHash(frame) != HashFrameBytes(encoded) {
		t.Error("struct hash disagrees with encoded-bytes hash")
	}
}

func TestComputeFrameHash_ChainsDecodedFrames(t *testing.T) {
	first, firstBytes, err := NewFrameBuilder(1).Payload([]byte("one")).MarkFirst().WithBlake3().BuildStruct()
	if err != nil {
		t.Fatalf("BuildStruct failed: %v", err)
	}

	second, secondBytes, err := NewFrameBuilder(2).
		Payload([]byte("two")).
		PrevHash(ComputeFrameHash(first)).
		WithBlake3().
		BuildStruct()
	if err != nil {
		t.Fatalf("BuildStruct failed: %v", err)
	}

	// A decoder on the other side of the wire must reproduce the link.
	decodedFirst, err := Decode(firstBytes)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	decodedSecond, err := Decode(secondBytes)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if decodedSecond.Header.PrevHash != ComputeFrameHash(decodedFirst) {
		t.Error("decoded chain link does not verify")
	}
	if !bytes.Equal(decodedSecond.Payload, second.Payload) {
		t.Error("payload corrupted through the round trip")
	}
}
