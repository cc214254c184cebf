package codec

import (
	"bytes"
	"testing"
)

func TestSkipLinks_RoundTrip(t *testing.T) {
	links := []SkipLink{
		{Level: 0, TargetID: 99, Hint: 120},
		{Level: 1, TargetID: 98},
		{Level: 3, TargetID: 92, Hint: 4096},
	}
	rest := []byte("application payload")

	payload, err := EncodeSkipLinks(links, rest)
	if err != nil {
		t.Fatalf("EncodeSkipLinks failed: %v", err)
	}

	parsed, remaining, err := ParseSkipLinks(payload)
	if err != nil {
		t.Fatalf("ParseSkipLinks failed: %v", err)
	}

	if len(parsed) != len(links) {
		t.Fatalf("link count: got %d, want %d", len(parsed), len(links))
	}
	for i := range links {
		if parsed[i] != links[i] {
			t.Errorf("link %d: got %+v, want %+v", i, parsed[i], links[i])
		}
	}
	if !bytes.Equal(remaining, rest) {
		t.Errorf("remaining payload: got %q, want %q", remaining, rest)
	}
}

func TestSkipLinks_TravelsThroughFrame(t *testing.T) {
	payload, err := EncodeSkipLinks([]SkipLink{{Level: 2, TargetID: 4}}, []byte("data"))
	if err != nil {
		t.Fatalf("EncodeSkipLinks failed: %v", err)
	}

	encoded, err := NewFrameBuilder(8).Payload(payload).WithSkipList().WithCRC32C().Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	frame, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if !frame.Header.Flags.HasSkipList() {
		t.Fatal("skip-list flag lost in transit")
	}
	links, _, err := ParseSkipLinks(frame.Payload)
	if err != nil {
		t.Fatalf("ParseSkipLinks failed: %v", err)
	}
	if len(links) != 1 || links[0].TargetID != 4 {
		t.Errorf("links corrupted: %+v", links)
	}
}

func TestParseSkipLinks_Truncated(t *testing.T) {
	payload, err := EncodeSkipLinks([]SkipLink{{Level: 1, TargetID: 10}}, nil)
	if err != nil {
		t.Fatalf("EncodeSkipLinks failed: %v", err)
	}

	if _, _, err := ParseSkipLinks(payload[:len(payload)-1]); err == nil {
		t.Error("truncated skip-list parsed without error")
	}
	if _, _, err := ParseSkipLinks(nil); err == nil {
		t.Error("empty payload parsed without error")
	}
}

func TestBuildSkipLinks(t *testing.T) {
	links := BuildSkipLinks(9, 1)

	// 9-1=8, 9-2=7, 9-4=5, 9-8=1 are all >= startID 1.
	want := []SkipLink{
		{Level: 0, TargetID: 8},
		{Level: 1, TargetID: 7},
		{Level: 2, TargetID: 5},
		{Level: 3, TargetID: 1},
	}
	if len(links) != len(want) {
		t.Fatalf("link count: got %d, want %d", len(links), len(want))
	}
	for i := range want {
		if links[i] != want[i] {
			t.Errorf("link %d: got %+v, want %+v", i, links[i], want[i])
		}
	}
}
