package scan_test

import (
	"testing"

	"github.com/ssargent/durapack/pkg/codec"
	"github.com/ssargent/durapack/pkg/scan"
)

// FuzzScan exercises termination and soundness over arbitrary inputs: no
// panic, and every located frame strictly re-decodes at its offset.
func FuzzScan(f *testing.F) {
	f.Add([]byte{}, 0)
	f.Add([]byte("DURPDURPDURP"), 1)
	seed, err := codec.NewFrameBuilder(3).Payload([]byte("fuzz seed")).WithCRC32C().Build()
	if err != nil {
		f.Fatal(err)
	}
	f.Add(seed, 0)
	f.Add(append(append([]byte("junk"), seed...), 0x44, 0x55), 1)

	f.Fuzz(func(t *testing.T, data []byte, hamming int) {
		if len(data) > 1<<20 {
			t.Skip("input larger than fuzz budget")
		}
		located, stats := scan.ScanWithOptions(data, scan.Options{MarkerHamming: hamming % 2})

		if stats.BytesScanned != len(data) {
			t.Errorf("bytes_scanned: got %d, want %d", stats.BytesScanned, len(data))
		}
		if stats.FramesFound != len(located) {
			t.Errorf("frames_found %d disagrees with result count %d", stats.FramesFound, len(located))
		}
		for i, lf := range located {
			if lf.Confidence < 0 || lf.Confidence > 1 {
				t.Errorf("frame %d confidence %f outside [0,1]", i, lf.Confidence)
			}
			if i > 0 && lf.Offset < located[i-1].Offset {
				t.Errorf("results not offset-ordered at %d", i)
			}
		}

		// Soundness only holds for the strict configuration.
		strict, _ := scan.Scan(data)
		for _, lf := range strict {
			if _, err := codec.Decode(data[lf.Offset:]); err != nil {
				t.Errorf("located frame at offset %d fails strict decode: %v", lf.Offset, err)
			}
		}
	})
}
