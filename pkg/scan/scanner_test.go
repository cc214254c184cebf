package scan_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/durapack/pkg/codec"
	"github.com/ssargent/durapack/pkg/scan"
)

// chain encodes n back-linked frames with the given trailer and returns the
// concatenated stream plus the individual frame encodings.
func chain(t *testing.T, n int, trailer codec.TrailerType) ([]byte, [][]byte) {
	t.Helper()
	var stream []byte
	var encodings [][]byte
	var prevHash [codec.Blake3Size]byte

	for i := 0; i < n; i++ {
		builder := codec.NewFrameBuilder(uint64(i + 1)).
			Payload([]byte("burst-resistant frame payload!")).
			PrevHash(prevHash)
		switch trailer {
		case codec.TrailerCRC32C:
			builder = builder.WithCRC32C()
		case codec.TrailerBlake3:
			builder = builder.WithBlake3()
		}
		if i == 0 {
			builder = builder.MarkFirst()
		}
		if i == n-1 {
			builder = builder.MarkLast()
		}
		frame, encoded, err := builder.BuildStruct()
		require.NoError(t, err)
		stream = append(stream, encoded...)
		encodings = append(encodings, encoded)
		prevHash = codec.ComputeFrameHash(frame)
	}
	return stream, encodings
}

func TestScan_MinimalFrame(t *testing.T) {
	encoded, err := codec.NewFrameBuilder(1).MarkFirst().Build()
	require.NoError(t, err)
	require.Len(t, encoded, 50)

	located, stats := scan.Scan(encoded)

	require.Len(t, located, 1)
	assert.Equal(t, 0, located[0].Offset)
	assert.Equal(t, uint64(1), located[0].Frame.Header.FrameID)
	assert.Equal(t, 1, stats.FramesFound)
	assert.Equal(t, 1, stats.MarkersFound)
	assert.Equal(t, len(encoded), stats.BytesScanned)
}

func TestScan_CorruptedPayloadYieldsNothing(t *testing.T) {
	encoded, err := codec.NewFrameBuilder(1).
		Payload([]byte("Hello, Durapack!")).
		MarkFirst().
		WithCRC32C().
		Build()
	require.NoError(t, err)
	require.Len(t, encoded, 70)

	corrupted := append([]byte(nil), encoded...)
	corrupted[60] ^= 0x01 // payload bit flip

	located, stats := scan.Scan(corrupted)

	assert.Empty(t, located)
	assert.Equal(t, 1, stats.DecodeFailures)
}

func TestScan_CleanTriple(t *testing.T) {
	stream, _ := chain(t, 3, codec.TrailerBlake3)

	located, stats := scan.Scan(stream)

	require.Len(t, located, 3)
	assert.Equal(t, 3, stats.FramesFound)
	for i, lf := range located {
		assert.Equal(t, uint64(i+1), lf.Frame.Header.FrameID)
	}
	// Clean chained frames with BLAKE3 trailers should score near the top.
	for _, lf := range located {
		assert.GreaterOrEqual(t, lf.Confidence, 0.8)
		assert.LessOrEqual(t, lf.Confidence, 1.0)
	}
}

func TestScan_BurstError(t *testing.T) {
	stream, _ := chain(t, 3, codec.TrailerCRC32C)

	damaged := append([]byte(nil), stream...)
	for i := 100; i < 150 && i < len(damaged); i++ {
		damaged[i] = 0xFF
	}

	located, _ := scan.Scan(damaged)

	var ids []uint64
	for _, lf := range located {
		ids = append(ids, lf.Frame.Header.FrameID)
	}
	assert.Equal(t, []uint64{1, 3}, ids)
}

func TestScan_InsertedGarbage(t *testing.T) {
	_, encodings := chain(t, 2, codec.TrailerCRC32C)

	var noisy []byte
	noisy = append(noisy, encodings[0]...)
	noisy = append(noisy, bytes.Repeat([]byte{0xAA}, 100)...)
	noisy = append(noisy, encodings[1]...)

	located, stats := scan.Scan(noisy)

	require.Len(t, located, 2)
	assert.Equal(t, 2, stats.MarkersFound)
	assert.Equal(t, 0, stats.DecodeFailures)
	assert.Equal(t, len(encodings[0]), located[0].Size)
	assert.Equal(t, len(encodings[0])+100, located[1].Offset)
}

func TestScan_LeadingAndTrailingGarbage(t *testing.T) {
	encoded, err := codec.NewFrameBuilder(5).Payload([]byte("island")).WithBlake3().Build()
	require.NoError(t, err)

	var noisy []byte
	noisy = append(noisy, []byte("leading garbage without markers")...)
	noisy = append(noisy, encoded...)
	noisy = append(noisy, 0xDE, 0xAD)

	located, _ := scan.Scan(noisy)

	require.Len(t, located, 1)
	assert.Equal(t, 31, located[0].Offset)
	assert.Equal(t, uint64(5), located[0].Frame.Header.FrameID)
}

func TestScan_TruncatedFinalFrame(t *testing.T) {
	stream, encodings := chain(t, 2, codec.TrailerCRC32C)

	cut := stream[:len(stream)-len(encodings[1])/2]
	located, stats := scan.Scan(cut)

	require.Len(t, located, 1)
	assert.Equal(t, uint64(1), located[0].Frame.Header.FrameID)
	assert.Equal(t, 1, stats.Truncations)
}

func TestScan_SyncPrefixedStream(t *testing.T) {
	encoded, err := codec.NewFrameBuilder(1).
		Payload([]byte("prefixed")).
		WithPreamble().
		WithSyncPrefix().
		WithCRC32C().
		MarkFirst().
		Build()
	require.NoError(t, err)

	located, _ := scan.Scan(encoded)

	require.Len(t, located, 1)
	prefixLen := codec.MinPreambleLen + len(codec.RobustSyncWord)
	assert.Equal(t, prefixLen, located[0].Offset)

	// A bare frame scores lower than the same frame behind its prefix.
	bare, err := codec.NewFrameBuilder(1).
		Payload([]byte("prefixed")).
		WithCRC32C().
		MarkFirst().
		Build()
	require.NoError(t, err)
	bareLocated, _ := scan.Scan(bare)
	require.Len(t, bareLocated, 1)
	assert.Greater(t, located[0].Confidence, bareLocated[0].Confidence)
}

func TestScan_HammingDamagedMarker(t *testing.T) {
	encoded, err := codec.NewFrameBuilder(1).
		Payload([]byte("bit-flipped marker")).
		WithBlake3().
		MarkFirst().
		Build()
	require.NoError(t, err)

	damaged := append([]byte(nil), encoded...)
	damaged[0] ^= 0x01 // single bit in the marker itself

	// Default configuration stays strict: nothing found.
	located, _ := scan.Scan(damaged)
	assert.Empty(t, located)

	// With the fallback enabled the frame comes back, at lower confidence
	// than the undamaged original.
	located, stats := scan.ScanWithOptions(damaged, scan.Options{MarkerHamming: 1})
	require.Len(t, located, 1)
	assert.Equal(t, uint64(1), located[0].Frame.Header.FrameID)
	assert.Equal(t, 1, stats.FramesFound)

	clean, _ := scan.Scan(encoded)
	require.Len(t, clean, 1)
	assert.Greater(t, clean[0].Confidence, located[0].Confidence)
}

func TestScan_HammingTwoFlipsRejected(t *testing.T) {
	encoded, err := codec.NewFrameBuilder(1).Payload([]byte("x")).WithBlake3().Build()
	require.NoError(t, err)

	damaged := append([]byte(nil), encoded...)
	damaged[0] ^= 0x03 // two bits

	located, _ := scan.ScanWithOptions(damaged, scan.Options{MarkerHamming: 1})
	assert.Empty(t, located)
}

func TestScan_NeverMutatesInput(t *testing.T) {
	stream, _ := chain(t, 2, codec.TrailerBlake3)
	stream = append(stream, bytes.Repeat([]byte{0x55}, 32)...)

	before := append([]byte(nil), stream...)
	_, _ = scan.ScanWithOptions(stream, scan.Options{MarkerHamming: 1})
	assert.Equal(t, before, stream)
}

func TestScanZeroCopy_AliasesSource(t *testing.T) {
	stream, _ := chain(t, 1, codec.TrailerCRC32C)

	located, _ := scan.ScanZeroCopy(stream)
	require.Len(t, located, 1)

	payload := located[0].Frame.Payload
	require.NotEmpty(t, payload)
	assert.Same(t, &stream[codec.FrameOverhead], &payload[0])
}

func TestScan_SoundnessEveryResultRedecodes(t *testing.T) {
	stream, _ := chain(t, 3, codec.TrailerCRC32C)

	var noisy []byte
	noisy = append(noisy, 0x44, 0x55) // half a marker
	noisy = append(noisy, stream...)
	noisy = append(noisy, []byte("DURPtrailing junk")...)

	located, _ := scan.Scan(noisy)
	for _, lf := range located {
		frame, err := codec.Decode(noisy[lf.Offset:])
		require.NoError(t, err, "located frame at %d does not re-decode", lf.Offset)
		assert.Equal(t, lf.Frame.Header, frame.Header)
	}
}

func TestScan_EmptyAndTinyInputs(t *testing.T) {
	for _, data := range [][]byte{nil, {}, {0x44}, []byte("DUR"), []byte("DURP")} {
		located, stats := scan.Scan(data)
		assert.Empty(t, located)
		assert.Equal(t, len(data), stats.BytesScanned)
	}
}
