package fec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/durapack/pkg/codec"
	"github.com/ssargent/durapack/pkg/fec"
)

func batch(t *testing.T, n int) []*codec.Frame {
	t.Helper()
	var frames []*codec.Frame
	var prevHash [codec.Blake3Size]byte
	payloads := []string{"alpha", "bravo with more bytes", "c", "delta delta delta"}

	for i := 0; i < n; i++ {
		builder := codec.NewFrameBuilder(uint64(i + 1)).
			Payload([]byte(payloads[i%len(payloads)])).
			PrevHash(prevHash).
			WithCRC32C()
		if i == 0 {
			builder = builder.MarkFirst()
		}
		frame, _, err := builder.BuildStruct()
		require.NoError(t, err)
		frames = append(frames, frame)
		prevHash = codec.ComputeFrameHash(frame)
	}
	return frames
}

func TestRSCodec_EncodeBatchShape(t *testing.T) {
	frames := batch(t, 4)

	blocks, err := fec.RSCodec{}.EncodeBatch(frames, 2)
	require.NoError(t, err)

	require.Len(t, blocks, 6)
	for i, b := range blocks {
		assert.Equal(t, uint32(i), b.Index)
		assert.Equal(t, uint32(6), b.TotalBlocks)
		assert.Equal(t, uint64(1), b.BlockID)
		assert.Equal(t, len(blocks[0].Data), len(b.Data), "shards must be equal length")
	}
}

func TestRSCodec_ReconstructAfterLoss(t *testing.T) {
	frames := batch(t, 4)

	blocks, err := fec.RSCodec{}.EncodeBatch(frames, 2)
	require.NoError(t, err)

	// Drop two data blocks; parity covers the loss.
	survivors := []fec.Block{blocks[0], blocks[3], blocks[4], blocks[5]}

	rebuilt, err := fec.RSCodec{}.DecodeBatch(survivors, 4)
	require.NoError(t, err)
	require.Len(t, rebuilt, 4)

	for i, f := range rebuilt {
		assert.Equal(t, frames[i].Header.FrameID, f.Header.FrameID)
		assert.Equal(t, frames[i].Payload, f.Payload)
	}
}

func TestRSCodec_TooManyLosses(t *testing.T) {
	frames := batch(t, 4)

	blocks, err := fec.RSCodec{}.EncodeBatch(frames, 1)
	require.NoError(t, err)

	// Losing two blocks with one parity cannot be repaired.
	survivors := []fec.Block{blocks[0], blocks[1], blocks[4]}
	_, err = fec.RSCodec{}.DecodeBatch(survivors, 4)
	assert.Error(t, err)
}

func TestRSCodec_CanReconstruct(t *testing.T) {
	c := fec.RSCodec{}
	assert.True(t, c.CanReconstruct(4, 4))
	assert.True(t, c.CanReconstruct(5, 4))
	assert.False(t, c.CanReconstruct(3, 4))
}

func TestRSCodec_InvalidInputs(t *testing.T) {
	_, err := fec.RSCodec{}.EncodeBatch(nil, 2)
	assert.Error(t, err)

	_, err = fec.RSCodec{}.EncodeBatch(batch(t, 2), 0)
	assert.Error(t, err)

	_, err = fec.RSCodec{}.DecodeBatch(nil, 2)
	assert.Error(t, err)
}
