package fec

import (
	"encoding/binary"
	"fmt"

	"github.com/klauspost/reedsolomon"

	"github.com/ssargent/durapack/pkg/codec"
)

// RSCodec is a Reed-Solomon redundancy backend. A batch of N frames plus K
// parity blocks survives the loss of any K blocks.
type RSCodec struct{}

var (
	_ RedundancyEncoder = RSCodec{}
	_ RedundancyDecoder = RSCodec{}
)

// shardHeaderSize prefixes every data shard with the encoded frame length
// so padding can be stripped after reconstruction.
const shardHeaderSize = 4

// EncodeBatch erasure-codes the frames into len(frames)+redundancy equal
// sized blocks.
func (RSCodec) EncodeBatch(frames []*codec.Frame, redundancy int) ([]Block, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("empty frame batch")
	}
	if redundancy < 1 {
		return nil, fmt.Errorf("redundancy must be at least 1, got %d", redundancy)
	}

	shards := make([][]byte, len(frames)+redundancy)
	maxLen := 0
	for i, f := range frames {
		encoded, err := codec.EncodeFrame(f)
		if err != nil {
			return nil, fmt.Errorf("encoding frame %d: %w", f.Header.FrameID, err)
		}
		shard := make([]byte, shardHeaderSize+len(encoded))
		binary.BigEndian.PutUint32(shard, uint32(len(encoded)))
		copy(shard[shardHeaderSize:], encoded)
		shards[i] = shard
		if len(shard) > maxLen {
			maxLen = len(shard)
		}
	}
	for i := 0; i < len(frames); i++ {
		if len(shards[i]) < maxLen {
			padded := make([]byte, maxLen)
			copy(padded, shards[i])
			shards[i] = padded
		}
	}
	for i := len(frames); i < len(shards); i++ {
		shards[i] = make([]byte, maxLen)
	}

	enc, err := reedsolomon.New(len(frames), redundancy)
	if err != nil {
		return nil, err
	}
	if err := enc.Encode(shards); err != nil {
		return nil, err
	}

	blockID := frames[0].Header.FrameID
	blocks := make([]Block, len(shards))
	for i, shard := range shards {
		blocks[i] = Block{
			BlockID:     blockID,
			Index:       uint32(i),
			TotalBlocks: uint32(len(shards)),
			Data:        shard,
		}
	}
	return blocks, nil
}

// DecodeBatch reconstructs the original frames from the available blocks.
// Missing blocks are simply absent from the slice; at least totalFrames
// blocks of the batch must be present.
func (c RSCodec) DecodeBatch(blocks []Block, totalFrames int) ([]*codec.Frame, error) {
	if totalFrames < 1 {
		return nil, fmt.Errorf("totalFrames must be at least 1, got %d", totalFrames)
	}
	if !c.CanReconstruct(len(blocks), totalFrames) {
		return nil, fmt.Errorf("insufficient blocks: have %d, need %d", len(blocks), totalFrames)
	}

	total := 0
	shardLen := 0
	for _, b := range blocks {
		if total == 0 {
			total = int(b.TotalBlocks)
		} else if int(b.TotalBlocks) != total {
			return nil, fmt.Errorf("inconsistent batch size: %d vs %d", b.TotalBlocks, total)
		}
		if len(b.Data) > shardLen {
			shardLen = len(b.Data)
		}
	}
	if total < totalFrames {
		return nil, fmt.Errorf("batch declares %d blocks but %d data frames expected", total, totalFrames)
	}

	shards := make([][]byte, total)
	for _, b := range blocks {
		if int(b.Index) >= total {
			return nil, fmt.Errorf("block index %d out of range", b.Index)
		}
		if len(b.Data) != shardLen {
			return nil, fmt.Errorf("shard %d has length %d, want %d", b.Index, len(b.Data), shardLen)
		}
		shards[b.Index] = b.Data
	}

	enc, err := reedsolomon.New(totalFrames, total-totalFrames)
	if err != nil {
		return nil, err
	}
	if err := enc.Reconstruct(shards); err != nil {
		return nil, err
	}

	frames := make([]*codec.Frame, 0, totalFrames)
	for i := 0; i < totalFrames; i++ {
		shard := shards[i]
		if len(shard) < shardHeaderSize {
			return nil, fmt.Errorf("reconstructed shard %d too short", i)
		}
		frameLen := int(binary.BigEndian.Uint32(shard))
		if frameLen > len(shard)-shardHeaderSize {
			return nil, fmt.Errorf("reconstructed shard %d declares %d bytes, has %d", i, frameLen, len(shard)-shardHeaderSize)
		}
		frame, err := codec.Decode(shard[shardHeaderSize : shardHeaderSize+frameLen])
		if err != nil {
			return nil, fmt.Errorf("decoding reconstructed frame %d: %w", i, err)
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

// CanReconstruct reports whether available blocks suffice to rebuild
// totalFrames data frames.
func (RSCodec) CanReconstruct(available, totalFrames int) bool {
	return available >= totalFrames
}
