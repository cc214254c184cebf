package fec

import (
	"github.com/ssargent/durapack/pkg/codec"
)

// Block is one erasure-coded shard of a frame batch. The first TotalBlocks−
// parity blocks carry the original encoded frames; the rest are parity.
type Block struct {
	// BlockID identifies the batch; by convention the first data frame's
	// ID.
	BlockID uint64

	// Index is this block's position in the batch.
	Index uint32

	// TotalBlocks is data + parity shard count.
	TotalBlocks uint32

	// Data is the shard bytes.
	Data []byte
}

// IndexEntry is one record of the sidecar index written next to a
// parity-protected stream. The core never interprets it.
type IndexEntry struct {
	BlockStartID   uint64   `json:"block_start_id"`
	Data           int      `json:"data"`
	Parity         int      `json:"parity"`
	ParityFrameIDs []uint64 `json:"parity_frame_ids"`
}

// RedundancyEncoder turns a batch of frames into erasure-coded blocks.
type RedundancyEncoder interface {
	// EncodeBatch encodes frames into len(frames)+redundancy blocks: the
	// originals first, then redundancy parity blocks.
	EncodeBatch(frames []*codec.Frame, redundancy int) ([]Block, error)
}

// RedundancyDecoder reconstructs frames from a (possibly incomplete) block
// set.
type RedundancyDecoder interface {
	// DecodeBatch rebuilds the original totalFrames frames from the
	// available blocks.
	DecodeBatch(blocks []Block, totalFrames int) ([]*codec.Frame, error)

	// CanReconstruct reports whether the available block count suffices.
	CanReconstruct(available, totalFrames int) bool
}
