package link_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/durapack/pkg/codec"
	"github.com/ssargent/durapack/pkg/link"
)

// buildSkipChain encodes a chain whose frames carry power-of-two skip
// links in their payloads.
func buildSkipChain(t *testing.T, n int) []*codec.Frame {
	t.Helper()
	var frames []*codec.Frame
	var prevHash [codec.Blake3Size]byte

	for i := 0; i < n; i++ {
		id := uint64(i + 1)
		payload, err := codec.EncodeSkipLinks(codec.BuildSkipLinks(id, 1), []byte("seekable"))
		require.NoError(t, err)

		builder := codec.NewFrameBuilder(id).
			Payload(payload).
			PrevHash(prevHash).
			WithSkipList().
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

func TestSeekWithSkipList_ExactHit(t *testing.T) {
	frames := buildSkipChain(t, 16)
	timeline := link.Link(frames)

	for _, target := range []uint64{1, 7, 16} {
		found := timeline.SeekWithSkipList(target)
		require.NotNil(t, found, "target %d", target)
		assert.Equal(t, target, found.Header.FrameID)
	}
}

func TestSeekWithSkipList_MissingTarget(t *testing.T) {
	frames := buildSkipChain(t, 8)
	timeline := link.Link(frames)

	assert.Nil(t, timeline.SeekWithSkipList(99))
}

func TestSeekWithSkipList_SparseChain(t *testing.T) {
	frames := buildSkipChain(t, 16)
	// Remove a band of frames; seeks into the band must return nil, seeks
	// around it must still land.
	var sparse []*codec.Frame
	for _, f := range frames {
		if f.Header.FrameID >= 5 && f.Header.FrameID <= 8 {
			continue
		}
		sparse = append(sparse, f)
	}
	timeline := link.Link(sparse)

	assert.Nil(t, timeline.SeekWithSkipList(6))
	found := timeline.SeekWithSkipList(12)
	require.NotNil(t, found)
	assert.Equal(t, uint64(12), found.Header.FrameID)
}

func TestSeekWithSkipList_LinksParsedDuringLink(t *testing.T) {
	frames := buildSkipChain(t, 4)
	timeline := link.Link(frames)

	// The linker parses skip links for HAS_SKIPLIST frames.
	last := timeline.SeekWithSkipList(4)
	require.NotNil(t, last)
	assert.NotEmpty(t, last.SkipLinks)
}
