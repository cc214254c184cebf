package link_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/durapack/pkg/codec"
	"github.com/ssargent/durapack/pkg/link"
	"github.com/ssargent/durapack/pkg/scan"
)

func TestAnalyze_CleanChainIsQuiet(t *testing.T) {
	frames := buildChain(t, 1, 3, "quiet")

	report := link.Analyze(link.Link(frames))

	assert.Empty(t, report.GapDetails)
	assert.Empty(t, report.Conflicts)
	assert.Empty(t, report.OrphanClusters)
	assert.Empty(t, report.Recipes)
}

func TestAnalyze_GapReasonMissingByID(t *testing.T) {
	frames := buildChain(t, 1, 4, "missing")

	report := link.Analyze(link.Link([]*codec.Frame{frames[0], frames[3]}))

	require.Len(t, report.GapDetails, 1)
	assert.Equal(t, link.GapMissingByID, report.GapDetails[0].Reason)
	require.Len(t, report.Recipes, 1)
	assert.Equal(t, link.RecipeInsertParityFrame, report.Recipes[0].Kind)
	assert.Equal(t, [2]uint64{1, 4}, report.Recipes[0].Between)
}

func TestAnalyze_GapReasonBrokenBackLink(t *testing.T) {
	first, _, err := codec.NewFrameBuilder(1).Payload([]byte("a")).MarkFirst().WithBlake3().BuildStruct()
	require.NoError(t, err)
	// Contiguous ID but a back-link that matches nothing.
	second, _, err := codec.NewFrameBuilder(2).
		Payload([]byte("b")).
		PrevHash([codec.Blake3Size]byte{0xBB}).
		WithBlake3().
		BuildStruct()
	require.NoError(t, err)

	report := link.Analyze(link.Link([]*codec.Frame{first, second}))

	require.Len(t, report.GapDetails, 1)
	assert.Equal(t, link.GapBrokenBackLink, report.GapDetails[0].Reason)
}

func TestAnalyze_GapReasonOffsetDiscontinuity(t *testing.T) {
	first, _, err := codec.NewFrameBuilder(1).Payload([]byte("a")).MarkFirst().WithBlake3().BuildStruct()
	require.NoError(t, err)
	second, _, err := codec.NewFrameBuilder(2).
		Payload([]byte("b")).
		PrevHash([codec.Blake3Size]byte{0xBB}).
		WithBlake3().
		BuildStruct()
	require.NoError(t, err)

	// Frame 2 sits 64 bytes past where frame 1 ends: bytes went missing.
	located := []scan.LocatedFrame{
		{Offset: 0, Size: first.TotalSize(), Confidence: 1, Frame: first},
		{Offset: first.TotalSize() + 64, Size: second.TotalSize(), Confidence: 1, Frame: second},
	}
	report := link.Analyze(link.LinkLocated(located))

	require.Len(t, report.GapDetails, 1)
	assert.Equal(t, link.GapOffsetDiscontinuity, report.GapDetails[0].Reason)

	// Located offsets also produce a rewind recipe with the byte delta.
	var rewind *link.Recipe
	for i := range report.Recipes {
		if report.Recipes[i].Kind == link.RecipeRewindOffset {
			rewind = &report.Recipes[i]
		}
	}
	require.NotNil(t, rewind)
	assert.Equal(t, uint64(2), rewind.NearFrame)
	assert.Equal(t, int64(64), rewind.ByBytes)
}

func TestAnalyze_ForkConflict(t *testing.T) {
	root, _, err := codec.NewFrameBuilder(1).Payload([]byte("root")).MarkFirst().WithBlake3().BuildStruct()
	require.NoError(t, err)
	rootHash := codec.ComputeFrameHash(root)

	left, _, err := codec.NewFrameBuilder(2).Payload([]byte("left")).PrevHash(rootHash).WithBlake3().BuildStruct()
	require.NoError(t, err)
	right, _, err := codec.NewFrameBuilder(3).Payload([]byte("right")).PrevHash(rootHash).WithBlake3().BuildStruct()
	require.NoError(t, err)

	report := link.Analyze(link.Link([]*codec.Frame{root, left, right}))

	require.Len(t, report.Conflicts, 1)
	conflict := report.Conflicts[0]
	assert.Equal(t, link.ConflictPrevHash, conflict.Kind)
	assert.Equal(t, []uint64{2, 3}, conflict.ContenderIDs)
}

func TestAnalyze_FrameIDConflict(t *testing.T) {
	a, _, err := codec.NewFrameBuilder(7).Payload([]byte("A")).MarkFirst().WithBlake3().BuildStruct()
	require.NoError(t, err)
	b, _, err := codec.NewFrameBuilder(7).Payload([]byte("B")).MarkFirst().WithBlake3().BuildStruct()
	require.NoError(t, err)

	report := link.Analyze(link.LinkLocated([]scan.LocatedFrame{
		{Offset: 0, Size: a.TotalSize(), Confidence: 1, Frame: a},
		{Offset: 100, Size: b.TotalSize(), Confidence: 1, Frame: b},
	}))

	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, link.ConflictFrameID, report.Conflicts[0].Kind)
	assert.Equal(t, uint64(7), report.Conflicts[0].FrameID)
	assert.Equal(t, []int{0, 100}, report.Conflicts[0].Offsets)
}

func TestAnalyze_OrphanClusters(t *testing.T) {
	// Two orphans that link to each other, displaced by same-ID winners.
	orphanA, _, err := codec.NewFrameBuilder(5).Payload([]byte("lost A")).MarkFirst().WithBlake3().BuildStruct()
	require.NoError(t, err)
	orphanB, _, err := codec.NewFrameBuilder(6).
		Payload([]byte("lost B")).
		PrevHash(codec.ComputeFrameHash(orphanA)).
		WithBlake3().
		BuildStruct()
	require.NoError(t, err)

	winnerA, _, err := codec.NewFrameBuilder(5).Payload([]byte("won A")).MarkFirst().WithBlake3().BuildStruct()
	require.NoError(t, err)
	winnerB, _, err := codec.NewFrameBuilder(6).
		Payload([]byte("won B")).
		PrevHash(codec.ComputeFrameHash(winnerA)).
		WithBlake3().
		BuildStruct()
	require.NoError(t, err)

	report := link.Analyze(link.LinkLocated([]scan.LocatedFrame{
		{Offset: 0, Size: winnerA.TotalSize(), Confidence: 1, Frame: winnerA},
		{Offset: 100, Size: winnerB.TotalSize(), Confidence: 1, Frame: winnerB},
		{Offset: 200, Size: orphanA.TotalSize(), Confidence: 1, Frame: orphanA},
		{Offset: 300, Size: orphanB.TotalSize(), Confidence: 1, Frame: orphanB},
	}))

	require.Len(t, report.Timeline.Orphans, 2)
	require.Len(t, report.OrphanClusters, 1)
	assert.Equal(t, []uint64{5, 6}, report.OrphanClusters[0].IDs)
}

func TestAnalyze_UnrelatedOrphansSeparateClusters(t *testing.T) {
	mk := func(id uint64, payload string) *codec.Frame {
		f, _, err := codec.NewFrameBuilder(id).
			Payload([]byte(payload)).
			PrevHash([codec.Blake3Size]byte{byte(id)}).
			WithBlake3().
			BuildStruct()
		require.NoError(t, err)
		return f
	}

	// Winners take IDs 3 and 9; the differing losers share nothing.
	report := link.Analyze(link.LinkLocated([]scan.LocatedFrame{
		{Offset: 0, Size: 60, Confidence: 1, Frame: mk(3, "winner 3")},
		{Offset: 100, Size: 60, Confidence: 1, Frame: mk(9, "winner 9")},
		{Offset: 200, Size: 60, Confidence: 1, Frame: mk(3, "loser 3")},
		{Offset: 300, Size: 60, Confidence: 1, Frame: mk(9, "loser 9")},
	}))

	require.Len(t, report.OrphanClusters, 2)
}
