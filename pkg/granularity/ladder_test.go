package granularity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shardstate/rollupd/pkg/granularity"
)

func Test_NewLadder_RejectsEmptySpecs(t *testing.T) {
	t.Parallel()

	_, err := granularity.NewLadder(nil)
	assert.ErrorIs(t, err, granularity.ErrEmptyLadder)
}

func Test_NewLadder_RejectsNonIncreasingSlotDurations(t *testing.T) {
	t.Parallel()

	_, err := granularity.NewLadder([]granularity.TierSpec{
		{Name: "a", SlotDuration: time.Minute, NumSlots: 10},
		{Name: "b", SlotDuration: time.Minute, NumSlots: 10},
	})
	assert.ErrorIs(t, err, granularity.ErrLadderNotOrdered)
}

func Test_Ladder_ByName_UnknownNameErrors(t *testing.T) {
	t.Parallel()

	l := granularity.DefaultLadder()

	_, err := l.ByName("nope")
	assert.ErrorIs(t, err, granularity.ErrUnknownGranularity)
}

func Test_Ladder_CoarserFailsAtTopOfLadder(t *testing.T) {
	t.Parallel()

	l := granularity.DefaultLadder()
	grans := l.Granularities()
	top := grans[len(grans)-1]

	_, err := top.Coarser()
	assert.ErrorIs(t, err, granularity.ErrNoCoarserGranularity)
}

func Test_Ladder_RankIncreasesFinestToCoarsest(t *testing.T) {
	t.Parallel()

	l := granularity.DefaultLadder()
	grans := l.Granularities()

	for i, g := range grans {
		assert.Equal(t, i, g.Rank())
	}
}

func Test_Ladder_LocatorKeyFormat(t *testing.T) {
	t.Parallel()

	l := granularity.DefaultLadder()
	finest := l.Granularities()[0]

	assert.Equal(t, "full:3:42", finest.LocatorKey(42, 3))
}

func Test_Ladder_ChildrenKeys_FinestTierHasNoChildren(t *testing.T) {
	t.Parallel()

	l := granularity.DefaultLadder()
	finest := l.Granularities()[0]

	assert.Nil(t, finest.ChildrenKeys(0, 1))
}

func Test_Ladder_ChildrenKeys_IncludeEveryFinerSlotMappingToParent(t *testing.T) {
	t.Parallel()

	l, err := granularity.NewLadder([]granularity.TierSpec{
		{Name: "fine", SlotDuration: time.Second, NumSlots: 100},
		{Name: "coarse", SlotDuration: 4 * time.Second, NumSlots: 25},
	})
	require.NoError(t, err)

	coarse, err := l.ByName("coarse")
	require.NoError(t, err)
	fine, err := l.ByName("fine")
	require.NoError(t, err)

	keys := coarse.ChildrenKeys(3, 7)
	require.Len(t, keys, 4)

	for _, slot := range []int{12, 13, 14, 15} {
		assert.Contains(t, keys, fine.LocatorKey(slot, 7))
		assert.Equal(t, 3, fine.ParentSlot(slot))
	}
}
