package rolluptype_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shardstate/rollupd/pkg/granularity"
	"github.com/shardstate/rollupd/pkg/rolluptype"
)

func Test_FromString_IsCaseInsensitive(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"counter", "COUNTER", "Counter"} {
		assert.Equal(t, rolluptype.Counter, rolluptype.FromString(s))
	}
}

func Test_FromString_UnknownOrEmptyDefaultsToBFBasic(t *testing.T) {
	t.Parallel()

	assert.Equal(t, rolluptype.BFBasic, rolluptype.FromString(""))
	assert.Equal(t, rolluptype.BFBasic, rolluptype.FromString("totally-not-a-tag"))
}

func Test_FromString_IsIdempotentViaStringRoundTrip(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"counter", "TIMER", "bf_basic", "garbage", ""} {
		first := rolluptype.FromString(s)
		second := rolluptype.FromString(first.String())
		assert.Equal(t, first, second, "round-tripping %q through String must be stable", s)
	}
}

func Test_ParseStrict_RejectsUnknownInput(t *testing.T) {
	t.Parallel()

	_, err := rolluptype.ParseStrict("not-a-tag")
	require.ErrorIs(t, err, rolluptype.ErrUnknownTag)

	tag, err := rolluptype.ParseStrict("gauge")
	require.NoError(t, err)
	assert.Equal(t, rolluptype.Gauge, tag)
}

func Test_ClassOf_BFBasicAtFinestGranularityIsSingleSample(t *testing.T) {
	t.Parallel()

	ladder := granularity.DefaultLadder()
	grans := ladder.Granularities()

	assert.Equal(t, rolluptype.ClassSingleSample, rolluptype.ClassOf(rolluptype.BFBasic, grans[0]))
	assert.Equal(t, rolluptype.ClassAggregate, rolluptype.ClassOf(rolluptype.BFBasic, grans[1]))
}

func Test_ClassOf_EveryOtherTagIsAlwaysAggregate(t *testing.T) {
	t.Parallel()

	ladder := granularity.DefaultLadder()
	finest := ladder.Granularities()[0]

	for _, tag := range []rolluptype.Tag{rolluptype.Counter, rolluptype.Timer, rolluptype.Set, rolluptype.Gauge, rolluptype.BFHistograms} {
		assert.Equal(t, rolluptype.ClassAggregate, rolluptype.ClassOf(tag, finest))
	}
}

func Test_ClassOf_NotARollupIsClassNone(t *testing.T) {
	t.Parallel()

	ladder := granularity.DefaultLadder()

	assert.Equal(t, rolluptype.ClassNone, rolluptype.ClassOf(rolluptype.NotARollup, ladder.Granularities()[0]))
}

func Test_ClassOf_UnknownTagPairingPanics(t *testing.T) {
	t.Parallel()

	ladder := granularity.DefaultLadder()

	assert.Panics(t, func() {
		rolluptype.ClassOf(rolluptype.Tag(999), ladder.Granularities()[0])
	})
}
