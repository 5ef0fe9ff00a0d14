package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shardstate/rollupd/pkg/clock"
)

func Test_SystemClock_NowMillisTracksWallClock(t *testing.T) {
	t.Parallel()

	var c clock.Clock = clock.SystemClock{}

	before := time.Now().UnixMilli()
	got := c.NowMillis()
	after := time.Now().UnixMilli()

	assert.GreaterOrEqual(t, got, before)
	assert.LessOrEqual(t, got, after)
}

func Test_ManualClock_OnlyMovesOnAdvanceOrSet(t *testing.T) {
	t.Parallel()

	c := clock.NewManualClock(1000)

	assert.Equal(t, int64(1000), c.NowMillis())
	assert.Equal(t, int64(1000), c.NowMillis())

	assert.Equal(t, int64(1500), c.Advance(500))
	assert.Equal(t, int64(1500), c.NowMillis())

	c.Set(42)
	assert.Equal(t, int64(42), c.NowMillis())
}

func Test_ManualClock_AdvanceAcceptsNegativeDelta(t *testing.T) {
	t.Parallel()

	c := clock.NewManualClock(1000)

	assert.Equal(t, int64(900), c.Advance(-100))
}
