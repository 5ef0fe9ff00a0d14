package rollupstate

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_UpdateStamp_SnapshotReflectsIndependentFieldLoads(t *testing.T) {
	t.Parallel()

	s := newUpdateStamp(100, StateActive, true)

	view := s.Snapshot()
	assert.Equal(t, UpdateStampView{Timestamp: 100, State: StateActive, Dirty: true}, view)

	s.SetTimestamp(200)
	s.SetState(StateRolled)
	s.SetDirty(false)

	view = s.Snapshot()
	assert.Equal(t, UpdateStampView{Timestamp: 200, State: StateRolled, Dirty: false}, view)
}

func Test_UpdateStamp_ConcurrentFieldWritesNeverPanicOrTear(t *testing.T) {
	t.Parallel()

	s := newUpdateStamp(0, StateActive, false)

	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(3)

		go func(v int64) {
			defer wg.Done()

			s.SetTimestamp(v)
		}(int64(i))

		go func() {
			defer wg.Done()

			s.SetDirty(true)
		}()

		go func() {
			defer wg.Done()

			_ = s.State()
		}()
	}

	wg.Wait()

	_ = s.Snapshot()
}

func Test_StampState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "active", StateActive.String())
	assert.Equal(t, "rolled", StateRolled.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "unknown", StampState(99).String())
}
