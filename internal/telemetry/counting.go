package telemetry

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/shardstate/rollupd/pkg/granularity"
)

// CountingSink is a reference Sink that tallies ticks in memory, keyed
// by shard and granularity. It is meant for the rollupctl "info"
// command and for tests asserting on tick counts, not as a production
// metrics backend.
type CountingSink struct {
	byKey sync.Map // string -> *counters
}

type counters struct {
	updates           atomic.Int64
	reRolls           atomic.Int64
	parentBeforeChild atomic.Int64
	ageSamples        atomic.Int64
	ageSumMillis      atomic.Int64
	ageMaxMillis      atomic.Int64
}

// NewCountingSink returns an empty CountingSink.
func NewCountingSink() *CountingSink {
	return &CountingSink{}
}

func key(shard int, g granularity.Granularity) string {
	return fmt.Sprintf("%d:%s", shard, g.Name())
}

func (s *CountingSink) entry(shard int, g granularity.Granularity) *counters {
	k := key(shard, g)

	if v, ok := s.byKey.Load(k); ok {
		return v.(*counters)
	}

	actual, _ := s.byKey.LoadOrStore(k, &counters{})

	return actual.(*counters)
}

func (s *CountingSink) UpdateTick(shard int, g granularity.Granularity) {
	s.entry(shard, g).updates.Add(1)
}

func (s *CountingSink) ReRollTick(shard int, g granularity.Granularity) {
	s.entry(shard, g).reRolls.Add(1)
}

func (s *CountingSink) ParentBeforeChildTick(shard int, g granularity.Granularity) {
	s.entry(shard, g).parentBeforeChild.Add(1)
}

func (s *CountingSink) ObserveAge(shard int, g granularity.Granularity, ageMillis int64) {
	c := s.entry(shard, g)

	c.ageSamples.Add(1)
	c.ageSumMillis.Add(ageMillis)

	for {
		cur := c.ageMaxMillis.Load()
		if ageMillis <= cur {
			return
		}

		if c.ageMaxMillis.CompareAndSwap(cur, ageMillis) {
			return
		}
	}
}

// Snapshot is a point-in-time copy of one (shard, granularity) key's
// counters, returned by CountingSink.Snapshot for display.
type Snapshot struct {
	Shard             int
	Granularity       string
	Updates           int64
	ReRolls           int64
	ParentBeforeChild int64
	AgeSamples        int64
	AgeSumMillis      int64
	AgeMaxMillis      int64
}

// Snapshots returns one Snapshot per (shard, granularity) key that has
// seen at least one tick, in no particular order.
func (s *CountingSink) Snapshots() []Snapshot {
	var out []Snapshot

	s.byKey.Range(func(k, v any) bool {
		c := v.(*counters)

		var shard int

		var gran string

		_, _ = fmt.Sscanf(k.(string), "%d:%s", &shard, &gran)

		out = append(out, Snapshot{
			Shard:             shard,
			Granularity:       gran,
			Updates:           c.updates.Load(),
			ReRolls:           c.reRolls.Load(),
			ParentBeforeChild: c.parentBeforeChild.Load(),
			AgeSamples:        c.ageSamples.Load(),
			AgeSumMillis:      c.ageSumMillis.Load(),
			AgeMaxMillis:      c.ageMaxMillis.Load(),
		})

		return true
	})

	return out
}
