package granularity

import (
	"fmt"
	"time"
)

// TierSpec configures one rung of a Ladder.
type TierSpec struct {
	// Name is the tier's stable identifier.
	Name string
	// SlotDuration is the wall-clock span one slot covers.
	SlotDuration time.Duration
	// NumSlots is how many slots this tier cycles through before
	// wrapping. Together with SlotDuration it fixes the tier's period.
	NumSlots int
}

// Ladder is a Registry built from an ordered list of TierSpecs, finest
// first. It is immutable after construction and safe for concurrent use
// from every goroutine without further synchronization.
type Ladder struct {
	tiers []tier
	rungs []*rung
}

type tier struct {
	name               string
	slotDurationMillis int64
	numSlots           int
}

// NewLadder builds a Ladder from tiers ordered finest to coarsest. Tier
// slot durations must be strictly increasing, otherwise parent/child
// slot arithmetic would be ambiguous.
//
// Possible errors: [ErrEmptyLadder], [ErrLadderNotOrdered]
func NewLadder(specs []TierSpec) (*Ladder, error) {
	if len(specs) == 0 {
		return nil, ErrEmptyLadder
	}

	l := &Ladder{tiers: make([]tier, len(specs))}

	var prevMillis int64

	for i, spec := range specs {
		millis := spec.SlotDuration.Milliseconds()
		if i > 0 && millis <= prevMillis {
			return nil, fmt.Errorf("%w: %q", ErrLadderNotOrdered, spec.Name)
		}

		l.tiers[i] = tier{name: spec.Name, slotDurationMillis: millis, numSlots: spec.NumSlots}
		prevMillis = millis
	}

	l.rungs = make([]*rung, len(l.tiers))
	for i := range l.tiers {
		l.rungs[i] = &rung{ladder: l, idx: i}
	}

	return l, nil
}

// Granularities implements Registry.
func (l *Ladder) Granularities() []Granularity {
	out := make([]Granularity, len(l.rungs))
	for i, r := range l.rungs {
		out[i] = r
	}

	return out
}

// ByName implements Registry.
//
// Possible errors: [ErrUnknownGranularity]
func (l *Ladder) ByName(name string) (Granularity, error) {
	for i, t := range l.tiers {
		if t.name == name {
			return l.rungs[i], nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownGranularity, name)
}

// rung is the concrete Granularity implementation backing a Ladder.
type rung struct {
	ladder *Ladder
	idx    int
}

func (r *rung) Name() string { return r.ladder.tiers[r.idx].name }

func (r *rung) Rank() int { return r.idx }

func (r *rung) NumSlots() int { return r.ladder.tiers[r.idx].numSlots }

// Possible errors: [ErrNoCoarserGranularity]
func (r *rung) Coarser() (Granularity, error) {
	if r.idx+1 >= len(r.ladder.rungs) {
		return nil, fmt.Errorf("%w: %q", ErrNoCoarserGranularity, r.Name())
	}

	return r.ladder.rungs[r.idx+1], nil
}

func (r *rung) ParentSlot(childSlot int) int {
	coarser := r.ladder.tiers[r.idx+1]
	finer := r.ladder.tiers[r.idx]

	ratio := coarser.slotDurationMillis / finer.slotDurationMillis
	if ratio < 1 {
		ratio = 1
	}

	parent := (childSlot / int(ratio)) % coarser.numSlots
	if parent < 0 {
		parent += coarser.numSlots
	}

	return parent
}

func (r *rung) ChildrenKeys(slot, shard int) []string {
	if r.idx == 0 {
		return nil
	}

	finerRung := r.ladder.rungs[r.idx-1]
	finerTier := r.ladder.tiers[r.idx-1]
	ownTier := r.ladder.tiers[r.idx]

	ratio := ownTier.slotDurationMillis / finerTier.slotDurationMillis
	if ratio < 1 {
		ratio = 1
	}

	base := slot * int(ratio)
	keys := make([]string, 0, ratio)

	for i := 0; i < int(ratio); i++ {
		childSlot := (base + i) % finerTier.numSlots
		keys = append(keys, finerRung.LocatorKey(childSlot, shard))
	}

	return keys
}

func (r *rung) LocatorKey(slot, shard int) string {
	return locatorKey(r.Name(), shard, slot)
}

// DefaultLadder returns the standard full -> 5m -> 20m -> 60m -> 240m ->
// 1440m rollup tier sequence.
func DefaultLadder() *Ladder {
	l, err := NewLadder([]TierSpec{
		{Name: "full", SlotDuration: time.Second, NumSlots: 86400},
		{Name: "5m", SlotDuration: 5 * time.Minute, NumSlots: 2016},
		{Name: "20m", SlotDuration: 20 * time.Minute, NumSlots: 504},
		{Name: "60m", SlotDuration: time.Hour, NumSlots: 168},
		{Name: "240m", SlotDuration: 4 * time.Hour, NumSlots: 42},
		{Name: "1440m", SlotDuration: 24 * time.Hour, NumSlots: 365},
	})
	if err != nil {
		// The default ladder's tiers are fixed and known-valid at compile
		// time; a failure here means the constants above were broken.
		panic(fmt.Sprintf("granularity: default ladder is invalid: %v", err))
	}

	return l
}
