// Package rolluptype classifies the values flowing through a slot
// tracker by rollup kind and selects the value class that downstream
// serialization and aggregation use.
//
// FromString mirrors the tolerant enum <-> string conversion the rest of
// this module's teacher uses for its own on-disk tags: unrecognized
// input degrades to a safe default rather than failing the caller.
// ParseStrict is the intolerant counterpart used where a bad value
// indicates a configuration mistake, not untrusted wire input.
package rolluptype

import (
	"fmt"
	"strings"

	"github.com/shardstate/rollupd/pkg/granularity"
)

// Tag identifies the kind of value held by a slot.
type Tag int

const (
	NotARollup Tag = iota
	Counter
	Timer
	Set
	Gauge
	BFHistograms
	BFBasic
)

var tagNames = map[Tag]string{
	NotARollup:   "NOT_A_ROLLUP",
	Counter:      "COUNTER",
	Timer:        "TIMER",
	Set:          "SET",
	Gauge:        "GAUGE",
	BFHistograms: "BF_HISTOGRAMS",
	BFBasic:      "BF_BASIC",
}

var namesToTag = func() map[string]Tag {
	m := make(map[string]Tag, len(tagNames))
	for tag, name := range tagNames {
		m[name] = tag
	}

	return m
}()

// String returns the canonical wire name for the tag.
func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}

	return "UNKNOWN"
}

// FromString parses a rollup tag name. Unknown or empty input degrades
// to BFBasic rather than failing; callers that need to reject bad input
// outright should use ParseStrict instead.
func FromString(s string) Tag {
	tag, ok := namesToTag[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return BFBasic
	}

	return tag
}

// ParseStrict parses a rollup tag name, rejecting anything that is not
// one of the known tags.
//
// Possible errors: [ErrUnknownTag]
func ParseStrict(s string) (Tag, error) {
	tag, ok := namesToTag[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTag, s)
	}

	return tag, nil
}

// ValueClass is the serialization/aggregation shape selected by a tag
// and, for BFBasic, the granularity the value lives at.
type ValueClass int

const (
	// ClassAggregate is the shape used by every rolled-up value.
	ClassAggregate ValueClass = iota
	// ClassSingleSample is the shape used by raw, un-rolled BFBasic
	// values at the finest granularity.
	ClassSingleSample
	// ClassNone is the sentinel class for NotARollup: the slot holds no
	// rollup-able value at all, so there is no aggregate or single-sample
	// shape to pick.
	ClassNone
)

// ClassOf is a total function over every defined Tag. NotARollup maps to
// ClassNone; every other known tag maps to ClassAggregate or, for
// BFBasic at the finest granularity, ClassSingleSample. It panics only
// on a tag outside the defined taxonomy: that is a programming error
// upstream, not a condition callers can recover from.
func ClassOf(tag Tag, g granularity.Granularity) ValueClass {
	switch tag {
	case NotARollup:
		return ClassNone
	case BFBasic:
		if g != nil && g.Rank() == 0 {
			return ClassSingleSample
		}

		return ClassAggregate
	case Counter, Timer, Set, Gauge, BFHistograms:
		return ClassAggregate
	default:
		panic(fmt.Sprintf("rolluptype: unknown rollup tag/value-class pairing: %v", tag))
	}
}
