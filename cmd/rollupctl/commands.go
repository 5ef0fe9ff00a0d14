package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shardstate/rollupd/internal/config"
	"github.com/shardstate/rollupd/pkg/granularity"
	"github.com/shardstate/rollupd/pkg/rollupstate"
)

func (r *REPL) granularityByName(name string) (granularity.Granularity, bool) {
	g, err := r.app.ladder.ByName(name)
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return nil, false
	}

	return g, true
}

func formatConfigForDisplay(app *App) (string, error) {
	return config.FormatConfig(app.cfg)
}

func (r *REPL) cmdIngest(args []string) {
	if len(args) < 3 {
		fmt.Println("Usage: ingest <shard> <gran> <slot> [millis]")

		return
	}

	shard, slot, ok := parseShardAndSlot(args[0], args[2])
	if !ok {
		return
	}

	g, ok := r.granularityByName(args[1])
	if !ok {
		return
	}

	millis := time.Now().UnixMilli()

	if len(args) >= 4 {
		var err error

		millis, err = strconv.ParseInt(args[3], 10, 64)
		if err != nil {
			fmt.Printf("Error parsing millis: %v\n", err)

			return
		}
	}

	if err := r.app.tracker.Ingest(shard, g, slot, millis); err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	if err := r.app.tracker.SetAllCoarserSlotsDirtyForSlot(shard, g, slot); err != nil {
		fmt.Printf("Error propagating to coarser tiers: %v\n", err)

		return
	}

	fmt.Printf("OK: ingested shard=%d gran=%s slot=%d millis=%d\n", shard, g.Name(), slot, millis)
}

func (r *REPL) cmdSync(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: sync <shard>")

		return
	}

	shard, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Printf("Error parsing shard: %v\n", err)

		return
	}

	observations, err := r.app.store.PullState(shard)
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	for _, obs := range observations {
		if err := r.app.tracker.UpdateSlotOnRead(shard, obs); err != nil {
			fmt.Printf("Error merging %s slot %d: %v\n", obs.Granularity.Name(), obs.Slot, err)

			return
		}
	}

	fmt.Printf("OK: synced %d observations for shard=%d\n", len(observations), shard)
}

func (r *REPL) cmdPush(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: push <shard>")

		return
	}

	shard, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Printf("Error parsing shard: %v\n", err)

		return
	}

	dirty, err := r.app.tracker.GetDirtySlotsToPersist(shard)
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	if len(dirty) == 0 {
		fmt.Println("Nothing dirty.")

		return
	}

	if err := r.app.store.PushDirty(shard, dirty); err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	total := 0
	for _, slots := range dirty {
		total += len(slots)
	}

	fmt.Printf("OK: pushed %d dirty slots across %d granularities for shard=%d\n", total, len(dirty), shard)
}

func (r *REPL) cmdAge(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: age <shard> <gran> [maxAgeMillis]")

		return
	}

	shard, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Printf("Error parsing shard: %v\n", err)

		return
	}

	g, ok := r.granularityByName(args[1])
	if !ok {
		return
	}

	maxAge := r.app.cfg.MaxAgeMillisFor(g.Name())

	if len(args) >= 3 {
		maxAge, err = strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			fmt.Printf("Error parsing maxAgeMillis: %v\n", err)

			return
		}
	}

	sm, ok := r.app.tracker.GetSlotStateManager(shard, g)
	if !ok {
		fmt.Printf("Error: %v: shard %d\n", rollupstate.ErrUnknownShard, shard)

		return
	}

	slots := sm.GetSlotsOlderThan(time.Now().UnixMilli(), maxAge)

	if len(slots) == 0 {
		fmt.Println("(none older than threshold)")

		return
	}

	for _, slot := range slots {
		fmt.Printf("  slot=%d\n", slot)
	}
}

func (r *REPL) cmdRollup(args []string) {
	if len(args) < 3 {
		fmt.Println("Usage: rollup <shard> <gran> <slot>")

		return
	}

	shard, slot, ok := parseShardAndSlot(args[0], args[2])
	if !ok {
		return
	}

	g, ok := r.granularityByName(args[1])
	if !ok {
		return
	}

	sm, ok := r.app.tracker.GetSlotStateManager(shard, g)
	if !ok {
		fmt.Printf("Error: %v: shard %d\n", rollupstate.ErrUnknownShard, shard)

		return
	}

	view, ok := sm.GetAndSetState(slot, rollupstate.StateRolled)
	if !ok {
		fmt.Println("(slot does not exist, nothing to roll up)")

		return
	}

	fmt.Printf("OK: slot=%d now %s (timestamp=%d)\n", slot, view.State, view.Timestamp)
}

func (r *REPL) cmdManage(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: manage <shard>")

		return
	}

	shard, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Printf("Error parsing shard: %v\n", err)

		return
	}

	if err := r.app.tracker.ManagedAdd(shard); err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Printf("OK: now managing shard=%d\n", shard)
}

func (r *REPL) cmdUnmanage(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: unmanage <shard>")

		return
	}

	shard, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Printf("Error parsing shard: %v\n", err)

		return
	}

	r.app.tracker.ManagedRemove(shard)
	fmt.Printf("OK: no longer managing shard=%d\n", shard)
}

func (r *REPL) cmdInfo() {
	formatted, err := formatConfigForDisplay(r.app)
	if err != nil {
		fmt.Printf("Error formatting config: %v\n", err)

		return
	}

	fmt.Println("Config:")
	fmt.Println(formatted)

	if r.app.sources.Global != "" {
		fmt.Printf("  (global config: %s)\n", r.app.sources.Global)
	}

	if r.app.sources.Project != "" {
		fmt.Printf("  (project config: %s)\n", r.app.sources.Project)
	}

	fmt.Printf("Managed shards: %v\n", r.app.tracker.ManagedShards())
	fmt.Println("Tick counters:")

	snapshots := r.app.sink.Snapshots()
	if len(snapshots) == 0 {
		fmt.Println("  (none yet)")

		return
	}

	for _, s := range snapshots {
		fmt.Printf("  shard=%d gran=%s updates=%d reRolls=%d parentBeforeChild=%d ageSamples=%d ageMaxMillis=%d\n",
			s.Shard, s.Granularity, s.Updates, s.ReRolls, s.ParentBeforeChild, s.AgeSamples, s.AgeMaxMillis)
	}
}

func (r *REPL) cmdSnapshot(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: snapshot <shard>")

		return
	}

	shard, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Printf("Error parsing shard: %v\n", err)

		return
	}

	byGran, err := r.app.tracker.Snapshot(shard)
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	if len(byGran) == 0 {
		fmt.Println("(no slots known for this shard)")

		return
	}

	for gran, states := range byGran {
		fmt.Printf("%s:\n", gran)

		for _, s := range states {
			fmt.Printf("  slot=%d timestamp=%d state=%s\n", s.Slot, s.Timestamp, s.State)
		}
	}
}

func parseShardAndSlot(shardArg, slotArg string) (shard, slot int, ok bool) {
	shard, err := strconv.Atoi(shardArg)
	if err != nil {
		fmt.Printf("Error parsing shard: %v\n", err)

		return 0, 0, false
	}

	slot, err = strconv.Atoi(slotArg)
	if err != nil {
		fmt.Printf("Error parsing slot: %v\n", err)

		return 0, 0, false
	}

	return shard, slot, true
}
