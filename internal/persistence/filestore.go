package persistence

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/natefinch/atomic"

	"github.com/shardstate/rollupd/pkg/granularity"
	"github.com/shardstate/rollupd/pkg/rollupstate"
)

// FileStore is a demo Store backed by one JSON snapshot file per shard,
// written with natefinch/atomic so a crash mid-write never leaves a
// truncated file behind. It has no cross-process locking; two FileStore
// instances pointed at the same directory from different processes can
// race each other exactly the way two real cluster nodes racing the
// same persisted truth would — which is the point for a demo, but not
// something a production persister should imitate as-is.
type FileStore struct {
	dir      string
	registry granularity.Registry

	mu sync.Mutex // serializes read-modify-write within this process
}

// NewFileStore returns a FileStore writing shard snapshots under dir.
// The directory is created on first write if it does not exist.
func NewFileStore(dir string, registry granularity.Registry) *FileStore {
	return &FileStore{dir: dir, registry: registry}
}

type wireStamp struct {
	Timestamp int64  `json:"timestamp"`
	State     string `json:"state"`
	Dirty     bool   `json:"dirty"`
}

type wireSnapshot struct {
	Granularities map[string]map[string]wireStamp `json:"granularities"`
}

func (s *FileStore) path(shard int) string {
	return filepath.Join(s.dir, fmt.Sprintf("shard-%d.json", shard))
}

// PullState implements Store.
func (s *FileStore) PullState(shard int) ([]rollupstate.SlotState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, err := s.load(shard)
	if err != nil {
		return nil, err
	}

	var out []rollupstate.SlotState

	for name, slots := range snapshot.Granularities {
		g, err := s.registry.ByName(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownGranularity, name)
		}

		for slotStr, ws := range slots {
			slot, err := strconv.Atoi(slotStr)
			if err != nil {
				continue // corrupt key, skip rather than fail the whole pull
			}

			state, err := stateFromString(ws.State)
			if err != nil {
				return nil, err
			}

			out = append(out, rollupstate.SlotState{
				Granularity: g,
				Slot:        slot,
				Timestamp:   ws.Timestamp,
				State:       state,
			})
		}
	}

	return out, nil
}

// PushDirty implements Store.
func (s *FileStore) PushDirty(shard int, dirty map[string]rollupstate.DirtySlots) error {
	if len(dirty) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, err := s.load(shard)
	if err != nil {
		return err
	}

	if snapshot.Granularities == nil {
		snapshot.Granularities = make(map[string]map[string]wireStamp)
	}

	for name, slots := range dirty {
		existing, ok := snapshot.Granularities[name]
		if !ok {
			existing = make(map[string]wireStamp, len(slots))
			snapshot.Granularities[name] = existing
		}

		for slot, view := range slots {
			existing[strconv.Itoa(slot)] = wireStamp{
				Timestamp: view.Timestamp,
				State:     stateToString(view.State),
				Dirty:     view.Dirty,
			}
		}
	}

	return s.write(shard, snapshot)
}

func (s *FileStore) load(shard int) (wireSnapshot, error) {
	data, err := os.ReadFile(s.path(shard)) //nolint:gosec // path is built from a shard id, not user input
	if err != nil {
		if os.IsNotExist(err) {
			return wireSnapshot{Granularities: make(map[string]map[string]wireStamp)}, nil
		}

		return wireSnapshot{}, fmt.Errorf("reading snapshot: %w", err)
	}

	var snapshot wireSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return wireSnapshot{}, fmt.Errorf("parsing snapshot: %w", err)
	}

	if snapshot.Granularities == nil {
		snapshot.Granularities = make(map[string]map[string]wireStamp)
	}

	return snapshot, nil
}

func (s *FileStore) write(shard int, snapshot wireSnapshot) error {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if err := atomic.WriteFile(s.path(shard), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	return nil
}

func stateToString(s rollupstate.StampState) string {
	return s.String()
}

func stateFromString(s string) (rollupstate.StampState, error) {
	switch s {
	case "active":
		return rollupstate.StateActive, nil
	case "rolled":
		return rollupstate.StateRolled, nil
	case "running":
		return rollupstate.StateRunning, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidState, s)
	}
}
