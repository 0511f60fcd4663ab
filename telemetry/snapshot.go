package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pthm-cable/savanna/components"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the complete simulation state for replay.
type Snapshot struct {
	Version int   `json:"version"`
	RNGSeed int64 `json:"rng_seed"`

	ArenaWidth  float32 `json:"arena_width"`
	ArenaHeight float32 `json:"arena_height"`

	Pool    int32 `json:"pool"`
	MaxPool int32 `json:"max_pool"`

	Tick int32 `json:"tick"`

	Agents []AgentState `json:"agents"`
}

// AgentState holds one agent's complete state.
type AgentState struct {
	Ordinal uint64             `json:"ordinal"`
	Species components.Species `json:"species"`
	Status  components.Status  `json:"status"`

	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	Width  float32 `json:"width"`
	Height float32 `json:"height"`

	Life   int32 `json:"life"`
	Mortal bool  `json:"mortal"`
	Hunted bool  `json:"hunted"`

	MateActive  bool    `json:"mate_active,omitempty"`
	MatePartner uint64  `json:"mate_partner,omitempty"`
	MateX       float32 `json:"mate_x,omitempty"`
	MateY       float32 `json:"mate_y,omitempty"`
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d.json", snapshot.Tick)
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}
