package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Increment when the Snapshot layout changes.
const snapshotSchema uint16 = 1

// ErrSnapshotSchema is returned when a snapshot was written by an
// incompatible version.
var ErrSnapshotSchema = errors.New("history snapshot schema mismatch")

// Snapshot is the persisted form of a session.
type Snapshot struct {
	Schema  uint16    `msgpack:"schema"`
	Entries []string  `msgpack:"entries"`
	Cursor  int       `msgpack:"cursor"`
	Saved   time.Time `msgpack:"saved"`
}

// SaveSnapshot writes s to path. The file is replaced atomically so a crash
// never leaves a truncated snapshot behind.
func SaveSnapshot(path string, s Snapshot) error {
	if s.Schema == 0 {
		s.Schema = snapshotSchema
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	f, err := os.CreateTemp(dir, ".history-*.tmp")
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	tmp := f.Name()
	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(&s); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a snapshot written by SaveSnapshot.
func LoadSnapshot(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, err
	}
	defer f.Close()

	var s Snapshot
	if err := msgpack.NewDecoder(f).Decode(&s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	if s.Schema != snapshotSchema {
		return Snapshot{}, fmt.Errorf("%s: schema %d, want %d: %w", path, s.Schema, snapshotSchema, ErrSnapshotSchema)
	}
	return s, nil
}
