package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrCorruptState is returned when a state file cannot be read as a schema
// this build supports. It needs a manual reset.
var ErrCorruptState = errors.New("corrupt state")

// ErrInvalidIdentity is returned for identities that do not name a file
// directly inside the store.
var ErrInvalidIdentity = errors.New("invalid project identity")

// Store manages per-project pipeline state on disk.
type Store struct {
	baseDir string // <home>/state
	now     func() time.Time
}

// NewStore creates a Store rooted at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

// DefaultStore returns a Store at <home>/state, creating the directory if needed.
func DefaultStore(home string) (*Store, error) {
	dir := filepath.Join(home, "state")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return NewStore(dir), nil
}

// BaseDir returns the store's root directory.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// Path returns the state file path for a project.
func (s *Store) Path(id Identity) string {
	return filepath.Join(s.baseDir, string(id)+".json")
}

// file returns the state file path for id, refusing anything that would
// resolve outside the store directory.
func (s *Store) file(id Identity) (string, error) {
	name := string(id)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentity, name)
	}
	return s.Path(id), nil
}

// Load reads the state for a project. A project with no state file gets an
// empty state; nothing is written until the first Append.
func (s *Store) Load(id Identity) (*PipelineState, error) {
	path, err := s.file(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s.empty(id), nil
		}
		return nil, fmt.Errorf("read state %s: %w", id, err)
	}
	return decode(id, data)
}

// decode checks the schema tag before touching the rest of the document.
func decode(id Identity, data []byte) (*PipelineState, error) {
	var header struct {
		SchemaVersion int `json:"schema_version"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptState, id, err)
	}
	switch {
	case header.SchemaVersion <= 0:
		return nil, fmt.Errorf("%w: %s: missing schema_version", ErrCorruptState, id)
	case header.SchemaVersion > SchemaVersion:
		return nil, fmt.Errorf("%w: %s: schema_version %d is newer than supported %d",
			ErrCorruptState, id, header.SchemaVersion, SchemaVersion)
	}

	var ps PipelineState
	if err := json.Unmarshal(data, &ps); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptState, id, err)
	}
	if ps.Identity == "" {
		ps.Identity = id
	}
	if ps.Records == nil {
		ps.Records = []BoostRecord{}
	}
	return &ps, nil
}

func (s *Store) empty(id Identity) *PipelineState {
	now := s.now().UTC()
	return &PipelineState{
		SchemaVersion: SchemaVersion,
		Identity:      id,
		Records:       []BoostRecord{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Append adds a record to a project's history with a read-modify-write of
// the whole file and returns the updated state.
func (s *Store) Append(id Identity, rec BoostRecord, meta Meta) (*PipelineState, error) {
	if rec.Boost == "" {
		return nil, fmt.Errorf("append record: boost name is required")
	}
	ps, err := s.Load(id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if rec.Timestamp.IsZero() {
		rec.Timestamp = now
	}
	ps.Records = append(ps.Records, rec)
	if meta.RepoPath != "" {
		ps.RepoPath = meta.RepoPath
	}
	if meta.Branch != "" {
		ps.Branch = meta.Branch
	}
	ps.SchemaVersion = SchemaVersion
	ps.UpdatedAt = now

	if err := s.save(id, ps); err != nil {
		return nil, fmt.Errorf("save state %s: %w", id, err)
	}
	return ps, nil
}

// List returns the state of every project in the store, sorted by identity.
// Files that fail to load are skipped.
func (s *Store) List() ([]PipelineState, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir %s: %w", s.baseDir, err)
	}

	var out []PipelineState
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
			continue
		}
		ps, err := s.Load(Identity(strings.TrimSuffix(name, ".json")))
		if err != nil {
			continue
		}
		out = append(out, *ps)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Identity < out[j].Identity
	})
	return out, nil
}

// Delete removes a project's state file. This is the operator reset.
func (s *Store) Delete(id Identity) error {
	path, err := s.file(id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("no state for %s", id)
	}
	return os.Remove(path)
}
