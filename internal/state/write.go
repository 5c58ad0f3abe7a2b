package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// save writes ps as the project's state file. Readers see either the old
// file or the new one.
func (s *Store) save(id Identity, ps *PipelineState) error {
	data, err := json.MarshalIndent(ps, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return writeFile(s.Path(id), append(data, '\n'))
}

// writeFile replaces path with data through a synced staging file in the
// same directory. Staging names start with a dot so List ignores them.
func writeFile(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("stage %s: %w", filepath.Base(path), err)
	}
	staged := f.Name()
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(staged)
		}
	}()

	if _, err = f.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", staged, err)
	}
	if err = f.Chmod(0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", staged, err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", staged, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", staged, err)
	}
	if err = os.Rename(staged, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
