// Package workspace manages per-task output capture files for parallel
// task execution.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Manager allocates and prunes per-dispatch output files under a base
// directory. Each dispatch gets its own file so concurrent executions never
// interleave output.
type Manager struct {
	dir string
}

// NewManager creates a manager rooted at dir, creating it if needed.
// An empty dir defaults to ".farm-output" in the working directory.
func NewManager(dir string) (*Manager, error) {
	if dir == "" {
		dir = ".farm-output"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create workspace dir: %w", err)
	}
	return &Manager{dir: dir}, nil
}

// Dir returns the base directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Allocate returns the output capture path for one dispatch.
// The file itself is created lazily by the executor.
func (m *Manager) Allocate(agentID, taskID string) string {
	return filepath.Join(m.dir, fmt.Sprintf("%s-%s.log", agentID, taskID))
}

// Prune removes output files older than maxAge, cleaning up leftovers from
// prior runs or crashes. Files that cannot be removed are skipped; the first
// removal error is returned after the sweep completes.
func (m *Manager) Prune(maxAge time.Duration) error {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return fmt.Errorf("failed to read workspace dir: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	var firstErr error
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		if err := os.Remove(filepath.Join(m.dir, entry.Name())); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to prune %s: %w", entry.Name(), err)
		}
	}

	return firstErr
}

// Remove deletes one output file. Missing files are not an error.
func (m *Manager) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove output file: %w", err)
	}
	return nil
}
