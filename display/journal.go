// SPDX-License-Identifier: GPL-3.0-or-later

package display

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/davecgh/go-spew/spew"
)

// PersistentData is the journal: the single authoritative record of
// pending revert work.
type PersistentData struct {
	Topology struct {
		Initial  Topology `json:"initial"`
		Modified Topology `json:"modified"`
	} `json:"topology"`
	OriginalPrimary   DeviceID                 `json:"original_primary_display,omitempty"`
	OriginalModes     map[DeviceID]DisplayMode `json:"original_modes,omitempty"`
	OriginalHDRStates map[DeviceID]HDRState    `json:"original_hdr_states,omitempty"`
}

// HasModifications reports whether this journal still represents
// outstanding work to revert.
func (d *PersistentData) HasModifications() bool {
	if d == nil {
		return false
	}
	if !TopologiesEqual(d.Topology.Initial, d.Topology.Modified) {
		return true
	}
	return d.OriginalPrimary != "" || len(d.OriginalModes) > 0 || len(d.OriginalHDRStates) > 0
}

// JournalStore loads, saves, and deletes the on-disk journal. Writes
// are atomic: a temp file is written and renamed over the target, the
// way display1/manager.go's saveUserConfigNoLock writes "<file>.new"
// and renames it over the real file.
type JournalStore struct {
	path string
}

// NewJournalStore returns a store rooted at path. An empty path resolves
// to the default location under the per-user config directory.
func NewJournalStore(path string) *JournalStore {
	if path == "" {
		path = filepath.Join(getCfgDir(), "display_journal.json")
	}
	return &JournalStore{path: path}
}

// Path returns the journal file's location on disk.
func (s *JournalStore) Path() string {
	return s.path
}

// Load reads the journal, returning (nil, nil) if it doesn't exist.
func (s *JournalStore) Load() (*PersistentData, error) {
	// #nosec G304
	content, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var data PersistentData
	if err := json.Unmarshal(content, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Save pretty-prints data as 4-space-indented JSON and atomically
// rewrites the journal file.
func (s *JournalStore) Save(data *PersistentData) error {
	logger.Debug("saving display journal:", spew.Sdump(data))

	content, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmpPath := s.path + ".new"
	if err := os.WriteFile(tmpPath, content, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.path)
}

// Delete removes the journal file. A missing file is not an error.
func (s *JournalStore) Delete() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
