// SPDX-License-Identifier: GPL-3.0-or-later

package display

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevertSettingsNoOpOnEmptyJournal(t *testing.T) {
	adapter := NewMockAdapter()
	store := NewJournalStore(filepath.Join(t.TempDir(), "journal.json"))

	assert.True(t, RevertSettings(adapter, store, &PersistentData{}))
	assert.Empty(t, adapter.Calls)
}

func TestRevertSettingsFullSuccessDeletesJournal(t *testing.T) {
	adapter := NewMockAdapter()
	adapter.Topology = Topology{{"A"}, {"B"}}
	adapter.Primary = "A"
	adapter.Modes["A"] = DisplayMode{Resolution{3840, 2160}, RefreshRate{60, 1}}
	adapter.HDR["A"] = HDRStateEnabled

	store := NewJournalStore(filepath.Join(t.TempDir(), "journal.json"))
	journal := &PersistentData{
		OriginalPrimary: "",
		OriginalModes: map[DeviceID]DisplayMode{
			"A": {Resolution{1920, 1080}, RefreshRate{60, 1}},
		},
		OriginalHDRStates: map[DeviceID]HDRState{
			"A": HDRStateDisabled,
		},
	}
	journal.Topology.Initial = Topology{{"A"}}
	journal.Topology.Modified = Topology{{"A"}, {"B"}}
	require.NoError(t, store.Save(journal))

	ok := RevertSettings(adapter, store, journal)
	assert.True(t, ok)
	assert.True(t, TopologiesEqual(Topology{{"A"}}, adapter.Topology))
	assert.Equal(t, DisplayMode{Resolution{1920, 1080}, RefreshRate{60, 1}}, adapter.Modes["A"])
	assert.Equal(t, HDRStateDisabled, adapter.HDR["A"])

	onDisk, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, onDisk, "a fully successful revert must delete the journal")
}

func TestRevertSettingsPartialFailureResavesJournal(t *testing.T) {
	adapter := NewMockAdapter()
	adapter.Topology = Topology{{"A"}, {"B"}}
	adapter.FailSetTopology = true

	store := NewJournalStore(filepath.Join(t.TempDir(), "journal.json"))
	journal := &PersistentData{
		OriginalPrimary: "A",
	}
	journal.Topology.Initial = Topology{{"A"}}
	journal.Topology.Modified = Topology{{"A"}, {"B"}}

	ok := RevertSettings(adapter, store, journal)
	assert.False(t, ok)

	onDisk, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, onDisk, "a partially failed revert must keep the journal on disk for the retry timer")
}

func TestRevertSettingsAcrossUserTampering(t *testing.T) {
	// Scenario (e): journal {initial=[[A]], modified=[[A],[B]]}, but the
	// user has manually set [[A,B]] between sessions.
	adapter := NewMockAdapter()
	adapter.Topology = Topology{{"A", "B"}}
	adapter.Primary = "A"
	adapter.Modes["A"] = DisplayMode{Resolution{1920, 1080}, RefreshRate{60, 1}}

	store := NewJournalStore(filepath.Join(t.TempDir(), "journal.json"))
	journal := &PersistentData{
		OriginalModes: map[DeviceID]DisplayMode{
			"A": {Resolution{1920, 1080}, RefreshRate{60, 1}},
		},
	}
	journal.Topology.Initial = Topology{{"A"}}
	journal.Topology.Modified = Topology{{"A"}, {"B"}}

	ok := RevertSettings(adapter, store, journal)
	assert.True(t, ok)
	assert.True(t, TopologiesEqual(Topology{{"A"}}, adapter.Topology))
}

func TestExtendedFallbackActivatesEveryDevice(t *testing.T) {
	adapter := NewMockAdapter()
	adapter.Devices["A"] = DeviceInfo{DisplayName: "A"}
	adapter.Devices["B"] = DeviceInfo{DisplayName: "B"}

	ok := ExtendedFallback(adapter)
	assert.True(t, ok)
	assert.True(t, adapter.Topology.Contains("A"))
	assert.True(t, adapter.Topology.Contains("B"))
	for _, group := range adapter.Topology {
		assert.Len(t, group, 1, "extended fallback groups every device individually")
	}
}
