// SPDX-License-Identifier: GPL-3.0-or-later

package display

import "time"

// RevertSettings undoes journaled changes, re-entering the
// modified topology if necessary, then returning to the initial
// topology. Returns true on full success. On any partial failure the
// journal is re-saved (with fields cleared as they succeed) via store
// and false is returned so the caller can arm the retry timer.
func RevertSettings(adapter Adapter, store *JournalStore, journal *PersistentData) bool {
	if journal == nil || !journal.HasModifications() {
		return true
	}

	partiallyFailed := false
	var newlyEnabledDuringRevert []DeviceID

	// Step 2: if current topology diverges from journal.modified and any
	// originals are outstanding, try to re-enter journal.modified first.
	current := adapter.GetCurrentTopology()
	hasOriginals := journal.OriginalPrimary != "" || len(journal.OriginalModes) > 0 || len(journal.OriginalHDRStates) > 0

	if !TopologiesEqual(current, journal.Topology.Modified) && hasOriginals {
		before := current
		if adapter.SetTopology(journal.Topology.Modified) {
			after := adapter.GetCurrentTopology()
			newlyEnabledDuringRevert = append(newlyEnabledDuringRevert, DevicesNotIn(after, before)...)
		} else {
			partiallyFailed = true
			hasOriginals = false
		}
	}

	// Step 3: under journal.modified, revert HDR -> modes -> primary.
	if hasOriginals {
		if len(journal.OriginalHDRStates) > 0 {
			if adapter.SetHDRStates(journal.OriginalHDRStates) {
				journal.OriginalHDRStates = nil
			} else {
				partiallyFailed = true
			}
		}

		if len(journal.OriginalModes) > 0 {
			if adapter.SetDisplayModes(journal.OriginalModes, true) {
				journal.OriginalModes = nil
			} else {
				partiallyFailed = true
			}
		}

		if journal.OriginalPrimary != "" {
			if adapter.SetAsPrimaryDevice(journal.OriginalPrimary) {
				journal.OriginalPrimary = ""
			} else {
				partiallyFailed = true
			}
		}
	}

	// Step 4: return to the initial topology regardless of step 3's outcome.
	before := adapter.GetCurrentTopology()
	if adapter.SetTopology(journal.Topology.Initial) {
		after := adapter.GetCurrentTopology()
		newlyEnabledDuringRevert = append(newlyEnabledDuringRevert, DevicesNotIn(after, before)...)
	} else {
		partiallyFailed = true
	}

	// Step 5: HDR blank-pulse on devices newly enabled during steps 2/4,
	// re-applying their current HDR state. Failures here are ignored.
	refreshHDRStates(adapter, newlyEnabledDuringRevert)

	// Step 6.
	if partiallyFailed {
		if store != nil {
			if err := store.Save(journal); err != nil {
				logger.Warning("failed to re-save partially-reverted display journal:", err)
			}
		}
		return false
	}

	if store != nil {
		if err := store.Delete(); err != nil {
			logger.Warning("failed to delete display journal after successful revert:", err)
		}
	}
	return true
}

// refreshHDRStates blank-pulses the given devices and re-applies the
// HDR state each currently has. Used for devices that were just
// enabled, whose intended state is whatever they came up with.
// Failures are ignored: this is a fix-up, not a stage.
func refreshHDRStates(adapter Adapter, newlyEnabled []DeviceID) {
	if len(newlyEnabled) == 0 {
		return
	}
	current := adapter.GetCurrentHDRStates(newlyEnabled)

	toggle := make(map[DeviceID]HDRState)
	for id, state := range current {
		if state == HDRStateUnknown {
			continue
		}
		toggle[id] = oppositeHDRState(state)
	}
	if len(toggle) == 0 {
		return
	}
	adapter.SetHDRStates(toggle)
	time.Sleep(hdrBlankPulseDelay)

	reapply := make(map[DeviceID]HDRState)
	for id, state := range current {
		if state != HDRStateUnknown {
			reapply[id] = state
		}
	}
	adapter.SetHDRStates(reapply)
}

// ExtendedFallback is the last-ditch recovery after a failed revert:
// activate every enumerable device as its own single-device group so the
// user is never left with a blank screen. Session.revertLocked calls it
// whenever RevertSettings reports failure, not only when no topology
// could be restored.
func ExtendedFallback(adapter Adapter) bool {
	devices := adapter.EnumAvailableDevices()
	if len(devices) == 0 {
		return false
	}

	groups := make(Topology, 0, len(devices))
	for id := range devices {
		groups = append(groups, []DeviceID{id})
	}
	return adapter.SetTopology(groups)
}
