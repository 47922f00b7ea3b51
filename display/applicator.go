// SPDX-License-Identifier: GPL-3.0-or-later

package display

import (
	"time"

	"github.com/davecgh/go-spew/spew"
)

// hdrBlankPulseDelay is the sleep between the opposite-state toggle and
// the intended HDR state, working around a driver defect where newly
// enabled virtual HDR displays come up with crushed colors. A variable
// so tests can shorten it.
var hdrBlankPulseDelay = 1500 * time.Millisecond

// ApplySettings records the topology the planner already applied, then
// orchestrates primary -> modes -> HDR, capturing originals into journal
// and persisting it on every exit path via store.
// The journal passed in is mutated in place; callers own its lifetime.
func ApplySettings(adapter Adapter, store *JournalStore, journal *PersistentData, plan ParsedPlan, topo TopologyPlan) (result ApplyResult) {
	if journal == nil {
		journal = &PersistentData{}
	}
	journal.Topology.Initial = topo.Initial
	journal.Topology.Modified = topo.Final

	result = applyResult(ResultSuccess)

	defer func() {
		if err := persistJournal(store, journal); err != nil && result.OK() {
			result = applyResult(ResultFileSaveFail)
		}
	}()

	if res := applyPrimary(adapter, journal, plan, topo); !res.OK() {
		result = res
		return result
	}

	if res := applyModes(adapter, journal, plan, topo); !res.OK() {
		result = res
		return result
	}

	if res := applyHDR(adapter, journal, plan, topo); !res.OK() {
		result = res
		return result
	}

	return result
}

func persistJournal(store *JournalStore, journal *PersistentData) error {
	if store == nil {
		return nil
	}
	if !journal.HasModifications() {
		if err := store.Delete(); err != nil {
			logger.Warning("failed to delete empty display journal:", err)
			return err
		}
		return nil
	}
	if err := store.Save(journal); err != nil {
		logger.Warning("failed to persist display journal:", spew.Sdump(journal), err)
		return err
	}
	return nil
}

func applyPrimary(adapter Adapter, journal *PersistentData, plan ParsedPlan, topo TopologyPlan) ApplyResult {
	switch {
	case plan.DevicePrep == DevicePrepEnsurePrimary && len(topo.DuplicatedDevices) > 0:
		// The target is always re-asserted and the pre-apply primary
		// always journaled, even when the target is already primary.
		target := topo.DuplicatedDevices[0]
		original := currentPrimary(adapter)
		if !adapter.SetAsPrimaryDevice(target) {
			return applyResult(ResultPrimaryDisplayFail)
		}
		if journal.OriginalPrimary == "" {
			journal.OriginalPrimary = original
		}
	case journal.OriginalPrimary != "":
		if !adapter.SetAsPrimaryDevice(journal.OriginalPrimary) {
			return applyResult(ResultPrimaryDisplayFail)
		}
	}
	return applyResult(ResultSuccess)
}

func currentPrimary(adapter Adapter) DeviceID {
	for id := range adapter.EnumAvailableDevices() {
		if adapter.IsPrimaryDevice(id) {
			return id
		}
	}
	return ""
}

func applyModes(adapter Adapter, journal *PersistentData, plan ParsedPlan, topo TopologyPlan) ApplyResult {
	if plan.Resolution == nil && plan.RefreshRate == nil {
		if len(journal.OriginalModes) == 0 {
			return applyResult(ResultSuccess)
		}
		restoreModes := make(map[DeviceID]DisplayMode, len(journal.OriginalModes))
		for id, mode := range journal.OriginalModes {
			restoreModes[id] = mode
		}
		if !adapter.SetDisplayModes(restoreModes, true) {
			return applyResult(ResultModesFail)
		}
		journal.OriginalModes = nil
		return applyResult(ResultSuccess)
	}

	targets := topo.DuplicatedDevices
	if len(targets) == 0 {
		return applyResult(ResultSuccess)
	}

	ids := make([]DeviceID, len(targets))
	copy(ids, targets)

	current := adapter.GetCurrentDisplayModes(ids)
	if len(current) == 0 {
		return applyResult(ResultModesFail)
	}

	// originalBase is what the plan's overlay is computed from: the
	// journaled original when one already exists (so a later apply that
	// touches only one field doesn't pick up the previous apply's value
	// for the other), falling back to the live current mode for devices
	// that have never been journaled.
	originalBase := func(id DeviceID) DisplayMode {
		if mode, ok := journal.OriginalModes[id]; ok {
			return mode
		}
		return current[id]
	}

	newModes := make(map[DeviceID]DisplayMode, len(targets))
	for _, id := range targets {
		if _, ok := current[id]; !ok {
			return applyResult(ResultModesFail)
		}
		mode := originalBase(id)
		if plan.Resolution != nil {
			mode.Resolution = *plan.Resolution
		}
		if plan.RefreshRate != nil {
			applyRate := topo.PrimaryDeviceRequested || id == topo.DuplicatedDevices[0]
			if applyRate {
				mode.RefreshRate = *plan.RefreshRate
			}
		}
		newModes[id] = mode
	}

	if journal.OriginalModes == nil {
		journal.OriginalModes = make(map[DeviceID]DisplayMode, len(current))
	}
	for id, mode := range current {
		if _, exists := journal.OriginalModes[id]; !exists {
			journal.OriginalModes[id] = mode
		}
	}

	if !setModesWithRetry(adapter, newModes, ids) {
		restoreModes := make(map[DeviceID]DisplayMode, len(targets))
		for _, id := range targets {
			if mode, ok := journal.OriginalModes[id]; ok {
				restoreModes[id] = mode
			}
		}
		adapter.SetDisplayModes(restoreModes, true)
		return applyResult(ResultModesFail)
	}

	return applyResult(ResultSuccess)
}

// setModesWithRetry first asks the adapter to set modes allowing OS
// adjustments; if the result doesn't fuzzy-match, it retries without
// adjustments, which accepts custom modes configured outside the
// standard list.
func setModesWithRetry(adapter Adapter, requested map[DeviceID]DisplayMode, ids []DeviceID) bool {
	if !adapter.SetDisplayModes(requested, true) {
		return adapter.SetDisplayModes(requested, false)
	}

	applied := adapter.GetCurrentDisplayModes(ids)
	if modesMatch(requested, applied) {
		return true
	}

	return adapter.SetDisplayModes(requested, false)
}

func modesMatch(requested, applied map[DeviceID]DisplayMode) bool {
	for id, mode := range requested {
		got, ok := applied[id]
		if !ok || !mode.FuzzyEqual(got) {
			return false
		}
	}
	return true
}

func applyHDR(adapter Adapter, journal *PersistentData, plan ParsedPlan, topo TopologyPlan) ApplyResult {
	if plan.ChangeHDRState == nil {
		if len(journal.OriginalHDRStates) > 0 {
			restoreStates := make(map[DeviceID]HDRState, len(journal.OriginalHDRStates))
			for id, state := range journal.OriginalHDRStates {
				restoreStates[id] = state
			}
			if !adapter.SetHDRStates(restoreStates) {
				return applyResult(ResultHDRStatesFail)
			}
			journal.OriginalHDRStates = nil
		}
		// Newly enabled devices need the blank pulse even when no HDR
		// change was requested; each keeps its own current state.
		refreshHDRStates(adapter, topo.NewlyEnabledDevices)
		return applyResult(ResultSuccess)
	}

	target := HDRStateDisabled
	if *plan.ChangeHDRState {
		target = HDRStateEnabled
	}

	var targets []DeviceID
	if topo.PrimaryDeviceRequested {
		targets = topo.DuplicatedDevices
	} else if len(topo.DuplicatedDevices) > 0 {
		targets = []DeviceID{topo.DuplicatedDevices[0]}
	}
	if len(targets) == 0 {
		return applyResult(ResultSuccess)
	}

	current := adapter.GetCurrentHDRStates(targets)

	// originalState is the original to treat a device as having: the
	// journaled original when one already exists, falling back to the
	// live current state for devices that have never been journaled.
	originalState := func(id DeviceID) HDRState {
		if state, ok := journal.OriginalHDRStates[id]; ok {
			return state
		}
		return current[id]
	}

	if journal.OriginalHDRStates == nil {
		journal.OriginalHDRStates = make(map[DeviceID]HDRState, len(current))
	}
	for id, state := range current {
		if state == HDRStateUnknown {
			continue
		}
		if _, exists := journal.OriginalHDRStates[id]; !exists {
			journal.OriginalHDRStates[id] = state
		}
	}

	desired := make(map[DeviceID]HDRState, len(targets))
	for _, id := range targets {
		if originalState(id) == HDRStateUnknown {
			continue
		}
		desired[id] = target
	}

	// Blank-pulse newly enabled devices before setting the intended
	// states. A newly enabled device outside the target set keeps
	// whatever state it came up with, so that state is folded into the
	// final set and the pulse still ends on the intended value.
	pulse := make(map[DeviceID]HDRState)
	if len(topo.NewlyEnabledDevices) > 0 {
		enabled := adapter.GetCurrentHDRStates(topo.NewlyEnabledDevices)
		for _, id := range topo.NewlyEnabledDevices {
			intended, ok := desired[id]
			if !ok {
				intended = enabled[id]
			}
			if intended == HDRStateUnknown {
				continue
			}
			pulse[id] = intended
		}
	}
	if len(pulse) > 0 {
		toggle := make(map[DeviceID]HDRState, len(pulse))
		for id, intended := range pulse {
			toggle[id] = oppositeHDRState(intended)
		}
		adapter.SetHDRStates(toggle)
		time.Sleep(hdrBlankPulseDelay)
		for id, intended := range pulse {
			if _, ok := desired[id]; !ok {
				desired[id] = intended
			}
		}
	}

	if len(desired) == 0 {
		return applyResult(ResultSuccess)
	}

	if !adapter.SetHDRStates(desired) {
		return applyResult(ResultHDRStatesFail)
	}
	return applyResult(ResultSuccess)
}

func oppositeHDRState(state HDRState) HDRState {
	if state == HDRStateEnabled {
		return HDRStateDisabled
	}
	return HDRStateEnabled
}
