// SPDX-License-Identifier: GPL-3.0-or-later

package display

import (
	"fmt"
	"sync"

	"github.com/davecgh/go-spew/spew"
	x "github.com/linuxdeepin/go-x11-client"
	"github.com/linuxdeepin/go-x11-client/ext/randr"
)

// hdrOutputPropertyName is the RandR output property the DRM/KMS kernel
// drivers (amdgpu, i915) expose for the connector's HDR metadata blob.
// A non-zero first byte means HDR is active.
const hdrOutputPropertyName = "HDR_OUTPUT_METADATA"

// x11Adapter implements Adapter on top of the X11 RandR extension. It is
// this rendition's concrete display-control adapter, grounded in
// display1/xorg.go's CRTC/output/EDID plumbing the way the source's
// Windows adapter wraps the Windows display APIs.
type x11Adapter struct {
	xConn *x.Conn

	mu       sync.Mutex
	outputs  map[randr.Output]*randr.GetOutputInfoReply
	crtcs    map[randr.Crtc]*randr.GetCrtcInfoReply
	deviceID map[randr.Output]DeviceID
	idOutput map[DeviceID]randr.Output
}

// NewX11Adapter constructs an Adapter backed by the X11 connection xConn.
func NewX11Adapter(xConn *x.Conn) *x11Adapter {
	return &x11Adapter{
		xConn:    xConn,
		outputs:  make(map[randr.Output]*randr.GetOutputInfoReply),
		crtcs:    make(map[randr.Crtc]*randr.GetCrtcInfoReply),
		deviceID: make(map[randr.Output]DeviceID),
		idOutput: make(map[DeviceID]randr.Output),
	}
}

func (a *x11Adapter) root() x.Window {
	return a.xConn.GetDefaultScreen().Root
}

func (a *x11Adapter) refreshNoLock() error {
	resources, err := randr.GetScreenResourcesCurrent(a.xConn, a.root()).Reply(a.xConn)
	if err != nil {
		return err
	}

	a.outputs = make(map[randr.Output]*randr.GetOutputInfoReply)
	a.crtcs = make(map[randr.Crtc]*randr.GetCrtcInfoReply)

	for _, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(a.xConn, crtc, resources.ConfigTimestamp).Reply(a.xConn)
		if err != nil {
			logger.Warning("GetCrtcInfo failed:", err)
			continue
		}
		a.crtcs[crtc] = info
	}

	for _, output := range resources.Outputs {
		info, err := randr.GetOutputInfo(a.xConn, output, resources.ConfigTimestamp).Reply(a.xConn)
		if err != nil {
			logger.Warning("GetOutputInfo failed:", err)
			continue
		}
		a.outputs[output] = info

		edid, _ := a.getOutputEdid(output)
		id := deriveDeviceID(info.Name, edid)
		a.deviceID[output] = id
		a.idOutput[id] = output
	}
	return nil
}

func (a *x11Adapter) getOutputEdid(output randr.Output) ([]byte, error) {
	atomEDID, err := a.xConn.GetAtom("EDID")
	if err != nil {
		return nil, err
	}
	reply, err := randr.GetOutputProperty(a.xConn, output, atomEDID, x.AtomInteger,
		0, 32, false, false).Reply(a.xConn)
	if err != nil {
		return nil, err
	}
	return reply.Value, nil
}

func (a *x11Adapter) EnumAvailableDevices() map[DeviceID]DeviceInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.refreshNoLock(); err != nil {
		logger.Warning("refresh failed:", err)
		return nil
	}

	primary, err := randr.GetOutputPrimary(a.xConn, a.root()).Reply(a.xConn)
	var primaryOutput randr.Output
	if err == nil {
		primaryOutput = primary.Output
	}

	out := make(map[DeviceID]DeviceInfo, len(a.outputs))
	for output, info := range a.outputs {
		id := a.deviceID[output]
		state := DeviceStateInactive
		if info.Crtc != 0 {
			state = DeviceStateActive
			if output == primaryOutput {
				state = DeviceStatePrimary
			}
		}
		out[id] = DeviceInfo{
			DisplayName:  info.Name,
			FriendlyName: info.Name,
			State:        state,
			HDRState:     a.getHDRStateNoLock(output),
		}
	}
	logger.Debug("enumerated devices:", spew.Sdump(out))
	return out
}

func (a *x11Adapter) GetDisplayName(id DeviceID) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	output, ok := a.idOutput[id]
	if !ok {
		return ""
	}
	info := a.outputs[output]
	if info == nil || info.Crtc == 0 {
		return ""
	}
	return info.Name
}

// GetCurrentTopology reads the active CRTC-to-output mapping and groups
// outputs sharing an identical CRTC rectangle as a mirrored group.
func (a *x11Adapter) GetCurrentTopology() Topology {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.refreshNoLock(); err != nil {
		logger.Warning("refresh failed:", err)
		return nil
	}

	type rect struct {
		x, y int16
		w, h uint16
	}
	groups := make(map[rect][]DeviceID)
	for output, info := range a.outputs {
		if info.Crtc == 0 {
			continue
		}
		crtc := a.crtcs[info.Crtc]
		if crtc == nil {
			continue
		}
		r := rect{crtc.X, crtc.Y, crtc.Width, crtc.Height}
		groups[r] = append(groups[r], a.deviceID[output])
	}

	var topology Topology
	for _, group := range groups {
		topology = append(topology, group)
	}
	return topology
}

func (a *x11Adapter) IsTopologyValid(t Topology) bool {
	return t.IsValid()
}

func (a *x11Adapter) IsTopologyTheSame(x, y Topology) bool {
	return TopologiesEqual(x, y)
}

// SetTopology enables/disables CRTCs so that the outputs named in t end
// up active, sharing a CRTC per mirror group, and every other output is
// disabled. It verifies the result and reverts on mismatch rather than
// leave the OS in a half-applied state.
func (a *x11Adapter) SetTopology(t Topology) bool {
	before := a.GetCurrentTopology()

	if !a.applyTopology(t) {
		a.applyTopology(before)
		return false
	}

	got := a.GetCurrentTopology()
	if !TopologiesEqual(got, t) {
		logger.Warning("set_topology verify mismatch, reverting")
		a.applyTopology(before)
		return false
	}
	return true
}

func (a *x11Adapter) applyTopology(t Topology) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	wanted := make(map[randr.Output]bool)
	for _, group := range t {
		for _, id := range group {
			if output, ok := a.idOutput[id]; ok {
				wanted[output] = true
			}
		}
	}

	resources, err := randr.GetScreenResourcesCurrent(a.xConn, a.root()).Reply(a.xConn)
	if err != nil {
		logger.Warning("GetScreenResourcesCurrent failed:", err)
		return false
	}

	x.GrabServer(a.xConn)
	defer func() {
		if err := x.UngrabServerChecked(a.xConn).Check(a.xConn); err != nil {
			logger.Warning("UngrabServer failed:", err)
		}
	}()

	for output := range a.outputs {
		if wanted[output] {
			continue
		}
		info := a.outputs[output]
		if info == nil || info.Crtc == 0 {
			continue
		}
		if err := a.disableCrtc(info.Crtc, resources.ConfigTimestamp); err != nil {
			logger.Warning("disableCrtc failed:", err)
			return false
		}
	}

	nextX := int16(0)
	for _, group := range t {
		crtc, ok := a.findFreeCrtcForGroup(group)
		if !ok {
			logger.Warning("no free crtc for group:", group)
			return false
		}
		var outputs []randr.Output
		for _, id := range group {
			if output, ok := a.idOutput[id]; ok {
				outputs = append(outputs, output)
			}
		}
		if len(outputs) == 0 {
			continue
		}
		mode := a.preferredModeFor(outputs[0])
		setCfg, err := randr.SetCrtcConfig(a.xConn, crtc, 0, resources.ConfigTimestamp,
			nextX, 0, mode, randr.RotationRotate0, outputs).Reply(a.xConn)
		if err != nil || setCfg.Status != randr.SetConfigSuccess {
			logger.Warning("SetCrtcConfig failed:", err, setCfg)
			return false
		}
		nextX += 1920 // next group starts to the right; exact placement is cosmetic only
	}
	return true
}

func (a *x11Adapter) disableCrtc(crtc randr.Crtc, ts x.Timestamp) error {
	setCfg, err := randr.SetCrtcConfig(a.xConn, crtc, 0, ts, 0, 0, 0,
		randr.RotationRotate0, nil).Reply(a.xConn)
	if err != nil {
		return err
	}
	if setCfg.Status != randr.SetConfigSuccess {
		return fmt.Errorf("disable crtc %v failed: status %v", crtc, setCfg.Status)
	}
	return nil
}

func (a *x11Adapter) findFreeCrtcForGroup(group []DeviceID) (randr.Crtc, bool) {
	if len(group) == 0 {
		return 0, false
	}
	output, ok := a.idOutput[group[0]]
	if !ok {
		return 0, false
	}
	info := a.outputs[output]
	if info == nil {
		return 0, false
	}
	for _, crtc := range info.Crtcs {
		return crtc, true
	}
	return 0, false
}

func (a *x11Adapter) preferredModeFor(output randr.Output) randr.Mode {
	info := a.outputs[output]
	if info == nil || len(info.Modes) == 0 {
		return 0
	}
	return info.Modes[0]
}

func (a *x11Adapter) GetCurrentDisplayModes(ids []DeviceID) map[DeviceID]DisplayMode {
	a.mu.Lock()
	defer a.mu.Unlock()

	resources, err := randr.GetScreenResourcesCurrent(a.xConn, a.root()).Reply(a.xConn)
	if err != nil {
		logger.Warning("GetScreenResourcesCurrent failed:", err)
		return map[DeviceID]DisplayMode{}
	}
	modeInfoByID := make(map[randr.Mode]randr.ModeInfo, len(resources.Modes))
	for _, mi := range resources.Modes {
		modeInfoByID[randr.Mode(mi.Id)] = mi
	}

	out := make(map[DeviceID]DisplayMode, len(ids))
	for _, id := range ids {
		output, ok := a.idOutput[id]
		if !ok {
			return map[DeviceID]DisplayMode{}
		}
		info := a.outputs[output]
		if info == nil || info.Crtc == 0 {
			return map[DeviceID]DisplayMode{}
		}
		crtc := a.crtcs[info.Crtc]
		if crtc == nil {
			return map[DeviceID]DisplayMode{}
		}
		mi, ok := modeInfoByID[crtc.Mode]
		if !ok {
			return map[DeviceID]DisplayMode{}
		}
		out[id] = DisplayMode{
			Resolution:  Resolution{Width: uint32(mi.Width), Height: uint32(mi.Height)},
			RefreshRate: modeInfoRate(mi),
		}
	}
	return out
}

func modeInfoRate(mi randr.ModeInfo) RefreshRate {
	if mi.HTotal == 0 || mi.VTotal == 0 {
		return RefreshRate{Numerator: 0, Denominator: 1}
	}
	return RefreshRate{Numerator: mi.DotClock, Denominator: uint32(mi.HTotal) * uint32(mi.VTotal)}
}

func (a *x11Adapter) SetDisplayModes(modes map[DeviceID]DisplayMode, allowAdjustments bool) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	resources, err := randr.GetScreenResourcesCurrent(a.xConn, a.root()).Reply(a.xConn)
	if err != nil {
		logger.Warning("GetScreenResourcesCurrent failed:", err)
		return false
	}

	for id, mode := range modes {
		output, ok := a.idOutput[id]
		if !ok {
			return false
		}
		info := a.outputs[output]
		if info == nil || info.Crtc == 0 {
			return false
		}
		modeID, ok := a.findMatchingMode(resources, info, mode, allowAdjustments)
		if !ok {
			return false
		}
		crtc := a.crtcs[info.Crtc]
		setCfg, err := randr.SetCrtcConfig(a.xConn, info.Crtc, 0, resources.ConfigTimestamp,
			crtc.X, crtc.Y, modeID, crtc.Rotation, crtc.Outputs).Reply(a.xConn)
		if err != nil || setCfg.Status != randr.SetConfigSuccess {
			logger.Warning("SetCrtcConfig (mode) failed:", err, setCfg)
			return false
		}
	}
	return true
}

// findMatchingMode looks up a mode id matching the resolution exactly
// and the refresh rate either fuzzily (allowAdjustments) or tightly.
func (a *x11Adapter) findMatchingMode(resources *randr.GetScreenResourcesCurrentReply, info *randr.GetOutputInfoReply, want DisplayMode, allowAdjustments bool) (randr.Mode, bool) {
	byID := make(map[randr.Mode]randr.ModeInfo, len(resources.Modes))
	for _, mi := range resources.Modes {
		byID[randr.Mode(mi.Id)] = mi
	}
	for _, modeID := range info.Modes {
		mi, ok := byID[modeID]
		if !ok || uint32(mi.Width) != want.Resolution.Width || uint32(mi.Height) != want.Resolution.Height {
			continue
		}
		rate := modeInfoRate(mi)
		if allowAdjustments {
			if rate.FuzzyEqual(want.RefreshRate) {
				return modeID, true
			}
		} else if rate == want.RefreshRate {
			return modeID, true
		}
	}
	return 0, false
}

func (a *x11Adapter) IsPrimaryDevice(id DeviceID) bool {
	a.mu.Lock()
	output, ok := a.idOutput[id]
	a.mu.Unlock()
	if !ok {
		return false
	}
	primary, err := randr.GetOutputPrimary(a.xConn, a.root()).Reply(a.xConn)
	if err != nil {
		return false
	}
	return primary.Output == output
}

func (a *x11Adapter) SetAsPrimaryDevice(id DeviceID) bool {
	a.mu.Lock()
	output, ok := a.idOutput[id]
	a.mu.Unlock()
	if !ok {
		return false
	}
	err := randr.SetOutputPrimaryChecked(a.xConn, a.root(), output).Check(a.xConn)
	if err != nil {
		logger.Warning("SetOutputPrimary failed:", err)
		return false
	}
	return true
}

func (a *x11Adapter) getHDRStateNoLock(output randr.Output) HDRState {
	atom, err := a.xConn.GetAtom(hdrOutputPropertyName)
	if err != nil {
		return HDRStateUnknown
	}
	reply, err := randr.GetOutputProperty(a.xConn, output, atom, x.AtomNone,
		0, 1, false, false).Reply(a.xConn)
	if err != nil || len(reply.Value) == 0 {
		return HDRStateUnknown
	}
	if reply.Value[0] != 0 {
		return HDRStateEnabled
	}
	return HDRStateDisabled
}

func (a *x11Adapter) GetCurrentHDRStates(ids []DeviceID) map[DeviceID]HDRState {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[DeviceID]HDRState, len(ids))
	for _, id := range ids {
		output, ok := a.idOutput[id]
		if !ok {
			out[id] = HDRStateUnknown
			continue
		}
		out[id] = a.getHDRStateNoLock(output)
	}
	return out
}

func (a *x11Adapter) SetHDRStates(states map[DeviceID]HDRState) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	atom, err := a.xConn.GetAtom(hdrOutputPropertyName)
	if err != nil {
		logger.Warning("GetAtom(HDR_OUTPUT_METADATA) failed:", err)
		return false
	}

	for id, state := range states {
		if state == HDRStateUnknown {
			continue
		}
		output, ok := a.idOutput[id]
		if !ok {
			return false
		}
		w := x.NewWriter()
		if state == HDRStateEnabled {
			w.Write4b(1)
		} else {
			w.Write4b(0)
		}
		err := randr.ChangeOutputPropertyChecked(a.xConn, output, atom, x.AtomInteger,
			32, x.PropModeReplace, w.Bytes()).Check(a.xConn)
		if err != nil {
			logger.Warning("ChangeOutputProperty(HDR) failed:", err)
			return false
		}
	}
	return true
}

var _ Adapter = (*x11Adapter)(nil)
