// SPDX-License-Identifier: GPL-3.0-or-later

package display

import "github.com/linuxdeepin/go-lib/utils"

// edidBaseBlockSize is the size of the EDID base block. Extension
// blocks carry data that drivers rewrite freely, so only the base
// block feeds the identity.
const edidBaseBlockSize = 128

// deviceIDVersion is bumped whenever the derivation scheme changes, so
// ids journaled under an older scheme never compare equal to fresh
// ones.
const deviceIDVersion = "d1"

// deriveDeviceID builds the semi-stable identity for one monitor: the
// connector name combined with a hash of the EDID base block, falling
// back to the connector name alone when the output exposes no usable
// EDID. The identity survives reboots and driver reinstalls; moving
// the monitor to a different port derives a new id.
func deriveDeviceID(connector string, edid []byte) DeviceID {
	if len(edid) < edidBaseBlockSize {
		return DeviceID(deviceIDVersion + ":" + connector)
	}

	sum, _ := utils.SumStrMd5(string(edid[:edidBaseBlockSize]))
	if sum == "" {
		return DeviceID(deviceIDVersion + ":" + connector)
	}

	return DeviceID(deviceIDVersion + ":" + connector + ":" + sum)
}
