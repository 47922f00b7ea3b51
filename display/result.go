// SPDX-License-Identifier: GPL-3.0-or-later

package display

import "fmt"

// ApplyResultCode is the numeric, user-visible result of configure_display.
// The offsets are part of the contract and must not change.
type ApplyResultCode int

const (
	ResultSuccess            ApplyResultCode = 0
	ResultConfigParseFail    ApplyResultCode = 700
	ResultTopologyFail       ApplyResultCode = 701
	ResultPrimaryDisplayFail ApplyResultCode = 702
	ResultModesFail          ApplyResultCode = 703
	ResultHDRStatesFail      ApplyResultCode = 704
	ResultFileSaveFail       ApplyResultCode = 705
	ResultRevertFail         ApplyResultCode = 706
)

func (c ApplyResultCode) String() string {
	switch c {
	case ResultSuccess:
		return "success"
	case ResultConfigParseFail:
		return "config_parse_fail"
	case ResultTopologyFail:
		return "topology_fail"
	case ResultPrimaryDisplayFail:
		return "primary_display_fail"
	case ResultModesFail:
		return "modes_fail"
	case ResultHDRStatesFail:
		return "hdr_states_fail"
	case ResultFileSaveFail:
		return "file_save_fail"
	case ResultRevertFail:
		return "revert_fail"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// ApplyResult is the convenience return value of ConfigureDisplay.
type ApplyResult struct {
	Code ApplyResultCode
}

// OK reports whether the apply succeeded.
func (r ApplyResult) OK() bool {
	return r.Code == ResultSuccess
}

func (r ApplyResult) Error() string {
	return r.Code.String()
}

func applyResult(code ApplyResultCode) ApplyResult {
	return ApplyResult{Code: code}
}
