// SPDX-License-Identifier: GPL-3.0-or-later

package display

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHDRStateJSONRoundTrip(t *testing.T) {
	testdata := []struct {
		state HDRState
		str   string
	}{
		{HDRStateUnknown, `"unknown"`},
		{HDRStateDisabled, `"disabled"`},
		{HDRStateEnabled, `"enabled"`},
	}

	for _, d := range testdata {
		out, err := json.Marshal(d.state)
		require.NoError(t, err)
		assert.JSONEq(t, d.str, string(out))

		var got HDRState
		require.NoError(t, json.Unmarshal(out, &got))
		assert.Equal(t, d.state, got)
	}
}

func TestParseHDRStateUnknownFallsBack(t *testing.T) {
	assert.Equal(t, HDRStateUnknown, ParseHDRState("garbage"))
	assert.Equal(t, HDRStateUnknown, ParseHDRState(""))
}
