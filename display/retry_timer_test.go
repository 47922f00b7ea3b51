// SPDX-License-Identifier: GPL-3.0-or-later

package display

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryTimerDisarmCancelsPendingFire(t *testing.T) {
	var fired int32
	timer := newRetryTimer(func() bool {
		atomic.AddInt32(&fired, 1)
		return true
	})

	timer.Arm()
	assert.True(t, timer.Armed())
	timer.Disarm()
	assert.False(t, timer.Armed())

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired), "disarming must cancel the pending timer")
}

func TestRetryTimerArmReplacesPrevious(t *testing.T) {
	timer := newRetryTimer(func() bool { return true })
	timer.Arm()
	timer.Arm()
	assert.True(t, timer.Armed())
	timer.Disarm()
}
