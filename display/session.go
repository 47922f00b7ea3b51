// SPDX-License-Identifier: GPL-3.0-or-later

package display

import (
	"errors"
	"sync"
)

// AudioSessionCapture is the opaque resource-scoping collaborator the
// facade holds for the duration of an ensure_only_display window: the
// user's default audio sink is likely to disappear when every display
// but one is disabled, so a capture is taken before applying and
// released only once revert succeeds. The real implementation lives
// outside this package's scope; tests supply a no-op.
type AudioSessionCapture interface {
	Capture()
	Release()
}

type noopAudioSessionCapture struct{}

func (noopAudioSessionCapture) Capture() {}
func (noopAudioSessionCapture) Release() {}

// Session is the process-wide singleton gating concurrent apply/revert
// of display settings under a single mutex, and driving the retry
// timer on failure.
type Session struct {
	mu sync.Mutex

	adapter Adapter
	store   *JournalStore
	audio   AudioSessionCapture

	journal   *PersistentData
	audioHeld bool

	retry *retryTimer
}

// NewSession builds a facade over adapter, persisting its journal at
// store. audio may be nil to use a no-op capture.
func NewSession(adapter Adapter, store *JournalStore, audio AudioSessionCapture) *Session {
	if audio == nil {
		audio = noopAudioSessionCapture{}
	}
	s := &Session{
		adapter: adapter,
		store:   store,
		audio:   audio,
	}
	s.retry = newRetryTimer(s.revertLockedFromTimer)
	return s
}

// revertLockedFromTimer is the retry timer's callback: it runs on its
// own goroutine outside the facade's lock, so it must acquire the lock
// itself before calling into revertLocked.
func (s *Session) revertLockedFromTimer() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revertLocked()
}

// Init loads any journal left over from a prior process and immediately
// attempts to revert it (crash recovery). The returned func is an RAII
// deinit handle: call it on shutdown to run one final revert attempt.
func (s *Session) Init() (deinit func(), err error) {
	s.mu.Lock()
	journal, loadErr := s.store.Load()
	s.mu.Unlock()
	if loadErr != nil {
		return func() {}, loadErr
	}

	s.mu.Lock()
	s.journal = journal
	s.mu.Unlock()

	s.RestoreState()

	return func() {
		s.RestoreState()
	}, nil
}

// ConfigureDisplay runs config parsing, topology planning, and apply under the facade's lock.
func (s *Session) ConfigureDisplay(cfg VideoConfig, launch LaunchSession) ApplyResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := MakeParsedPlan(cfg, launch)
	if err != nil {
		logger.Warning("failed to parse video config:", err)
		return applyResult(ResultConfigParseFail)
	}

	audioScoped := plan.DevicePrep == DevicePrepEnsureOnlyDisplay
	if audioScoped && !s.audioHeld {
		s.audio.Capture()
		s.audioHeld = true
	}

	topo, err := PlanTopology(s.adapter, plan, s.journal, s.revertLocked)
	if err != nil {
		logger.Warning("topology planning failed:", err)
		s.retry.Arm()
		if errors.Is(err, ErrReconcileRevertFailed) {
			return applyResult(ResultRevertFail)
		}
		return applyResult(ResultTopologyFail)
	}

	if s.journal == nil {
		s.journal = &PersistentData{}
	}
	result := ApplySettings(s.adapter, s.store, s.journal, plan, topo)

	if !result.OK() {
		// A failed stage must not leave the host half-configured: undo
		// whatever the earlier stages already journaled. revertLocked
		// arms the retry timer itself if that revert fails too, and a
		// failed mid-apply revert outranks the stage's own code.
		if !s.revertLocked() {
			result = applyResult(ResultRevertFail)
		}
	} else {
		s.retry.Disarm()
	}

	return result
}

// RestoreState always attempts a revert; it logs failures but never
// returns an error to the caller.
func (s *Session) RestoreState() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revertLocked()
}

// revertLocked performs the actual revert attempt. It must be called
// with s.mu already held.
func (s *Session) revertLocked() bool {
	if s.journal == nil || !s.journal.HasModifications() {
		if s.audioHeld {
			s.audio.Release()
			s.audioHeld = false
		}
		s.retry.Disarm()
		return true
	}

	ok := RevertSettings(s.adapter, s.store, s.journal)
	if ok {
		s.journal = nil
		if s.audioHeld {
			s.audio.Release()
			s.audioHeld = false
		}
		s.retry.Disarm()
		return true
	}

	if !ExtendedFallback(s.adapter) {
		logger.Warning("extended fallback topology activation failed")
	}
	s.retry.Arm()
	return false
}

// ResetPersistence attempts one revert, then unconditionally deletes
// the journal and disarms the retry timer regardless of outcome.
func (s *Session) ResetPersistence() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.revertLocked()

	s.journal = nil
	if err := s.store.Delete(); err != nil {
		logger.Warning("failed to delete display journal during reset:", err)
	}
	if s.audioHeld {
		s.audio.Release()
		s.audioHeld = false
	}
	s.retry.Disarm()
}
