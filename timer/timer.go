// Package timer implements engine.Scheduler on top of time.AfterFunc.
package timer

import (
	"time"

	"github.com/brineflow/mqttengine/engine"
)

// Scheduler is the production engine.Scheduler implementation.
type Scheduler struct{}

// New returns a Scheduler. There is no state to construct; every call is
// independent, matching time.AfterFunc's own model.
func New() *Scheduler { return &Scheduler{} }

// ScheduleOnce arms a single-shot timer and returns its *time.Timer as the
// opaque engine.TimerHandle.
func (Scheduler) ScheduleOnce(ms int64, fn func()) engine.TimerHandle {
	return time.AfterFunc(time.Duration(ms)*time.Millisecond, fn)
}

// Cancel stops h, the *time.Timer returned by ScheduleOnce. A nil or
// already-fired handle is a silent no-op.
func (Scheduler) Cancel(h engine.TimerHandle) {
	t, ok := h.(*time.Timer)
	if !ok || t == nil {
		return
	}
	t.Stop()
}
