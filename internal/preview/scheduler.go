// Copyright (C) 2024 Sean Carter
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package preview

import "time"

const (
	// Minimum interval between two throttled renders
	DefaultThrottleWindow = 80 * time.Millisecond
	// Number of deferred notifications after which a render is forced
	// even inside the throttle window
	DefaultSkipBound = 4
)

// Throttles a stream of parameter or view change notifications into a bounded
// number of render invocations. A render runs immediately when the throttle
// window since the last run has elapsed; within the window, notifications are
// skipped until the skip bound is reached, then a render is forced. The
// preview therefore never lags more than window*skipBound behind the latest
// change. Sequential state only; callers serialize all events onto one thread
type Scheduler struct {
	ThrottleWindow time.Duration
	SkipBound      int

	render  func()
	clock   func() time.Time
	lastRun time.Time
	skipped int
}

// Creates a scheduler invoking the given render callback
func NewScheduler(render func()) *Scheduler {
	return &Scheduler{
		ThrottleWindow: DefaultThrottleWindow,
		SkipBound:      DefaultSkipBound,
		render:         render,
		clock:          time.Now,
	}
}

// Signals a parameter or view change. Runs the render callback when the
// throttling policy allows it, and reports whether it ran
func (s *Scheduler) Notify() bool {
	now := s.clock()
	if now.Sub(s.lastRun) >= s.ThrottleWindow {
		s.run(now)
		return true
	}
	s.skipped++
	if s.skipped >= s.SkipBound {
		s.run(now)
		return true
	}
	return false
}

// Bypasses throttling entirely for discrete actions like mode toggles or zoom
// buttons: always runs and resets the timer
func (s *Scheduler) ForceUpdate() {
	s.run(s.clock())
}

func (s *Scheduler) run(now time.Time) {
	s.lastRun = now
	s.skipped = 0
	s.render()
}
