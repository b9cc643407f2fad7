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

import (
	"testing"
	"time"
)

// Scheduler with a manually advanced clock for deterministic timing
func testScheduler(render func()) (*Scheduler, func(d time.Duration)) {
	now := time.Unix(1000, 0)
	s := NewScheduler(render)
	s.clock = func() time.Time { return now }
	return s, func(d time.Duration) { now = now.Add(d) }
}

func TestSchedulerRunsWhenIdle(t *testing.T) {
	runs := 0
	s, advance := testScheduler(func() { runs++ })
	advance(time.Second)
	if !s.Notify() || runs != 1 {
		t.Errorf("first notification after idle should render, got %d runs", runs)
	}
	advance(DefaultThrottleWindow)
	if !s.Notify() || runs != 2 {
		t.Errorf("notification after a full window should render, got %d runs", runs)
	}
}

func TestSchedulerThrottlesBursts(t *testing.T) {
	runs := 0
	s, advance := testScheduler(func() { runs++ })
	advance(time.Second)
	s.Notify() // runs, opens the window

	// a rapid burst inside the window: every SkipBound-th event forces a render
	for i := 0; i < 20; i++ {
		advance(time.Millisecond)
		s.Notify()
	}
	expect := 1 + 20/DefaultSkipBound
	if runs != expect {
		t.Errorf("burst of 20 events produced %d renders, expect %d", runs, expect)
	}
}

func TestSchedulerSkipBoundResets(t *testing.T) {
	runs := 0
	s, advance := testScheduler(func() { runs++ })
	advance(time.Second)
	s.Notify()

	for i := 0; i < DefaultSkipBound-1; i++ {
		advance(time.Millisecond)
		if s.Notify() {
			t.Fatalf("notification %d inside the window should be skipped", i)
		}
	}
	advance(time.Millisecond)
	if !s.Notify() {
		t.Errorf("notification at the skip bound should render")
	}
	// the counter must reset after the forced render
	advance(time.Millisecond)
	if s.Notify() {
		t.Errorf("notification right after a forced render should be skipped again")
	}
}

func TestSchedulerForceUpdate(t *testing.T) {
	runs := 0
	s, advance := testScheduler(func() { runs++ })
	advance(time.Second)
	s.Notify()
	advance(time.Millisecond)
	s.ForceUpdate()
	if runs != 2 {
		t.Errorf("force update must bypass throttling, got %d runs", runs)
	}
	// force update restarts the window
	advance(time.Millisecond)
	if s.Notify() {
		t.Errorf("notification right after a force update should be throttled")
	}
}
