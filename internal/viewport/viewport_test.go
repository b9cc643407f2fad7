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

package viewport

import (
	"testing"
)

func TestScaleForLevel(t *testing.T) {
	for _, tc := range []struct {
		level  int
		expect float32
	}{
		{2, 2},
		{1, 1},
		{0, 0.5},
		{-1, 1.0 / 3.0},
		{-2, 0.25},
		{-6, 0.125},
	} {
		if s := ScaleForLevel(tc.level); s != tc.expect {
			t.Errorf("ScaleForLevel(%d) got %f expect %f", tc.level, s, tc.expect)
		}
		if l := LevelForScale(tc.expect); l != tc.level {
			t.Errorf("LevelForScale(%f) got %d expect %d", tc.expect, l, tc.level)
		}
	}
}

func TestLevelForScaleClampsToMax(t *testing.T) {
	if l := LevelForScale(7); l != MaxZoomLevel {
		t.Errorf("got %d expect clamp to %d", l, MaxZoomLevel)
	}
}

func TestNewModelFits(t *testing.T) {
	// 4000x3000 source into 1000x750 viewport: fit scale 0.25 = level -2
	m := NewModel(4000, 3000, 1000, 750)
	if m.ZoomLevel() != -2 {
		t.Errorf("got level %d expect -2", m.ZoomLevel())
	}
	if m.Scale() != 0.25 {
		t.Errorf("got scale %f expect 0.25", m.Scale())
	}
	if x, y := m.PanOffset(); x != 0 || y != 0 {
		t.Errorf("fit should scroll to origin, got (%f,%f)", x, y)
	}
}

func TestZoomRange(t *testing.T) {
	m := NewModel(4000, 3000, 1000, 750)
	m.SetZoom(100, 0, 0, false)
	if m.ZoomLevel() != MaxZoomLevel {
		t.Errorf("got level %d expect clamp to %d", m.ZoomLevel(), MaxZoomLevel)
	}
	m.SetZoom(-100, 0, 0, false)
	if m.ZoomLevel() != m.ZoomOutLimit() {
		t.Errorf("got level %d expect clamp to limit %d", m.ZoomLevel(), m.ZoomOutLimit())
	}
	if m.ZoomOutLimit() > 0 {
		t.Errorf("zoom out limit %d must never be positive", m.ZoomOutLimit())
	}
	// limit allows roughly twice past the fit scale
	if ScaleForLevel(m.ZoomOutLimit()) > 0.25 {
		t.Errorf("zoom out limit scale %f should be at or below half the fit scale",
			ScaleForLevel(m.ZoomOutLimit()))
	}
}

func TestAnchoredZoom(t *testing.T) {
	m := NewModel(4000, 3000, 1000, 750)
	m.SetZoom(1, 0, 0, false)
	m.Pan(500, 300)

	refX, refY := float32(400), float32(200)
	srcX, srcY := m.ViewToSource(refX, refY)
	m.SetZoom(2, refX, refY, true)
	srcX2, srcY2 := m.ViewToSource(refX, refY)
	if absDiff(srcX, srcX2) > 1e-3 || absDiff(srcY, srcY2) > 1e-3 {
		t.Errorf("anchor moved from (%f,%f) to (%f,%f)", srcX, srcY, srcX2, srcY2)
	}
}

func TestRoundTripMapping(t *testing.T) {
	m := NewModel(4000, 3000, 1000, 750)
	m.SetZoom(2, 0, 0, false)
	m.Pan(123, 45)
	for _, pt := range [][2]float32{{0, 0}, {17, 3}, {999, 749}} {
		sx, sy := m.ViewToSource(pt[0], pt[1])
		vx, vy := m.SourceToView(sx, sy)
		if absDiff(vx, pt[0]) > 1e-3 || absDiff(vy, pt[1]) > 1e-3 {
			t.Errorf("round trip of (%f,%f) got (%f,%f)", pt[0], pt[1], vx, vy)
		}
	}
}

func TestScrollClamping(t *testing.T) {
	m := NewModel(4000, 3000, 1000, 750)
	m.SetZoom(1, 0, 0, false)
	m.Pan(1e9, 1e9)
	maxX, maxY := m.ScrollBounds()
	if x, y := m.PanOffset(); x*m.Scale() != maxX || y*m.Scale() != maxY {
		t.Errorf("pan should clamp to (%f,%f), got scaled (%f,%f)", maxX, maxY, x*m.Scale(), y*m.Scale())
	}
	m.Pan(-1e9, -1e9)
	if x, y := m.PanOffset(); x != 0 || y != 0 {
		t.Errorf("pan should clamp to origin, got (%f,%f)", x, y)
	}
}

func TestScrollBoundsSmallSource(t *testing.T) {
	// source smaller than the viewport at 1x: no scrolling possible
	m := NewModel(400, 300, 1000, 750)
	m.SetZoom(1, 0, 0, false)
	maxX, maxY := m.ScrollBounds()
	if maxX != 0 || maxY != 0 {
		t.Errorf("got bounds (%f,%f) expect (0,0)", maxX, maxY)
	}
}

func TestResizeReclamps(t *testing.T) {
	m := NewModel(4000, 3000, 1000, 750)
	m.SetZoom(m.ZoomOutLimit(), 0, 0, false)
	// a much larger viewport tightens the zoom out limit towards 0
	m.Resize(4000, 3000)
	if m.ZoomLevel() < m.ZoomOutLimit() {
		t.Errorf("level %d below limit %d after resize", m.ZoomLevel(), m.ZoomOutLimit())
	}
}

func TestSetSourceRefits(t *testing.T) {
	m := NewModel(4000, 3000, 1000, 750)
	m.SetZoom(2, 0, 0, false)
	m.Pan(500, 500)
	m.SetSource(1000, 750)
	if m.ZoomLevel() != 1 {
		t.Errorf("got level %d expect 1 for exact fit", m.ZoomLevel())
	}
	if x, y := m.PanOffset(); x != 0 || y != 0 {
		t.Errorf("source change should reset scroll, got (%f,%f)", x, y)
	}
}

func absDiff(a, b float32) float32 {
	d := a - b
	if d < 0 {
		return -d
	}
	return d
}
