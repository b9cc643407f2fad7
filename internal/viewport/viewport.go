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
	"fmt"
	"math"
)

// Highest zoom level, i.e. 2x magnification
const MaxZoomLevel = 2

// Viewport state machine for a source raster of known size. Zoom levels are
// integers: positive levels magnify by the level itself, level L<=0 minifies
// by 1/(-L+2). The scroll offset is held in scaled image pixels and clamped
// to the scroll bounds after every mutation
type Model struct {
	sourceW, sourceH int32   // source raster dimensions in pixels
	viewW, viewH     int32   // viewport dimensions in pixels
	zoomLevel        int     // current level, in [zoomOutLimit, MaxZoomLevel]
	zoomOutLimit     int     // most negative allowed level, depends on both sizes
	scale            float32 // derived magnification factor, >0
	scrollX, scrollY float32 // scroll offset in scaled image pixels, >=0
}

// Creates a viewport model for the given source and viewport sizes,
// initialized to fit the source into the viewport
func NewModel(sourceW, sourceH, viewW, viewH int32) *Model {
	m := &Model{sourceW: sourceW, sourceH: sourceH, viewW: viewW, viewH: viewH}
	m.zoomOutLimit = m.computeZoomOutLimit()
	m.FitToWindow()
	return m
}

func (m *Model) ZoomLevel() int     { return m.zoomLevel }
func (m *Model) ZoomOutLimit() int  { return m.zoomOutLimit }
func (m *Model) Scale() float32     { return m.scale }
func (m *Model) ViewportSize() (w, h int32) { return m.viewW, m.viewH }
func (m *Model) SourceSize() (w, h int32)   { return m.sourceW, m.sourceH }

// Scroll offset in source pixel units
func (m *Model) PanOffset() (x, y float32) {
	return m.scrollX / m.scale, m.scrollY / m.scale
}

func (m *Model) String() string {
	return fmt.Sprintf("zoom %d scale %.4g scroll (%.1f,%.1f) limit %d",
		m.zoomLevel, m.scale, m.scrollX, m.scrollY, m.zoomOutLimit)
}

// Maps an integer zoom level to its magnification scale
func ScaleForLevel(level int) float32 {
	if level > 0 {
		return float32(level)
	}
	return 1 / float32(-level+2)
}

// Maps a magnification scale to the nearest integer zoom level
func LevelForScale(scale float32) int {
	if scale >= 1 {
		level := int(scale + 0.5)
		if level > MaxZoomLevel {
			level = MaxZoomLevel
		}
		return level
	}
	return int(math.Round(2 - 1/float64(scale)))
}

// The scale that exactly fits the source into the viewport on the binding axis
func (m *Model) fitScale() float32 {
	sx := float32(m.viewW) / float32(m.sourceW)
	sy := float32(m.viewH) / float32(m.sourceH)
	if sy < sx {
		return sy
	}
	return sx
}

// Most negative zoom level still allowed: roughly twice past the fit scale,
// so at most ~2 source pixels collapse into one viewport pixel beyond fit
func (m *Model) computeZoomOutLimit() int {
	minScale := m.fitScale()
	if minScale > 1 {
		minScale = 1
	}
	limit := LevelForScale(minScale / 2)
	if limit > 0 {
		limit = 0
	}
	return limit
}

// Sets the zoom level, clamped to [zoomOutLimit, MaxZoomLevel], keeping the
// source point under the given viewport reference point fixed. Pass hasRef
// false to keep the current scroll offset (clamped to the new bounds)
func (m *Model) SetZoom(level int, refX, refY float32, hasRef bool) {
	if level < m.zoomOutLimit {
		level = m.zoomOutLimit
	}
	if level > MaxZoomLevel {
		level = MaxZoomLevel
	}
	oldScale := m.scale
	m.zoomLevel = level
	m.scale = ScaleForLevel(level)

	if hasRef && oldScale > 0 {
		// keep the source pixel under (refX, refY) stationary
		srcX := (refX + m.scrollX) / oldScale
		srcY := (refY + m.scrollY) / oldScale
		m.scrollX = srcX*m.scale - refX
		m.scrollY = srcY*m.scale - refY
	}
	m.clampScroll()
}

// Adjusts the viewport size, re-clamping zoom and scroll
func (m *Model) Resize(viewW, viewH int32) {
	m.viewW, m.viewH = viewW, viewH
	m.zoomOutLimit = m.computeZoomOutLimit()
	if m.zoomLevel < m.zoomOutLimit {
		m.SetZoom(m.zoomOutLimit, 0, 0, false)
		return
	}
	m.clampScroll()
}

// Replaces the source raster size, resetting to fit
func (m *Model) SetSource(sourceW, sourceH int32) {
	m.sourceW, m.sourceH = sourceW, sourceH
	m.zoomOutLimit = m.computeZoomOutLimit()
	m.FitToWindow()
}

// Zooms so the source exactly fits the viewport on the binding axis,
// using the nearest integer zoom level, and scrolls back to the origin
func (m *Model) FitToWindow() {
	m.scrollX, m.scrollY = 0, 0
	m.SetZoom(LevelForScale(m.fitScale()), 0, 0, false)
}

// Pans by the given delta in viewport pixels, clamped to the scroll bounds
func (m *Model) Pan(dx, dy float32) {
	m.scrollX += dx
	m.scrollY += dy
	m.clampScroll()
}

// Scroll bounds: source extent in scaled pixels minus the viewport, floored at 0
func (m *Model) ScrollBounds() (maxX, maxY float32) {
	maxX = float32(m.sourceW)*m.scale - float32(m.viewW)
	maxY = float32(m.sourceH)*m.scale - float32(m.viewH)
	if maxX < 0 {
		maxX = 0
	}
	if maxY < 0 {
		maxY = 0
	}
	return maxX, maxY
}

func (m *Model) clampScroll() {
	maxX, maxY := m.ScrollBounds()
	if m.scrollX > maxX {
		m.scrollX = maxX
	}
	if m.scrollY > maxY {
		m.scrollY = maxY
	}
	if m.scrollX < 0 {
		m.scrollX = 0
	}
	if m.scrollY < 0 {
		m.scrollY = 0
	}
}

// Maps a viewport pixel to source pixel coordinates. Exact inverse of
// SourceToView so cursor tracking and zoom anchoring stay pixel-accurate
func (m *Model) ViewToSource(vx, vy float32) (sx, sy float32) {
	return (vx + m.scrollX) / m.scale, (vy + m.scrollY) / m.scale
}

// Maps a source pixel to viewport pixel coordinates
func (m *Model) SourceToView(sx, sy float32) (vx, vy float32) {
	return sx*m.scale - m.scrollX, sy*m.scale - m.scrollY
}
