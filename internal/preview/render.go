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
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/scarter4work/lupton-rgb-pixinsight/internal/fits"
	"github.com/scarter4work/lupton-rgb-pixinsight/internal/stretch"
	"github.com/scarter4work/lupton-rgb-pixinsight/internal/viewport"
)

// Preview comparison mode
type Mode int

const (
	ModeAfter  Mode = iota // stretched rendering only
	ModeBefore             // unstretched rendering only
	ModeSplit              // before left of the split column, after right of it
)

func (m Mode) String() string {
	switch m {
	case ModeAfter:
		return "after"
	case ModeBefore:
		return "before"
	case ModeSplit:
		return "split"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "after", "":
		return ModeAfter, nil
	case "before":
		return ModeBefore, nil
	case "split":
		return ModeSplit, nil
	}
	return ModeAfter, fmt.Errorf("unknown preview mode '%s'", s)
}

func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Mode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// A preview rendering request
type Request struct {
	Mode          Mode    `json:"mode"`
	SplitPosition float32 `json:"splitPosition"` // split column in percent of output width, only meaningful in split mode
}

// Constant multiplier for the unstretched "before" visualization, so the
// reference side of a comparison looks the same for any engine parameters
const beforeGain = 8

// Renders viewport-sized rasters of a source image, before and/or after the
// stretch. Holds at most the most recently produced raster; every call
// regenerates unconditionally so the preview can never go stale
type Renderer struct {
	SRGB bool // encode output with the sRGB transfer curve instead of raw linear quantization

	last *image.RGBA
}

func NewRenderer() *Renderer { return &Renderer{} }

// The most recently produced raster, or nil before the first Render call
func (rd *Renderer) Last() *image.RGBA { return rd.last }

// Renders the visible region of the source into a fresh raster. The output
// covers the source extent scaled into the viewport, so it is at most
// viewport-sized. Source pixels are picked with nearest-neighbor sampling
// through the viewport mapping. The source must have at least three channels
func (rd *Renderer) Render(src *fits.Image, vp *viewport.Model, req *Request, params *stretch.Parameters) (*image.RGBA, error) {
	if src == nil || src.ChannelCount() < 3 {
		return nil, fmt.Errorf("preview requires a source with at least 3 channels")
	}
	srcW, srcH := src.Width(), src.Height()
	viewW, viewH := vp.ViewportSize()
	scale := vp.Scale()

	// clip the output to the scaled source extent
	outW, outH := int(viewW), int(viewH)
	panX, panY := vp.PanOffset()
	if w := int((float32(srcW) - panX) * scale); w < outW {
		outW = w
	}
	if h := int((float32(srcH) - panY) * scale); h < outH {
		outH = h
	}
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}

	splitCol := outW + 1
	if req.Mode == ModeSplit {
		splitCol = int(float32(outW) * req.SplitPosition / 100)
	}

	img := image.NewRGBA(image.Rect(0, 0, outW, outH))
	for vy := 0; vy < outH; vy++ {
		_, sy := vp.ViewToSource(0, float32(vy)+0.5)
		y := clampInt32(int32(sy), srcH-1)
		for vx := 0; vx < outW; vx++ {
			sx, _ := vp.ViewToSource(float32(vx)+0.5, 0)
			x := clampInt32(int32(sx), srcW-1)

			r := src.SampleAt(x, y, 0)
			g := src.SampleAt(x, y, 1)
			b := src.SampleAt(x, y, 2)

			if req.Mode == ModeBefore || (req.Mode == ModeSplit && vx < splitCol) {
				r, g, b = r*beforeGain, g*beforeGain, b*beforeGain
			} else {
				r, g, b = stretch.Transform(r, g, b, params)
			}
			img.SetRGBA(vx, vy, rd.pack(r, g, b))
		}
	}
	rd.last = img
	return img, nil
}

func (rd *Renderer) pack(r, g, b float32) color.RGBA {
	if rd.SRGB {
		cr, cg, cb := colorful.LinearRgb(float64(r), float64(g), float64(b)).Clamped().RGB255()
		return color.RGBA{cr, cg, cb, 255}
	}
	return color.RGBA{quantize(r), quantize(g), quantize(b), 255}
}

func quantize(v float32) uint8 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return uint8(v*255 + 0.5)
}

func clampInt32(v, max int32) int32 {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
