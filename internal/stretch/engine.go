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

package stretch

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Clipping policy for stretched pixel values exceeding 1
type ClipMode int

const (
	// Divide all channels of an overflowing pixel by its maximum channel,
	// keeping channel ratios intact
	ClipPreserveColor ClipMode = iota
	// Clamp each channel independently to [0,1]. May shift hue in highlights
	ClipHard
	// No per-pixel action; the whole image is divided by its global maximum
	// in a second pass. See Execute
	ClipRescale
)

func (m ClipMode) String() string {
	switch m {
	case ClipPreserveColor:
		return "preserveColor"
	case ClipHard:
		return "hardClip"
	case ClipRescale:
		return "rescale"
	}
	return fmt.Sprintf("clipMode(%d)", int(m))
}

func ParseClipMode(s string) (ClipMode, error) {
	switch strings.ToLower(s) {
	case "preservecolor", "preserve":
		return ClipPreserveColor, nil
	case "hardclip", "hard":
		return ClipHard, nil
	case "rescale":
		return ClipRescale, nil
	}
	return ClipPreserveColor, fmt.Errorf("unknown clipping mode '%s'", s)
}

func (m ClipMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *ClipMode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseClipMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Parameters of the arcsinh stretch. A single instance is owned and mutated
// by the caller; the transform itself never modifies it
type Parameters struct {
	Alpha      float32  `json:"alpha"`      // Linear amplification factor, >0
	Q          float32  `json:"q"`          // Softening; magnitude is clamped to >=0.01 to keep the division finite
	Linked     bool     `json:"linked"`     // One black point for all channels, or per-channel values
	BlackPoint float32  `json:"blackPoint"` // Linked black point
	BlackR     float32  `json:"blackR"`     // Per-channel black points, used when Linked is false
	BlackG     float32  `json:"blackG"`
	BlackB     float32  `json:"blackB"`
	Saturation float32  `json:"saturation"` // Multiplier around mean luminance, 1.0=no op
	Clip       ClipMode `json:"clip"`
}

// Defaults chosen to give a visible but moderate stretch on linear data
func NewParameters() *Parameters {
	return &Parameters{
		Alpha:      5,
		Q:          8,
		Linked:     true,
		Saturation: 1,
		Clip:       ClipPreserveColor,
	}
}

func (p *Parameters) String() string {
	if p.Linked {
		return fmt.Sprintf("alpha=%.4g q=%.4g black=%.6g sat=%.4g clip=%s",
			p.Alpha, p.Q, p.BlackPoint, p.Saturation, p.Clip)
	}
	return fmt.Sprintf("alpha=%.4g q=%.4g black=(%.6g,%.6g,%.6g) sat=%.4g clip=%s",
		p.Alpha, p.Q, p.BlackR, p.BlackG, p.BlackB, p.Saturation, p.Clip)
}

// Resolved per-channel black points
func (p *Parameters) Minimums() (minR, minG, minB float32) {
	if p.Linked {
		return p.BlackPoint, p.BlackPoint, p.BlackPoint
	}
	return p.BlackR, p.BlackG, p.BlackB
}

const (
	qFloor         = 0.01  // smallest usable softening magnitude
	intensityGuard = 1e-10 // intensities this close to the black point stretch to zero
)

// Transforms one pixel with the arcsinh stretch
//	F(I) = asinh(alpha*q*(I-minimum)) / q
// where I is the mean of the three channels and minimum the mean of the
// per-channel black points. All channels are scaled by F(I)/(I-minimum) after
// subtracting their own black point, so channel ratios survive the stretch.
// Pure and deterministic; failure cases yield black, never an error
func Transform(r, g, b float32, p *Parameters) (outR, outG, outB float32) {
	minR, minG, minB := p.Minimums()
	minimum := (minR + minG + minB) / 3

	q := p.Q
	if q < qFloor && q > -qFloor {
		if q < 0 {
			q = -qFloor
		} else {
			q = qFloor
		}
	}

	i := (r + g + b) / 3
	scale := float32(0)
	if i > minimum+intensityGuard {
		f := float32(math.Asinh(float64(p.Alpha*q*(i-minimum)))) / q
		scale = f / (i - minimum)
	}

	outR = (r - minR) * scale
	outG = (g - minG) * scale
	outB = (b - minB) * scale

	if p.Saturation != 1 {
		lum := (outR + outG + outB) / 3
		outR = lum + (outR-lum)*p.Saturation
		outG = lum + (outG-lum)*p.Saturation
		outB = lum + (outB-lum)*p.Saturation
	}

	switch p.Clip {
	case ClipPreserveColor:
		m := outR
		if outG > m {
			m = outG
		}
		if outB > m {
			m = outB
		}
		if m > 1 {
			outR, outG, outB = outR/m, outG/m, outB/m
		}
	case ClipHard:
		if outR > 1 {
			outR = 1
		}
		if outG > 1 {
			outG = 1
		}
		if outB > 1 {
			outB = 1
		}
	case ClipRescale:
		// handled at image level, see Execute
	}

	// black point subtraction can drive channels negative in any mode
	if outR < 0 {
		outR = 0
	}
	if outG < 0 {
		outG = 0
	}
	if outB < 0 {
		outB = 0
	}
	return outR, outG, outB
}
