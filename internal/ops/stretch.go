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

package ops

import (
	"encoding/json"
	"fmt"

	"github.com/scarter4work/lupton-rgb-pixinsight/internal/fits"
	"github.com/scarter4work/lupton-rgb-pixinsight/internal/stats"
	"github.com/scarter4work/lupton-rgb-pixinsight/internal/stretch"
)

// Black point auto-estimation modes
const (
	AutoBlackOff        = "off"
	AutoBlackLinked     = "linked"     // one estimate for all channels
	AutoBlackPerChannel = "perChannel" // independent estimate per channel
)

// Black point estimator selection
const (
	BlackModePercentile = "percentile" // grid-sampled low percentile pool
	BlackModeHistogram  = "histogram"  // normal fit to the background histogram peak
)

// Applies the color-preserving arcsinh stretch to a three-channel image,
// producing a new output image. Optionally estimates black points from the
// source first. Takes one input, produces one output
type OpStretch struct {
	OpBase
	Params    stretch.Parameters `json:"params"`
	AutoBlack string             `json:"autoBlack"` // off, linked or perChannel
	BlackMode string             `json:"blackMode"` // percentile or histogram
}

func init() {
	SetOperatorFactory(func() Operator { return NewOpStretchDefault() })
} // register the operator for JSON decoding

func NewOpStretchDefault() *OpStretch { return NewOpStretch(*stretch.NewParameters()) }

func NewOpStretch(params stretch.Parameters) *OpStretch {
	return &OpStretch{
		OpBase:    OpBase{Type: "stretch", Active: true},
		Params:    params,
		AutoBlack: AutoBlackOff,
		BlackMode: BlackModePercentile,
	}
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpStretch) UnmarshalJSON(data []byte) error {
	type defaults OpStretch
	def := defaults(*NewOpStretchDefault())
	if err := json.Unmarshal(data, &def); err != nil {
		return err
	}
	*op = OpStretch(def)
	return nil
}

func (op *OpStretch) Apply(f *fits.Image, c *Context) (result *fits.Image, err error) {
	if !op.Active {
		return f, nil
	}

	// work on a copy so the caller-owned parameter set stays untouched
	params := op.Params
	if op.AutoBlack != "" && op.AutoBlack != AutoBlackOff {
		if err = op.estimateBlackPoints(f, &params, c); err != nil {
			return nil, err
		}
	}

	// src + dst pixel data, both float32
	neededMB := stretchNeededMB(f)
	if neededMB > c.MemoryMB {
		fmt.Fprintf(c.Log, "%d: Warning: stretch needs ~%d MiB with only %d MiB of physical memory\n",
			f.ID, neededMB, c.MemoryMB)
	}

	return stretch.Execute(f, &params, c.Log)
}

// Estimated working set of a stretch in MiB: source pixels plus the
// three-channel output, four bytes each. Widened before multiplying so
// gigapixel sources do not overflow
func stretchNeededMB(f *fits.Image) int {
	values := int64(f.Pixels) + int64(f.Width())*int64(f.Height())*3
	return int(values * 4 / (1024 * 1024))
}

func (op *OpStretch) estimateBlackPoints(f *fits.Image, params *stretch.Parameters, c *Context) error {
	if f == nil || f.ChannelCount() < 3 {
		return fmt.Errorf("black point estimation requires a source with at least 3 channels")
	}
	width, height := f.Width(), f.Height()
	var per [3]float32
	for ch := int32(0); ch < 3; ch++ {
		switch op.BlackMode {
		case BlackModeHistogram:
			per[ch] = stats.EstimateBlackPointHistogram(f.ChannelData(ch))
		default:
			channel := ch
			per[ch] = stats.EstimateBlackPoint(func(x, y int32) float32 {
				return f.SampleAt(x, y, channel)
			}, width, height)
		}
	}

	if op.AutoBlack == AutoBlackLinked {
		params.Linked = true
		params.BlackPoint = (per[0] + per[1] + per[2]) / 3
		fmt.Fprintf(c.Log, "%d: Auto black point (%s) linked=%.6g from channels (%.6g, %.6g, %.6g)\n",
			f.ID, op.BlackMode, params.BlackPoint, per[0], per[1], per[2])
	} else {
		params.Linked = false
		params.BlackR, params.BlackG, params.BlackB = per[0], per[1], per[2]
		fmt.Fprintf(c.Log, "%d: Auto black point (%s) per channel (%.6g, %.6g, %.6g)\n",
			f.ID, op.BlackMode, per[0], per[1], per[2])
	}
	return nil
}
