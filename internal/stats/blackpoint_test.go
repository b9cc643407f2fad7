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

package stats

import (
	"math"
	"testing"

	"github.com/valyala/fastrand"
)

// Synthetic frame: faint uniform background noise plus a few bright pixels
func noisyChannel(width, height int32, floor, amplitude float32) []float32 {
	rng := fastrand.RNG{}
	data := make([]float32, width*height)
	for i := range data {
		data[i] = floor + amplitude*float32(rng.Uint32n(1000))/1000.0
	}
	// sprinkle bright stars on 1% of the pixels
	for i := 0; i < len(data)/100; i++ {
		data[rng.Uint32n(uint32(len(data)))] = 0.9
	}
	return data
}

func TestEstimateBlackPoint(t *testing.T) {
	width, height := int32(200), int32(150)
	data := noisyChannel(width, height, 0.05, 0.01)
	accessor := func(x, y int32) float32 { return data[y*width+x] }

	bp := EstimateBlackPoint(accessor, width, height)
	if bp < 0.04 || bp > 0.06 {
		t.Errorf("black point %f outside the noise floor band [0.04,0.06]", bp)
	}
}

func TestEstimateBlackPointNeverNegative(t *testing.T) {
	width, height := int32(64), int32(64)
	accessor := func(x, y int32) float32 { return -0.1 }
	if bp := EstimateBlackPoint(accessor, width, height); bp != 0 {
		t.Errorf("negative input should floor at 0, got %f", bp)
	}
}

func TestEstimateBlackPointDegenerate(t *testing.T) {
	if bp := EstimateBlackPoint(nil, 100, 100); bp != 0 {
		t.Errorf("nil accessor should yield 0, got %f", bp)
	}
	accessor := func(x, y int32) float32 { return 0.5 }
	if bp := EstimateBlackPoint(accessor, 0, 100); bp != 0 {
		t.Errorf("zero width should yield 0, got %f", bp)
	}
	panicky := func(x, y int32) float32 { panic("out of range") }
	if bp := EstimateBlackPoint(panicky, 100, 100); bp != 0 {
		t.Errorf("panicking accessor should yield 0, got %f", bp)
	}
}

func TestEstimateBlackPointSmallImage(t *testing.T) {
	// 3x3 image has fewer samples than the minimum pool size of 10
	accessor := func(x, y int32) float32 { return 0.2 }
	bp := EstimateBlackPoint(accessor, 3, 3)
	if absDiff32(bp, 0.2*0.9) > 1e-6 {
		t.Errorf("constant image should estimate 90%% of the constant, got %f", bp)
	}
}

func TestEstimateBlackPointHistogram(t *testing.T) {
	data := noisyChannel(200, 150, 0.05, 0.01)
	bp := EstimateBlackPointHistogram(data)
	if bp < 0 || bp > 0.06 {
		t.Errorf("histogram black point %f outside [0,0.06]", bp)
	}

	if bp := EstimateBlackPointHistogram([]float32{0.3, 0.3, 0.3}); bp != 0 {
		t.Errorf("constant input should yield 0, got %f", bp)
	}
}

func TestEstimateBlackPointHistogramNaN(t *testing.T) {
	// NaN samples are legal in float FITS data and must not panic the estimator
	data := noisyChannel(200, 150, 0.05, 0.01)
	data[5] = float32(math.NaN())
	data[777] = float32(math.NaN())
	bp := EstimateBlackPointHistogram(data)
	if bp < 0 || bp > 0.06 {
		t.Errorf("histogram black point %f outside [0,0.06] with NaN samples", bp)
	}
}
