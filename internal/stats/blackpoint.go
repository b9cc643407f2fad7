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

	"github.com/scarter4work/lupton-rgb-pixinsight/internal/qsort"
)

// A read-only sample accessor for one channel of a source image
type ChannelAccessor func(x, y int32) float32

// Estimates the low-light floor of a channel by sampling it on a regular grid,
// pooling the lowest 5% of samples (at least 10), and taking 90% of the pool
// median as a safety margin below the noise floor. Returns 0 for empty or
// degenerate inputs; panics raised by the accessor are swallowed and yield 0.
func EstimateBlackPoint(sample ChannelAccessor, width, height int32) (blackPoint float32) {
	defer func() {
		if r := recover(); r != nil {
			blackPoint = 0
		}
	}()
	if sample == nil || width <= 0 || height <= 0 {
		return 0
	}

	// stride bounds the number of samples to roughly 10000 on large images
	step := int32(math.Sqrt(float64(width) * float64(height) / 10000.0))
	if step < 1 {
		step = 1
	}
	samples := make([]float32, 0, ((width+step-1)/step)*((height+step-1)/step))
	for y := int32(0); y < height; y += step {
		for x := int32(0); x < width; x += step {
			samples = append(samples, sample(x, y))
		}
	}
	if len(samples) == 0 {
		return 0
	}

	qsort.QSortFloat32(samples)
	poolSize := len(samples) / 20
	if poolSize < 10 {
		poolSize = 10
	}
	if poolSize > len(samples) {
		poolSize = len(samples)
	}
	median := samples[poolSize/2]

	blackPoint = median * 0.9
	if blackPoint < 0 {
		blackPoint = 0
	}
	return blackPoint
}

// Estimates the low-light floor of a channel by fitting a normal distribution
// to the channel histogram and taking mode - 2 sigma, clamped to zero.
// Alternative to EstimateBlackPoint for images with a pronounced background
// peak. Fails soft: degenerate input or a diverging fit yields 0
func EstimateBlackPointHistogram(data []float32) (blackPoint float32) {
	defer func() {
		if r := recover(); r != nil {
			blackPoint = 0
		}
	}()
	// float FITS data may contain NaNs; drop them before any order statistics
	clean := data
	for i, d := range data {
		if math.IsNaN(float64(d)) {
			clean = append(make([]float32, 0, len(data)), data[:i]...)
			for _, v := range data[i:] {
				if !math.IsNaN(float64(v)) {
					clean = append(clean, v)
				}
			}
			break
		}
	}
	s := NewStats(clean)
	if s == nil || s.Max-s.Min < 1e-8 {
		return 0
	}
	bins := make([]int32, 4096)
	Histogram(clean, s.Min, s.Max, bins)
	mode, sigma, err := HistogramModeStdDev(bins, s.Min, s.Max)
	if err != nil {
		return 0
	}
	blackPoint = mode - 2*sigma
	if blackPoint < 0 {
		blackPoint = 0
	}
	return blackPoint
}
