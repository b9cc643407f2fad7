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
	"fmt"
	"math"

	"github.com/scarter4work/lupton-rgb-pixinsight/internal/qsort"
	"github.com/valyala/fastrand"
)

// Number of subsamples for the randomized location and scale estimators
const numSamples = 128 * 1024

// Basic statistics on a data array: min, mean, max and standard deviation,
// plus robust location and scale estimates (sampled median and sampled MAD)
type Stats struct {
	Min    float32
	Max    float32
	Mean   float32
	StdDev float32

	Location float32 // Robust location: median, subsampled for large arrays
	Scale    float32 // Robust scale: normalized MAD, subsampled for large arrays
}

// Pretty print statistics to string
func (s *Stats) String() string {
	return fmt.Sprintf("Min %.6g Max %.6g Mean %.6g StdDev %.6g Location %.6g Scale %.6g",
		s.Min, s.Max, s.Mean, s.StdDev, s.Location, s.Scale)
}

// Calculate statistics for the given data array. Does not change the data.
// Returns nil for empty input.
func NewStats(data []float32) *Stats {
	if len(data) == 0 {
		return nil
	}
	s := &Stats{}
	s.Min, s.Mean, s.Max = minMeanMax(data)

	variance := float64(0)
	for _, v := range data {
		diff := float64(v - s.Mean)
		variance += diff * diff
	}
	s.StdDev = float32(math.Sqrt(variance / float64(len(data))))

	if len(data) > numSamples {
		samples := make([]float32, numSamples)
		s.Location = FastApproxMedian(data, samples)
		s.Scale = FastApproxMAD(data, s.Location, samples)
	} else {
		tmp := make([]float32, len(data))
		copy(tmp, data)
		s.Location = qsort.QSelectMedianFloat32(tmp)
		for i, d := range data {
			tmp[i] = float32(math.Abs(float64(d - s.Location)))
		}
		s.Scale = qsort.QSelectMedianFloat32(tmp) * 1.4826
	}
	return s
}

func minMeanMax(data []float32) (min, mean, max float32) {
	min, max = data[0], data[0]
	sum := float64(0)
	for _, v := range data {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += float64(v)
	}
	return min, float32(sum / float64(len(data))), max
}

// Calculates fast approximate median of the (presumably large) data by randomly
// subsampling len(samples) values and taking the median of that.
// Uses the provided samples array as scratchpad
func FastApproxMedian(data []float32, samples []float32) float32 {
	max := uint32(len(data))
	rng := fastrand.RNG{}
	for i := range samples {
		samples[i] = data[rng.Uint32n(max)]
	}
	return qsort.QSelectMedianFloat32(samples)
}

// Calculates fast approximate median absolute difference from the given location
// by random subsampling, normalized to the standard deviation of a normal distribution.
// Uses the provided samples array as scratchpad
func FastApproxMAD(data []float32, location float32, samples []float32) float32 {
	max := uint32(len(data))
	rng := fastrand.RNG{}
	for i := range samples {
		samples[i] = float32(math.Abs(float64(data[rng.Uint32n(max)] - location)))
	}
	return qsort.QSelectMedianFloat32(samples) * 1.4826 // normalize to Gaussian std dev
}
