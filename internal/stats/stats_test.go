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
)

func absDiff32(a, b float32) float32 {
	d := a - b
	if d < 0 {
		return -d
	}
	return d
}

func TestNewStats(t *testing.T) {
	s := NewStats([]float32{1, 2, 3, 4, 5})
	if s == nil {
		t.Fatal("nil stats for non-empty input")
	}
	if s.Min != 1 || s.Max != 5 || s.Mean != 3 {
		t.Errorf("got min %f mean %f max %f expect 1 3 5", s.Min, s.Mean, s.Max)
	}
	if s.Location != 3 {
		t.Errorf("got median %f expect 3", s.Location)
	}
	if absDiff32(s.StdDev, 1.41421356) > 1e-6 {
		t.Errorf("got stddev %f expect sqrt(2)", s.StdDev)
	}
	if absDiff32(s.Scale, 1.4826) > 1e-4 {
		t.Errorf("got scale %f expect 1.4826", s.Scale)
	}
}

func TestNewStatsEmpty(t *testing.T) {
	if s := NewStats(nil); s != nil {
		t.Errorf("expect nil stats for empty input, got %v", s)
	}
}

func TestFastApproxMedian(t *testing.T) {
	data := make([]float32, 512*1024)
	for i := range data {
		data[i] = float32(i) / float32(len(data))
	}
	samples := make([]float32, 16*1024)
	med := FastApproxMedian(data, samples)
	if absDiff32(med, 0.5) > 0.02 {
		t.Errorf("approximate median %f too far from 0.5", med)
	}
}

func TestHistogram(t *testing.T) {
	data := []float32{0, 0.25, 0.5, 0.75, 1}
	bins := make([]int32, 4)
	Histogram(data, 0, 1, bins)
	total := int32(0)
	for _, b := range bins {
		total += b
	}
	if total != int32(len(data)) {
		t.Errorf("histogram counts %d values, expect %d", total, len(data))
	}
	if bins[0] != 2 {
		t.Errorf("first bin got %d expect 2", bins[0])
	}
}

func TestHistogramSkipsNaN(t *testing.T) {
	data := []float32{0, float32(math.NaN()), 0.5, 1}
	bins := make([]int32, 4)
	Histogram(data, 0, 1, bins)
	total := int32(0)
	for _, b := range bins {
		total += b
	}
	if total != 3 {
		t.Errorf("histogram counts %d values, expect 3 with the NaN skipped", total)
	}
}
