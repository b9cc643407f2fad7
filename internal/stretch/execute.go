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
	"fmt"
	"io"

	"github.com/scarter4work/lupton-rgb-pixinsight/internal/fits"
	"github.com/scarter4work/lupton-rgb-pixinsight/internal/stats"
)

// Applies the stretch to every pixel of the source image and returns a new
// three-channel output image of identical width and height. The source must
// expose at least three channels; additional channels are ignored.
// Rescale mode makes a second full pass dividing by the global maximum tracked
// during the first. On failure no partial output is returned
func Execute(src *fits.Image, p *Parameters, logWriter io.Writer) (res *fits.Image, err error) {
	if src == nil || src.ChannelCount() < 3 {
		channels := int32(0)
		if src != nil {
			channels = src.ChannelCount()
		}
		return nil, fmt.Errorf("stretch requires a source with at least 3 channels, have %d", channels)
	}
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("%d: stretch aborted: %v", src.ID, r)
		}
	}()

	width, height := src.Naxisn[0], src.Naxisn[1]
	res = fits.NewImageFromNaxisn([]int32{width, height, 3}, nil)
	res.ID, res.FileName, res.Exposure = src.ID, src.FileName, src.Exposure

	srcR, srcG, srcB := src.ChannelData(0), src.ChannelData(1), src.ChannelData(2)
	outR, outG, outB := res.ChannelData(0), res.ChannelData(1), res.ChannelData(2)

	// pass 1: per-pixel transform, tracking the global channel maximum
	globalMax := float32(0)
	for j := range srcR {
		r, g, b := Transform(srcR[j], srcG[j], srcB[j], p)
		if r > globalMax {
			globalMax = r
		}
		if g > globalMax {
			globalMax = g
		}
		if b > globalMax {
			globalMax = b
		}
		outR[j], outG[j], outB[j] = r, g, b
	}

	// pass 2: rescale mode normalizes the whole image by the global maximum
	if p.Clip == ClipRescale && globalMax > 1 {
		factor := 1 / globalMax
		for j, d := range res.Data {
			res.Data[j] = d * factor
		}
	}

	res.Stats = stats.NewStats(res.Data)
	fmt.Fprintf(logWriter, "%d: Stretched %s image with %s, max %.4g, result %v\n",
		src.ID, src.DimensionsToString(), p, globalMax, res.Stats)
	return res, nil
}
