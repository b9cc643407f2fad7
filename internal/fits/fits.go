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

package fits

import (
	"fmt"
	"strings"

	"github.com/scarter4work/lupton-rgb-pixinsight/internal/stats"
)

// A FITS image with planar float32 data.
// Spec here:   https://fits.gsfc.nasa.gov/standard40/fits_standard40aa-le.pdf
// Primer here: https://fits.gsfc.nasa.gov/fits_primer.html
type Image struct {
	ID       int    // Sequential ID number, for log output
	FileName string // Original file name, if any, for log output

	Header Header  // Remaining header keys and values after parsing
	Bitpix int32   // Bits per pixel value from the header. Positive values are integral, negative floating
	Bzero  float32 // Zero offset. True pixel value is Bzero + Bscale * Data[i]
	Bscale float32 // Value scaler. True pixel value is Bzero + Bscale * Data[i]

	Naxisn []int32 // Axis dimensions. Most quickly varying dimension first (i.e. X,Y,channels)
	Pixels int32   // Number of pixels in the image. Product of Naxisn[]

	Data []float32 // The image data, channel-planar

	Exposure float32 // Image exposure in seconds

	Stats *stats.Stats // Basic image statistics: min, mean, max
}

// Creates an empty FITS image
func NewImage() *Image {
	return &Image{
		Header: NewHeader(),
		Bscale: 1,
	}
}

// Creates a FITS image from given naxisn. Data is not copied, allocated if nil. naxisn is deep copied
func NewImageFromNaxisn(naxisn []int32, data []float32) *Image {
	numPixels := int32(1)
	for _, naxis := range naxisn {
		numPixels *= naxis
	}
	if data == nil {
		data = make([]float32, numPixels)
	}
	return &Image{
		Header: NewHeader(),
		Bitpix: -32,
		Bzero:  0,
		Bscale: 1,
		Naxisn: append([]int32(nil), naxisn...),
		Pixels: numPixels,
		Data:   data,
		Stats:  stats.NewStats(data),
	}
}

// Creates a FITS image with the dimensions of the given image. A new data array is allocated
func NewImageFromImage(img *Image) *Image {
	data := make([]float32, img.Pixels)
	return &Image{
		ID:       img.ID,
		FileName: img.FileName,
		Header:   img.Header,
		Bitpix:   -32,
		Bzero:    0,
		Bscale:   1,
		Naxisn:   append([]int32(nil), img.Naxisn...),
		Pixels:   img.Pixels,
		Data:     data,
		Exposure: img.Exposure,
	}
}

// FITS header data
type Header struct {
	Bools   map[string]bool
	Ints    map[string]int32
	Floats  map[string]float32
	Strings map[string]string
	End     bool
}

// Creates a FITS header initialized with empty maps
func NewHeader() Header {
	return Header{
		Bools:   make(map[string]bool),
		Ints:    make(map[string]int32),
		Floats:  make(map[string]float32),
		Strings: make(map[string]string),
	}
}

const fitsBlockSize int = 2880 // Block size of FITS header and data units
const fitsLineSize int = 80    // Line size of a FITS header card

// Width of the image in pixels
func (f *Image) Width() int32 {
	if len(f.Naxisn) < 1 {
		return 0
	}
	return f.Naxisn[0]
}

// Height of the image in pixels
func (f *Image) Height() int32 {
	if len(f.Naxisn) < 2 {
		return 0
	}
	return f.Naxisn[1]
}

// Number of channels in the image. A 2D image has one channel
func (f *Image) ChannelCount() int32 {
	if len(f.Naxisn) < 2 {
		return 0
	}
	if len(f.Naxisn) == 2 {
		return 1
	}
	count := int32(1)
	for _, naxis := range f.Naxisn[2:] {
		count *= naxis
	}
	return count
}

// Returns the sample at (x,y) in the given channel. Data is channel-planar
func (f *Image) SampleAt(x, y, channel int32) float32 {
	plane := f.Naxisn[0] * f.Naxisn[1]
	return f.Data[channel*plane+y*f.Naxisn[0]+x]
}

// Returns the data slice of the given channel
func (f *Image) ChannelData(channel int32) []float32 {
	plane := f.Naxisn[0] * f.Naxisn[1]
	return f.Data[channel*plane : (channel+1)*plane]
}

func (f *Image) DimensionsToString() string {
	b := strings.Builder{}
	for i, naxis := range f.Naxisn {
		if i > 0 {
			fmt.Fprintf(&b, "x%d", naxis)
		} else {
			fmt.Fprintf(&b, "%d", naxis)
		}
	}
	return b.String()
}
