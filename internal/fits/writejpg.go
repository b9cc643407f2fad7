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
	"bufio"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"math"
	"os"

	"github.com/nfnt/resize"
)

// Converts a three-channel float32 image into an 8-bit RGBA raster.
// Channel values are clamped to [0,1] and scaled to 0..255 with rounding.
// NaNs map to zero
func (f *Image) RGBA() *image.RGBA {
	width, height := int(f.Naxisn[0]), int(f.Naxisn[1])
	size := width * height
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		yoffset := y * width
		for x := 0; x < width; x++ {
			r := f.Data[yoffset+x]
			g := f.Data[yoffset+x+size]
			b := f.Data[yoffset+x+size*2]
			img.SetRGBA(x, y, color.RGBA{quantize(r), quantize(g), quantize(b), 255})
		}
	}
	return img
}

func quantize(v float32) uint8 {
	if math.IsNaN(float64(v)) || v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return uint8(v*255 + 0.5)
}

// Write a three-channel FITS image to 8-bit JPEG
func (f *Image) WriteJPGToFile(fileName string, quality int) error {
	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	defer writer.Flush()
	return f.WriteJPG(writer, quality)
}

// Write a three-channel FITS image to 8-bit JPEG
func (f *Image) WriteJPG(writer io.Writer, quality int) error {
	return jpeg.Encode(writer, f.RGBA(), &jpeg.Options{Quality: quality})
}

// Write a downsampled JPEG thumbnail whose longest edge is maxDim pixels.
// Images already smaller than maxDim are written unscaled
func (f *Image) WriteThumbJPGToFile(fileName string, maxDim uint, quality int) error {
	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	defer writer.Flush()

	thumb := resize.Thumbnail(maxDim, maxDim, f.RGBA(), resize.Bilinear)
	return jpeg.Encode(writer, thumb, &jpeg.Options{Quality: quality})
}
