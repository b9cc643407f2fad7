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
	"bytes"
	"io"
	"testing"
)

func TestPlanarAccessors(t *testing.T) {
	f := NewImageFromNaxisn([]int32{4, 3, 3}, nil)
	if f.Width() != 4 || f.Height() != 3 || f.ChannelCount() != 3 {
		t.Fatalf("got %dx%dx%d expect 4x3x3", f.Width(), f.Height(), f.ChannelCount())
	}
	if len(f.Data) != 4*3*3 {
		t.Fatalf("got %d data values expect 36", len(f.Data))
	}
	// plane-major layout: channel c pixel (x,y) lives at c*w*h + y*w + x
	f.Data[2*12+1*4+3] = 0.75
	if v := f.SampleAt(3, 1, 2); v != 0.75 {
		t.Errorf("SampleAt got %f expect 0.75", v)
	}
	ch := f.ChannelData(2)
	if len(ch) != 12 || ch[7] != 0.75 {
		t.Errorf("ChannelData got len %d value %f expect 12 and 0.75", len(ch), ch[7])
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	f := NewImageFromNaxisn([]int32{8, 6, 3}, nil)
	for i := range f.Data {
		f.Data[i] = float32(i) / float32(len(f.Data))
	}
	f.Exposure = 120

	buf := bytes.Buffer{}
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write error %s", err.Error())
	}
	if buf.Len()%2880 != 0 {
		t.Errorf("output size %d not a multiple of the block size 2880", buf.Len())
	}

	g := NewImage()
	if err := g.Read(&buf, io.Discard); err != nil {
		t.Fatalf("read error %s", err.Error())
	}
	if g.Width() != 8 || g.Height() != 6 || g.ChannelCount() != 3 {
		t.Fatalf("round trip dimensions got %dx%dx%d expect 8x6x3", g.Width(), g.Height(), g.ChannelCount())
	}
	if g.Exposure != 120 {
		t.Errorf("round trip exposure got %f expect 120", g.Exposure)
	}
	for i := range f.Data {
		if g.Data[i] != f.Data[i] {
			t.Fatalf("round trip value %d got %f expect %f", i, g.Data[i], f.Data[i])
		}
	}
	if g.Stats == nil {
		t.Errorf("read should compute statistics")
	}
}

func TestReadRejectsGarbage(t *testing.T) {
	g := NewImage()
	if err := g.Read(bytes.NewReader(make([]byte, 2880)), io.Discard); err == nil {
		t.Errorf("expect error for a non-FITS block")
	}
}

func TestRGBA(t *testing.T) {
	f := NewImageFromNaxisn([]int32{2, 2, 3}, nil)
	plane := int32(4)
	f.Data[0], f.Data[plane], f.Data[2*plane] = 1, 0.5, 0
	img := f.RGBA()
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 2 {
		t.Fatalf("got %v expect 2x2", img.Bounds())
	}
	c := img.RGBAAt(0, 0)
	if c.R != 255 || c.G != 128 || c.B != 0 || c.A != 255 {
		t.Errorf("got %v expect (255,128,0,255)", c)
	}
}
