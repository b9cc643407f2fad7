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
	"io"
	"strings"
	"testing"

	"github.com/scarter4work/lupton-rgb-pixinsight/internal/fits"
)

func testContext() *Context {
	c := NewContext(io.Discard)
	return c
}

func testSource() *fits.Image {
	f := fits.NewImageFromNaxisn([]int32{32, 24, 3}, nil)
	for i := range f.Data {
		f.Data[i] = 0.02 + 0.1*float32(i%100)/100
	}
	return f
}

func TestOpSequenceJSONRoundTrip(t *testing.T) {
	seq := NewOpSequence(NewOpStretchDefault(), NewOpSave("out.fits"))
	data, err := json.Marshal(seq)
	if err != nil {
		t.Fatalf("marshal error %s", err.Error())
	}

	var decoded OpSequence
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal error %s", err.Error())
	}
	if len(decoded.Steps) != 2 {
		t.Fatalf("got %d steps expect 2", len(decoded.Steps))
	}
	if decoded.Steps[0].GetType() != "stretch" || decoded.Steps[1].GetType() != "save" {
		t.Errorf("got step types %s, %s expect stretch, save",
			decoded.Steps[0].GetType(), decoded.Steps[1].GetType())
	}
	op, ok := decoded.Steps[0].(*OpStretch)
	if !ok {
		t.Fatalf("step 0 did not decode to *OpStretch")
	}
	if op.Params.Alpha != 5 || op.Params.Q != 8 {
		t.Errorf("got alpha %f q %f expect defaults 5 and 8", op.Params.Alpha, op.Params.Q)
	}
}

func TestOpSequenceUnknownType(t *testing.T) {
	var decoded OpSequence
	err := json.Unmarshal([]byte(`{"type":"seq","active":true,"steps":[{"type":"warp"}]}`), &decoded)
	if err == nil || !strings.Contains(err.Error(), "warp") {
		t.Errorf("expect unknown operator error naming the type, got %v", err)
	}
}

func TestOpStretchDefaultsFromPartialJSON(t *testing.T) {
	var op OpStretch
	if err := json.Unmarshal([]byte(`{"type":"stretch","active":true}`), &op); err != nil {
		t.Fatalf("unmarshal error %s", err.Error())
	}
	if op.Params.Alpha != 5 || op.Params.Q != 8 || op.BlackMode != BlackModePercentile {
		t.Errorf("missing JSON fields should fall back to defaults, got %+v", op)
	}
}

func TestOpStretchApply(t *testing.T) {
	op := NewOpStretchDefault()
	res, err := op.Apply(testSource(), testContext())
	if err != nil {
		t.Fatalf("unexpected error %s", err.Error())
	}
	if res.ChannelCount() != 3 || res.Width() != 32 || res.Height() != 24 {
		t.Errorf("got %s output expect 32x24x3", res.DimensionsToString())
	}
}

func TestOpStretchAutoBlack(t *testing.T) {
	op := NewOpStretchDefault()
	op.AutoBlack = AutoBlackPerChannel
	if _, err := op.Apply(testSource(), testContext()); err != nil {
		t.Fatalf("unexpected error %s", err.Error())
	}
	// the caller-owned parameter set must stay untouched
	if !op.Params.Linked || op.Params.BlackR != 0 {
		t.Errorf("Apply must not mutate op.Params, got %+v", op.Params)
	}
}

func TestOpStretchInactivePassesThrough(t *testing.T) {
	op := NewOpStretchDefault()
	op.Active = false
	src := testSource()
	res, err := op.Apply(src, testContext())
	if err != nil || res != src {
		t.Errorf("inactive operator should pass its input through unchanged")
	}
}

func TestStretchNeededMB(t *testing.T) {
	small := fits.NewImageFromNaxisn([]int32{32, 24, 3}, nil)
	if mb := stretchNeededMB(small); mb != 0 {
		t.Errorf("got %d MiB for a tiny image, expect 0", mb)
	}
	// 20000x20000x3 source: 1.2e9+1.2e9 values would overflow int32
	big := &fits.Image{Naxisn: []int32{20000, 20000, 3}, Pixels: 20000 * 20000 * 3}
	mb := stretchNeededMB(big)
	if mb != 9155 {
		t.Errorf("got %d MiB expect 9155", mb)
	}
}

func TestOpLoadRejectsEscapingPaths(t *testing.T) {
	for _, path := range []string{"/etc/passwd", "../secret.fits"} {
		op := NewOpLoad(0, path)
		if _, err := op.Apply(nil, testContext()); err == nil {
			t.Errorf("expect path %s to be rejected", path)
		}
	}
}
