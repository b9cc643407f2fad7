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
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/scarter4work/lupton-rgb-pixinsight/internal/stats"
)

func NewImageFromFile(fileName string, id int, logWriter io.Writer) (i *Image, err error) {
	i = NewImage()
	i.ID = id
	return i, i.ReadFile(fileName, logWriter)
}

// Read FITS data from the file with the given name. Decompresses gzip if .gz or .gzip suffix is present
func (f *Image) ReadFile(fileName string, logWriter io.Writer) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	f.FileName = fileName
	var r io.Reader = file
	lExt := strings.ToLower(path.Ext(fileName))
	if lExt == ".gz" || lExt == ".gzip" {
		r, err = gzip.NewReader(file)
		if err != nil {
			return err
		}
	}
	return f.Read(r, logWriter)
}

func (f *Image) Read(r io.Reader, logWriter io.Writer) (err error) {
	if err = f.readHeader(r); err != nil {
		return err
	}

	// check mandatory fields as per standard
	if !f.Header.Bools["SIMPLE"] {
		return fmt.Errorf("%d: Not a valid FITS file; SIMPLE=T missing in header", f.ID)
	}
	delete(f.Header.Bools, "SIMPLE")

	if f.Bitpix, err = f.PopHeaderInt32("BITPIX"); err != nil {
		return err
	}
	var naxis int32
	if naxis, err = f.PopHeaderInt32("NAXIS"); err != nil {
		return err
	}
	f.Naxisn = make([]int32, naxis)
	f.Pixels = int32(1)
	for i := int32(1); i <= naxis; i++ {
		var nai int32
		if nai, err = f.PopHeaderInt32("NAXIS" + strconv.FormatInt(int64(i), 10)); err != nil {
			return err
		}
		f.Naxisn[i-1] = nai
		f.Pixels *= nai
	}

	// optional scaling keywords
	if f.Bzero, err = f.PopHeaderInt32OrFloat("BZERO"); err != nil {
		f.Bzero = 0
	}
	if f.Bscale, err = f.PopHeaderInt32OrFloat("BSCALE"); err != nil {
		f.Bscale = 1
	}
	if f.Exposure, err = f.PopHeaderInt32OrFloat("EXPOSURE"); err != nil {
		if f.Exposure, err = f.PopHeaderInt32OrFloat("EXPTIME"); err != nil {
			f.Exposure = 0
		}
	}

	return f.readData(r, logWriter)
}

func (f *Image) PopHeaderInt32(key string) (res int32, err error) {
	if val, ok := f.Header.Ints[key]; ok {
		delete(f.Header.Ints, key)
		return val, nil
	}
	return 0, fmt.Errorf("%d: FITS header does not contain key %s", f.ID, key)
}

func (f *Image) PopHeaderInt32OrFloat(key string) (res float32, err error) {
	if val, ok := f.Header.Ints[key]; ok {
		delete(f.Header.Ints, key)
		return float32(val), nil
	} else if val, ok := f.Header.Floats[key]; ok {
		delete(f.Header.Floats, key)
		return val, nil
	}
	return 0, fmt.Errorf("%d: FITS header does not contain key %s", f.ID, key)
}

// Read 2880-byte header blocks until the END card is found
func (f *Image) readHeader(r io.Reader) error {
	block := make([]byte, fitsBlockSize)
	for !f.Header.End {
		if _, err := io.ReadFull(r, block); err != nil {
			return fmt.Errorf("%d: reading FITS header: %s", f.ID, err.Error())
		}
		for off := 0; off < fitsBlockSize && !f.Header.End; off += fitsLineSize {
			f.Header.parseCard(string(block[off : off+fitsLineSize]))
		}
	}
	return nil
}

// Parse a single 80-character header card into the header maps
func (h *Header) parseCard(card string) {
	key := strings.TrimRight(card[0:8], " ")
	if key == "END" {
		h.End = true
		return
	}
	if key == "" || key == "COMMENT" || key == "HISTORY" || card[8:10] != "= " {
		return
	}
	value := strings.TrimSpace(card[10:])

	if strings.HasPrefix(value, "'") {
		if j := strings.Index(value[1:], "'"); j >= 0 {
			h.Strings[key] = strings.TrimRight(value[1:1+j], " ")
		}
		return
	}
	// strip trailing comment from non-string values
	if i := strings.IndexByte(value, '/'); i >= 0 {
		value = strings.TrimSpace(value[:i])
	}
	switch value {
	case "T":
		h.Bools[key] = true
	case "F":
		h.Bools[key] = false
	default:
		if i, err := strconv.ParseInt(value, 10, 32); err == nil {
			h.Ints[key] = int32(i)
		} else if fl, err := strconv.ParseFloat(value, 32); err == nil {
			h.Floats[key] = float32(fl)
		}
	}
}

// Read image data, convert to float32, apply Bzero/Bscale and reset them afterwards
func (f *Image) readData(r io.Reader, logWriter io.Writer) error {
	bytesPerValue := int(f.Bitpix) / 8
	if bytesPerValue < 0 {
		bytesPerValue = -bytesPerValue
	}
	switch f.Bitpix {
	case 8, 16, -32:
		// no precision loss
	case 32, 64:
		fmt.Fprintf(logWriter, "%d: Warning: loss of precision converting int%d to float32 values\n", f.ID, f.Bitpix)
	case -64:
		fmt.Fprintf(logWriter, "%d: Warning: loss of precision converting float%d to float32 values\n", f.ID, -f.Bitpix)
	default:
		return fmt.Errorf("%d: Unknown BITPIX value %d", f.ID, f.Bitpix)
	}

	raw := make([]byte, int(f.Pixels)*bytesPerValue)
	if _, err := io.ReadFull(r, raw); err != nil {
		return fmt.Errorf("%d: reading %d pixel values: %s", f.ID, f.Pixels, err.Error())
	}

	data := make([]float32, f.Pixels)
	switch f.Bitpix {
	case 8:
		for i := range data {
			data[i] = float32(raw[i])
		}
	case 16:
		for i := range data {
			data[i] = float32(int16(binary.BigEndian.Uint16(raw[i*2:])))
		}
	case 32:
		for i := range data {
			data[i] = float32(int32(binary.BigEndian.Uint32(raw[i*4:])))
		}
	case 64:
		for i := range data {
			data[i] = float32(int64(binary.BigEndian.Uint64(raw[i*8:])))
		}
	case -32:
		for i := range data {
			data[i] = math.Float32frombits(binary.BigEndian.Uint32(raw[i*4:]))
		}
	case -64:
		for i := range data {
			data[i] = float32(math.Float64frombits(binary.BigEndian.Uint64(raw[i*8:])))
		}
	}

	if f.Bscale != 1 || f.Bzero != 0 {
		for i, d := range data {
			data[i] = d*f.Bscale + f.Bzero
		}
	}
	f.Bzero, f.Bscale = 0, 1 // data values incorporate these now

	f.Data = data
	f.Stats = stats.NewStats(data)
	return nil
}
