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
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
)

// Writes an in-memory FITS image to a file with given filename,
// as 32-bit floating point. Creates/overwrites the file if necessary
func (f *Image) WriteFile(fileName string) error {
	file, err := os.OpenFile(fileName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	defer w.Flush()
	return f.Write(w)
}

// Writes an in-memory FITS image to an io.Writer
func (f *Image) Write(w io.Writer) error {
	sb := strings.Builder{}
	writeHeaderBool(&sb, "SIMPLE", true, "    FITS standard 4.0")
	writeHeaderInt32(&sb, "BITPIX", -32, "    32-bit floating point")
	writeHeaderInt32(&sb, "NAXIS", int32(len(f.Naxisn)), "[1] Number of axis")
	for i, naxis := range f.Naxisn {
		writeHeaderInt32(&sb, fmt.Sprintf("NAXIS%d", i+1), naxis, "[1] Axis size")
	}
	writeHeaderFloat32(&sb, "BZERO", f.Bzero, "[1] Zero offset")
	if f.Exposure != 0 {
		writeHeaderFloat32(&sb, "EXPTIME", f.Exposure, "[s] Exposure duration")
	}
	fmt.Fprintf(&sb, "%-80s", "END")

	// pad current header block with spaces if necessary
	if fill := sb.Len() % fitsBlockSize; fill > 0 {
		sb.WriteString(strings.Repeat(" ", fitsBlockSize-fill))
	}
	if _, err := w.Write([]byte(sb.String())); err != nil {
		return err
	}

	// write payload data, replacing NaNs with zeros for compatibility
	buf := make([]byte, 4)
	written := 0
	for _, d := range f.Data {
		if math.IsNaN(float64(d)) {
			d = 0
		}
		binary.BigEndian.PutUint32(buf, math.Float32bits(d))
		n, err := w.Write(buf)
		if err != nil {
			return err
		}
		written += n
	}

	// pad data to full block size
	if fill := written % fitsBlockSize; fill > 0 {
		_, err := w.Write(make([]byte, fitsBlockSize-fill))
		if err != nil {
			return err
		}
	}
	return nil
}

// Writes a FITS header boolean card
func writeHeaderBool(w io.Writer, key string, value bool, comment string) {
	v := "F"
	if value {
		v = "T"
	}
	fmt.Fprintf(w, "%-8s= %20s / %-47s", truncate(key, 8), v, truncate(comment, 47))
}

// Writes a FITS header int32 card
func writeHeaderInt32(w io.Writer, key string, value int32, comment string) {
	fmt.Fprintf(w, "%-8s= %20d / %-47s", truncate(key, 8), value, truncate(comment, 47))
}

// Writes a FITS header float32 card
func writeHeaderFloat32(w io.Writer, key string, value float32, comment string) {
	fmt.Fprintf(w, "%-8s= %20g / %-47s", truncate(key, 8), value, truncate(comment, 47))
}

func truncate(s string, l int) string {
	if len(s) > l {
		return s[:l]
	}
	return s
}
