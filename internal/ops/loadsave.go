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
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/scarter4work/lupton-rgb-pixinsight/internal/fits"
)

// Load a FITS image from a file. Takes no input image
type OpLoad struct {
	OpBase
	ID       int    `json:"id"`
	FileName string `json:"fileName"`
}

func init() {
	SetOperatorFactory(func() Operator { return NewOpLoad(0, "") })
} // register the operator for JSON decoding

func NewOpLoad(id int, fileName string) *OpLoad {
	return &OpLoad{
		OpBase:   OpBase{Type: "load", Active: true},
		ID:       id,
		FileName: fileName,
	}
}

// Returns true if a path is considered safe, i.e. not an absolute path,
// and doesn't contain the ".." characters to change to a parent directory
func isPathAllowed(p string) bool {
	if filepath.IsAbs(p) {
		return false // relative paths only
	}
	if strings.Contains(p, "..") {
		return false // no going outside the tree
	}
	return true
}

// Load image from a file. Ignores any f argument provided
func (op *OpLoad) Apply(f *fits.Image, c *Context) (result *fits.Image, err error) {
	if !isPathAllowed(op.FileName) {
		return nil, errors.New("Filename outside current directory tree, aborting")
	}
	f, err = fits.NewImageFromFile(op.FileName, op.ID, c.Log)
	if err != nil {
		return nil, err
	}

	warning := ""
	if f.Stats.Max-f.Stats.Min < 1e-8 {
		warning = "; WARNING low dynamic range"
	}
	fmt.Fprintf(c.Log, "%d: Loaded %s image with %v from %s%s\n",
		f.ID, f.DimensionsToString(), f.Stats, f.FileName, warning)
	return f, nil
}

// Saves the image under the given filename, with pattern expansion for %d
// based on the image id. The suffix selects the format: FITS, 16-bit TIFF,
// or 8-bit JPEG. Produces the unchanged input as output
type OpSave struct {
	OpBase
	FilePattern string `json:"filePattern"`
	Quality     int    `json:"quality"`
}

func init() {
	SetOperatorFactory(func() Operator { return NewOpSave("") })
} // register the operator for JSON decoding

func NewOpSave(filePattern string) *OpSave {
	return &OpSave{
		OpBase:      OpBase{Type: "save", Active: filePattern != ""},
		FilePattern: filePattern,
		Quality:     95,
	}
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpSave) UnmarshalJSON(data []byte) error {
	type defaults OpSave
	def := defaults(*NewOpSave(""))
	if err := json.Unmarshal(data, &def); err != nil {
		return err
	}
	*op = OpSave(def)
	return nil
}

func (op *OpSave) Apply(f *fits.Image, c *Context) (result *fits.Image, err error) {
	if !op.Active || op.FilePattern == "" {
		return f, nil
	}
	fileName := op.FilePattern
	if strings.Contains(fileName, "%d") {
		fileName = fmt.Sprintf(op.FilePattern, f.ID)
	}
	fnLower := strings.ToLower(fileName)

	switch {
	case strings.HasSuffix(fnLower, ".fits") || strings.HasSuffix(fnLower, ".fit") || strings.HasSuffix(fnLower, ".fts"):
		fmt.Fprintf(c.Log, "%d: Writing %s pixel FITS to %s\n", f.ID, f.DimensionsToString(), fileName)
		err = f.WriteFile(fileName)
	case strings.HasSuffix(fnLower, ".tif") || strings.HasSuffix(fnLower, ".tiff"):
		fmt.Fprintf(c.Log, "%d: Writing %s pixel 16-bit TIFF to %s\n", f.ID, f.DimensionsToString(), fileName)
		err = f.WriteTIFF16ToFile(fileName)
	case strings.HasSuffix(fnLower, ".jpeg") || strings.HasSuffix(fnLower, ".jpg"):
		fmt.Fprintf(c.Log, "%d: Writing %s pixel color JPEG to %s\n", f.ID, f.DimensionsToString(), fileName)
		err = f.WriteJPGToFile(fileName, op.Quality)
	default:
		err = errors.New("Unknown suffix")
	}
	if err != nil {
		return nil, fmt.Errorf("%d: Error writing to file %s: %s", f.ID, fileName, err.Error())
	}
	return f, nil
}

// Saves a downsampled JPEG thumbnail of the image. Produces the unchanged
// input as output
type OpThumb struct {
	OpBase
	FileName string `json:"fileName"`
	MaxDim   uint   `json:"maxDim"`
	Quality  int    `json:"quality"`
}

func init() {
	SetOperatorFactory(func() Operator { return NewOpThumb("", 512) })
} // register the operator for JSON decoding

func NewOpThumb(fileName string, maxDim uint) *OpThumb {
	return &OpThumb{
		OpBase:   OpBase{Type: "thumb", Active: fileName != ""},
		FileName: fileName,
		MaxDim:   maxDim,
		Quality:  85,
	}
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpThumb) UnmarshalJSON(data []byte) error {
	type defaults OpThumb
	def := defaults(*NewOpThumb("", 512))
	if err := json.Unmarshal(data, &def); err != nil {
		return err
	}
	*op = OpThumb(def)
	return nil
}

func (op *OpThumb) Apply(f *fits.Image, c *Context) (result *fits.Image, err error) {
	if !op.Active || op.FileName == "" {
		return f, nil
	}
	fmt.Fprintf(c.Log, "%d: Writing thumbnail up to %dx%d to %s\n", f.ID, op.MaxDim, op.MaxDim, op.FileName)
	if err = f.WriteThumbJPGToFile(op.FileName, op.MaxDim, op.Quality); err != nil {
		return nil, fmt.Errorf("%d: Error writing thumbnail %s: %s", f.ID, op.FileName, err.Error())
	}
	return f, nil
}
