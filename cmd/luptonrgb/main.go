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

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/scarter4work/lupton-rgb-pixinsight/internal/ops"
	"github.com/scarter4work/lupton-rgb-pixinsight/internal/rest"
	"github.com/scarter4work/lupton-rgb-pixinsight/internal/stretch"
)

const version = "0.1.0"

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")

var out   = flag.String("out", "out.fits", "save stretched output to `file` (.fits, .tif or .jpg)")
var jpg   = flag.String("jpg", "", "additionally save 8-bit JPEG of output to `file`")
var thumb = flag.String("thumb", "", "additionally save JPEG thumbnail of output to `file`")
var thumbDim = flag.Uint("thumbDim", 512, "longest edge of the thumbnail in pixels")
var logF  = flag.String("log", "", "tee log output to `file`")

var alpha = flag.Float64("alpha", 5, "stretch amplification factor, >0")
var q     = flag.Float64("q", 8, "stretch softening; magnitudes below 0.01 are clamped")
var black = flag.Float64("black", 0, "linked black point subtracted from all channels")
var blackR = flag.Float64("blackR", -1, "red channel black point; set all three to unlink channels")
var blackG = flag.Float64("blackG", -1, "green channel black point")
var blackB = flag.Float64("blackB", -1, "blue channel black point")
var sat   = flag.Float64("sat", 1, "saturation multiplier around mean luminance, 1=no op")
var clip  = flag.String("clip", "preserveColor", "clipping mode: preserveColor, hardClip or rescale")

var autoBlack = flag.String("autoBlack", "off", "estimate black points from the source: off, linked or perChannel")
var blackMode = flag.String("blackMode", "percentile", "black point estimator: percentile or histogram")

var serve  = flag.Bool("serve", false, "serve interactive preview and stretch API over HTTP")
var addr   = flag.String("addr", ":8080", "HTTP listen address for -serve")
var chroot = flag.String("chroot", "", "chroot jail for -serve (requires root)")
var setuid = flag.Int("setuid", -1, "user id to switch to for -serve")

func main() {
	var logWriter io.Writer = os.Stdout
	start := time.Now()

	flag.Usage = func() {
		fmt.Fprintf(logWriter, `Luptonrgb v%s: color-preserving arcsinh stretch for linear FITS images.
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.

Usage: %s [options] input.fits

`, version, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *logF != "" {
		file, err := os.OpenFile(*logF, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0666)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file %s: %s\n", *logF, err.Error())
			os.Exit(1)
		}
		defer file.Close()
		logWriter = io.MultiWriter(os.Stdout, file)
	}

	if *cpuprofile != "" {
		file, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating cpu profile %s: %s\n", *cpuprofile, err.Error())
			os.Exit(1)
		}
		pprof.StartCPUProfile(file)
		defer pprof.StopCPUProfile()
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	fileName := flag.Arg(0)

	params := stretch.Parameters{
		Alpha:      float32(*alpha),
		Q:          float32(*q),
		Linked:     true,
		BlackPoint: float32(*black),
		Saturation: float32(*sat),
	}
	if *blackR >= 0 || *blackG >= 0 || *blackB >= 0 {
		params.Linked = false
		params.BlackR = float32(max0(*blackR))
		params.BlackG = float32(max0(*blackG))
		params.BlackB = float32(max0(*blackB))
	}
	clipMode, err := stretch.ParseClipMode(*clip)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err.Error())
		os.Exit(2)
	}
	params.Clip = clipMode

	ctx := ops.NewContext(logWriter)
	fmt.Fprintf(logWriter, "Luptonrgb v%s on %s with %d threads and %d MiB of memory\n",
		version, runtime.GOOS, ctx.MaxThreads, ctx.MemoryMB)

	if *serve {
		rest.MakeSandbox(*chroot, *setuid)
		opLoad := ops.NewOpLoad(0, fileName)
		f, err := opLoad.Apply(nil, ctx)
		if err != nil {
			fmt.Fprintf(logWriter, "Error loading %s: %s\n", fileName, err.Error())
			os.Exit(1)
		}
		server, err := rest.NewServer(f, logWriter)
		if err != nil {
			fmt.Fprintf(logWriter, "Error: %s\n", err.Error())
			os.Exit(1)
		}
		if err := server.Serve(*addr); err != nil {
			fmt.Fprintf(logWriter, "Error serving on %s: %s\n", *addr, err.Error())
			os.Exit(1)
		}
		return
	}

	opStretch := ops.NewOpStretch(params)
	opStretch.AutoBlack = strings.TrimSpace(*autoBlack)
	opStretch.BlackMode = strings.TrimSpace(*blackMode)

	seq := ops.NewOpSequence(
		ops.NewOpLoad(0, fileName),
		opStretch,
		ops.NewOpSave(*out),
		ops.NewOpSave(*jpg),
		ops.NewOpThumb(*thumb, *thumbDim),
	)
	if _, err := seq.Apply(nil, ctx); err != nil {
		fmt.Fprintf(logWriter, "Error: %s\n", err.Error())
		os.Exit(1)
	}

	if *memprofile != "" {
		file, err := os.Create(*memprofile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile %s: %s\n", *memprofile, err.Error())
			os.Exit(1)
		}
		defer file.Close()
		runtime.GC()
		if err := pprof.WriteHeapProfile(file); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %s\n", err.Error())
			os.Exit(1)
		}
	}

	fmt.Fprintf(logWriter, "Done after %v\n", time.Since(start))
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
