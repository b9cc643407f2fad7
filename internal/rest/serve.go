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

package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/jpeg"
	"io"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/scarter4work/lupton-rgb-pixinsight/internal/fits"
	"github.com/scarter4work/lupton-rgb-pixinsight/internal/ops"
	"github.com/scarter4work/lupton-rgb-pixinsight/internal/preview"
	"github.com/scarter4work/lupton-rgb-pixinsight/internal/stretch"
	"github.com/scarter4work/lupton-rgb-pixinsight/internal/viewport"
)

// Default viewport dimensions before the client reports its own
const defaultViewW, defaultViewH = 1024, 768

// A preview session over one source image. The stretch core is sequential;
// the mutex serializes all HTTP events onto it
type Server struct {
	mu        sync.Mutex
	src       *fits.Image
	params    *stretch.Parameters
	vp        *viewport.Model
	renderer  *preview.Renderer
	scheduler *preview.Scheduler
	request   preview.Request
	log       io.Writer
}

// Creates a preview server for the given source image. The source must
// expose at least three channels
func NewServer(src *fits.Image, logWriter io.Writer) (*Server, error) {
	if src == nil || src.ChannelCount() < 3 {
		return nil, fmt.Errorf("preview serving requires a source with at least 3 channels")
	}
	s := &Server{
		src:      src,
		params:   stretch.NewParameters(),
		vp:       viewport.NewModel(src.Width(), src.Height(), defaultViewW, defaultViewH),
		renderer: preview.NewRenderer(),
		log:      logWriter,
	}
	s.scheduler = preview.NewScheduler(func() {
		if _, err := s.renderer.Render(s.src, s.vp, &s.request, s.params); err != nil {
			fmt.Fprintf(s.log, "%d: Error rendering preview: %s\n", s.src.ID, err.Error())
		}
	})
	return s, nil
}

// Serves the preview and stretch API on the given address, blocking
func (s *Server) Serve(addr string) error {
	return s.router().Run(addr)
}

func (s *Server) router() *gin.Engine {
	r := gin.Default()
	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET("/ping", getPing)
			v1.POST("/preview", s.postPreview)
			v1.POST("/stretch", s.postStretch)
		}
	}
	return r
}

func getPing(c *gin.Context) {
	c.JSON(200, gin.H{
		"message": "pong",
	})
}

// Arguments for a preview update. All fields are optional; omitted fields
// leave the corresponding session state unchanged, down to individual
// parameter fields inside params
type previewArgs struct {
	Params json.RawMessage `json:"params"`

	Resize *struct {
		W int32 `json:"w"`
		H int32 `json:"h"`
	} `json:"resize"`
	Zoom *struct {
		Level int      `json:"level"`
		RefX  *float32 `json:"refX"`
		RefY  *float32 `json:"refY"`
	} `json:"zoom"`
	Fit bool     `json:"fit"`
	Pan *struct {
		DX float32 `json:"dx"`
		DY float32 `json:"dy"`
	} `json:"pan"`

	Mode          *preview.Mode `json:"mode"`
	SplitPosition *float32      `json:"splitPosition"`
	SRGB          *bool         `json:"srgb"`

	// Discrete actions set force to bypass throttling
	Force bool `json:"force"`
}

// Applies the requested state changes and renders a preview raster, subject
// to throttling. Responds with the JPEG-encoded raster, or 202 when the
// change was coalesced into a later render
func (s *Server) postPreview(c *gin.Context) {
	var args previewArgs
	if err := c.ShouldBind(&args); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	discrete := args.Force
	if len(args.Params) > 0 {
		// decode over a copy of the current values so missing fields keep them
		params := *s.params
		if err := json.Unmarshal(args.Params, &params); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.params = &params
	}
	if args.Resize != nil {
		s.vp.Resize(args.Resize.W, args.Resize.H)
		discrete = true
	}
	if args.Fit {
		s.vp.FitToWindow()
		discrete = true
	}
	if args.Zoom != nil {
		hasRef := args.Zoom.RefX != nil && args.Zoom.RefY != nil
		refX, refY := float32(0), float32(0)
		if hasRef {
			refX, refY = *args.Zoom.RefX, *args.Zoom.RefY
		}
		s.vp.SetZoom(args.Zoom.Level, refX, refY, hasRef)
		discrete = true
	}
	if args.Pan != nil {
		s.vp.Pan(args.Pan.DX, args.Pan.DY)
	}
	if args.Mode != nil {
		s.request.Mode = *args.Mode
		discrete = true
	}
	if args.SplitPosition != nil {
		s.request.SplitPosition = *args.SplitPosition
	}
	if args.SRGB != nil {
		s.renderer.SRGB = *args.SRGB
	}

	ran := true
	if discrete {
		s.scheduler.ForceUpdate()
	} else {
		ran = s.scheduler.Notify()
	}
	if !ran {
		c.Status(http.StatusAccepted)
		return
	}
	if s.renderer.Last() == nil {
		// render callback failed; the cause is already in the log
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no preview raster available"})
		return
	}

	buf := bytes.Buffer{}
	if err := jpeg.Encode(&buf, s.renderer.Last(), &jpeg.Options{Quality: 90}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/jpeg", buf.Bytes())
}

// Runs a full-resolution operator sequence against the session source,
// streaming the processing log as the response
func (s *Server) postStretch(c *gin.Context) {
	logWriter := c.Writer
	var seq ops.OpSequence
	if err := c.ShouldBind(&seq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logWriter.Header().Set("Content-Type", "text/plain")
	logWriter.WriteHeader(http.StatusOK)

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := ops.NewContext(logWriter)
	if _, err := seq.Apply(s.src, ctx); err != nil {
		fmt.Fprintf(logWriter, "error: %s\n", err.Error())
	}
	if flusher, ok := logWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
