// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/simwire/omnigate/internal/envelope"
	"github.com/simwire/omnigate/internal/validate"
)

const (
	maxFrameWidth  = 7680
	maxFrameHeight = 4320
	maxCaptureFPS  = 120
	maxDurationSec = 3600.0

	defaultCaptureFPS   = 30
	defaultCleanupHours = 24.0
)

var frameExtensions = []string{".png", ".jpg", ".jpeg", ".exr"}

func (c *Controller) registerRecorderOps() {
	c.registerQueued("capture_frame", c.validateCaptureFrame, c.tickCaptureFrame)
	c.registerInline("video_status", nil, c.videoStatus)
	c.registerInline("start_video", c.validateStartVideo, c.startVideo)
	c.registerInline("cancel_video", nil, c.cancelVideo)
	c.registerInline("cleanup_frames", c.validateCleanupFrames, c.cleanupFrames)
}

func (c *Controller) outputDir() string {
	return c.Holder.Current().Recorder.OutputDir
}

func (c *Controller) validateCaptureFrame(p map[string]any) (map[string]any, envelope.Envelope) {
	out := map[string]any{}
	b := validate.NewBatch()
	if has(p, "width") {
		out["width"] = b.Int("width", p["width"], ptr(1), ptr(maxFrameWidth))
	}
	if has(p, "height") {
		out["height"] = b.Int("height", p["height"], ptr(1), ptr(maxFrameHeight))
	}
	if env := batchEnvelope(b); env != nil {
		return nil, env
	}
	if has(p, "output_path") {
		path, err := validate.FilePath("output_path", p["output_path"], validate.FileOpts{Extensions: frameExtensions})
		if err != nil {
			return nil, invalidParam(err)
		}
		out["output_path"] = path
	} else {
		out["output_path"] = filepath.Join(c.outputDir(),
			fmt.Sprintf("frame_%d.png", time.Now().UnixMilli()))
	}
	return out, nil
}

func (c *Controller) tickCaptureFrame(_ context.Context, p map[string]any) envelope.Envelope {
	width, _ := p["width"].(int)
	height, _ := p["height"].(int)
	path := str(p, "output_path")
	if err := c.Host.CaptureFrame(path, width, height); err != nil {
		return envelope.Error(envelope.OperationFailed("capture_frame"), err.Error())
	}
	return envelope.OK(map[string]any{"output_path": path, "width": width, "height": height})
}

func (c *Controller) videoStatus(_ context.Context, _ map[string]any) envelope.Envelope {
	st := c.Recorder.Status()
	result := map[string]any{
		"recording":       st.Recording,
		"frames_captured": st.FramesCaptured,
	}
	if st.Job != nil {
		result["job"] = st.Job
		result["started_at"] = st.StartedAt.UTC().Format(time.RFC3339)
	}
	if st.LastError != "" {
		result["last_error"] = st.LastError
	}
	return envelope.OK(result)
}

func (c *Controller) validateStartVideo(p map[string]any) (map[string]any, envelope.Envelope) {
	out := map[string]any{}
	b := validate.NewBatch()
	if has(p, "fps") {
		out["fps"] = b.Int("fps", p["fps"], ptr(1), ptr(maxCaptureFPS))
	}
	if has(p, "width") {
		out["width"] = b.Int("width", p["width"], ptr(1), ptr(maxFrameWidth))
	}
	if has(p, "height") {
		out["height"] = b.Int("height", p["height"], ptr(1), ptr(maxFrameHeight))
	}
	if has(p, "duration_sec") {
		out["duration_sec"] = b.Number("duration_sec", p["duration_sec"], ptr(0.1), ptr(maxDurationSec))
	}
	if env := batchEnvelope(b); env != nil {
		return nil, env
	}
	if has(p, "output_path") {
		path, err := validate.FilePath("output_path", p["output_path"], validate.FileOpts{})
		if err != nil {
			return nil, invalidParam(err)
		}
		out["output_path"] = path
	}
	return out, nil
}

func (c *Controller) startVideo(_ context.Context, p map[string]any) envelope.Envelope {
	outputDir := str(p, "output_path")
	if outputDir == "" {
		outputDir = filepath.Join(c.outputDir(), fmt.Sprintf("video_%d", time.Now().UnixMilli()))
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return envelope.Error(envelope.OperationFailed("start_video"), err.Error())
	}

	fps, ok := p["fps"].(int)
	if !ok {
		fps = defaultCaptureFPS
	}
	duration, _ := p["duration_sec"].(float64)
	width, _ := p["width"].(int)
	height, _ := p["height"].(int)

	job := VideoJob{
		OutputDir:   outputDir,
		FPS:         fps,
		DurationSec: duration,
		Width:       width,
		Height:      height,
	}
	if err := c.Recorder.Start(job); err != nil {
		return envelope.Error(envelope.OperationFailed("start_video"), err.Error())
	}
	return envelope.OK(map[string]any{"job": job, "recording": true})
}

func (c *Controller) cancelVideo(_ context.Context, _ map[string]any) envelope.Envelope {
	frames, wasRecording := c.Recorder.Cancel()
	return envelope.OK(map[string]any{
		"cancelled":       wasRecording,
		"frames_captured": frames,
	})
}

func (c *Controller) validateCleanupFrames(p map[string]any) (map[string]any, envelope.Envelope) {
	out := map[string]any{}
	if has(p, "older_than_hours") {
		b := validate.NewBatch()
		out["older_than_hours"] = b.Number("older_than_hours", p["older_than_hours"], ptr(0.0), ptr(24.0*365))
		if env := batchEnvelope(b); env != nil {
			return nil, env
		}
	}
	return out, nil
}

// cleanupFrames deletes frame files under the output directory older
// than the threshold. Missing output directories count as zero files.
func (c *Controller) cleanupFrames(_ context.Context, p map[string]any) envelope.Envelope {
	hours, ok := p["older_than_hours"].(float64)
	if !ok {
		hours = defaultCleanupHours
	}
	cutoff := time.Now().Add(-time.Duration(hours * float64(time.Hour)))

	root := c.outputDir()
	deleted := 0
	var bytesFreed int64
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() || !isFrameFile(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		deleted++
		bytesFreed += info.Size()
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return envelope.Error(envelope.OperationFailed("cleanup_frames"), err.Error())
	}
	return envelope.OK(map[string]any{
		"deleted":          deleted,
		"bytes_freed":      bytesFreed,
		"older_than_hours": hours,
	})
}

func isFrameFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range frameExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
