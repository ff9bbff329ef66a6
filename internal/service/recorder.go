// SPDX-License-Identifier: MIT

package service

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/simwire/omnigate/internal/config"
	"github.com/simwire/omnigate/internal/scene"
)

// VideoJob is the parameter set of one frame-sequence capture.
type VideoJob struct {
	OutputDir   string  `json:"output_dir"`
	FPS         int     `json:"fps"`
	DurationSec float64 `json:"duration_sec,omitempty"` // 0 runs until cancelled
	Width       int     `json:"width"`
	Height      int     `json:"height"`
}

// RecorderStatus is the externally visible recorder state.
type RecorderStatus struct {
	Recording      bool      `json:"recording"`
	Job            *VideoJob `json:"job,omitempty"`
	FramesCaptured int       `json:"frames_captured"`
	StartedAt      time.Time `json:"started_at,omitempty"`
	LastError      string    `json:"last_error,omitempty"`
}

// VideoRecorder drives a frame-sequence capture from the render tick.
// Start and Cancel run on HTTP workers; Tick runs on the tick thread.
// A capture ends on cancel, on elapsed duration, or at the frame cap.
type VideoRecorder struct {
	mu        sync.Mutex
	viewport  scene.Viewport
	maxFrames int
	log       zerolog.Logger
	now       func() time.Time

	recording bool
	job       VideoJob
	startedAt time.Time
	nextFrame time.Time
	frames    int
	lastErr   string
}

// NewVideoRecorder builds the recorder over the host viewport.
func NewVideoRecorder(vp scene.Viewport, cfg config.RecorderConfig, log zerolog.Logger) *VideoRecorder {
	maxFrames := cfg.MaxFrames
	if maxFrames <= 0 {
		maxFrames = 18000
	}
	return &VideoRecorder{
		viewport:  vp,
		maxFrames: maxFrames,
		log:       log.With().Str("component", "recorder").Logger(),
		now:       time.Now,
	}
}

// Start begins a capture job. Starting while a job runs fails; the
// caller cancels first.
func (r *VideoRecorder) Start(job VideoJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		return fmt.Errorf("a video capture is already running")
	}
	if job.FPS <= 0 {
		job.FPS = 30
	}
	r.recording = true
	r.job = job
	r.startedAt = r.now()
	r.nextFrame = r.startedAt
	r.frames = 0
	r.lastErr = ""
	r.log.Info().
		Str("event", "recorder.started").
		Str("output_dir", job.OutputDir).
		Int("fps", job.FPS).
		Float64("duration_sec", job.DurationSec).
		Msg("video capture started")
	return nil
}

// Cancel stops the running job and reports how many frames it wrote.
// Cancelling an idle recorder is a no-op returning false.
func (r *VideoRecorder) Cancel() (frames int, wasRecording bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return 0, false
	}
	r.recording = false
	r.log.Info().
		Str("event", "recorder.cancelled").
		Int("frames", r.frames).
		Msg("video capture cancelled")
	return r.frames, true
}

// Status snapshots the recorder state.
func (r *VideoRecorder) Status() RecorderStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := RecorderStatus{
		Recording:      r.recording,
		FramesCaptured: r.frames,
		LastError:      r.lastErr,
	}
	if r.recording {
		job := r.job
		st.Job = &job
		st.StartedAt = r.startedAt
	}
	return st
}

// Tick captures the next frame when one is due. The host calls it once
// per rendered frame, after the queued-operation drain.
func (r *VideoRecorder) Tick() {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return
	}
	now := r.now()
	if r.job.DurationSec > 0 && now.Sub(r.startedAt).Seconds() >= r.job.DurationSec {
		r.finishLocked("duration elapsed")
		r.mu.Unlock()
		return
	}
	if r.frames >= r.maxFrames {
		r.finishLocked("frame cap reached")
		r.mu.Unlock()
		return
	}
	if now.Before(r.nextFrame) {
		r.mu.Unlock()
		return
	}
	frame := r.frames
	job := r.job
	r.nextFrame = r.nextFrame.Add(time.Second / time.Duration(job.FPS))
	r.mu.Unlock()

	path := filepath.Join(job.OutputDir, fmt.Sprintf("frame_%06d.png", frame))
	err := r.viewport.CaptureFrame(path, job.Width, job.Height)

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return
	}
	if err != nil {
		r.lastErr = err.Error()
		r.log.Warn().
			Str("event", "recorder.frame_failed").
			Str("path", path).
			Err(err).
			Msg("frame capture failed")
		return
	}
	r.frames++
}

// finishLocked ends the job from the tick thread. Callers hold r.mu.
func (r *VideoRecorder) finishLocked(reason string) {
	r.recording = false
	r.log.Info().
		Str("event", "recorder.finished").
		Str("reason", reason).
		Int("frames", r.frames).
		Msg("video capture finished")
}
