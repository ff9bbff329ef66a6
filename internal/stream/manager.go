// SPDX-License-Identifier: MIT

package stream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Process is the slice of exec.Cmd the manager needs. Tests and the
// embedded dev mode substitute a fake; production uses execProcess.
type Process interface {
	PID() int
	Stdin() io.WriteCloser
	Stderr() io.ReadCloser
	Wait() error
	Kill() error
}

// Launcher starts the encoder child process for an argv.
type Launcher func(argv []string) (Process, error)

// Status is a point-in-time view of the managed pipeline.
type Status struct {
	Running       bool          `json:"running"`
	PID           int           `json:"pid,omitempty"`
	Spec          *PipelineSpec `json:"spec,omitempty"`
	StartedAt     time.Time     `json:"started_at,omitempty"`
	FramesWritten int64         `json:"frames_written"`
}

// Manager owns at most one encoder child process. Start and Stop are
// idempotent; the handle belongs to the service, not to individual
// requests.
type Manager struct {
	mu     sync.Mutex
	launch Launcher
	log    zerolog.Logger

	proc      Process
	spec      *PipelineSpec
	stdin     io.WriteCloser
	startedAt time.Time
	frames    int64

	now func() time.Time
}

// NewManager builds a manager using the given launcher; nil selects
// the real gst-launch child process.
func NewManager(launch Launcher, log zerolog.Logger) *Manager {
	if launch == nil {
		launch = launchExec
	}
	return &Manager{launch: launch, log: log, now: time.Now}
}

// Start builds the pipeline for spec and launches the child process.
// When a pipeline is already running, Start reports started=false and
// leaves it untouched.
func (m *Manager) Start(spec *PipelineSpec) (started bool, err error) {
	argv, err := BuildArgv(spec)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.proc != nil {
		return false, nil
	}

	proc, err := m.launch(argv)
	if err != nil {
		return false, fmt.Errorf("launch encoder: %w", err)
	}
	m.proc = proc
	m.stdin = proc.Stdin()
	cp := *spec
	m.spec = &cp
	m.startedAt = m.now()
	m.frames = 0

	go m.scanStderr(proc)
	go m.reap(proc)

	m.log.Info().
		Str("event", "stream.process_started").
		Int("pid", proc.PID()).
		Str("protocol", spec.Protocol).
		Str("encoder", spec.Encoder).
		Msg("encoder pipeline started")
	return true, nil
}

// Stop terminates the running pipeline. Stopping an already stopped
// manager is a no-op reporting stopped=false.
func (m *Manager) Stop() (stopped bool, err error) {
	m.mu.Lock()
	proc := m.proc
	stdin := m.stdin
	m.proc = nil
	m.stdin = nil
	m.spec = nil
	m.mu.Unlock()

	if proc == nil {
		return false, nil
	}
	if stdin != nil {
		_ = stdin.Close()
	}
	if err := proc.Kill(); err != nil {
		m.log.Warn().Str("event", "stream.kill_failed").Err(err).Msg("encoder did not die cleanly")
	}
	m.log.Info().Str("event", "stream.process_stopped").Int("pid", proc.PID()).Msg("encoder pipeline stopped")
	return true, nil
}

// WriteFrame feeds one raw RGB frame to the encoder's stdin.
func (m *Manager) WriteFrame(frame []byte) error {
	m.mu.Lock()
	stdin := m.stdin
	if stdin == nil {
		m.mu.Unlock()
		return errors.New("stream: no pipeline running")
	}
	m.frames++
	m.mu.Unlock()

	if _, err := stdin.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Status reports the current pipeline state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Status{FramesWritten: m.frames}
	if m.proc != nil {
		st.Running = true
		st.PID = m.proc.PID()
		st.StartedAt = m.startedAt
		cp := *m.spec
		st.Spec = &cp
	}
	return st
}

// Running reports whether a pipeline is active.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.proc != nil
}

// scanStderr forwards encoder diagnostics to the log until the stream
// closes.
func (m *Manager) scanStderr(proc Process) {
	stderr := proc.Stderr()
	if stderr == nil {
		return
	}
	sc := bufio.NewScanner(stderr)
	for sc.Scan() {
		m.log.Debug().
			Str("event", "stream.encoder_stderr").
			Int("pid", proc.PID()).
			Msg(sc.Text())
	}
}

// reap clears the handle when the child exits on its own, so a crashed
// encoder does not wedge the manager in a phantom running state.
func (m *Manager) reap(proc Process) {
	err := proc.Wait()

	m.mu.Lock()
	current := m.proc == proc
	if current {
		m.proc = nil
		m.stdin = nil
		m.spec = nil
	}
	m.mu.Unlock()

	if current {
		evt := m.log.Info()
		if err != nil {
			evt = m.log.Warn().Err(err)
		}
		evt.Str("event", "stream.process_exited").Int("pid", proc.PID()).Msg("encoder pipeline exited")
	}
}

// execProcess wraps a real child process.
type execProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr io.ReadCloser
}

func launchExec(argv []string) (Process, error) {
	cmd := exec.Command(argv[0], argv[1:]...) // #nosec G204 -- argv is allow-list checked
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &execProcess{cmd: cmd, stdin: stdin, stderr: stderr}, nil
}

func (p *execProcess) PID() int              { return p.cmd.Process.Pid }
func (p *execProcess) Stdin() io.WriteCloser { return p.stdin }
func (p *execProcess) Stderr() io.ReadCloser { return p.stderr }
func (p *execProcess) Wait() error           { return p.cmd.Wait() }
func (p *execProcess) Kill() error           { return p.cmd.Process.Kill() }

// nopProcess discards frames and lives until killed.
type nopProcess struct {
	done chan struct{}
	once sync.Once
}

type discardCloser struct{}

func (discardCloser) Write(b []byte) (int, error) { return len(b), nil }
func (discardCloser) Close() error                { return nil }

func (p *nopProcess) PID() int              { return -1 }
func (p *nopProcess) Stdin() io.WriteCloser { return discardCloser{} }
func (p *nopProcess) Stderr() io.ReadCloser { return nil }
func (p *nopProcess) Wait() error           { <-p.done; return nil }
func (p *nopProcess) Kill() error {
	p.once.Do(func() { close(p.done) })
	return nil
}

// NopLauncher launches frame-discarding processes. The embedded dev
// mode uses it when no encoder binary is installed.
func NopLauncher() Launcher {
	return func([]string) (Process, error) {
		return &nopProcess{done: make(chan struct{})}, nil
	}
}
