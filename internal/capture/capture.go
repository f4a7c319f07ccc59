// Package capture records voice notes by running an external recorder
// process that writes WAV audio to a temporary file.
package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saravenpi/milkyway/internal/logger"
)

var (
	ErrPermissionDenied = errors.New("microphone access denied")
	ErrEmptyRecording   = errors.New("recording produced no audio")
)

// stopTimeout bounds how long Stop waits for the recorder to flush after the
// interrupt before killing it.
const stopTimeout = 3 * time.Second

type Recorder interface {
	Start(ctx context.Context) (Handle, error)
}

// Handle is an exclusively owned, in-progress recording. Exactly one of Stop
// or Release must be called; Release may also be called after Stop.
type Handle interface {
	// Name is the file name the audio should be uploaded under.
	Name() string
	// Stop finalizes the recording and returns its bytes. The device is
	// released whether or not it succeeds.
	Stop() ([]byte, error)
	// Release discards the recording and frees the device.
	Release()
}

type ExecRecorder struct {
	Command []string
	TempDir string
}

func NewExecRecorder(command []string) *ExecRecorder {
	return &ExecRecorder{Command: command}
}

// Start launches the recorder with the output path appended to Command.
func (r *ExecRecorder) Start(ctx context.Context) (Handle, error) {
	if len(r.Command) == 0 {
		return nil, fmt.Errorf("%w: no recorder command configured", ErrPermissionDenied)
	}

	name := "voice-" + uuid.New().String() + ".wav"
	dir := r.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, name)

	args := append(append([]string(nil), r.Command[1:]...), path)
	cmd := exec.Command(r.Command[0], args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}

	h := &execHandle{
		name: name,
		path: path,
		cmd:  cmd,
		done: make(chan struct{}),
	}
	go func() {
		h.waitErr = cmd.Wait()
		close(h.done)
	}()

	// Tie the handle to ctx so a torn-down caller never leaks the device.
	go func() {
		select {
		case <-ctx.Done():
			h.Release()
		case <-h.done:
		}
	}()

	logger.With("component", "capture").Info("recording started", "command", r.Command[0], "file", name)
	return h, nil
}

type execHandle struct {
	name string
	path string
	cmd  *exec.Cmd

	done    chan struct{}
	waitErr error

	mu       sync.Mutex
	stopped  bool
	released bool
}

func (h *execHandle) Name() string {
	return h.name
}

func (h *execHandle) Stop() ([]byte, error) {
	h.mu.Lock()
	if h.stopped || h.released {
		h.mu.Unlock()
		return nil, errors.New("recording already finished")
	}
	h.stopped = true
	h.mu.Unlock()
	defer h.release()

	select {
	case <-h.done:
		// The recorder exited on its own, typically because the device
		// could not be opened.
		if h.waitErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, h.waitErr)
		}
	default:
		h.interrupt()
		select {
		case <-h.done:
		case <-time.After(stopTimeout):
			_ = h.cmd.Process.Kill()
			<-h.done
		}
	}

	data, err := os.ReadFile(h.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recording: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyRecording
	}
	return data, nil
}

// Release kills the recorder and removes its file. Once Stop has begun it
// owns the cleanup, so Release leaves the handle alone.
func (h *execHandle) Release() {
	h.mu.Lock()
	stopping := h.stopped
	h.mu.Unlock()
	if stopping {
		return
	}
	h.release()
}

func (h *execHandle) release() {
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return
	}
	h.released = true
	h.mu.Unlock()

	select {
	case <-h.done:
	default:
		_ = h.cmd.Process.Kill()
		<-h.done
	}
	if err := os.Remove(h.path); err != nil && !os.IsNotExist(err) {
		logger.With("component", "capture").Warn("failed to remove recording", "file", h.path, "error", err)
	}
}

func (h *execHandle) interrupt() {
	if runtime.GOOS == "windows" {
		_ = h.cmd.Process.Kill()
		return
	}
	if err := h.cmd.Process.Signal(os.Interrupt); err != nil {
		_ = h.cmd.Process.Kill()
	}
}
