// Package composer implements the input state machine of the chat room:
// staging text, attaching a file and recording a voice note, with at most
// one send in flight.
package composer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/saravenpi/milkyway/internal/capture"
	"github.com/saravenpi/milkyway/internal/logger"
	"github.com/saravenpi/milkyway/internal/models"
)

type State int

const (
	Idle State = iota
	Composing
	Recording
	Sending
)

func (s State) String() string {
	switch s {
	case Composing:
		return "composing"
	case Recording:
		return "recording"
	case Sending:
		return "sending"
	default:
		return "idle"
	}
}

var (
	ErrBusy         = errors.New("composer is busy")
	ErrTextStaged   = errors.New("clear the message text before recording")
	ErrNotRecording = errors.New("no recording in progress")
)

type Sender interface {
	SendMessage(ctx context.Context, content string, media *models.MediaReference) error
}

type Composer struct {
	sender   Sender
	recorder capture.Recorder
	readFile func(string) ([]byte, error)

	mu     sync.Mutex
	state  State
	text   string
	handle capture.Handle
	onSent []func()
}

func New(sender Sender, recorder capture.Recorder) *Composer {
	return &Composer{
		sender:   sender,
		recorder: recorder,
		readFile: os.ReadFile,
	}
}

// OnSent registers fn to run after every successful send.
func (c *Composer) OnSent(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSent = append(c.onSent, fn)
}

func (c *Composer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Composer) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// SetText stages text. Clearing it returns the composer to Idle.
func (c *Composer) SetText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Recording || c.state == Sending {
		return ErrBusy
	}
	c.text = text
	if text == "" {
		c.state = Idle
	} else {
		c.state = Composing
	}
	return nil
}

// Submit sends the staged text. Whitespace-only text is not sent and leaves
// the state untouched; sent reports whether a send happened.
func (c *Composer) Submit(ctx context.Context) (sent bool, err error) {
	c.mu.Lock()
	switch c.state {
	case Recording, Sending:
		c.mu.Unlock()
		return false, ErrBusy
	}
	if strings.TrimSpace(c.text) == "" {
		c.mu.Unlock()
		return false, nil
	}
	text := c.text
	c.state = Sending
	c.mu.Unlock()

	return true, c.finish(c.sender.SendMessage(ctx, text, nil), "text")
}

// StartRecording acquires the microphone. It is refused while text is
// staged or another action is running.
func (c *Composer) StartRecording(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Recording, Sending:
		return ErrBusy
	case Composing:
		if strings.TrimSpace(c.text) != "" {
			return ErrTextStaged
		}
	}

	h, err := c.recorder.Start(ctx)
	if err != nil {
		c.text = ""
		c.state = Idle
		if !errors.Is(err, capture.ErrPermissionDenied) {
			err = fmt.Errorf("%w: %v", capture.ErrPermissionDenied, err)
		}
		return err
	}
	c.text = ""
	c.handle = h
	c.state = Recording
	return nil
}

// StopRecording finalizes the voice note and sends it with empty text.
func (c *Composer) StopRecording(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Recording {
		c.mu.Unlock()
		return ErrNotRecording
	}
	h := c.handle
	c.handle = nil
	c.state = Sending
	c.mu.Unlock()

	data, err := h.Stop()
	h.Release()
	if err != nil {
		c.reset()
		return fmt.Errorf("failed to finalize recording: %w", err)
	}

	media := models.MediaFromBytes(h.Name(), data)
	return c.finish(c.sender.SendMessage(ctx, "", media), "voice")
}

// CancelRecording discards the recording in progress.
func (c *Composer) CancelRecording() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Recording {
		return
	}
	c.handle.Release()
	c.handle = nil
	c.state = Idle
}

// AttachFile reads path and sends it as media with empty text. A file that
// cannot be read leaves the composer as it was.
func (c *Composer) AttachFile(ctx context.Context, path string) error {
	c.mu.Lock()
	switch c.state {
	case Recording, Sending:
		c.mu.Unlock()
		return ErrBusy
	}
	prev := c.state
	c.state = Sending
	c.mu.Unlock()

	data, err := c.readFile(path)
	if err != nil {
		c.mu.Lock()
		c.state = prev
		c.mu.Unlock()
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	media := models.MediaFromBytes(filepath.Base(path), data)
	return c.finish(c.sender.SendMessage(ctx, "", media), "media")
}

// Close releases the microphone if a recording is still open.
func (c *Composer) Close() {
	c.CancelRecording()
}

// finish leaves Sending. The staged payload is dropped on failure too.
func (c *Composer) finish(sendErr error, kind string) error {
	log := logger.With("component", "composer", "kind", kind)

	c.mu.Lock()
	c.state = Idle
	c.text = ""
	hooks := append([]func(){}, c.onSent...)
	c.mu.Unlock()

	if sendErr != nil {
		log.Error("send failed", "error", sendErr)
		return sendErr
	}
	log.Info("message sent")
	for _, fn := range hooks {
		fn()
	}
	return nil
}

func (c *Composer) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Idle
	c.text = ""
}
