// Package notify carries short user-facing notices (toasts) from actions to
// the UI, optionally mirroring them as desktop notifications.
package notify

import (
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/saravenpi/milkyway/internal/logger"
)

type Level int

const (
	Info Level = iota
	Success
	Error
)

// Toast texts shown after user actions.
const (
	Welcome             = "Welcome!"
	SendFailed          = "Failed to send message"
	MediaSent           = "Media sent!"
	MediaFailed         = "Failed to send media"
	VoiceSent           = "Voice note sent!"
	VoiceFailed         = "Failed to send voice note"
	MicrophoneDenied    = "Microphone access denied"
	ProfileUpdated      = "Profile updated!"
	ProfileUpdateFailed = "Failed to update profile"
	LoggedOut           = "Logged out"
)

type Toast struct {
	Level Level
	Text  string
}

func Notice(text string) Toast { return Toast{Level: Info, Text: text} }
func Succeeded(text string) Toast { return Toast{Level: Success, Text: text} }
func Failed(text string) Toast { return Toast{Level: Error, Text: text} }

var (
	desktopMu sync.Mutex
	desktop   = func(title, message string) error { return beeep.Notify(title, message, "") }
)

// SetDesktop replaces the desktop notification function. Used by tests.
func SetDesktop(fn func(title, message string) error) {
	desktopMu.Lock()
	defer desktopMu.Unlock()
	desktop = fn
}

// Notifier fans toasts out to subscribers and, when enabled, to the desktop.
type Notifier struct {
	mu      sync.Mutex
	desktop bool
	subs    []func(Toast)
}

func New(desktop bool) *Notifier {
	return &Notifier{desktop: desktop}
}

func (n *Notifier) Subscribe(fn func(Toast)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = append(n.subs, fn)
}

func (n *Notifier) Push(t Toast) {
	n.mu.Lock()
	subs := append([]func(Toast){}, n.subs...)
	mirror := n.desktop
	n.mu.Unlock()

	for _, fn := range subs {
		fn(t)
	}
	if mirror {
		Desktop("milkyway", t.Text)
	}
}

// Desktop sends a desktop notification, logging rather than returning
// failures.
func Desktop(title, message string) {
	desktopMu.Lock()
	fn := desktop
	desktopMu.Unlock()

	if err := fn(title, message); err != nil {
		logger.With("component", "notify").Warn("desktop notification failed", "error", err)
	}
}
