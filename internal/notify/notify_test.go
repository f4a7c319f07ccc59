package notify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type call struct{ title, message string }

func TestPushReachesSubscribers(t *testing.T) {
	var calls []call
	SetDesktop(func(title, message string) error {
		calls = append(calls, call{title, message})
		return nil
	})
	defer SetDesktop(func(string, string) error { return nil })

	n := New(false)
	var got []Toast
	n.Subscribe(func(t Toast) { got = append(got, t) })

	n.Push(Succeeded(MediaSent))
	n.Push(Failed(SendFailed))
	n.Push(Notice(LoggedOut))

	assert.Equal(t, []Toast{{Success, MediaSent}, {Error, SendFailed}, {Info, LoggedOut}}, got)
	assert.Empty(t, calls)
}

func TestPushMirrorsToDesktop(t *testing.T) {
	var calls []call
	SetDesktop(func(title, message string) error {
		calls = append(calls, call{title, message})
		return errors.New("no dbus")
	})
	defer SetDesktop(func(string, string) error { return nil })

	n := New(true)
	n.Push(Succeeded(VoiceSent))

	assert.Equal(t, []call{{"milkyway", VoiceSent}}, calls)
}
