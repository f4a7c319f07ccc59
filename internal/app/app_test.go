package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saravenpi/milkyway/internal/backend"
	"github.com/saravenpi/milkyway/internal/cache"
	"github.com/saravenpi/milkyway/internal/capture"
	"github.com/saravenpi/milkyway/internal/config"
	"github.com/saravenpi/milkyway/internal/conversation"
	"github.com/saravenpi/milkyway/internal/models"
	"github.com/saravenpi/milkyway/internal/notify"
	"github.com/saravenpi/milkyway/internal/session"
)

type deniedRecorder struct{}

func (deniedRecorder) Start(ctx context.Context) (capture.Handle, error) {
	return nil, errors.New("no such device")
}

type harness struct {
	app    *App
	mem    *backend.Memory
	store  *session.Store
	alice  models.Identity
	bob    models.Identity
	mu     sync.Mutex
	toasts []notify.Toast
}

func (h *harness) lastToast() notify.Toast {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.toasts) == 0 {
		return notify.Toast{}
	}
	return h.toasts[len(h.toasts)-1]
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()

	store, err := session.Open(filepath.Join(dir, "session.yml"))
	require.NoError(t, err)

	c, err := cache.Open(filepath.Join(dir, "cache.db"))
	require.NoError(t, err)

	cfg := config.Default()
	cfg.DataDir = dir
	cfg.PollIntervalMS = 20

	mem := backend.NewMemory(CredentialsFrom(store))
	h := &harness{mem: mem, store: store}
	h.alice = mem.AddUser("alice", "p1", "online")
	h.bob = mem.AddUser("bob", "p2", "")

	n := notify.New(false)
	n.Subscribe(func(t notify.Toast) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.toasts = append(h.toasts, t)
	})

	h.app = New(Options{
		Config:   cfg,
		Store:    store,
		Backend:  mem,
		Cache:    c,
		Recorder: deniedRecorder{},
		Notifier: n,
	})
	t.Cleanup(func() { _ = h.app.Close() })
	return h
}

func TestLoginLowercasesAndPersists(t *testing.T) {
	h := newHarness(t)

	p, err := h.app.Login(context.Background(), "Alice", "p1")
	require.NoError(t, err)
	assert.Equal(t, h.alice, p.ID)
	assert.Equal(t, session.Session{Username: "alice", CredentialSecret: "p1", IsAuthenticated: true}, h.store.Current())
	assert.Equal(t, h.alice, h.app.Self())
	assert.Equal(t, notify.Welcome, h.lastToast().Text)
}

func TestLoginFailureIsClassified(t *testing.T) {
	h := newHarness(t)

	_, err := h.app.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, backend.ErrInvalidCredentials)
	assert.Equal(t, backend.InvalidCredentialsMessage, backend.LoginErrorMessage(err))
	assert.False(t, h.store.IsAuthenticated())

	h.mem.FailNext(errors.New("only admin can assign user roles"))
	_, err = h.app.Login(context.Background(), "alice", "p1")
	assert.ErrorIs(t, err, backend.ErrAuthSystem)
}

func TestSendTextShowsUpInNextFetch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.app.Login(ctx, "alice", "p1")
	require.NoError(t, err)

	require.NoError(t, h.app.Composer.SetText("hello bob"))
	require.NoError(t, h.app.SendText(ctx))
	assert.True(t, h.app.Sync.Stale())

	msgs, err := h.app.Sync.Refresh(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello bob", msgs[0].Content)
	assert.Equal(t, h.alice, msgs[0].Sender)
}

func TestAttachFileClassifiedOnNextFetch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.app.Login(ctx, "alice", "p1")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("ftyp"), 0600))
	require.NoError(t, h.app.AttachFile(ctx, path))
	assert.Equal(t, notify.MediaSent, h.lastToast().Text)

	items, err := h.app.GalleryItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.MediaVideo, items[0].Kind)

	msgs, err := h.app.Sync.Refresh(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "", msgs[0].Content)
}

func TestSendFailureToast(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.app.Login(ctx, "alice", "p1")
	require.NoError(t, err)

	h.mem.FailNext(errors.New("503"))
	require.NoError(t, h.app.Composer.SetText("hi"))
	assert.Error(t, h.app.SendText(ctx))
	assert.Equal(t, notify.Toast{Level: notify.Error, Text: notify.SendFailed}, h.lastToast())
}

func TestMicrophoneDenied(t *testing.T) {
	h := newHarness(t)
	_, err := h.app.Login(context.Background(), "alice", "p1")
	require.NoError(t, err)

	err = h.app.StartRecording(context.Background())
	assert.ErrorIs(t, err, capture.ErrPermissionDenied)
	assert.Equal(t, notify.MicrophoneDenied, h.lastToast().Text)
}

func TestUpdateProfile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.app.Login(ctx, "alice", "p1")
	require.NoError(t, err)

	h.mem.FailNext(errors.New("boom"))
	assert.Error(t, h.app.UpdateProfile(ctx, "", "away"))
	assert.Equal(t, notify.ProfileUpdateFailed, h.lastToast().Text)
	p, err := h.app.Profiles.Caller(ctx)
	require.NoError(t, err)
	assert.Equal(t, "online", p.Status)

	pic := filepath.Join(t.TempDir(), "me.png")
	require.NoError(t, os.WriteFile(pic, []byte("png"), 0600))
	require.NoError(t, h.app.UpdateProfile(ctx, pic, "away"))
	assert.Equal(t, notify.ProfileUpdated, h.lastToast().Text)

	p, err = h.app.Profiles.Caller(ctx)
	require.NoError(t, err)
	assert.Equal(t, "away", p.Status)
	require.NotNil(t, p.ProfilePicture)
	assert.Contains(t, p.ProfilePicture.URL, "me.png")
}

func TestCounterpartAndRoom(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.mem.Seed(h.alice, "hi", nil, 100)
	h.mem.Seed(h.bob, "hey", nil, 100)
	_, err := h.app.Login(ctx, "alice", "p1")
	require.NoError(t, err)

	msgs, err := h.app.Sync.Refresh(ctx)
	require.NoError(t, err)

	other, err := h.app.Counterpart(ctx, msgs)
	require.NoError(t, err)
	require.NotNil(t, other)
	assert.Equal(t, "bob", other.Username)

	items := h.app.Room(msgs)
	require.Len(t, items, 3)
	assert.Equal(t, conversation.ItemSeparator, items[0].Kind)
	assert.True(t, items[1].Own)
	assert.False(t, items[2].Own)
}

func TestLogoutStopsSyncAndClearsState(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.mem.Seed(h.bob, "hey", nil, 100)
	_, err := h.app.Login(ctx, "alice", "p1")
	require.NoError(t, err)

	ch := h.app.Sync.Start(ctx)
	<-ch
	require.NotEmpty(t, h.app.Sync.Snapshot())

	require.NoError(t, h.app.Logout())
	assert.False(t, h.app.Sync.Running())
	assert.Empty(t, h.app.Sync.Snapshot())
	assert.Nil(t, h.app.Profiles.Cached())
	assert.Equal(t, models.Identity(""), h.app.Self())
	assert.Equal(t, session.Session{}, h.store.Current())
	assert.Equal(t, notify.Toast{Level: notify.Info, Text: notify.LoggedOut}, h.lastToast())

	_, err = h.app.Sync.Refresh(ctx)
	assert.Error(t, err)
}

func TestExternalLogoutStopsSync(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err := h.app.Login(ctx, "alice", "p1")
	require.NoError(t, err)
	require.NoError(t, h.app.Watch(ctx))
	h.app.Sync.Start(ctx)

	other, err := session.Open(h.store.Path())
	require.NoError(t, err)
	require.NoError(t, other.Logout())

	assert.Eventually(t, func() bool { return !h.app.Sync.Running() }, 2*time.Second, 20*time.Millisecond)
}

func TestResumeRestoresIdentity(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.Login("alice", "p1"))

	require.NoError(t, h.app.Resume(context.Background()))
	assert.Equal(t, h.alice, h.app.Self())
}
