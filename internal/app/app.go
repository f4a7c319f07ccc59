// Package app wires the client together: it owns the session store, the
// backend, the synchronizer, the composer, the gallery and the profile
// cache, and turns the results of user actions into toasts.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/saravenpi/milkyway/internal/backend"
	"github.com/saravenpi/milkyway/internal/cache"
	"github.com/saravenpi/milkyway/internal/capture"
	"github.com/saravenpi/milkyway/internal/composer"
	"github.com/saravenpi/milkyway/internal/config"
	"github.com/saravenpi/milkyway/internal/conversation"
	"github.com/saravenpi/milkyway/internal/gallery"
	"github.com/saravenpi/milkyway/internal/logger"
	"github.com/saravenpi/milkyway/internal/models"
	"github.com/saravenpi/milkyway/internal/notify"
	"github.com/saravenpi/milkyway/internal/profile"
	"github.com/saravenpi/milkyway/internal/session"
	"github.com/saravenpi/milkyway/internal/syncer"
)

type Options struct {
	Config   *config.Config
	Store    *session.Store
	Backend  backend.Backend
	Cache    *cache.Cache
	Recorder capture.Recorder
	Notifier *notify.Notifier
	// Clock anchors the day labels of the room. Defaults to time.Now.
	Clock func() time.Time
}

type App struct {
	Config   *config.Config
	Store    *session.Store
	Backend  backend.Backend
	Sync     *syncer.Synchronizer
	Composer *composer.Composer
	Gallery  *gallery.Aggregator
	Profiles *profile.Cache
	Notifier *notify.Notifier

	cache *cache.Cache
	clock func() time.Time

	mu          sync.Mutex
	self        models.Identity
	unsubscribe func()
}

// CredentialsFrom exposes the session record to the backend.
func CredentialsFrom(store *session.Store) backend.Credentials {
	return func() (string, string, bool) {
		s := store.Current()
		return s.Username, s.CredentialSecret, s.IsAuthenticated
	}
}

func New(opts Options) *App {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.New(cfg.DesktopNotifications)
	}
	if opts.Recorder == nil {
		opts.Recorder = capture.NewExecRecorder(cfg.RecorderCommand)
	}
	if opts.Backend == nil {
		opts.Backend = backend.NewClient(cfg.ServerURL, cfg.RequestTimeout(), CredentialsFrom(opts.Store))
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	a := &App{
		Config:   cfg,
		Store:    opts.Store,
		Backend:  opts.Backend,
		Notifier: opts.Notifier,
		Profiles: profile.NewCache(opts.Backend),
		Composer: composer.New(opts.Backend, opts.Recorder),
		cache:    opts.Cache,
		clock:    opts.Clock,
	}

	syncOpts := syncer.Options{Interval: cfg.PollInterval()}
	var galleryCache gallery.Cache
	if opts.Cache != nil {
		syncOpts.Cache = opts.Cache
		galleryCache = opts.Cache
	}
	a.Sync = syncer.New(opts.Backend, a.owner, syncOpts)
	a.Gallery = gallery.New(opts.Backend, galleryCache)

	a.Composer.OnSent(func() {
		a.Sync.Invalidate()
		a.Gallery.Invalidate()
	})

	a.unsubscribe = a.Store.Subscribe(func(s session.Session) {
		if !s.IsAuthenticated {
			a.teardown()
		}
	})
	return a
}

// owner gates polling on the session.
func (a *App) owner() (string, bool) {
	s := a.Store.Current()
	return s.Username, s.IsAuthenticated
}

func (a *App) Authenticated() bool {
	return a.Store.IsAuthenticated()
}

// Self is the local user's identity, empty until it is known.
func (a *App) Self() models.Identity {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.self
}

func (a *App) setSelf(id models.Identity) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.self = id
}

// Login lowercases the username, authenticates against the backend and
// records the session. Classified failures carry backend.ErrInvalidCredentials
// or backend.ErrAuthSystem.
func (a *App) Login(ctx context.Context, username, password string) (*models.UserProfile, error) {
	log := logger.With("component", "app")
	username = strings.ToLower(username)

	p, err := a.Backend.Login(ctx, username, password)
	if err != nil {
		err = backend.ClassifyLoginError(err)
		log.Warn("login failed", "username", username, "error", err)
		return nil, err
	}
	if err := a.Store.Login(username, password); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	a.Profiles.Seed(p)
	if p != nil {
		a.setSelf(p.ID)
	}
	log.Info("logged in", "username", username)
	a.Notifier.Push(notify.Succeeded(notify.Welcome))
	return p, nil
}

// Resume restores the identity of a session loaded from disk. Without it the
// room falls back to guessing ownership from consecutive senders.
func (a *App) Resume(ctx context.Context) error {
	if !a.Authenticated() || a.Self() != "" {
		return nil
	}
	p, err := a.Profiles.Caller(ctx)
	if err != nil {
		logger.With("component", "app").Warn("failed to resolve own identity", "error", err)
		return err
	}
	if p != nil {
		a.setSelf(p.ID)
	}
	return nil
}

// Logout clears the session and every client-side cache.
func (a *App) Logout() error {
	if err := a.Store.Logout(); err != nil {
		return err
	}
	a.teardown()
	logger.With("component", "app").Info("logged out")
	a.Notifier.Push(notify.Notice(notify.LoggedOut))
	return nil
}

func (a *App) teardown() {
	a.Composer.Close()
	a.Sync.Stop()
	a.Sync.Reset()
	a.Gallery.Clear()
	a.Profiles.Clear()
	a.setSelf("")
	if a.cache != nil {
		if err := a.cache.Clear(); err != nil {
			logger.With("component", "app").Warn("failed to clear cache", "error", err)
		}
	}
}

// Watch follows session changes made by other processes.
func (a *App) Watch(ctx context.Context) error {
	return a.Store.Watch(ctx)
}

// Room groups a snapshot for display.
func (a *App) Room(messages []models.ChatMessage) []conversation.DisplayItem {
	return conversation.Group(messages, conversation.Options{
		Self: a.Self(),
		Now:  a.clock(),
	})
}

// Counterpart finds the other participant in messages and fetches their
// profile. It returns nil, nil when nobody else has written yet.
func (a *App) Counterpart(ctx context.Context, messages []models.ChatMessage) (*models.UserProfile, error) {
	self := a.Self()
	if self == "" {
		return nil, nil
	}
	id, ok := conversation.Counterpart(messages, self)
	if !ok {
		return nil, nil
	}
	return a.Profiles.Counterpart(ctx, id)
}

func (a *App) GalleryItems(ctx context.Context) ([]gallery.Item, error) {
	owner, _ := a.owner()
	return a.Gallery.List(ctx, owner)
}

// SendText submits the composer's staged text.
func (a *App) SendText(ctx context.Context) error {
	sent, err := a.Composer.Submit(ctx)
	if err != nil && sent {
		a.Notifier.Push(notify.Failed(notify.SendFailed))
	}
	return err
}

func (a *App) AttachFile(ctx context.Context, path string) error {
	if err := a.Composer.AttachFile(ctx, path); err != nil {
		if !errors.Is(err, composer.ErrBusy) {
			a.Notifier.Push(notify.Failed(notify.MediaFailed))
		}
		return err
	}
	a.Notifier.Push(notify.Succeeded(notify.MediaSent))
	return nil
}

func (a *App) StartRecording(ctx context.Context) error {
	err := a.Composer.StartRecording(ctx)
	if errors.Is(err, capture.ErrPermissionDenied) {
		a.Notifier.Push(notify.Failed(notify.MicrophoneDenied))
	}
	return err
}

func (a *App) StopRecording(ctx context.Context) error {
	if err := a.Composer.StopRecording(ctx); err != nil {
		if !errors.Is(err, composer.ErrNotRecording) {
			a.Notifier.Push(notify.Failed(notify.VoiceFailed))
		}
		return err
	}
	a.Notifier.Push(notify.Succeeded(notify.VoiceSent))
	return nil
}

// UpdateProfile sets the status and, when picturePath is not empty, a new
// picture read from disk. Otherwise the current picture is kept.
func (a *App) UpdateProfile(ctx context.Context, picturePath, status string) error {
	var picture *models.MediaReference
	if picturePath != "" {
		data, err := os.ReadFile(picturePath)
		if err != nil {
			a.Notifier.Push(notify.Failed(notify.ProfileUpdateFailed))
			return fmt.Errorf("failed to read %s: %w", picturePath, err)
		}
		picture = models.MediaFromBytes(filepath.Base(picturePath), data)
	}

	if err := a.Profiles.Update(ctx, picture, status); err != nil {
		a.Notifier.Push(notify.Failed(notify.ProfileUpdateFailed))
		return err
	}
	a.Notifier.Push(notify.Succeeded(notify.ProfileUpdated))
	return nil
}

// Close stops background work and releases the microphone.
func (a *App) Close() error {
	a.Composer.Close()
	a.Sync.Stop()
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	if a.cache != nil {
		return a.cache.Close()
	}
	return nil
}
