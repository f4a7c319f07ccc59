// Package syncer keeps the client's view of the conversation current by
// polling the full message list on a fixed interval and replacing the local
// snapshot wholesale with every successful response.
package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/saravenpi/milkyway/internal/logger"
	"github.com/saravenpi/milkyway/internal/models"
)

const DefaultInterval = 3 * time.Second

var ErrSuspended = errors.New("message sync suspended: not logged in")

type MessageSource interface {
	GetMessages(ctx context.Context) ([]models.ChatMessage, error)
}

// SnapshotCache persists the last-known-good snapshot per user.
type SnapshotCache interface {
	SaveMessages(owner string, messages []models.ChatMessage) error
	LoadMessages(owner string) ([]models.ChatMessage, error)
}

// Gate returns the logged-in username. Polling is suspended while ok is
// false.
type Gate func() (owner string, ok bool)

type Options struct {
	Interval time.Duration
	// Limiter throttles refetches triggered by Invalidate. Timer-driven polls
	// are not limited.
	Limiter *rate.Limiter
	Cache   SnapshotCache
}

type Synchronizer struct {
	source   MessageSource
	gate     Gate
	interval time.Duration
	limiter  *rate.Limiter
	cache    SnapshotCache

	mu         sync.Mutex
	snapshot   []models.ChatMessage
	stale      bool
	generation uint64
	out        chan []models.ChatMessage
	kick       chan struct{}
	cancel     context.CancelFunc
	done       chan struct{}
}

func New(source MessageSource, gate Gate, opts Options) *Synchronizer {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Limiter == nil {
		opts.Limiter = rate.NewLimiter(rate.Every(250*time.Millisecond), 2)
	}
	return &Synchronizer{
		source:   source,
		gate:     gate,
		interval: opts.Interval,
		limiter:  opts.Limiter,
		cache:    opts.Cache,
		kick:     make(chan struct{}, 1),
	}
}

// Start begins polling and returns a channel carrying every new snapshot.
// A slow reader only ever sees the most recent one. Calling Start while
// already running returns the existing channel.
func (s *Synchronizer) Start(ctx context.Context) <-chan []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.out != nil {
		return s.out
	}

	ctx, cancel := context.WithCancel(ctx)
	s.out = make(chan []models.ChatMessage, 1)
	s.cancel = cancel
	s.done = make(chan struct{})

	s.seedLocked()
	go s.run(ctx, s.done)
	return s.out
}

// Stop cancels polling and closes the snapshot channel. Responses that
// arrive afterwards are discarded.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	if s.out == nil {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.generation++
	done := s.done
	s.mu.Unlock()

	<-done

	s.mu.Lock()
	close(s.out)
	s.out = nil
	s.mu.Unlock()
}

// Reset drops the snapshot, e.g. on logout. In-flight responses are
// discarded.
func (s *Synchronizer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.snapshot = nil
	s.stale = false
}

func (s *Synchronizer) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out != nil
}

// Snapshot returns a copy of the last-known-good message list.
func (s *Synchronizer) Snapshot() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ChatMessage(nil), s.snapshot...)
}

// Stale reports whether the snapshot was invalidated and not refetched yet.
func (s *Synchronizer) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}

// Invalidate marks the snapshot stale and asks the poll loop for an
// immediate refetch.
func (s *Synchronizer) Invalidate() {
	s.mu.Lock()
	s.stale = true
	s.mu.Unlock()

	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Refresh fetches once and applies the result. It works whether or not the
// poll loop is running.
func (s *Synchronizer) Refresh(ctx context.Context) ([]models.ChatMessage, error) {
	owner, ok := s.gate()
	if !ok {
		return nil, ErrSuspended
	}

	gen := s.currentGeneration()
	messages, err := s.source.GetMessages(ctx)
	if err != nil {
		return nil, err
	}
	s.apply(gen, owner, messages)
	return messages, nil
}

func (s *Synchronizer) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	s.poll(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.poll(ctx)
		case <-s.kick:
			if err := s.limiter.Wait(ctx); err != nil {
				return
			}
			s.poll(ctx)
			ticker.Reset(s.interval)
		}
	}
}

func (s *Synchronizer) poll(ctx context.Context) {
	log := logger.With("component", "syncer")

	owner, ok := s.gate()
	if !ok {
		return
	}

	gen := s.currentGeneration()
	messages, err := s.source.GetMessages(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn("poll failed, keeping last snapshot", "error", err)
		}
		return
	}
	s.apply(gen, owner, messages)
}

func (s *Synchronizer) currentGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func (s *Synchronizer) apply(gen uint64, owner string, messages []models.ChatMessage) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		logger.With("component", "syncer").Debug("discarding late snapshot")
		return
	}
	s.snapshot = messages
	s.stale = false
	s.publishLocked(messages)
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.SaveMessages(owner, messages); err != nil {
			logger.With("component", "syncer").Warn("failed to cache snapshot", "error", err)
		}
	}
}

// Caller must hold lock.
func (s *Synchronizer) publishLocked(messages []models.ChatMessage) {
	if s.out == nil {
		return
	}
	select {
	case <-s.out:
	default:
	}
	s.out <- append([]models.ChatMessage(nil), messages...)
}

// seedLocked publishes the snapshot kept from a previous run, or the cached
// one. Caller must hold lock.
func (s *Synchronizer) seedLocked() {
	if len(s.snapshot) == 0 && s.cache != nil {
		if owner, ok := s.gate(); ok {
			cached, err := s.cache.LoadMessages(owner)
			if err != nil {
				logger.With("component", "syncer").Warn("failed to load cached snapshot", "error", err)
			} else {
				s.snapshot = cached
			}
		}
	}
	if len(s.snapshot) > 0 {
		s.publishLocked(s.snapshot)
	}
}
