// Package gallery lists every media item shared in the conversation, as
// reported by the backend in a single call.
package gallery

import (
	"context"
	"sync"

	"github.com/saravenpi/milkyway/internal/logger"
	"github.com/saravenpi/milkyway/internal/media"
	"github.com/saravenpi/milkyway/internal/models"
)

const EmptyText = "No media shared yet"

type Source interface {
	GetGallery(ctx context.Context) ([]models.MediaReference, error)
}

// Cache persists the last fetched list per user.
type Cache interface {
	SaveGallery(owner string, items []models.MediaReference) error
	LoadGallery(owner string) ([]models.MediaReference, error)
}

type Item struct {
	Ref  models.MediaReference
	Kind models.MediaKind
}

type Aggregator struct {
	source Source
	cache  Cache

	mu     sync.Mutex
	items  []Item
	loaded bool
	stale  bool
	// gen is bumped by Invalidate and Clear; fetches started under an older
	// generation are not stored.
	gen uint64
}

func New(source Source, cache Cache) *Aggregator {
	return &Aggregator{source: source, cache: cache}
}

// List returns the gallery, fetching it when it was never loaded or has
// been invalidated. On failure the previous list is returned with the error.
func (a *Aggregator) List(ctx context.Context, owner string) ([]Item, error) {
	a.mu.Lock()
	if a.loaded && !a.stale {
		items := append([]Item(nil), a.items...)
		a.mu.Unlock()
		return items, nil
	}
	a.mu.Unlock()
	return a.Refresh(ctx, owner)
}

// Refresh always refetches. A response that arrives after Invalidate or
// Clear is returned to the caller but not kept.
func (a *Aggregator) Refresh(ctx context.Context, owner string) ([]Item, error) {
	a.mu.Lock()
	gen := a.gen
	a.mu.Unlock()

	refs, err := a.source.GetGallery(ctx)
	if err != nil {
		a.mu.Lock()
		defer a.mu.Unlock()
		if !a.loaded && gen == a.gen {
			a.loadCachedLocked(owner)
		}
		return append([]Item(nil), a.items...), err
	}

	items := Classify(refs)

	a.mu.Lock()
	if gen != a.gen {
		a.mu.Unlock()
		logger.With("component", "gallery").Debug("discarding late gallery response", "owner", owner)
		return items, nil
	}
	a.items = items
	a.loaded = true
	a.stale = false
	a.mu.Unlock()

	if a.cache != nil && owner != "" {
		if err := a.cache.SaveGallery(owner, refs); err != nil {
			logger.With("component", "gallery").Warn("failed to cache gallery", "error", err)
		}
	}
	return append([]Item(nil), items...), nil
}

// Invalidate forces the next List to refetch.
func (a *Aggregator) Invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stale = true
	a.gen++
}

// Clear forgets the list entirely.
func (a *Aggregator) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items = nil
	a.loaded = false
	a.stale = false
	a.gen++
}

// Caller must hold lock.
func (a *Aggregator) loadCachedLocked(owner string) {
	if a.cache == nil || owner == "" {
		return
	}
	refs, err := a.cache.LoadGallery(owner)
	if err != nil {
		return
	}
	a.items = Classify(refs)
}

// Classify tags each reference with its display kind.
func Classify(refs []models.MediaReference) []Item {
	items := make([]Item, 0, len(refs))
	for _, ref := range refs {
		items = append(items, Item{Ref: ref, Kind: media.Classify(ref.URL)})
	}
	return items
}
