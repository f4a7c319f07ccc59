// Package profile caches the caller's and the counterpart's profiles. The
// cache is only ever filled from the network; edits go through Update,
// which invalidates both entries on success.
package profile

import (
	"context"
	"fmt"
	"sync"

	"github.com/saravenpi/milkyway/internal/logger"
	"github.com/saravenpi/milkyway/internal/models"
)

type Source interface {
	GetCallerUserProfile(ctx context.Context) (*models.UserProfile, error)
	GetUserProfile(ctx context.Context, id models.Identity) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, picture *models.MediaReference, status string) error
}

type entry struct {
	profile *models.UserProfile
	valid   bool
}

type Cache struct {
	source Source

	mu           sync.Mutex
	caller       entry
	counterparts map[models.Identity]entry
	// gen is bumped whenever the cache is reset; fetches that began under an
	// older generation are returned but not stored.
	gen uint64
}

func NewCache(source Source) *Cache {
	return &Cache{
		source:       source,
		counterparts: make(map[models.Identity]entry),
	}
}

// Seed stores the profile returned by login as the caller's.
func (c *Cache) Seed(p *models.UserProfile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.caller = entry{profile: clone(p), valid: true}
}

// Caller returns the caller's profile, nil when the backend has none.
func (c *Cache) Caller(ctx context.Context) (*models.UserProfile, error) {
	c.mu.Lock()
	if c.caller.valid {
		p := clone(c.caller.profile)
		c.mu.Unlock()
		return p, nil
	}
	gen := c.gen
	c.mu.Unlock()

	p, err := c.source.GetCallerUserProfile(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if gen == c.gen {
		c.caller = entry{profile: clone(p), valid: true}
	}
	c.mu.Unlock()
	return p, nil
}

// Counterpart returns the profile of the other participant.
func (c *Cache) Counterpart(ctx context.Context, id models.Identity) (*models.UserProfile, error) {
	c.mu.Lock()
	if e, ok := c.counterparts[id]; ok && e.valid {
		p := clone(e.profile)
		c.mu.Unlock()
		return p, nil
	}
	gen := c.gen
	c.mu.Unlock()

	p, err := c.source.GetUserProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if gen == c.gen {
		c.counterparts[id] = entry{profile: clone(p), valid: true}
	}
	c.mu.Unlock()
	return p, nil
}

// Update sends the new status and picture. A nil picture keeps the current
// one, refetching the caller's profile when the cached copy is stale. On
// failure the cache is left untouched.
func (c *Cache) Update(ctx context.Context, picture *models.MediaReference, status string) error {
	if picture == nil {
		current, err := c.Caller(ctx)
		if err != nil {
			logger.With("component", "profile").Error("failed to resolve current picture", "error", err)
			return fmt.Errorf("failed to resolve current picture: %w", err)
		}
		if current != nil && current.ProfilePicture != nil {
			picture = models.MediaFromURL(current.ProfilePicture.URL)
		}
	}

	if err := c.source.UpdateProfile(ctx, picture, status); err != nil {
		logger.With("component", "profile").Error("profile update failed", "error", err)
		return err
	}
	c.Invalidate()
	return nil
}

// Invalidate marks every cached profile stale.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.caller.valid = false
	for id, e := range c.counterparts {
		e.valid = false
		c.counterparts[id] = e
	}
}

// Clear forgets every profile.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.caller = entry{}
	c.counterparts = make(map[models.Identity]entry)
}

// Cached returns the caller's profile without a network call.
func (c *Cache) Cached() *models.UserProfile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return clone(c.caller.profile)
}

func clone(p *models.UserProfile) *models.UserProfile {
	if p == nil {
		return nil
	}
	cp := *p
	if p.ProfilePicture != nil {
		pic := *p.ProfilePicture
		cp.ProfilePicture = &pic
	}
	return &cp
}
