package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saravenpi/milkyway/internal/models"
)

type fakeSource struct {
	caller      *models.UserProfile
	others      map[models.Identity]*models.UserProfile
	updateErr   error
	callerCalls int
	lastPicture *models.MediaReference
}

func (f *fakeSource) GetCallerUserProfile(ctx context.Context) (*models.UserProfile, error) {
	f.callerCalls++
	return f.caller, nil
}

func (f *fakeSource) GetUserProfile(ctx context.Context, id models.Identity) (*models.UserProfile, error) {
	return f.others[id], nil
}

func (f *fakeSource) UpdateProfile(ctx context.Context, picture *models.MediaReference, status string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.lastPicture = picture
	f.caller = &models.UserProfile{ID: f.caller.ID, Username: f.caller.Username, Status: status, ProfilePicture: picture}
	return nil
}

func newSource() *fakeSource {
	return &fakeSource{
		caller: &models.UserProfile{
			ID:             "a",
			Username:       "alice",
			Status:         "online",
			ProfilePicture: models.MediaFromURL("https://x/me.jpg"),
		},
		others: map[models.Identity]*models.UserProfile{"b": {ID: "b", Username: "bob"}},
	}
}

func TestCallerIsCached(t *testing.T) {
	src := newSource()
	c := NewCache(src)

	p, err := c.Caller(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Username)

	_, err = c.Caller(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, src.callerCalls)
}

func TestFailedUpdateLeavesCacheUnchanged(t *testing.T) {
	src := newSource()
	src.updateErr = errors.New("Unauthorized")
	c := NewCache(src)

	_, err := c.Caller(context.Background())
	require.NoError(t, err)

	err = c.Update(context.Background(), nil, "away")
	assert.EqualError(t, err, "Unauthorized")

	p, err := c.Caller(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "online", p.Status)
	assert.Equal(t, 1, src.callerCalls)
}

func TestUpdateInvalidatesAndKeepsPicture(t *testing.T) {
	src := newSource()
	c := NewCache(src)

	_, err := c.Caller(context.Background())
	require.NoError(t, err)
	_, err = c.Counterpart(context.Background(), "b")
	require.NoError(t, err)

	require.NoError(t, c.Update(context.Background(), nil, "away"))
	require.NotNil(t, src.lastPicture)
	assert.Equal(t, "https://x/me.jpg", src.lastPicture.URL)

	p, err := c.Caller(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "away", p.Status)
	assert.Equal(t, 2, src.callerCalls)
}

func TestCounterpartAbsent(t *testing.T) {
	c := NewCache(newSource())
	p, err := c.Counterpart(context.Background(), "zed")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestCachedCopiesAreIndependent(t *testing.T) {
	c := NewCache(newSource())
	c.Seed(&models.UserProfile{ID: "a", Username: "alice", Status: "s"})

	p := c.Cached()
	p.Status = "mutated"
	assert.Equal(t, "s", c.Cached().Status)

	c.Clear()
	assert.Nil(t, c.Cached())
}

func TestConsecutiveStatusUpdatesKeepPicture(t *testing.T) {
	src := newSource()
	c := NewCache(src)

	require.NoError(t, c.Update(context.Background(), models.MediaFromURL("https://x/new.png"), "first"))
	require.NoError(t, c.Update(context.Background(), nil, "second"))

	require.NotNil(t, src.lastPicture)
	assert.Equal(t, "https://x/new.png", src.lastPicture.URL)
	assert.Equal(t, "second", src.caller.Status)
}

type slowSource struct {
	*fakeSource
	started chan struct{}
	release chan struct{}
}

func (s *slowSource) GetCallerUserProfile(ctx context.Context) (*models.UserProfile, error) {
	close(s.started)
	<-s.release
	return s.fakeSource.GetCallerUserProfile(ctx)
}

func TestLateCallerResponseAfterClearIsDropped(t *testing.T) {
	src := &slowSource{fakeSource: newSource(), started: make(chan struct{}), release: make(chan struct{})}
	c := NewCache(src)

	done := make(chan struct{})
	go func() {
		defer close(done)
		p, err := c.Caller(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, "alice", p.Username)
	}()

	<-src.started
	c.Clear()
	close(src.release)
	<-done

	assert.Nil(t, c.Cached())
}
