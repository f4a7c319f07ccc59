package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saravenpi/milkyway/internal/models"
)

type memoryUser struct {
	password string
	profile  models.UserProfile
}

// Memory is an in-process backend holding users, messages and blobs in maps.
// It backs `milkyway --demo` and the tests of the packages above this one.
type Memory struct {
	mu       sync.RWMutex
	creds    Credentials
	users    map[string]*memoryUser
	messages []models.ChatMessage
	blobs    map[string][]byte
	now      func() time.Time
	failNext error
}

func NewMemory(creds Credentials) *Memory {
	return &Memory{
		creds: creds,
		users: make(map[string]*memoryUser),
		blobs: make(map[string][]byte),
		now:   time.Now,
	}
}

// SetClock overrides the time source used to stamp new messages.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// AddUser registers a participant and returns its identity.
func (m *Memory) AddUser(username, password, status string) models.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := models.Identity(uuid.New().String())
	m.users[username] = &memoryUser{
		password: password,
		profile:  models.UserProfile{ID: id, Username: username, Status: status},
	}
	return id
}

// Seed appends a message as if sender had sent it at ts.
func (m *Memory) Seed(sender models.Identity, content string, media *models.MediaReference, ts int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, models.ChatMessage{Sender: sender, Content: content, Media: media, Timestamp: ts})
}

// Blob returns the bytes stored under a mem:// locator.
func (m *Memory) Blob(url string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[url]
	return data, ok
}

// FailNext makes the next call return err.
func (m *Memory) FailNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

// Caller must hold lock.
func (m *Memory) takeFailure() error {
	err := m.failNext
	m.failNext = nil
	return err
}

func (m *Memory) Login(ctx context.Context, username, password string) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	u, ok := m.users[username]
	if !ok {
		return nil, errors.New("User not found")
	}
	if u.password != password {
		return nil, errors.New("Incorrect password")
	}
	p := u.profile
	return &p, nil
}

// Caller must hold lock.
func (m *Memory) caller() (*memoryUser, error) {
	if m.creds == nil {
		return nil, ErrNotAuthenticated
	}
	username, secret, ok := m.creds()
	if !ok {
		return nil, ErrNotAuthenticated
	}
	u, found := m.users[username]
	if !found || u.password != secret {
		return nil, &RemoteError{Status: 401, Message: "Incorrect password"}
	}
	return u, nil
}

func (m *Memory) GetCallerUserProfile(ctx context.Context) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	u, err := m.caller()
	if err != nil {
		return nil, err
	}
	p := u.profile
	return &p, nil
}

func (m *Memory) GetUserProfile(ctx context.Context, id models.Identity) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	if _, err := m.caller(); err != nil {
		return nil, err
	}
	for _, u := range m.users {
		if u.profile.ID == id {
			p := u.profile
			return &p, nil
		}
	}
	return nil, nil
}

func (m *Memory) GetMessages(ctx context.Context) ([]models.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	if _, err := m.caller(); err != nil {
		return nil, err
	}
	out := make([]models.ChatMessage, len(m.messages))
	copy(out, m.messages)
	return out, nil
}

func (m *Memory) SendMessage(ctx context.Context, content string, media *models.MediaReference) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	u, err := m.caller()
	if err != nil {
		return err
	}
	media = m.store(media)

	ts := m.now().Unix()
	if n := len(m.messages); n > 0 && m.messages[n-1].Timestamp > ts {
		ts = m.messages[n-1].Timestamp
	}
	m.messages = append(m.messages, models.ChatMessage{
		Sender:    u.profile.ID,
		Content:   content,
		Media:     media,
		Timestamp: ts,
	})
	return nil
}

func (m *Memory) UpdateProfile(ctx context.Context, picture *models.MediaReference, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	u, err := m.caller()
	if err != nil {
		return err
	}
	u.profile.Status = status
	u.profile.ProfilePicture = m.store(picture)
	return nil
}

// GetGallery lists the media of every message in send order.
func (m *Memory) GetGallery(ctx context.Context) ([]models.MediaReference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	if _, err := m.caller(); err != nil {
		return nil, err
	}
	var out []models.MediaReference
	for _, msg := range m.messages {
		if msg.Media != nil {
			out = append(out, models.MediaReference{URL: msg.Media.URL})
		}
	}
	return out, nil
}

// store turns a pending reference into a mem:// locator. Caller must hold
// lock.
func (m *Memory) store(ref *models.MediaReference) *models.MediaReference {
	if !ref.Pending() {
		return ref
	}
	url := fmt.Sprintf("mem://blobs/%s/%s", uuid.New().String(), ref.Name)
	m.blobs[url] = append([]byte(nil), ref.Contents...)
	return models.MediaFromURL(url)
}
