// Package session persists the login state of the client in a single named
// slot of a YAML file (~/.milkyway/session.yml), so a restart does not require
// logging in again.
//
// The Store is the only writer of that slot. It never talks to the backend:
// credentials are validated elsewhere and the result is recorded here.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// SlotName is the well-known key the session record is stored under.
const SlotName = "milky-way-session"

var ErrIncompleteCredentials = errors.New("username and credential secret are both required")

// Session is the persisted authentication record. IsAuthenticated is true
// iff both Username and CredentialSecret are set; Store never produces any
// other combination.
type Session struct {
	Username         string `yaml:"username,omitempty"`
	CredentialSecret string `yaml:"password,omitempty"`
	IsAuthenticated  bool   `yaml:"is_authenticated"`
}

// Valid reports whether the record satisfies the session invariant.
func (s Session) Valid() bool {
	complete := s.Username != "" && s.CredentialSecret != ""
	empty := s.Username == "" && s.CredentialSecret == ""
	return (complete && s.IsAuthenticated) || (empty && !s.IsAuthenticated)
}

type Store struct {
	mu        sync.RWMutex
	path      string
	current   Session
	listeners map[int]func(Session)
	nextID    int
}

// Open loads the session slot from path. A missing file yields a logged-out
// store; a record that violates the invariant is treated as logged out too.
func Open(path string) (*Store, error) {
	s := &Store{
		path:      path,
		listeners: make(map[int]func(Session)),
	}
	sess, err := readSlot(path)
	if err != nil {
		return nil, err
	}
	s.current = sess
	return s, nil
}

func (s *Store) Path() string {
	return s.path
}

// Current returns a copy of the session record.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.IsAuthenticated
}

// Login records a successful authentication and persists it.
func (s *Store) Login(username, secret string) error {
	if username == "" || secret == "" {
		return ErrIncompleteCredentials
	}
	return s.set(Session{Username: username, CredentialSecret: secret, IsAuthenticated: true})
}

// Logout clears all three fields in one write.
func (s *Store) Logout() error {
	return s.set(Session{})
}

// Subscribe registers fn to be called after every change of the record,
// including changes picked up from disk by Watch. The returned func removes
// the subscription.
func (s *Store) Subscribe(fn func(Session)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Reload re-reads the slot from disk and notifies subscribers if it changed.
func (s *Store) Reload() error {
	sess, err := readSlot(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	changed := sess != s.current
	s.current = sess
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	if changed {
		notify(listeners, sess)
	}
	return nil
}

func (s *Store) set(sess Session) error {
	s.mu.Lock()
	if err := writeSlot(s.path, sess); err != nil {
		s.mu.Unlock()
		return err
	}
	changed := sess != s.current
	s.current = sess
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	if changed {
		notify(listeners, sess)
	}
	return nil
}

// Caller must hold lock.
func (s *Store) snapshotListeners() []func(Session) {
	out := make([]func(Session), 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(listeners []func(Session), sess Session) {
	for _, fn := range listeners {
		fn(sess)
	}
}

func readSlot(path string) (Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Session{}, nil
		}
		return Session{}, fmt.Errorf("failed to read session file: %w", err)
	}

	slots := map[string]Session{}
	if err := yaml.Unmarshal(data, &slots); err != nil {
		return Session{}, fmt.Errorf("failed to parse session file: %w", err)
	}
	sess := slots[SlotName]
	if !sess.Valid() {
		return Session{}, nil
	}
	return sess, nil
}

// writeSlot replaces the file through a rename so readers never observe a
// half-written record.
func writeSlot(path string, sess Session) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := yaml.Marshal(map[string]Session{SlotName: sess})
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.yml")
	if err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}
