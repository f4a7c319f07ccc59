// Package backend defines the remote chat contract and its implementations:
// an HTTP JSON client for a real server and an in-memory backend for demos
// and tests.
package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/saravenpi/milkyway/internal/models"
)

// Backend is the request/response API the client polls. Every method is a
// suspension point; none of them is ordered with respect to the others.
type Backend interface {
	// Login checks the credentials and returns the caller's profile.
	Login(ctx context.Context, username, password string) (*models.UserProfile, error)
	// GetCallerUserProfile returns nil, nil when the caller has no profile.
	GetCallerUserProfile(ctx context.Context) (*models.UserProfile, error)
	// GetUserProfile returns nil, nil when id has no profile.
	GetUserProfile(ctx context.Context, id models.Identity) (*models.UserProfile, error)
	GetMessages(ctx context.Context) ([]models.ChatMessage, error)
	// SendMessage uploads media first when it only carries bytes.
	SendMessage(ctx context.Context, content string, media *models.MediaReference) error
	UpdateProfile(ctx context.Context, picture *models.MediaReference, status string) error
	GetGallery(ctx context.Context) ([]models.MediaReference, error)
}

// Credentials supplies the username and secret attached to every call
// except Login. ok is false when nobody is logged in.
type Credentials func() (username, secret string, ok bool)

var (
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrAuthSystem         = errors.New("authentication system error")
	ErrNotAuthenticated   = errors.New("not logged in")
)

// User-facing texts for classified login failures.
const (
	InvalidCredentialsMessage = "Incorrect username or password."
	AuthSystemMessage         = "Authentication system error. Please try again."
)

// RemoteError is a non-2xx response from the server.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.Status)
	}
	return fmt.Sprintf("server returned status %d: %s", e.Status, e.Message)
}

// ClassifyLoginError maps a raw login failure onto ErrAuthSystem or
// ErrInvalidCredentials by inspecting its text. Authorization wording wins
// over credential wording. Anything else is returned unchanged.
func ClassifyLoginError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrAuthSystem) || errors.Is(err, ErrInvalidCredentials) {
		return err
	}

	msg := err.Error()
	var remote *RemoteError
	if errors.As(err, &remote) {
		msg = remote.Message
	}

	switch {
	case strings.Contains(msg, "admin"), strings.Contains(msg, "role"):
		return fmt.Errorf("%w: %w", ErrAuthSystem, err)
	case strings.Contains(msg, "password"), strings.Contains(msg, "not found"):
		return fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	return err
}

// LoginErrorMessage returns the text shown to the user for a login failure.
func LoginErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrAuthSystem):
		return AuthSystemMessage
	case errors.Is(err, ErrInvalidCredentials):
		return InvalidCredentialsMessage
	case err == nil:
		return ""
	}
	return err.Error()
}

var (
	_ Backend = (*Client)(nil)
	_ Backend = (*Memory)(nil)
)
