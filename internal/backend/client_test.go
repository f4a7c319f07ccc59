package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saravenpi/milkyway/internal/models"
)

type fakeServer struct {
	mu       sync.Mutex
	messages []models.ChatMessage
	profile  *models.UserProfile
	uploads  map[string][]byte
	lastBody map[string]json.RawMessage
}

func newFakeServer(t *testing.T) (*fakeServer, *httptest.Server) {
	fs := &fakeServer{uploads: make(map[string][]byte)}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		defer fs.mu.Unlock()

		if r.URL.Path != "/api/login" {
			user, pass, ok := r.BasicAuth()
			if !ok || user != "alice" || pass != "p1" {
				http.Error(w, "Incorrect password", http.StatusUnauthorized)
				return
			}
		}

		switch {
		case r.URL.Path == "/api/login":
			var req map[string]string
			_ = json.NewDecoder(r.Body).Decode(&req)
			switch {
			case req["username"] == "admin":
				http.Error(w, "Unauthorized: only admin can assign user roles", http.StatusForbidden)
			case req["username"] != "alice":
				http.Error(w, "User not found", http.StatusUnauthorized)
			case req["password"] != "p1":
				http.Error(w, "Incorrect password", http.StatusUnauthorized)
			default:
				_ = json.NewEncoder(w).Encode(models.UserProfile{ID: "id-alice", Username: "alice", Status: "hi"})
			}
		case r.URL.Path == "/api/profile" && r.Method == http.MethodGet:
			if fs.profile == nil {
				http.NotFound(w, r)
				return
			}
			_ = json.NewEncoder(w).Encode(fs.profile)
		case r.URL.Path == "/api/profile" && r.Method == http.MethodPut:
			_ = json.NewDecoder(r.Body).Decode(&fs.lastBody)
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == "/api/profiles/id-bob":
			_ = json.NewEncoder(w).Encode(models.UserProfile{ID: "id-bob", Username: "bob"})
		case r.URL.Path == "/api/messages" && r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(fs.messages)
		case r.URL.Path == "/api/messages" && r.Method == http.MethodPost:
			var req struct {
				Content string                 `json:"content"`
				Media   *models.MediaReference `json:"media"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			fs.messages = append(fs.messages, models.ChatMessage{Sender: "id-alice", Content: req.Content, Media: req.Media, Timestamp: 100})
			w.WriteHeader(http.StatusCreated)
		case r.URL.Path == "/api/gallery":
			var out []models.MediaReference
			for _, m := range fs.messages {
				if m.Media != nil {
					out = append(out, *m.Media)
				}
			}
			_ = json.NewEncoder(w).Encode(out)
		case r.URL.Path == "/api/blobs" && r.Method == http.MethodPost:
			data, _ := io.ReadAll(r.Body)
			url := "https://blobs.example.com/" + r.URL.Query().Get("name")
			fs.uploads[url] = data
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(models.MediaReference{URL: url})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(ts.Close)
	return fs, ts
}

func aliceCreds() (string, string, bool) { return "alice", "p1", true }

func TestClientLogin(t *testing.T) {
	_, ts := newFakeServer(t)
	c := NewClient(ts.URL, 5*time.Second, nil)

	profile, err := c.Login(context.Background(), "alice", "p1")
	require.NoError(t, err)
	assert.Equal(t, models.Identity("id-alice"), profile.ID)

	_, err = c.Login(context.Background(), "alice", "wrong")
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusUnauthorized, remote.Status)
	assert.ErrorIs(t, ClassifyLoginError(err), ErrInvalidCredentials)

	_, err = c.Login(context.Background(), "nobody", "p1")
	assert.ErrorIs(t, ClassifyLoginError(err), ErrInvalidCredentials)

	_, err = c.Login(context.Background(), "admin", "p1")
	assert.ErrorIs(t, ClassifyLoginError(err), ErrAuthSystem)
}

func TestClientRequiresCredentials(t *testing.T) {
	_, ts := newFakeServer(t)
	c := NewClient(ts.URL, 5*time.Second, func() (string, string, bool) { return "", "", false })

	_, err := c.GetMessages(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestClientProfileAbsent(t *testing.T) {
	fs, ts := newFakeServer(t)
	c := NewClient(ts.URL, 5*time.Second, aliceCreds)

	profile, err := c.GetCallerUserProfile(context.Background())
	require.NoError(t, err)
	assert.Nil(t, profile)

	fs.mu.Lock()
	fs.profile = &models.UserProfile{ID: "id-alice", Username: "alice"}
	fs.mu.Unlock()

	profile, err = c.GetCallerUserProfile(context.Background())
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "alice", profile.Username)

	other, err := c.GetUserProfile(context.Background(), "id-bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", other.Username)
}

func TestClientSendUploadsPendingMedia(t *testing.T) {
	fs, ts := newFakeServer(t)
	c := NewClient(ts.URL, 5*time.Second, aliceCreds)
	ctx := context.Background()

	require.NoError(t, c.SendMessage(ctx, "", models.MediaFromBytes("cat.png", []byte{1, 2, 3})))

	messages, err := c.GetMessages(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "", messages[0].Content)
	require.NotNil(t, messages[0].Media)
	assert.Equal(t, "https://blobs.example.com/cat.png", messages[0].Media.URL)

	fs.mu.Lock()
	assert.Equal(t, []byte{1, 2, 3}, fs.uploads["https://blobs.example.com/cat.png"])
	fs.mu.Unlock()

	gallery, err := c.GetGallery(ctx)
	require.NoError(t, err)
	assert.Len(t, gallery, 1)
}

func TestClientUpdateProfileKeepsExistingPicture(t *testing.T) {
	fs, ts := newFakeServer(t)
	c := NewClient(ts.URL, 5*time.Second, aliceCreds)

	err := c.UpdateProfile(context.Background(), models.MediaFromURL("https://blobs.example.com/me.jpg"), "away")
	require.NoError(t, err)

	fs.mu.Lock()
	defer fs.mu.Unlock()
	assert.JSONEq(t, `"away"`, string(fs.lastBody["status"]))
	assert.JSONEq(t, `{"url":"https://blobs.example.com/me.jpg"}`, string(fs.lastBody["profile_picture"]))
	assert.Empty(t, fs.uploads)
}

func TestClassifyLoginError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"role wording", errors.New("Unauthorized: only admin can assign user roles"), ErrAuthSystem},
		{"role before password", errors.New("role check failed for password"), ErrAuthSystem},
		{"incorrect password", errors.New("Incorrect password"), ErrInvalidCredentials},
		{"unknown user", errors.New("User not found"), ErrInvalidCredentials},
		{"remote error", &RemoteError{Status: 401, Message: "Incorrect password"}, ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, ClassifyLoginError(tt.err), tt.want)
		})
	}

	raw := errors.New("connection refused")
	assert.Same(t, raw, ClassifyLoginError(raw))
	assert.NoError(t, ClassifyLoginError(nil))
}

func TestLoginErrorMessage(t *testing.T) {
	assert.Equal(t, InvalidCredentialsMessage, LoginErrorMessage(ClassifyLoginError(errors.New("Incorrect password"))))
	assert.Equal(t, AuthSystemMessage, LoginErrorMessage(ClassifyLoginError(errors.New("admin only"))))
	assert.Equal(t, "dial tcp: refused", LoginErrorMessage(errors.New("dial tcp: refused")))
}
