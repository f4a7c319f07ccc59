package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/saravenpi/milkyway/internal/logger"
	"github.com/saravenpi/milkyway/internal/models"
)

// Client talks to a milkyway server over HTTP. Every call except Login is
// authenticated with HTTP Basic credentials taken from creds.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      Credentials
}

func NewClient(baseURL string, timeout time.Duration, creds Credentials) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		creds:      creds,
	}
}

func (c *Client) Login(ctx context.Context, username, password string) (*models.UserProfile, error) {
	body := map[string]string{"username": username, "password": password}
	var profile models.UserProfile
	if _, err := c.doJSON(ctx, http.MethodPost, "/api/login", body, false, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) GetCallerUserProfile(ctx context.Context) (*models.UserProfile, error) {
	return c.getProfile(ctx, "/api/profile")
}

func (c *Client) GetUserProfile(ctx context.Context, id models.Identity) (*models.UserProfile, error) {
	return c.getProfile(ctx, "/api/profiles/"+url.PathEscape(string(id)))
}

func (c *Client) getProfile(ctx context.Context, path string) (*models.UserProfile, error) {
	var profile models.UserProfile
	status, err := c.doJSON(ctx, http.MethodGet, path, nil, true, &profile)
	if status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) GetMessages(ctx context.Context) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	if _, err := c.doJSON(ctx, http.MethodGet, "/api/messages", nil, true, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

type sendMessageRequest struct {
	Content string                 `json:"content"`
	Media   *models.MediaReference `json:"media,omitempty"`
}

func (c *Client) SendMessage(ctx context.Context, content string, media *models.MediaReference) error {
	media, err := c.resolve(ctx, media)
	if err != nil {
		return err
	}
	_, err = c.doJSON(ctx, http.MethodPost, "/api/messages", sendMessageRequest{Content: content, Media: media}, true, nil)
	return err
}

type updateProfileRequest struct {
	Status         string                 `json:"status"`
	ProfilePicture *models.MediaReference `json:"profile_picture,omitempty"`
}

func (c *Client) UpdateProfile(ctx context.Context, picture *models.MediaReference, status string) error {
	picture, err := c.resolve(ctx, picture)
	if err != nil {
		return err
	}
	_, err = c.doJSON(ctx, http.MethodPut, "/api/profile", updateProfileRequest{Status: status, ProfilePicture: picture}, true, nil)
	return err
}

func (c *Client) GetGallery(ctx context.Context) ([]models.MediaReference, error) {
	var items []models.MediaReference
	if _, err := c.doJSON(ctx, http.MethodGet, "/api/gallery", nil, true, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Upload stores raw bytes on the server and returns the issued locator.
func (c *Client) Upload(ctx context.Context, ref *models.MediaReference) (*models.MediaReference, error) {
	name := ref.Name
	if name == "" {
		name = uuid.New().String()
	}
	path := "/api/blobs?name=" + url.QueryEscape(name)

	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(ref.Contents), true)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	var uploaded models.MediaReference
	if _, err := c.do(req, &uploaded); err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", name, err)
	}
	if uploaded.URL == "" {
		return nil, fmt.Errorf("failed to upload %s: server returned no url", name)
	}
	return &uploaded, nil
}

func (c *Client) resolve(ctx context.Context, ref *models.MediaReference) (*models.MediaReference, error) {
	if !ref.Pending() {
		return ref, nil
	}
	return c.Upload(ctx, ref)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, auth bool, out any) (int, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, body, auth)
	if err != nil {
		return 0, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, auth bool) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())

	if auth {
		if c.creds == nil {
			return nil, ErrNotAuthenticated
		}
		username, secret, ok := c.creds()
		if !ok {
			return nil, ErrNotAuthenticated
		}
		req.SetBasicAuth(username, secret)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) (int, error) {
	log := logger.With("component", "backend")
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	log.Debug("request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"request_id", req.Header.Get("X-Request-ID"),
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return resp.StatusCode, &RemoteError{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode %s response: %w", req.URL.Path, err)
	}
	return resp.StatusCode, nil
}
