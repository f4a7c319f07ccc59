package models

import (
	"time"
	"unicode"
)

// Identity is the opaque backend identity of a chat participant.
type Identity string

// MediaKind is the display kind inferred for a media reference.
type MediaKind int

const (
	MediaAudio MediaKind = iota
	MediaImage
	MediaVideo
)

func (k MediaKind) String() string {
	switch k {
	case MediaImage:
		return "image"
	case MediaVideo:
		return "video"
	default:
		return "audio"
	}
}

// MediaReference is a handle to binary media. It is built either from raw bytes
// captured locally (not yet uploaded) or from a locator issued by the backend.
type MediaReference struct {
	URL      string `json:"url,omitempty" yaml:"url,omitempty"`
	Name     string `json:"-" yaml:"-"`
	Contents []byte `json:"-" yaml:"-"`
}

// MediaFromBytes wraps freshly captured bytes. The name is used as the upload
// file name so the backend locator keeps its extension.
func MediaFromBytes(name string, data []byte) *MediaReference {
	return &MediaReference{Name: name, Contents: data}
}

// MediaFromURL wraps a locator returned by the backend.
func MediaFromURL(url string) *MediaReference {
	return &MediaReference{URL: url}
}

// Pending reports whether the reference still needs to be uploaded before it
// can be embedded in a backend call.
func (m *MediaReference) Pending() bool {
	return m != nil && m.URL == "" && m.Contents != nil
}

// DirectURL returns the dereferenceable locator, empty for pending references.
func (m *MediaReference) DirectURL() string {
	if m == nil {
		return ""
	}
	return m.URL
}

type ChatMessage struct {
	Sender    Identity        `json:"sender"`
	Content   string          `json:"content"`
	Media     *MediaReference `json:"media,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// Time converts the Unix-seconds timestamp to a time.Time in loc.
func (m ChatMessage) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(m.Timestamp, 0).In(loc)
}

type UserProfile struct {
	ID             Identity        `json:"id,omitempty"`
	Username       string          `json:"username"`
	Status         string          `json:"status"`
	ProfilePicture *MediaReference `json:"profile_picture,omitempty"`
}

// Initial returns the upper-cased first letter of the username, or "U".
func (p *UserProfile) Initial() string {
	if p == nil || p.Username == "" {
		return "U"
	}
	r := []rune(p.Username)
	return string(unicode.ToUpper(r[0]))
}
