// Package media infers the display kind of a media locator.
//
// The backend never sends a content type, so the kind is derived from markers
// and extensions in the locator string. Video wins over image, and anything
// that is neither is treated as an audio note.
package media

import (
	"strings"

	"github.com/saravenpi/milkyway/internal/models"
)

var (
	videoExtensions = []string{".mp4", ".webm", ".ogg"}
	imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
)

// Classify maps a locator to exactly one media kind. Markers are matched
// case-sensitively, extensions are not.
func Classify(locator string) models.MediaKind {
	lower := strings.ToLower(locator)
	if strings.Contains(locator, "video") || hasExtension(lower, videoExtensions) {
		return models.MediaVideo
	}
	if strings.Contains(locator, "image") || hasExtension(lower, imageExtensions) {
		return models.MediaImage
	}
	return models.MediaAudio
}

// ClassifyReference classifies a reference by its direct locator, falling back
// to the upload name for references that have not been uploaded yet.
func ClassifyReference(ref *models.MediaReference) models.MediaKind {
	if ref == nil {
		return models.MediaAudio
	}
	if ref.URL != "" {
		return Classify(ref.URL)
	}
	return Classify(ref.Name)
}

// hasExtension only matches at the very end of the locator; a query string
// after the extension defeats the match.
func hasExtension(locator string, exts []string) bool {
	for _, e := range exts {
		if strings.HasSuffix(locator, e) {
			return true
		}
	}
	return false
}
