package media

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saravenpi/milkyway/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		locator string
		want    models.MediaKind
	}{
		{"mp4 suffix", "https://cdn.example/blobs/abc.mp4", models.MediaVideo},
		{"webm suffix", "https://cdn.example/blobs/abc.WEBM", models.MediaVideo},
		{"ogg suffix", "https://cdn.example/blobs/abc.ogg", models.MediaVideo},
		{"video marker", "https://cdn.example/video/abc", models.MediaVideo},
		{"image marker with video suffix", "https://cdn.example/image/abc.mp4", models.MediaVideo},
		{"video marker with image suffix", "https://cdn.example/video/abc.png", models.MediaVideo},
		{"png suffix", "https://cdn.example/blobs/abc.png", models.MediaImage},
		{"jpeg suffix", "https://cdn.example/blobs/abc.jpeg", models.MediaImage},
		{"image marker", "https://cdn.example/image/abc", models.MediaImage},
		{"no marker", "https://cdn.example/blobs/abc", models.MediaAudio},
		{"wav voice note", "https://cdn.example/blobs/voice-1.wav", models.MediaAudio},
		{"suffix before query", "https://cdn.example/blobs/abc.mp4?sig=1", models.MediaAudio},
		{"empty", "", models.MediaAudio},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.locator))
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	locators := []string{"a.mp4", "image/b", "c", "video-image.gif"}
	for _, l := range locators {
		first := Classify(l)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, Classify(l), l)
		}
	}
}

func TestClassifyReference(t *testing.T) {
	assert.Equal(t, models.MediaAudio, ClassifyReference(nil))
	assert.Equal(t, models.MediaImage, ClassifyReference(models.MediaFromURL("x/photo.gif")))
	assert.Equal(t, models.MediaVideo, ClassifyReference(models.MediaFromBytes("clip.mp4", []byte{1})))
	assert.Equal(t, models.MediaAudio, ClassifyReference(models.MediaFromBytes("voice.wav", []byte{1})))
}
