package media

import (
	"errors"
	"fmt"
	"strings"
)

// Quality is the tier the user asked for.
type Quality string

const (
	QualityHD    Quality = "hd"
	QualitySD    Quality = "sd"
	QualityAudio Quality = "audio"
)

// Qualities lists the tiers in keyboard order.
var Qualities = []Quality{QualityHD, QualitySD, QualityAudio}

// ErrUnknownQuality is returned by ParseQuality for anything that is not a tier.
var ErrUnknownQuality = errors.New("media: unknown quality")

// ParseQuality accepts the tier codes plus a few spellings users type by hand.
func ParseQuality(s string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hd", "high", "best":
		return QualityHD, nil
	case "sd", "low", "worst":
		return QualitySD, nil
	case "audio", "audio-only", "audio_only", "mp3":
		return QualityAudio, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownQuality, s)
}

// IsAudio reports whether the tier produces an audio file.
func (q Quality) IsAudio() bool { return q == QualityAudio }

// Ext is the extension of the file the tier produces.
func (q Quality) Ext() string {
	if q.IsAudio() {
		return ".mp3"
	}
	return ".mp4"
}

// MIME is the content type used when uploading the result.
func (q Quality) MIME() string {
	if q.IsAudio() {
		return "audio/mpeg"
	}
	return "video/mp4"
}

func (q Quality) formatSelector() string {
	switch q {
	case QualitySD:
		return "worstvideo+worstaudio/worst"
	case QualityAudio:
		return "bestaudio/best"
	default:
		return "bestvideo+bestaudio/best"
	}
}
