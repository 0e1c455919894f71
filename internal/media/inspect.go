package media

import (
	"net/url"
	"strings"

	"github.com/kkdai/youtube/v2"
)

// Provider names used in logs.
const (
	ProviderYouTube = "youtube"
	ProviderGeneric = "generic"
	ProviderUnknown = "unknown"
)

// Link is what we could learn about a URL without fetching it.
type Link struct {
	Provider string
	VideoID  string
	Host     string
}

// Inspect classifies a link. It never rejects input: yt-dlp decides what it can fetch.
func Inspect(raw string) Link {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Link{Provider: ProviderUnknown}
	}
	host := strings.ToLower(u.Hostname())
	link := Link{Provider: ProviderGeneric, Host: host}
	if isYouTubeHost(host) {
		if id, err := youtube.ExtractVideoID(raw); err == nil {
			link.Provider = ProviderYouTube
			link.VideoID = id
		}
	}
	return link
}

func isYouTubeHost(host string) bool {
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")
	switch host {
	case "youtube.com", "youtu.be", "music.youtube.com", "youtube-nocookie.com":
		return true
	}
	return false
}
