package evidence

import (
	"net/url"
	"path"
	"strings"
)

type Kind string

const (
	KindScreenshot Kind = "screenshot"
	KindYouTube    Kind = "youtube"
	KindVideo      Kind = "video"
	KindLink       Kind = "link"
)

// Link describes how the front-end should display an evidence reference.
type Link struct {
	Kind Kind   `json:"kind"`
	URL  string `json:"url"`
}

var (
	imageExts = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}
	videoExts = []string{".mp4", ".webm", ".ogg", ".mov"}
)

// Classify returns nil for an empty reference.
func Classify(ref *string) *Link {
	if ref == nil || strings.TrimSpace(*ref) == "" {
		return nil
	}
	l := strings.TrimSpace(*ref)

	if id := youTubeID(l); id != "" {
		return &Link{Kind: KindYouTube, URL: "https://www.youtube.com/embed/" + id}
	}

	ext := strings.ToLower(path.Ext(stripQuery(l)))
	for _, e := range imageExts {
		if ext == e {
			return &Link{Kind: KindScreenshot, URL: l}
		}
	}
	for _, e := range videoExts {
		if ext == e {
			return &Link{Kind: KindVideo, URL: l}
		}
	}

	return &Link{Kind: KindLink, URL: l}
}

func youTubeID(l string) string {
	u, err := url.Parse(l)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	switch host {
	case "youtu.be":
		return strings.Trim(u.Path, "/")
	case "youtube.com", "m.youtube.com":
		if v := u.Query().Get("v"); v != "" {
			return v
		}
		if id, ok := strings.CutPrefix(u.Path, "/embed/"); ok {
			return strings.Trim(id, "/")
		}
	}
	return ""
}

func stripQuery(l string) string {
	if idx := strings.IndexAny(l, "?#"); idx != -1 {
		return l[:idx]
	}
	return l
}
