package crawl

import (
	"bytes"
	"strings"
)

// Page type labels grouped in reports and graph exports.
const (
	PageTypeYouTube = "YouTube"
	PageTypeBlog    = "Blog"
	PageTypeNews    = "News"
	PageTypeOther   = "Other"
)

// ClassifyPage buckets a URL into a coarse page type by substring match.
func ClassifyPage(rawURL string) string {
	lower := strings.ToLower(rawURL)
	switch {
	case strings.Contains(lower, "youtube.com"):
		return PageTypeYouTube
	case strings.Contains(lower, "blog"):
		return PageTypeBlog
	case strings.Contains(lower, "news"):
		return PageTypeNews
	default:
		return PageTypeOther
	}
}

// MatchKeyword reports a case-insensitive substring hit of keyword in body.
// An empty keyword never matches.
func MatchKeyword(body []byte, keyword string) bool {
	if keyword == "" {
		return false
	}
	return bytes.Contains(bytes.ToLower(body), []byte(strings.ToLower(keyword)))
}
