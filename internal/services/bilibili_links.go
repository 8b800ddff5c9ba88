package services

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	apperrors "bilimusic/internal/infrastructure/errors"
)

var (
	bilibiliLinkPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)https?://(?:www\.)?bilibili\.com/video/([A-Za-z0-9]+)`),
		regexp.MustCompile(`(?i)https?://b23\.tv/([A-Za-z0-9]+)`),
		regexp.MustCompile(`(?i)BV([A-Za-z0-9]+)`),
		regexp.MustCompile(`(?i)av(\d+)`),
	}

	bvPattern    = regexp.MustCompile(`(?i)BV([A-Za-z0-9]+)`)
	avPattern    = regexp.MustCompile(`(?i)av(\d+)`)
	shortPattern = regexp.MustCompile(`(?i)b23\.tv/([A-Za-z0-9]+)`)
)

// IsBilibiliLink reports whether text looks like a video page, short link, BV id or av id
func IsBilibiliLink(text string) bool {
	for _, p := range bilibiliLinkPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// ExtractVideoID returns "BV…", "av…", or the full https://b23.tv/… short link
// that still has to be resolved. It returns "" when nothing matches.
func ExtractVideoID(text string) string {
	if m := bvPattern.FindStringSubmatch(text); m != nil {
		return "BV" + m[1]
	}
	if m := avPattern.FindStringSubmatch(text); m != nil {
		return "av" + m[1]
	}
	if m := shortPattern.FindStringSubmatch(text); m != nil {
		return "https://b23.tv/" + m[1]
	}
	return ""
}

// IsShortLink reports whether id is an unresolved b23.tv link
func IsShortLink(id string) bool {
	return strings.HasPrefix(id, "https://")
}

// ResolveShortLink follows the redirects of a short link and extracts the
// video id from the final URL
func (b *BilibiliClient) ResolveShortLink(ctx context.Context, link string) (string, error) {
	res, err := b.api.fetch(ctx, "ResolveShortLink", http.MethodHead, link)
	if err != nil {
		return "", err
	}

	final := link
	if res.FinalURL != nil {
		final = res.FinalURL.String()
	}

	id := ExtractVideoID(final)
	if id == "" || IsShortLink(id) {
		return "", apperrors.HandleValidationError("ResolveShortLink", "link", link, "short link did not resolve to a video")
	}
	return id, nil
}
