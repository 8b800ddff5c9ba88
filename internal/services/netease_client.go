package services

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "bilimusic/internal/infrastructure/errors"
	"bilimusic/internal/infrastructure/logging"
	"bilimusic/internal/types"
)

// NeteaseConfig points the client at the Netease Cloud Music API
type NeteaseConfig struct {
	APIBase   string
	UserAgent string
	Timeout   time.Duration
	Retry     *apperrors.RetryConfig
	Transport http.RoundTripper
}

// NeteaseClient searches songs and fetches lyrics from Netease Cloud Music
type NeteaseClient struct {
	api    *apiClient
	logger logging.Logger
}

// NewNeteaseClient creates a Netease client
func NewNeteaseClient(cfg NeteaseConfig, logger logging.Logger) *NeteaseClient {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if cfg.APIBase == "" {
		cfg.APIBase = "https://music.163.com"
	}
	return &NeteaseClient{
		api: newAPIClient(ClientConfig{
			BaseURL:   strings.TrimSuffix(cfg.APIBase, "/"),
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.Timeout,
			Referer:   "https://music.163.com/",
			Retry:     cfg.Retry,
			Transport: cfg.Transport,
		}, logger),
		logger: logger,
	}
}

type neteaseSearchResponse struct {
	Code   int `json:"code"`
	Result *struct {
		Songs []struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"songs"`
	} `json:"result"`
}

// SearchFirstSongID returns the id of the best match for keywords
func (n *NeteaseClient) SearchFirstSongID(ctx context.Context, keywords string) (int64, error) {
	if strings.TrimSpace(keywords) == "" {
		return 0, apperrors.HandleValidationError("SearchSong", "keywords", keywords, "keywords are required")
	}

	query := url.Values{}
	query.Set("s", keywords)
	query.Set("type", "1")
	query.Set("limit", "1")
	query.Set("offset", "0")

	var resp neteaseSearchResponse
	if err := n.api.getJSON(ctx, "SearchSong", n.api.endpoint("/api/search/get/web", query), &resp); err != nil {
		return 0, err
	}
	if resp.Code != 0 && resp.Code != 200 {
		return 0, apperrors.HandleUpstreamError("SearchSong", resp.Code, "")
	}
	if resp.Result == nil || len(resp.Result.Songs) == 0 {
		return 0, apperrors.HandleNotFound("SearchSong", "song", keywords)
	}
	return resp.Result.Songs[0].ID, nil
}

type neteaseLyricResponse struct {
	Code int           `json:"code"`
	Yrc  *neteaseLyric `json:"yrc"`
	Lrc  *neteaseLyric `json:"lrc"`
}

type neteaseLyric struct {
	Lyric string `json:"lyric"`
}

// Lyric returns word-timed lyrics when available, then plain LRC, then types.NoLyrics
func (n *NeteaseClient) Lyric(ctx context.Context, id int64) (string, error) {
	query := url.Values{}
	query.Set("id", strconv.FormatInt(id, 10))
	query.Set("lv", "-1")
	query.Set("kv", "-1")
	query.Set("tv", "-1")
	query.Set("yv", "-1")

	var resp neteaseLyricResponse
	if err := n.api.getJSON(ctx, "Lyric", n.api.endpoint("/api/song/lyric/v1", query), &resp); err != nil {
		return "", err
	}
	if resp.Code != 0 && resp.Code != 200 {
		return "", apperrors.HandleUpstreamError("Lyric", resp.Code, "")
	}

	switch {
	case resp.Yrc != nil && resp.Yrc.Lyric != "":
		return resp.Yrc.Lyric, nil
	case resp.Lrc != nil && resp.Lrc.Lyric != "":
		return resp.Lrc.Lyric, nil
	default:
		return types.NoLyrics, nil
	}
}
