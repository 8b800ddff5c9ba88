package services

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "bilimusic/internal/infrastructure/errors"
	"bilimusic/internal/infrastructure/logging"
	"bilimusic/internal/types"
)

// BilibiliConfig points the client at the Bilibili APIs
type BilibiliConfig struct {
	APIBase    string
	SearchBase string
	UserAgent  string
	Timeout    time.Duration
	Retry      *apperrors.RetryConfig
	Transport  http.RoundTripper
}

// BilibiliClient talks to the Bilibili web APIs
type BilibiliClient struct {
	api    *apiClient
	search *apiClient
	logger logging.Logger
	keys   wbiKeyCache
	now    func() time.Time
}

// NewBilibiliClient creates a Bilibili client
func NewBilibiliClient(cfg BilibiliConfig, logger logging.Logger) *BilibiliClient {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if cfg.APIBase == "" {
		cfg.APIBase = "https://api.bilibili.com"
	}
	if cfg.SearchBase == "" {
		cfg.SearchBase = "https://s.search.bilibili.com"
	}

	clientCfg := func(base string) ClientConfig {
		return ClientConfig{
			BaseURL:   strings.TrimSuffix(base, "/"),
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.Timeout,
			Referer:   "https://www.bilibili.com/",
			Retry:     cfg.Retry,
			Transport: cfg.Transport,
		}
	}

	return &BilibiliClient{
		api:    newAPIClient(clientCfg(cfg.APIBase), logger),
		search: newAPIClient(clientCfg(cfg.SearchBase), logger),
		logger: logger,
		now:    time.Now,
	}
}

var keywordTag = regexp.MustCompile(`<em class="keyword">|</em>`)

// CleanTitle removes search highlight markup from a title
func CleanTitle(title string) string {
	return keywordTag.ReplaceAllString(title, "")
}

func absoluteURL(u string) string {
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}

// SearchOptions are the optional filters of SearchVideos
type SearchOptions struct {
	Page     int
	Order    string
	Duration int
	Tids     int
}

type searchResponse struct {
	Result []struct {
		BVID     string `json:"bvid"`
		AID      int64  `json:"aid"`
		Title    string `json:"title"`
		Author   string `json:"author"`
		Pic      string `json:"pic"`
		Duration string `json:"duration"`
		Play     int64  `json:"play"`
	} `json:"result"`
}

// SearchVideos runs a signed video search
func (b *BilibiliClient) SearchVideos(ctx context.Context, keyword string, opts SearchOptions) ([]types.VideoResult, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, apperrors.HandleValidationError("SearchVideos", "keyword", keyword, "keyword is required")
	}
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Order == "" {
		opts.Order = "totalrank"
	}

	img, sub, err := b.wbiKeys(ctx)
	if err != nil {
		return nil, err
	}

	query := SignParams(map[string]string{
		"search_type": "video",
		"keyword":     keyword,
		"order":       opts.Order,
		"duration":    strconv.Itoa(opts.Duration),
		"tids":        strconv.Itoa(opts.Tids),
		"page":        strconv.Itoa(opts.Page),
	}, img, sub, b.now())

	var resp searchResponse
	if err := b.api.getAPI(ctx, "SearchVideos", b.api.cfg.BaseURL+"/x/web-interface/wbi/search/type?"+query, &resp); err != nil {
		return nil, err
	}

	results := make([]types.VideoResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		author := r.Author
		if author == "" {
			author = "Unknown artist"
		}
		results = append(results, types.VideoResult{
			BVID:     r.BVID,
			AID:      r.AID,
			Title:    CleanTitle(r.Title),
			Author:   author,
			Poster:   absoluteURL(r.Pic),
			Duration: r.Duration,
			Play:     r.Play,
		})
	}

	b.logger.Debug("Video search completed", "keyword", keyword, "page", opts.Page, "results", len(results))
	return results, nil
}

type viewResponse struct {
	BVID  string `json:"bvid"`
	AID   int64  `json:"aid"`
	CID   int64  `json:"cid"`
	Title string `json:"title"`
	Pic   string `json:"pic"`
	Owner struct {
		Name string `json:"name"`
	} `json:"owner"`
}

// VideoDetail fetches a video by BV id or av id
func (b *BilibiliClient) VideoDetail(ctx context.Context, id string) (*types.VideoDetail, error) {
	query := url.Values{}
	switch {
	case strings.HasPrefix(id, "BV"):
		query.Set("bvid", id)
	case strings.HasPrefix(strings.ToLower(id), "av"):
		query.Set("aid", id[2:])
	default:
		return nil, apperrors.HandleValidationError("VideoDetail", "id", id, "expected a BV or av id")
	}

	var v viewResponse
	if err := b.api.getAPI(ctx, "VideoDetail", b.api.endpoint("/x/web-interface/view", query), &v); err != nil {
		return nil, err
	}

	return &types.VideoDetail{
		BVID:   v.BVID,
		AID:    v.AID,
		CID:    v.CID,
		Title:  v.Title,
		Artist: v.Owner.Name,
		Poster: absoluteURL(v.Pic),
	}, nil
}

type dashStream struct {
	ID         int      `json:"id"`
	BaseURL    string   `json:"baseUrl"`
	BaseURLAlt string   `json:"base_url"`
	BackupURL  []string `json:"backupUrl"`
	BackupAlt  []string `json:"backup_url"`
}

func (s dashStream) url() string {
	if s.BaseURL != "" {
		return s.BaseURL
	}
	return s.BaseURLAlt
}

func (s dashStream) backups() []string {
	if len(s.BackupURL) > 0 {
		return s.BackupURL
	}
	return s.BackupAlt
}

type playURLResponse struct {
	Dash *struct {
		Video []dashStream `json:"video"`
		Audio []dashStream `json:"audio"`
	} `json:"dash"`
	Durl []struct {
		URL string `json:"url"`
	} `json:"durl"`
}

// AudioLinks returns the best DASH audio stream of a video.
// A zero cid is resolved through VideoDetail.
func (b *BilibiliClient) AudioLinks(ctx context.Context, bvid string, cid int64) (*types.AudioLinks, error) {
	if cid == 0 {
		detail, err := b.VideoDetail(ctx, bvid)
		if err != nil {
			return nil, err
		}
		if detail.CID == 0 {
			return nil, apperrors.HandleNotFound("AudioLinks", "cid", bvid)
		}
		cid = detail.CID
	}

	query := url.Values{}
	query.Set("bvid", bvid)
	query.Set("cid", strconv.FormatInt(cid, 10))
	query.Set("fnval", "16")
	query.Set("fnver", "0")
	query.Set("fourk", "1")

	var play playURLResponse
	if err := b.api.getAPI(ctx, "AudioLinks", b.api.endpoint("/x/player/playurl", query), &play); err != nil {
		return nil, err
	}
	if play.Dash == nil || len(play.Dash.Audio) == 0 {
		return nil, apperrors.HandleNotFound("AudioLinks", "audio stream", bvid)
	}

	best := play.Dash.Audio[0]
	return &types.AudioLinks{
		BaseURL:    best.url(),
		BackupURLs: append([]string(nil), best.backups()...),
		CID:        cid,
	}, nil
}

// ProbeAudio returns the base URL unless probing it fails or is forbidden,
// in which case the first backup URL is used
func (b *BilibiliClient) ProbeAudio(ctx context.Context, links *types.AudioLinks) string {
	if links == nil {
		return ""
	}
	fallback := links.BaseURL
	if len(links.BackupURLs) > 0 {
		fallback = links.BackupURLs[0]
	}

	res, err := b.api.fetch(ctx, "ProbeAudio", http.MethodHead, links.BaseURL)
	if err != nil || res.StatusCode == http.StatusForbidden {
		b.logger.Warn("Audio base URL unavailable, using backup", "cid", links.CID, "error", err)
		return fallback
	}
	return links.BaseURL
}

// VideoFnval returns the fnval and fourk flags needed for quality
func VideoFnval(quality int) (fnval int, fourk int) {
	fnval = 16
	switch quality {
	case 125:
		fnval |= 64
	case 126:
		fnval |= 512
	case 127:
		fnval |= 1024
	}
	if quality >= 120 {
		fourk = 1
	}
	return fnval, fourk
}

// VideoURL returns the best video stream no better than quality
func (b *BilibiliClient) VideoURL(ctx context.Context, bvid string, cid int64, quality int) (string, error) {
	if cid == 0 {
		detail, err := b.VideoDetail(ctx, bvid)
		if err != nil {
			return "", err
		}
		if detail.CID == 0 {
			return "", apperrors.HandleNotFound("VideoURL", "cid", bvid)
		}
		cid = detail.CID
	}

	fnval, fourk := VideoFnval(quality)
	query := url.Values{}
	query.Set("bvid", bvid)
	query.Set("cid", strconv.FormatInt(cid, 10))
	query.Set("qn", strconv.Itoa(quality))
	query.Set("fnval", strconv.Itoa(fnval))
	query.Set("fnver", "0")
	query.Set("fourk", strconv.Itoa(fourk))

	var play playURLResponse
	if err := b.api.getAPI(ctx, "VideoURL", b.api.endpoint("/x/player/playurl", query), &play); err != nil {
		return "", err
	}

	if play.Dash != nil && len(play.Dash.Video) > 0 {
		return selectVideoStream(play.Dash.Video, quality), nil
	}
	if len(play.Durl) > 0 {
		return play.Durl[0].URL, nil
	}
	return "", apperrors.HandleNotFound("VideoURL", "video stream", bvid)
}

// selectVideoStream picks the highest stream with id <= quality, or the
// highest stream overall
func selectVideoStream(streams []dashStream, quality int) string {
	sorted := append([]dashStream(nil), streams...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID > sorted[j].ID })
	for _, s := range sorted {
		if s.ID <= quality {
			return s.url()
		}
	}
	return sorted[0].url()
}

type suggestResponse struct {
	Code   int `json:"code"`
	Result struct {
		Tag []types.Suggestion `json:"tag"`
	} `json:"result"`
}

// Suggestions returns search completions for term. Failures yield an empty list.
func (b *BilibiliClient) Suggestions(ctx context.Context, term string) []types.Suggestion {
	if strings.TrimSpace(term) == "" {
		return []types.Suggestion{}
	}

	query := url.Values{}
	query.Set("term", term)
	query.Set("main_ver", "v1")
	query.Set("func", "suggest")
	query.Set("suggest_type", "accurate")
	query.Set("sub_type", "tag")
	query.Set("tag_num", "10")
	query.Set("rnd", strconv.FormatInt(b.now().UnixNano()%1000000, 10))

	var resp suggestResponse
	if err := b.search.getJSON(ctx, "Suggestions", b.search.endpoint("/main/suggest", query), &resp); err != nil {
		b.logger.Debug("Search suggestions unavailable", "term", term, "error", err)
		return []types.Suggestion{}
	}
	if resp.Code != 0 || resp.Result.Tag == nil {
		return []types.Suggestion{}
	}
	return resp.Result.Tag
}
