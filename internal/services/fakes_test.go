package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "bilimusic/internal/infrastructure/errors"
)

const (
	testImgKey = "7cd084941338484aae1ad9425b84077c"
	testSubKey = "4932caff0ff746eab6f01bf08b70ac45"
)

func noRetry() *apperrors.RetryConfig {
	return &apperrors.RetryConfig{MaxAttempts: 1, BackoffFactor: 1}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func ok(data interface{}) map[string]interface{} {
	return map[string]interface{}{"code": 0, "message": "0", "data": data}
}

// fakeBilibili serves the Bilibili endpoints the client uses
type fakeBilibili struct {
	server *httptest.Server

	navCalls      atomic.Int32
	viewCalls     atomic.Int32
	audioStatus   atomic.Int32
	subtitleCalls atomic.Int32

	mu           sync.Mutex
	searchQuery  string
	videoQuery   string
	subtitleBody []SubtitleLine
	noSubtitles  bool
	videos       []map[string]interface{}
}

func newFakeBilibili(t *testing.T) *fakeBilibili {
	t.Helper()
	f := &fakeBilibili{
		subtitleBody: []SubtitleLine{
			{From: 65.5, To: 70, Content: "second"},
			{From: 1.25, To: 5, Content: "first"},
		},
		videos: []map[string]interface{}{
			{"id": 32, "baseUrl": "https://cdn/32.m4s"},
			{"id": 80, "baseUrl": "https://cdn/80.m4s"},
			{"id": 64, "base_url": "https://cdn/64.m4s"},
		},
	}
	f.audioStatus.Store(http.StatusOK)

	mux := http.NewServeMux()
	mux.HandleFunc("/x/web-interface/nav", func(w http.ResponseWriter, r *http.Request) {
		f.navCalls.Add(1)
		writeJSON(w, map[string]interface{}{
			"code":    -101,
			"message": "not logged in",
			"data": map[string]interface{}{
				"wbi_img": map[string]string{
					"img_url": "https://i0.hdslb.com/bfs/wbi/" + testImgKey + ".png",
					"sub_url": "https://i0.hdslb.com/bfs/wbi/" + testSubKey + ".png",
				},
			},
		})
	})
	mux.HandleFunc("/x/web-interface/wbi/search/type", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.searchQuery = r.URL.RawQuery
		f.mu.Unlock()
		if r.URL.Query().Get("w_rid") == "" {
			writeJSON(w, map[string]interface{}{"code": -403, "message": "unsigned"})
			return
		}
		writeJSON(w, ok(map[string]interface{}{
			"result": []map[string]interface{}{
				{"bvid": "BV1abc", "aid": 1, "title": `<em class="keyword">晴天</em> live`, "author": "jay", "pic": "//i0.hdslb.com/a.jpg", "duration": "4:30", "play": 10},
				{"bvid": "BV1def", "aid": 2, "title": "plain", "author": "", "pic": "https://i0.hdslb.com/b.jpg"},
			},
		}))
	})
	mux.HandleFunc("/x/web-interface/view", func(w http.ResponseWriter, r *http.Request) {
		f.viewCalls.Add(1)
		q := r.URL.Query()
		if q.Get("bvid") == "BVmissing" {
			writeJSON(w, map[string]interface{}{"code": -404, "message": "啥都木有"})
			return
		}
		writeJSON(w, ok(map[string]interface{}{
			"bvid":  "BV1abc",
			"aid":   170001,
			"cid":   100,
			"title": "晴天",
			"pic":   "http://i0.hdslb.com/a.jpg",
			"owner": map[string]string{"name": "jay"},
		}))
	})
	mux.HandleFunc("/x/player/playurl", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("qn") == "" {
			writeJSON(w, ok(map[string]interface{}{
				"dash": map[string]interface{}{
					"audio": []map[string]interface{}{
						{"id": 30280, "baseUrl": f.server.URL + "/audio/base.m4s", "backupUrl": []string{f.server.URL + "/audio/backup.m4s"}},
					},
				},
			}))
			return
		}
		f.mu.Lock()
		f.videoQuery = r.URL.RawQuery
		videos := f.videos
		f.mu.Unlock()
		if len(videos) == 0 {
			writeJSON(w, ok(map[string]interface{}{"durl": []map[string]string{{"url": "https://cdn/durl.flv"}}}))
			return
		}
		writeJSON(w, ok(map[string]interface{}{"dash": map[string]interface{}{"video": videos}}))
	})
	mux.HandleFunc("/audio/base.m4s", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(f.audioStatus.Load()))
	})
	mux.HandleFunc("/audio/backup.m4s", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/x/player/wbi/v2", func(w http.ResponseWriter, r *http.Request) {
		f.subtitleCalls.Add(1)
		f.mu.Lock()
		none := f.noSubtitles
		f.mu.Unlock()
		list := []map[string]string{}
		if !none {
			// served as http:// and upgraded by the client
			list = append(list, map[string]string{
				"lan":          "zh-CN",
				"subtitle_url": strings.Replace(f.server.URL, "https://", "http://", 1) + "/subtitle.json",
			})
		}
		writeJSON(w, ok(map[string]interface{}{"subtitle": map[string]interface{}{"list": list}}))
	})
	mux.HandleFunc("/subtitle.json", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		body := f.subtitleBody
		f.mu.Unlock()
		writeJSON(w, map[string]interface{}{"body": body})
	})
	mux.HandleFunc("/main/suggest", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("term") == "broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]interface{}{
			"code": 0,
			"result": map[string]interface{}{
				"tag": []map[string]string{
					{"value": "晴天 周杰伦", "term": "晴天 周杰伦", "name": "<em class=\"suggest_high_light\">晴天</em> 周杰伦"},
				},
			},
		})
	})
	mux.HandleFunc("/short/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/dead") {
			http.Redirect(w, r, "/not-a-video", http.StatusFound)
			return
		}
		http.Redirect(w, r, "/video/BV1abc/?share_source=copy", http.StatusFound)
	})
	mux.HandleFunc("/video/", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/not-a-video", func(w http.ResponseWriter, r *http.Request) {})

	f.server = httptest.NewTLSServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeBilibili) client() *BilibiliClient {
	return NewBilibiliClient(BilibiliConfig{
		APIBase:    f.server.URL,
		SearchBase: f.server.URL,
		Timeout:    5 * time.Second,
		Retry:      noRetry(),
		Transport:  f.server.Client().Transport,
	}, nil)
}

// fakeNetease serves the Netease search and lyric endpoints
type fakeNetease struct {
	server *httptest.Server

	searchCalls atomic.Int32
	lyricCalls  atomic.Int32
	failLyric   atomic.Bool
	lyric       map[string]interface{}
}

func newFakeNetease(t *testing.T) *fakeNetease {
	t.Helper()
	f := &fakeNetease{
		lyric: map[string]interface{}{
			"code": 200,
			"lrc":  map[string]string{"lyric": "[00:01.00]lrc line"},
			"yrc":  map[string]string{"lyric": "[1000,2000](1000,500,0)yrc"},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/search/get/web", func(w http.ResponseWriter, r *http.Request) {
		f.searchCalls.Add(1)
		if r.URL.Query().Get("s") == "nothing" {
			writeJSON(w, map[string]interface{}{"code": 200, "result": map[string]interface{}{"songCount": 0}})
			return
		}
		writeJSON(w, map[string]interface{}{
			"code":   200,
			"result": map[string]interface{}{"songs": []map[string]interface{}{{"id": 186016, "name": "晴天"}}},
		})
	})
	mux.HandleFunc("/api/song/lyric/v1", func(w http.ResponseWriter, r *http.Request) {
		f.lyricCalls.Add(1)
		if f.failLyric.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		if r.URL.Query().Get("id") != "186016" {
			writeJSON(w, map[string]interface{}{"code": 404})
			return
		}
		writeJSON(w, f.lyric)
	})

	f.server = httptest.NewTLSServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeNetease) client() *NeteaseClient {
	return NewNeteaseClient(NeteaseConfig{
		APIBase:   f.server.URL,
		Timeout:   5 * time.Second,
		Retry:     noRetry(),
		Transport: f.server.Client().Transport,
	}, nil)
}

// stubSubtitles and stubSongs let lyrics tests drive each fallback branch
type stubSubtitles struct {
	lyric string
	err   error
	calls int
}

func (s *stubSubtitles) Subtitle(ctx context.Context, bvid string, cid int64) (string, error) {
	s.calls++
	return s.lyric, s.err
}

type stubSongs struct {
	searchErr   error
	lyric       string
	lyricErr    error
	searchCalls int
	lyricCalls  int
}

func (s *stubSongs) SearchFirstSongID(ctx context.Context, keywords string) (int64, error) {
	s.searchCalls++
	if s.searchErr != nil {
		return 0, s.searchErr
	}
	return 1, nil
}

func (s *stubSongs) Lyric(ctx context.Context, id int64) (string, error) {
	s.lyricCalls++
	return s.lyric, s.lyricErr
}

var errStub = fmt.Errorf("stub failure")

var (
	_ SubtitleFetcher  = (*stubSubtitles)(nil)
	_ SongLyricFetcher = (*stubSongs)(nil)
)
