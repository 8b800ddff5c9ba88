package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	apperrors "bilimusic/internal/infrastructure/errors"
	"bilimusic/internal/testutils"
	"bilimusic/internal/types"
)

func TestLyricsService_Fallbacks(t *testing.T) {
	t.Parallel()
	notFound := apperrors.HandleNotFound("SearchSong", "song", "x")

	tests := []struct {
		name          string
		req           types.LyricRequest
		subtitles     *stubSubtitles
		songs         *stubSongs
		want          string
		wantSubtitles int
		wantSearches  int
	}{
		{
			name:          "bilibili subtitle",
			req:           types.LyricRequest{SongName: "晴天", BVID: "BV1", CID: 1, ForceSource: types.LyricSourceBilibili},
			subtitles:     &stubSubtitles{lyric: "[00:01.00]sub"},
			songs:         &stubSongs{},
			want:          "[00:01.00]sub",
			wantSubtitles: 1,
		},
		{
			name:          "bilibili failure falls back to netease",
			req:           types.LyricRequest{SongName: "晴天", BVID: "BV1", CID: 1, ForceSource: types.LyricSourceBilibili},
			subtitles:     &stubSubtitles{err: errStub},
			songs:         &stubSongs{lyric: "netease"},
			want:          "netease",
			wantSubtitles: 1,
			wantSearches:  1,
		},
		{
			name:          "bilibili failure without song name",
			req:           types.LyricRequest{BVID: "BV1", CID: 1, ForceSource: types.LyricSourceBilibili},
			subtitles:     &stubSubtitles{err: errStub},
			songs:         &stubSongs{},
			want:          types.NoLyrics,
			wantSubtitles: 1,
		},
		{
			name:         "netease lyric",
			req:          types.LyricRequest{SongName: "晴天", BVID: "BV1", CID: 1},
			subtitles:    &stubSubtitles{},
			songs:        &stubSongs{lyric: "netease"},
			want:         "netease",
			wantSearches: 1,
		},
		{
			name:         "netease miss does not fall back when netease was chosen",
			req:          types.LyricRequest{SongName: "晴天", BVID: "BV1", CID: 1, ForceSource: types.LyricSourceNetease},
			subtitles:    &stubSubtitles{lyric: "sub"},
			songs:        &stubSongs{searchErr: notFound},
			want:         types.NoLyrics,
			wantSearches: 1,
		},
		{
			name:         "bilibili source without video uses netease",
			req:          types.LyricRequest{SongName: "晴天", ForceSource: types.LyricSourceBilibili},
			subtitles:    &stubSubtitles{lyric: "sub"},
			songs:        &stubSongs{lyricErr: errStub},
			want:         types.NoLyrics,
			wantSearches: 1,
		},
		{
			name:      "nothing to search with",
			req:       types.LyricRequest{},
			subtitles: &stubSubtitles{},
			songs:     &stubSongs{},
			want:      types.NoLyrics,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := NewLyricsService(tt.subtitles, tt.songs, nil, nil, nil)
			got := svc.GetLyrics(context.Background(), tt.req)
			if got != tt.want {
				t.Errorf("GetLyrics() = %q, want %q", got, tt.want)
			}
			if tt.subtitles.calls != tt.wantSubtitles {
				t.Errorf("subtitle calls = %d, want %d", tt.subtitles.calls, tt.wantSubtitles)
			}
			if tt.songs.searchCalls != tt.wantSearches {
				t.Errorf("search calls = %d, want %d", tt.songs.searchCalls, tt.wantSearches)
			}
		})
	}
}

func TestLyricsService_UsesSettingSource(t *testing.T) {
	t.Parallel()
	settings := NewSettingsService(NewMockSettingsRepository(), nil)
	ctx := context.Background()
	if err := settings.Set(ctx, SettingLyricSource, json.RawMessage(`"bilibili"`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	subtitles := &stubSubtitles{lyric: "sub"}
	songs := &stubSongs{lyric: "netease"}
	svc := NewLyricsService(subtitles, songs, settings, nil, nil)

	got := svc.GetLyrics(ctx, types.LyricRequest{SongName: "晴天", BVID: "BV1", CID: 1})
	if got != "sub" {
		t.Errorf("GetLyrics() = %q, want subtitle", got)
	}
}

func TestLyricsService_Caching(t *testing.T) {
	t.Parallel()
	repo := NewMockLyricsRepository()
	songs := &stubSongs{lyric: "netease"}
	svc := NewLyricsService(&stubSubtitles{}, songs, nil, repo, nil)
	ctx := context.Background()
	req := types.LyricRequest{SongName: "晴天"}

	for range 3 {
		if got := svc.GetLyrics(ctx, req); got != "netease" {
			t.Fatalf("GetLyrics() = %q", got)
		}
	}
	if songs.lyricCalls != 1 {
		t.Errorf("lyric fetched %d times, want 1", songs.lyricCalls)
	}
	if _, put := repo.GetCallCounts(); put != 1 {
		t.Errorf("repository Put called %d times, want 1", put)
	}

	// a fresh service reads the persisted entry
	other := NewLyricsService(&stubSubtitles{}, &stubSongs{lyricErr: errStub}, nil, repo, nil)
	if got := other.GetLyrics(ctx, req); got != "netease" {
		t.Errorf("GetLyrics() from repository = %q", got)
	}
}

func TestLyricsService_PlaceholderIsNotCached(t *testing.T) {
	t.Parallel()
	repo := NewMockLyricsRepository()
	subtitles := &stubSubtitles{lyric: types.NoLyrics}
	svc := NewLyricsService(subtitles, &stubSongs{}, nil, repo, nil)
	req := types.LyricRequest{BVID: "BV1", CID: 1, ForceSource: types.LyricSourceBilibili}

	svc.GetLyrics(context.Background(), req)
	svc.GetLyrics(context.Background(), req)

	if subtitles.calls != 2 {
		t.Errorf("subtitle calls = %d, want 2", subtitles.calls)
	}
	if _, put := repo.GetCallCounts(); put != 0 {
		t.Errorf("repository Put called %d times, want 0", put)
	}
}

func TestLyricsService_CacheFailuresAreLogged(t *testing.T) {
	t.Parallel()
	repo := NewMockLyricsRepository()
	repo.SetFailureModes(true, true)
	logger := &testutils.RecordingLogger{}
	svc := NewLyricsService(&stubSubtitles{}, &stubSongs{lyric: "netease"}, nil, repo, logger)

	if got := svc.GetLyrics(context.Background(), types.LyricRequest{SongName: "晴天"}); got != "netease" {
		t.Errorf("GetLyrics() = %q", got)
	}
	if n := logger.Count("warn"); n != 2 {
		t.Errorf("warn entries = %d, want 2", n)
	}
}

func TestLyricsService_PruneCache(t *testing.T) {
	t.Parallel()
	repo := NewMockLyricsRepository()
	svc := NewLyricsService(&stubSubtitles{}, &stubSongs{lyric: "netease"}, nil, repo, nil)
	ctx := context.Background()

	svc.GetLyrics(ctx, types.LyricRequest{SongName: "晴天"})

	n, err := svc.PruneCache(ctx, -time.Minute)
	if err != nil {
		t.Fatalf("PruneCache() error = %v", err)
	}
	if n != 1 {
		t.Errorf("PruneCache() removed %d, want 1", n)
	}
}
