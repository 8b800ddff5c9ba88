package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "bilimusic/internal/infrastructure/errors"
	"bilimusic/internal/infrastructure/logging"
	"bilimusic/internal/repository"
	"bilimusic/internal/types"
)

// SubtitleFetcher returns LRC text built from a video's subtitles
type SubtitleFetcher interface {
	Subtitle(ctx context.Context, bvid string, cid int64) (string, error)
}

// SongLyricFetcher finds a song by name and returns its lyrics
type SongLyricFetcher interface {
	SearchFirstSongID(ctx context.Context, keywords string) (int64, error)
	Lyric(ctx context.Context, id int64) (string, error)
}

// LyricsService resolves lyrics from Bilibili subtitles or Netease, with a
// memory cache in front of a LyricsRepository
type LyricsService struct {
	subtitles SubtitleFetcher
	songs     SongLyricFetcher
	settings  *SettingsService
	repo      repository.LyricsRepository
	logger    logging.Logger

	mu     sync.RWMutex
	memory map[string]string
}

// NewLyricsService creates a lyrics service. settings and repo may be nil.
func NewLyricsService(subtitles SubtitleFetcher, songs SongLyricFetcher, settings *SettingsService, repo repository.LyricsRepository, logger logging.Logger) *LyricsService {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &LyricsService{
		subtitles: subtitles,
		songs:     songs,
		settings:  settings,
		repo:      repo,
		logger:    logger,
		memory:    make(map[string]string),
	}
}

// GetLyrics never fails: when every source is exhausted it returns types.NoLyrics
func (s *LyricsService) GetLyrics(ctx context.Context, req types.LyricRequest) string {
	source := req.ForceSource
	if source == "" && s.settings != nil {
		source = types.LyricSource(s.settings.String(ctx, SettingLyricSource))
	}
	if source == "" {
		source = types.LyricSourceNetease
	}

	hasVideo := req.BVID != "" && req.CID != 0

	if source == types.LyricSourceBilibili && hasVideo {
		key := bilibiliCacheKey(req.BVID, req.CID)
		if lyric, ok := s.cached(ctx, types.LyricSourceBilibili, key); ok {
			return lyric
		}

		lyric, err := s.subtitles.Subtitle(ctx, req.BVID, req.CID)
		if err != nil {
			s.logger.Warn("Bilibili subtitle lookup failed", "bvid", req.BVID, "cid", req.CID, "error", err)
			if req.SongName != "" {
				return s.GetLyrics(ctx, withSource(req, types.LyricSourceNetease))
			}
			return types.NoLyrics
		}
		s.store(ctx, types.LyricSourceBilibili, key, lyric)
		return lyric
	}

	if req.SongName == "" {
		return types.NoLyrics
	}

	if source == types.LyricSourceNetease {
		if lyric, ok := s.cached(ctx, types.LyricSourceNetease, req.SongName); ok {
			return lyric
		}
	}

	fallback := func(err error) string {
		if hasVideo && source != types.LyricSourceNetease {
			s.logger.Debug("Falling back to Bilibili subtitles", "song", req.SongName, "error", err)
			return s.GetLyrics(ctx, withSource(req, types.LyricSourceBilibili))
		}
		return types.NoLyrics
	}

	id, err := s.songs.SearchFirstSongID(ctx, req.SongName)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			s.logger.Warn("Netease song search failed", "song", req.SongName, "error", err)
		}
		return fallback(err)
	}

	lyric, err := s.songs.Lyric(ctx, id)
	if err != nil {
		s.logger.Warn("Netease lyric lookup failed", "song", req.SongName, "id", id, "error", err)
		return fallback(err)
	}
	s.store(ctx, types.LyricSourceNetease, req.SongName, lyric)
	return lyric
}

// PruneCache removes persisted lyrics older than maxAge
func (s *LyricsService) PruneCache(ctx context.Context, maxAge time.Duration) (int64, error) {
	if s.repo == nil {
		return 0, nil
	}
	return s.repo.Prune(ctx, time.Now().Add(-maxAge))
}

func (s *LyricsService) cached(ctx context.Context, source types.LyricSource, key string) (string, bool) {
	mk := memoryKey(source, key)

	s.mu.RLock()
	lyric, ok := s.memory[mk]
	s.mu.RUnlock()
	if ok {
		return lyric, true
	}

	if s.repo == nil {
		return "", false
	}
	lyric, err := s.repo.Get(ctx, source, key)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			s.logger.Warn("Lyrics cache read failed", "source", string(source), "key", key, "error", err)
		}
		return "", false
	}

	s.mu.Lock()
	s.memory[mk] = lyric
	s.mu.Unlock()
	return lyric, true
}

// store caches lyric unless it is the placeholder text
func (s *LyricsService) store(ctx context.Context, source types.LyricSource, key, lyric string) {
	if lyric == "" || lyric == types.NoLyrics {
		return
	}

	s.mu.Lock()
	s.memory[memoryKey(source, key)] = lyric
	s.mu.Unlock()

	if s.repo == nil {
		return
	}
	if err := s.repo.Put(ctx, source, key, lyric); err != nil {
		s.logger.Warn("Lyrics cache write failed", "source", string(source), "key", key, "error", err)
	}
}

func withSource(req types.LyricRequest, source types.LyricSource) types.LyricRequest {
	req.ForceSource = source
	return req
}

func bilibiliCacheKey(bvid string, cid int64) string {
	return fmt.Sprintf("%s-%d", bvid, cid)
}

func memoryKey(source types.LyricSource, key string) string {
	return string(source) + ":" + key
}
