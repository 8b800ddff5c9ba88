package services

import (
	"context"
	"time"

	apperrors "bilimusic/internal/infrastructure/errors"
	"bilimusic/internal/infrastructure/logging"
	"bilimusic/internal/types"
)

// PlayerService resolves search results and pasted links into playable songs
type PlayerService struct {
	bilibili *BilibiliClient
	lyrics   *LyricsService
	settings *SettingsService
	logger   logging.Logger
}

// NewPlayerService creates a player service
func NewPlayerService(bilibili *BilibiliClient, lyrics *LyricsService, settings *SettingsService, logger logging.Logger) *PlayerService {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &PlayerService{
		bilibili: bilibili,
		lyrics:   lyrics,
		settings: settings,
		logger:   logger,
	}
}

// LoadSong resolves the audio, background video and lyrics of a video.
// keyword is used for the lyric search and defaults to the video title.
func (p *PlayerService) LoadSong(ctx context.Context, bvid string, keyword string) (*types.Song, error) {
	start := time.Now()

	detail, err := p.bilibili.VideoDetail(ctx, bvid)
	if err != nil {
		return nil, err
	}

	links, err := p.bilibili.AudioLinks(ctx, detail.BVID, detail.CID)
	if err != nil {
		return nil, err
	}

	song := &types.Song{
		Title:  CleanTitle(detail.Title),
		Artist: detail.Artist,
		Poster: detail.Poster,
		BVID:   detail.BVID,
		CID:    links.CID,
		Audio:  p.bilibili.ProbeAudio(ctx, links),
	}

	quality := p.settings.Int(ctx, SettingVideoQuality)
	video, err := p.bilibili.VideoURL(ctx, detail.BVID, links.CID, quality)
	if err != nil {
		// the background video is optional
		logging.LogError(p.logger, err, "VideoURL", map[string]interface{}{"bvid": detail.BVID})
	}
	song.Video = video

	if p.settings.String(ctx, SettingLyricSearchType) == "custom" {
		song.NeedsLyricSearch = true
	} else {
		name := keyword
		if name == "" {
			name = song.Title
		}
		song.Lyric = p.lyrics.GetLyrics(ctx, types.LyricRequest{
			SongName: name,
			BVID:     song.BVID,
			CID:      song.CID,
		})
	}

	logging.LogOperation(p.logger, "load_song", time.Since(start), map[string]interface{}{
		"bvid":    song.BVID,
		"quality": quality,
	})
	return song, nil
}

// LoadLink accepts a video page URL, a b23.tv short link, a BV id or an av id
func (p *PlayerService) LoadLink(ctx context.Context, link string) (*types.Song, error) {
	id := ExtractVideoID(link)
	if id == "" {
		return nil, apperrors.HandleValidationError("LoadLink", "link", link, "no video id found")
	}

	if IsShortLink(id) {
		resolved, err := p.bilibili.ResolveShortLink(ctx, id)
		if err != nil {
			return nil, err
		}
		id = resolved
	}

	bvid := id
	if !isBVID(id) {
		detail, err := p.bilibili.VideoDetail(ctx, id)
		if err != nil {
			return nil, err
		}
		bvid = detail.BVID
	}

	return p.LoadSong(ctx, bvid, "")
}

func isBVID(id string) bool {
	return len(id) > 2 && id[:2] == "BV"
}
