package services

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"bilimusic/internal/types"
)

type playerInfoResponse struct {
	Subtitle struct {
		List      []subtitleTrack `json:"list"`
		Subtitles []subtitleTrack `json:"subtitles"`
	} `json:"subtitle"`
}

type subtitleTrack struct {
	Lan         string `json:"lan"`
	SubtitleURL string `json:"subtitle_url"`
}

// SubtitleLine is one cue of a Bilibili subtitle file
type SubtitleLine struct {
	From    float64 `json:"from"`
	To      float64 `json:"to"`
	Content string  `json:"content"`
}

type subtitleFile struct {
	Body []SubtitleLine `json:"body"`
}

// Subtitle fetches the first subtitle track of a video as LRC text.
// Videos without subtitles yield types.NoLyrics.
func (b *BilibiliClient) Subtitle(ctx context.Context, bvid string, cid int64) (string, error) {
	query := url.Values{}
	query.Set("bvid", bvid)
	query.Set("cid", strconv.FormatInt(cid, 10))

	var info playerInfoResponse
	if err := b.api.getAPI(ctx, "Subtitle", b.api.endpoint("/x/player/wbi/v2", query), &info); err != nil {
		return "", err
	}

	tracks := info.Subtitle.List
	if len(tracks) == 0 {
		tracks = info.Subtitle.Subtitles
	}
	if len(tracks) == 0 || tracks[0].SubtitleURL == "" {
		return types.NoLyrics, nil
	}

	var file subtitleFile
	if err := b.api.getJSON(ctx, "SubtitleFile", secureURL(tracks[0].SubtitleURL), &file); err != nil {
		return "", err
	}
	return SubtitleToLRC(file.Body), nil
}

func secureURL(u string) string {
	switch {
	case strings.HasPrefix(u, "http://"):
		return "https://" + strings.TrimPrefix(u, "http://")
	case strings.HasPrefix(u, "//"):
		return "https:" + u
	default:
		return u
	}
}

// SubtitleToLRC converts subtitle cues into [mm:ss.xx] lines ordered by start time
func SubtitleToLRC(lines []SubtitleLine) string {
	if len(lines) == 0 {
		return types.NoLyrics
	}

	sorted := append([]SubtitleLine(nil), lines...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].From < sorted[j].From })

	var b strings.Builder
	for i, line := range sorted {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(lrcTimestamp(line.From))
		b.WriteString(line.Content)
	}
	return b.String()
}

func lrcTimestamp(seconds float64) string {
	minutes := int(math.Floor(seconds / 60))
	secs := int(math.Floor(math.Mod(seconds, 60)))
	centis := int(math.Floor(math.Mod(seconds, 1) * 100))
	return fmt.Sprintf("[%02d:%02d.%02d]", minutes, secs, centis)
}
