package types

// VideoResult is one row of a Bilibili video search
type VideoResult struct {
	BVID     string `json:"bvid"`
	AID      int64  `json:"aid"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Poster   string `json:"poster"`
	Duration string `json:"duration"`
	Play     int64  `json:"play"`
}

// VideoDetail is the subset of /x/web-interface/view the player needs
type VideoDetail struct {
	BVID   string `json:"bvid"`
	AID    int64  `json:"aid"`
	CID    int64  `json:"cid"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Poster string `json:"poster"`
}

// AudioLinks holds the best DASH audio stream for a video
type AudioLinks struct {
	BaseURL    string   `json:"baseUrl"`
	BackupURLs []string `json:"backupUrls"`
	CID        int64    `json:"cid"`
}

// Song is a fully resolved playlist entry
type Song struct {
	Title            string `json:"title"`
	Artist           string `json:"artist"`
	Poster           string `json:"poster"`
	BVID             string `json:"bvid"`
	CID              int64  `json:"cid"`
	Audio            string `json:"audio"`
	Video            string `json:"video"`
	Lyric            string `json:"lyric"`
	NeedsLyricSearch bool   `json:"needsLyricSearch"`
}

// Suggestion is one search-box completion
type Suggestion struct {
	Value string `json:"value"`
	Term  string `json:"term"`
	Name  string `json:"name"`
}

// LyricSource names where lyrics come from
type LyricSource string

const (
	LyricSourceNetease  LyricSource = "netease"
	LyricSourceBilibili LyricSource = "bilibili"
)

// LyricRequest describes what to look up lyrics for
type LyricRequest struct {
	SongName    string      `json:"songName"`
	BVID        string      `json:"bvid"`
	CID         int64       `json:"cid"`
	ForceSource LyricSource `json:"forceSource"`
}

// NoLyrics is shown when no lyric could be found
const NoLyrics = "No lyrics available, enjoy the music"
