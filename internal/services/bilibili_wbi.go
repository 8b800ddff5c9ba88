package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

var mixinKeyEncTab = [64]int{
	46, 47, 18, 2, 53, 8, 23, 32, 15, 50, 10, 31, 58, 3, 45, 35,
	27, 43, 5, 49, 33, 9, 42, 19, 29, 28, 14, 39, 12, 38, 41, 13,
	37, 48, 7, 16, 24, 55, 40, 61, 26, 17, 0, 1, 60, 51, 30, 4,
	22, 25, 54, 21, 56, 59, 6, 63, 57, 62, 11, 36, 20, 34, 44, 52,
}

const wbiKeyTTL = time.Hour

// MixinKey permutes orig (img key + sub key) and keeps the first 32 characters
func MixinKey(orig string) string {
	var b strings.Builder
	b.Grow(len(mixinKeyEncTab))
	for _, n := range mixinKeyEncTab {
		if n < len(orig) {
			b.WriteByte(orig[n])
		}
	}
	s := b.String()
	if len(s) > 32 {
		s = s[:32]
	}
	return s
}

// SignParams returns the signed query string for params: wts is added,
// values are stripped of !'()* and w_rid is appended
func SignParams(params map[string]string, imgKey, subKey string, now time.Time) string {
	signed := make(map[string]string, len(params)+1)
	for k, v := range params {
		signed[k] = v
	}
	signed["wts"] = strconv.FormatInt(now.Unix(), 10)

	keys := make([]string, 0, len(signed))
	for k := range signed {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := strings.Map(func(r rune) rune {
			if strings.ContainsRune("!'()*", r) {
				return -1
			}
			return r
		}, signed[k])
		parts = append(parts, encodeURIComponent(k)+"="+encodeURIComponent(v))
	}
	query := strings.Join(parts, "&")

	sum := md5.Sum([]byte(query + MixinKey(imgKey+subKey)))
	return query + "&w_rid=" + hex.EncodeToString(sum[:])
}

// encodeURIComponent matches the browser function for the filtered values
// SignParams produces
func encodeURIComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// wbiKeyFromURL extracts "abc" from ".../wbi/abc.png"
func wbiKeyFromURL(raw string) string {
	base := path.Base(raw)
	return strings.TrimSuffix(base, path.Ext(base))
}

// wbiKeyCache holds the signing keys fetched from the nav endpoint
type wbiKeyCache struct {
	mu      sync.Mutex
	img     string
	sub     string
	fetched time.Time
}

type navResponse struct {
	WbiImg struct {
		ImgURL string `json:"img_url"`
		SubURL string `json:"sub_url"`
	} `json:"wbi_img"`
}

// wbiKeys returns cached keys, refreshing them once they are older than wbiKeyTTL
func (b *BilibiliClient) wbiKeys(ctx context.Context) (string, string, error) {
	b.keys.mu.Lock()
	defer b.keys.mu.Unlock()

	now := b.now()
	if b.keys.img != "" && now.Sub(b.keys.fetched) < wbiKeyTTL {
		return b.keys.img, b.keys.sub, nil
	}

	// the nav endpoint answers with code -101 for anonymous users but still
	// carries wbi_img, so the envelope code is ignored here
	var env struct {
		Data navResponse `json:"data"`
	}
	if err := b.api.getJSON(ctx, "WbiKeys", b.api.endpoint("/x/web-interface/nav", nil), &env); err != nil {
		return "", "", err
	}

	b.keys.img = wbiKeyFromURL(env.Data.WbiImg.ImgURL)
	b.keys.sub = wbiKeyFromURL(env.Data.WbiImg.SubURL)
	b.keys.fetched = now
	return b.keys.img, b.keys.sub, nil
}
