package lyrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("lyrics not found")

const defaultAPIURL = "https://lrclib.net/api/get"

const (
	TypeSynced   = "synced"
	TypeUnsynced = "unsynced"
)

type Line struct {
	OffsetMs int    `json:"offsetMs"`
	Text     string `json:"text"`
}

// Result is either synced (Lines ordered by OffsetMs ascending) or unsynced
// (plain Text).
type Result struct {
	Type  string `json:"type"`
	Lines []Line `json:"lines,omitempty"`
	Text  string `json:"text,omitempty"`
}

type Config struct {
	APIURL   string
	CacheTTL time.Duration
}

type Client struct {
	apiURL     string
	cacheTTL   time.Duration
	httpClient *http.Client
	rc         *redis.Client
}

func NewClient(cfg *Config, rc *redis.Client) *Client {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Hour
	}

	return &Client{
		apiURL:   apiURL,
		cacheTTL: cacheTTL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		rc: rc,
	}
}

func (c *Client) getLyricsKey(trackName, artistName string) string {
	return "lyrics:" + trackName + ":" + artistName
}

type apiResponse struct {
	SyncedLyrics string `json:"syncedLyrics"`
	PlainLyrics  string `json:"plainLyrics"`
}

// GetLyrics fetches lyrics for a track, preferring synced over unsynced.
func (c *Client) GetLyrics(ctx context.Context, trackName, artistName string) (Result, error) {
	lyricsKey := c.getLyricsKey(trackName, artistName)
	if cached, err := c.rc.Get(ctx, lyricsKey).Bytes(); err == nil {
		var result Result
		if err := json.Unmarshal(cached, &result); err == nil {
			return result, nil
		}
	}

	val := url.Values{}
	val.Set("track_name", trackName)
	val.Set("artist_name", artistName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+val.Encode(), nil)
	if err != nil {
		return Result{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Result{}, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("lyrics provider status %d", resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Result{}, err
	}

	var result Result
	switch {
	case body.SyncedLyrics != "":
		result = Result{
			Type:  TypeSynced,
			Lines: parseLRC(body.SyncedLyrics),
		}
	case body.PlainLyrics != "":
		result = Result{
			Type: TypeUnsynced,
			Text: body.PlainLyrics,
		}
	default:
		return Result{}, ErrNotFound
	}

	if encoded, err := json.Marshal(result); err == nil {
		c.rc.Set(ctx, lyricsKey, encoded, c.cacheTTL)
	}

	return result, nil
}

var lrcLineRe = regexp.MustCompile(`^\[(\d+):(\d+)(?:\.(\d+))?\](.*)$`)

// parseLRC converts LRC text into lines ordered by offset ascending. Lines
// without a timestamp tag are dropped.
func parseLRC(text string) []Line {
	var lines []Line
	for _, raw := range strings.Split(text, "\n") {
		matches := lrcLineRe.FindStringSubmatch(strings.TrimSpace(raw))
		if matches == nil {
			continue
		}

		minutes, _ := strconv.Atoi(matches[1])
		seconds, _ := strconv.Atoi(matches[2])

		offsetMs := (minutes*60 + seconds) * 1000
		if matches[3] != "" {
			// fraction can be centiseconds or milliseconds
			frac, _ := strconv.Atoi(matches[3])
			switch len(matches[3]) {
			case 1:
				offsetMs += frac * 100
			case 2:
				offsetMs += frac * 10
			default:
				offsetMs += frac
			}
		}

		lines = append(lines, Line{
			OffsetMs: offsetMs,
			Text:     strings.TrimSpace(matches[4]),
		})
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].OffsetMs < lines[j].OffsetMs
	})

	return lines
}
