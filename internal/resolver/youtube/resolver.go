package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrNoMatch is the only error callers should branch on: any upstream fault
// is reported as a plain error and treated the same as no match.
var ErrNoMatch = errors.New("no matching video found")

// durationToleranceMs bounds how far a candidate's duration may drift from
// the reference before duration matching is distrusted entirely.
const durationToleranceMs = 10_000

const (
	defaultSearchURL = "https://www.googleapis.com/youtube/v3/search"
	defaultVideosURL = "https://www.googleapis.com/youtube/v3/videos"
	maxCandidates    = 5
)

type Media struct {
	Id         string
	Title      string
	DurationMs int
}

type Config struct {
	APIKey    string
	SearchURL string
	VideosURL string
}

type Resolver struct {
	apiKey     string
	searchURL  string
	videosURL  string
	httpClient *http.Client
}

func NewResolver(cfg *Config) *Resolver {
	searchURL := cfg.SearchURL
	if searchURL == "" {
		searchURL = defaultSearchURL
	}
	videosURL := cfg.VideosURL
	if videosURL == "" {
		videosURL = defaultVideosURL
	}

	return &Resolver{
		apiKey:    cfg.APIKey,
		searchURL: searchURL,
		videosURL: videosURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type searchResponse struct {
	Items []struct {
		Id struct {
			VideoId string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
	} `json:"items"`
}

// Resolve finds the best playable video for a track. Candidates come back
// ranked by relevance; the one with duration closest to durationMs wins, but
// only within the tolerance. Outside it the reference duration is distrusted
// and the first-ranked candidate is used instead. durationMs <= 0 skips
// duration matching altogether.
func (r *Resolver) Resolve(ctx context.Context, title, artist string, durationMs int) (Media, error) {
	// more specific queries surface official audio and lyric videos first
	query := fmt.Sprintf("%s %s official audio", title, artist)

	candidates, err := r.search(ctx, query)
	if err != nil {
		return Media{}, fmt.Errorf("failed to search videos: %w", err)
	}
	if len(candidates) == 0 {
		return Media{}, ErrNoMatch
	}

	if durationMs <= 0 {
		return candidates[0], nil
	}

	durations, err := r.fetchDurations(ctx, candidates)
	if err != nil {
		// durations are a tie-breaker signal, not a hard requirement
		return candidates[0], nil
	}
	for i := range candidates {
		candidates[i].DurationMs = durations[candidates[i].Id]
	}

	closest := Media{}
	closestDiff := -1
	for _, c := range candidates {
		if c.DurationMs <= 0 {
			// missing from the videos response, duration unknown
			continue
		}
		if diff := absDiff(c.DurationMs, durationMs); closestDiff < 0 || diff < closestDiff {
			closest = c
			closestDiff = diff
		}
	}

	if closestDiff < 0 || closestDiff > durationToleranceMs {
		return candidates[0], nil
	}

	return closest, nil
}

func (r *Resolver) search(ctx context.Context, query string) ([]Media, error) {
	val := url.Values{}
	val.Set("part", "snippet")
	val.Set("type", "video")
	val.Set("maxResults", strconv.Itoa(maxCandidates))
	val.Set("q", query)
	val.Set("key", r.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.searchURL+"?"+val.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube search status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	candidates := make([]Media, 0, len(body.Items))
	for _, it := range body.Items {
		if it.Id.VideoId == "" {
			continue
		}
		candidates = append(candidates, Media{
			Id:    it.Id.VideoId,
			Title: it.Snippet.Title,
		})
	}

	return candidates, nil
}

type videosResponse struct {
	Items []struct {
		Id             string `json:"id"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

func (r *Resolver) fetchDurations(ctx context.Context, candidates []Media) (map[string]int, error) {
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.Id)
	}

	val := url.Values{}
	val.Set("part", "contentDetails")
	val.Set("id", strings.Join(ids, ","))
	val.Set("key", r.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.videosURL+"?"+val.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube videos status %d", resp.StatusCode)
	}

	var body videosResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	durations := make(map[string]int, len(body.Items))
	for _, item := range body.Items {
		durations[item.Id] = parseISO8601Duration(item.ContentDetails.Duration)
	}

	return durations, nil
}

var iso8601DurationRe = regexp.MustCompile(`PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

func parseISO8601Duration(duration string) int {
	matches := iso8601DurationRe.FindStringSubmatch(duration)
	if len(matches) < 4 {
		return 0
	}

	h, _ := strconv.Atoi(matches[1])
	m, _ := strconv.Atoi(matches[2])
	s, _ := strconv.Atoi(matches[3])

	return (h*3600 + m*60 + s) * 1000
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
