package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultTokenURL = "https://accounts.spotify.com/api/token"
	defaultAPIURL   = "https://api.spotify.com/v1"

	searchLimit = 10
	// refresh ahead of expiry so callers never see an expired token
	tokenRefreshMargin = time.Minute
)

// Track is a search candidate. Json field names match what controller-facing
// clients expect.
type Track struct {
	Id         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	CoverArt   string `json:"coverArt,omitempty"`
	DurationMs int    `json:"duration_ms"`
	Explicit   bool   `json:"explicit"`
}

type Config struct {
	ClientId     string
	ClientSecret string
	TokenURL     string
	APIURL       string
	CacheTTL     time.Duration
}

// Client searches the spotify catalog with a self-managed client-credentials
// token. Search responses are cached in redis; a cache fault falls through to
// the upstream call.
type Client struct {
	clientId     string
	clientSecret string
	tokenURL     string
	apiURL       string
	cacheTTL     time.Duration
	httpClient   *http.Client
	rc           *redis.Client

	mu             sync.Mutex
	accessToken    string
	tokenExpiresAt time.Time
}

func NewClient(cfg *Config, rc *redis.Client) *Client {
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}

	return &Client{
		clientId:     cfg.ClientId,
		clientSecret: cfg.ClientSecret,
		tokenURL:     tokenURL,
		apiURL:       apiURL,
		cacheTTL:     cacheTTL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		rc: rc,
	}
}

func (c *Client) getSearchKey(query string) string {
	return "search:" + query
}

// SearchTracks returns candidates ordered most-relevant first.
func (c *Client) SearchTracks(ctx context.Context, query string) ([]Track, error) {
	searchKey := c.getSearchKey(query)
	if cached, err := c.rc.Get(ctx, searchKey).Bytes(); err == nil {
		var tracks []Track
		if err := json.Unmarshal(cached, &tracks); err == nil {
			return tracks, nil
		}
	}

	tracks, err := c.searchTracks(ctx, query, false)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(tracks); err == nil {
		c.rc.Set(ctx, searchKey, encoded, c.cacheTTL)
	}

	return tracks, nil
}

func (c *Client) searchTracks(ctx context.Context, query string, isRetry bool) ([]Track, error) {
	token, err := c.getToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	val := url.Values{}
	val.Set("q", query)
	val.Set("type", "track")
	val.Set("limit", fmt.Sprint(searchLimit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/search?"+val.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// an expired token gets one forced refresh and a single retry
	if resp.StatusCode == http.StatusUnauthorized && !isRetry {
		c.invalidateToken()
		return c.searchTracks(ctx, query, true)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("spotify search status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	tracks := make([]Track, 0, len(body.Tracks.Items))
	for _, item := range body.Tracks.Items {
		artists := make([]string, 0, len(item.Artists))
		for _, a := range item.Artists {
			artists = append(artists, a.Name)
		}

		coverArt := ""
		if len(item.Album.Images) > 0 {
			coverArt = item.Album.Images[0].URL
		}

		tracks = append(tracks, Track{
			Id:         item.Id,
			Title:      item.Name,
			Artist:     strings.Join(artists, ", "),
			Album:      item.Album.Name,
			CoverArt:   coverArt,
			DurationMs: item.DurationMs,
			Explicit:   item.Explicit,
		})
	}

	return tracks, nil
}

type searchResponse struct {
	Tracks struct {
		Items []struct {
			Id      string `json:"id"`
			Name    string `json:"name"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
			Album struct {
				Name   string `json:"name"`
				Images []struct {
					URL string `json:"url"`
				} `json:"images"`
			} `json:"album"`
			DurationMs int  `json:"duration_ms"`
			Explicit   bool `json:"explicit"`
		} `json:"items"`
	} `json:"tracks"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// getToken returns the cached token, refreshing it when it is missing or
// about to expire.
func (c *Client) getToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Until(c.tokenExpiresAt) > tokenRefreshMargin {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.clientId, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("spotify token status %d", resp.StatusCode)
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}

	c.accessToken = body.AccessToken
	c.tokenExpiresAt = time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)

	return c.accessToken, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.accessToken = ""
	c.tokenExpiresAt = time.Time{}
}
