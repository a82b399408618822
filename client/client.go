package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/totegamma/lobbywatch"
)

const (
	DefaultBaseURL = "https://api.steampowered.com"
	defaultTimeout = 5 * time.Second
	// MaxBatch is the number of ids the Steam Web API accepts per call.
	MaxBatch = 100
)

type Client struct {
	client    *http.Client
	missing   *cache.Cache
	userAgent string
	apiKey    string
	baseURL   string
}

// New creates a Steam Web API client. Ids Steam reports nothing about are
// remembered for missingTTL and skipped until then.
func New(apiKey, baseURL string, missingTTL time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if missingTTL <= 0 {
		missingTTL = 10 * time.Minute
	}

	httpClient := http.Client{
		Timeout: defaultTimeout,
	}

	log.Info().Str("module", "client").Str("baseURL", baseURL).Msg("Initialize steam client")
	c := &Client{
		client:    &httpClient,
		missing:   cache.New(missingTTL, 2*missingTTL),
		userAgent: "lobbywatch",
		apiKey:    apiKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
	httpClient.Transport = c
	return c
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	return http.DefaultTransport.RoundTrip(req)
}

// PlayerSummary is one entry of ISteamUser/GetPlayerSummaries/v2.
type PlayerSummary struct {
	SteamID                  string `json:"steamid"`
	CommunityVisibilityState int32  `json:"communityvisibilitystate"`
	PersonaName              string `json:"personaname"`
	ProfileURL               string `json:"profileurl"`
	AvatarFull               string `json:"avatarfull"`
	AvatarHash               string `json:"avatarhash"`
	TimeCreated              *int64 `json:"timecreated,omitempty"`
	LocCountryCode           string `json:"loccountrycode,omitempty"`
}

// PlayerBans is one entry of ISteamUser/GetPlayerBans/v1.
type PlayerBans struct {
	SteamID          string `json:"SteamId"`
	CommunityBanned  bool   `json:"CommunityBanned"`
	VACBanned        bool   `json:"VACBanned"`
	NumberOfVACBans  int64  `json:"NumberOfVACBans"`
	DaysSinceLastBan int64  `json:"DaysSinceLastBan"`
	NumberOfGameBans int64  `json:"NumberOfGameBans"`
	EconomyBan       string `json:"EconomyBan"`
}

type summariesResponse struct {
	Response struct {
		Players []PlayerSummary `json:"players"`
	} `json:"response"`
}

type bansResponse struct {
	Players []PlayerBans `json:"players"`
}

func (c *Client) HttpRequest(ctx context.Context, path string, query url.Values, response any) error {
	if c.apiKey == "" {
		return fmt.Errorf("steam api key is not configured")
	}
	query.Set("key", c.apiKey)

	endpoint := c.baseURL + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to perform request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}

// GetPlayerSummaries fetches profile summaries, splitting the ids into
// batches the API accepts.
func (c *Client) GetPlayerSummaries(ctx context.Context, steamIDs []lobbywatch.SteamID) ([]PlayerSummary, error) {
	var result []PlayerSummary
	for _, batch := range c.batches(steamIDs, "summary") {
		var resp summariesResponse
		err := c.HttpRequest(ctx, "/ISteamUser/GetPlayerSummaries/v2/", url.Values{"steamids": {joinIDs(batch)}}, &resp)
		if err != nil {
			return nil, errors.Wrap(err, "GetPlayerSummaries")
		}
		rememberMissing(c.missing, "summary", batch, resp.Response.Players, func(s PlayerSummary) string { return s.SteamID })
		result = append(result, resp.Response.Players...)
	}
	return result, nil
}

// GetPlayerBans fetches ban records for the given ids.
func (c *Client) GetPlayerBans(ctx context.Context, steamIDs []lobbywatch.SteamID) ([]PlayerBans, error) {
	var result []PlayerBans
	for _, batch := range c.batches(steamIDs, "bans") {
		var resp bansResponse
		err := c.HttpRequest(ctx, "/ISteamUser/GetPlayerBans/v1/", url.Values{"steamids": {joinIDs(batch)}}, &resp)
		if err != nil {
			return nil, errors.Wrap(err, "GetPlayerBans")
		}
		rememberMissing(c.missing, "bans", batch, resp.Players, func(b PlayerBans) string { return b.SteamID })
		result = append(result, resp.Players...)
	}
	return result, nil
}

func (c *Client) batches(steamIDs []lobbywatch.SteamID, kind string) [][]lobbywatch.SteamID {
	var pending []lobbywatch.SteamID
	for _, id := range steamIDs {
		if _, found := c.missing.Get(kind + ":" + id.String()); found {
			continue
		}
		pending = append(pending, id)
	}

	var out [][]lobbywatch.SteamID
	for len(pending) > 0 {
		n := min(len(pending), MaxBatch)
		out = append(out, pending[:n])
		pending = pending[n:]
	}
	return out
}

// rememberMissing marks the requested ids absent from a response so later
// batches skip them until the entry expires.
func rememberMissing[T any](missing *cache.Cache, kind string, requested []lobbywatch.SteamID, items []T, key func(T) string) {
	returned := make(map[string]struct{}, len(items))
	for _, item := range items {
		returned[key(item)] = struct{}{}
	}
	for _, id := range requested {
		if _, ok := returned[id.String()]; !ok {
			missing.Set(kind+":"+id.String(), struct{}{}, cache.DefaultExpiration)
		}
	}
}

func joinIDs(ids []lobbywatch.SteamID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ",")
}
