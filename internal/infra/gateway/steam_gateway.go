package gateway

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"github.com/totegamma/lobbywatch"
	"github.com/totegamma/lobbywatch/client"
	"github.com/totegamma/lobbywatch/internal/domain"
	"github.com/totegamma/lobbywatch/internal/usecase"
)

var tracer = otel.Tracer("gateway")

// SteamGateway resolves SteamInfo through the Steam Web API, keeping an
// in-process cache in front of memcached.
type SteamGateway struct {
	client *client.Client
	cache  *cache.Cache
	mc     *memcache.Client
	ttl    time.Duration
}

var _ usecase.SteamInfoGateway = (*SteamGateway)(nil)

// NewSteamGateway creates the gateway. mc may be nil to run without memcached.
func NewSteamGateway(cl *client.Client, mc *memcache.Client, ttl time.Duration) *SteamGateway {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SteamGateway{
		client: cl,
		cache:  cache.New(ttl, 2*ttl),
		mc:     mc,
		ttl:    ttl,
	}
}

func cacheKey(id lobbywatch.SteamID) string {
	return "steaminfo:" + id.String()
}

func (g *SteamGateway) FetchSteamInfo(ctx context.Context, steamIDs []lobbywatch.SteamID) (map[lobbywatch.SteamID]domain.SteamInfo, error) {
	ctx, span := tracer.Start(ctx, "Steam.Gateway.FetchSteamInfo")
	defer span.End()

	result := make(map[lobbywatch.SteamID]domain.SteamInfo, len(steamIDs))
	remaining := []lobbywatch.SteamID{}

	for _, id := range steamIDs {
		if cached, found := g.cache.Get(cacheKey(id)); found {
			result[id] = cached.(domain.SteamInfo)
		} else {
			remaining = append(remaining, id)
		}
	}

	remaining = g.loadMemcached(remaining, result)
	if len(remaining) == 0 {
		return result, nil
	}

	summaries, err := g.client.GetPlayerSummaries(ctx, remaining)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	bans, err := g.client.GetPlayerBans(ctx, remaining)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	for id, info := range mergeSteamInfo(summaries, bans) {
		result[id] = info
		g.store(id, info)
	}

	return result, nil
}

func (g *SteamGateway) loadMemcached(ids []lobbywatch.SteamID, result map[lobbywatch.SteamID]domain.SteamInfo) []lobbywatch.SteamID {
	if g.mc == nil || len(ids) == 0 {
		return ids
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cacheKey(id)
	}
	items, err := g.mc.GetMulti(keys)
	if err != nil {
		log.Warn().Str("module", "gateway").Err(err).Msg("memcached lookup failed")
		return ids
	}

	remaining := []lobbywatch.SteamID{}
	for _, id := range ids {
		item, ok := items[cacheKey(id)]
		if !ok {
			remaining = append(remaining, id)
			continue
		}
		var info domain.SteamInfo
		if err := json.Unmarshal(item.Value, &info); err != nil {
			remaining = append(remaining, id)
			continue
		}
		result[id] = info
		g.cache.Set(cacheKey(id), info, cache.DefaultExpiration)
	}
	return remaining
}

func (g *SteamGateway) store(id lobbywatch.SteamID, info domain.SteamInfo) {
	g.cache.Set(cacheKey(id), info, cache.DefaultExpiration)
	if g.mc == nil {
		return
	}
	value, err := json.Marshal(info)
	if err != nil {
		return
	}
	err = g.mc.Set(&memcache.Item{
		Key:        cacheKey(id),
		Value:      value,
		Expiration: int32(g.ttl.Seconds()),
	})
	if err != nil {
		log.Warn().Str("module", "gateway").Err(err).Msg("memcached store failed")
	}
}

// mergeSteamInfo joins summaries and bans by SteamID. Only ids with a
// summary produce an entry; bans without one are dropped.
func mergeSteamInfo(summaries []client.PlayerSummary, bans []client.PlayerBans) map[lobbywatch.SteamID]domain.SteamInfo {
	banByID := make(map[string]client.PlayerBans, len(bans))
	for _, b := range bans {
		banByID[b.SteamID] = b
	}

	out := make(map[lobbywatch.SteamID]domain.SteamInfo, len(summaries))
	for _, s := range summaries {
		raw, err := strconv.ParseUint(s.SteamID, 10, 64)
		if err != nil {
			log.Warn().Str("module", "gateway").Str("steamid", s.SteamID).Msg("steam returned malformed id")
			continue
		}

		info := domain.SteamInfo{
			AccountName:       s.PersonaName,
			ProfileURL:        s.ProfileURL,
			PfpURL:            s.AvatarFull,
			PfpHash:           s.AvatarHash,
			ProfileVisibility: domain.ProfileVisibilityFromInt(s.CommunityVisibilityState),
			TimeCreated:       s.TimeCreated,
		}
		if s.LocCountryCode != "" {
			code := s.LocCountryCode
			info.CountryCode = &code
		}
		if b, ok := banByID[s.SteamID]; ok {
			info.VACBans = b.NumberOfVACBans
			info.GameBans = b.NumberOfGameBans
			if b.NumberOfVACBans > 0 || b.NumberOfGameBans > 0 {
				days := b.DaysSinceLastBan
				info.DaysSinceLastBan = &days
			}
		}
		out[lobbywatch.SteamID(raw)] = info
	}
	return out
}
