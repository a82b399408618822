package usecase

import (
	"context"

	"github.com/totegamma/lobbywatch"
	"github.com/totegamma/lobbywatch/internal/domain"
)

// RecordRepository defines storage operations for player records.
type RecordRepository interface {
	Get(ctx context.Context, steamID lobbywatch.SteamID) (domain.PlayerRecord, error)
	Upsert(ctx context.Context, record domain.PlayerRecord) error
	List(ctx context.Context, verdict *domain.Verdict) ([]domain.PlayerRecord, error)
}

// SteamInfoGateway resolves profile snapshots from Steam.
// Ids Steam knows nothing about are simply absent from the result.
type SteamInfoGateway interface {
	FetchSteamInfo(ctx context.Context, steamIDs []lobbywatch.SteamID) (map[lobbywatch.SteamID]domain.SteamInfo, error)
}

// EventPublisher fans registry changes out to subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, event lobbywatch.Event) error
}
