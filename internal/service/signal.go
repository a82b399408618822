package service

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"github.com/totegamma/lobbywatch"
	"github.com/totegamma/lobbywatch/internal/usecase"
)

var tracer = otel.Tracer("signal")

type SignalService struct {
	rdb *redis.Client
}

var _ usecase.EventPublisher = (*SignalService)(nil)

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func (s *SignalService) Publish(ctx context.Context, channel string, event lobbywatch.Event) error {
	ctx, span := tracer.Start(ctx, "Signal.Service.Publish")
	defer span.End()

	jsonstr, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "encode event")
	}

	err = s.rdb.Publish(ctx, channel, jsonstr).Err()
	if err != nil {
		span.RecordError(err)
		return errors.Wrapf(err, "publish to %s", channel)
	}

	return nil
}

// Realtime forwards player events to output until ctx is cancelled.
// Each value received on filters replaces the set of SteamIDs the caller
// is interested in; an empty set means every player.
func (s *SignalService) Realtime(ctx context.Context, filters <-chan []lobbywatch.SteamID, output chan<- lobbywatch.Event) {
	pubsub := s.rdb.Subscribe(ctx, lobbywatch.PlayerChannel)
	defer pubsub.Close()

	relay(ctx, pubsub.Channel(), filters, output)
}

func relay(ctx context.Context, messages <-chan *redis.Message, filters <-chan []lobbywatch.SteamID, output chan<- lobbywatch.Event) {
	var filter map[lobbywatch.SteamID]struct{}

	for {
		select {
		case <-ctx.Done():
			return
		case ids, ok := <-filters:
			if !ok {
				return
			}
			filter = newFilter(ids)
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var event lobbywatch.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Warn().Str("module", "signal").Err(err).Msg("dropping malformed event")
				continue
			}
			if !matches(filter, event) {
				continue
			}
			select {
			case output <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}

func newFilter(ids []lobbywatch.SteamID) map[lobbywatch.SteamID]struct{} {
	if len(ids) == 0 {
		return nil
	}
	filter := make(map[lobbywatch.SteamID]struct{}, len(ids))
	for _, id := range ids {
		filter[id] = struct{}{}
	}
	return filter
}

func matches(filter map[lobbywatch.SteamID]struct{}, event lobbywatch.Event) bool {
	if filter == nil {
		return true
	}
	_, ok := filter[event.SteamID]
	return ok
}
