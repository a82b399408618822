package usecase

import (
	"context"
	"encoding/json"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/lobbywatch"
	"github.com/totegamma/lobbywatch/internal/domain"
)

var tracer = otel.Tracer("usecase")

// PlayerUpdate is a partial edit of a player's moderation data.
type PlayerUpdate struct {
	Verdict    *domain.Verdict `json:"localVerdict,omitempty"`
	CustomData json.RawMessage `json:"customData,omitempty"`
	Tags       []string        `json:"tags,omitempty"`
	Convicted  *bool           `json:"convicted,omitempty"`
}

// PlayerUsecase is the live registry: one Player per SteamID, fed by the
// two observation sources and aged by RefreshCycle.
type PlayerUsecase struct {
	mu      sync.RWMutex
	players map[lobbywatch.SteamID]*domain.Player
	user    *lobbywatch.SteamID

	records RecordRepository
	steam   SteamInfoGateway
	events  EventPublisher

	// persistLocks serialize record writes per SteamID (striped).
	persistLocks [64]sync.Mutex
}

func NewPlayerUsecase(
	user *lobbywatch.SteamID,
	records RecordRepository,
	steam SteamInfoGateway,
	events EventPublisher,
) *PlayerUsecase {
	return &PlayerUsecase{
		players: make(map[lobbywatch.SteamID]*domain.Player),
		user:    user,
		records: records,
		steam:   steam,
		events:  events,
	}
}

func (uc *PlayerUsecase) User() *lobbywatch.SteamID {
	return uc.user
}

func (uc *PlayerUsecase) HandleStatusLine(ctx context.Context, status domain.StatusLine) error {
	ctx, span := tracer.Start(ctx, "Player.Usecase.HandleStatusLine")
	defer span.End()
	span.SetAttributes(attribute.String("steamid", status.SteamID.String()))

	uc.mu.Lock()
	if p, ok := uc.players[status.SteamID]; ok {
		p.GameInfo.Acknowledge()
		renamed := p.Rename(status.Name)
		p.GameInfo.UpdateFromStatus(status)
		snapshot := p.Clone()
		uc.mu.Unlock()

		return uc.updated(ctx, snapshot, renamed)
	}
	uc.mu.Unlock()

	err := uc.admit(ctx, domain.NewPlayerFromStatus(status, uc.user))
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// HandleG15 applies one G15 dump. Slots that cannot form a player are
// skipped; the number of slots applied is returned.
func (uc *PlayerUsecase) HandleG15(ctx context.Context, dump []domain.G15Player) (int, error) {
	ctx, span := tracer.Start(ctx, "Player.Usecase.HandleG15")
	defer span.End()

	accepted := 0
	var lastErr error
	for _, g15 := range dump {
		if g15.SteamID == nil {
			continue
		}

		uc.mu.Lock()
		if p, ok := uc.players[*g15.SteamID]; ok {
			p.GameInfo.Acknowledge()
			renamed := false
			if g15.Name != nil {
				renamed = p.Rename(*g15.Name)
			}
			p.GameInfo.UpdateFromG15(g15)
			snapshot := p.Clone()
			uc.mu.Unlock()

			accepted++
			if err := uc.updated(ctx, snapshot, renamed); err != nil {
				lastErr = err
			}
			continue
		}
		uc.mu.Unlock()

		p, ok := domain.NewPlayerFromG15(g15, uc.user)
		if !ok {
			log.Debug().
				Str("module", "registry").
				Stringer("steamid", *g15.SteamID).
				Msg("skipping incomplete g15 slot")
			continue
		}
		accepted++
		if err := uc.admit(ctx, p); err != nil {
			lastErr = err
		}
	}

	span.SetAttributes(attribute.Int("accepted", accepted))
	if lastErr != nil {
		span.RecordError(lastErr)
	}
	return accepted, lastErr
}

// admit overlays the stored record onto a freshly constructed player and
// inserts it. A failing record lookup still admits the player with defaults.
func (uc *PlayerUsecase) admit(ctx context.Context, p *domain.Player) error {
	var loadErr error
	record, err := uc.records.Get(ctx, p.SteamID)
	switch {
	case err == nil:
		_ = p.UpdateFromRecord(record)
	case errors.Is(err, domain.ErrNotFound):
	default:
		loadErr = errors.Wrapf(err, "load record %s", p.SteamID)
		log.Warn().
			Err(err).
			Str("module", "registry").
			Stringer("steamid", p.SteamID).
			Msg("failed to load player record")
	}

	uc.mu.Lock()
	if existing, ok := uc.players[p.SteamID]; ok {
		// another observation won the race
		existing.GameInfo.Acknowledge()
		snapshot := existing.Clone()
		uc.mu.Unlock()
		uc.publish(ctx, lobbywatch.EventPlayerUpdated, snapshot)
		return loadErr
	}
	uc.players[p.SteamID] = p
	snapshot := p.Clone()
	uc.mu.Unlock()

	log.Info().
		Str("module", "registry").
		Stringer("steamid", p.SteamID).
		Str("name", p.Name).
		Msg("player joined")
	uc.publish(ctx, lobbywatch.EventPlayerJoined, snapshot)
	return loadErr
}

func (uc *PlayerUsecase) updated(ctx context.Context, snapshot domain.Player, renamed bool) error {
	var err error
	if renamed {
		err = uc.persist(ctx, snapshot.Record())
		if err != nil {
			err = errors.Wrapf(err, "persist rename of %s", snapshot.SteamID)
		}
	}
	uc.publish(ctx, lobbywatch.EventPlayerUpdated, snapshot)
	return err
}

// RefreshCycle ages every player by one polling cycle and evicts the ones
// that have been unobserved for too long. The evicted ids are returned.
func (uc *PlayerUsecase) RefreshCycle(ctx context.Context) []lobbywatch.SteamID {
	ctx, span := tracer.Start(ctx, "Player.Usecase.RefreshCycle")
	defer span.End()

	uc.mu.Lock()
	var pruned []lobbywatch.SteamID
	for id, p := range uc.players {
		p.GameInfo.NextCycle()
		if p.GameInfo.ShouldPrune() {
			pruned = append(pruned, id)
			delete(uc.players, id)
		}
	}
	uc.mu.Unlock()

	slices.Sort(pruned)
	for _, id := range pruned {
		log.Info().Str("module", "registry").Stringer("steamid", id).Msg("player left")
		uc.publishLeft(ctx, id)
	}
	span.SetAttributes(attribute.Int("pruned", len(pruned)))
	return pruned
}

func (uc *PlayerUsecase) AttachSteamInfo(ctx context.Context, steamID lobbywatch.SteamID, info domain.SteamInfo) error {
	ctx, span := tracer.Start(ctx, "Player.Usecase.AttachSteamInfo")
	defer span.End()

	uc.mu.Lock()
	p, ok := uc.players[steamID]
	if !ok {
		uc.mu.Unlock()
		return domain.NotFoundError{Resource: "player"}
	}
	p.SetSteamInfo(&info)
	snapshot := p.Clone()
	uc.mu.Unlock()

	uc.publish(ctx, lobbywatch.EventPlayerUpdated, snapshot)
	return nil
}

// EnrichPending fetches Steam profiles for every player that has none yet.
func (uc *PlayerUsecase) EnrichPending(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "Player.Usecase.EnrichPending")
	defer span.End()

	if uc.steam == nil {
		return 0, errors.New("steam gateway not configured")
	}

	uc.mu.RLock()
	var pending []lobbywatch.SteamID
	for id, p := range uc.players {
		if p.SteamInfo == nil {
			pending = append(pending, id)
		}
	}
	uc.mu.RUnlock()

	if len(pending) == 0 {
		return 0, nil
	}
	slices.Sort(pending)

	infos, err := uc.steam.FetchSteamInfo(ctx, pending)
	if err != nil {
		span.RecordError(err)
		return 0, errors.Wrap(err, "fetch steam info")
	}

	attached := 0
	for _, id := range pending {
		info, ok := infos[id]
		if !ok {
			continue
		}
		err := uc.AttachSteamInfo(ctx, id, info)
		if errors.Is(err, domain.ErrNotFound) {
			// pruned while the request was in flight
			continue
		}
		attached++
	}
	span.SetAttributes(attribute.Int("attached", attached))
	return attached, nil
}

// UpdatePlayer edits the moderation data of a live player and persists it.
func (uc *PlayerUsecase) UpdatePlayer(ctx context.Context, steamID lobbywatch.SteamID, update PlayerUpdate) (domain.Player, error) {
	ctx, span := tracer.Start(ctx, "Player.Usecase.UpdatePlayer")
	defer span.End()

	if update.CustomData != nil && !json.Valid(update.CustomData) {
		return domain.Player{}, errors.New("custom data is not valid json")
	}

	uc.mu.Lock()
	p, ok := uc.players[steamID]
	if !ok {
		uc.mu.Unlock()
		return domain.Player{}, domain.NotFoundError{Resource: "player"}
	}
	if update.Verdict != nil {
		p.LocalVerdict = *update.Verdict
	}
	if update.CustomData != nil {
		p.CustomData = update.CustomData
	}
	for _, tag := range update.Tags {
		p.AddTag(tag)
	}
	if update.Convicted != nil {
		p.Convicted = *update.Convicted
	}
	snapshot := p.Clone()
	uc.mu.Unlock()

	if err := uc.persist(ctx, snapshot.Record()); err != nil {
		span.RecordError(err)
		return snapshot, errors.Wrap(err, "persist player record")
	}

	uc.publish(ctx, lobbywatch.EventPlayerUpdated, snapshot)
	return snapshot, nil
}

// ApplyRecord merges an imported record into the live player with the same
// SteamID and persists the result. It reports whether such a player exists.
func (uc *PlayerUsecase) ApplyRecord(ctx context.Context, record domain.PlayerRecord) (bool, error) {
	ctx, span := tracer.Start(ctx, "Player.Usecase.ApplyRecord")
	defer span.End()

	uc.mu.Lock()
	p, ok := uc.players[record.SteamID]
	if !ok {
		uc.mu.Unlock()
		return false, nil
	}
	if err := p.UpdateFromRecord(record); err != nil {
		uc.mu.Unlock()
		return true, err
	}
	snapshot := p.Clone()
	uc.mu.Unlock()

	if err := uc.persist(ctx, snapshot.Record()); err != nil {
		span.RecordError(err)
		return true, errors.Wrap(err, "persist player record")
	}
	uc.publish(ctx, lobbywatch.EventPlayerUpdated, snapshot)
	return true, nil
}

// persist writes the record of a player. Writes for one SteamID never
// overlap, and each one re-reads the live player so a write queued behind
// a newer change stores that change too. fallback is written when the
// player has already been pruned.
func (uc *PlayerUsecase) persist(ctx context.Context, fallback domain.PlayerRecord) error {
	lock := &uc.persistLocks[uint64(fallback.SteamID)%uint64(len(uc.persistLocks))]
	lock.Lock()
	defer lock.Unlock()

	record := fallback
	uc.mu.RLock()
	if p, ok := uc.players[fallback.SteamID]; ok {
		record = p.Record()
	}
	uc.mu.RUnlock()

	return uc.records.Upsert(ctx, record)
}

func (uc *PlayerUsecase) Get(steamID lobbywatch.SteamID) (domain.Player, error) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	p, ok := uc.players[steamID]
	if !ok {
		return domain.Player{}, domain.NotFoundError{Resource: "player"}
	}
	return p.Clone(), nil
}

// Snapshot returns copies of all players ordered by name, then SteamID.
func (uc *PlayerUsecase) Snapshot() []domain.Player {
	uc.mu.RLock()
	players := make([]domain.Player, 0, len(uc.players))
	for _, p := range uc.players {
		players = append(players, p.Clone())
	}
	uc.mu.RUnlock()

	sort.Slice(players, func(i, j int) bool {
		if players[i].Name != players[j].Name {
			return players[i].Name < players[j].Name
		}
		return players[i].SteamID < players[j].SteamID
	})
	return players
}

func (uc *PlayerUsecase) publish(ctx context.Context, eventType string, p domain.Player) {
	payload, err := json.Marshal(p)
	if err != nil {
		log.Error().Err(err).Str("module", "registry").Msg("failed to encode player event")
		return
	}
	uc.emit(ctx, lobbywatch.Event{
		Type:    eventType,
		SteamID: p.SteamID,
		Payload: payload,
	})
}

func (uc *PlayerUsecase) publishLeft(ctx context.Context, steamID lobbywatch.SteamID) {
	uc.emit(ctx, lobbywatch.Event{
		Type:    lobbywatch.EventPlayerLeft,
		SteamID: steamID,
	})
}

func (uc *PlayerUsecase) emit(ctx context.Context, event lobbywatch.Event) {
	if uc.events == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Time = time.Now().UTC()

	if err := uc.events.Publish(ctx, lobbywatch.PlayerChannel, event); err != nil {
		log.Warn().
			Err(err).
			Str("module", "registry").
			Str("type", event.Type).
			Msg("failed to publish event")
	}
}
