package usecase

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/totegamma/lobbywatch"
	"github.com/totegamma/lobbywatch/internal/domain"
)

type mockRecordRepo struct {
	mu      sync.Mutex
	records map[lobbywatch.SteamID]domain.PlayerRecord
	saved   []domain.PlayerRecord
	getErr  error
}

func newMockRecordRepo(records ...domain.PlayerRecord) *mockRecordRepo {
	m := &mockRecordRepo{records: make(map[lobbywatch.SteamID]domain.PlayerRecord)}
	for _, r := range records {
		m.records[r.SteamID] = r
	}
	return m
}

func (m *mockRecordRepo) Get(ctx context.Context, steamID lobbywatch.SteamID) (domain.PlayerRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return domain.PlayerRecord{}, m.getErr
	}
	r, ok := m.records[steamID]
	if !ok {
		return domain.PlayerRecord{}, domain.NotFoundError{Resource: "player record"}
	}
	return r, nil
}

func (m *mockRecordRepo) Upsert(ctx context.Context, record domain.PlayerRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.SteamID] = record
	m.saved = append(m.saved, record)
	return nil
}

func (m *mockRecordRepo) List(ctx context.Context, verdict *domain.Verdict) ([]domain.PlayerRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.PlayerRecord
	for _, r := range m.records {
		if verdict == nil || r.Verdict == *verdict {
			out = append(out, r)
		}
	}
	return out, nil
}

type mockSteamGateway struct {
	infos map[lobbywatch.SteamID]domain.SteamInfo
	calls [][]lobbywatch.SteamID
}

func (m *mockSteamGateway) FetchSteamInfo(ctx context.Context, steamIDs []lobbywatch.SteamID) (map[lobbywatch.SteamID]domain.SteamInfo, error) {
	m.calls = append(m.calls, steamIDs)
	out := make(map[lobbywatch.SteamID]domain.SteamInfo)
	for _, id := range steamIDs {
		if info, ok := m.infos[id]; ok {
			out[id] = info
		}
	}
	return out, nil
}

type mockPublisher struct {
	mu     sync.Mutex
	events []lobbywatch.Event
}

func (m *mockPublisher) Publish(ctx context.Context, channel string, event lobbywatch.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockPublisher) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Type)
	}
	return out
}

// blockingRecordRepo parks the first Upsert until release is closed.
type blockingRecordRepo struct {
	*mockRecordRepo
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func newBlockingRecordRepo() *blockingRecordRepo {
	return &blockingRecordRepo{
		mockRecordRepo: newMockRecordRepo(),
		entered:        make(chan struct{}),
		release:        make(chan struct{}),
	}
}

func (m *blockingRecordRepo) Upsert(ctx context.Context, record domain.PlayerRecord) error {
	if m.armed.CompareAndSwap(true, false) {
		close(m.entered)
		<-m.release
	}
	return m.mockRecordRepo.Upsert(ctx, record)
}
