package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lodestonenet/lodestone/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubStore is guarded by a mutex because the job's run loop hits it
// from its own goroutine in the lifecycle tests.
type stubStore struct {
	mu       sync.Mutex
	storages map[uuid.UUID]*model.GuildStorage
	failLoad map[uuid.UUID]bool
	saved    []model.StorageSnapshot
}

func newStubStore() *stubStore {
	return &stubStore{
		storages: map[uuid.UUID]*model.GuildStorage{},
		failLoad: map[uuid.UUID]bool{},
	}
}

func (s *stubStore) LoadStorage(ctx context.Context, guildId uuid.UUID) (*model.GuildStorage, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLoad[guildId] {
		return nil, false, errors.New("load failed")
	}
	storage, ok := s.storages[guildId]
	return storage, ok, nil
}

func (s *stubStore) SaveStorage(ctx context.Context, snapshot model.StorageSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, snapshot)
	s.storages[snapshot.GuildId] = model.StorageFromSnapshot(snapshot)
	return nil
}

func (s *stubStore) savedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

func (s *stubStore) putStorage(storage *model.GuildStorage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storages[storage.GuildId] = storage
}

type stubProvider struct {
	guilds []*model.Guild
	err    error
}

func (p *stubProvider) LoadAllGuilds(ctx context.Context) ([]*model.Guild, error) {
	return p.guilds, p.err
}

func addGuildWithBalance(provider *stubProvider, store *stubStore, balance string) *model.Guild {
	guild := model.NewGuild("Ironclad", "IRON", uuid.New(), 0)
	storage := model.NewGuildStorage(guild.StorageId, 0)
	if balance != "" {
		storage.DepositMoney(decimal.RequireFromString(balance))
	}
	provider.guilds = append(provider.guilds, guild)
	store.putStorage(storage)
	return guild
}

func TestRunOnceCreditsInterest(t *testing.T) {
	provider := &stubProvider{}
	store := newStubStore()
	guild := addGuildWithBalance(provider, store, "1000")

	job := NewInterestJob(provider, store, decimal.RequireFromString("0.01"), time.Hour, zap.NewNop())

	updated, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, updated)

	storage, found, err := store.LoadStorage(context.Background(), guild.StorageId)
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, storage.Balance().Equal(decimal.RequireFromString("1010")),
		"1000 at 1%% must become 1010, got %s", storage.Balance())
}

func TestRunOnceSkipsEmptyLedgers(t *testing.T) {
	provider := &stubProvider{}
	store := newStubStore()
	zeroGuild := addGuildWithBalance(provider, store, "")
	richGuild := addGuildWithBalance(provider, store, "200")

	job := NewInterestJob(provider, store, decimal.RequireFromString("0.05"), time.Hour, zap.NewNop())

	updated, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, updated, "zero balances accrue nothing and do not count")

	zero, _, _ := store.LoadStorage(context.Background(), zeroGuild.StorageId)
	require.True(t, zero.Balance().IsZero())

	rich, _, _ := store.LoadStorage(context.Background(), richGuild.StorageId)
	require.True(t, rich.Balance().Equal(decimal.RequireFromString("210")))
}

func TestRunOnceContinuesPastFailingGuild(t *testing.T) {
	provider := &stubProvider{}
	store := newStubStore()
	broken := addGuildWithBalance(provider, store, "500")
	healthy := addGuildWithBalance(provider, store, "500")
	store.failLoad[broken.StorageId] = true

	job := NewInterestJob(provider, store, decimal.RequireFromString("0.10"), time.Hour, zap.NewNop())

	updated, err := job.RunOnce(context.Background())
	require.NoError(t, err, "per-guild failures never fail the run")
	require.Equal(t, 1, updated)

	storage, _, _ := store.LoadStorage(context.Background(), healthy.StorageId)
	require.True(t, storage.Balance().Equal(decimal.RequireFromString("550")))
}

func TestRunOnceFailsWhenListingFails(t *testing.T) {
	provider := &stubProvider{err: errors.New("db down")}
	job := NewInterestJob(provider, newStubStore(), decimal.RequireFromString("0.01"), time.Hour, zap.NewNop())

	_, err := job.RunOnce(context.Background())
	require.Error(t, err)
}

func TestStartStopLifecycle(t *testing.T) {
	provider := &stubProvider{}
	store := newStubStore()
	job := NewInterestJob(provider, store, decimal.RequireFromString("0.01"), time.Hour, zap.NewNop())

	require.False(t, job.Status().Running)

	job.Start()
	job.Start() // second start is a no-op
	require.True(t, job.Status().Running)

	job.Stop()
	job.Stop() // second stop is a no-op
	require.False(t, job.Status().Running)
}

func TestRestartAfterStop(t *testing.T) {
	provider := &stubProvider{}
	store := newStubStore()
	addGuildWithBalance(provider, store, "100")

	job := NewInterestJob(provider, store, decimal.RequireFromString("0.01"), 10*time.Millisecond, zap.NewNop())

	job.Start()
	job.Stop()
	baseline := store.savedCount()

	// A stopped job must come back up with a live loop, and stopping
	// it again must not panic on the old stop channel.
	job.Start()
	require.True(t, job.Status().Running)
	require.Eventually(t, func() bool {
		return store.savedCount() > baseline
	}, 2*time.Second, 10*time.Millisecond, "restarted loop must keep accruing")

	job.Stop()
	require.False(t, job.Status().Running)
}

func TestRunOnceRoundsInterestToLedgerScale(t *testing.T) {
	provider := &stubProvider{}
	store := newStubStore()
	guild := addGuildWithBalance(provider, store, "253.005")

	job := NewInterestJob(provider, store, decimal.RequireFromString("0.01"), time.Hour, zap.NewNop())

	updated, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, updated)

	// Raw interest is 2.53005; the deposit must carry the ledger scale
	// so the persisted NUMERIC value equals the in-memory balance.
	storage, _, _ := store.LoadStorage(context.Background(), guild.StorageId)
	require.True(t, storage.Balance().Equal(decimal.RequireFromString("255.5351")),
		"expected 255.5351, got %s", storage.Balance())
	require.GreaterOrEqual(t, storage.Balance().Exponent(), int32(-model.MoneyScale))
}

func TestRunOnceSkipsInterestRoundingToZero(t *testing.T) {
	provider := &stubProvider{}
	store := newStubStore()
	guild := addGuildWithBalance(provider, store, "0.0001")

	job := NewInterestJob(provider, store, decimal.RequireFromString("0.01"), time.Hour, zap.NewNop())

	updated, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, updated, "interest below the ledger scale accrues nothing")

	storage, _, _ := store.LoadStorage(context.Background(), guild.StorageId)
	require.True(t, storage.Balance().Equal(decimal.RequireFromString("0.0001")))
}

func TestStatusReflectsLastRun(t *testing.T) {
	provider := &stubProvider{}
	store := newStubStore()
	addGuildWithBalance(provider, store, "100")

	job := NewInterestJob(provider, store, decimal.RequireFromString("0.01"), time.Hour, zap.NewNop())

	_, err := job.RunOnce(context.Background())
	require.NoError(t, err)

	status := job.Status()
	require.Equal(t, 1, status.LastUpdated)
	require.WithinDuration(t, time.Now().UTC(), status.LastRun, time.Minute)
	require.Equal(t, "0.01", status.Rate)
}
