package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lodestonenet/lodestone/internal/model"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GuildProvider supplies every guild known to the persistence layer.
type GuildProvider interface {
	LoadAllGuilds(ctx context.Context) ([]*model.Guild, error)
}

// StorageStore loads and persists guild ledgers.
type StorageStore interface {
	LoadStorage(ctx context.Context, guildId uuid.UUID) (*model.GuildStorage, bool, error)
	SaveStorage(ctx context.Context, snapshot model.StorageSnapshot) error
}

const DefaultInterestPeriod = 24 * time.Hour

// InterestJob periodically credits interest to every guild bank with a
// positive balance. It mutates balances only through the ledger's own
// deposit operation, so it is safe to run against live command
// traffic; per-guild failures are logged and skipped.
type InterestJob struct {
	provider GuildProvider
	store    StorageStore
	rate     decimal.Decimal
	period   time.Duration
	log      *zap.Logger

	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex

	lastRun     time.Time
	lastUpdated int
}

func NewInterestJob(provider GuildProvider, store StorageStore, rate decimal.Decimal, period time.Duration, log *zap.Logger) *InterestJob {
	if period <= 0 {
		period = DefaultInterestPeriod
	}
	return &InterestJob{
		provider: provider,
		store:    store,
		rate:     rate,
		period:   period,
		log:      log,
	}
}

// Start begins the periodic run loop. Starting twice is a no-op. Each
// start gets a fresh stop channel, so the job can be restarted after
// Stop.
func (j *InterestJob) Start() {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.stopCh = make(chan struct{})
	stopCh := j.stopCh
	j.mu.Unlock()

	j.wg.Add(1)
	go j.run(stopCh)
	j.log.Info("interest job started", zap.Duration("period", j.period), zap.String("rate", j.rate.String()))
}

// Stop ends the loop and waits for an in-flight run to finish. A run
// interrupted by process shutdown may leave only a subset of guilds
// credited; the next scheduled run recomputes from current balances,
// so that is safe.
func (j *InterestJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	stopCh := j.stopCh
	j.mu.Unlock()

	close(stopCh)
	j.wg.Wait()
	j.log.Info("interest job stopped")
}

func (j *InterestJob) run(stopCh <-chan struct{}) {
	defer j.wg.Done()

	ticker := time.NewTicker(j.period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
			if _, err := j.RunOnce(ctx); err != nil {
				j.log.Error("interest run failed", zap.Error(err))
			}
			cancel()
		case <-stopCh:
			return
		}
	}
}

// RunOnce applies one interest pass over every guild and returns how
// many ledgers were credited. Only listing the guilds can fail the
// whole run; everything per-guild is caught and logged.
func (j *InterestJob) RunOnce(ctx context.Context) (int, error) {
	guilds, err := j.provider.LoadAllGuilds(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, guild := range guilds {
		select {
		case <-ctx.Done():
			return updated, ctx.Err()
		default:
		}

		if j.accrue(ctx, guild) {
			updated++
		}
	}

	j.mu.Lock()
	j.lastRun = time.Now().UTC()
	j.lastUpdated = updated
	j.mu.Unlock()

	j.log.Info("interest run complete",
		zap.Int("guilds", len(guilds)),
		zap.Int("updated", updated))
	return updated, nil
}

func (j *InterestJob) accrue(ctx context.Context, guild *model.Guild) bool {
	storage, found, err := j.store.LoadStorage(ctx, guild.StorageId)
	if err != nil {
		j.log.Error("skipping guild, storage load failed",
			zap.String("guild_id", guild.Id.String()),
			zap.Error(err))
		return false
	}
	if !found {
		j.log.Warn("skipping guild without storage", zap.String("guild_id", guild.Id.String()))
		return false
	}

	balance := storage.Balance()
	if !balance.IsPositive() {
		return false
	}

	// Round to the ledger's persisted scale, so the balance written
	// back is exactly the balance held in memory. Interest that rounds
	// to zero accrues nothing.
	interest := balance.Mul(j.rate).Round(model.MoneyScale)
	if !storage.DepositMoney(interest) {
		return false
	}

	if err := j.store.SaveStorage(ctx, storage.Snapshot()); err != nil {
		j.log.Error("skipping guild, storage save failed",
			zap.String("guild_id", guild.Id.String()),
			zap.Error(err))
		return false
	}
	return true
}

// Status is the job summary shown on the ops surface.
type Status struct {
	Running     bool      `json:"running"`
	Period      string    `json:"period"`
	Rate        string    `json:"rate"`
	LastRun     time.Time `json:"last_run"`
	LastUpdated int       `json:"last_updated"`
}

func (j *InterestJob) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Status{
		Running:     j.running,
		Period:      j.period.String(),
		Rate:        j.rate.String(),
		LastRun:     j.lastRun,
		LastUpdated: j.lastUpdated,
	}
}
