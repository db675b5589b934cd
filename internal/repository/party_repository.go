package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/lodestonenet/lodestone/internal/model"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Parties are ephemeral: they live only as long as players keep them
// alive, so they are stored as redis values instead of SQL rows. The
// TTL is refreshed on every save and a party that idles past it simply
// no longer exists.
const partyTTL = 24 * time.Hour

func partyKey(partyId uuid.UUID) string {
	return "lodestone:party:" + partyId.String()
}

type PartyRepository struct {
	Log     *zap.Logger
	DBCache *redis.Client
}

func NewPartyRepository(zap *zap.Logger, dbCache *redis.Client) *PartyRepository {
	return &PartyRepository{
		Log:     zap,
		DBCache: dbCache,
	}
}

func (repository *PartyRepository) SaveParty(ctx context.Context, snapshot model.PartySnapshot) error {
	raw, err := sonic.Marshal(snapshot)
	if err != nil {
		return err
	}
	return repository.DBCache.Set(ctx, partyKey(snapshot.Id), raw, partyTTL).Err()
}

func (repository *PartyRepository) LoadParty(ctx context.Context, partyId uuid.UUID) (*model.Party, bool, error) {
	raw, err := repository.DBCache.Get(ctx, partyKey(partyId)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var snapshot model.PartySnapshot
	if err := sonic.Unmarshal(raw, &snapshot); err != nil {
		return nil, false, err
	}
	return model.PartyFromSnapshot(snapshot), true, nil
}

func (repository *PartyRepository) DeleteParty(ctx context.Context, partyId uuid.UUID) error {
	return repository.DBCache.Del(ctx, partyKey(partyId)).Err()
}
