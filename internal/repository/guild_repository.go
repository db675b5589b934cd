package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lodestonenet/lodestone/internal/model"
	"github.com/lodestonenet/lodestone/internal/observability"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const storageCacheTTL = 5 * time.Minute

func storageCacheKey(guildId uuid.UUID) string {
	return "lodestone:cache:storage:" + guildId.String()
}

type GuildRepository struct {
	Log     *zap.Logger
	DB      *pgxpool.Pool
	DBCache *redis.Client
}

func NewGuildRepository(zap *zap.Logger, db *pgxpool.Pool, dbCache *redis.Client) *GuildRepository {
	return &GuildRepository{
		Log:     zap,
		DB:      db,
		DBCache: dbCache,
	}
}

// SaveGuild upserts the guild row and replaces its member and invite
// rows in one transaction.
func (repository *GuildRepository) SaveGuild(ctx context.Context, snapshot model.GuildSnapshot) error {
	tx, err := repository.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO guilds (id, name, tag, description, leader_id, created_at, level, experience, storage_id, max_members)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, tag = EXCLUDED.tag, description = EXCLUDED.description,
			leader_id = EXCLUDED.leader_id, level = EXCLUDED.level, experience = EXCLUDED.experience,
			storage_id = EXCLUDED.storage_id, max_members = EXCLUDED.max_members`

	_, err = tx.Exec(ctx, query, snapshot.Id, snapshot.Name, snapshot.Tag, snapshot.Description, snapshot.LeaderId, snapshot.CreatedAt, snapshot.Level, snapshot.Experience, snapshot.StorageId, snapshot.MaxMembers)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, "DELETE FROM guild_members WHERE guild_id = $1", snapshot.Id)
	if err != nil {
		return err
	}
	for playerId, role := range snapshot.Members {
		_, err = tx.Exec(ctx, "INSERT INTO guild_members (guild_id, player_id, role) VALUES ($1,$2,$3)", snapshot.Id, playerId, role.String())
		if err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx, "DELETE FROM guild_invites WHERE guild_id = $1", snapshot.Id)
	if err != nil {
		return err
	}
	for _, playerId := range snapshot.Invites {
		_, err = tx.Exec(ctx, "INSERT INTO guild_invites (guild_id, player_id) VALUES ($1,$2)", snapshot.Id, playerId)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (repository *GuildRepository) LoadGuild(ctx context.Context, guildId uuid.UUID) (*model.Guild, bool, error) {
	query := "SELECT id, name, tag, description, leader_id, created_at, level, experience, storage_id, max_members FROM guilds WHERE id = $1"

	snapshot, err := repository.scanGuild(repository.DB.QueryRow(ctx, query, guildId))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	if err := repository.fillMembership(ctx, &snapshot); err != nil {
		return nil, false, err
	}
	return model.GuildFromSnapshot(snapshot), true, nil
}

// LoadAllGuilds returns every guild with its full membership. Used by
// the interest job and by process warmup.
func (repository *GuildRepository) LoadAllGuilds(ctx context.Context) ([]*model.Guild, error) {
	query := "SELECT id, name, tag, description, leader_id, created_at, level, experience, storage_id, max_members FROM guilds ORDER BY created_at"

	rows, err := repository.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshots := []model.GuildSnapshot{}
	for rows.Next() {
		snapshot, err := repository.scanGuild(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	guilds := make([]*model.Guild, 0, len(snapshots))
	for i := range snapshots {
		if err := repository.fillMembership(ctx, &snapshots[i]); err != nil {
			return nil, err
		}
		guilds = append(guilds, model.GuildFromSnapshot(snapshots[i]))
	}
	return guilds, nil
}

func (repository *GuildRepository) DeleteGuild(ctx context.Context, guildId uuid.UUID) error {
	_, err := repository.DB.Exec(ctx, "DELETE FROM guilds WHERE id = $1", guildId)
	if err != nil {
		return err
	}
	if err := repository.DBCache.Del(ctx, storageCacheKey(guildId)).Err(); err != nil {
		repository.Log.Warn("failed to drop storage cache entry", zap.Error(err))
	}
	return nil
}

// SaveStorage upserts the ledger row, replaces its item rows and
// refreshes the cache entry.
func (repository *GuildRepository) SaveStorage(ctx context.Context, snapshot model.StorageSnapshot) error {
	tx, err := repository.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO guild_storages (guild_id, money, max_slots) VALUES ($1,$2,$3)
		ON CONFLICT (guild_id) DO UPDATE SET money = EXCLUDED.money, max_slots = EXCLUDED.max_slots`

	_, err = tx.Exec(ctx, query, snapshot.GuildId, snapshot.Money, snapshot.MaxSlots)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, "DELETE FROM guild_storage_items WHERE guild_id = $1", snapshot.GuildId)
	if err != nil {
		return err
	}
	for itemType, amount := range snapshot.Items {
		_, err = tx.Exec(ctx, "INSERT INTO guild_storage_items (guild_id, item_type, amount) VALUES ($1,$2,$3)", snapshot.GuildId, itemType, amount)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	cached, err := sonic.Marshal(snapshot)
	if err == nil {
		err = repository.DBCache.Set(ctx, storageCacheKey(snapshot.GuildId), cached, storageCacheTTL).Err()
	}
	if err != nil {
		observability.WithContext(ctx, repository.Log).Warn("failed to refresh storage cache entry", zap.Error(err))
	}
	return nil
}

func (repository *GuildRepository) LoadStorage(ctx context.Context, guildId uuid.UUID) (*model.GuildStorage, bool, error) {
	cached, err := repository.DBCache.Get(ctx, storageCacheKey(guildId)).Bytes()
	if err == nil {
		var snapshot model.StorageSnapshot
		if err := sonic.Unmarshal(cached, &snapshot); err == nil {
			return model.StorageFromSnapshot(snapshot), true, nil
		}
		repository.Log.Warn("discarding corrupt storage cache entry", zap.String("guild_id", guildId.String()))
	} else if !errors.Is(err, redis.Nil) {
		observability.WithContext(ctx, repository.Log).Warn("storage cache lookup failed", zap.Error(err))
	}

	snapshot := model.StorageSnapshot{GuildId: guildId}
	query := "SELECT money, max_slots FROM guild_storages WHERE guild_id = $1"
	err = repository.DB.QueryRow(ctx, query, guildId).Scan(&snapshot.Money, &snapshot.MaxSlots)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	rows, err := repository.DB.Query(ctx, "SELECT item_type, amount FROM guild_storage_items WHERE guild_id = $1", guildId)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	snapshot.Items = map[string]int{}
	for rows.Next() {
		var itemType string
		var amount int
		if err := rows.Scan(&itemType, &amount); err != nil {
			return nil, false, err
		}
		snapshot.Items[itemType] = amount
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	return model.StorageFromSnapshot(snapshot), true, nil
}

type guildRow interface {
	Scan(dest ...any) error
}

func (repository *GuildRepository) scanGuild(row guildRow) (model.GuildSnapshot, error) {
	var snapshot model.GuildSnapshot
	err := row.Scan(&snapshot.Id, &snapshot.Name, &snapshot.Tag, &snapshot.Description, &snapshot.LeaderId, &snapshot.CreatedAt, &snapshot.Level, &snapshot.Experience, &snapshot.StorageId, &snapshot.MaxMembers)
	return snapshot, err
}

func (repository *GuildRepository) fillMembership(ctx context.Context, snapshot *model.GuildSnapshot) error {
	rows, err := repository.DB.Query(ctx, "SELECT player_id, role FROM guild_members WHERE guild_id = $1", snapshot.Id)
	if err != nil {
		return err
	}
	defer rows.Close()

	snapshot.Members = map[uuid.UUID]model.Role{}
	for rows.Next() {
		var playerId uuid.UUID
		var roleName string
		if err := rows.Scan(&playerId, &roleName); err != nil {
			return err
		}
		role, ok := model.ParseRole(roleName)
		if !ok {
			repository.Log.Warn("skipping member with unknown role",
				zap.String("guild_id", snapshot.Id.String()),
				zap.String("role", roleName))
			continue
		}
		snapshot.Members[playerId] = role
	}
	if err := rows.Err(); err != nil {
		return err
	}

	inviteRows, err := repository.DB.Query(ctx, "SELECT player_id FROM guild_invites WHERE guild_id = $1", snapshot.Id)
	if err != nil {
		return err
	}
	defer inviteRows.Close()

	snapshot.Invites = nil
	for inviteRows.Next() {
		var playerId uuid.UUID
		if err := inviteRows.Scan(&playerId); err != nil {
			return err
		}
		snapshot.Invites = append(snapshot.Invites, playerId)
	}
	return inviteRows.Err()
}
