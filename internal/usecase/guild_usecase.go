package usecase

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/knadh/koanf/v2"
	"github.com/lodestonenet/lodestone/internal/constant"
	delivery "github.com/lodestonenet/lodestone/internal/delivery/redis"
	"github.com/lodestonenet/lodestone/internal/model"
	"github.com/lodestonenet/lodestone/internal/protocol"
	"github.com/lodestonenet/lodestone/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GuildUsecase owns this process's authoritative guild copies. Local
// mutations go entity method -> repository -> broadcast; inbound
// packets from peer processes land in the channel handlers and replace
// the local copies.
type GuildUsecase struct {
	GuildRepository *repository.GuildRepository
	Dispatcher      *delivery.Dispatcher
	Log             *zap.Logger
	Config          *koanf.Koanf

	mu       sync.RWMutex
	guilds   map[uuid.UUID]*model.Guild
	storages map[uuid.UUID]*model.GuildStorage
}

func NewGuildUsecase(guildRepository *repository.GuildRepository, dispatcher *delivery.Dispatcher, zap *zap.Logger, koanf *koanf.Koanf) *GuildUsecase {
	return &GuildUsecase{
		GuildRepository: guildRepository,
		Dispatcher:      dispatcher,
		Log:             zap,
		Config:          koanf,
		guilds:          map[uuid.UUID]*model.Guild{},
		storages:        map[uuid.UUID]*model.GuildStorage{},
	}
}

// RegisterHandlers binds the guild and storage channels to this
// usecase.
func (usecase *GuildUsecase) RegisterHandlers() {
	usecase.Dispatcher.RegisterHandler(constant.ChannelGuild, usecase.handleGuildPacket)
	usecase.Dispatcher.RegisterHandler(constant.ChannelStorage, usecase.handleStoragePacket)
}

// WarmUp loads every guild into the local registry at process start.
func (usecase *GuildUsecase) WarmUp(ctx context.Context) error {
	guilds, err := usecase.GuildRepository.LoadAllGuilds(ctx)
	if err != nil {
		return err
	}

	usecase.mu.Lock()
	defer usecase.mu.Unlock()
	for _, guild := range guilds {
		usecase.guilds[guild.Id] = guild
	}
	usecase.Log.Info("guild registry warmed up", zap.Int("guilds", len(guilds)))
	return nil
}

func (usecase *GuildUsecase) CreateGuild(ctx context.Context, name, tag string, leaderId uuid.UUID) (*model.Guild, error) {
	if name == "" || len(name) > 32 {
		return nil, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Guild name must be between 1 and 32 characters",
			Param:   "name",
		}
	}
	if len(tag) > 8 {
		return nil, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Guild tag must be at most 8 characters",
			Param:   "tag",
		}
	}

	maxMembers := usecase.Config.Int("GUILD_MAX_MEMBERS")
	guild := model.NewGuild(name, tag, leaderId, maxMembers)
	storage := model.NewGuildStorage(guild.StorageId, usecase.Config.Int("GUILD_STORAGE_SLOTS"))

	if err := usecase.GuildRepository.SaveGuild(ctx, guild.Snapshot()); err != nil {
		return nil, err
	}
	if err := usecase.GuildRepository.SaveStorage(ctx, storage.Snapshot()); err != nil {
		return nil, err
	}

	usecase.mu.Lock()
	usecase.guilds[guild.Id] = guild
	usecase.storages[storage.GuildId] = storage
	usecase.mu.Unlock()

	usecase.publishGuild(ctx, guild)
	usecase.publishStorage(ctx, storage)
	return guild, nil
}

func (usecase *GuildUsecase) DisbandGuild(ctx context.Context, guildId, actorId uuid.UUID) error {
	guild, err := usecase.getGuild(ctx, guildId)
	if err != nil {
		return err
	}
	if guild.LeaderId != actorId {
		return usecase.notPermitted("Only the guild leader can disband the guild")
	}

	if storage, err := usecase.getStorage(ctx, guild.StorageId); err == nil {
		storage.Clear()
	}
	if err := usecase.GuildRepository.DeleteGuild(ctx, guildId); err != nil {
		return err
	}

	usecase.mu.Lock()
	delete(usecase.guilds, guildId)
	delete(usecase.storages, guild.StorageId)
	usecase.mu.Unlock()

	usecase.publish(ctx, constant.ChannelGuild, constant.ActionGuildDisband, protocol.GuildDisbandPayload{GuildId: guildId})
	return nil
}

func (usecase *GuildUsecase) InvitePlayer(ctx context.Context, guildId, actorId, targetId uuid.UUID) error {
	guild, err := usecase.getGuild(ctx, guildId)
	if err != nil {
		return err
	}
	if role, ok := guild.MemberRole(actorId); !ok || !role.AtLeast(model.RoleOfficer) {
		return usecase.notPermitted("Only officers can invite players")
	}
	if !guild.Invite(targetId) {
		return &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Player is already a member or already invited",
			Param:   "targetId",
		}
	}
	return usecase.saveAndPublish(ctx, guild)
}

func (usecase *GuildUsecase) CancelInvite(ctx context.Context, guildId, actorId, targetId uuid.UUID) error {
	guild, err := usecase.getGuild(ctx, guildId)
	if err != nil {
		return err
	}
	if role, ok := guild.MemberRole(actorId); !ok || !role.AtLeast(model.RoleOfficer) {
		return usecase.notPermitted("Only officers can cancel invites")
	}
	if !guild.CancelInvite(targetId) {
		return &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Player has no pending invite",
			Param:   "targetId",
		}
	}
	return usecase.saveAndPublish(ctx, guild)
}

func (usecase *GuildUsecase) JoinGuild(ctx context.Context, guildId, playerId uuid.UUID) error {
	guild, err := usecase.getGuild(ctx, guildId)
	if err != nil {
		return err
	}
	if !guild.IsInvited(playerId) {
		return &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "You have not been invited to this guild",
			Param:   "guildId",
		}
	}
	if _, ok := guild.MemberRole(playerId); ok {
		return &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "You are already a member of this guild",
			Param:   "guildId",
		}
	}
	// Capacity and admission are one atomic step, so concurrent joins
	// cannot both take the last slot.
	if !guild.AdmitMember(playerId, model.RoleRookie) {
		return &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "The guild is full",
			Param:   "guildId",
		}
	}
	return usecase.saveAndPublish(ctx, guild)
}

func (usecase *GuildUsecase) LeaveGuild(ctx context.Context, guildId, playerId uuid.UUID) error {
	guild, err := usecase.getGuild(ctx, guildId)
	if err != nil {
		return err
	}
	if !guild.RemoveMember(playerId) {
		return &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "The leader must transfer leadership or disband instead of leaving",
			Param:   "playerId",
		}
	}
	return usecase.saveAndPublish(ctx, guild)
}

func (usecase *GuildUsecase) KickMember(ctx context.Context, guildId, actorId, targetId uuid.UUID) error {
	guild, err := usecase.getGuild(ctx, guildId)
	if err != nil {
		return err
	}
	actorRole, ok := guild.MemberRole(actorId)
	if !ok || !actorRole.AtLeast(model.RoleOfficer) {
		return usecase.notPermitted("Only officers can kick members")
	}
	targetRole, ok := guild.MemberRole(targetId)
	if !ok {
		return usecase.notFound("Player is not a member of this guild")
	}
	if targetRole.AtLeast(actorRole) {
		return usecase.notPermitted("You can only kick members below your rank")
	}
	if !guild.RemoveMember(targetId) {
		return usecase.notPermitted("This member cannot be removed")
	}
	return usecase.saveAndPublish(ctx, guild)
}

func (usecase *GuildUsecase) PromoteMember(ctx context.Context, guildId, actorId, targetId uuid.UUID) error {
	guild, err := usecase.getGuild(ctx, guildId)
	if err != nil {
		return err
	}
	if guild.LeaderId != actorId {
		return usecase.notPermitted("Only the guild leader can promote members")
	}
	if !guild.Promote(targetId) {
		return &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Player cannot be promoted further",
			Param:   "targetId",
		}
	}
	return usecase.saveAndPublish(ctx, guild)
}

func (usecase *GuildUsecase) DemoteMember(ctx context.Context, guildId, actorId, targetId uuid.UUID) error {
	guild, err := usecase.getGuild(ctx, guildId)
	if err != nil {
		return err
	}
	if guild.LeaderId != actorId {
		return usecase.notPermitted("Only the guild leader can demote members")
	}
	if !guild.Demote(targetId) {
		return &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Player cannot be demoted further",
			Param:   "targetId",
		}
	}
	return usecase.saveAndPublish(ctx, guild)
}

func (usecase *GuildUsecase) TransferLeadership(ctx context.Context, guildId, actorId, newLeaderId uuid.UUID) error {
	guild, err := usecase.getGuild(ctx, guildId)
	if err != nil {
		return err
	}
	if guild.LeaderId != actorId {
		return usecase.notPermitted("Only the guild leader can transfer leadership")
	}
	if !guild.ChangeLeader(newLeaderId) {
		return &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "New leader must be a current member",
			Param:   "newLeaderId",
		}
	}
	return usecase.saveAndPublish(ctx, guild)
}

// AddExperience accrues guild xp and reports whether a level-up
// happened, so the command layer can announce it.
func (usecase *GuildUsecase) AddExperience(ctx context.Context, guildId uuid.UUID, amount int) (bool, error) {
	guild, err := usecase.getGuild(ctx, guildId)
	if err != nil {
		return false, err
	}
	leveled := guild.AddExperience(amount)
	if err := usecase.saveAndPublish(ctx, guild); err != nil {
		return leveled, err
	}
	return leveled, nil
}

func (usecase *GuildUsecase) DepositItem(ctx context.Context, guildId, actorId uuid.UUID, itemType string, amount int) error {
	storage, err := usecase.memberStorage(ctx, guildId, actorId)
	if err != nil {
		return err
	}
	if !storage.AddItem(itemType, amount) {
		return &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Storage has no free slot for this item",
			Param:   "itemType",
		}
	}
	return usecase.saveAndPublishStorage(ctx, storage)
}

func (usecase *GuildUsecase) WithdrawItem(ctx context.Context, guildId, actorId uuid.UUID, itemType string, amount int) error {
	storage, err := usecase.memberStorage(ctx, guildId, actorId)
	if err != nil {
		return err
	}
	if !storage.RemoveItem(itemType, amount) {
		return &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Storage does not hold that many of this item",
			Param:   "itemType",
		}
	}
	return usecase.saveAndPublishStorage(ctx, storage)
}

func (usecase *GuildUsecase) DepositMoney(ctx context.Context, guildId, actorId uuid.UUID, amount decimal.Decimal) error {
	storage, err := usecase.memberStorage(ctx, guildId, actorId)
	if err != nil {
		return err
	}
	if !storage.DepositMoney(amount) {
		return &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Deposit amount must be positive",
			Param:   "amount",
		}
	}
	return usecase.saveAndPublishStorage(ctx, storage)
}

func (usecase *GuildUsecase) WithdrawMoney(ctx context.Context, guildId, actorId uuid.UUID, amount decimal.Decimal) error {
	storage, err := usecase.memberStorage(ctx, guildId, actorId)
	if err != nil {
		return err
	}
	if !storage.WithdrawMoney(amount) {
		return &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "The guild bank does not hold that much",
			Param:   "amount",
		}
	}
	return usecase.saveAndPublishStorage(ctx, storage)
}

// GetGuild is the read path used by the ops surface.
func (usecase *GuildUsecase) GetGuild(ctx context.Context, guildId uuid.UUID) (*model.Guild, error) {
	return usecase.getGuild(ctx, guildId)
}

func (usecase *GuildUsecase) GetStorage(ctx context.Context, guildId uuid.UUID) (*model.GuildStorage, error) {
	guild, err := usecase.getGuild(ctx, guildId)
	if err != nil {
		return nil, err
	}
	return usecase.getStorage(ctx, guild.StorageId)
}

func (usecase *GuildUsecase) getGuild(ctx context.Context, guildId uuid.UUID) (*model.Guild, error) {
	usecase.mu.RLock()
	guild, ok := usecase.guilds[guildId]
	usecase.mu.RUnlock()
	if ok {
		return guild, nil
	}

	guild, found, err := usecase.GuildRepository.LoadGuild(ctx, guildId)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, usecase.notFound("Guild does not exist")
	}

	usecase.mu.Lock()
	if cached, ok := usecase.guilds[guildId]; ok {
		guild = cached
	} else {
		usecase.guilds[guildId] = guild
	}
	usecase.mu.Unlock()
	return guild, nil
}

func (usecase *GuildUsecase) getStorage(ctx context.Context, storageId uuid.UUID) (*model.GuildStorage, error) {
	usecase.mu.RLock()
	storage, ok := usecase.storages[storageId]
	usecase.mu.RUnlock()
	if ok {
		return storage, nil
	}

	storage, found, err := usecase.GuildRepository.LoadStorage(ctx, storageId)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, usecase.notFound("Guild storage does not exist")
	}

	usecase.mu.Lock()
	if cached, ok := usecase.storages[storageId]; ok {
		storage = cached
	} else {
		usecase.storages[storageId] = storage
	}
	usecase.mu.Unlock()
	return storage, nil
}

func (usecase *GuildUsecase) memberStorage(ctx context.Context, guildId, actorId uuid.UUID) (*model.GuildStorage, error) {
	guild, err := usecase.getGuild(ctx, guildId)
	if err != nil {
		return nil, err
	}
	if _, ok := guild.MemberRole(actorId); !ok {
		return nil, usecase.notPermitted("Only guild members can use the guild storage")
	}
	return usecase.getStorage(ctx, guild.StorageId)
}

func (usecase *GuildUsecase) saveAndPublish(ctx context.Context, guild *model.Guild) error {
	if err := usecase.GuildRepository.SaveGuild(ctx, guild.Snapshot()); err != nil {
		return err
	}
	usecase.publishGuild(ctx, guild)
	return nil
}

func (usecase *GuildUsecase) saveAndPublishStorage(ctx context.Context, storage *model.GuildStorage) error {
	if err := usecase.GuildRepository.SaveStorage(ctx, storage.Snapshot()); err != nil {
		return err
	}
	usecase.publishStorage(ctx, storage)
	return nil
}

func (usecase *GuildUsecase) publishGuild(ctx context.Context, guild *model.Guild) {
	usecase.publish(ctx, constant.ChannelGuild, constant.ActionGuildSync, protocol.GuildSyncPayload{Guild: guild.Snapshot()})
}

func (usecase *GuildUsecase) publishStorage(ctx context.Context, storage *model.GuildStorage) {
	usecase.publish(ctx, constant.ChannelStorage, constant.ActionStorageSync, protocol.StorageSyncPayload{Storage: storage.Snapshot()})
}

// publish is fire-and-forget: the mutation is already persisted, and
// the transport offers no delivery guarantee anyway. Failures are
// operator-visible through logs only.
func (usecase *GuildUsecase) publish(ctx context.Context, channel, action string, payload any) {
	if err := usecase.Dispatcher.SendPayload(ctx, channel, action, payload); err != nil {
		usecase.Log.Error("failed to publish packet",
			zap.String("channel", channel),
			zap.String("action", action),
			zap.Error(err))
	}
}

func (usecase *GuildUsecase) handleGuildPacket(ctx context.Context, packet *model.Packet) {
	payload, err := protocol.DecodePayload(packet)
	if err != nil {
		usecase.Log.Error("dropping guild packet", zap.Error(err))
		return
	}

	switch p := payload.(type) {
	case *protocol.GuildSyncPayload:
		guild := model.GuildFromSnapshot(p.Guild)
		usecase.mu.Lock()
		usecase.guilds[guild.Id] = guild
		usecase.mu.Unlock()
	case *protocol.GuildDisbandPayload:
		usecase.mu.Lock()
		if guild, ok := usecase.guilds[p.GuildId]; ok {
			delete(usecase.storages, guild.StorageId)
		}
		delete(usecase.guilds, p.GuildId)
		usecase.mu.Unlock()
	default:
		usecase.Log.Warn("unexpected action on guild channel", zap.String("action", packet.Action))
	}
}

func (usecase *GuildUsecase) handleStoragePacket(ctx context.Context, packet *model.Packet) {
	payload, err := protocol.DecodePayload(packet)
	if err != nil {
		usecase.Log.Error("dropping storage packet", zap.Error(err))
		return
	}

	sync, ok := payload.(*protocol.StorageSyncPayload)
	if !ok {
		usecase.Log.Warn("unexpected action on storage channel", zap.String("action", packet.Action))
		return
	}

	storage := model.StorageFromSnapshot(sync.Storage)
	usecase.mu.Lock()
	usecase.storages[storage.GuildId] = storage
	usecase.mu.Unlock()
}

func (usecase *GuildUsecase) notFound(message string) error {
	return &model.NotFoundError{
		Code:    constant.ERR_NOT_FOUND_ERROR,
		Message: message,
	}
}

func (usecase *GuildUsecase) notPermitted(message string) error {
	return &model.ValidationError{
		Code:    constant.ERR_NOT_PERMITTED_CODE,
		Message: message,
	}
}
