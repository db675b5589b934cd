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
	"go.uber.org/zap"
)

// PartyUsecase owns this process's party copies. Parties follow the
// same propagation shape as guilds: mutate locally, persist, broadcast
// a snapshot on the party channel.
type PartyUsecase struct {
	PartyRepository *repository.PartyRepository
	Dispatcher      *delivery.Dispatcher
	Log             *zap.Logger
	Config          *koanf.Koanf

	mu      sync.RWMutex
	parties map[uuid.UUID]*model.Party
}

func NewPartyUsecase(partyRepository *repository.PartyRepository, dispatcher *delivery.Dispatcher, zap *zap.Logger, koanf *koanf.Koanf) *PartyUsecase {
	return &PartyUsecase{
		PartyRepository: partyRepository,
		Dispatcher:      dispatcher,
		Log:             zap,
		Config:          koanf,
		parties:         map[uuid.UUID]*model.Party{},
	}
}

func (usecase *PartyUsecase) RegisterHandlers() {
	usecase.Dispatcher.RegisterHandler(constant.ChannelParty, usecase.handlePartyPacket)
}

func (usecase *PartyUsecase) CreateParty(ctx context.Context, leaderId uuid.UUID, currentServer string) (*model.Party, error) {
	party := model.NewParty(leaderId, currentServer)

	if err := usecase.PartyRepository.SaveParty(ctx, party.Snapshot()); err != nil {
		return nil, err
	}

	usecase.mu.Lock()
	usecase.parties[party.Id] = party
	usecase.mu.Unlock()

	usecase.publishParty(ctx, party)
	return party, nil
}

func (usecase *PartyUsecase) DisbandParty(ctx context.Context, partyId, actorId uuid.UUID) error {
	party, err := usecase.getParty(ctx, partyId)
	if err != nil {
		return err
	}
	if party.LeaderId != actorId {
		return usecase.notPermitted("Only the party leader can disband the party")
	}
	return usecase.disband(ctx, party)
}

func (usecase *PartyUsecase) InvitePlayer(ctx context.Context, partyId, actorId, targetId uuid.UUID) error {
	party, err := usecase.getParty(ctx, partyId)
	if err != nil {
		return err
	}
	if party.LeaderId != actorId {
		return usecase.notPermitted("Only the party leader can invite players")
	}
	if !party.Invite(targetId) {
		return &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Player is already in the party or already invited",
			Param:   "targetId",
		}
	}
	return usecase.saveAndPublish(ctx, party)
}

func (usecase *PartyUsecase) CancelInvite(ctx context.Context, partyId, actorId, targetId uuid.UUID) error {
	party, err := usecase.getParty(ctx, partyId)
	if err != nil {
		return err
	}
	if party.LeaderId != actorId {
		return usecase.notPermitted("Only the party leader can cancel invites")
	}
	if !party.CancelInvite(targetId) {
		return &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Player has no pending invite",
			Param:   "targetId",
		}
	}
	return usecase.saveAndPublish(ctx, party)
}

// JoinParty admits a player who was invited, or anyone when the party
// is open.
func (usecase *PartyUsecase) JoinParty(ctx context.Context, partyId, playerId uuid.UUID) error {
	party, err := usecase.getParty(ctx, partyId)
	if err != nil {
		return err
	}
	if !party.IsOpen() && !party.IsInvited(playerId) {
		return &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "You have not been invited to this party",
			Param:   "partyId",
		}
	}
	if !party.AddMember(playerId) {
		return &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "You are already in this party",
			Param:   "partyId",
		}
	}
	return usecase.saveAndPublish(ctx, party)
}

// LeaveParty removes a member. A leaving leader hands the party to any
// remaining member; with nobody left to take over, the party disbands.
func (usecase *PartyUsecase) LeaveParty(ctx context.Context, partyId, playerId uuid.UUID) error {
	party, err := usecase.getParty(ctx, partyId)
	if err != nil {
		return err
	}

	if party.LeaderId == playerId {
		successor, ok := party.Successor()
		if !ok {
			return usecase.disband(ctx, party)
		}
		party.ChangeLeader(successor)
	}

	if !party.RemoveMember(playerId) {
		return &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "You are not in this party",
			Param:   "partyId",
		}
	}
	return usecase.saveAndPublish(ctx, party)
}

func (usecase *PartyUsecase) KickMember(ctx context.Context, partyId, actorId, targetId uuid.UUID) error {
	party, err := usecase.getParty(ctx, partyId)
	if err != nil {
		return err
	}
	if party.LeaderId != actorId {
		return usecase.notPermitted("Only the party leader can kick members")
	}
	if !party.RemoveMember(targetId) {
		return &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Player is not a removable member of this party",
			Param:   "targetId",
		}
	}
	return usecase.saveAndPublish(ctx, party)
}

func (usecase *PartyUsecase) TransferLeadership(ctx context.Context, partyId, actorId, newLeaderId uuid.UUID) error {
	party, err := usecase.getParty(ctx, partyId)
	if err != nil {
		return err
	}
	if party.LeaderId != actorId {
		return usecase.notPermitted("Only the party leader can transfer leadership")
	}
	if !party.ChangeLeader(newLeaderId) {
		return &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "New leader must be a current party member",
			Param:   "newLeaderId",
		}
	}
	return usecase.saveAndPublish(ctx, party)
}

func (usecase *PartyUsecase) SetOpen(ctx context.Context, partyId, actorId uuid.UUID, open bool) error {
	party, err := usecase.getParty(ctx, partyId)
	if err != nil {
		return err
	}
	if party.LeaderId != actorId {
		return usecase.notPermitted("Only the party leader can open or close the party")
	}
	party.SetOpen(open)
	return usecase.saveAndPublish(ctx, party)
}

// WarpParty moves the party to another backend server. Peers receive a
// dedicated warp packet so their command layer can pull the members
// across.
func (usecase *PartyUsecase) WarpParty(ctx context.Context, partyId, actorId uuid.UUID, server string) error {
	party, err := usecase.getParty(ctx, partyId)
	if err != nil {
		return err
	}
	if party.LeaderId != actorId {
		return usecase.notPermitted("Only the party leader can warp the party")
	}

	party.SetCurrentServer(server)
	if err := usecase.PartyRepository.SaveParty(ctx, party.Snapshot()); err != nil {
		return err
	}
	usecase.publish(ctx, constant.ActionPartyWarp, protocol.PartyWarpPayload{PartyId: partyId, Server: server})
	return nil
}

func (usecase *PartyUsecase) GetParty(ctx context.Context, partyId uuid.UUID) (*model.Party, error) {
	return usecase.getParty(ctx, partyId)
}

func (usecase *PartyUsecase) getParty(ctx context.Context, partyId uuid.UUID) (*model.Party, error) {
	usecase.mu.RLock()
	party, ok := usecase.parties[partyId]
	usecase.mu.RUnlock()
	if ok {
		return party, nil
	}

	party, found, err := usecase.PartyRepository.LoadParty(ctx, partyId)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &model.NotFoundError{
			Code:    constant.ERR_NOT_FOUND_ERROR,
			Message: "Party does not exist",
		}
	}

	usecase.mu.Lock()
	if cached, ok := usecase.parties[partyId]; ok {
		party = cached
	} else {
		usecase.parties[partyId] = party
	}
	usecase.mu.Unlock()
	return party, nil
}

func (usecase *PartyUsecase) disband(ctx context.Context, party *model.Party) error {
	if err := usecase.PartyRepository.DeleteParty(ctx, party.Id); err != nil {
		return err
	}

	usecase.mu.Lock()
	delete(usecase.parties, party.Id)
	usecase.mu.Unlock()

	usecase.publish(ctx, constant.ActionPartyDisband, protocol.PartyDisbandPayload{PartyId: party.Id})
	return nil
}

func (usecase *PartyUsecase) saveAndPublish(ctx context.Context, party *model.Party) error {
	if err := usecase.PartyRepository.SaveParty(ctx, party.Snapshot()); err != nil {
		return err
	}
	usecase.publishParty(ctx, party)
	return nil
}

func (usecase *PartyUsecase) publishParty(ctx context.Context, party *model.Party) {
	usecase.publish(ctx, constant.ActionPartySync, protocol.PartySyncPayload{Party: party.Snapshot()})
}

func (usecase *PartyUsecase) publish(ctx context.Context, action string, payload any) {
	if err := usecase.Dispatcher.SendPayload(ctx, constant.ChannelParty, action, payload); err != nil {
		usecase.Log.Error("failed to publish packet",
			zap.String("channel", constant.ChannelParty),
			zap.String("action", action),
			zap.Error(err))
	}
}

func (usecase *PartyUsecase) handlePartyPacket(ctx context.Context, packet *model.Packet) {
	payload, err := protocol.DecodePayload(packet)
	if err != nil {
		usecase.Log.Error("dropping party packet", zap.Error(err))
		return
	}

	switch p := payload.(type) {
	case *protocol.PartySyncPayload:
		party := model.PartyFromSnapshot(p.Party)
		usecase.mu.Lock()
		usecase.parties[party.Id] = party
		usecase.mu.Unlock()
	case *protocol.PartyDisbandPayload:
		usecase.mu.Lock()
		delete(usecase.parties, p.PartyId)
		usecase.mu.Unlock()
	case *protocol.PartyWarpPayload:
		usecase.mu.RLock()
		party, ok := usecase.parties[p.PartyId]
		usecase.mu.RUnlock()
		if ok {
			party.SetCurrentServer(p.Server)
		}
	default:
		usecase.Log.Warn("unexpected action on party channel", zap.String("action", packet.Action))
	}
}

func (usecase *PartyUsecase) notPermitted(message string) error {
	return &model.ValidationError{
		Code:    constant.ERR_NOT_PERMITTED_CODE,
		Message: message,
	}
}
