package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/knadh/koanf/v2"
	"github.com/lodestonenet/lodestone/internal/constant"
	delivery "github.com/lodestonenet/lodestone/internal/delivery/redis"
	"github.com/lodestonenet/lodestone/internal/model"
	"github.com/lodestonenet/lodestone/internal/protocol"
	"github.com/lodestonenet/lodestone/internal/repository"
	"go.uber.org/zap"
)

// FriendUsecase manages friendships and friend requests. Unlike guilds
// and parties it keeps no in-memory registry: the friend graph is read
// per query. The friend channel exists to let peer processes notify
// online players, not to carry state.
type FriendUsecase struct {
	FriendRepository *repository.FriendRepository
	Dispatcher       *delivery.Dispatcher
	Log              *zap.Logger
	Config           *koanf.Koanf
}

func NewFriendUsecase(friendRepository *repository.FriendRepository, dispatcher *delivery.Dispatcher, zap *zap.Logger, koanf *koanf.Koanf) *FriendUsecase {
	return &FriendUsecase{
		FriendRepository: friendRepository,
		Dispatcher:       dispatcher,
		Log:              zap,
		Config:           koanf,
	}
}

func (usecase *FriendUsecase) RegisterHandlers() {
	usecase.Dispatcher.RegisterHandler(constant.ChannelFriend, usecase.handleFriendPacket)
}

func (usecase *FriendUsecase) SendRequest(ctx context.Context, senderId, receiverId uuid.UUID) (*model.FriendRequest, error) {
	if senderId == receiverId {
		return nil, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "You cannot send a friend request to yourself",
			Param:   "receiverId",
		}
	}

	if _, exists, err := usecase.FriendRepository.FindBetween(ctx, senderId, receiverId); err != nil {
		return nil, err
	} else if exists {
		return nil, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "You are already friends with this player",
			Param:   "receiverId",
		}
	}

	for _, pair := range [][2]uuid.UUID{{senderId, receiverId}, {receiverId, senderId}} {
		pending, err := usecase.FriendRepository.HasPendingRequest(ctx, pair[0], pair[1])
		if err != nil {
			return nil, err
		}
		if pending {
			return nil, &model.ValidationError{
				Code:    constant.ERR_VALIDATION_CODE,
				Message: "A friend request between you is already pending",
				Param:   "receiverId",
			}
		}
	}

	request := model.NewFriendRequest(senderId, receiverId)
	if err := usecase.FriendRepository.CreateRequest(ctx, request); err != nil {
		return nil, err
	}

	usecase.publish(ctx, constant.ActionFriendRequest, protocol.FriendRequestPayload{
		RequestId:   request.Id,
		SenderId:    request.SenderId,
		ReceiverId:  request.ReceiverId,
		RequestedAt: request.RequestedAt,
	})
	return request, nil
}

func (usecase *FriendUsecase) AcceptRequest(ctx context.Context, requestId, actorId uuid.UUID) (*model.Friendship, error) {
	request, found, err := usecase.FriendRepository.LoadRequest(ctx, requestId)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, usecase.notFound("Friend request does not exist")
	}
	if request.ReceiverId != actorId {
		return nil, &model.ValidationError{
			Code:    constant.ERR_NOT_PERMITTED_CODE,
			Message: "Only the receiver can accept a friend request",
		}
	}
	if !request.Accept() {
		return nil, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "This friend request was already answered",
			Param:   "requestId",
		}
	}

	if err := usecase.FriendRepository.UpdateRequestStatus(ctx, request.Id, model.StatusAccepted); err != nil {
		return nil, err
	}

	friendship := model.NewFriendship(request.SenderId, request.ReceiverId)
	if err := usecase.FriendRepository.CreateFriendship(ctx, friendship); err != nil {
		return nil, err
	}

	usecase.publish(ctx, constant.ActionFriendAccept, protocol.FriendAcceptPayload{
		RequestId:  request.Id,
		Friendship: *friendship,
	})
	return friendship, nil
}

func (usecase *FriendUsecase) DeclineRequest(ctx context.Context, requestId, actorId uuid.UUID) error {
	request, found, err := usecase.FriendRepository.LoadRequest(ctx, requestId)
	if err != nil {
		return err
	}
	if !found {
		return usecase.notFound("Friend request does not exist")
	}
	if request.ReceiverId != actorId {
		return &model.ValidationError{
			Code:    constant.ERR_NOT_PERMITTED_CODE,
			Message: "Only the receiver can decline a friend request",
		}
	}
	if !request.Decline() {
		return &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "This friend request was already answered",
			Param:   "requestId",
		}
	}

	if err := usecase.FriendRepository.UpdateRequestStatus(ctx, request.Id, model.StatusDeclined); err != nil {
		return err
	}

	usecase.publish(ctx, constant.ActionFriendDecline, protocol.FriendDeclinePayload{RequestId: request.Id})
	return nil
}

func (usecase *FriendUsecase) RemoveFriend(ctx context.Context, actorId, otherId uuid.UUID) error {
	friendship, found, err := usecase.FriendRepository.FindBetween(ctx, actorId, otherId)
	if err != nil {
		return err
	}
	if !found {
		return usecase.notFound("You are not friends with this player")
	}

	if err := usecase.FriendRepository.DeleteFriendship(ctx, friendship.Id); err != nil {
		return err
	}

	usecase.publish(ctx, constant.ActionFriendRemove, protocol.FriendRemovePayload{
		FriendshipId: friendship.Id,
		Player1Id:    friendship.Player1Id,
		Player2Id:    friendship.Player2Id,
	})
	return nil
}

func (usecase *FriendUsecase) SetFavorite(ctx context.Context, actorId, otherId uuid.UUID, favorite bool) error {
	friendship, found, err := usecase.FriendRepository.FindBetween(ctx, actorId, otherId)
	if err != nil {
		return err
	}
	if !found {
		return usecase.notFound("You are not friends with this player")
	}
	return usecase.FriendRepository.SetFavorite(ctx, friendship.Id, favorite)
}

func (usecase *FriendUsecase) ListFriends(ctx context.Context, playerId uuid.UUID) ([]*model.Friendship, error) {
	return usecase.FriendRepository.ListFriendships(ctx, playerId)
}

// handleFriendPacket only surfaces remote friend events. Friend state
// lives in the shared database, so there is no local copy to update;
// the packet is the signal used to notify players connected here.
func (usecase *FriendUsecase) handleFriendPacket(ctx context.Context, packet *model.Packet) {
	payload, err := protocol.DecodePayload(packet)
	if err != nil {
		usecase.Log.Error("dropping friend packet", zap.Error(err))
		return
	}

	switch p := payload.(type) {
	case *protocol.FriendRequestPayload:
		usecase.Log.Debug("friend request received",
			zap.String("sender", p.SenderId.String()),
			zap.String("receiver", p.ReceiverId.String()))
	case *protocol.FriendAcceptPayload:
		usecase.Log.Debug("friend request accepted", zap.String("request", p.RequestId.String()))
	case *protocol.FriendDeclinePayload:
		usecase.Log.Debug("friend request declined", zap.String("request", p.RequestId.String()))
	case *protocol.FriendRemovePayload:
		usecase.Log.Debug("friendship removed", zap.String("friendship", p.FriendshipId.String()))
	default:
		usecase.Log.Warn("unexpected action on friend channel", zap.String("action", packet.Action))
	}
}

func (usecase *FriendUsecase) publish(ctx context.Context, action string, payload any) {
	if err := usecase.Dispatcher.SendPayload(ctx, constant.ChannelFriend, action, payload); err != nil {
		usecase.Log.Error("failed to publish packet",
			zap.String("channel", constant.ChannelFriend),
			zap.String("action", action),
			zap.Error(err))
	}
}

func (usecase *FriendUsecase) notFound(message string) error {
	return &model.NotFoundError{
		Code:    constant.ERR_NOT_FOUND_ERROR,
		Message: message,
	}
}
