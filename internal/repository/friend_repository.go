package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lodestonenet/lodestone/internal/model"
	"go.uber.org/zap"
)

type FriendRepository struct {
	Log *zap.Logger
	DB  *pgxpool.Pool
}

func NewFriendRepository(zap *zap.Logger, db *pgxpool.Pool) *FriendRepository {
	return &FriendRepository{
		Log: zap,
		DB:  db,
	}
}

func (repository *FriendRepository) CreateFriendship(ctx context.Context, friendship *model.Friendship) error {
	query := "INSERT INTO friendships (id, player1_id, player2_id, since, favorite) VALUES ($1,$2,$3,$4,$5)"

	_, err := repository.DB.Exec(ctx, query, friendship.Id, friendship.Player1Id, friendship.Player2Id, friendship.Since, friendship.Favorite)
	return err
}

func (repository *FriendRepository) DeleteFriendship(ctx context.Context, friendshipId uuid.UUID) error {
	_, err := repository.DB.Exec(ctx, "DELETE FROM friendships WHERE id = $1", friendshipId)
	return err
}

func (repository *FriendRepository) LoadFriendship(ctx context.Context, friendshipId uuid.UUID) (*model.Friendship, bool, error) {
	query := "SELECT id, player1_id, player2_id, since, favorite FROM friendships WHERE id = $1"

	friendship := &model.Friendship{}
	err := repository.DB.QueryRow(ctx, query, friendshipId).Scan(&friendship.Id, &friendship.Player1Id, &friendship.Player2Id, &friendship.Since, &friendship.Favorite)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return friendship, true, nil
}

// FindBetween looks the pair up in either direction.
func (repository *FriendRepository) FindBetween(ctx context.Context, playerA, playerB uuid.UUID) (*model.Friendship, bool, error) {
	query := `SELECT id, player1_id, player2_id, since, favorite FROM friendships
		WHERE (player1_id = $1 AND player2_id = $2) OR (player1_id = $2 AND player2_id = $1)`

	friendship := &model.Friendship{}
	err := repository.DB.QueryRow(ctx, query, playerA, playerB).Scan(&friendship.Id, &friendship.Player1Id, &friendship.Player2Id, &friendship.Since, &friendship.Favorite)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return friendship, true, nil
}

func (repository *FriendRepository) ListFriendships(ctx context.Context, playerId uuid.UUID) ([]*model.Friendship, error) {
	query := `SELECT id, player1_id, player2_id, since, favorite FROM friendships
		WHERE player1_id = $1 OR player2_id = $1 ORDER BY since`

	rows, err := repository.DB.Query(ctx, query, playerId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	friendships := []*model.Friendship{}
	for rows.Next() {
		friendship := &model.Friendship{}
		if err := rows.Scan(&friendship.Id, &friendship.Player1Id, &friendship.Player2Id, &friendship.Since, &friendship.Favorite); err != nil {
			return nil, err
		}
		friendships = append(friendships, friendship)
	}
	return friendships, rows.Err()
}

func (repository *FriendRepository) SetFavorite(ctx context.Context, friendshipId uuid.UUID, favorite bool) error {
	_, err := repository.DB.Exec(ctx, "UPDATE friendships SET favorite = $2 WHERE id = $1", friendshipId, favorite)
	return err
}

func (repository *FriendRepository) CreateRequest(ctx context.Context, request *model.FriendRequest) error {
	query := "INSERT INTO friend_requests (id, sender_id, receiver_id, requested_at, status) VALUES ($1,$2,$3,$4,$5)"

	_, err := repository.DB.Exec(ctx, query, request.Id, request.SenderId, request.ReceiverId, request.RequestedAt, string(request.Status))
	return err
}

func (repository *FriendRepository) LoadRequest(ctx context.Context, requestId uuid.UUID) (*model.FriendRequest, bool, error) {
	query := "SELECT id, sender_id, receiver_id, requested_at, status FROM friend_requests WHERE id = $1"

	request := &model.FriendRequest{}
	var status string
	err := repository.DB.QueryRow(ctx, query, requestId).Scan(&request.Id, &request.SenderId, &request.ReceiverId, &request.RequestedAt, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	request.Status = model.RequestStatus(status)
	return request, true, nil
}

// HasPendingRequest reports whether sender already has an open request
// towards receiver.
func (repository *FriendRepository) HasPendingRequest(ctx context.Context, senderId, receiverId uuid.UUID) (bool, error) {
	query := "SELECT count(1) FROM friend_requests WHERE sender_id = $1 AND receiver_id = $2 AND status = $3"

	var count int
	err := repository.DB.QueryRow(ctx, query, senderId, receiverId, string(model.StatusPending)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (repository *FriendRepository) UpdateRequestStatus(ctx context.Context, requestId uuid.UUID, status model.RequestStatus) error {
	_, err := repository.DB.Exec(ctx, "UPDATE friend_requests SET status = $2 WHERE id = $1", requestId, string(status))
	return err
}
