package model

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// RequestStatus is the lifecycle of a friend request. A request leaves
// StatusPending exactly once.
type RequestStatus string

const (
	StatusPending  RequestStatus = "PENDING"
	StatusAccepted RequestStatus = "ACCEPTED"
	StatusDeclined RequestStatus = "DECLINED"
)

// Friendship is an undirected player pair.
type Friendship struct {
	Id        uuid.UUID `json:"id"`
	Player1Id uuid.UUID `json:"player1_id"`
	Player2Id uuid.UUID `json:"player2_id"`
	Since     time.Time `json:"since"`
	Favorite  bool      `json:"favorite"`
}

func NewFriendship(player1Id, player2Id uuid.UUID) *Friendship {
	return &Friendship{
		Id:        uuid.New(),
		Player1Id: player1Id,
		Player2Id: player2Id,
		Since:     time.Now().UTC(),
	}
}

func (f *Friendship) InvolvesPlayer(playerId uuid.UUID) bool {
	return f.Player1Id == playerId || f.Player2Id == playerId
}

// OtherPlayer returns the counterpart of playerId in the pair. The
// second return is false when playerId is not part of the friendship;
// a wrong id is never silently returned.
func (f *Friendship) OtherPlayer(playerId uuid.UUID) (uuid.UUID, bool) {
	switch playerId {
	case f.Player1Id:
		return f.Player2Id, true
	case f.Player2Id:
		return f.Player1Id, true
	default:
		return uuid.Nil, false
	}
}

// FriendRequest is a directed, single-transition request.
type FriendRequest struct {
	mu sync.Mutex

	Id          uuid.UUID     `json:"id"`
	SenderId    uuid.UUID     `json:"sender_id"`
	ReceiverId  uuid.UUID     `json:"receiver_id"`
	RequestedAt time.Time     `json:"requested_at"`
	Status      RequestStatus `json:"status"`
}

func NewFriendRequest(senderId, receiverId uuid.UUID) *FriendRequest {
	return &FriendRequest{
		Id:          uuid.New(),
		SenderId:    senderId,
		ReceiverId:  receiverId,
		RequestedAt: time.Now().UTC(),
		Status:      StatusPending,
	}
}

// Accept transitions a pending request. Repeat calls are rejected, not
// errors.
func (r *FriendRequest) Accept() bool {
	return r.transition(StatusAccepted)
}

// Decline transitions a pending request, same contract as Accept.
func (r *FriendRequest) Decline() bool {
	return r.transition(StatusDeclined)
}

func (r *FriendRequest) transition(to RequestStatus) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Status != StatusPending {
		return false
	}
	r.Status = to
	return true
}

func (r *FriendRequest) IsPending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Status == StatusPending
}
