package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestFriendshipOtherPlayer(t *testing.T) {
	player1 := uuid.New()
	player2 := uuid.New()
	friendship := NewFriendship(player1, player2)

	other, ok := friendship.OtherPlayer(player1)
	require.True(t, ok)
	require.Equal(t, player2, other)

	other, ok = friendship.OtherPlayer(player2)
	require.True(t, ok)
	require.Equal(t, player1, other)

	other, ok = friendship.OtherPlayer(uuid.New())
	require.False(t, ok)
	require.Equal(t, uuid.Nil, other)
}

func TestFriendshipInvolvesPlayer(t *testing.T) {
	player1 := uuid.New()
	player2 := uuid.New()
	friendship := NewFriendship(player1, player2)

	require.True(t, friendship.InvolvesPlayer(player1))
	require.True(t, friendship.InvolvesPlayer(player2))
	require.False(t, friendship.InvolvesPlayer(uuid.New()))
}

func TestFriendRequestSingleTransition(t *testing.T) {
	request := NewFriendRequest(uuid.New(), uuid.New())
	require.True(t, request.IsPending())

	require.True(t, request.Accept())
	require.Equal(t, StatusAccepted, request.Status)
	require.False(t, request.IsPending())

	// Once answered, the request never transitions again.
	require.False(t, request.Accept())
	require.False(t, request.Decline())
	require.Equal(t, StatusAccepted, request.Status)
}

func TestFriendRequestDecline(t *testing.T) {
	request := NewFriendRequest(uuid.New(), uuid.New())

	require.True(t, request.Decline())
	require.Equal(t, StatusDeclined, request.Status)
	require.False(t, request.Accept())
}
