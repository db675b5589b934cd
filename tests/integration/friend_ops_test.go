package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/lodestonenet/lodestone/tests/integration/setup"
	"github.com/stretchr/testify/require"
)

// TestFriendFlowAndOpsSurface drives the friend request lifecycle
// across two nodes and smoke-tests the read-only HTTP surface.
func TestFriendFlowAndOpsSurface(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	t.Log("=== Starting Test Infrastructure ===")
	infra, err := setup.StartInfra(ctx, t)
	require.NoError(t, err)

	t.Cleanup(func() {
		t.Log("=== Cleaning Up Test Infrastructure ===")
		_ = infra.Terminate(ctx, t)
	})

	t.Log("=== Running Database Migrations ===")
	err = setup.RunMigration(infra.PgURL, t)
	require.NoError(t, err)

	t.Log("=== Setting Up Test Nodes ===")
	nodeA := setup.SetupTestNode(t, infra.PgURL, infra.RedisURL)
	nodeB := setup.SetupTestNode(t, infra.PgURL, infra.RedisURL)
	t.Cleanup(func() {
		nodeA.Teardown(t)
		nodeB.Teardown(t)
	})

	senderId := uuid.New()
	receiverId := uuid.New()

	t.Log("=== Sending Friend Request on Node A ===")
	request, err := nodeA.Bootstrap.FriendUsecase.SendRequest(ctx, senderId, receiverId)
	require.NoError(t, err)

	// A second request in either direction must be rejected while one
	// is pending.
	_, err = nodeB.Bootstrap.FriendUsecase.SendRequest(ctx, receiverId, senderId)
	require.Error(t, err)

	t.Log("=== Accepting Friend Request on Node B ===")
	friendship, err := nodeB.Bootstrap.FriendUsecase.AcceptRequest(ctx, request.Id, receiverId)
	require.NoError(t, err)
	require.True(t, friendship.InvolvesPlayer(senderId))
	require.True(t, friendship.InvolvesPlayer(receiverId))

	friends, err := nodeA.Bootstrap.FriendUsecase.ListFriends(ctx, senderId)
	require.NoError(t, err)
	require.Len(t, friends, 1)

	t.Log("=== Checking Ops Surface ===")
	resp, err := nodeA.App.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = nodeA.App.Test(httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stats := setup.ParseJSONResponse(t, resp)
	require.Contains(t, stats, "dispatcher")
	require.Contains(t, stats, "interest_job")

	resp, err = nodeA.App.Test(httptest.NewRequest(http.MethodGet, "/api/players/"+senderId.String()+"/friends", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = nodeA.App.Test(httptest.NewRequest(http.MethodGet, "/api/guilds/"+uuid.NewString(), nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = nodeA.App.Test(httptest.NewRequest(http.MethodGet, "/api/guilds/not-a-uuid", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	t.Log("=== Removing Friendship on Node B ===")
	require.NoError(t, nodeB.Bootstrap.FriendUsecase.RemoveFriend(ctx, receiverId, senderId))

	friends, err = nodeA.Bootstrap.FriendUsecase.ListFriends(ctx, senderId)
	require.NoError(t, err)
	require.Len(t, friends, 0)
}
