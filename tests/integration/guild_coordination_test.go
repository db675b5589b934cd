package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lodestonenet/lodestone/tests/integration/setup"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// TestGuildCoordination runs two wired nodes against shared Postgres
// and Redis and checks that guild mutations made on one node propagate
// to the other through the message channels.
func TestGuildCoordination(t *testing.T) {
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

	leaderId := uuid.New()
	memberId := uuid.New()

	t.Log("=== Creating Guild on Node A ===")
	guild, err := nodeA.Bootstrap.GuildUsecase.CreateGuild(ctx, "Ironclad", "IRON", leaderId)
	require.NoError(t, err)

	// Create publishes one guild packet and one storage packet; node B
	// must consume both.
	setup.Eventually(t, 5*time.Second, func() bool {
		return nodeB.Dispatcher.Stats().Handled >= 2
	}, "node B never received the guild creation packets")

	t.Log("=== Growing Membership on Node A ===")
	require.NoError(t, nodeA.Bootstrap.GuildUsecase.InvitePlayer(ctx, guild.Id, leaderId, memberId))
	require.NoError(t, nodeA.Bootstrap.GuildUsecase.JoinGuild(ctx, guild.Id, memberId))

	setup.Eventually(t, 5*time.Second, func() bool {
		remote, err := nodeB.Bootstrap.GuildUsecase.GetGuild(ctx, guild.Id)
		if err != nil {
			return false
		}
		return remote.MemberCount() == 2
	}, "node B never saw the new member")

	t.Log("=== Depositing Money on Node A ===")
	amount := decimal.RequireFromString("250.50")
	require.NoError(t, nodeA.Bootstrap.GuildUsecase.DepositMoney(ctx, guild.Id, memberId, amount))

	setup.Eventually(t, 5*time.Second, func() bool {
		storage, err := nodeB.Bootstrap.GuildUsecase.GetStorage(ctx, guild.Id)
		if err != nil {
			return false
		}
		return storage.Balance().Equal(amount)
	}, "node B never saw the deposit")

	t.Log("=== Running Interest Pass ===")
	updated, err := nodeA.Bootstrap.InterestJob.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, updated)

	var money decimal.Decimal
	err = nodeA.DB.QueryRow(ctx, "SELECT money FROM guild_storages WHERE guild_id = $1", guild.Id).Scan(&money)
	require.NoError(t, err)
	require.True(t, money.Equal(decimal.RequireFromString("253.005")),
		"expected 250.50 plus 1%% interest, got %s", money)

	t.Log("=== Disbanding Guild on Node A ===")
	require.NoError(t, nodeA.Bootstrap.GuildUsecase.DisbandGuild(ctx, guild.Id, leaderId))

	setup.Eventually(t, 5*time.Second, func() bool {
		_, err := nodeB.Bootstrap.GuildUsecase.GetGuild(ctx, guild.Id)
		return err != nil
	}, "node B still resolves the disbanded guild")
}
