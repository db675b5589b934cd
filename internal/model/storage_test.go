package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestStorageAddAndRemoveItems(t *testing.T) {
	storage := NewGuildStorage(uuid.New(), 0)
	require.Equal(t, DefaultStorageSlots, storage.MaxSlots)

	require.False(t, storage.AddItem("COBBLESTONE", 0))
	require.False(t, storage.AddItem("COBBLESTONE", -3))

	require.True(t, storage.AddItem("COBBLESTONE", 64))
	require.True(t, storage.AddItem("COBBLESTONE", 32))
	require.Equal(t, 96, storage.ItemAmount("COBBLESTONE"))
	require.Equal(t, DefaultStorageSlots-1, storage.FreeSlots())

	require.False(t, storage.RemoveItem("COBBLESTONE", 100), "cannot take more than held")
	require.True(t, storage.RemoveItem("COBBLESTONE", 96))
	require.False(t, storage.HasItem("COBBLESTONE"), "entry disappears at zero")
	require.Equal(t, DefaultStorageSlots, storage.FreeSlots())
}

func TestStorageSlotBound(t *testing.T) {
	storage := NewGuildStorage(uuid.New(), 2)

	require.True(t, storage.AddItem("IRON_INGOT", 1))
	require.True(t, storage.AddItem("GOLD_INGOT", 1))
	require.False(t, storage.HasFreeSlots())
	require.False(t, storage.AddItem("DIAMOND", 1), "new item type needs a free slot")
	require.True(t, storage.AddItem("IRON_INGOT", 1), "held types can still grow")
}

func TestStorageMoneyExactness(t *testing.T) {
	storage := NewGuildStorage(uuid.New(), 0)

	require.False(t, storage.DepositMoney(decimal.Zero))
	require.False(t, storage.DepositMoney(decimal.RequireFromString("-1")))

	// 0.1 + 0.2 must be exactly 0.3, not a float approximation.
	require.True(t, storage.DepositMoney(decimal.RequireFromString("0.1")))
	require.True(t, storage.DepositMoney(decimal.RequireFromString("0.2")))
	require.True(t, storage.Balance().Equal(decimal.RequireFromString("0.3")))

	require.False(t, storage.WithdrawMoney(decimal.RequireFromString("0.31")), "no overdraft")
	require.True(t, storage.Balance().Equal(decimal.RequireFromString("0.3")), "failed withdrawal leaves balance untouched")

	require.True(t, storage.WithdrawMoney(decimal.RequireFromString("0.3")))
	require.True(t, storage.Balance().IsZero())
}

func TestStorageClear(t *testing.T) {
	storage := NewGuildStorage(uuid.New(), 0)
	require.True(t, storage.AddItem("EMERALD", 12))
	require.True(t, storage.DepositMoney(decimal.NewFromInt(500)))

	storage.Clear()

	require.True(t, storage.Balance().IsZero())
	require.False(t, storage.HasItem("EMERALD"))
	require.Equal(t, storage.MaxSlots, storage.FreeSlots())
}

func TestStorageSnapshotRoundTrip(t *testing.T) {
	guildId := uuid.New()
	storage := NewGuildStorage(guildId, 27)
	require.True(t, storage.AddItem("OAK_LOG", 48))
	require.True(t, storage.DepositMoney(decimal.RequireFromString("1234.56")))

	restored := StorageFromSnapshot(storage.Snapshot())

	require.Equal(t, guildId, restored.GuildId)
	require.Equal(t, 27, restored.MaxSlots)
	require.Equal(t, 48, restored.ItemAmount("OAK_LOG"))
	require.True(t, restored.Balance().Equal(decimal.RequireFromString("1234.56")))
}

func TestStorageFromSnapshotDropsEmptyEntries(t *testing.T) {
	restored := StorageFromSnapshot(StorageSnapshot{
		GuildId: uuid.New(),
		Items:   map[string]int{"DIRT": 0, "SAND": 3},
	})

	require.False(t, restored.HasItem("DIRT"))
	require.Equal(t, 3, restored.ItemAmount("SAND"))
	require.Equal(t, DefaultStorageSlots, restored.MaxSlots)
}
