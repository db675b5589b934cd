package model

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNewGuildFounderIsLeader(t *testing.T) {
	leaderId := uuid.New()
	guild := NewGuild("Ironclad", "IRON", leaderId, 0)

	require.Equal(t, leaderId, guild.LeaderId)
	require.Equal(t, 1, guild.MemberCount())
	require.Equal(t, 1, guild.Level)
	require.Equal(t, DefaultMaxGuildMembers, guild.MaxMembers)
	require.Equal(t, guild.Id, guild.StorageId)

	role, ok := guild.MemberRole(leaderId)
	require.True(t, ok)
	require.Equal(t, RoleLeader, role)
}

func TestGuildInviteJoinBookkeeping(t *testing.T) {
	guild := NewGuild("Ironclad", "IRON", uuid.New(), 0)
	playerId := uuid.New()

	require.True(t, guild.Invite(playerId))
	require.True(t, guild.IsInvited(playerId))
	// Double invite is a no-op failure
	require.False(t, guild.Invite(playerId))

	require.True(t, guild.AddMember(playerId, RoleRookie))
	require.False(t, guild.IsInvited(playerId), "joining must consume the invite")
	require.False(t, guild.Invite(playerId), "members cannot be invited")
	require.False(t, guild.AddMember(playerId, RoleRookie))
}

func TestGuildAddMemberNeverAddsLeader(t *testing.T) {
	guild := NewGuild("Ironclad", "IRON", uuid.New(), 0)

	require.False(t, guild.AddMember(uuid.New(), RoleLeader))
}

func TestGuildRemoveMemberRefusesLeader(t *testing.T) {
	leaderId := uuid.New()
	guild := NewGuild("Ironclad", "IRON", leaderId, 0)
	memberId := uuid.New()
	require.True(t, guild.AddMember(memberId, RoleMember))

	require.False(t, guild.RemoveMember(leaderId))
	require.True(t, guild.RemoveMember(memberId))
	require.False(t, guild.RemoveMember(memberId))
}

func TestGuildPromoteDemoteBounds(t *testing.T) {
	leaderId := uuid.New()
	guild := NewGuild("Ironclad", "IRON", leaderId, 0)
	memberId := uuid.New()
	require.True(t, guild.AddMember(memberId, RoleRookie))

	require.True(t, guild.Promote(memberId)) // rookie -> member
	require.True(t, guild.Promote(memberId)) // member -> officer
	require.False(t, guild.Promote(memberId), "promote must never create a second leader")
	require.False(t, guild.Promote(leaderId))

	require.True(t, guild.Demote(memberId))  // officer -> member
	require.True(t, guild.Demote(memberId))  // member -> rookie
	require.False(t, guild.Demote(memberId)) // floor
	require.False(t, guild.Demote(leaderId), "leader never moves through the ladder")
}

func TestGuildChangeLeaderKeepsSingleLeader(t *testing.T) {
	oldLeaderId := uuid.New()
	newLeaderId := uuid.New()
	guild := NewGuild("Ironclad", "IRON", oldLeaderId, 0)
	require.True(t, guild.AddMember(newLeaderId, RoleOfficer))

	require.False(t, guild.ChangeLeader(uuid.New()), "outsiders cannot become leader")
	require.False(t, guild.ChangeLeader(oldLeaderId))
	require.True(t, guild.ChangeLeader(newLeaderId))

	require.Equal(t, newLeaderId, guild.LeaderId)
	role, _ := guild.MemberRole(newLeaderId)
	require.Equal(t, RoleLeader, role)
	role, _ = guild.MemberRole(oldLeaderId)
	require.Equal(t, RoleOfficer, role, "old leader steps down to officer")

	leaders := 0
	for _, r := range guild.Snapshot().Members {
		if r == RoleLeader {
			leaders++
		}
	}
	require.Equal(t, 1, leaders)
}

func TestGuildCapacity(t *testing.T) {
	guild := NewGuild("Ironclad", "IRON", uuid.New(), 2)

	require.True(t, guild.CanAddMember())
	require.True(t, guild.AddMember(uuid.New(), RoleRookie))
	require.False(t, guild.CanAddMember())
}

func TestGuildAdmitMember(t *testing.T) {
	guild := NewGuild("Ironclad", "IRON", uuid.New(), 3)
	playerId := uuid.New()
	require.True(t, guild.Invite(playerId))

	require.False(t, guild.AdmitMember(playerId, RoleLeader))
	require.True(t, guild.AdmitMember(playerId, RoleRookie))
	require.False(t, guild.IsInvited(playerId), "admission consumes the invite")
	require.False(t, guild.AdmitMember(playerId, RoleRookie))

	require.True(t, guild.AdmitMember(uuid.New(), RoleRookie))
	require.False(t, guild.AdmitMember(uuid.New(), RoleRookie), "full guild admits nobody")
}

func TestGuildAdmitMemberHoldsCapacityUnderConcurrentJoins(t *testing.T) {
	// Leader plus one free slot, many contenders.
	guild := NewGuild("Ironclad", "IRON", uuid.New(), 2)

	const contenders = 16
	var admitted atomic.Int32
	var wg sync.WaitGroup
	wg.Add(contenders)
	for i := 0; i < contenders; i++ {
		go func() {
			defer wg.Done()
			if guild.AdmitMember(uuid.New(), RoleRookie) {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), admitted.Load(), "exactly one contender takes the last slot")
	require.Equal(t, 2, guild.MemberCount())
}

func TestGuildAddExperienceLevelsUp(t *testing.T) {
	guild := NewGuild("Ironclad", "IRON", uuid.New(), 0)

	require.False(t, guild.AddExperience(0))
	require.False(t, guild.AddExperience(-5))

	require.False(t, guild.AddExperience(999))
	require.Equal(t, 1, guild.Level)
	require.Equal(t, 999, guild.Experience)

	// 999+1501=2500: the 1->2 step costs 1000, leaving 1500, which is
	// short of the 2000 the 2->3 step costs.
	require.True(t, guild.AddExperience(1501))
	require.Equal(t, 2, guild.Level)
	require.Equal(t, 1500, guild.Experience)

	require.True(t, guild.AddExperience(500))
	require.Equal(t, 3, guild.Level)
	require.Equal(t, 0, guild.Experience)
}

func TestGuildSnapshotRoundTrip(t *testing.T) {
	leaderId := uuid.New()
	guild := NewGuild("Ironclad", "IRON", leaderId, 10)
	guild.Description = "the anvil choir"
	memberId := uuid.New()
	invitedId := uuid.New()
	require.True(t, guild.AddMember(memberId, RoleOfficer))
	require.True(t, guild.Invite(invitedId))
	guild.AddExperience(1200)

	restored := GuildFromSnapshot(guild.Snapshot())

	require.Equal(t, guild.Id, restored.Id)
	require.Equal(t, guild.Name, restored.Name)
	require.Equal(t, guild.Tag, restored.Tag)
	require.Equal(t, guild.Description, restored.Description)
	require.Equal(t, leaderId, restored.LeaderId)
	require.Equal(t, 2, restored.Level)
	require.Equal(t, 200, restored.Experience)
	require.Equal(t, 10, restored.MaxMembers)
	require.Equal(t, 2, restored.MemberCount())
	require.True(t, restored.IsInvited(invitedId))

	role, ok := restored.MemberRole(memberId)
	require.True(t, ok)
	require.Equal(t, RoleOfficer, role)
}

func TestGuildFromSnapshotDefaults(t *testing.T) {
	id := uuid.New()
	restored := GuildFromSnapshot(GuildSnapshot{Id: id, Name: "Ironclad"})

	require.Equal(t, id, restored.StorageId, "missing storage id falls back to guild id")
	require.Equal(t, DefaultMaxGuildMembers, restored.MaxMembers)
}
