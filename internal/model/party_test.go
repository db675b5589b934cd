package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNewPartyLeaderIsMember(t *testing.T) {
	leaderId := uuid.New()
	party := NewParty(leaderId, "lobby-1")

	require.Equal(t, leaderId, party.LeaderId)
	require.True(t, party.IsMember(leaderId))
	require.Equal(t, 1, party.MemberCount())
	require.Equal(t, "lobby-1", party.CurrentServer)
	require.False(t, party.IsOpen())
}

func TestPartyJoinConsumesInvite(t *testing.T) {
	party := NewParty(uuid.New(), "lobby-1")
	playerId := uuid.New()

	require.True(t, party.Invite(playerId))
	require.False(t, party.Invite(playerId))
	require.True(t, party.AddMember(playerId))
	require.False(t, party.IsInvited(playerId))

	role := party.Snapshot().Members[playerId]
	require.Equal(t, RoleMember, role, "parties only have plain members besides the leader")
}

func TestPartyRemoveMemberRefusesLeader(t *testing.T) {
	leaderId := uuid.New()
	party := NewParty(leaderId, "lobby-1")
	memberId := uuid.New()
	require.True(t, party.AddMember(memberId))

	require.False(t, party.RemoveMember(leaderId))
	require.True(t, party.RemoveMember(memberId))
}

func TestPartyChangeLeaderDemotesOldLeader(t *testing.T) {
	oldLeaderId := uuid.New()
	newLeaderId := uuid.New()
	party := NewParty(oldLeaderId, "lobby-1")
	require.True(t, party.AddMember(newLeaderId))

	require.False(t, party.ChangeLeader(uuid.New()))
	require.True(t, party.ChangeLeader(newLeaderId))

	require.Equal(t, newLeaderId, party.LeaderId)
	snapshot := party.Snapshot()
	require.Equal(t, RoleLeader, snapshot.Members[newLeaderId])
	require.Equal(t, RoleMember, snapshot.Members[oldLeaderId])
}

func TestPartySuccessor(t *testing.T) {
	leaderId := uuid.New()
	party := NewParty(leaderId, "lobby-1")

	_, ok := party.Successor()
	require.False(t, ok, "a solo party has nobody to take over")

	memberId := uuid.New()
	require.True(t, party.AddMember(memberId))

	successor, ok := party.Successor()
	require.True(t, ok)
	require.Equal(t, memberId, successor)
}

func TestPartySnapshotRoundTrip(t *testing.T) {
	leaderId := uuid.New()
	party := NewParty(leaderId, "skyblock-7")
	memberId := uuid.New()
	invitedId := uuid.New()
	require.True(t, party.AddMember(memberId))
	require.True(t, party.Invite(invitedId))
	party.SetOpen(true)
	party.SetSetting("allow_warp", true)

	restored := PartyFromSnapshot(party.Snapshot())

	require.Equal(t, party.Id, restored.Id)
	require.Equal(t, leaderId, restored.LeaderId)
	require.Equal(t, "skyblock-7", restored.CurrentServer)
	require.True(t, restored.IsOpen())
	require.True(t, restored.IsMember(memberId))
	require.True(t, restored.IsInvited(invitedId))
	require.Equal(t, true, restored.Settings["allow_warp"])
}
