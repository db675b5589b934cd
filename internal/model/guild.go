package model

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// XP needed to go from Level to Level+1 is Level * XPPerLevel.
const XPPerLevel = 1000

const DefaultMaxGuildMembers = 50

// Guild is the authoritative in-process copy of one guild. All
// mutations go through its methods, which serialize access so the
// single-leader and capacity invariants hold under concurrent callers.
// Precondition failures are reported as a false return, never an error.
type Guild struct {
	mu sync.Mutex

	Id          uuid.UUID
	Name        string
	Tag         string
	Description string
	LeaderId    uuid.UUID
	CreatedAt   time.Time
	Level       int
	Experience  int
	Members     map[uuid.UUID]Role
	Invites     map[uuid.UUID]struct{}
	StorageId   uuid.UUID
	MaxMembers  int
}

// NewGuild creates a guild with the founder as its single leader. The
// storage id defaults to the guild id (1:1 storage per guild).
func NewGuild(name, tag string, leaderId uuid.UUID, maxMembers int) *Guild {
	if maxMembers <= 0 {
		maxMembers = DefaultMaxGuildMembers
	}
	id := uuid.New()
	return &Guild{
		Id:         id,
		Name:       name,
		Tag:        tag,
		LeaderId:   leaderId,
		CreatedAt:  time.Now().UTC(),
		Level:      1,
		Members:    map[uuid.UUID]Role{leaderId: RoleLeader},
		Invites:    map[uuid.UUID]struct{}{},
		StorageId:  id,
		MaxMembers: maxMembers,
	}
}

// AddMember adds a player and consumes any pending invite for them.
// Fails if the player is already a member or the role is RoleLeader
// (leadership only moves through ChangeLeader). Capacity is a caller
// precondition, checked through CanAddMember.
func (g *Guild) AddMember(playerId uuid.UUID, role Role) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if role == RoleLeader {
		return false
	}
	if _, ok := g.Members[playerId]; ok {
		return false
	}
	g.Members[playerId] = role
	delete(g.Invites, playerId)
	return true
}

// RemoveMember removes a player. The current leader can never be
// removed; transfer leadership first.
func (g *Guild) RemoveMember(playerId uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if playerId == g.LeaderId {
		return false
	}
	if _, ok := g.Members[playerId]; !ok {
		return false
	}
	delete(g.Members, playerId)
	return true
}

// Invite records a pending invite. Members and already-invited players
// are rejected, keeping Invites and Members disjoint.
func (g *Guild) Invite(playerId uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.Members[playerId]; ok {
		return false
	}
	if _, ok := g.Invites[playerId]; ok {
		return false
	}
	g.Invites[playerId] = struct{}{}
	return true
}

func (g *Guild) CancelInvite(playerId uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.Invites[playerId]; !ok {
		return false
	}
	delete(g.Invites, playerId)
	return true
}

// Promote raises a member one rank. The step never reaches RoleLeader.
func (g *Guild) Promote(playerId uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	role, ok := g.Members[playerId]
	if !ok {
		return false
	}
	next, ok := role.Next()
	if !ok {
		return false
	}
	g.Members[playerId] = next
	return true
}

// Demote lowers a member one rank. The leader cannot be demoted.
func (g *Guild) Demote(playerId uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	role, ok := g.Members[playerId]
	if !ok {
		return false
	}
	prev, ok := role.Previous()
	if !ok {
		return false
	}
	g.Members[playerId] = prev
	return true
}

// ChangeLeader hands leadership to an existing member. The previous
// leader steps down to officer. The swap happens under one lock, so no
// caller ever observes zero or two leaders.
func (g *Guild) ChangeLeader(newLeaderId uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if newLeaderId == g.LeaderId {
		return false
	}
	if _, ok := g.Members[newLeaderId]; !ok {
		return false
	}
	g.Members[g.LeaderId] = RoleOfficer
	g.Members[newLeaderId] = RoleLeader
	g.LeaderId = newLeaderId
	return true
}

// CanAddMember reports whether a free member slot exists. Callers must
// check this before AddMember; AddMember itself does not enforce it.
func (g *Guild) CanAddMember() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Members) < g.MaxMembers
}

// AdmitMember is AddMember with the capacity check folded under the
// same lock. Callers racing over the last free slot must use this;
// a separate CanAddMember/AddMember pair can both pass the check and
// overfill the guild.
func (g *Guild) AdmitMember(playerId uuid.UUID, role Role) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if role == RoleLeader {
		return false
	}
	if _, ok := g.Members[playerId]; ok {
		return false
	}
	if len(g.Members) >= g.MaxMembers {
		return false
	}
	g.Members[playerId] = role
	delete(g.Invites, playerId)
	return true
}

// AddExperience accumulates xp and applies level-ups until the
// remainder is below the next requirement. Reports whether at least
// one level-up happened.
func (g *Guild) AddExperience(amount int) bool {
	if amount <= 0 {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.Experience += amount
	leveled := false
	for required := g.Level * XPPerLevel; g.Experience >= required; required = g.Level * XPPerLevel {
		g.Experience -= required
		g.Level++
		leveled = true
	}
	return leveled
}

// MemberRole returns the role of a player, if they are a member.
func (g *Guild) MemberRole(playerId uuid.UUID) (Role, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	role, ok := g.Members[playerId]
	return role, ok
}

func (g *Guild) IsInvited(playerId uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.Invites[playerId]
	return ok
}

func (g *Guild) MemberCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Members)
}

// GuildSnapshot is the wire and persistence form of a guild.
type GuildSnapshot struct {
	Id          uuid.UUID          `json:"id"`
	Name        string             `json:"name"`
	Tag         string             `json:"tag"`
	Description string             `json:"description"`
	LeaderId    uuid.UUID          `json:"leader_id"`
	CreatedAt   time.Time          `json:"created_at"`
	Level       int                `json:"level"`
	Experience  int                `json:"experience"`
	Members     map[uuid.UUID]Role `json:"members"`
	Invites     []uuid.UUID        `json:"invites"`
	StorageId   uuid.UUID          `json:"storage_id"`
	MaxMembers  int                `json:"max_members"`
}

// Snapshot copies the guild state under its lock.
func (g *Guild) Snapshot() GuildSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	members := make(map[uuid.UUID]Role, len(g.Members))
	for id, role := range g.Members {
		members[id] = role
	}
	invites := make([]uuid.UUID, 0, len(g.Invites))
	for id := range g.Invites {
		invites = append(invites, id)
	}
	return GuildSnapshot{
		Id:          g.Id,
		Name:        g.Name,
		Tag:         g.Tag,
		Description: g.Description,
		LeaderId:    g.LeaderId,
		CreatedAt:   g.CreatedAt,
		Level:       g.Level,
		Experience:  g.Experience,
		Members:     members,
		Invites:     invites,
		StorageId:   g.StorageId,
		MaxMembers:  g.MaxMembers,
	}
}

// GuildFromSnapshot rebuilds an authoritative copy from a snapshot,
// e.g. one carried by a sync packet from another process.
func GuildFromSnapshot(s GuildSnapshot) *Guild {
	members := make(map[uuid.UUID]Role, len(s.Members))
	for id, role := range s.Members {
		members[id] = role
	}
	invites := make(map[uuid.UUID]struct{}, len(s.Invites))
	for _, id := range s.Invites {
		invites[id] = struct{}{}
	}
	storageId := s.StorageId
	if storageId == uuid.Nil {
		storageId = s.Id
	}
	maxMembers := s.MaxMembers
	if maxMembers <= 0 {
		maxMembers = DefaultMaxGuildMembers
	}
	return &Guild{
		Id:          s.Id,
		Name:        s.Name,
		Tag:         s.Tag,
		Description: s.Description,
		LeaderId:    s.LeaderId,
		CreatedAt:   s.CreatedAt,
		Level:       s.Level,
		Experience:  s.Experience,
		Members:     members,
		Invites:     invites,
		StorageId:   storageId,
		MaxMembers:  maxMembers,
	}
}
