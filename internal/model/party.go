package model

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Party is a cross-server play group. Roles are binary: one RoleLeader
// and any number of RoleMember. There is no promote/demote ladder, only
// ChangeLeader.
type Party struct {
	mu sync.Mutex

	Id            uuid.UUID
	LeaderId      uuid.UUID
	Members       map[uuid.UUID]Role
	Invites       map[uuid.UUID]struct{}
	CreatedAt     time.Time
	Open          bool
	CurrentServer string
	Settings      map[string]any
}

func NewParty(leaderId uuid.UUID, currentServer string) *Party {
	return &Party{
		Id:            uuid.New(),
		LeaderId:      leaderId,
		Members:       map[uuid.UUID]Role{leaderId: RoleLeader},
		Invites:       map[uuid.UUID]struct{}{},
		CreatedAt:     time.Now().UTC(),
		CurrentServer: currentServer,
		Settings:      map[string]any{},
	}
}

// AddMember adds a player as RoleMember (a party has no other joinable
// rank) and consumes any pending invite.
func (p *Party) AddMember(playerId uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.Members[playerId]; ok {
		return false
	}
	p.Members[playerId] = RoleMember
	delete(p.Invites, playerId)
	return true
}

// RemoveMember removes a player; the leader is refused.
func (p *Party) RemoveMember(playerId uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if playerId == p.LeaderId {
		return false
	}
	if _, ok := p.Members[playerId]; !ok {
		return false
	}
	delete(p.Members, playerId)
	return true
}

func (p *Party) Invite(playerId uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.Members[playerId]; ok {
		return false
	}
	if _, ok := p.Invites[playerId]; ok {
		return false
	}
	p.Invites[playerId] = struct{}{}
	return true
}

func (p *Party) CancelInvite(playerId uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.Invites[playerId]; !ok {
		return false
	}
	delete(p.Invites, playerId)
	return true
}

// ChangeLeader hands leadership to an existing member; the previous
// leader becomes a plain member. Atomic under the party lock.
func (p *Party) ChangeLeader(newLeaderId uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if newLeaderId == p.LeaderId {
		return false
	}
	if _, ok := p.Members[newLeaderId]; !ok {
		return false
	}
	p.Members[p.LeaderId] = RoleMember
	p.Members[newLeaderId] = RoleLeader
	p.LeaderId = newLeaderId
	return true
}

func (p *Party) SetOpen(open bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Open = open
}

// SetCurrentServer records the backend the party warped to.
func (p *Party) SetCurrentServer(server string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CurrentServer = server
}

func (p *Party) SetSetting(key string, value any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Settings[key] = value
}

func (p *Party) IsMember(playerId uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.Members[playerId]
	return ok
}

func (p *Party) IsInvited(playerId uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.Invites[playerId]
	return ok
}

func (p *Party) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Open
}

func (p *Party) MemberCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Members)
}

// Successor returns any non-leader member able to take over when the
// leader leaves. Map order is fine here, the command layer decides the
// actual policy.
func (p *Party) Successor() (uuid.UUID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id := range p.Members {
		if id != p.LeaderId {
			return id, true
		}
	}
	return uuid.Nil, false
}

// PartySnapshot is the wire and persistence form of a party.
type PartySnapshot struct {
	Id            uuid.UUID          `json:"id"`
	LeaderId      uuid.UUID          `json:"leader_id"`
	Members       map[uuid.UUID]Role `json:"members"`
	Invites       []uuid.UUID        `json:"invites"`
	CreatedAt     time.Time          `json:"created_at"`
	Open          bool               `json:"open"`
	CurrentServer string             `json:"current_server"`
	Settings      map[string]any     `json:"settings"`
}

func (p *Party) Snapshot() PartySnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	members := make(map[uuid.UUID]Role, len(p.Members))
	for id, role := range p.Members {
		members[id] = role
	}
	invites := make([]uuid.UUID, 0, len(p.Invites))
	for id := range p.Invites {
		invites = append(invites, id)
	}
	settings := make(map[string]any, len(p.Settings))
	for k, v := range p.Settings {
		settings[k] = v
	}
	return PartySnapshot{
		Id:            p.Id,
		LeaderId:      p.LeaderId,
		Members:       members,
		Invites:       invites,
		CreatedAt:     p.CreatedAt,
		Open:          p.Open,
		CurrentServer: p.CurrentServer,
		Settings:      settings,
	}
}

func PartyFromSnapshot(s PartySnapshot) *Party {
	members := make(map[uuid.UUID]Role, len(s.Members))
	for id, role := range s.Members {
		members[id] = role
	}
	invites := make(map[uuid.UUID]struct{}, len(s.Invites))
	for _, id := range s.Invites {
		invites[id] = struct{}{}
	}
	settings := s.Settings
	if settings == nil {
		settings = map[string]any{}
	}
	return &Party{
		Id:            s.Id,
		LeaderId:      s.LeaderId,
		Members:       members,
		Invites:       invites,
		CreatedAt:     s.CreatedAt,
		Open:          s.Open,
		CurrentServer: s.CurrentServer,
		Settings:      settings,
	}
}
