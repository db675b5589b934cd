package model

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const DefaultStorageSlots = 54

// MoneyScale is the decimal places the money column persists
// (NUMERIC(20,4)). Computed amounts like interest must be rounded to
// this scale before depositing, or the stored balance diverges from
// the in-memory one.
const MoneyScale = 4

// GuildStorage is the guild's item and money ledger. Item counts stay
// strictly positive (empty entries are removed), the slot bound holds,
// and money never goes negative. Every mutation is all-or-nothing and
// serialized by the ledger lock, so callers like the interest job can
// run against live command traffic.
type GuildStorage struct {
	mu sync.Mutex

	GuildId  uuid.UUID
	Items    map[string]int
	Money    decimal.Decimal
	MaxSlots int
}

func NewGuildStorage(guildId uuid.UUID, maxSlots int) *GuildStorage {
	if maxSlots <= 0 {
		maxSlots = DefaultStorageSlots
	}
	return &GuildStorage{
		GuildId:  guildId,
		Items:    map[string]int{},
		Money:    decimal.Zero,
		MaxSlots: maxSlots,
	}
}

// AddItem adds amount of itemType. A new item type needs a free slot.
func (s *GuildStorage) AddItem(itemType string, amount int) bool {
	if amount <= 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, held := s.Items[itemType]; !held && len(s.Items) >= s.MaxSlots {
		return false
	}
	s.Items[itemType] += amount
	return true
}

// RemoveItem takes amount of itemType; the entry disappears when it
// reaches zero.
func (s *GuildStorage) RemoveItem(itemType string, amount int) bool {
	if amount <= 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	held, ok := s.Items[itemType]
	if !ok || held < amount {
		return false
	}
	if held == amount {
		delete(s.Items, itemType)
	} else {
		s.Items[itemType] = held - amount
	}
	return true
}

// DepositMoney credits the balance. Non-positive amounts are rejected.
func (s *GuildStorage) DepositMoney(amount decimal.Decimal) bool {
	if !amount.IsPositive() {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.Money = s.Money.Add(amount)
	return true
}

// WithdrawMoney debits the balance; overdrafts are rejected with no
// partial application.
func (s *GuildStorage) WithdrawMoney(amount decimal.Decimal) bool {
	if !amount.IsPositive() {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if amount.GreaterThan(s.Money) {
		return false
	}
	s.Money = s.Money.Sub(amount)
	return true
}

func (s *GuildStorage) HasItem(itemType string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.Items[itemType]
	return ok
}

func (s *GuildStorage) ItemAmount(itemType string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Items[itemType]
}

func (s *GuildStorage) FreeSlots() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.MaxSlots - len(s.Items)
}

func (s *GuildStorage) HasFreeSlots() bool {
	return s.FreeSlots() > 0
}

func (s *GuildStorage) Balance() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Money
}

// Clear resets items and money; used on guild disband.
func (s *GuildStorage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Items = map[string]int{}
	s.Money = decimal.Zero
}

// StorageSnapshot is the wire and persistence form of a ledger.
type StorageSnapshot struct {
	GuildId  uuid.UUID       `json:"guild_id"`
	Items    map[string]int  `json:"items"`
	Money    decimal.Decimal `json:"money"`
	MaxSlots int             `json:"max_slots"`
}

func (s *GuildStorage) Snapshot() StorageSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make(map[string]int, len(s.Items))
	for t, n := range s.Items {
		items[t] = n
	}
	return StorageSnapshot{
		GuildId:  s.GuildId,
		Items:    items,
		Money:    s.Money,
		MaxSlots: s.MaxSlots,
	}
}

func StorageFromSnapshot(snap StorageSnapshot) *GuildStorage {
	items := make(map[string]int, len(snap.Items))
	for t, n := range snap.Items {
		if n > 0 {
			items[t] = n
		}
	}
	maxSlots := snap.MaxSlots
	if maxSlots <= 0 {
		maxSlots = DefaultStorageSlots
	}
	return &GuildStorage{
		GuildId:  snap.GuildId,
		Items:    items,
		Money:    snap.Money,
		MaxSlots: maxSlots,
	}
}
