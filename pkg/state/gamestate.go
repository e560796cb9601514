package state

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/tabletop-engine/pkg/chat"
)

// Item is a single inventory entry. Duplicates are permitted; the
// inventory is an ordered list, not a set. The capitalized JSON keys
// match the save-cartridge file format.
type Item struct {
	Name   string `json:"Item"`
	Value  string `json:"Value"`  // free-form, e.g. "10gp"
	Rarity string `json:"Rarity"` // e.g. "common", "rare"
}

// Default values for a fresh character and for snapshot fields that
// are missing from a decoded token.
const (
	DefaultName  = "Traveler"
	DefaultClass = "Adventurer"
	DefaultRace  = "Human"
	DefaultLevel = 1
	DefaultMaxHP = 10

	DefaultItemValue  = "unknown"
	DefaultItemRarity = "common"
)

// GameState is the current state of a tabletop game session.
// API credentials are deliberately not part of this struct: they live
// in server config and must never reach storage or a share token.
type GameState struct {
	ID        uuid.UUID          `json:"id"`
	Name      string             `json:"name"`
	Class     string             `json:"class"`
	Race      string             `json:"race"`
	Level     int                `json:"level"`
	HP        int                `json:"hp_current"`
	MaxHP     int                `json:"hp_max"`
	Currency  map[string]int     `json:"currency,omitempty"`
	Inventory []Item             `json:"inventory,omitempty"`
	Model     string             `json:"model,omitempty"` // LLM model identifier for this session

	// Started is set once play has begun, either by the first chat turn
	// or by seeding from a share token. A started session skips the
	// character-creation flow.
	Started bool `json:"started"`

	ChatHistory []chat.ChatMessage `json:"chat_history,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// NewGameState creates a fresh session with default character values.
func NewGameState(model string) *GameState {
	return &GameState{
		ID:       uuid.New(),
		Name:     DefaultName,
		Class:    DefaultClass,
		Race:     DefaultRace,
		Level:    DefaultLevel,
		HP:       DefaultMaxHP,
		MaxHP:    DefaultMaxHP,
		Currency: map[string]int{"gold": 10},
		Inventory: []Item{
			{Name: "Rations", Value: DefaultItemValue, Rarity: DefaultItemRarity},
			{Name: "Waterskin", Value: DefaultItemValue, Rarity: DefaultItemRarity},
			{Name: "Dagger", Value: "2gp", Rarity: DefaultItemRarity},
		},
		Model:       model,
		ChatHistory: make([]chat.ChatMessage, 0),
		CreatedAt:   time.Now(),
	}
}

// ApplyHPDelta adjusts current HP by delta, clamped to [0, MaxHP].
// Returns the delta actually applied.
func (gs *GameState) ApplyHPDelta(delta int) int {
	old := gs.HP
	hp := gs.HP + delta
	if hp < 0 {
		hp = 0
	}
	if hp > gs.MaxHP {
		hp = gs.MaxHP
	}
	gs.HP = hp
	return gs.HP - old
}

// SetVitals sets max HP and re-clamps current HP to the invariant
// 0 <= HP <= MaxHP.
func (gs *GameState) SetVitals(hp, maxHP int) {
	if maxHP < 0 {
		maxHP = 0
	}
	gs.MaxHP = maxHP
	gs.HP = hp
	gs.ApplyHPDelta(0)
}

// AdjustCurrency adjusts a denomination by delta, clamped at zero.
// Returns the delta actually applied.
func (gs *GameState) AdjustCurrency(denom string, delta int) int {
	if gs.Currency == nil {
		gs.Currency = make(map[string]int)
	}
	old := gs.Currency[denom]
	v := old + delta
	if v < 0 {
		v = 0
	}
	gs.Currency[denom] = v
	return v - old
}

// AddItem appends an item to the inventory. Order is preserved and
// duplicates are allowed.
func (gs *GameState) AddItem(item Item) {
	gs.Inventory = append(gs.Inventory, item)
}

// RemoveItemsMatching removes every inventory entry whose name contains
// name as a case-insensitive substring, and returns the removed entries.
// The loose match is long-standing behavior: removing "key" deletes both
// "Rusty Key" and "Key Ring".
func (gs *GameState) RemoveItemsMatching(name string) []Item {
	if name == "" {
		return nil
	}
	needle := strings.ToLower(name)
	var removed []Item
	kept := gs.Inventory[:0]
	for _, item := range gs.Inventory {
		if strings.Contains(strings.ToLower(item.Name), needle) {
			removed = append(removed, item)
			continue
		}
		kept = append(kept, item)
	}
	gs.Inventory = kept
	return removed
}

// AppendMessage appends a message to the conversation history.
func (gs *GameState) AppendMessage(role, content string) {
	gs.ChatHistory = append(gs.ChatHistory, chat.ChatMessage{Role: role, Content: content})
}

// HistoryTail returns the last n messages of the conversation.
func (gs *GameState) HistoryTail(n int) []chat.ChatMessage {
	if n <= 0 || len(gs.ChatHistory) == 0 {
		return nil
	}
	if len(gs.ChatHistory) <= n {
		tail := make([]chat.ChatMessage, len(gs.ChatHistory))
		copy(tail, gs.ChatHistory)
		return tail
	}
	tail := make([]chat.ChatMessage, n)
	copy(tail, gs.ChatHistory[len(gs.ChatHistory)-n:])
	return tail
}
