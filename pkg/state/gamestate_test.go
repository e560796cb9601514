package state

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/jwebster45206/tabletop-engine/pkg/chat"
)

func TestGameState_ApplyHPDelta(t *testing.T) {
	tests := []struct {
		name      string
		hp, maxHP int
		delta     int
		wantHP    int
		wantDelta int
	}{
		{name: "plain damage", hp: 10, maxHP: 10, delta: -4, wantHP: 6, wantDelta: -4},
		{name: "overkill clamps to zero", hp: 10, maxHP: 10, delta: -15, wantHP: 0, wantDelta: -10},
		{name: "heal clamps to max", hp: 10, maxHP: 10, delta: 5, wantHP: 10, wantDelta: 0},
		{name: "partial heal", hp: 3, maxHP: 10, delta: 4, wantHP: 7, wantDelta: 4},
		{name: "zero delta", hp: 5, maxHP: 10, delta: 0, wantHP: 5, wantDelta: 0},
		{name: "damage at zero", hp: 0, maxHP: 10, delta: -3, wantHP: 0, wantDelta: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := &GameState{HP: tt.hp, MaxHP: tt.maxHP}
			applied := gs.ApplyHPDelta(tt.delta)
			if gs.HP != tt.wantHP {
				t.Errorf("HP = %d, want %d", gs.HP, tt.wantHP)
			}
			if applied != tt.wantDelta {
				t.Errorf("applied = %d, want %d", applied, tt.wantDelta)
			}
		})
	}
}

func TestGameState_SetVitals(t *testing.T) {
	gs := &GameState{HP: 10, MaxHP: 10}
	gs.SetVitals(10, 6)
	if gs.HP != 6 || gs.MaxHP != 6 {
		t.Errorf("SetVitals(10, 6) = %d/%d, want 6/6", gs.HP, gs.MaxHP)
	}

	gs.SetVitals(-2, 8)
	if gs.HP != 0 {
		t.Errorf("negative HP should clamp to 0, got %d", gs.HP)
	}
}

func TestGameState_AdjustCurrency(t *testing.T) {
	gs := &GameState{Currency: map[string]int{"gold": 5}}

	if applied := gs.AdjustCurrency("gold", -20); applied != -5 {
		t.Errorf("applied = %d, want -5", applied)
	}
	if gs.Currency["gold"] != 0 {
		t.Errorf("gold = %d, want 0", gs.Currency["gold"])
	}

	// New denominations spring into existence at zero.
	if applied := gs.AdjustCurrency("silver", 3); applied != 3 {
		t.Errorf("applied = %d, want 3", applied)
	}
	if gs.Currency["silver"] != 3 {
		t.Errorf("silver = %d, want 3", gs.Currency["silver"])
	}
}

func TestGameState_AdjustCurrencyNilMap(t *testing.T) {
	gs := &GameState{}
	gs.AdjustCurrency("gold", 7)
	if gs.Currency["gold"] != 7 {
		t.Errorf("gold = %d, want 7", gs.Currency["gold"])
	}
}

func TestGameState_RemoveItemsMatching(t *testing.T) {
	gs := &GameState{Inventory: []Item{
		{Name: "Rusty Key"},
		{Name: "Key Ring"},
		{Name: "Torch"},
		{Name: "Skeleton KEY"},
	}}

	removed := gs.RemoveItemsMatching("key")
	if len(removed) != 3 {
		t.Fatalf("removed %d items, want 3", len(removed))
	}
	if len(gs.Inventory) != 1 || gs.Inventory[0].Name != "Torch" {
		t.Errorf("inventory = %v, want only Torch", gs.Inventory)
	}

	if removed := gs.RemoveItemsMatching(""); removed != nil {
		t.Errorf("empty name should remove nothing, got %v", removed)
	}
}

func TestGameState_DuplicateItemsAllowed(t *testing.T) {
	gs := &GameState{}
	gs.AddItem(Item{Name: "Torch"})
	gs.AddItem(Item{Name: "Torch"})
	if len(gs.Inventory) != 2 {
		t.Errorf("inventory length = %d, want 2", len(gs.Inventory))
	}
}

func TestGameState_HistoryTail(t *testing.T) {
	gs := &GameState{}
	for i := 0; i < 10; i++ {
		gs.AppendMessage(chat.ChatRoleUser, "message")
	}

	if tail := gs.HistoryTail(4); len(tail) != 4 {
		t.Errorf("tail length = %d, want 4", len(tail))
	}
	if tail := gs.HistoryTail(20); len(tail) != 10 {
		t.Errorf("tail length = %d, want 10", len(tail))
	}
	if tail := gs.HistoryTail(0); tail != nil {
		t.Errorf("tail = %v, want nil", tail)
	}
}

func TestGameState_InventorySerializationKeys(t *testing.T) {
	data, err := json.Marshal(Item{Name: "Dagger", Value: "2gp", Rarity: "common"})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	for _, key := range []string{`"Item"`, `"Value"`, `"Rarity"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("serialized item %s missing key %s", data, key)
		}
	}
}

func TestNewGameState_Defaults(t *testing.T) {
	gs := NewGameState("test-model")
	if gs.Name != DefaultName || gs.Race != DefaultRace || gs.Class != DefaultClass {
		t.Errorf("unexpected identity defaults: %s/%s/%s", gs.Name, gs.Race, gs.Class)
	}
	if gs.HP != DefaultMaxHP || gs.MaxHP != DefaultMaxHP {
		t.Errorf("vitals = %d/%d, want %d/%d", gs.HP, gs.MaxHP, DefaultMaxHP, DefaultMaxHP)
	}
	if gs.Started {
		t.Error("fresh session must not be marked started")
	}
	if gs.Model != "test-model" {
		t.Errorf("model = %q, want test-model", gs.Model)
	}
}
