package state

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// DeltaWorker applies a parsed UpdatePayload to a game state, clamping
// every numeric change and recording what was actually applied so the
// presentation layer can notify the player with the same values.
type DeltaWorker struct {
	gs      *GameState
	payload *UpdatePayload
	logger  *slog.Logger
}

// ApplyResult records the changes a DeltaWorker made. Deltas are
// post-clamp: they sum to exactly the net change on the game state.
type ApplyResult struct {
	HPDelta        int
	CurrencyDeltas map[string]int
	ItemsAdded     []Item
	ItemsRemoved   []Item
}

// NewDeltaWorker creates a delta worker for applying state changes.
func NewDeltaWorker(gs *GameState, payload *UpdatePayload, logger *slog.Logger) *DeltaWorker {
	return &DeltaWorker{
		gs:      gs,
		payload: payload,
		logger:  logger,
	}
}

// Apply applies the payload field by field. Fields are independent:
// a skipped or absent field never blocks the others.
func (dw *DeltaWorker) Apply() *ApplyResult {
	result := &ApplyResult{}
	if dw.payload == nil || dw.gs == nil {
		return result
	}

	if dw.payload.HPChange != nil {
		result.HPDelta = dw.gs.ApplyHPDelta(*dw.payload.HPChange)
		if dw.logger != nil {
			dw.logger.Debug("Applied HP delta",
				"requested", *dw.payload.HPChange,
				"applied", result.HPDelta,
				"hp", dw.gs.HP,
				"hp_max", dw.gs.MaxHP)
		}
	}

	for denom, delta := range dw.payload.CurrencyChanges {
		applied := dw.gs.AdjustCurrency(denom, delta)
		if applied == 0 {
			continue
		}
		if result.CurrencyDeltas == nil {
			result.CurrencyDeltas = make(map[string]int)
		}
		result.CurrencyDeltas[denom] = applied
	}

	for _, item := range dw.payload.ItemsAdded {
		dw.gs.AddItem(item)
		result.ItemsAdded = append(result.ItemsAdded, item)
	}

	for _, name := range dw.payload.ItemsRemoved {
		result.ItemsRemoved = append(result.ItemsRemoved, dw.gs.RemoveItemsMatching(name)...)
	}

	return result
}

// Changed checks whether any field was applied.
func (r *ApplyResult) Changed() bool {
	return r != nil && (r.HPDelta != 0 ||
		len(r.CurrencyDeltas) > 0 ||
		len(r.ItemsAdded) > 0 ||
		len(r.ItemsRemoved) > 0)
}

// Notices returns one human-readable line per changed field, in a
// stable order. The values match what was applied to state.
func (r *ApplyResult) Notices() []string {
	if r == nil {
		return nil
	}
	var notices []string
	if r.HPDelta != 0 {
		notices = append(notices, fmt.Sprintf("HP %+d", r.HPDelta))
	}

	denoms := make([]string, 0, len(r.CurrencyDeltas))
	for denom := range r.CurrencyDeltas {
		denoms = append(denoms, denom)
	}
	sort.Strings(denoms)
	for _, denom := range denoms {
		notices = append(notices, fmt.Sprintf("%s %+d", titleCaser.String(denom), r.CurrencyDeltas[denom]))
	}

	for _, item := range r.ItemsAdded {
		notices = append(notices, "+"+item.Name)
	}
	for _, item := range r.ItemsRemoved {
		notices = append(notices, "-"+item.Name)
	}
	return notices
}

// Summary renders the notices as a single line, e.g.
// "HP -4, Gold +5, +Rusty Key".
func (r *ApplyResult) Summary() string {
	return strings.Join(r.Notices(), ", ")
}
