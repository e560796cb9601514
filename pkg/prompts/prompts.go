package prompts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jwebster45206/tabletop-engine/pkg/state"
)

// BaseSystemPrompt is the narrator persona and rule set. The current
// character sheet is appended by the builder on every turn so the model
// always sees fresh vitals, currency, and inventory.
const BaseSystemPrompt = `You are the Infinite Dungeon Master, the omniscient narrator of a tabletop adventure. Narrate the story as it unfolds. Be evocative but concise. You never discuss things outside of the game, and you never speak for the player.

### Dice
If the player's input contains [SYSTEM: I rolled ...], interpret the result purely:
- Low roll (1-8): failure or complication.
- Mid roll (9-14): mixed success or struggle.
- High roll (15-20): success.
- A natural 20: critical triumph.

### State reporting
When the story changes the player's hit points, currency, or possessions, end your reply with exactly one tag on its own line:
[STATE: {"hp_change": -2, "gold_change": 5, "items_added": [{"name": "rusty key", "value": "unknown", "rarity": "common"}], "items_removed": ["torch"]}]
Rules for the tag:
- Include only the fields that changed this turn.
- hp_change and <denomination>_change values are whole numbers.
- items_added entries may be bare strings when value and rarity are unknown.
- Never mention the tag or its contents in your prose. The game engine removes it before the player sees your reply.

### Visuals
End responses with [IMAGE: <short scene description>] when a new scene is set.`

// OpeningNarration starts a fresh game.
const OpeningNarration = `The tavern is loud, but your corner is quiet. A shadowed figure approaches. "I have a job," they whisper. What do you do?`

// TimelineShiftNarration opens a session seeded from a share token.
func TimelineShiftNarration(name, class string) string {
	return fmt.Sprintf("The timeline shifts. You are %s, a %s. The world is exactly as you remember it. What do you do?", name, class)
}

// CharacterSheet renders the session state as the text block embedded
// in the system prompt.
func CharacterSheet(gs *state.GameState) string {
	var sb strings.Builder
	sb.WriteString("### Player Character\n")
	fmt.Fprintf(&sb, "PLAYER: %s (Level %d %s %s)\n", gs.Name, gs.Level, gs.Race, gs.Class)
	fmt.Fprintf(&sb, "HP: %d/%d\n", gs.HP, gs.MaxHP)

	denoms := make([]string, 0, len(gs.Currency))
	for denom := range gs.Currency {
		denoms = append(denoms, denom)
	}
	sort.Strings(denoms)
	parts := make([]string, 0, len(denoms))
	for _, denom := range denoms {
		parts = append(parts, fmt.Sprintf("%d %s", gs.Currency[denom], denom))
	}
	if len(parts) > 0 {
		fmt.Fprintf(&sb, "CURRENCY: %s\n", strings.Join(parts, ", "))
	}

	if len(gs.Inventory) == 0 {
		sb.WriteString("INVENTORY: (empty)")
	} else {
		names := make([]string, 0, len(gs.Inventory))
		for _, item := range gs.Inventory {
			names = append(names, item.Name)
		}
		fmt.Fprintf(&sb, "INVENTORY: %s", strings.Join(names, ", "))
	}
	return sb.String()
}
