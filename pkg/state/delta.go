package state

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// UpdatePayload is the structured update a DM reply may embed in a
// [STATE: {...}] tag. Every field is independently optional: a field
// that is absent or has the wrong type is skipped without affecting
// the others. A payload is consumed once and discarded.
type UpdatePayload struct {
	HPChange        *int
	CurrencyChanges map[string]int // keyed by denomination, e.g. "gold"
	ItemsAdded      []Item
	ItemsRemoved    []string
}

// IsEmpty checks if the UpdatePayload carries no usable fields.
func (up *UpdatePayload) IsEmpty() bool {
	return up == nil || (up.HPChange == nil &&
		len(up.CurrencyChanges) == 0 &&
		len(up.ItemsAdded) == 0 &&
		len(up.ItemsRemoved) == 0)
}

const hpChangeKey = "hp_change"
const changeSuffix = "_change"

var titleCaser = cases.Title(language.English)

// ParseUpdatePayload decodes the JSON object captured from a state tag.
// The top-level object must be valid JSON; within it each field is
// validated independently, so one malformed field never blocks the rest.
func ParseUpdatePayload(raw string) (*UpdatePayload, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("invalid state payload: %w", err)
	}

	up := &UpdatePayload{}
	for key, val := range fields {
		switch {
		case key == hpChangeKey:
			var d int
			if err := json.Unmarshal(val, &d); err == nil {
				up.HPChange = &d
			}
		case strings.HasSuffix(key, changeSuffix):
			denom := strings.TrimSuffix(key, changeSuffix)
			if denom == "" {
				continue
			}
			var d int
			if err := json.Unmarshal(val, &d); err == nil {
				if up.CurrencyChanges == nil {
					up.CurrencyChanges = make(map[string]int)
				}
				up.CurrencyChanges[strings.ToLower(denom)] = d
			}
		case key == "items_added":
			up.ItemsAdded = parseAddedItems(val)
		case key == "items_removed":
			up.ItemsRemoved = parseRemovedItems(val)
		}
	}
	return up, nil
}

// parseAddedItems normalizes the items_added entries. A bare string
// becomes an item with default value and rarity; a structured entry has
// its fields coerced to strings with defaults for missing keys. Entries
// of any other shape are skipped.
func parseAddedItems(raw json.RawMessage) []Item {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}

	items := make([]Item, 0, len(entries))
	for _, entry := range entries {
		var name string
		if err := json.Unmarshal(entry, &name); err == nil {
			if name = strings.TrimSpace(name); name != "" {
				items = append(items, NormalizeItem(name, "", ""))
			}
			continue
		}

		var obj map[string]interface{}
		if err := json.Unmarshal(entry, &obj); err != nil {
			continue
		}
		name = coerceString(obj["name"])
		if name == "" {
			continue
		}
		items = append(items, NormalizeItem(name, coerceString(obj["value"]), coerceString(obj["rarity"])))
	}
	if len(items) == 0 {
		return nil
	}
	return items
}

func parseRemovedItems(raw json.RawMessage) []string {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		var name string
		if err := json.Unmarshal(entry, &name); err != nil {
			continue
		}
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	return names
}

// NormalizeItem builds an Item from loosely-typed model output,
// title-casing the name and filling in defaults for missing fields.
func NormalizeItem(name, value, rarity string) Item {
	if value == "" {
		value = DefaultItemValue
	}
	if rarity == "" {
		rarity = DefaultItemRarity
	}
	return Item{
		Name:   titleCaser.String(strings.TrimSpace(name)),
		Value:  value,
		Rarity: strings.ToLower(rarity),
	}
}

// coerceString renders a JSON scalar as a string. Numbers are common in
// model output where a string was asked for ("value": 10).
func coerceString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case bool:
		return fmt.Sprintf("%t", t)
	default:
		return ""
	}
}
