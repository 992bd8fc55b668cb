package form

import (
	"encoding/json"
	"fmt"
	"maps"
)

// ItemRow is one editable row. ID is generated client-side to key the row
// while editing and is not sent to the server.
type ItemRow struct {
	ID     string
	Values map[string]any
	// Selected keeps the chosen option of each autocomplete cell.
	Selected map[string]Option
}

func (r ItemRow) clone() ItemRow {
	return ItemRow{
		ID:       r.ID,
		Values:   maps.Clone(r.Values),
		Selected: maps.Clone(r.Selected),
	}
}

type FormState struct {
	Basic map[string]any
	Items []ItemRow
}

func NewFormState() *FormState {
	return &FormState{Basic: map[string]any{}}
}

// SetBasic is the setter handed to BasicInfo sections.
func (s *FormState) SetBasic(key string, value any) {
	if s.Basic == nil {
		s.Basic = map[string]any{}
	}
	s.Basic[key] = value
}

// Payload merges the basic fields with the item values under itemsKey.
func (s *FormState) Payload(itemsKey string) map[string]any {
	payload := maps.Clone(s.Basic)
	if payload == nil {
		payload = map[string]any{}
	}

	items := make([]map[string]any, 0, len(s.Items))
	for _, row := range s.Items {
		items = append(items, maps.Clone(row.Values))
	}
	payload[itemsKey] = items
	return payload
}

// Decode converts the form state into the entity T through its JSON shape.
func Decode[T any](s *FormState, itemsKey string) (T, error) {
	var out T
	raw, err := json.Marshal(s.Payload(itemsKey))
	if err != nil {
		return out, fmt.Errorf("encoding form state: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decoding form state into %T: %w", out, err)
	}
	return out, nil
}
