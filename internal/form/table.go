package form

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"opsconsole/internal/infra/utils"
)

const NoItemsPlaceholder = "No items"

var (
	ErrRowOutOfRange = errors.New("row index out of range")
	ErrUnknownField  = errors.New("unknown field")
	ErrFieldDisabled = errors.New("field is disabled")
	ErrInvalidInput  = errors.New("invalid input")
)

// Warning blocks an edit; the UI shows it and the cell keeps its value.
type Warning struct {
	Row     int
	Field   string
	Message string
}

func (w *Warning) Error() string {
	return w.Message
}

type Cell struct {
	Key      string
	Label    string
	Text     string
	Disabled bool
}

type RenderedRow struct {
	ID          string
	Cells       []Cell
	Placeholder string
}

// Table edits the item rows of a FormState according to a RowConfig.
type Table struct {
	mu     sync.Mutex
	config RowConfig
	state  *FormState
}

func NewTable(config RowConfig, state *FormState) *Table {
	if state == nil {
		state = NewFormState()
	}
	return &Table{config: config, state: state}
}

func (t *Table) Config() RowConfig {
	return t.config
}

func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.state.Items)
}

func (t *Table) Row(i int) (ItemRow, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i < 0 || i >= len(t.state.Items) {
		return ItemRow{}, fmt.Errorf("%w: %d", ErrRowOutOfRange, i)
	}
	return t.state.Items[i].clone(), nil
}

// AddRow appends a row with every configured key empty.
func (t *Table) AddRow() ItemRow {
	t.mu.Lock()
	defer t.mu.Unlock()

	row := ItemRow{
		ID:       utils.GenerateUUID(),
		Values:   make(map[string]any, len(t.config)),
		Selected: map[string]Option{},
	}
	for _, f := range t.config {
		row.Values[f.Key] = emptyValue(f.Kind)
	}
	t.state.Items = append(t.state.Items, row)
	return row.clone()
}

func (t *Table) RemoveRow(i int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if i < 0 || i >= len(t.state.Items) {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, i)
	}
	items := make([]ItemRow, 0, len(t.state.Items)-1)
	for idx, row := range t.state.Items {
		if idx != i {
			items = append(items, row)
		}
	}
	t.state.Items = items
	return nil
}

// SetField applies user input to one cell. Number cells ignore non-numeric
// input and return a Warning, leaving the cell unchanged, when the value is
// above the limit read from the row's product.
func (t *Table) SetField(i int, key string, input any) (*Warning, error) {
	field, ok := t.config.Field(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, key)
	}
	if field.Disabled {
		return nil, fmt.Errorf("%w: %s", ErrFieldDisabled, key)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if i < 0 || i >= len(t.state.Items) {
		return nil, fmt.Errorf("%w: %d", ErrRowOutOfRange, i)
	}
	row := &t.state.Items[i]
	if row.Values == nil {
		row.Values = map[string]any{}
	}
	if row.Selected == nil {
		row.Selected = map[string]Option{}
	}

	switch field.Kind {
	case KindNumber:
		return t.setNumber(i, row, field, input), nil
	case KindAutocomplete:
		return nil, t.setOption(row, field, input)
	default:
		if input == nil {
			row.Values[key] = ""
		} else {
			row.Values[key] = fmt.Sprint(input)
		}
		return nil, nil
	}
}

func (t *Table) setNumber(i int, row *ItemRow, field Field, input any) *Warning {
	if s, ok := input.(string); ok && strings.TrimSpace(s) == "" {
		row.Values[field.Key] = nil
		return nil
	}
	if input == nil {
		row.Values[field.Key] = nil
		return nil
	}

	value, ok := utils.ToFloat64(input)
	if !ok {
		return nil
	}

	if field.MaxFrom != "" {
		if limit, found := t.limitFor(row, field); found && value > limit {
			return &Warning{
				Row:     i,
				Field:   field.Key,
				Message: fmt.Sprintf("%s cannot exceed %s", field.Label, formatNumber(limit)),
			}
		}
	}

	row.Values[field.Key] = value
	return nil
}

func (t *Table) limitFor(row *ItemRow, field Field) (float64, bool) {
	product, ok := t.config.productField()
	if !ok {
		return 0, false
	}
	option, ok := row.Selected[product.Key]
	if !ok {
		return 0, false
	}
	return utils.ExtractFloat64Value(map[string]any(option), field.MaxFrom)
}

func (t *Table) setOption(row *ItemRow, field Field, input any) error {
	var option Option
	switch v := input.(type) {
	case nil:
	case Option:
		option = v
	case map[string]any:
		option = Option(v)
	default:
		return fmt.Errorf("%w: %s expects an option, got %T", ErrInvalidInput, field.Key, input)
	}

	if option == nil {
		row.Values[field.Key] = nil
		delete(row.Selected, field.Key)
		for _, rule := range field.AutoFill {
			row.Values[rule.To] = emptyValueFor(t.config, rule.To)
		}
		return nil
	}

	value, _ := utils.ExtractValue(map[string]any(option), field.optionValue())
	row.Values[field.Key] = value
	row.Selected[field.Key] = option
	for _, rule := range field.AutoFill {
		copied, found := utils.ExtractValue(map[string]any(option), rule.From)
		if !found {
			copied = emptyValueFor(t.config, rule.To)
		}
		row.Values[rule.To] = copied
	}
	return nil
}

// Rows renders one row of cells per item, or a single placeholder row.
func (t *Table) Rows() []RenderedRow {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.state.Items) == 0 {
		return []RenderedRow{{Placeholder: NoItemsPlaceholder}}
	}

	rows := make([]RenderedRow, 0, len(t.state.Items))
	for _, item := range t.state.Items {
		rendered := RenderedRow{ID: item.ID, Cells: make([]Cell, 0, len(t.config))}
		for _, f := range t.config {
			rendered.Cells = append(rendered.Cells, Cell{
				Key:      f.Key,
				Label:    f.Label,
				Text:     cellText(f, item),
				Disabled: f.Disabled,
			})
		}
		rows = append(rows, rendered)
	}
	return rows
}

func cellText(f Field, item ItemRow) string {
	value := item.Values[f.Key]
	if f.Kind == KindAutocomplete {
		if option, ok := item.Selected[f.Key]; ok {
			value = option.String(f.optionLabel())
		}
	}
	if f.Transform != nil {
		value = f.Transform(value)
	}

	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return formatNumber(v)
	default:
		return fmt.Sprint(v)
	}
}

func emptyValue(kind Kind) any {
	if kind == KindText {
		return ""
	}
	return nil
}

func emptyValueFor(config RowConfig, key string) any {
	if f, ok := config.Field(key); ok {
		return emptyValue(f.Kind)
	}
	return nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
