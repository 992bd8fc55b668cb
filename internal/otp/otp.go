package otp

import (
	"errors"
	"strings"
	"sync"
)

const DefaultLength = 6

var ErrInvalidLength = errors.New("otp length must be positive")

// Widget is the headless model of an N-cell one-time-password input.
type Widget struct {
	mu       sync.Mutex
	cells    []rune
	focus    int
	onChange func(code string)
}

type Option func(*Widget)

// WithOnChange is called with the concatenated code after every change.
func WithOnChange(fn func(code string)) Option {
	return func(w *Widget) {
		w.onChange = fn
	}
}

func New(length int, opts ...Option) (*Widget, error) {
	if length <= 0 {
		return nil, ErrInvalidLength
	}
	w := &Widget{cells: make([]rune, length)}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

func (w *Widget) Len() int {
	return len(w.cells)
}

func (w *Widget) Focus() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.focus
}

// SetFocus moves focus to cell i, clamped to the cells.
func (w *Widget) SetFocus(i int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.focus = clamp(i, len(w.cells))
}

// Value is the concatenation of the filled cells.
func (w *Widget) Value() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.valueLocked()
}

func (w *Widget) Cells() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.cells))
	for i, r := range w.cells {
		if r != 0 {
			out[i] = string(r)
		}
	}
	return out
}

func (w *Widget) Complete() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, r := range w.cells {
		if r == 0 {
			return false
		}
	}
	return true
}

// Input types into cell i. Only the last character counts and it must be a
// digit; anything else is ignored. A digit advances focus to the next cell.
func (w *Widget) Input(i int, text string) {
	w.mu.Lock()
	if i < 0 || i >= len(w.cells) || text == "" {
		w.mu.Unlock()
		return
	}
	runes := []rune(text)
	r := runes[len(runes)-1]
	if !isDigit(r) {
		w.mu.Unlock()
		return
	}

	w.cells[i] = r
	w.focus = clamp(i+1, len(w.cells))
	code := w.valueLocked()
	w.mu.Unlock()

	w.emit(code)
}

// Backspace clears cell i, or when it is already empty moves focus to the
// previous cell and clears that one.
func (w *Widget) Backspace(i int) {
	w.mu.Lock()
	if i < 0 || i >= len(w.cells) {
		w.mu.Unlock()
		return
	}

	if w.cells[i] != 0 {
		w.cells[i] = 0
		w.focus = i
	} else if i > 0 {
		w.cells[i-1] = 0
		w.focus = i - 1
	} else {
		w.focus = 0
		w.mu.Unlock()
		return
	}
	code := w.valueLocked()
	w.mu.Unlock()

	w.emit(code)
}

// Paste distributes the digits of text from the first cell on, replacing the
// whole code, then focuses the first empty cell or the last cell.
func (w *Widget) Paste(text string) {
	var digits []rune
	for _, r := range text {
		if isDigit(r) {
			digits = append(digits, r)
		}
	}
	if len(digits) == 0 {
		return
	}

	w.mu.Lock()
	for i := range w.cells {
		if i < len(digits) {
			w.cells[i] = digits[i]
		} else {
			w.cells[i] = 0
		}
	}
	w.focus = len(w.cells) - 1
	for i, r := range w.cells {
		if r == 0 {
			w.focus = i
			break
		}
	}
	code := w.valueLocked()
	w.mu.Unlock()

	w.emit(code)
}

func (w *Widget) Clear() {
	w.mu.Lock()
	for i := range w.cells {
		w.cells[i] = 0
	}
	w.focus = 0
	w.mu.Unlock()

	w.emit("")
}

func (w *Widget) valueLocked() string {
	var b strings.Builder
	for _, r := range w.cells {
		if r != 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (w *Widget) emit(code string) {
	if w.onChange != nil {
		w.onChange(code)
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
