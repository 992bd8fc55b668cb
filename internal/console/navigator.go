package console

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Navigator moves the console to a route.
type Navigator interface {
	Navigate(route string)
}

var routeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.AdaptiveColor{Light: "#2563eb", Dark: "#9ecbff"})

// Printer is the CLI navigator: it prints every target route.
type Printer struct {
	mu sync.Mutex
	w  io.Writer
}

var _ Navigator = (*Printer)(nil)

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) Navigate(route string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := fmt.Fprintf(p.w, "-> %s\n", routeStyle.Render(route)); err != nil {
		slog.Error("printing route", slog.String("route", route), slog.String("error", err.Error()))
	}
}

// History keeps every route it was sent to.
type History struct {
	mu     sync.Mutex
	routes []string
}

var _ Navigator = (*History)(nil)

func (h *History) Navigate(route string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, route)
}

func (h *History) Routes() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.routes...)
}

// Current is the last route, or "" before any navigation.
func (h *History) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.routes) == 0 {
		return ""
	}
	return h.routes[len(h.routes)-1]
}
