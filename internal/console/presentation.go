package console

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"opsconsole/internal/infra/tenantclient"
	"opsconsole/internal/infra/utils"
	"opsconsole/internal/resource"
)

const (
	TitleValidation   = "Please check the form"
	TitleShortage     = "Insufficient stock"
	TitleRejected     = "Request rejected"
	TitleUnauthorized = "Session expired"
	TitleForbidden    = "Permission denied"
	TitleNotFound     = "Not found"
	TitleServer       = "Server error"
	TitleNetwork      = "Connection problem"
	TitleNotSignedIn  = "Not signed in"
	TitleUnexpected   = "Unexpected error"
)

// Shortage is one product line of a stock conflict answer.
type Shortage struct {
	Product   string
	Requested string
	Available string
	Message   string
}

// Presentation is what the console shows for a failed operation.
type Presentation struct {
	Title     string
	Message   string
	Fields    map[string]string
	Shortages []Shortage
}

func (p Presentation) IsZero() bool {
	return p.Title == "" && p.Message == "" && len(p.Fields) == 0 && len(p.Shortages) == 0
}

// Describe maps an operation error to its presentation. Validation errors
// list their fields; conflict arrays become a shortage table; anything the
// console does not recognise gets the generic message.
func Describe(err error) Presentation {
	if err == nil {
		return Presentation{}
	}

	var validationErr *resource.ValidationError
	var apiErr *tenantclient.APIError
	var netErr *tenantclient.NetworkError

	switch {
	case errors.As(err, &validationErr):
		return Presentation{
			Title:   TitleValidation,
			Message: "Some fields are missing or invalid.",
			Fields:  validationErr.Fields,
		}
	case errors.As(err, &apiErr):
		return describeAPIError(apiErr)
	case errors.As(err, &netErr), errors.Is(err, context.DeadlineExceeded):
		return Presentation{Title: TitleNetwork, Message: resource.Message(err)}
	case errors.Is(err, tenantclient.ErrNotReady):
		return Presentation{Title: TitleNotSignedIn, Message: "Sign in to continue."}
	default:
		return Presentation{Title: TitleUnexpected, Message: resource.Message(err)}
	}
}

func describeAPIError(apiErr *tenantclient.APIError) Presentation {
	p := Presentation{Message: apiErr.Detail}

	if len(apiErr.Conflicts) > 0 {
		p.Title = TitleShortage
		for _, conflict := range apiErr.Conflicts {
			p.Shortages = append(p.Shortages, shortageOf(conflict))
		}
		return p
	}

	if len(apiErr.Fields) > 0 {
		p.Fields = make(map[string]string, len(apiErr.Fields))
		for field, messages := range apiErr.Fields {
			p.Fields[field] = strings.Join(messages, " ")
		}
	}

	switch {
	case apiErr.Status == http.StatusUnauthorized:
		p.Title = TitleUnauthorized
	case apiErr.Status == http.StatusForbidden:
		p.Title = TitleForbidden
	case apiErr.Status == http.StatusNotFound:
		p.Title = TitleNotFound
	case apiErr.Status >= http.StatusInternalServerError:
		p.Title = TitleServer
	default:
		p.Title = TitleRejected
	}
	return p
}

func shortageOf(conflict map[string]any) Shortage {
	return Shortage{
		Product:   firstOf(conflict, "product_name", "product", "name"),
		Requested: firstOf(conflict, "requested", "requested_quantity", "quantity"),
		Available: firstOf(conflict, "available", "available_quantity"),
		Message:   firstOf(conflict, "message", "detail", "error"),
	}
}

func firstOf(conflict map[string]any, keys ...string) string {
	for _, key := range keys {
		if value := utils.ExtractStringValue(conflict, key); value != "" {
			return value
		}
	}
	return ""
}

var errorTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.AdaptiveColor{Light: "#b91c1c", Dark: "#f87171"})

var fieldStyle = lipgloss.NewStyle().
	PaddingLeft(2)

var fieldNameStyle = lipgloss.NewStyle().
	Bold(true)

var shortageHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Padding(0, 1)

var shortageCellStyle = lipgloss.NewStyle().
	Padding(0, 1)

func (p Presentation) Render() string {
	if p.IsZero() {
		return ""
	}

	var b strings.Builder
	b.WriteString(errorTitleStyle.Render(p.Title))
	if p.Message != "" {
		b.WriteString("\n")
		b.WriteString(p.Message)
	}

	if len(p.Fields) > 0 {
		keys := make([]string, 0, len(p.Fields))
		for k := range p.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString("\n")
			b.WriteString(fieldStyle.Render(fmt.Sprintf("%s %s", fieldNameStyle.Render(k+":"), p.Fields[k])))
		}
	}

	if len(p.Shortages) > 0 {
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("Product", "Requested", "Available", "Message").
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == 0 {
					return shortageHeaderStyle
				}
				return shortageCellStyle
			})
		for _, s := range p.Shortages {
			t.Row(s.Product, s.Requested, s.Available, s.Message)
		}
		b.WriteString("\n")
		b.WriteString(t.String())
	}
	return b.String()
}
