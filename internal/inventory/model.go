package inventory

import (
	"opsconsole/internal/shared_kernel/domain"
)

const (
	ProductPath          = "/inventory/product/"
	LocationPath         = "/inventory/location/"
	InternalTransferPath = "/inventory/internal-transfer/"
	ScrapPath            = "/inventory/scrap/"
	StockMovePath        = "/inventory/stock-move/"

	ItemsKey = "items"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusDone      Status = "done"
	StatusCancelled Status = "cancelled"
)

type Product struct {
	ID                domain.ID `json:"id"`
	Name              string    `json:"name"`
	SKU               string    `json:"sku,omitempty"`
	UOM               string    `json:"uom,omitempty"`
	Description       string    `json:"description,omitempty"`
	AvailableQuantity float64   `json:"available_quantity"`
}

func (p Product) ResourceID() domain.ID { return p.ID }

type Location struct {
	ID   domain.ID `json:"id"`
	Name string    `json:"name"`
	Code string    `json:"code,omitempty"`
}

func (l Location) ResourceID() domain.ID { return l.ID }

// MoveItem is one product line of a transfer or scrap. Location columns are
// only used when the tenant has multi-location enabled.
type MoveItem struct {
	Product             domain.ID `json:"product" validate:"required"`
	Quantity            float64   `json:"quantity" validate:"gt=0"`
	UOM                 string    `json:"uom,omitempty"`
	Description         string    `json:"description,omitempty"`
	AvailableQuantity   float64   `json:"available_quantity,omitempty"`
	SourceLocation      domain.ID `json:"source_location,omitempty"`
	DestinationLocation domain.ID `json:"destination_location,omitempty"`
}

type InternalTransfer struct {
	ID                  domain.ID  `json:"id,omitempty"`
	Reference           string     `json:"reference,omitempty"`
	SourceLocation      domain.ID  `json:"source_location" validate:"required"`
	DestinationLocation domain.ID  `json:"destination_location" validate:"required"`
	ScheduledDate       string     `json:"scheduled_date,omitempty"`
	Notes               string     `json:"notes,omitempty"`
	Status              Status     `json:"status,omitempty"`
	Items               []MoveItem `json:"items" validate:"min=1,dive"`
}

func (t InternalTransfer) ResourceID() domain.ID { return t.ID }

type Scrap struct {
	ID        domain.ID  `json:"id,omitempty"`
	Reference string     `json:"reference,omitempty"`
	Location  domain.ID  `json:"location" validate:"required"`
	Reason    string     `json:"reason" validate:"required"`
	Status    Status     `json:"status,omitempty"`
	Items     []MoveItem `json:"items" validate:"min=1,dive"`
}

func (s Scrap) ResourceID() domain.ID { return s.ID }

// StockMove is the ledger line the server writes when a transfer or scrap is done.
type StockMove struct {
	ID                  domain.ID `json:"id"`
	Reference           string    `json:"reference,omitempty"`
	Product             domain.ID `json:"product"`
	Quantity            float64   `json:"quantity"`
	SourceLocation      domain.ID `json:"source_location,omitempty"`
	DestinationLocation domain.ID `json:"destination_location,omitempty"`
	Date                string    `json:"date,omitempty"`
}

func (m StockMove) ResourceID() domain.ID { return m.ID }
