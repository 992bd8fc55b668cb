package purchase

import (
	"opsconsole/internal/shared_kernel/domain"
)

const (
	PurchaseRequestPath = "/purchase/purchase-request/"
	VendorPath          = "/purchase/vendor/"

	ActionSendForApproval = "send-for-approval"
	ActionApprove         = "approve"
	ActionReject          = "reject"

	ItemsKey = "items"
)

type Status string

const (
	StatusDraft           Status = "draft"
	StatusPendingApproval Status = "pending_approval"
	StatusApproved        Status = "approved"
	StatusRejected        Status = "rejected"
)

type Vendor struct {
	ID    domain.ID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email,omitempty"`
}

func (v Vendor) ResourceID() domain.ID { return v.ID }

type RequestItem struct {
	Product            domain.ID `json:"product" validate:"required"`
	Description        string    `json:"description,omitempty"`
	UOM                string    `json:"uom,omitempty"`
	Quantity           float64   `json:"quantity" validate:"gt=0"`
	EstimatedUnitPrice float64   `json:"estimated_unit_price" validate:"gte=0"`
}

type PurchaseRequest struct {
	ID           domain.ID     `json:"id,omitempty"`
	Reference    string        `json:"reference,omitempty"`
	Vendor       domain.ID     `json:"vendor" validate:"required"`
	ExpectedDate string        `json:"expected_date" validate:"required,datetime=2006-01-02"`
	Notes        string        `json:"notes,omitempty"`
	Status       Status        `json:"status,omitempty"`
	Items        []RequestItem `json:"items" validate:"min=1,dive"`
}

func (r PurchaseRequest) ResourceID() domain.ID { return r.ID }

// EstimatedTotal sums quantity times estimated unit price.
func (r PurchaseRequest) EstimatedTotal() float64 {
	var total float64
	for _, item := range r.Items {
		total += item.Quantity * item.EstimatedUnitPrice
	}
	return total
}
