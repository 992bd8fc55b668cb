package purchase

import (
	"context"
	"fmt"

	"opsconsole/internal/form"
	"opsconsole/internal/infra/tenantclient"
	"opsconsole/internal/resource"
	"opsconsole/internal/shared_kernel/domain"
)

var messages = map[string]string{
	"vendor.required":                  "Vendor is required",
	"expected_date.required":           "Expected date is required",
	"expected_date.datetime":           "Expected date must be YYYY-MM-DD",
	"items.min":                        "Add at least one item",
	"items.*.product.required":         "Product is required",
	"items.*.quantity.gt":              "Quantity must be greater than zero",
	"items.*.estimated_unit_price.gte": "Estimated unit price cannot be negative",
}

func ValidatePurchaseRequest(r PurchaseRequest) error {
	return resource.Validate(r, messages).OrNil()
}

type Providers struct {
	Requests *resource.Provider[PurchaseRequest]
	Vendors  *resource.Provider[Vendor]
}

func NewProviders(requester tenantclient.Requester) *Providers {
	return &Providers{
		Requests: resource.NewProvider[PurchaseRequest](requester, PurchaseRequestPath, resource.WithValidator(ValidatePurchaseRequest)),
		Vendors:  resource.NewProvider[Vendor](requester, VendorPath),
	}
}

func (p *Providers) SendForApproval(ctx context.Context, id domain.ID) (PurchaseRequest, error) {
	return p.Requests.Action(ctx, id, ActionSendForApproval)
}

func (p *Providers) Approve(ctx context.Context, id domain.ID) (PurchaseRequest, error) {
	return p.Requests.Action(ctx, id, ActionApprove)
}

func (p *Providers) Reject(ctx context.Context, id domain.ID) (PurchaseRequest, error) {
	return p.Requests.Action(ctx, id, ActionReject)
}

func RowConfig(products form.OptionSource) form.RowConfig {
	return form.RowConfig{
		{
			Label:   "Product",
			Key:     "product",
			Kind:    form.KindAutocomplete,
			Options: products,
			Product: true,
			AutoFill: []form.AutoFill{
				{From: "uom", To: "uom"},
				{From: "description", To: "description"},
			},
		},
		{Label: "Description", Key: "description", Kind: form.KindText},
		{Label: "UoM", Key: "uom", Kind: form.KindText, Disabled: true},
		{Label: "Quantity", Key: "quantity", Kind: form.KindNumber},
		{Label: "Est. unit price", Key: "estimated_unit_price", Kind: form.KindNumber},
	}
}

// NewRequestForm saves drafts on submit and sends them for approval on the
// approval path.
func NewRequestForm(p *Providers, products form.OptionSource, basicInfo form.BasicInfo) (*form.Form, error) {
	create := func(ctx context.Context, state *form.FormState) (PurchaseRequest, error) {
		request, err := form.Decode[PurchaseRequest](state, ItemsKey)
		if err != nil {
			return request, err
		}
		return p.Requests.Create(ctx, request)
	}

	return form.NewFormBuilder().
		WithTitle("Purchase request").
		WithRowConfig(RowConfig(products), RequestItem{}).
		WithBasicInfo(basicInfo).
		WithOnSubmit(func(ctx context.Context, state *form.FormState) error {
			_, err := create(ctx, state)
			return err
		}).
		WithOnSubmitDone(func(ctx context.Context, state *form.FormState) error {
			created, err := create(ctx, state)
			if err != nil {
				return err
			}
			if _, err := p.SendForApproval(ctx, created.ID); err != nil {
				return fmt.Errorf("sending %s for approval: %w", created.ID, err)
			}
			return nil
		}).
		Build()
}
