package inventory

import (
	"context"
	"fmt"

	"opsconsole/internal/form"
	"opsconsole/internal/infra/storage"
)

const ActionDone = "done"

// MultiLocationEnabled reads the tenant flag persisted at login.
func MultiLocationEnabled(ctx context.Context, store storage.Storage) bool {
	enabled, found, err := storage.GetJSON[bool](ctx, store, storage.KeyMultiLocation)
	return err == nil && found && enabled
}

func productFields(products form.OptionSource) form.RowConfig {
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
				{From: "available_quantity", To: "available_quantity"},
			},
		},
		{Label: "UoM", Key: "uom", Kind: form.KindText, Disabled: true},
		{Label: "Description", Key: "description", Kind: form.KindText, Disabled: true},
		{Label: "Available", Key: "available_quantity", Kind: form.KindNumber, Disabled: true},
		{Label: "Quantity", Key: "quantity", Kind: form.KindNumber, MaxFrom: "available_quantity"},
	}
}

func TransferRowConfig(products, locations form.OptionSource, multiLocation bool) form.RowConfig {
	cfg := productFields(products)
	if multiLocation {
		cfg = append(cfg,
			form.Field{Label: "From", Key: "source_location", Kind: form.KindAutocomplete, Options: locations},
			form.Field{Label: "To", Key: "destination_location", Kind: form.KindAutocomplete, Options: locations},
		)
	}
	return cfg
}

func ScrapRowConfig(products, locations form.OptionSource, multiLocation bool) form.RowConfig {
	cfg := productFields(products)
	if multiLocation {
		cfg = append(cfg, form.Field{Label: "From", Key: "source_location", Kind: form.KindAutocomplete, Options: locations})
	}
	return cfg
}

// NewTransferForm creates transfers on submit; the done path creates and
// then completes the transfer.
func NewTransferForm(p *Providers, products, locations form.OptionSource, multiLocation bool, basicInfo form.BasicInfo) (*form.Form, error) {
	create := func(ctx context.Context, state *form.FormState) (InternalTransfer, error) {
		transfer, err := form.Decode[InternalTransfer](state, ItemsKey)
		if err != nil {
			return transfer, err
		}
		return p.Transfers.Create(ctx, transfer)
	}

	return form.NewFormBuilder().
		WithTitle("Internal transfer").
		WithRowConfig(TransferRowConfig(products, locations, multiLocation), MoveItem{}).
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
			if _, err := p.Transfers.Action(ctx, created.ID, ActionDone); err != nil {
				return fmt.Errorf("completing transfer %s: %w", created.ID, err)
			}
			return nil
		}).
		Build()
}

func NewScrapForm(p *Providers, products, locations form.OptionSource, multiLocation bool, basicInfo form.BasicInfo) (*form.Form, error) {
	create := func(ctx context.Context, state *form.FormState) (Scrap, error) {
		scrap, err := form.Decode[Scrap](state, ItemsKey)
		if err != nil {
			return scrap, err
		}
		return p.Scraps.Create(ctx, scrap)
	}

	return form.NewFormBuilder().
		WithTitle("Scrap").
		WithRowConfig(ScrapRowConfig(products, locations, multiLocation), MoveItem{}).
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
			if _, err := p.Scraps.Action(ctx, created.ID, ActionDone); err != nil {
				return fmt.Errorf("completing scrap %s: %w", created.ID, err)
			}
			return nil
		}).
		Build()
}
