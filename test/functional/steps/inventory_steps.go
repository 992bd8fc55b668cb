package steps

import (
	"fmt"
	"net/http"

	"opsconsole/internal/inventory"
	"opsconsole/internal/shared_kernel/domain"
)

func (fc *FeatureContext) iCreateATransfer(quantity int, product, from, to string) error {
	fc.run("transfer", "create", "--from", from, "--to", to, "--item", fmt.Sprintf("%s:%d", product, quantity))
	return nil
}

func (fc *FeatureContext) iCompleteATransfer(quantity int, product, from, to string) error {
	fc.run("transfer", "create", "--from", from, "--to", to, "--item", fmt.Sprintf("%s:%d", product, quantity), "--done")
	return nil
}

func (fc *FeatureContext) iScrap(quantity int, product, location, reason string) error {
	fc.run("scrap", "create", "--location", location, "--reason", reason, "--item", fmt.Sprintf("%s:%d", product, quantity), "--done")
	return nil
}

func (fc *FeatureContext) noTransferShouldHaveBeenSent() error {
	if fc.sandbox.External() {
		return nil
	}
	fc.require.Zero(fc.sandbox.CountSince(fc.mark, http.MethodPost, inventory.InternalTransferPath))
	return nil
}

func (fc *FeatureContext) productShouldHaveAvailable(id string, available int) error {
	client, err := fc.console.Client(fc.ctx)
	fc.require.NoError(err)

	product, err := inventory.NewProviders(client).Products.Get(fc.ctx, domain.ID(id))
	fc.require.NoError(err)
	fc.require.InDelta(float64(available), product.AvailableQuantity, 0.0001)
	return nil
}

func (fc *FeatureContext) theLatestTransferShouldBe(status string) error {
	client, err := fc.console.Client(fc.ctx)
	fc.require.NoError(err)

	transfers, err := inventory.NewProviders(client).Transfers.List(fc.ctx, "")
	fc.require.NoError(err)
	fc.require.NotEmpty(transfers)

	latest := transfers[len(transfers)-1]
	fc.require.Equal(status, string(latest.Status))
	return nil
}
