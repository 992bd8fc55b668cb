package steps

import (
	"fmt"

	"opsconsole/internal/console"
	"opsconsole/internal/purchase"
)

func (fc *FeatureContext) iRequest(quantity int, product, price, vendor, expected string) error {
	fc.run("purchase-request", "create", "--vendor", vendor, "--expected-date", expected,
		"--item", fmt.Sprintf("%s:%d:%s", product, quantity, price))
	return nil
}

func (fc *FeatureContext) iRequestAndSendForApproval(quantity int, product, price, vendor, expected string) error {
	fc.run("purchase-request", "create", "--vendor", vendor, "--expected-date", expected,
		"--item", fmt.Sprintf("%s:%d:%s", product, quantity, price), "--send")
	return nil
}

func (fc *FeatureContext) latestPurchaseRequest() purchase.PurchaseRequest {
	client, err := fc.console.Client(fc.ctx)
	fc.require.NoError(err)

	requests, err := purchase.NewProviders(client).Requests.List(fc.ctx, "")
	fc.require.NoError(err)
	fc.require.NotEmpty(requests)
	return requests[len(requests)-1]
}

func (fc *FeatureContext) iActOnTheLatestPurchaseRequest(action string) error {
	latest := fc.latestPurchaseRequest()
	fc.run("action", console.EntityPurchaseRequest, string(latest.ID), action)
	return nil
}

func (fc *FeatureContext) theLatestPurchaseRequestShouldBe(status string) error {
	fc.require.Equal(status, string(fc.latestPurchaseRequest().Status))
	return nil
}
