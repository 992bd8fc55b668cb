package inventory

import (
	"opsconsole/internal/infra/tenantclient"
	"opsconsole/internal/resource"
)

// Providers groups the inventory providers of one tenant session.
type Providers struct {
	Products   *resource.Provider[Product]
	Locations  *resource.Provider[Location]
	Transfers  *resource.Provider[InternalTransfer]
	Scraps     *resource.Provider[Scrap]
	StockMoves *resource.Provider[StockMove]
}

func NewProviders(requester tenantclient.Requester) *Providers {
	return &Providers{
		Products:   resource.NewProvider[Product](requester, ProductPath),
		Locations:  resource.NewProvider[Location](requester, LocationPath),
		Transfers:  resource.NewProvider[InternalTransfer](requester, InternalTransferPath, resource.WithValidator(ValidateInternalTransfer)),
		Scraps:     resource.NewProvider[Scrap](requester, ScrapPath, resource.WithValidator(ValidateScrap)),
		StockMoves: resource.NewProvider[StockMove](requester, StockMovePath),
	}
}
