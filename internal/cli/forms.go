package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"opsconsole/internal/console"
	"opsconsole/internal/form"
	"opsconsole/internal/infra/cache"
	"opsconsole/internal/infra/tenantclient"
	"opsconsole/internal/inventory"
	"opsconsole/internal/purchase"
	"opsconsole/internal/resource"
	"opsconsole/internal/shared_kernel/domain"
)

var (
	ErrInvalidItem    = errors.New("items are written product:quantity")
	ErrUnknownProduct = errors.New("unknown product")
)

// item is one --item flag: product:quantity, optionally :unit price.
type item struct {
	product  string
	quantity string
	price    string
}

func parseItems(raw []string, withPrice bool) ([]item, error) {
	items := make([]item, 0, len(raw))
	for _, value := range raw {
		parts := strings.Split(value, ":")
		if len(parts) < 2 || len(parts) > 3 || (len(parts) == 3 && !withPrice) || parts[0] == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidItem, value)
		}
		it := item{product: parts[0], quantity: parts[1]}
		if len(parts) == 3 {
			it.price = parts[2]
		}
		items = append(items, it)
	}
	return items, nil
}

// catalog holds the autocomplete sources of one command, cached in ristretto.
type catalog struct {
	products  *form.CachedOptions
	locations *form.CachedOptions
	cache     *cache.RistrettoCache[[]form.Option]
}

func (a *App) newCatalog(inv *inventory.Providers) (*catalog, error) {
	c, err := cache.New[[]form.Option](cache.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("creating option cache: %w", err)
	}
	ttl := a.Config.Options.CacheTTL
	return &catalog{
		products:  form.NewCachedOptions("products", form.FromProvider(inv.Products), c, ttl),
		locations: form.NewCachedOptions("locations", form.FromProvider(inv.Locations), c, ttl),
		cache:     c,
	}, nil
}

func (c *catalog) Close() {
	c.cache.Close()
}

// fill adds one table row per item through the same cell setters an
// interactive form uses, so option auto-fill and quantity caps apply.
func fill(ctx context.Context, f *form.Form, products form.OptionSource, items []item) error {
	for _, it := range items {
		option, found, err := form.Find(ctx, products, "id", it.product)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: %s", ErrUnknownProduct, it.product)
		}

		f.Table.AddRow()
		row := f.Table.Len() - 1
		if _, err := f.Table.SetField(row, "product", option); err != nil {
			return err
		}
		warning, err := f.Table.SetField(row, "quantity", it.quantity)
		if err != nil {
			return err
		}
		if warning != nil {
			invalid := resource.NewValidationError()
			invalid.Add(fmt.Sprintf("%s.%d.%s", inventory.ItemsKey, warning.Row, warning.Field), warning.Message)
			return invalid
		}
		if it.price != "" {
			if _, err := f.Table.SetField(row, "estimated_unit_price", it.price); err != nil {
				return err
			}
		}
	}
	return nil
}

// submit renders the filled form and sends it through the plain or the
// done/approval path.
func (a *App) submit(ctx context.Context, f *form.Form, tenant domain.TenantSchema, entityName string, complete bool) error {
	a.printf("%s\n", f.Render())

	var err error
	if complete {
		err = f.SubmitDone(ctx)
	} else {
		err = f.Submit(ctx)
	}
	if err != nil {
		return a.fail(err)
	}
	a.printf("Saved %s\n", f.Title)
	a.Navigator.Navigate(console.List(tenant, entityName))
	return nil
}

func (a *App) inventorySession(ctx context.Context) (*tenantclient.Client, *inventory.Providers, *catalog, error) {
	client, err := a.Client(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	inv := inventory.NewProviders(client)
	cat, err := a.newCatalog(inv)
	if err != nil {
		return nil, nil, nil, err
	}
	return client, inv, cat, nil
}

func newTransferCmd(a *App) *cobra.Command {
	var (
		from, to, notes string
		rawItems        []string
		done            bool
	)

	create := &cobra.Command{
		Use:   "create",
		Short: "Create an internal transfer",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			items, err := parseItems(rawItems, false)
			if err != nil {
				return a.fail(err)
			}
			client, inv, cat, err := a.inventorySession(ctx)
			if err != nil {
				return a.fail(err)
			}
			defer cat.Close()

			f, err := inventory.NewTransferForm(inv, cat.products, cat.locations, inventory.MultiLocationEnabled(ctx, a.Storage),
				func(state *form.FormState, set func(key string, value any)) {
					set("source_location", from)
					set("destination_location", to)
					if notes != "" {
						set("notes", notes)
					}
				})
			if err != nil {
				return a.fail(err)
			}
			f.RenderBasicInfo()
			if err := fill(ctx, f, cat.products, items); err != nil {
				return a.fail(err)
			}
			return a.submit(ctx, f, client.Tenant(), console.EntityInternalTransfer, done)
		},
	}
	create.Flags().StringVar(&from, "from", "", "Source location id")
	create.Flags().StringVar(&to, "to", "", "Destination location id")
	create.Flags().StringVar(&notes, "notes", "", "Notes")
	create.Flags().StringArrayVar(&rawItems, "item", nil, "Item as product:quantity, repeatable")
	create.Flags().BoolVar(&done, "done", false, "Complete the transfer right away")

	cmd := &cobra.Command{Use: "transfer", Short: "Internal transfers"}
	cmd.AddCommand(create)
	return cmd
}

func newScrapCmd(a *App) *cobra.Command {
	var (
		location, reason string
		rawItems         []string
		done             bool
	)

	create := &cobra.Command{
		Use:   "create",
		Short: "Scrap stock",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			items, err := parseItems(rawItems, false)
			if err != nil {
				return a.fail(err)
			}
			client, inv, cat, err := a.inventorySession(ctx)
			if err != nil {
				return a.fail(err)
			}
			defer cat.Close()

			f, err := inventory.NewScrapForm(inv, cat.products, cat.locations, inventory.MultiLocationEnabled(ctx, a.Storage),
				func(state *form.FormState, set func(key string, value any)) {
					set("location", location)
					set("reason", reason)
				})
			if err != nil {
				return a.fail(err)
			}
			f.RenderBasicInfo()
			if err := fill(ctx, f, cat.products, items); err != nil {
				return a.fail(err)
			}
			return a.submit(ctx, f, client.Tenant(), console.EntityScrap, done)
		},
	}
	create.Flags().StringVar(&location, "location", "", "Location id")
	create.Flags().StringVar(&reason, "reason", "", "Reason")
	create.Flags().StringArrayVar(&rawItems, "item", nil, "Item as product:quantity, repeatable")
	create.Flags().BoolVar(&done, "done", false, "Complete the scrap right away")

	cmd := &cobra.Command{Use: "scrap", Short: "Scraps"}
	cmd.AddCommand(create)
	return cmd
}

func newPurchaseRequestCmd(a *App) *cobra.Command {
	var (
		vendor, expected, notes string
		rawItems                []string
		send                    bool
	)

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a purchase request",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			items, err := parseItems(rawItems, true)
			if err != nil {
				return a.fail(err)
			}
			client, _, cat, err := a.inventorySession(ctx)
			if err != nil {
				return a.fail(err)
			}
			defer cat.Close()

			f, err := purchase.NewRequestForm(purchase.NewProviders(client), cat.products,
				func(state *form.FormState, set func(key string, value any)) {
					set("vendor", vendor)
					set("expected_date", expected)
					if notes != "" {
						set("notes", notes)
					}
				})
			if err != nil {
				return a.fail(err)
			}
			f.RenderBasicInfo()
			if err := fill(ctx, f, cat.products, items); err != nil {
				return a.fail(err)
			}
			return a.submit(ctx, f, client.Tenant(), console.EntityPurchaseRequest, send)
		},
	}
	create.Flags().StringVar(&vendor, "vendor", "", "Vendor id")
	create.Flags().StringVar(&expected, "expected-date", "", "Expected date, YYYY-MM-DD")
	create.Flags().StringVar(&notes, "notes", "", "Notes")
	create.Flags().StringArrayVar(&rawItems, "item", nil, "Item as product:quantity[:unit price], repeatable")
	create.Flags().BoolVar(&send, "send", false, "Send the request for approval right away")

	cmd := &cobra.Command{Use: "purchase-request", Short: "Purchase requests"}
	cmd.AddCommand(create)
	return cmd
}
