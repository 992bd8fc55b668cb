package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"opsconsole/internal/access"
	"opsconsole/internal/console"
	"opsconsole/internal/form"
	"opsconsole/internal/infra/tenantclient"
	"opsconsole/internal/inventory"
	"opsconsole/internal/purchase"
	"opsconsole/internal/resource"
	"opsconsole/internal/shared_kernel/domain"
)

var ErrUnknownEntity = errors.New("unknown entity")

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// entity adapts one typed provider to the generic list/get/delete/action
// commands. Records are handled in their JSON form.
type entity struct {
	columns []string
	list    func(ctx context.Context, search string) ([]form.Option, error)
	get     func(ctx context.Context, id domain.ID) (form.Option, error)
	remove  func(ctx context.Context, id domain.ID) error
	action  func(ctx context.Context, id domain.ID, action string) (form.Option, error)
}

func newEntity[T domain.Resource](provider *resource.Provider[T], columns ...string) entity {
	one := func(item T) (form.Option, error) {
		options, err := form.ToOptions([]T{item})
		if err != nil {
			return nil, err
		}
		return options[0], nil
	}

	return entity{
		columns: columns,
		list: func(ctx context.Context, search string) ([]form.Option, error) {
			items, err := provider.List(ctx, search)
			if err != nil {
				return nil, err
			}
			return form.ToOptions(items)
		},
		get: func(ctx context.Context, id domain.ID) (form.Option, error) {
			item, err := provider.Get(ctx, id)
			if err != nil {
				return nil, err
			}
			return one(item)
		},
		remove: provider.Delete,
		action: func(ctx context.Context, id domain.ID, action string) (form.Option, error) {
			item, err := provider.Action(ctx, id, action)
			if err != nil {
				return nil, err
			}
			return one(item)
		},
	}
}

func entities(requester tenantclient.Requester) map[string]entity {
	inv := inventory.NewProviders(requester)
	pur := purchase.NewProviders(requester)
	acc := access.NewProviders(requester)

	return map[string]entity{
		console.EntityProduct:          newEntity(inv.Products, "id", "name", "sku", "uom", "available_quantity"),
		console.EntityLocation:         newEntity(inv.Locations, "id", "name", "code"),
		console.EntityInternalTransfer: newEntity(inv.Transfers, "id", "reference", "source_location", "destination_location", "status"),
		console.EntityScrap:            newEntity(inv.Scraps, "id", "reference", "location", "reason", "status"),
		console.EntityStockMove:        newEntity(inv.StockMoves, "id", "product", "quantity", "source_location", "destination_location", "date"),
		console.EntityPurchaseRequest:  newEntity(pur.Requests, "id", "reference", "vendor", "expected_date", "status"),
		console.EntityVendor:           newEntity(pur.Vendors, "id", "name", "email"),
		console.EntityUser:             newEntity(acc.Users, "id", "email", "first_name", "last_name", "role"),
		console.EntityRole:             newEntity(acc.Roles, "id", "name", "permissions"),
	}
}

func entityNames() []string {
	names := make([]string, 0, 9)
	for name := range entities(nil) {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// lookup resolves the entity argument and the signed-in tenant.
func (a *App) lookup(ctx context.Context, name string) (entity, domain.TenantSchema, error) {
	client, err := a.Client(ctx)
	if err != nil {
		return entity{}, "", err
	}
	found, ok := entities(client)[strings.Trim(name, "/")]
	if !ok {
		return entity{}, "", fmt.Errorf("%w: %s (one of %s)", ErrUnknownEntity, name, strings.Join(entityNames(), ", "))
	}
	return found, client.Tenant(), nil
}

func newListCmd(a *App) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:       "list <entity>",
		Short:     "List records of an entity",
		Args:      cobra.ExactArgs(1),
		ValidArgs: entityNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, tenant, err := a.lookup(cmd.Context(), args[0])
			if err != nil {
				return a.fail(err)
			}
			a.Navigator.Navigate(console.List(tenant, args[0]))

			records, err := e.list(cmd.Context(), search)
			if err != nil {
				return a.fail(err)
			}
			a.printf("%s\n", renderRecords(e.columns, records))
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Server side search term")
	return cmd
}

func newGetCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get <entity> <id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, tenant, err := a.lookup(cmd.Context(), args[0])
			if err != nil {
				return a.fail(err)
			}
			id := domain.ID(args[1])
			a.Navigator.Navigate(console.Detail(tenant, args[0], id))

			record, err := e.get(cmd.Context(), id)
			if err != nil {
				return a.fail(err)
			}
			a.printf("%s\n", renderRecord(record))
			return nil
		},
	}
}

func newDeleteCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <entity> <id>",
		Short: "Delete one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, tenant, err := a.lookup(cmd.Context(), args[0])
			if err != nil {
				return a.fail(err)
			}
			if err := e.remove(cmd.Context(), domain.ID(args[1])); err != nil {
				return a.fail(err)
			}
			a.printf("Deleted %s\n", args[1])
			a.Navigator.Navigate(console.List(tenant, args[0]))
			return nil
		},
	}
}

func newActionCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "action <entity> <id> <action>",
		Short: "Run a workflow action such as done, send-for-approval or approve",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, tenant, err := a.lookup(cmd.Context(), args[0])
			if err != nil {
				return a.fail(err)
			}
			id := domain.ID(args[1])
			record, err := e.action(cmd.Context(), id, args[2])
			if err != nil {
				return a.fail(err)
			}
			a.printf("%s\n", renderRecord(record))
			a.Navigator.Navigate(console.Detail(tenant, args[0], id))
			return nil
		},
	}
}

func renderRecords(columns []string, records []form.Option) string {
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		row := make([]string, 0, len(columns))
		for _, column := range columns {
			row = append(row, record.String(column))
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return "No records."
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(columns...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == 0 {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}

func renderRecord(record form.Option) string {
	keys := make([]string, 0, len(record))
	for key := range record {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{key, record.String(key)})
	}
	return table.New().
		Border(lipgloss.HiddenBorder()).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}
