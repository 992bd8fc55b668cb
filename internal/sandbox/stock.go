package sandbox

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"opsconsole/internal/inventory"
	"opsconsole/internal/shared_kernel/domain"
)

// Shortage is one conflict line of a rejected done action.
type Shortage struct {
	Product     domain.ID `json:"product"`
	ProductName string    `json:"product_name"`
	Requested   float64   `json:"requested"`
	Available   float64   `json:"available"`
	Message     string    `json:"message"`
}

type move struct {
	Location       domain.ID            `json:"location"`
	SourceLocation domain.ID            `json:"source_location"`
	Destination    domain.ID            `json:"destination_location"`
	Reference      string               `json:"reference"`
	Items          []inventory.MoveItem `json:"items"`
}

func convert[T any](doc Document) (T, error) {
	var out T
	raw, err := json.Marshal(doc)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(raw, &out)
	return out, err
}

// shortages compares the requested quantities per product with the stock.
func (s *Store) shortages(ctx context.Context, tenant string, m move) ([]Shortage, error) {
	var order []domain.ID
	requested := map[domain.ID]float64{}
	for _, item := range m.Items {
		if _, seen := requested[item.Product]; !seen {
			order = append(order, item.Product)
		}
		requested[item.Product] += item.Quantity
	}

	var out []Shortage
	for _, id := range order {
		doc, err := s.Get(ctx, tenant, products, id.String())
		if err != nil {
			return nil, fmt.Errorf("loading product %s: %w", id, err)
		}
		product, err := convert[inventory.Product](doc)
		if err != nil {
			return nil, fmt.Errorf("decoding product %s: %w", id, err)
		}
		if requested[id] <= product.AvailableQuantity {
			continue
		}
		out = append(out, Shortage{
			Product:     id,
			ProductName: product.Name,
			Requested:   requested[id],
			Available:   product.AvailableQuantity,
			Message:     fmt.Sprintf("Only %s of %s available", formatQuantity(product.AvailableQuantity), product.Name),
		})
	}
	return out, nil
}

// complete writes the stock moves of a done transfer or scrap. Scraps also
// take the quantities out of stock.
func (s *Store) complete(ctx context.Context, tenant, coll string, m move, now time.Time) error {
	for _, item := range m.Items {
		source := firstID(item.SourceLocation, m.SourceLocation, m.Location)
		destination := firstID(item.DestinationLocation, m.Destination)
		if coll == scraps {
			destination = ""
		}

		line := Document{
			"reference":            m.Reference,
			"product":              item.Product.String(),
			"quantity":             item.Quantity,
			"source_location":      source.String(),
			"destination_location": destination.String(),
			"date":                 now.UTC().Format(time.RFC3339),
		}
		if _, err := s.Put(ctx, tenant, stockMoves, line); err != nil {
			return fmt.Errorf("writing stock move: %w", err)
		}

		if coll != scraps {
			continue
		}
		product, err := s.Get(ctx, tenant, products, item.Product.String())
		if err != nil {
			return fmt.Errorf("loading product %s: %w", item.Product, err)
		}
		available, _ := product["available_quantity"].(float64)
		product["available_quantity"] = available - item.Quantity
		if _, err := s.Put(ctx, tenant, products, product); err != nil {
			return fmt.Errorf("updating product %s: %w", item.Product, err)
		}
	}
	return nil
}

func firstID(ids ...domain.ID) domain.ID {
	for _, id := range ids {
		if id != "" {
			return id
		}
	}
	return ""
}

func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
