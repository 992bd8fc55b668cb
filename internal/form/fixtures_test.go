package form_test

import (
	"opsconsole/internal/form"
)

type transferLine struct {
	Product           string  `json:"product"`
	UOM               string  `json:"uom"`
	Description       string  `json:"description"`
	AvailableQuantity float64 `json:"available_quantity"`
	Quantity          float64 `json:"quantity"`
	Note              string  `json:"note"`
}

var products = form.StaticOptions{
	{"id": "p1", "name": "Bolt M8", "uom": "pcs", "description": "Zinc bolt", "available_quantity": 12.0},
	{"id": "p2", "name": "Hex Nut", "uom": "pcs", "description": "Steel nut", "available_quantity": "3"},
}

func transferConfig() form.RowConfig {
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
		{Label: "Note", Key: "note", Kind: form.KindText},
	}
}
