package inventory

import (
	"fmt"

	"opsconsole/internal/resource"
)

const SameLocationMessage = "Source and destination locations cannot be the same"

var itemMessages = map[string]string{
	"items.required":           "Add at least one item",
	"items.min":                "Add at least one item",
	"items.*.product.required": "Product is required",
	"items.*.quantity.gt":      "Quantity must be greater than zero",
}

var transferMessages = merge(itemMessages, map[string]string{
	"source_location.required":      "Source location is required",
	"destination_location.required": "Destination location is required",
})

var scrapMessages = merge(itemMessages, map[string]string{
	"location.required": "Location is required",
	"reason.required":   "Reason is required",
})

func ValidateInternalTransfer(t InternalTransfer) error {
	result := resource.Validate(t, transferMessages)
	if t.SourceLocation != "" && t.SourceLocation == t.DestinationLocation {
		result.Add("destination_location", SameLocationMessage)
	}
	for i, item := range t.Items {
		if item.SourceLocation != "" && item.SourceLocation == item.DestinationLocation {
			result.Add(fmt.Sprintf("items.%d.destination_location", i), SameLocationMessage)
		}
	}
	return result.OrNil()
}

func ValidateScrap(s Scrap) error {
	return resource.Validate(s, scrapMessages).OrNil()
}

func merge(base, extra map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
