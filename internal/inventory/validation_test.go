package inventory_test

import (
	"errors"

	"opsconsole/internal/inventory"
	"opsconsole/internal/resource"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func fieldsOf(err error) map[string]string {
	var validationErr *resource.ValidationError
	Expect(errors.As(err, &validationErr)).To(BeTrue())
	return validationErr.Fields
}

var _ = Describe("ValidateInternalTransfer", func() {
	valid := func() inventory.InternalTransfer {
		return inventory.InternalTransfer{
			SourceLocation:      "loc-a",
			DestinationLocation: "loc-b",
			Items:               []inventory.MoveItem{{Product: "p1", Quantity: 2}},
		}
	}

	It("should accept a complete transfer", func() {
		Expect(inventory.ValidateInternalTransfer(valid())).To(Succeed())
	})

	It("should reject identical source and destination", func() {
		transfer := valid()
		transfer.DestinationLocation = "loc-a"

		fields := fieldsOf(inventory.ValidateInternalTransfer(transfer))

		Expect(fields).To(HaveKeyWithValue("destination_location", ContainSubstring("cannot be the same")))
	})

	It("should require both locations", func() {
		fields := fieldsOf(inventory.ValidateInternalTransfer(inventory.InternalTransfer{
			Items: []inventory.MoveItem{{Product: "p1", Quantity: 1}},
		}))

		Expect(fields).To(HaveKeyWithValue("source_location", "Source location is required"))
		Expect(fields).To(HaveKeyWithValue("destination_location", "Destination location is required"))
	})

	It("should require at least one item", func() {
		transfer := valid()
		transfer.Items = nil

		Expect(fieldsOf(inventory.ValidateInternalTransfer(transfer))).To(HaveKeyWithValue("items", "Add at least one item"))
	})

	It("should require a product and a positive quantity on every item", func() {
		transfer := valid()
		transfer.Items = append(transfer.Items, inventory.MoveItem{Quantity: 0})

		fields := fieldsOf(inventory.ValidateInternalTransfer(transfer))

		Expect(fields).To(HaveKeyWithValue("items.1.product", "Product is required"))
		Expect(fields).To(HaveKeyWithValue("items.1.quantity", "Quantity must be greater than zero"))
	})

	It("should reject identical per-item locations", func() {
		transfer := valid()
		transfer.Items[0].SourceLocation = "bin-1"
		transfer.Items[0].DestinationLocation = "bin-1"

		Expect(fieldsOf(inventory.ValidateInternalTransfer(transfer))).To(HaveKey("items.0.destination_location"))
	})
})

var _ = Describe("ValidateScrap", func() {
	It("should require a location, a reason and items", func() {
		fields := fieldsOf(inventory.ValidateScrap(inventory.Scrap{}))

		Expect(fields).To(HaveKeyWithValue("location", "Location is required"))
		Expect(fields).To(HaveKeyWithValue("reason", "Reason is required"))
		Expect(fields).To(HaveKeyWithValue("items", "Add at least one item"))
	})

	It("should accept a complete scrap", func() {
		Expect(inventory.ValidateScrap(inventory.Scrap{
			Location: "loc-a",
			Reason:   "Damaged",
			Items:    []inventory.MoveItem{{Product: "p1", Quantity: 1}},
		})).To(Succeed())
	})
})
