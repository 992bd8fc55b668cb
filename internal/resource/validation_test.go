package resource_test

import (
	"opsconsole/internal/resource"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type line struct {
	Product  string  `json:"product" validate:"required"`
	Quantity float64 `json:"quantity" validate:"gt=0"`
}

type order struct {
	Vendor string `json:"vendor" validate:"required"`
	Email  string `json:"email" validate:"omitempty,email"`
	Lines  []line `json:"items" validate:"min=1,dive"`
}

var _ = Describe("Validate", func() {
	messages := map[string]string{
		"vendor.required":          "Vendor is required",
		"email.email":              "Enter a valid email",
		"items.min":                "Add at least one item",
		"items.*.product.required": "Product is required",
		"items.*.quantity.gt":      "Quantity must be greater than zero",
	}

	It("should pass a valid struct", func() {
		result := resource.Validate(order{Vendor: "ACME", Lines: []line{{Product: "1", Quantity: 2}}}, messages)
		Expect(result.OrNil()).To(Succeed())
	})

	It("should report top level fields by json name", func() {
		result := resource.Validate(order{Email: "nope", Lines: []line{{Product: "1", Quantity: 1}}}, messages)

		Expect(result.Fields).To(HaveKeyWithValue("vendor", "Vendor is required"))
		Expect(result.Fields).To(HaveKeyWithValue("email", "Enter a valid email"))
	})

	It("should report element fields under their index", func() {
		result := resource.Validate(order{Vendor: "ACME", Lines: []line{{Product: "1", Quantity: 1}, {Quantity: -1}}}, messages)

		Expect(result.Fields).To(HaveKeyWithValue("items.1.product", "Product is required"))
		Expect(result.Fields).To(HaveKeyWithValue("items.1.quantity", "Quantity must be greater than zero"))
		Expect(result.Fields).NotTo(HaveKey("items.0.quantity"))
	})

	It("should require at least one element", func() {
		result := resource.Validate(order{Vendor: "ACME"}, messages)
		Expect(result.Fields).To(HaveKeyWithValue("items", "Add at least one item"))
	})
})
