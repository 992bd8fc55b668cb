package console_test

import (
	"context"
	"errors"
	"fmt"

	"opsconsole/internal/console"
	"opsconsole/internal/infra/tenantclient"
	"opsconsole/internal/resource"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Describe", func() {
	It("should present nothing for a nil error", func() {
		Expect(console.Describe(nil).IsZero()).To(BeTrue())
		Expect(console.Describe(nil).Render()).To(BeEmpty())
	})

	It("should list the fields of a validation error", func() {
		verr := resource.NewValidationError()
		verr.Add("destination_location", "Source and destination locations cannot be the same")

		p := console.Describe(fmt.Errorf("creating transfer: %w", verr))

		Expect(p.Title).To(Equal(console.TitleValidation))
		Expect(p.Fields).To(HaveKeyWithValue("destination_location", "Source and destination locations cannot be the same"))
		Expect(p.Render()).To(ContainSubstring("cannot be the same"))
	})

	It("should turn an array of conflicts into a shortage table", func() {
		err := &tenantclient.APIError{
			Status: 409,
			Detail: "Insufficient stock for 2 products",
			Conflicts: []map[string]any{
				{"product_name": "Bolt", "requested": 10.0, "available": 4.0, "message": "Only 4 available"},
				{"product": "Nut", "requested_quantity": "3", "available_quantity": "0"},
			},
		}

		p := console.Describe(err)

		Expect(p.Title).To(Equal(console.TitleShortage))
		Expect(p.Shortages).To(Equal([]console.Shortage{
			{Product: "Bolt", Requested: "10", Available: "4", Message: "Only 4 available"},
			{Product: "Nut", Requested: "3", Available: "0"},
		}))
		rendered := p.Render()
		Expect(rendered).To(ContainSubstring("Bolt"))
		Expect(rendered).To(ContainSubstring("Only 4 available"))
	})

	It("should keep server field messages", func() {
		err := &tenantclient.APIError{
			Status: 400,
			Detail: "email: Enter a valid email address.",
			Fields: map[string][]string{"email": {"Enter a valid email address."}},
		}

		p := console.Describe(err)

		Expect(p.Title).To(Equal(console.TitleRejected))
		Expect(p.Fields).To(HaveKeyWithValue("email", "Enter a valid email address."))
	})

	DescribeTable("should title api errors by status",
		func(status int, title string) {
			p := console.Describe(&tenantclient.APIError{Status: status, Detail: "detail"})
			Expect(p.Title).To(Equal(title))
			Expect(p.Message).To(Equal("detail"))
		},
		Entry("unauthorized", 401, console.TitleUnauthorized),
		Entry("forbidden", 403, console.TitleForbidden),
		Entry("not found", 404, console.TitleNotFound),
		Entry("server", 502, console.TitleServer),
		Entry("other client error", 422, console.TitleRejected),
	)

	It("should present network failures", func() {
		err := &tenantclient.NetworkError{Method: "GET", URL: "http://x", Err: errors.New("connection refused")}

		Expect(console.Describe(err).Title).To(Equal(console.TitleNetwork))
		Expect(console.Describe(context.DeadlineExceeded).Title).To(Equal(console.TitleNetwork))
	})

	It("should ask to sign in when no client is ready", func() {
		Expect(console.Describe(tenantclient.ErrNotReady).Title).To(Equal(console.TitleNotSignedIn))
	})

	It("should fall back to a generic message", func() {
		p := console.Describe(errors.New("boom"))

		Expect(p.Title).To(Equal(console.TitleUnexpected))
		Expect(p.Message).To(Equal("Something went wrong. Please try again."))
	})
})
