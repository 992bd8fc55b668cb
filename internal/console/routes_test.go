package console_test

import (
	"bytes"

	"opsconsole/internal/console"
	"opsconsole/internal/shared_kernel/domain"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Routes", func() {
	It("should scope every route by tenant", func() {
		Expect(console.Login("acme")).To(Equal("/acme/login"))
		Expect(console.Dashboard("acme")).To(Equal("/acme/dashboard"))
		Expect(console.List("acme", console.EntityInternalTransfer)).To(Equal("/acme/inventory/internal-transfer"))
		Expect(console.Detail("acme", console.EntityUser, domain.ID("42"))).To(Equal("/acme/users/42"))
		Expect(console.Create("acme", console.EntityScrap)).To(Equal("/acme/inventory/scrap/new"))
	})

	It("should fall back to the login entry without a tenant", func() {
		Expect(console.Login("")).To(Equal(console.LoginEntry))
	})

	It("should read the tenant back from a route", func() {
		tenant, ok := console.TenantOf("/acme/dashboard")
		Expect(ok).To(BeTrue())
		Expect(tenant).To(Equal(domain.TenantSchema("acme")))

		_, ok = console.TenantOf(console.LoginEntry)
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Navigators", func() {
	It("should keep the route history", func() {
		history := &console.History{}
		Expect(history.Current()).To(BeEmpty())

		history.Navigate("/acme/login")
		history.Navigate("/acme/dashboard")

		Expect(history.Routes()).To(Equal([]string{"/acme/login", "/acme/dashboard"}))
		Expect(history.Current()).To(Equal("/acme/dashboard"))
	})

	It("should print the target route", func() {
		var out bytes.Buffer
		console.NewPrinter(&out).Navigate("/acme/dashboard")

		Expect(out.String()).To(ContainSubstring("/acme/dashboard"))
	})
})
