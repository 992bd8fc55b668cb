package sandbox_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"

	"opsconsole/internal/infra/httpserver"
	"opsconsole/internal/infra/notification"
	"opsconsole/internal/infra/sql"
	"opsconsole/internal/infra/tenantclient"
	"opsconsole/internal/inventory"
	"opsconsole/internal/purchase"
	"opsconsole/internal/resource"
	"opsconsole/internal/sandbox"
	"opsconsole/internal/shared_kernel/domain"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Controller", func() {
	var (
		ctx    context.Context
		server *httptest.Server
		cfg    tenantclient.Config
		outbox *notification.Outbox
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		orm, err := sql.NewMemoryORM()
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		ginkgo.DeferCleanup(orm.Close)

		outbox = notification.NewOutbox()
		sandboxCfg := sandbox.Config{Secret: "test-secret", Tenants: []string{"acme", "globex"}}
		store, err := sandbox.NewSeededStore(ctx, orm, sandboxCfg)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		server = httptest.NewServer(sandbox.NewServer(store, outbox, sandboxCfg, httpserver.DefaultConfig()).Handler())
		ginkgo.DeferCleanup(server.Close)
		cfg = tenantclient.Config{BaseURLTemplate: server.URL + "/{tenant}/api"}
	})

	anonymous := func(tenant domain.TenantSchema) *tenantclient.Client {
		client, err := tenantclient.NewAnonymous(cfg, tenant)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		return client
	}

	statusOf := func(err error) int {
		var apiErr *tenantclient.APIError
		gomega.Expect(errors.As(err, &apiErr)).To(gomega.BeTrue(), "expected an api error, got %v", err)
		return apiErr.Status
	}

	signIn := func(tenant domain.TenantSchema) *tenantclient.Client {
		var reply struct {
			domain.TokenPair
			Tenant string `json:"tenant_schema_name"`
		}
		body := map[string]string{"email": sandbox.AdminEmail(tenant.String()), "otp": sandbox.DefaultOTP}
		err := anonymous(tenant).Do(ctx, http.MethodPost, "/auth/verify-otp/", nil, body, &reply)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(reply.Tenant).To(gomega.Equal(tenant.String()))

		client, err := tenantclient.New(cfg, tenant, reply.TokenPair)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		return client
	}

	ginkgo.Context("auth", func() {
		ginkgo.It("should accept the seeded credentials", func() {
			body := map[string]string{"email": sandbox.AdminEmail("acme"), "password": sandbox.DefaultPassword}
			gomega.Expect(anonymous("acme").Do(ctx, http.MethodPost, "/auth/login/", nil, body, nil)).To(gomega.Succeed())

			mail, found := outbox.Last(sandbox.AdminEmail("acme"))
			gomega.Expect(found).To(gomega.BeTrue())
			gomega.Expect(mail.Body).To(gomega.ContainSubstring(sandbox.DefaultOTP))
		})

		ginkgo.It("should mail a new code only to known accounts", func() {
			known := map[string]string{"email": sandbox.AdminEmail("acme")}
			unknown := map[string]string{"email": "nobody@acme.test"}
			gomega.Expect(anonymous("acme").Do(ctx, http.MethodPost, "/auth/resend-otp/", nil, known, nil)).To(gomega.Succeed())
			gomega.Expect(anonymous("acme").Do(ctx, http.MethodPost, "/auth/resend-otp/", nil, unknown, nil)).To(gomega.Succeed())

			gomega.Expect(outbox.Sent()).To(gomega.HaveLen(1))
			gomega.Expect(outbox.Sent()[0].To).To(gomega.Equal(sandbox.AdminEmail("acme")))
		})

		ginkgo.It("should reject a wrong password with 401", func() {
			body := map[string]string{"email": sandbox.AdminEmail("acme"), "password": "wrong"}
			err := anonymous("acme").Do(ctx, http.MethodPost, "/auth/login/", nil, body, nil)
			gomega.Expect(statusOf(err)).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(resource.Message(err)).To(gomega.Equal("Invalid credentials."))
		})

		ginkgo.It("should report missing fields by name", func() {
			err := anonymous("acme").Do(ctx, http.MethodPost, "/auth/login/", nil, map[string]string{}, nil)

			var apiErr *tenantclient.APIError
			gomega.Expect(errors.As(err, &apiErr)).To(gomega.BeTrue())
			gomega.Expect(apiErr.Fields).To(gomega.HaveKey("email"))
			gomega.Expect(apiErr.Fields).To(gomega.HaveKey("password"))
		})

		ginkgo.It("should answer a wrong code with 400 Invalid OTP", func() {
			body := map[string]string{"email": sandbox.AdminEmail("acme"), "otp": "000000"}
			err := anonymous("acme").Do(ctx, http.MethodPost, "/auth/verify-otp/", nil, body, nil)
			gomega.Expect(err).To(gomega.MatchError(tenantclient.ErrBadRequest))
			gomega.Expect(resource.Message(err)).To(gomega.Equal("Invalid OTP"))
		})

		ginkgo.It("should answer 404 for an unknown tenant", func() {
			body := map[string]string{"email": "a@b.test", "password": "x"}
			err := anonymous("initech").Do(ctx, http.MethodPost, "/auth/login/", nil, body, nil)
			gomega.Expect(err).To(gomega.MatchError(tenantclient.ErrNotFound))
		})

		ginkgo.It("should rotate tokens on refresh", func() {
			client := signIn("acme")
			before := client.Tokens()

			var rotated domain.TokenPair
			err := anonymous("acme").Do(ctx, http.MethodPost, "/auth/token/refresh/", nil, map[string]string{"refresh": before.Refresh}, &rotated)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(rotated.IsComplete()).To(gomega.BeTrue())
			gomega.Expect(rotated.Access).NotTo(gomega.Equal(before.Access))
		})
	})

	ginkgo.Context("documents", func() {
		ginkgo.It("should require a bearer token", func() {
			err := anonymous("acme").Do(ctx, http.MethodGet, inventory.ProductPath, nil, nil, nil)
			gomega.Expect(err).To(gomega.MatchError(tenantclient.ErrUnauthorized))
		})

		ginkgo.It("should not accept a token of another tenant", func() {
			tokens := signIn("acme").Tokens()
			client, err := tenantclient.New(cfg, "globex", tokens)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			err = client.Do(ctx, http.MethodGet, inventory.ProductPath, nil, nil, nil)
			gomega.Expect(err).To(gomega.MatchError(tenantclient.ErrUnauthorized))
		})

		ginkgo.It("should list and search the seeded products", func() {
			providers := inventory.NewProviders(signIn("acme"))

			all, err := providers.Products.List(ctx, "")
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(all).To(gomega.HaveLen(3))

			found, err := providers.Products.List(ctx, "washer")
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(found).To(gomega.HaveLen(1))
			gomega.Expect(found[0].ID).To(gomega.Equal(domain.ID(sandbox.ProductWasher)))
		})

		ginkgo.It("should page a list and report the total in a header", func() {
			client := signIn("acme")

			var page []map[string]any
			err := client.Do(ctx, http.MethodGet, inventory.ProductPath, url.Values{"limit": {"2"}, "offset": {"1"}}, nil, &page)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(page).To(gomega.HaveLen(2))

			req, err := http.NewRequest(http.MethodGet, server.URL+"/acme/api"+inventory.ProductPath+"?limit=1", nil)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			req.Header.Set("Authorization", "Bearer "+client.Tokens().Access)
			resp, err := http.DefaultClient.Do(req)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			defer resp.Body.Close()
			gomega.Expect(resp.Header.Get("X-Total-Count")).To(gomega.Equal("3"))
		})

		ginkgo.It("should reject a negative page limit", func() {
			err := signIn("acme").Do(ctx, http.MethodGet, inventory.ProductPath, url.Values{"limit": {"-1"}}, nil, nil)
			gomega.Expect(statusOf(err)).To(gomega.Equal(http.StatusBadRequest))
		})

		ginkgo.It("should answer 404 for a missing document", func() {
			providers := inventory.NewProviders(signIn("acme"))
			_, err := providers.Products.Get(ctx, "prd-missing")
			gomega.Expect(err).To(gomega.MatchError(tenantclient.ErrNotFound))
		})

		ginkgo.It("should reject an unknown collection", func() {
			err := signIn("acme").Do(ctx, http.MethodGet, "/payroll/", url.Values{}, nil, nil)
			gomega.Expect(err).To(gomega.MatchError(tenantclient.ErrNotFound))
		})

		ginkgo.It("should merge a patch and replace on put", func() {
			client := signIn("acme")
			var patched inventory.Location
			err := client.Do(ctx, http.MethodPatch, inventory.LocationPath+sandbox.LocationAnnex+"/", nil, map[string]any{"code": "AX2"}, &patched)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(patched.Name).To(gomega.Equal("Annex"))
			gomega.Expect(patched.Code).To(gomega.Equal("AX2"))

			var replaced inventory.Location
			err = client.Do(ctx, http.MethodPut, inventory.LocationPath+sandbox.LocationAnnex+"/", nil, map[string]any{"name": "Annex B"}, &replaced)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(replaced.Code).To(gomega.BeEmpty())
			gomega.Expect(replaced.ID).To(gomega.Equal(domain.ID(sandbox.LocationAnnex)))
		})

		ginkgo.It("should delete a document", func() {
			client := signIn("acme")
			gomega.Expect(client.Do(ctx, http.MethodDelete, purchase.VendorPath+sandbox.VendorSupplies+"/", nil, nil, nil)).To(gomega.Succeed())

			err := client.Do(ctx, http.MethodGet, purchase.VendorPath+sandbox.VendorSupplies+"/", nil, nil, nil)
			gomega.Expect(err).To(gomega.MatchError(tenantclient.ErrNotFound))
		})
	})

	ginkgo.Context("inventory workflow", func() {
		var client *tenantclient.Client

		ginkgo.BeforeEach(func() {
			client = signIn("acme")
		})

		transfer := func(product domain.ID, quantity float64) map[string]any {
			return map[string]any{
				"source_location":      sandbox.LocationMain,
				"destination_location": sandbox.LocationAnnex,
				"items":                []map[string]any{{"product": product, "quantity": quantity}},
			}
		}

		ginkgo.It("should report the same location as a field error", func() {
			body := transfer(sandbox.ProductBolt, 1)
			body["destination_location"] = sandbox.LocationMain

			err := client.Do(ctx, http.MethodPost, inventory.InternalTransferPath, nil, body, nil)

			var apiErr *tenantclient.APIError
			gomega.Expect(errors.As(err, &apiErr)).To(gomega.BeTrue())
			gomega.Expect(apiErr.Fields["destination_location"]).To(gomega.ConsistOf(inventory.SameLocationMessage))
		})

		ginkgo.It("should create transfers as drafts and complete them with stock moves", func() {
			var created inventory.InternalTransfer
			gomega.Expect(client.Do(ctx, http.MethodPost, inventory.InternalTransferPath, nil, transfer(sandbox.ProductBolt, 10), &created)).To(gomega.Succeed())
			gomega.Expect(created.Status).To(gomega.Equal(inventory.StatusDraft))

			providers := inventory.NewProviders(client)
			done, err := providers.Transfers.Action(ctx, created.ID, inventory.ActionDone)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(done.Status).To(gomega.Equal(inventory.StatusDone))

			moves, err := providers.StockMoves.List(ctx, "")
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(moves).To(gomega.HaveLen(1))
			gomega.Expect(moves[0].Quantity).To(gomega.Equal(10.0))
			gomega.Expect(moves[0].DestinationLocation).To(gomega.Equal(domain.ID(sandbox.LocationAnnex)))
		})

		ginkgo.It("should refuse to complete a transfer twice", func() {
			var created inventory.InternalTransfer
			gomega.Expect(client.Do(ctx, http.MethodPost, inventory.InternalTransferPath, nil, transfer(sandbox.ProductBolt, 1), &created)).To(gomega.Succeed())

			providers := inventory.NewProviders(client)
			_, err := providers.Transfers.Action(ctx, created.ID, inventory.ActionDone)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			_, err = providers.Transfers.Action(ctx, created.ID, inventory.ActionDone)
			gomega.Expect(err).To(gomega.MatchError(tenantclient.ErrBadRequest))
			gomega.Expect(resource.Message(err)).To(gomega.ContainSubstring("status done"))
		})

		ginkgo.It("should answer a shortage with 409 and leave the transfer open", func() {
			var created inventory.InternalTransfer
			gomega.Expect(client.Do(ctx, http.MethodPost, inventory.InternalTransferPath, nil, transfer(sandbox.ProductNut, 80), &created)).To(gomega.Succeed())

			providers := inventory.NewProviders(client)
			_, err := providers.Transfers.Action(ctx, created.ID, inventory.ActionDone)
			gomega.Expect(err).To(gomega.MatchError(tenantclient.ErrConflict))

			var apiErr *tenantclient.APIError
			gomega.Expect(errors.As(err, &apiErr)).To(gomega.BeTrue())
			gomega.Expect(apiErr.Conflicts).To(gomega.HaveLen(1))
			gomega.Expect(apiErr.Conflicts[0]).To(gomega.HaveKeyWithValue("product_name", "Nut M8"))
			gomega.Expect(apiErr.Conflicts[0]).To(gomega.HaveKeyWithValue("requested", 80.0))
			gomega.Expect(apiErr.Conflicts[0]).To(gomega.HaveKeyWithValue("available", 50.0))

			current, err := providers.Transfers.Get(ctx, created.ID)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(current.Status).To(gomega.Equal(inventory.StatusDraft))
		})

		ginkgo.It("should take scrapped quantities out of stock", func() {
			providers := inventory.NewProviders(client)
			created, err := providers.Scraps.Create(ctx, inventory.Scrap{
				Location: sandbox.LocationMain,
				Reason:   "damaged",
				Items:    []inventory.MoveItem{{Product: sandbox.ProductBolt, Quantity: 4}},
			})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			_, err = providers.Scraps.Action(ctx, created.ID, inventory.ActionDone)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			bolt, err := providers.Products.Get(ctx, sandbox.ProductBolt)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(bolt.AvailableQuantity).To(gomega.Equal(96.0))
		})
	})

	ginkgo.Context("purchase workflow", func() {
		var providers *purchase.Providers

		ginkgo.BeforeEach(func() {
			providers = purchase.NewProviders(signIn("acme"))
		})

		draft := func() purchase.PurchaseRequest {
			created, err := providers.Requests.Create(ctx, purchase.PurchaseRequest{
				Vendor:       sandbox.VendorSupplies,
				ExpectedDate: "2026-04-01",
				Items:        []purchase.RequestItem{{Product: sandbox.ProductBolt, Quantity: 5, EstimatedUnitPrice: 2}},
			})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(created.Status).To(gomega.Equal(purchase.StatusDraft))
			return created
		}

		ginkgo.It("should go through approval", func() {
			request := draft()

			pending, err := providers.SendForApproval(ctx, request.ID)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(pending.Status).To(gomega.Equal(purchase.StatusPendingApproval))

			approved, err := providers.Approve(ctx, request.ID)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(approved.Status).To(gomega.Equal(purchase.StatusApproved))
		})

		ginkgo.It("should not approve a draft", func() {
			request := draft()

			_, err := providers.Approve(ctx, request.ID)
			gomega.Expect(err).To(gomega.MatchError(tenantclient.ErrBadRequest))
		})

		ginkgo.It("should answer 404 for an unknown action", func() {
			request := draft()

			_, err := providers.Requests.Action(ctx, request.ID, "archive")
			gomega.Expect(err).To(gomega.MatchError(tenantclient.ErrNotFound))
		})
	})
})
