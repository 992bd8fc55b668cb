package resource_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sync"

	"opsconsole/internal/infra/tenantclient"
	"opsconsole/internal/resource"
	"opsconsole/internal/shared_kernel/domain"
	mocktenantclient "opsconsole/test/unit/doubles/infra/tenantclient"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

type part struct {
	ID     domain.ID `json:"id"`
	Name   string    `json:"name"`
	Status string    `json:"status,omitempty"`
	Count  int       `json:"count"`
}

func (p part) ResourceID() domain.ID { return p.ID }

func requirePartName(p part) error {
	v := resource.NewValidationError()
	if p.Name == "" {
		v.Add("name", "Name is required")
	}
	return v.OrNil()
}

// reply fills out with the JSON encoding of value, the way the tenant client decodes a body.
func reply(value any) func(context.Context, string, string, url.Values, any, any) error {
	return func(_ context.Context, _, _ string, _ url.Values, _, out any) error {
		if out == nil {
			return nil
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, out)
	}
}

var _ = ginkgo.Describe("Provider", func() {
	var (
		ctrl      *gomock.Controller
		requester *mocktenantclient.MockRequester
		provider  *resource.Provider[part]
		ctx       context.Context
	)

	ginkgo.BeforeEach(func() {
		ctrl = gomock.NewController(ginkgo.GinkgoT())
		requester = mocktenantclient.NewMockRequester(ctrl)
		provider = resource.NewProvider[part](requester, "/inventory/part", resource.WithValidator(requirePartName))
		ctx = context.Background()
	})

	ginkgo.AfterEach(func() {
		ctrl.Finish()
	})

	seed := func(items ...part) {
		requester.EXPECT().
			Do(gomock.Any(), http.MethodGet, "/inventory/part/", gomock.Nil(), nil, gomock.Any()).
			DoAndReturn(reply(items))
		_, err := provider.List(ctx, "")
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
	}

	ginkgo.Context("List", func() {
		ginkgo.It("should replace the list verbatim in server order", func() {
			seed(part{ID: "2", Name: "Nut"}, part{ID: "1", Name: "Bolt"})

			state := provider.Snapshot()
			gomega.Expect(state.List).To(gomega.Equal([]part{{ID: "2", Name: "Nut"}, {ID: "1", Name: "Bolt"}}))
			gomega.Expect(state.IsLoading).To(gomega.BeFalse())
			gomega.Expect(state.Error).To(gomega.BeEmpty())
		})

		ginkgo.It("should pass the search term as a query parameter", func() {
			requester.EXPECT().
				Do(gomock.Any(), http.MethodGet, "/inventory/part/", url.Values{"search": {"bolt"}}, nil, gomock.Any()).
				DoAndReturn(reply([]part{{ID: "1", Name: "Bolt"}}))

			items, err := provider.List(ctx, "bolt")

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(items).To(gomega.HaveLen(1))
		})

		ginkgo.It("should keep the previous list and store the error on failure", func() {
			seed(part{ID: "1", Name: "Bolt"})
			requester.EXPECT().
				Do(gomock.Any(), http.MethodGet, "/inventory/part/", gomock.Any(), nil, gomock.Any()).
				Return(&tenantclient.APIError{Status: http.StatusForbidden, Detail: "You do not have permission."})

			_, err := provider.List(ctx, "")

			gomega.Expect(err).To(gomega.HaveOccurred())
			state := provider.Snapshot()
			gomega.Expect(state.List).To(gomega.HaveLen(1))
			gomega.Expect(state.Error).To(gomega.Equal("You do not have permission."))
			gomega.Expect(state.IsLoading).To(gomega.BeFalse())
		})
	})

	ginkgo.Context("Get", func() {
		ginkgo.It("should set the single record", func() {
			requester.EXPECT().
				Do(gomock.Any(), http.MethodGet, "/inventory/part/7/", gomock.Nil(), nil, gomock.Any()).
				DoAndReturn(reply(part{ID: "7", Name: "Washer"}))

			item, err := provider.Get(ctx, "7")

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(item.Name).To(gomega.Equal("Washer"))
			gomega.Expect(provider.Snapshot().Single).To(gomega.Equal(&part{ID: "7", Name: "Washer"}))
		})

		ginkgo.It("should report a missing record as not found", func() {
			requester.EXPECT().
				Do(gomock.Any(), http.MethodGet, "/inventory/part/404/", gomock.Nil(), nil, gomock.Any()).
				Return(&tenantclient.APIError{Status: http.StatusNotFound, Detail: "Not found."})

			_, err := provider.Get(ctx, "404")

			gomega.Expect(errors.Is(err, resource.ErrNotFound)).To(gomega.BeTrue())
			gomega.Expect(provider.Snapshot().Single).To(gomega.BeNil())
		})
	})

	ginkgo.Context("Create", func() {
		ginkgo.It("should reject an invalid payload without any request", func() {
			_, err := provider.Create(ctx, part{})

			var validationErr *resource.ValidationError
			gomega.Expect(errors.As(err, &validationErr)).To(gomega.BeTrue())
			gomega.Expect(validationErr.Fields).To(gomega.HaveKeyWithValue("name", "Name is required"))
			gomega.Expect(provider.Snapshot().IsLoading).To(gomega.BeFalse())
		})

		ginkgo.It("should append the server record and clear the error", func() {
			requester.EXPECT().
				Do(gomock.Any(), http.MethodGet, "/inventory/part/", gomock.Any(), nil, gomock.Any()).
				Return(&tenantclient.NetworkError{Method: http.MethodGet, Err: errors.New("refused")})
			_, _ = provider.List(ctx, "")
			gomega.Expect(provider.Snapshot().Error).NotTo(gomega.BeEmpty())

			requester.EXPECT().
				Do(gomock.Any(), http.MethodPost, "/inventory/part/", gomock.Nil(), part{Name: "Bolt"}, gomock.Any()).
				DoAndReturn(reply(part{ID: "9", Name: "Bolt"}))

			created, err := provider.Create(ctx, part{Name: "Bolt"})

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(created.ID).To(gomega.Equal(domain.ID("9")))
			state := provider.Snapshot()
			gomega.Expect(state.List).To(gomega.ContainElement(part{ID: "9", Name: "Bolt"}))
			gomega.Expect(state.Error).To(gomega.BeEmpty())
		})
	})

	ginkgo.Context("Update", func() {
		ginkgo.BeforeEach(func() {
			seed(part{ID: "1", Name: "Bolt"}, part{ID: "2", Name: "Nut"})
		})

		ginkgo.It("should replace the matching entry and the single record", func() {
			requester.EXPECT().
				Do(gomock.Any(), http.MethodPatch, "/inventory/part/2/", gomock.Nil(), resource.Fields{"id": "2", "name": "Hex nut"}, gomock.Any()).
				DoAndReturn(reply(part{ID: "2", Name: "Hex nut"}))

			_, err := provider.Update(ctx, "2", part{ID: "2", Name: "Hex nut"}, resource.MethodPatch)

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			state := provider.Snapshot()
			gomega.Expect(state.List).To(gomega.Equal([]part{{ID: "1", Name: "Bolt"}, {ID: "2", Name: "Hex nut"}}))
			gomega.Expect(state.Single.Name).To(gomega.Equal("Hex nut"))
		})

		ginkgo.It("should send a full put body including zero values", func() {
			requester.EXPECT().
				Do(gomock.Any(), http.MethodPut, "/inventory/part/2/", gomock.Nil(), part{ID: "2", Name: "Nut"}, gomock.Any()).
				DoAndReturn(reply(part{ID: "2", Name: "Nut"}))

			_, err := provider.Update(ctx, "2", part{ID: "2", Name: "Nut"}, resource.MethodPut)

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
		})

		ginkgo.It("should reject unsupported methods", func() {
			_, err := provider.Update(ctx, "2", part{ID: "2", Name: "Nut"}, resource.Method(http.MethodPost))
			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})

	ginkgo.Context("Patch", func() {
		ginkgo.BeforeEach(func() {
			seed(part{ID: "2", Name: "Nut", Count: 5})
		})

		ginkgo.It("should send only the given keys and skip rules on absent fields", func() {
			requester.EXPECT().
				Do(gomock.Any(), http.MethodPatch, "/inventory/part/2/", gomock.Nil(), resource.Fields{"count": 0}, gomock.Any()).
				DoAndReturn(reply(part{ID: "2", Name: "Nut", Count: 0}))

			updated, err := provider.Patch(ctx, "2", resource.Fields{"count": 0})

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(updated.Name).To(gomega.Equal("Nut"))
			gomega.Expect(provider.Snapshot().List).To(gomega.Equal([]part{{ID: "2", Name: "Nut"}}))
		})

		ginkgo.It("should validate the keys that are present without sending", func() {
			_, err := provider.Patch(ctx, "2", resource.Fields{"name": ""})

			var invalid *resource.ValidationError
			gomega.Expect(errors.As(err, &invalid)).To(gomega.BeTrue())
			gomega.Expect(invalid.Fields).To(gomega.HaveKeyWithValue("name", "Name is required"))
		})

		ginkgo.It("should report a value of the wrong type as a field error", func() {
			_, err := provider.Patch(ctx, "2", resource.Fields{"count": "many"})

			var invalid *resource.ValidationError
			gomega.Expect(errors.As(err, &invalid)).To(gomega.BeTrue())
			gomega.Expect(invalid.Fields).To(gomega.HaveKey("count"))
		})

		ginkgo.It("should refuse an empty patch", func() {
			_, err := provider.Patch(ctx, "2", resource.Fields{})
			gomega.Expect(err).To(gomega.MatchError(resource.ErrEmptyPatch))
		})
	})

	ginkgo.Context("FieldsOf", func() {
		ginkgo.It("should keep only non-zero top-level fields", func() {
			fields, err := resource.FieldsOf(part{ID: "2", Name: "Nut"})

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(fields).To(gomega.Equal(resource.Fields{"id": "2", "name": "Nut"}))
		})
	})

	ginkgo.Context("Delete", func() {
		ginkgo.It("should remove the entry and clear a matching single record", func() {
			seed(part{ID: "1", Name: "Bolt"})
			requester.EXPECT().
				Do(gomock.Any(), http.MethodGet, "/inventory/part/1/", gomock.Nil(), nil, gomock.Any()).
				DoAndReturn(reply(part{ID: "1", Name: "Bolt"}))
			_, _ = provider.Get(ctx, "1")

			requester.EXPECT().
				Do(gomock.Any(), http.MethodDelete, "/inventory/part/1/", gomock.Nil(), nil, nil).
				Return(nil)

			gomega.Expect(provider.Delete(ctx, "1")).To(gomega.Succeed())
			state := provider.Snapshot()
			gomega.Expect(state.List).To(gomega.BeEmpty())
			gomega.Expect(state.Single).To(gomega.BeNil())
		})
	})

	ginkgo.Context("Action", func() {
		ginkgo.It("should post the transition and store the result", func() {
			seed(part{ID: "3", Name: "Pump", Status: "draft"})
			requester.EXPECT().
				Do(gomock.Any(), http.MethodPost, "/inventory/part/3/approve/", gomock.Nil(), gomock.Any(), gomock.Any()).
				DoAndReturn(reply(part{ID: "3", Name: "Pump", Status: "approved"}))

			_, err := provider.Action(ctx, "3", "approve")

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			state := provider.Snapshot()
			gomega.Expect(state.List[0].Status).To(gomega.Equal("approved"))
			gomega.Expect(state.Single.Status).To(gomega.Equal("approved"))
		})
	})

	ginkgo.Context("loading and cancellation", func() {
		ginkgo.It("should report loading while any operation is in flight", func() {
			release := make(chan struct{})
			entered := make(chan struct{})
			requester.EXPECT().
				Do(gomock.Any(), http.MethodGet, "/inventory/part/", gomock.Any(), nil, gomock.Any()).
				DoAndReturn(func(ctx context.Context, m, p string, q url.Values, b, out any) error {
					close(entered)
					<-release
					return reply([]part{})(ctx, m, p, q, b, out)
				})

			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer ginkgo.GinkgoRecover()
				_, _ = provider.List(ctx, "")
			}()

			gomega.Eventually(entered).Should(gomega.BeClosed())
			gomega.Expect(provider.Snapshot().IsLoading).To(gomega.BeTrue())
			close(release)
			wg.Wait()
			gomega.Expect(provider.Snapshot().IsLoading).To(gomega.BeFalse())
		})

		ginkgo.It("should not touch the cache after cancellation", func() {
			seed(part{ID: "1", Name: "Bolt"})
			cctx, cancel := context.WithCancel(ctx)
			requester.EXPECT().
				Do(gomock.Any(), http.MethodGet, "/inventory/part/", gomock.Any(), nil, gomock.Any()).
				DoAndReturn(func(c context.Context, m, p string, q url.Values, b, out any) error {
					cancel()
					return reply([]part{{ID: "5", Name: "Late"}})(c, m, p, q, b, out)
				})

			_, err := provider.List(cctx, "")

			gomega.Expect(errors.Is(err, context.Canceled)).To(gomega.BeTrue())
			state := provider.Snapshot()
			gomega.Expect(state.List).To(gomega.Equal([]part{{ID: "1", Name: "Bolt"}}))
			gomega.Expect(state.Error).To(gomega.BeEmpty())
		})

		ginkgo.It("should notify subscribers of each state change", func() {
			var states []resource.State[part]
			unsubscribe := provider.Subscribe(func(s resource.State[part]) {
				states = append(states, s)
			})

			seed(part{ID: "1", Name: "Bolt"})
			unsubscribe()
			seed()

			gomega.Expect(states).To(gomega.HaveLen(2))
			gomega.Expect(states[0].IsLoading).To(gomega.BeTrue())
			gomega.Expect(states[1].List).To(gomega.HaveLen(1))
		})
	})

	ginkgo.It("should refuse to run without a client", func() {
		bare := resource.NewProvider[part](nil, "/inventory/part/")
		_, err := bare.List(ctx, "")
		gomega.Expect(err).To(gomega.MatchError(resource.ErrNoClient))
	})
})
