package cache_test

import (
	"opsconsole/internal/infra/cache"
	"opsconsole/internal/shared_kernel/domain"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type record struct {
	ID   string
	Name string
}

func (r record) ResourceID() domain.ID { return domain.ID(r.ID) }

var _ = Describe("Keyed", func() {
	var keyed *cache.Keyed[record]

	BeforeEach(func() {
		keyed = cache.NewKeyed[record]()
		keyed.ReplaceAll([]record{{ID: "2", Name: "b"}, {ID: "1", Name: "a"}})
	})

	It("should keep server order on replace", func() {
		Expect(keyed.List()).To(Equal([]record{{ID: "2", Name: "b"}, {ID: "1", Name: "a"}}))
	})

	It("should replace an existing entry in place", func() {
		keyed.Put(record{ID: "2", Name: "b2"})
		Expect(keyed.List()).To(Equal([]record{{ID: "2", Name: "b2"}, {ID: "1", Name: "a"}}))
	})

	It("should append unknown entries", func() {
		keyed.Put(record{ID: "3", Name: "c"})
		Expect(keyed.Len()).To(Equal(3))
		got, ok := keyed.Get("3")
		Expect(ok).To(BeTrue())
		Expect(got.Name).To(Equal("c"))
	})

	It("should remove by id", func() {
		Expect(keyed.Remove("2")).To(BeTrue())
		Expect(keyed.Remove("2")).To(BeFalse())
		Expect(keyed.List()).To(Equal([]record{{ID: "1", Name: "a"}}))
	})

	It("should hand out copies", func() {
		list := keyed.List()
		list[0].Name = "mutated"
		got, _ := keyed.Get("2")
		Expect(got.Name).To(Equal("b"))
	})
})
