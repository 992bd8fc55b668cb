package storage_test

import (
	"context"

	"opsconsole/internal/infra/storage"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Memory storage", func() {
	var (
		backend *storage.MemoryBackend
		tab     *storage.Memory
		other   *storage.Memory
		ctx     context.Context
		cancel  context.CancelFunc
	)

	BeforeEach(func() {
		backend = storage.NewMemoryBackend()
		tab = backend.Open()
		other = backend.Open()
		ctx, cancel = context.WithCancel(context.Background())
	})

	AfterEach(func() {
		cancel()
		backend.Close()
	})

	It("should share values between handles", func() {
		Expect(tab.Set(ctx, storage.KeyAccessToken, "abc")).To(Succeed())

		value, found, err := other.Get(ctx, storage.KeyAccessToken)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeTrue())
		Expect(value).To(Equal("abc"))
	})

	It("should report missing keys", func() {
		_, found, err := tab.Get(ctx, storage.KeyRefreshToken)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeFalse())
	})

	It("should notify other handles but not the writer", func() {
		own, err := tab.Watch(ctx)
		Expect(err).NotTo(HaveOccurred())
		foreign, err := other.Watch(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(tab.Set(ctx, storage.KeyLastActivityTime, "1700000000000")).To(Succeed())

		Eventually(foreign).Should(Receive(And(
			HaveField("Key", storage.KeyLastActivityTime),
			HaveField("Value", "1700000000000"),
			HaveField("Origin", tab.Origin()),
		)))
		Consistently(own).ShouldNot(Receive())
	})

	It("should notify removals of existing keys only", func() {
		changes, err := other.Watch(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(tab.Remove(ctx, storage.KeyAccessToken)).To(Succeed())
		Consistently(changes).ShouldNot(Receive())

		Expect(tab.Set(ctx, storage.KeyAccessToken, "abc")).To(Succeed())
		Eventually(changes).Should(Receive(HaveField("Removed", false)))
		Expect(tab.Remove(ctx, storage.KeyAccessToken)).To(Succeed())
		Eventually(changes).Should(Receive(And(
			HaveField("Key", storage.KeyAccessToken),
			HaveField("Removed", true),
		)))
	})

	It("should close the watch channel when the context ends", func() {
		wctx, wcancel := context.WithCancel(ctx)
		changes, err := tab.Watch(wctx)
		Expect(err).NotTo(HaveOccurred())

		wcancel()

		Eventually(changes).Should(BeClosed())
	})

	It("should round-trip json values", func() {
		Expect(storage.SetJSON(ctx, tab, storage.KeyMultiLocation, true)).To(Succeed())

		value, found, err := storage.GetJSON[bool](ctx, other, storage.KeyMultiLocation)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeTrue())
		Expect(value).To(BeTrue())
	})

	It("should fail to decode non-json values", func() {
		Expect(tab.Set(ctx, storage.KeyLastActivityTime, "yesterday")).To(Succeed())

		_, found, err := storage.GetJSON[int64](ctx, tab, storage.KeyLastActivityTime)
		Expect(err).To(HaveOccurred())
		Expect(found).To(BeFalse())
	})

	It("should remove every listed key", func() {
		Expect(tab.Set(ctx, storage.KeyAccessToken, "a")).To(Succeed())
		Expect(tab.Set(ctx, storage.KeyRefreshToken, "r")).To(Succeed())

		Expect(storage.RemoveAll(ctx, tab, storage.KeyAccessToken, storage.KeyRefreshToken)).To(Succeed())

		_, found, _ := other.Get(ctx, storage.KeyAccessToken)
		Expect(found).To(BeFalse())
		_, found, _ = other.Get(ctx, storage.KeyRefreshToken)
		Expect(found).To(BeFalse())
	})
})
