package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"opsconsole/internal/infra/storage"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("File storage", func() {
	var (
		path   string
		ctx    context.Context
		cancel context.CancelFunc
	)

	BeforeEach(func() {
		path = filepath.Join(GinkgoT().TempDir(), "session", "storage.json")
		ctx, cancel = context.WithCancel(context.Background())
	})

	AfterEach(func() {
		cancel()
	})

	It("should persist values across handles", func() {
		first, err := storage.NewFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(first.Set(ctx, storage.KeyTenantSchemaName, "acme")).To(Succeed())

		second, err := storage.NewFile(path)
		Expect(err).NotTo(HaveOccurred())
		value, found, err := second.Get(ctx, storage.KeyTenantSchemaName)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeTrue())
		Expect(value).To(Equal("acme"))
	})

	It("should remove values", func() {
		handle, err := storage.NewFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(handle.Set(ctx, storage.KeyAccessToken, "abc")).To(Succeed())

		Expect(handle.Remove(ctx, storage.KeyAccessToken)).To(Succeed())

		_, found, err := handle.Get(ctx, storage.KeyAccessToken)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeFalse())
	})

	It("should report a corrupt file", func() {
		Expect(os.MkdirAll(filepath.Dir(path), 0o700)).To(Succeed())
		Expect(os.WriteFile(path, []byte("{not json"), 0o600)).To(Succeed())

		_, err := storage.NewFile(path)
		Expect(err).To(HaveOccurred())
	})

	It("should signal writes from another handle and skip its own", func() {
		watcher, err := storage.NewFile(path)
		Expect(err).NotTo(HaveOccurred())
		writer, err := storage.NewFile(path)
		Expect(err).NotTo(HaveOccurred())

		changes, err := watcher.Watch(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(watcher.Set(ctx, storage.KeyMultiLocation, "false")).To(Succeed())
		Consistently(changes, 200*time.Millisecond).ShouldNot(Receive())

		Expect(writer.Set(ctx, storage.KeyLastActivityTime, "1700000000000")).To(Succeed())
		Eventually(changes, 2*time.Second).Should(Receive(And(
			HaveField("Key", storage.KeyLastActivityTime),
			HaveField("Value", "1700000000000"),
		)))
	})
})
