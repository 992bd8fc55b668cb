package storage_test

import (
	"context"
	"encoding/json"
	"errors"

	"opsconsole/internal/infra/storage"
	mockstorage "opsconsole/test/unit/doubles/infra/storage"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"
	"go.uber.org/mock/gomock"
)

var _ = ginkgo.Describe("Redis storage", func() {
	var (
		ctrl       *gomock.Controller
		client     *mockstorage.MockRedisClient
		redisStore *storage.Redis
		ctx        context.Context
	)

	ginkgo.BeforeEach(func() {
		ctrl = gomock.NewController(ginkgo.GinkgoT())
		client = mockstorage.NewMockRedisClient(ctrl)
		redisStore = storage.NewRedisWithClient(client, &storage.RedisConfig{Prefix: "ws1:"})
		ctx = context.Background()
	})

	ginkgo.AfterEach(func() {
		ctrl.Finish()
	})

	ginkgo.Context("Get", func() {
		ginkgo.It("should read the prefixed key", func() {
			cmd := redis.NewStringCmd(ctx, "get", "ws1:access_token")
			cmd.SetVal("abc")
			client.EXPECT().Get(gomock.Any(), "ws1:access_token").Return(cmd)

			value, found, err := redisStore.Get(ctx, storage.KeyAccessToken)

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(found).To(gomega.BeTrue())
			gomega.Expect(value).To(gomega.Equal("abc"))
		})

		ginkgo.It("should treat redis.Nil as missing", func() {
			cmd := redis.NewStringCmd(ctx, "get", "ws1:access_token")
			cmd.SetErr(redis.Nil)
			client.EXPECT().Get(gomock.Any(), "ws1:access_token").Return(cmd)

			_, found, err := redisStore.Get(ctx, storage.KeyAccessToken)

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(found).To(gomega.BeFalse())
		})

		ginkgo.It("should wrap connection failures", func() {
			cmd := redis.NewStringCmd(ctx, "get", "ws1:access_token")
			cmd.SetErr(errors.New("connection refused"))
			client.EXPECT().Get(gomock.Any(), "ws1:access_token").Return(cmd)

			_, _, err := redisStore.Get(ctx, storage.KeyAccessToken)

			gomega.Expect(err).To(gomega.MatchError(gomega.ContainSubstring("connection refused")))
		})
	})

	ginkgo.Context("Set", func() {
		ginkgo.It("should store the value and announce it with its origin", func() {
			client.EXPECT().
				Set(gomock.Any(), "ws1:last_activity_time", "1700000000000", gomock.Any()).
				Return(redis.NewStatusCmd(ctx, "OK"))

			var published storage.Change
			client.EXPECT().
				Publish(gomock.Any(), storage.DefaultRedisChannel, gomock.Any()).
				DoAndReturn(func(_ context.Context, _ string, message any) *redis.IntCmd {
					gomega.Expect(json.Unmarshal(message.([]byte), &published)).To(gomega.Succeed())
					return redis.NewIntCmd(ctx, "publish")
				})

			gomega.Expect(redisStore.Set(ctx, storage.KeyLastActivityTime, "1700000000000")).To(gomega.Succeed())
			gomega.Expect(published).To(gomega.Equal(storage.Change{
				Key:    storage.KeyLastActivityTime,
				Value:  "1700000000000",
				Origin: redisStore.Origin(),
			}))
		})

		ginkgo.It("should not announce a failed write", func() {
			cmd := redis.NewStatusCmd(ctx, "set")
			cmd.SetErr(errors.New("READONLY"))
			client.EXPECT().Set(gomock.Any(), "ws1:access_token", "abc", gomock.Any()).Return(cmd)

			gomega.Expect(redisStore.Set(ctx, storage.KeyAccessToken, "abc")).NotTo(gomega.Succeed())
		})
	})

	ginkgo.Context("Remove", func() {
		ginkgo.It("should delete the key and announce the removal", func() {
			client.EXPECT().Del(gomock.Any(), "ws1:refresh_token").Return(redis.NewIntCmd(ctx, "del"))
			client.EXPECT().Publish(gomock.Any(), storage.DefaultRedisChannel, gomock.Any()).Return(redis.NewIntCmd(ctx, "publish"))

			gomega.Expect(redisStore.Remove(ctx, storage.KeyRefreshToken)).To(gomega.Succeed())
		})
	})
})
