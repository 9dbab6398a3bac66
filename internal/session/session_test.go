package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	goredis "github.com/redis/go-redis/v9"

	"github.com/frahmantamala/travel-backoffice/internal"
	"github.com/frahmantamala/travel-backoffice/internal/session"
)

func TestSession(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Session Store Suite")
}

var admin = session.Principal{
	ID:        "u-1",
	Email:     "admin@x.io",
	FirstName: "Ada",
	LastName:  "Admin",
	Role:      "admin",
}

var finance = session.Principal{
	ID:    "u-2",
	Email: "fin@x.io",
	Role:  "finance",
}

// storeBehaviour runs the contract every Store implementation must satisfy.
func storeBehaviour(newStore func() session.Store) {
	var (
		store session.Store
		ctx   context.Context
	)

	BeforeEach(func() {
		store = newStore()
		ctx = context.Background()
	})

	It("reports no session at cold start without an error", func() {
		p, ok, err := store.GetCurrentUser(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
		Expect(p).To(BeNil())
	})

	It("returns what was set", func() {
		Expect(store.SetCurrentUser(ctx, admin)).To(Succeed())

		p, ok, err := store.GetCurrentUser(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(p.Email).To(Equal("admin@x.io"))
		Expect(p.Role).To(Equal("admin"))
	})

	It("overwrites the prior principal", func() {
		Expect(store.SetCurrentUser(ctx, admin)).To(Succeed())
		Expect(store.SetCurrentUser(ctx, finance)).To(Succeed())

		p, ok, _ := store.GetCurrentUser(ctx)

		Expect(ok).To(BeTrue())
		Expect(p.ID).To(Equal("u-2"))
	})

	It("clears idempotently", func() {
		Expect(store.SetCurrentUser(ctx, admin)).To(Succeed())
		Expect(store.ClearCurrentUser(ctx)).To(Succeed())
		Expect(store.ClearCurrentUser(ctx)).To(Succeed())

		_, ok, err := store.GetCurrentUser(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("keeps client scopes apart", func() {
		alice := internal.ContextWithClientID(ctx, "client-a")
		bob := internal.ContextWithClientID(ctx, "client-b")

		Expect(store.SetCurrentUser(alice, admin)).To(Succeed())
		Expect(store.SetCurrentUser(bob, finance)).To(Succeed())
		Expect(store.ClearCurrentUser(bob)).To(Succeed())

		p, ok, _ := store.GetCurrentUser(alice)
		Expect(ok).To(BeTrue())
		Expect(p.ID).To(Equal("u-1"))

		_, ok, _ = store.GetCurrentUser(bob)
		Expect(ok).To(BeFalse())

		_, ok, _ = store.GetCurrentUser(ctx)
		Expect(ok).To(BeFalse())
	})

	It("never resolves an anonymous context to a stored session", func() {
		cli := internal.ContextWithClientID(ctx, internal.CLIClientID)
		Expect(store.SetCurrentUser(ctx, admin)).To(Succeed())
		Expect(store.SetCurrentUser(cli, finance)).To(Succeed())
		anonymous := internal.ContextAnonymous(ctx)

		p, ok, err := store.GetCurrentUser(anonymous)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
		Expect(p).To(BeNil())

		Expect(store.SetCurrentUser(anonymous, admin)).To(MatchError(session.ErrAnonymous))
		Expect(store.ClearCurrentUser(anonymous)).To(Succeed())

		_, ok, _ = store.GetCurrentUser(ctx)
		Expect(ok).To(BeTrue())
		_, ok, _ = store.GetCurrentUser(cli)
		Expect(ok).To(BeTrue())
	})
}

var _ = Describe("MemoryStore", func() {
	storeBehaviour(func() session.Store { return session.NewMemoryStore() })
})

var _ = Describe("RedisStore", func() {
	var mr *miniredis.Miniredis

	BeforeEach(func() {
		mr = miniredis.RunT(GinkgoT())
	})

	storeBehaviour(func() session.Store {
		rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
		DeferCleanup(rdb.Close)
		return session.NewRedisStore(rdb, time.Hour)
	})

	It("expires sessions after the TTL", func() {
		rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
		defer rdb.Close()
		store := session.NewRedisStore(rdb, time.Minute)
		ctx := internal.ContextWithClientID(context.Background(), "short")

		Expect(store.SetCurrentUser(ctx, admin)).To(Succeed())
		Expect(mr.Exists("session:short")).To(BeTrue())

		mr.FastForward(2 * time.Minute)

		_, ok, err := store.GetCurrentUser(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("surfaces backend failures as errors", func() {
		rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
		defer rdb.Close()
		store := session.NewRedisStore(rdb, time.Minute)
		mr.Close()

		_, _, err := store.GetCurrentUser(context.Background())
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Principal", func() {
	It("joins the available name parts", func() {
		Expect(admin.FullName()).To(Equal("Ada Admin"))
		Expect(finance.FullName()).To(BeEmpty())
		Expect(session.Principal{LastName: "Solo"}.FullName()).To(Equal("Solo"))
	})
})
