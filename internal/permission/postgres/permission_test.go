package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/travel-backoffice/internal"
	"github.com/frahmantamala/travel-backoffice/internal/permission"
	"github.com/frahmantamala/travel-backoffice/internal/permission/postgres"
)

func TestPermissionRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Permission Repository Suite")
}

const schema = `
CREATE TABLE page_permissions (
	page_id    TEXT PRIMARY KEY,
	label      TEXT NOT NULL,
	path       TEXT NOT NULL,
	roles      TEXT NOT NULL DEFAULT '[]',
	position   INTEGER NOT NULL DEFAULT 0,
	updated_at TIMESTAMP NOT NULL
)`

var _ = Describe("PermissionRepository", func() {
	var (
		db   *sqlx.DB
		repo *postgres.PermissionRepository
		ctx  context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = sqlx.Open("sqlite3", ":memory:")
		Expect(err).NotTo(HaveOccurred())
		db.SetMaxOpenConns(1)
		_, err = db.Exec(schema)
		Expect(err).NotTo(HaveOccurred())

		repo = postgres.NewPermissionRepository(db)
		ctx = context.Background()
	})

	AfterEach(func() {
		db.Close()
	})

	It("starts empty", func() {
		n, err := repo.Count(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeZero())
	})

	It("seeds and lists in position order", func() {
		Expect(repo.Seed(ctx, permission.DefaultPermissions())).To(Succeed())

		perms, err := repo.List(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(perms).To(HaveLen(11))
		Expect(perms[0].PageID).To(Equal(permission.PageDashboard))
		Expect(perms[10].PageID).To(Equal(permission.PageSettings))
		Expect(perms[5].Roles).To(ConsistOf(permission.RoleAdmin, permission.RoleFinance))
	})

	It("leaves existing pages untouched when seeding again", func() {
		Expect(repo.Seed(ctx, permission.DefaultPermissions())).To(Succeed())
		Expect(repo.UpdateRoles(ctx, permission.PageDashboard, []permission.Role{permission.RoleAdmin})).To(Succeed())

		Expect(repo.Seed(ctx, permission.DefaultPermissions())).To(Succeed())

		p, err := repo.Get(ctx, permission.PageDashboard)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Roles).To(ConsistOf(permission.RoleAdmin))
	})

	It("persists role updates immediately", func() {
		Expect(repo.Seed(ctx, permission.DefaultPermissions())).To(Succeed())

		Expect(repo.UpdateRoles(ctx, permission.PagePayments, []permission.Role{})).To(Succeed())

		p, err := repo.Get(ctx, permission.PagePayments)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Roles).To(BeEmpty())
	})

	It("reports NotFound for unknown pages", func() {
		_, err := repo.Get(ctx, "ghost")
		Expect(errors.Is(err, internal.ErrPageNotFound)).To(BeTrue())

		err = repo.UpdateRoles(ctx, "ghost", []permission.Role{permission.RoleAdmin})
		Expect(errors.Is(err, internal.ErrPageNotFound)).To(BeTrue())
	})

	It("clears every record", func() {
		Expect(repo.Seed(ctx, permission.DefaultPermissions())).To(Succeed())
		Expect(repo.Clear(ctx)).To(Succeed())

		n, err := repo.Count(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeZero())
	})
})
