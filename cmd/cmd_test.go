package cmd

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/travel-backoffice/internal"
	"github.com/frahmantamala/travel-backoffice/internal/auth"
	userDatamodel "github.com/frahmantamala/travel-backoffice/internal/core/datamodel/user"
	"github.com/frahmantamala/travel-backoffice/internal/datastore"
	"github.com/frahmantamala/travel-backoffice/internal/datastore/datastoretest"
	"github.com/frahmantamala/travel-backoffice/internal/notification"
	"github.com/frahmantamala/travel-backoffice/internal/permission"
	permissionPostgres "github.com/frahmantamala/travel-backoffice/internal/permission/postgres"
	"github.com/frahmantamala/travel-backoffice/internal/session"
	"github.com/frahmantamala/travel-backoffice/internal/user"
	userPostgres "github.com/frahmantamala/travel-backoffice/internal/user/postgres"
)

func TestCmd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cmd Suite")
}

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

const permissionSchema = `
CREATE TABLE page_permissions (
	page_id    TEXT PRIMARY KEY,
	label      TEXT NOT NULL,
	path       TEXT NOT NULL,
	roles      TEXT NOT NULL DEFAULT '[]',
	position   INTEGER NOT NULL DEFAULT 0,
	updated_at TIMESTAMP NOT NULL
)`

type testIdentity struct {
	gdb         *gorm.DB
	users       *user.Service
	permissions *permission.Service
}

func newTestIdentity() testIdentity {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormLogger.Default.LogMode(gormLogger.Silent)})
	Expect(err).NotTo(HaveOccurred())
	sqlDB, err := gdb.DB()
	Expect(err).NotTo(HaveOccurred())
	sqlDB.SetMaxOpenConns(1)
	Expect(gdb.AutoMigrate(&userDatamodel.User{})).To(Succeed())

	sdb, err := sqlx.Open("sqlite3", ":memory:")
	Expect(err).NotTo(HaveOccurred())
	sdb.SetMaxOpenConns(1)
	DeferCleanup(sdb.Close)
	_, err = sdb.Exec(permissionSchema)
	Expect(err).NotTo(HaveOccurred())

	return testIdentity{
		gdb:         gdb,
		users:       user.NewService(userPostgres.NewUserRepository(gdb), bcrypt.MinCost, quietLogger),
		permissions: permission.NewService(permissionPostgres.NewPermissionRepository(sdb), quietLogger),
	}
}

var _ = Describe("seeder", func() {
	var (
		ident testIdentity
		out   *bytes.Buffer
		s     seeder
		ctx   context.Context
	)

	BeforeEach(func() {
		ident = newTestIdentity()
		out = &bytes.Buffer{}
		ctx = context.Background()
		s = seeder{
			users:       ident.users,
			permissions: ident.permissions,
			clearUsers: func(ctx context.Context) error {
				return ident.gdb.WithContext(ctx).Exec("DELETE FROM users").Error
			},
			out: out,
		}
	})

	It("creates one account per role and the default page table", func() {
		Expect(s.run(ctx, false)).To(Succeed())

		users, err := ident.users.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(users).To(HaveLen(len(seedUsers)))

		perms, err := ident.permissions.ListPermissions(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(perms).To(HaveLen(len(permission.DefaultPermissions())))
	})

	It("is safe to run twice", func() {
		Expect(s.run(ctx, false)).To(Succeed())
		Expect(s.run(ctx, false)).To(Succeed())

		Expect(out.String()).To(ContainSubstring("admin@x.io already exists"))
		users, _ := ident.users.List(ctx)
		Expect(users).To(HaveLen(len(seedUsers)))
	})

	It("restores the default permissions with clear", func() {
		Expect(s.run(ctx, false)).To(Succeed())
		_, err := ident.permissions.UpdateRolesForPage(ctx, permission.PagePayments, []permission.Role{permission.RoleAdmin, permission.RoleCaller})
		Expect(err).NotTo(HaveOccurred())

		Expect(s.run(ctx, true)).To(Succeed())

		Expect(ident.permissions.IsRoleAllowed(ctx, permission.PagePayments, permission.RoleCaller)).To(BeFalse())
		Expect(out.String()).To(ContainSubstring("Cleared users"))
	})
})

var _ = Describe("sessionCLI", func() {
	var (
		out *bytes.Buffer
		cli sessionCLI
		ctx context.Context
	)

	BeforeEach(func() {
		ident := newTestIdentity()
		s := seeder{users: ident.users, permissions: ident.permissions, out: io.Discard}
		Expect(s.run(context.Background(), false)).To(Succeed())

		sessions := session.NewMemoryStore()
		out = &bytes.Buffer{}
		ctx = internal.ContextWithClientID(context.Background(), internal.CLIClientID)
		authSvc := auth.NewService(ident.users, sessions, ident.permissions, auth.Config{}, quietLogger)
		cli = sessionCLI{
			auth:  authSvc,
			guard: auth.NewGuard(authSvc, quietLogger),
			out:   out,
		}
	})

	It("reports logged out at cold start", func() {
		Expect(cli.whoami(ctx)).To(Succeed())
		Expect(out.String()).To(Equal("state: logged_out\n"))
	})

	It("logs in, answers guard questions and logs out", func() {
		Expect(cli.login(ctx, "finance@x.io", "finance123")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Logged in as finance@x.io (finance)"))

		out.Reset()
		Expect(cli.whoami(ctx)).To(Succeed())
		Expect(out.String()).To(ContainSubstring("role: finance"))

		out.Reset()
		Expect(cli.can(ctx, permission.PagePayments)).To(Succeed())
		Expect(cli.can(ctx, permission.PageUsers)).To(Succeed())
		Expect(out.String()).To(Equal("payments: allowed\nusers: denied (role_not_allowed)\n"))

		Expect(cli.logout(ctx)).To(Succeed())
		out.Reset()
		Expect(cli.can(ctx, permission.PagePayments)).To(Succeed())
		Expect(out.String()).To(Equal("payments: denied (no_session)\n"))
	})

	It("keeps its session on the cli scope only", func() {
		Expect(cli.login(ctx, "admin@x.io", "admin123")).To(Succeed())

		Expect(cli.auth.State(ctx)).To(Equal(auth.StateLoggedIn))
		Expect(cli.auth.State(context.Background())).To(Equal(auth.StateLoggedOut))
		Expect(cli.auth.State(internal.ContextAnonymous(context.Background()))).To(Equal(auth.StateLoggedOut))
	})

	It("surfaces bad credentials", func() {
		err := cli.login(ctx, "finance@x.io", "wrong-password")
		Expect(err).To(MatchError(ContainSubstring("Invalid email or password")))
	})
})

var _ = Describe("publishStatusEvent", func() {
	var (
		server *datastoretest.Server
		svc    *notification.Service
		out    *bytes.Buffer
	)

	BeforeEach(func() {
		server = datastoretest.NewServer()
		DeferCleanup(server.Close)
		svc = notification.NewService(datastore.NewClient(server.Config(), quietLogger), quietLogger)
		out = &bytes.Buffer{}
	})

	It("writes a broadcast notification before returning", func() {
		err := publishStatusEvent(context.Background(), svc, quietLogger, out, "booking", "b-1", "b-1", "pending", "confirmed")

		Expect(err).NotTo(HaveOccurred())
		Expect(out.String()).To(ContainSubstring("booking.status_changed"))
		all := svc.FetchAll(context.Background())
		Expect(all.OK()).To(BeTrue())
		Expect(all.Value).To(HaveLen(1))
		Expect(all.Value[0].UserID).To(BeNil())
		Expect(all.Value[0].Message).To(ContainSubstring("confirmed"))
	})

	It("rejects unknown entities", func() {
		err := publishStatusEvent(context.Background(), svc, quietLogger, out, "hotel", "h-1", "", "", "active")

		Expect(err).To(MatchError(ContainSubstring("unknown entity")))
	})

	It("requires the new status", func() {
		err := publishStatusEvent(context.Background(), svc, quietLogger, out, "payment", "p-1", "", "pending", "")

		Expect(err).To(HaveOccurred())
	})
})
