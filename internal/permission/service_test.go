package permission_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sort"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/travel-backoffice/internal"
	"github.com/frahmantamala/travel-backoffice/internal/permission"
)

func TestPermission(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Permission Suite")
}

// MockRepository implements permission.Repository in memory
type MockRepository struct {
	pages      map[string]permission.PagePermission
	seedCalls  int
	shouldFail bool
	failError  error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{pages: make(map[string]permission.PagePermission)}
}

func (m *MockRepository) List(ctx context.Context) ([]permission.PagePermission, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	out := make([]permission.PagePermission, 0, len(m.pages))
	for _, p := range m.pages {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *MockRepository) Get(ctx context.Context, pageID string) (*permission.PagePermission, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	p, ok := m.pages[pageID]
	if !ok {
		return nil, internal.ErrPageNotFound
	}
	return &p, nil
}

func (m *MockRepository) Count(ctx context.Context) (int, error) {
	if m.shouldFail {
		return 0, m.failError
	}
	return len(m.pages), nil
}

func (m *MockRepository) Seed(ctx context.Context, perms []permission.PagePermission) error {
	m.seedCalls++
	for _, p := range perms {
		if _, exists := m.pages[p.PageID]; !exists {
			m.pages[p.PageID] = p
		}
	}
	return nil
}

func (m *MockRepository) UpdateRoles(ctx context.Context, pageID string, roles []permission.Role) error {
	p, ok := m.pages[pageID]
	if !ok {
		return internal.ErrPageNotFound
	}
	p.Roles = roles
	m.pages[pageID] = p
	return nil
}

func (m *MockRepository) Clear(ctx context.Context) error {
	m.pages = make(map[string]permission.PagePermission)
	return nil
}

var _ = Describe("Permission Service", func() {
	var (
		repo    *MockRepository
		service *permission.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		repo = NewMockRepository()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = permission.NewService(repo, logger)
		ctx = context.Background()
	})

	Describe("ListPermissions", func() {
		It("installs the defaults on first use", func() {
			perms, err := service.ListPermissions(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(perms).To(HaveLen(len(permission.DefaultPermissions())))
			Expect(perms[0].PageID).To(Equal(permission.PageDashboard))
			Expect(repo.seedCalls).To(Equal(1))
		})

		It("seeds only once", func() {
			_, _ = service.ListPermissions(ctx)
			_, _ = service.ListPermissions(ctx)
			service.IsRoleAllowed(ctx, permission.PageLeads, permission.RoleCaller)

			Expect(repo.seedCalls).To(Equal(1))
		})

		It("does not reseed a table that already has records", func() {
			repo.pages["custom"] = permission.PagePermission{PageID: "custom", Roles: []permission.Role{permission.RoleAdmin}}

			perms, err := service.ListPermissions(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(perms).To(HaveLen(1))
			Expect(repo.seedCalls).To(BeZero())
		})

		It("reports repository failures", func() {
			repo.shouldFail = true
			repo.failError = errors.New("database down")

			_, err := service.ListPermissions(ctx)

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("IsRoleAllowed", func() {
		It("follows the default table", func() {
			Expect(service.IsRoleAllowed(ctx, permission.PageSettings, permission.RoleAdmin)).To(BeTrue())
			Expect(service.IsRoleAllowed(ctx, permission.PagePayments, permission.RoleMarketing)).To(BeFalse())
			Expect(service.IsRoleAllowed(ctx, permission.PagePayments, permission.RoleFinance)).To(BeTrue())
			Expect(service.IsRoleAllowed(ctx, permission.PageDashboard, permission.RoleCaller)).To(BeTrue())
		})

		It("denies unknown pages without an error", func() {
			Expect(service.IsRoleAllowed(ctx, "no-such-page", permission.RoleAdmin)).To(BeFalse())
		})

		It("denies when the repository fails", func() {
			_, _ = service.ListPermissions(ctx)
			repo.shouldFail = true
			repo.failError = errors.New("database down")

			Expect(service.IsRoleAllowed(ctx, permission.PageDashboard, permission.RoleAdmin)).To(BeFalse())
		})
	})

	Describe("UpdateRolesForPage", func() {
		It("replaces the role set", func() {
			updated, err := service.UpdateRolesForPage(ctx, permission.PagePayments, []permission.Role{permission.RoleAdmin})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Roles).To(ConsistOf(permission.RoleAdmin))
			Expect(service.IsRoleAllowed(ctx, permission.PagePayments, permission.RoleFinance)).To(BeFalse())
			Expect(service.IsRoleAllowed(ctx, permission.PagePayments, permission.RoleAdmin)).To(BeTrue())
		})

		It("accepts an empty set, closing the page", func() {
			_, err := service.UpdateRolesForPage(ctx, permission.PageReports, []permission.Role{})

			Expect(err).NotTo(HaveOccurred())
			Expect(service.IsRoleAllowed(ctx, permission.PageReports, permission.RoleAdmin)).To(BeFalse())
		})

		It("collapses duplicate roles", func() {
			updated, err := service.UpdateRolesForPage(ctx, permission.PageHotels, []permission.Role{permission.RoleAdmin, permission.RoleAdmin})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Roles).To(HaveLen(1))
		})

		It("returns NotFound for a page without a record and creates nothing", func() {
			_, err := service.UpdateRolesForPage(ctx, "ghost", []permission.Role{permission.RoleAdmin})

			Expect(errors.Is(err, internal.ErrPageNotFound)).To(BeTrue())
			Expect(service.IsRoleAllowed(ctx, "ghost", permission.RoleAdmin)).To(BeFalse())
		})

		It("rejects roles outside the closed set", func() {
			_, err := service.UpdateRolesForPage(ctx, permission.PagePayments, []permission.Role{"superuser"})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})
	})

	Describe("AllowedPages", func() {
		It("lists only the pages the role may open, in order", func() {
			pages, err := service.AllowedPages(ctx, permission.RoleFinance)

			Expect(err).NotTo(HaveOccurred())
			ids := make([]string, 0, len(pages))
			for _, p := range pages {
				ids = append(ids, p.PageID)
			}
			Expect(ids).To(Equal([]string{
				permission.PageDashboard,
				permission.PageBookings,
				permission.PagePayments,
				permission.PageNotifications,
				permission.PageReports,
			}))
		})
	})

	Describe("Reset", func() {
		It("restores the defaults", func() {
			_, _ = service.UpdateRolesForPage(ctx, permission.PageDashboard, []permission.Role{})

			Expect(service.Reset(ctx)).To(Succeed())
			Expect(service.IsRoleAllowed(ctx, permission.PageDashboard, permission.RoleCaller)).To(BeTrue())
		})
	})
})

var _ = Describe("Role", func() {
	It("parses names case-insensitively", func() {
		r, err := permission.ParseRole(" Back_Office ")
		Expect(err).NotTo(HaveOccurred())
		Expect(r).To(Equal(permission.RoleBackOffice))
	})

	It("rejects unknown names", func() {
		_, err := permission.ParseRole("root")
		Expect(err).To(HaveOccurred())
	})

	It("exposes the closed set", func() {
		Expect(permission.AllRoles()).To(HaveLen(6))
	})
})
