package user_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/frahmantamala/travel-backoffice/internal"
	userDatamodel "github.com/frahmantamala/travel-backoffice/internal/core/datamodel/user"
	"github.com/frahmantamala/travel-backoffice/internal/permission"
	"github.com/frahmantamala/travel-backoffice/internal/user"
	userPostgres "github.com/frahmantamala/travel-backoffice/internal/user/postgres"
)

func TestUser(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Suite")
}

func openTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	Expect(err).NotTo(HaveOccurred())
	Expect(db.AutoMigrate(&userDatamodel.User{})).To(Succeed())
	return db
}

var _ = Describe("User Service", func() {
	var (
		repo    *userPostgres.UserRepository
		service *user.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		repo = userPostgres.NewUserRepository(openTestDB())
		service = user.NewService(repo, bcrypt.MinCost, slog.New(slog.NewTextHandler(io.Discard, nil)))
		ctx = context.Background()
	})

	validRequest := func() user.CreateUserRequest {
		return user.CreateUserRequest{
			Email:     "Priya@Agency.io",
			Password:  "s3cret-pass",
			FirstName: "Priya",
			LastName:  "Nair",
			Role:      "finance",
		}
	}

	Describe("Create", func() {
		It("stores a bcrypt hash, never the password", func() {
			u, err := service.Create(ctx, validRequest())

			Expect(err).NotTo(HaveOccurred())
			Expect(u.ID).NotTo(BeEmpty())
			Expect(u.PasswordHash).NotTo(Equal("s3cret-pass"))
			Expect(bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret-pass"))).To(Succeed())
		})

		It("lower-cases the email", func() {
			u, err := service.Create(ctx, validRequest())

			Expect(err).NotTo(HaveOccurred())
			Expect(u.Email).To(Equal("priya@agency.io"))
		})

		It("rejects an email that differs only in case", func() {
			_, err := service.Create(ctx, validRequest())
			Expect(err).NotTo(HaveOccurred())

			dup := validRequest()
			dup.Email = "PRIYA@agency.io"
			_, err = service.Create(ctx, dup)

			Expect(errors.Is(err, internal.ErrEmailTaken)).To(BeTrue())
		})

		It("rejects roles outside the closed set", func() {
			req := validRequest()
			req.Role = "owner"

			_, err := service.Create(ctx, req)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
		})

		It("validates the request fields", func() {
			_, err := service.Create(ctx, user.CreateUserRequest{Email: "not-an-email", Password: "short"})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
			details := appErr.Details.(internal.ValidationErrors)
			fields := make([]string, 0, len(details.Errors))
			for _, e := range details.Errors {
				fields = append(fields, e.Field)
			}
			Expect(fields).To(ContainElements("email", "password", "first_name", "role"))
		})
	})

	Describe("FindByEmail", func() {
		It("matches regardless of case", func() {
			created, err := service.Create(ctx, validRequest())
			Expect(err).NotTo(HaveOccurred())

			found, err := service.FindByEmail(ctx, "  PRIYA@AGENCY.IO ")

			Expect(err).NotTo(HaveOccurred())
			Expect(found.ID).To(Equal(created.ID))
		})

		It("reports unknown emails as not found", func() {
			_, err := service.FindByEmail(ctx, "nobody@agency.io")

			Expect(errors.Is(err, internal.ErrUserNotFound)).To(BeTrue())
		})
	})

	Describe("ChangeRole", func() {
		It("updates the role", func() {
			created, _ := service.Create(ctx, validRequest())

			updated, err := service.ChangeRole(ctx, created.ID, user.ChangeRoleRequest{Role: "Manager"})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Role).To(Equal(permission.RoleManager))
		})

		It("reports unknown users", func() {
			_, err := service.ChangeRole(ctx, "missing", user.ChangeRoleRequest{Role: "admin"})

			Expect(errors.Is(err, internal.ErrUserNotFound)).To(BeTrue())
		})
	})

	Describe("ChangePassword", func() {
		It("replaces the hash", func() {
			created, _ := service.Create(ctx, validRequest())

			Expect(service.ChangePassword(ctx, created.ID, user.ChangePasswordRequest{Password: "new-password"})).To(Succeed())

			reloaded, err := service.GetByID(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(bcrypt.CompareHashAndPassword([]byte(reloaded.PasswordHash), []byte("new-password"))).To(Succeed())
		})
	})

	Describe("List and Delete", func() {
		It("lists users and removes them", func() {
			created, _ := service.Create(ctx, validRequest())

			users, err := service.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(1))

			Expect(service.Delete(ctx, created.ID)).To(Succeed())
			users, _ = service.List(ctx)
			Expect(users).To(BeEmpty())

			Expect(errors.Is(service.Delete(ctx, created.ID), internal.ErrUserNotFound)).To(BeTrue())
		})
	})

	Describe("Principal", func() {
		It("carries no secret", func() {
			created, _ := service.Create(ctx, validRequest())

			p := created.Principal()

			Expect(p.ID).To(Equal(created.ID))
			Expect(p.Role).To(Equal("finance"))
		})
	})
})
