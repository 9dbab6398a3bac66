package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/travel-backoffice/internal"
	"github.com/frahmantamala/travel-backoffice/internal/permission"
	"github.com/frahmantamala/travel-backoffice/internal/user"
	"github.com/frahmantamala/travel-backoffice/pkg/logger"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with staff accounts and default page permissions",
	Long:  `Seed the database with one account per role and the default page permission table.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}

		ident, err := buildIdentity(ctx, cfg, logger.LoggerWrapper())
		if err != nil {
			return err
		}
		defer ident.Close()

		s := seeder{
			users:       ident.Users,
			permissions: ident.Permissions,
			clearUsers: func(ctx context.Context) error {
				_, err := ident.DB.ExecContext(ctx, `DELETE FROM users`)
				return err
			},
			out: os.Stdout,
		}
		return s.run(ctx, clearData)
	},
}

type seedUser struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      permission.Role
}

// seedUsers are development accounts, one per role.
var seedUsers = []seedUser{
	{"admin@x.io", "admin123", "Ada", "Admin", permission.RoleAdmin},
	{"manager@x.io", "manager123", "Manu", "Manager", permission.RoleManager},
	{"finance@x.io", "finance123", "Fin", "Ance", permission.RoleFinance},
	{"caller@x.io", "caller123", "Cal", "Ler", permission.RoleCaller},
	{"marketing@x.io", "marketing123", "Mark", "Eting", permission.RoleMarketing},
	{"backoffice@x.io", "backoffice123", "Bo", "Office", permission.RoleBackOffice},
}

type userCreator interface {
	Create(ctx context.Context, req user.CreateUserRequest) (*user.User, error)
}

type permissionSeeder interface {
	ListPermissions(ctx context.Context) ([]permission.PagePermission, error)
	Reset(ctx context.Context) error
}

type seeder struct {
	users       userCreator
	permissions permissionSeeder
	clearUsers  func(ctx context.Context) error
	out         io.Writer
}

// run is idempotent: existing accounts are left as they are unless clear is set.
func (s seeder) run(ctx context.Context, clear bool) error {
	if clear {
		if err := s.clearUsers(ctx); err != nil {
			return fmt.Errorf("failed to clear users: %w", err)
		}
		if err := s.permissions.Reset(ctx); err != nil {
			return fmt.Errorf("failed to reset page permissions: %w", err)
		}
		fmt.Fprintln(s.out, "Cleared users and reset page permissions")
	}

	for _, u := range seedUsers {
		_, err := s.users.Create(ctx, user.CreateUserRequest{
			Email:     u.Email,
			Password:  u.Password,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Role:      string(u.Role),
		})
		switch {
		case err == nil:
			fmt.Fprintf(s.out, "Seeded %s user: %s\n", u.Role, u.Email)
		case errors.Is(err, internal.ErrEmailTaken):
			fmt.Fprintf(s.out, "%s already exists\n", u.Email)
		default:
			return fmt.Errorf("failed to seed user %s: %w", u.Email, err)
		}
	}

	perms, err := s.permissions.ListPermissions(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed page permissions: %w", err)
	}
	fmt.Fprintf(s.out, "Page permission table has %d pages\n", len(perms))
	return nil
}
