package permission

import (
	"context"
	"time"
)

// Page ids of the guarded screens.
const (
	PageDashboard     = "dashboard"
	PageLeads         = "leads"
	PageBookings      = "bookings"
	PageItineraries   = "itineraries"
	PageHotels        = "hotels"
	PagePayments      = "payments"
	PageTransfers     = "transfers"
	PageNotifications = "notifications"
	PageReports       = "reports"
	PageUsers         = "users"
	PageSettings      = "settings"
)

// PagePermission lists the roles allowed to open one page. A page without a record is closed to everyone.
type PagePermission struct {
	PageID    string    `json:"page_id"`
	Label     string    `json:"label"`
	Path      string    `json:"path"`
	Roles     []Role    `json:"roles"`
	Position  int       `json:"position"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p PagePermission) Allows(role Role) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type Repository interface {
	List(ctx context.Context) ([]PagePermission, error)
	Get(ctx context.Context, pageID string) (*PagePermission, error)
	Count(ctx context.Context) (int, error)
	// Seed inserts the given records, leaving existing page ids untouched.
	Seed(ctx context.Context, perms []PagePermission) error
	UpdateRoles(ctx context.Context, pageID string, roles []Role) error
	Clear(ctx context.Context) error
}

// DefaultPermissions is the table installed on first use.
func DefaultPermissions() []PagePermission {
	all := AllRoles()
	return withPositions([]PagePermission{
		{PageID: PageDashboard, Label: "Dashboard", Path: "/", Roles: all},
		{PageID: PageLeads, Label: "Leads", Path: "/leads", Roles: []Role{RoleAdmin, RoleManager, RoleCaller, RoleMarketing}},
		{PageID: PageBookings, Label: "Bookings", Path: "/bookings", Roles: []Role{RoleAdmin, RoleManager, RoleBackOffice, RoleFinance}},
		{PageID: PageItineraries, Label: "Itineraries", Path: "/itineraries", Roles: []Role{RoleAdmin, RoleManager, RoleBackOffice}},
		{PageID: PageHotels, Label: "Hotels", Path: "/hotels", Roles: []Role{RoleAdmin, RoleManager, RoleBackOffice}},
		{PageID: PagePayments, Label: "Payments", Path: "/payments", Roles: []Role{RoleAdmin, RoleFinance}},
		{PageID: PageTransfers, Label: "Transfers", Path: "/transfers", Roles: []Role{RoleAdmin, RoleManager, RoleBackOffice}},
		{PageID: PageNotifications, Label: "Notifications", Path: "/notifications", Roles: all},
		{PageID: PageReports, Label: "Reports", Path: "/reports", Roles: []Role{RoleAdmin, RoleManager, RoleFinance, RoleMarketing}},
		{PageID: PageUsers, Label: "Users", Path: "/users", Roles: []Role{RoleAdmin}},
		{PageID: PageSettings, Label: "Settings", Path: "/settings", Roles: []Role{RoleAdmin}},
	})
}

func withPositions(perms []PagePermission) []PagePermission {
	for i := range perms {
		perms[i].Position = i + 1
	}
	return perms
}
