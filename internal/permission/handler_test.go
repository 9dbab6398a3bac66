package permission_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/travel-backoffice/internal"
	"github.com/frahmantamala/travel-backoffice/internal/permission"
	"github.com/frahmantamala/travel-backoffice/internal/session"
	"github.com/frahmantamala/travel-backoffice/internal/transport"
)

// storeReader reads the session store as is, without a user record to check against.
type storeReader struct {
	*session.MemoryStore
}

func (r storeReader) CurrentUser(ctx context.Context) (*session.Principal, bool, error) {
	return r.GetCurrentUser(ctx)
}

var _ = Describe("Permission Handler", func() {
	var (
		sessions *session.MemoryStore
		router   chi.Router
		ctx      context.Context
	)

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		service := permission.NewService(NewMockRepository(), logger)
		sessions = session.NewMemoryStore()
		handler := permission.NewHandler(transport.NewBaseHandler(logger), service, storeReader{sessions})

		router = chi.NewRouter()
		router.Get("/permissions", handler.ListPermissions)
		router.Put("/permissions/{pageId}", handler.UpdateRoles)
		router.Get("/permissions/{pageId}/check", handler.Check)
		router.Get("/navigation", handler.Navigation)

		ctx = context.Background()
	})

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != nil {
			raw, _ := json.Marshal(body)
			reader = bytes.NewReader(raw)
		}
		req := httptest.NewRequest(method, path, reader).WithContext(ctx)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("lists the seeded permissions", func() {
		rec := do(http.MethodGet, "/permissions", nil)

		Expect(rec.Code).To(Equal(http.StatusOK))
		var resp permission.PermissionsResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Permissions).To(HaveLen(11))
	})

	It("replaces roles for a page", func() {
		rec := do(http.MethodPut, "/permissions/payments", permission.UpdateRolesRequest{Roles: []string{"admin"}})

		Expect(rec.Code).To(Equal(http.StatusOK))
		var updated permission.PagePermission
		Expect(json.Unmarshal(rec.Body.Bytes(), &updated)).To(Succeed())
		Expect(updated.Roles).To(ConsistOf(permission.RoleAdmin))
	})

	It("answers 404 for a page without a record", func() {
		rec := do(http.MethodPut, "/permissions/ghost", permission.UpdateRolesRequest{Roles: []string{"admin"}})

		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("answers 400 for unknown roles", func() {
		rec := do(http.MethodPut, "/permissions/payments", permission.UpdateRolesRequest{Roles: []string{"root"}})

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("checks against the current session", func() {
		ctx = internal.ContextWithClientID(context.Background(), "client-1")
		Expect(sessions.SetCurrentUser(ctx, session.Principal{ID: "u", Role: "marketing"})).To(Succeed())

		rec := do(http.MethodGet, "/permissions/payments/check", nil)

		var resp permission.CheckResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Allowed).To(BeFalse())
		Expect(resp.Role).To(Equal("marketing"))
	})

	It("denies checks without a session", func() {
		rec := do(http.MethodGet, "/permissions/dashboard/check", nil)

		var resp permission.CheckResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Allowed).To(BeFalse())
	})

	It("builds navigation for the session role", func() {
		Expect(sessions.SetCurrentUser(ctx, session.Principal{ID: "u", Role: "caller"})).To(Succeed())

		rec := do(http.MethodGet, "/navigation", nil)

		Expect(rec.Code).To(Equal(http.StatusOK))
		var resp permission.NavigationResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		paths := make([]string, 0, len(resp.Items))
		for _, item := range resp.Items {
			paths = append(paths, item.Path)
		}
		Expect(paths).To(Equal([]string{"/", "/leads", "/notifications"}))
	})

	It("requires a session for navigation", func() {
		rec := do(http.MethodGet, "/navigation", nil)

		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})
})
