package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/travel-backoffice/internal/permission"
	"github.com/frahmantamala/travel-backoffice/internal/session"
	"github.com/frahmantamala/travel-backoffice/internal/transport"
)

var _ = ginkgo.Describe("Handler", func() {
	var (
		router   chi.Router
		sessions *session.MemoryStore
		issuer   *TokenIssuer
	)

	ginkgo.BeforeEach(func() {
		sessions = session.NewMemoryStore()
		permissions := permission.NewService(newMemoryPermissions(), quietLogger)
		svc := NewService(newMockUserRepository(), sessions, permissions, Config{}, quietLogger)
		issuer = NewTokenIssuer("handler-secret", 0)
		guard := NewGuard(svc, quietLogger)
		base := transport.NewBaseHandler(quietLogger)
		h := NewHandler(base, svc, issuer, guard)

		router = chi.NewRouter()
		router.Use(SessionMiddleware(issuer, base))
		router.Route("/auth", h.Routes)
		router.With(guard.Require(permission.PagePayments)).Get("/payments", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	do := func(method, path, token, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	login := func(email, password string) string {
		rec := do(http.MethodPost, "/auth/login", "", `{"email":"`+email+`","password":"`+password+`"}`)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		var resp LoginResponse
		gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(gomega.Succeed())
		gomega.Expect(resp.User.Email).To(gomega.Equal(email))
		return resp.Token
	}

	ginkgo.It("should issue a token scoped to a new client", func() {
		token := login("admin@x.io", "admin123")

		scope, err := issuer.ParseScope(token)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(scope).ToNot(gomega.BeEmpty())

		rec := do(http.MethodGet, "/auth/me", token, "")
		gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring(`"state":"logged_in"`))
		gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring(`"email":"admin@x.io"`))
	})

	ginkgo.It("should keep two clients apart", func() {
		admin := login("admin@x.io", "admin123")
		marketing := login("mkt@x.io", "market123")

		gomega.Expect(do(http.MethodGet, "/payments", admin, "").Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(do(http.MethodGet, "/payments", marketing, "").Code).To(gomega.Equal(http.StatusForbidden))
	})

	ginkgo.It("should answer 401 on guarded routes without a session", func() {
		gomega.Expect(do(http.MethodGet, "/payments", "", "").Code).To(gomega.Equal(http.StatusUnauthorized))
	})

	ginkgo.It("should answer 401 for a tampered token", func() {
		gomega.Expect(do(http.MethodGet, "/auth/me", "abc.def.ghi", "").Code).To(gomega.Equal(http.StatusUnauthorized))
	})

	ginkgo.It("should reject bad credentials with 401", func() {
		rec := do(http.MethodPost, "/auth/login", "", `{"email":"admin@x.io","password":"nope"}`)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
	})

	ginkgo.It("should reject a malformed login body with 400", func() {
		rec := do(http.MethodPost, "/auth/login", "", `{"email":"not-an-email","password":"x"}`)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
	})

	ginkgo.It("should log out and report the scope as logged out", func() {
		token := login("admin@x.io", "admin123")

		gomega.Expect(do(http.MethodPost, "/auth/logout", token, "").Code).To(gomega.Equal(http.StatusNoContent))
		gomega.Expect(do(http.MethodPost, "/auth/logout", token, "").Code).To(gomega.Equal(http.StatusNoContent))

		rec := do(http.MethodGet, "/auth/me", token, "")
		gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring(`"state":"logged_out"`))
		gomega.Expect(do(http.MethodGet, "/payments", token, "").Code).To(gomega.Equal(http.StatusUnauthorized))
	})

	ginkgo.It("should explain navigation decisions", func() {
		token := login("mkt@x.io", "market123")

		rec := do(http.MethodGet, "/auth/can/payments", token, "")

		var resp DecisionResponse
		gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(gomega.Succeed())
		gomega.Expect(resp.Allowed).To(gomega.BeFalse())
		gomega.Expect(resp.Reason).To(gomega.Equal(ReasonForbidden))
	})
})

var _ = ginkgo.Describe("Guard", func() {
	ginkgo.It("should report no session before login", func() {
		permissions := permission.NewService(newMemoryPermissions(), quietLogger)
		guard := NewGuard(NewService(newMockUserRepository(), session.NewMemoryStore(), permissions, Config{}, quietLogger), quietLogger)

		d := guard.Allow(context.Background(), permission.PageDashboard)

		gomega.Expect(d.Allowed).To(gomega.BeFalse())
		gomega.Expect(d.Reason).To(gomega.Equal(ReasonNoSession))
	})
})
