package transport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/travel-backoffice/internal/core/common/validation"
	"github.com/frahmantamala/travel-backoffice/internal/datastore"
)

// CRUD is the five-operation surface every entity service offers.
type CRUD[T, C, U any] interface {
	FetchAll(ctx context.Context) datastore.Result[[]T]
	FetchByID(ctx context.Context, id string) datastore.Result[T]
	Create(ctx context.Context, in C) datastore.Result[T]
	Update(ctx context.Context, id string, in U) datastore.Result[T]
	Delete(ctx context.Context, id string) datastore.Result[datastore.Empty]
}

// Resource serves a CRUD service over REST. C and U are the create and patch bodies.
type Resource[T, C, U any] struct {
	*BaseHandler
	Service CRUD[T, C, U]
}

func NewResource[T, C, U any](baseHandler *BaseHandler, service CRUD[T, C, U]) *Resource[T, C, U] {
	return &Resource[T, C, U]{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (rs *Resource[T, C, U]) Routes(r chi.Router) {
	r.Get("/", rs.List)
	r.Post("/", rs.Create)
	r.Get("/{id}", rs.Get)
	r.Patch("/{id}", rs.Update)
	r.Delete("/{id}", rs.Delete)
}

func (rs *Resource[T, C, U]) List(w http.ResponseWriter, r *http.Request) {
	WriteResult(rs.BaseHandler, w, http.StatusOK, rs.Service.FetchAll(r.Context()))
}

func (rs *Resource[T, C, U]) Get(w http.ResponseWriter, r *http.Request) {
	WriteResult(rs.BaseHandler, w, http.StatusOK, rs.Service.FetchByID(r.Context(), chi.URLParam(r, "id")))
}

func (rs *Resource[T, C, U]) Create(w http.ResponseWriter, r *http.Request) {
	var in C
	if !rs.decode(w, r, &in) {
		return
	}
	WriteResult(rs.BaseHandler, w, http.StatusCreated, rs.Service.Create(r.Context(), in))
}

func (rs *Resource[T, C, U]) Update(w http.ResponseWriter, r *http.Request) {
	var in U
	if !rs.decode(w, r, &in) {
		return
	}
	WriteResult(rs.BaseHandler, w, http.StatusOK, rs.Service.Update(r.Context(), chi.URLParam(r, "id"), in))
}

func (rs *Resource[T, C, U]) Delete(w http.ResponseWriter, r *http.Request) {
	res := rs.Service.Delete(r.Context(), chi.URLParam(r, "id"))
	if !res.OK() {
		rs.WriteAppError(w, res.Err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rs *Resource[T, C, U]) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := rs.DecodeJSON(w, r, dst); err != nil {
		rs.WriteAppError(w, err)
		return false
	}
	if err := validation.Struct(dst); err != nil {
		rs.WriteAppError(w, err)
		return false
	}
	return true
}
