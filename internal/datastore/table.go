package datastore

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/travel-backoffice/internal"
)

// TableSpec describes how rows of one table are read by default.
type TableSpec struct {
	Name string
	// Select is the default select list, including embedded relations. Defaults to "*".
	Select string
	// Order defaults to newest first by created_at.
	Order []Order
}

// Table is the CRUD surface shared by every entity service, expressed on top of Request.
type Table[T any] struct {
	client  *Client
	spec    TableSpec
	timeout time.Duration
}

func NewTable[T any](client *Client, spec TableSpec) *Table[T] {
	if spec.Select == "" {
		spec.Select = "*"
	}
	if len(spec.Order) == 0 {
		spec.Order = []Order{Desc("created_at")}
	}
	return &Table[T]{client: client, spec: spec}
}

func (t *Table[T]) Name() string {
	return t.spec.Name
}

// WithTimeout returns a copy of the table whose calls use d instead of the client default.
func (t *Table[T]) WithTimeout(d time.Duration) *Table[T] {
	cp := *t
	cp.timeout = d
	return &cp
}

func (t *Table[T]) FetchAll(ctx context.Context) Result[[]T] {
	return t.Find(ctx, Query{})
}

// Find selects rows matching q. Select and order fall back to the table defaults.
// The value is never nil on success.
func (t *Table[T]) Find(ctx context.Context, q Query) Result[[]T] {
	if q.Select == "" {
		q.Select = t.spec.Select
	}
	if q.Order == nil {
		q.Order = t.spec.Order
	}
	res := Request[[]T](ctx, t.client, Operation{Method: MethodSelect, Table: t.spec.Name, Query: q}, t.timeout)
	if res.OK() && res.Value == nil {
		res.Value = []T{}
	}
	return res
}

func (t *Table[T]) FetchByID(ctx context.Context, id string) Result[T] {
	res := t.Find(ctx, Query{Filters: []Filter{Eq("id", id)}, Limit: 1})
	return t.first(res, id)
}

// Create inserts one row and returns it as persisted, with server-assigned fields.
func (t *Table[T]) Create(ctx context.Context, record interface{}) Result[T] {
	op := Operation{
		Method: MethodInsert,
		Table:  t.spec.Name,
		Query:  Query{Select: t.spec.Select},
		Body:   record,
	}
	res := Request[[]T](ctx, t.client, op, t.timeout)
	if !res.OK() {
		return Result[T]{Err: res.Err, Status: res.Status, StatusCode: res.StatusCode}
	}
	if len(res.Value) == 0 {
		return Fail[T](internal.NewServerError(fmt.Sprintf("store returned no %s row for insert", t.spec.Name), res.StatusCode))
	}
	return Ok(res.Value[0], res.StatusCode)
}

// Update patches the row with the given id. A missing id yields a NotFound error.
func (t *Table[T]) Update(ctx context.Context, id string, patch interface{}) Result[T] {
	res := t.UpdateWhere(ctx, []Filter{Eq("id", id)}, patch)
	return t.first(res, id)
}

// UpdateWhere patches every row matching filters and returns the updated rows.
func (t *Table[T]) UpdateWhere(ctx context.Context, filters []Filter, patch interface{}) Result[[]T] {
	op := Operation{
		Method: MethodUpdate,
		Table:  t.spec.Name,
		Query:  Query{Select: t.spec.Select, Filters: filters},
		Body:   patch,
	}
	res := Request[[]T](ctx, t.client, op, t.timeout)
	if res.OK() && res.Value == nil {
		res.Value = []T{}
	}
	return res
}

// Delete removes the row with the given id. Deleting an id that does not exist succeeds.
func (t *Table[T]) Delete(ctx context.Context, id string) Result[Empty] {
	op := Operation{
		Method: MethodDelete,
		Table:  t.spec.Name,
		Query:  Query{Filters: []Filter{Eq("id", id)}},
	}
	return Request[Empty](ctx, t.client, op, t.timeout)
}

func (t *Table[T]) first(res Result[[]T], id string) Result[T] {
	if !res.OK() {
		return Result[T]{Err: res.Err, Status: res.Status, StatusCode: res.StatusCode}
	}
	if len(res.Value) == 0 {
		return Fail[T](internal.ErrNotFound.WithMessage(fmt.Sprintf("%s %s not found", t.spec.Name, id)))
	}
	return Ok(res.Value[0], res.StatusCode)
}
