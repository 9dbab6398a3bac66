package datastore

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Method is the logical kind of an operation; the client maps it onto an HTTP verb.
type Method string

const (
	MethodSelect Method = "select"
	MethodInsert Method = "insert"
	MethodUpdate Method = "update"
	MethodDelete Method = "delete"
)

func (m Method) HTTPMethod() string {
	switch m {
	case MethodInsert:
		return http.MethodPost
	case MethodUpdate:
		return http.MethodPatch
	case MethodDelete:
		return http.MethodDelete
	default:
		return http.MethodGet
	}
}

// Operation is one logical request against a table.
type Operation struct {
	Method Method
	Table  string
	Query  Query
	// Body is serialised as JSON for every non-select operation.
	Body interface{}
}

// Filter is a single column predicate in the `column=op.value` form of the table store.
type Filter struct {
	Column   string
	Operator string
	Value    string
}

func (f Filter) expr() string {
	return f.Operator + "." + f.Value
}

// orExpr renders the filter inside an `or=(...)` group, where list syntax in the
// value has to be quoted.
func (f Filter) orExpr() string {
	value := f.Value
	if f.Operator != "in" {
		value = quoteListValue(value)
	}
	return f.Column + "." + f.Operator + "." + value
}

// listReserved are the characters the store reads as syntax inside `or=(...)` groups
// and `in.(...)` lists.
const listReserved = `,.:()"\`

var listEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// quoteListValue wraps v in double quotes when it holds list syntax or edge spaces.
func quoteListValue(v string) string {
	if !strings.ContainsAny(v, listReserved) && strings.TrimSpace(v) == v {
		return v
	}
	return `"` + listEscaper.Replace(v) + `"`
}

func Eq(column string, value interface{}) Filter {
	return Filter{Column: column, Operator: "eq", Value: toString(value)}
}

func Neq(column string, value interface{}) Filter {
	return Filter{Column: column, Operator: "neq", Value: toString(value)}
}

func Gte(column string, value interface{}) Filter {
	return Filter{Column: column, Operator: "gte", Value: toString(value)}
}

func Lte(column string, value interface{}) Filter {
	return Filter{Column: column, Operator: "lte", Value: toString(value)}
}

// Is matches against null, true or false.
func Is(column string, value string) Filter {
	return Filter{Column: column, Operator: "is", Value: value}
}

// ILike is a case-insensitive pattern match; `*` is the wildcard.
func ILike(column, pattern string) Filter {
	return Filter{Column: column, Operator: "ilike", Value: pattern}
}

func In(column string, values ...string) Filter {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quoteListValue(v)
	}
	return Filter{Column: column, Operator: "in", Value: "(" + strings.Join(quoted, ",") + ")"}
}

type Order struct {
	Column string
	Desc   bool
}

func Asc(column string) Order  { return Order{Column: column} }
func Desc(column string) Order { return Order{Column: column, Desc: true} }

// Query carries the select list, filters, ordering and paging of an operation.
type Query struct {
	Select  string
	Filters []Filter
	// Or groups its filters into a single disjunction.
	Or     []Filter
	Order  []Order
	Limit  int
	Offset int
}

func (q Query) Where(filters ...Filter) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), filters...)
	return q
}

func (q Query) OrderBy(orders ...Order) Query {
	q.Order = orders
	return q
}

// Values encodes the query as URL parameters.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Select != "" {
		v.Set("select", q.Select)
	}
	for _, f := range q.Filters {
		v.Add(f.Column, f.expr())
	}
	if len(q.Or) > 0 {
		parts := make([]string, len(q.Or))
		for i, f := range q.Or {
			parts[i] = f.orExpr()
		}
		v.Set("or", "("+strings.Join(parts, ",")+")")
	}
	if len(q.Order) > 0 {
		parts := make([]string, len(q.Order))
		for i, o := range q.Order {
			dir := "asc"
			if o.Desc {
				dir = "desc"
			}
			parts[i] = o.Column + "." + dir
		}
		v.Set("order", strings.Join(parts, ","))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	return v
}

func toString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
