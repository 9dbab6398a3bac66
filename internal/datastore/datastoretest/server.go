// Package datastoretest runs an in-process table store that speaks the subset of the
// REST dialect used by the datastore client: filters, or-groups, ordering, paging,
// one-level embedding, inserts, patches and deletes.
package datastoretest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/travel-backoffice/internal/datastore"
)

const APIKey = "test-service-key"

// BaseTime is the created_at of the first inserted row; each later insert is one second newer.
var BaseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type Row = map[string]interface{}

// RecordedRequest is a request the server received.
type RecordedRequest struct {
	Method string
	Table  string
	Query  url.Values
	Header http.Header
	Body   []byte
}

type failure struct {
	status  int
	message string
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	tables   map[string][]Row
	unique   map[string][]string
	seq      int
	delay    time.Duration
	failures map[string]failure
	requests []RecordedRequest
}

func NewServer() *Server {
	s := &Server{
		tables:   make(map[string][]Row),
		unique:   make(map[string][]string),
		failures: make(map[string]failure),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Config returns a client configuration pointing at this server.
func (s *Server) Config() datastore.Config {
	return datastore.Config{BaseURL: s.URL, APIKey: APIKey}
}

// Seed inserts rows as-is, assigning id and created_at only where missing.
func (s *Server) Seed(table string, rows ...Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		s.tables[table] = append(s.tables[table], s.stamp(copyRow(r)))
	}
}

// Rows returns a snapshot of a table.
func (s *Server) Rows(table string) []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Row, 0, len(s.tables[table]))
	for _, r := range s.tables[table] {
		out = append(out, copyRow(r))
	}
	return out
}

// Unique makes inserts that repeat a value of column fail with a conflict.
func (s *Server) Unique(table, column string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unique[table] = append(s.unique[table], column)
}

// SetDelay holds every response for d, or until the request is cancelled.
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// FailWith makes every request against table answer with status and message.
// An empty table applies to all tables. A zero status clears the failure.
func (s *Server) FailWith(table string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, table)
		return
	}
	s.failures[table] = failure{status: status, message: message}
}

func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

func (s *Server) LastRequest() RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return RecordedRequest{}
	}
	return s.requests[len(s.requests)-1]
}

// Reset drops all rows, hooks and recorded requests.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = make(map[string][]Row)
	s.unique = make(map[string][]string)
	s.failures = make(map[string]failure)
	s.requests = nil
	s.delay = 0
	s.seq = 0
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	table := strings.TrimPrefix(r.URL.Path, "/rest/v1/")
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.requests = append(s.requests, RecordedRequest{
		Method: r.Method,
		Table:  table,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	})
	delay := s.delay
	fail, failing := s.failures[table]
	if !failing {
		fail, failing = s.failures[""]
	}
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if r.Header.Get("apikey") != APIKey || r.Header.Get("Authorization") != "Bearer "+APIKey {
		writeError(w, http.StatusUnauthorized, "Invalid API key", "PGRST301")
		return
	}
	if failing {
		writeError(w, fail.status, fail.message, "")
		return
	}

	query := r.URL.Query()
	preds, err := parsePredicates(query)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "PGRST100")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleSelect(w, table, query, preds)
	case http.MethodPost:
		s.handleInsert(w, r, table, query, body)
	case http.MethodPatch:
		s.handleUpdate(w, r, table, query, preds, body)
	case http.MethodDelete:
		s.handleDelete(w, table, preds)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
	}
}

func (s *Server) handleSelect(w http.ResponseWriter, table string, query url.Values, preds []predicate) {
	s.mu.Lock()
	rows := make([]Row, 0)
	for _, row := range s.tables[table] {
		if matchAll(row, preds) {
			rows = append(rows, copyRow(row))
		}
	}
	s.mu.Unlock()

	if order := query.Get("order"); order != "" {
		sortRows(rows, order)
	}
	if off, err := strconv.Atoi(query.Get("offset")); err == nil && off > 0 {
		if off >= len(rows) {
			rows = rows[:0]
		} else {
			rows = rows[off:]
		}
	}
	if lim, err := strconv.Atoi(query.Get("limit")); err == nil && lim >= 0 && lim < len(rows) {
		rows = rows[:lim]
	}

	writeJSON(w, http.StatusOK, s.embed(table, rows, query.Get("select")))
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request, table string, query url.Values, body []byte) {
	incoming, err := decodeRows(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "PGRST102")
		return
	}

	s.mu.Lock()
	created := make([]Row, 0, len(incoming))
	for _, row := range incoming {
		if col, dup := s.violatesUnique(table, row, ""); dup {
			s.mu.Unlock()
			writeError(w, http.StatusConflict,
				fmt.Sprintf("duplicate key value violates unique constraint \"%s_%s_key\"", table, col), "23505")
			return
		}
		row = s.stamp(row)
		s.tables[table] = append(s.tables[table], row)
		created = append(created, copyRow(row))
	}
	s.mu.Unlock()

	if !wantsRepresentation(r) {
		w.WriteHeader(http.StatusCreated)
		return
	}
	writeJSON(w, http.StatusCreated, s.embed(table, created, query.Get("select")))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request, table string, query url.Values, preds []predicate, body []byte) {
	var patch Row
	if err := json.Unmarshal(body, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "could not parse patch body", "PGRST102")
		return
	}

	s.mu.Lock()
	updated := make([]Row, 0)
	for _, row := range s.tables[table] {
		if !matchAll(row, preds) {
			continue
		}
		for k, v := range patch {
			if k == "id" {
				continue
			}
			row[k] = v
		}
		row["updated_at"] = s.now().Format(time.RFC3339)
		updated = append(updated, copyRow(row))
	}
	s.mu.Unlock()

	if !wantsRepresentation(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, s.embed(table, updated, query.Get("select")))
}

func (s *Server) handleDelete(w http.ResponseWriter, table string, preds []predicate) {
	s.mu.Lock()
	kept := make([]Row, 0, len(s.tables[table]))
	for _, row := range s.tables[table] {
		if !matchAll(row, preds) {
			kept = append(kept, row)
		}
	}
	s.tables[table] = kept
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// stamp assigns id and created_at where missing. Callers hold s.mu.
func (s *Server) stamp(row Row) Row {
	s.seq++
	if id, ok := row["id"]; !ok || id == nil || id == "" {
		row["id"] = uuid.NewString()
	}
	if _, ok := row["created_at"]; !ok {
		row["created_at"] = BaseTime.Add(time.Duration(s.seq) * time.Second).Format(time.RFC3339)
	}
	return row
}

func (s *Server) now() time.Time {
	s.seq++
	return BaseTime.Add(time.Duration(s.seq) * time.Second)
}

func (s *Server) violatesUnique(table string, row Row, skipID string) (string, bool) {
	for _, col := range s.unique[table] {
		v, ok := row[col]
		if !ok || v == nil {
			continue
		}
		for _, existing := range s.tables[table] {
			if fmt.Sprint(existing["id"]) == skipID {
				continue
			}
			if fmt.Sprint(existing[col]) == fmt.Sprint(v) {
				return col, true
			}
		}
	}
	return "", false
}

var embedPattern = regexp.MustCompile(`^(?:(\w+):)?(\w+)(?:!\w+)?\((.*)\)$`)

// embed resolves `alias:table(...)` items of the select list one level deep. An
// aliased item, or a row with an `<alias>_id` column, gets the referenced row or null;
// otherwise the related rows pointing back through `<singular table>_id` are
// embedded as a list.
func (s *Server) embed(table string, rows []Row, selectList string) []Row {
	items := splitTopLevel(selectList)
	if len(items) == 0 {
		return rows
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		m := embedPattern.FindStringSubmatch(strings.TrimSpace(item))
		if m == nil {
			continue
		}
		alias, related := m[1], m[2]
		if alias == "" {
			alias = related
		}
		fk := alias + "_id"
		backRef := strings.TrimSuffix(table, "s") + "_id"
		for _, row := range rows {
			if refID, ok := row[fk]; ok || alias != related {
				row[alias] = nil
				for _, candidate := range s.tables[related] {
					if ok && refID != nil && fmt.Sprint(candidate["id"]) == fmt.Sprint(refID) {
						row[alias] = copyRow(candidate)
						break
					}
				}
				continue
			}
			children := make([]Row, 0)
			for _, candidate := range s.tables[related] {
				if fmt.Sprint(candidate[backRef]) == fmt.Sprint(row["id"]) {
					children = append(children, copyRow(candidate))
				}
			}
			row[alias] = children
		}
	}
	return rows
}

type predicate struct {
	any     bool
	filters []filter
}

type filter struct {
	column string
	op     string
	value  string
	negate bool
}

var reserved = map[string]bool{"select": true, "order": true, "limit": true, "offset": true, "or": true, "on_conflict": true, "columns": true}

func parsePredicates(query url.Values) ([]predicate, error) {
	var preds []predicate
	for col, values := range query {
		if reserved[col] {
			continue
		}
		for _, v := range values {
			f, err := parseFilter(col, v)
			if err != nil {
				return nil, err
			}
			preds = append(preds, predicate{filters: []filter{f}})
		}
	}
	if or := query.Get("or"); or != "" {
		inner := strings.TrimSuffix(strings.TrimPrefix(or, "("), ")")
		var group []filter
		for _, part := range splitTopLevel(inner) {
			pieces := strings.SplitN(part, ".", 2)
			if len(pieces) != 2 {
				return nil, fmt.Errorf("malformed or filter %q", part)
			}
			f, err := parseFilter(pieces[0], pieces[1])
			if err != nil {
				return nil, err
			}
			if f.op != "in" {
				f.value = unquote(f.value)
			}
			group = append(group, f)
		}
		preds = append(preds, predicate{any: true, filters: group})
	}
	return preds, nil
}

func parseFilter(column, expr string) (filter, error) {
	f := filter{column: column}
	if strings.HasPrefix(expr, "not.") {
		f.negate = true
		expr = strings.TrimPrefix(expr, "not.")
	}
	parts := strings.SplitN(expr, ".", 2)
	if len(parts) != 2 {
		return f, fmt.Errorf("malformed filter %s=%s", column, expr)
	}
	f.op, f.value = parts[0], parts[1]
	switch f.op {
	case "eq", "neq", "gt", "gte", "lt", "lte", "is", "ilike", "like", "in":
	default:
		return f, fmt.Errorf("unsupported operator %q", f.op)
	}
	return f, nil
}

func matchAll(row Row, preds []predicate) bool {
	for _, p := range preds {
		if p.any {
			ok := false
			for _, f := range p.filters {
				if f.match(row) {
					ok = true
					break
				}
			}
			if !ok {
				return false
			}
			continue
		}
		for _, f := range p.filters {
			if !f.match(row) {
				return false
			}
		}
	}
	return true
}

func (f filter) match(row Row) bool {
	result := f.eval(row[f.column])
	if f.negate {
		return !result
	}
	return result
}

func (f filter) eval(v interface{}) bool {
	switch f.op {
	case "is":
		switch f.value {
		case "null":
			return v == nil
		case "true":
			return v == true
		case "false":
			return v == false
		}
		return false
	case "in":
		if v == nil {
			return false
		}
		inner := strings.TrimSuffix(strings.TrimPrefix(f.value, "("), ")")
		for _, candidate := range splitTopLevel(inner) {
			if scalar(v) == unquote(candidate) {
				return true
			}
		}
		return false
	case "ilike", "like":
		if v == nil {
			return false
		}
		pattern := regexp.QuoteMeta(f.value)
		pattern = strings.ReplaceAll(pattern, `\*`, ".*")
		pattern = strings.ReplaceAll(pattern, "%", ".*")
		if f.op == "ilike" {
			pattern = "(?i)" + pattern
		}
		ok, _ := regexp.MatchString("^"+pattern+"$", scalar(v))
		return ok
	}

	if v == nil {
		return false
	}
	c := compare(scalar(v), f.value)
	switch f.op {
	case "eq":
		return c == 0
	case "neq":
		return c != 0
	case "gt":
		return c > 0
	case "gte":
		return c >= 0
	case "lt":
		return c < 0
	case "lte":
		return c <= 0
	}
	return false
}

func scalar(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// compare orders two values numerically, as timestamps, or lexically, in that preference.
func compare(a, b string) int {
	if fa, err := strconv.ParseFloat(a, 64); err == nil {
		if fb, err := strconv.ParseFloat(b, 64); err == nil {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	if ta, err := time.Parse(time.RFC3339Nano, a); err == nil {
		if tb, err := time.Parse(time.RFC3339Nano, b); err == nil {
			return ta.Compare(tb)
		}
	}
	return strings.Compare(a, b)
}

func sortRows(rows []Row, order string) {
	type key struct {
		column string
		desc   bool
	}
	var keys []key
	for _, part := range strings.Split(order, ",") {
		pieces := strings.Split(part, ".")
		k := key{column: pieces[0]}
		for _, p := range pieces[1:] {
			if p == "desc" {
				k.desc = true
			}
		}
		keys = append(keys, k)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range keys {
			a, b := rows[i][k.column], rows[j][k.column]
			if a == nil && b == nil {
				continue
			}
			// nulls last
			if a == nil {
				return false
			}
			if b == nil {
				return true
			}
			c := compare(scalar(a), scalar(b))
			if c == 0 {
				continue
			}
			if k.desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func splitTopLevel(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var parts []string
	depth, start := 0, 0
	inQuote, escaped := false, false
	for i, r := range s {
		switch {
		case escaped:
			escaped = false
			continue
		case inQuote && r == '\\':
			escaped = true
			continue
		case r == '"':
			inQuote = !inQuote
			continue
		case inQuote:
			continue
		}
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// unquote strips the double quotes of a list value and resolves its backslash escapes.
func unquote(v string) string {
	if len(v) < 2 || v[0] != '"' || v[len(v)-1] != '"' {
		return v
	}
	var b strings.Builder
	escaped := false
	for _, r := range v[1 : len(v)-1] {
		if !escaped && r == '\\' {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}

func decodeRows(body []byte) ([]Row, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var rows []Row
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("could not parse insert body: %w", err)
		}
		return rows, nil
	}
	var row Row
	if err := json.Unmarshal(body, &row); err != nil {
		return nil, fmt.Errorf("could not parse insert body: %w", err)
	}
	return []Row{row}, nil
}

func wantsRepresentation(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Prefer"), "return=representation")
}

func copyRow(r Row) Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, map[string]interface{}{
		"message": message,
		"code":    code,
		"details": nil,
		"hint":    nil,
	})
}
