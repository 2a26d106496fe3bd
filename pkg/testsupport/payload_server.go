package testsupport

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
)

// RecordedRequest is one request seen by PayloadServer.
type RecordedRequest struct {
	Method        string
	Collection    string
	ID            string
	Query         url.Values
	Body          map[string]any
	Filename      string
	Authorization string
}

// PayloadServer is an in-memory stand-in for the Payload REST API. It keeps
// documents per collection, understands equals/in where clauses and paging,
// accepts multipart uploads and logins, and records every request.
type PayloadServer struct {
	URL string

	// Token is issued on login and, when RequireAuth is set, expected on
	// every other request as "<TokenScheme> <Token>".
	Token       string
	TokenScheme string
	RequireAuth bool

	mu         sync.Mutex
	docs       map[string][]map[string]any
	users      map[string]string
	nextID     int
	requests   []RecordedRequest
	failures   map[string][]int
	httpServer *httptest.Server
}

// ServerOption configures a PayloadServer.
type ServerOption func(*PayloadServer)

// WithUser registers a login for the users collection.
func WithUser(email, password string) ServerOption {
	return func(s *PayloadServer) { s.users[email] = password }
}

// WithRequiredAuth rejects requests without the issued token.
func WithRequiredAuth(scheme string) ServerOption {
	return func(s *PayloadServer) {
		s.RequireAuth = true
		if scheme != "" {
			s.TokenScheme = scheme
		}
	}
}

// NewPayloadServer starts a server that is closed when t finishes.
func NewPayloadServer(t testing.TB, opts ...ServerOption) *PayloadServer {
	t.Helper()
	s := &PayloadServer{
		Token:       "test-token",
		TokenScheme: "Bearer",
		docs:        map[string][]map[string]any{},
		users:       map[string]string{},
		failures:    map[string][]int{},
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	api := e.Group("/api")
	api.POST("/:collection/login", s.login)
	api.GET("/:collection", s.find)
	api.POST("/:collection", s.create)
	api.PATCH("/:collection/:id", s.update)
	api.DELETE("/:collection/:id", s.remove)

	s.httpServer = httptest.NewServer(e)
	s.URL = s.httpServer.URL
	t.Cleanup(s.httpServer.Close)
	return s
}

// Seed stores docs in collection, assigning ids, and returns the stored copies.
func (s *PayloadServer) Seed(collection string, docs ...map[string]any) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		stored := s.storeLocked(collection, doc)
		out = append(out, maps.Clone(stored))
	}
	return out
}

// Docs returns copies of the documents in collection in insertion order.
func (s *PayloadServer) Docs(collection string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0, len(s.docs[collection]))
	for _, doc := range s.docs[collection] {
		out = append(out, maps.Clone(doc))
	}
	return out
}

// Requests returns every recorded request.
func (s *PayloadServer) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// Count returns how many requests matched method and collection.
func (s *PayloadServer) Count(method, collection string) int {
	n := 0
	for _, req := range s.Requests() {
		if req.Method == method && req.Collection == collection {
			n++
		}
	}
	return n
}

// FailNext makes the next request for method and collection answer status.
func (s *PayloadServer) FailNext(method, collection string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + collection
	s.failures[key] = append(s.failures[key], status)
}

func (s *PayloadServer) record(c echo.Context, body map[string]any, filename string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req := c.Request()
	collection := c.Param("collection")
	s.requests = append(s.requests, RecordedRequest{
		Method:        req.Method,
		Collection:    collection,
		ID:            c.Param("id"),
		Query:         c.QueryParams(),
		Body:          body,
		Filename:      filename,
		Authorization: req.Header.Get("Authorization"),
	})
	key := req.Method + " " + collection
	if queued := s.failures[key]; len(queued) > 0 {
		s.failures[key] = queued[1:]
		return queued[0], false
	}
	return 0, true
}

func (s *PayloadServer) authorized(c echo.Context) bool {
	if !s.RequireAuth {
		return true
	}
	return c.Request().Header.Get("Authorization") == s.TokenScheme+" "+s.Token
}

func errorBody(message string) map[string]any {
	return map[string]any{"errors": []map[string]any{{"message": message}}}
}

func (s *PayloadServer) login(c echo.Context) error {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(c.Request().Body).Decode(&creds); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid login body"))
	}
	if status, ok := s.record(c, map[string]any{"email": creds.Email}, ""); !ok {
		return c.JSON(status, errorBody("injected failure"))
	}
	s.mu.Lock()
	password, known := s.users[creds.Email]
	s.mu.Unlock()
	if !known || password != creds.Password {
		return c.JSON(http.StatusUnauthorized, errorBody("The email or password provided is incorrect."))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message": "Auth Passed",
		"token":   s.Token,
		"exp":     1893456000,
		"user":    map[string]any{"id": "user-1", "email": creds.Email, "collection": c.Param("collection")},
	})
}

func (s *PayloadServer) find(c echo.Context) error {
	if status, ok := s.record(c, nil, ""); !ok {
		return c.JSON(status, errorBody("injected failure"))
	}
	if !s.authorized(c) {
		return c.JSON(http.StatusForbidden, errorBody("You are not allowed to perform this action."))
	}

	filters := parseWhere(c.QueryParams())
	limit := intParam(c.QueryParam("limit"), 10)
	page := intParam(c.QueryParam("page"), 1)

	s.mu.Lock()
	matched := []map[string]any{}
	for _, doc := range s.docs[c.Param("collection")] {
		if matchesAll(doc, filters) {
			matched = append(matched, maps.Clone(doc))
		}
	}
	s.mu.Unlock()

	total := len(matched)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	totalPages := (total + limit - 1) / limit
	return c.JSON(http.StatusOK, map[string]any{
		"docs":        matched[start:end],
		"totalDocs":   total,
		"limit":       limit,
		"page":        page,
		"totalPages":  totalPages,
		"hasNextPage": page < totalPages,
	})
}

func (s *PayloadServer) create(c echo.Context) error {
	body, filename, err := readBody(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
	}
	if status, ok := s.record(c, body, filename); !ok {
		return c.JSON(status, errorBody("injected failure"))
	}
	if !s.authorized(c) {
		return c.JSON(http.StatusForbidden, errorBody("You are not allowed to perform this action."))
	}
	if filename != "" {
		body["filename"] = filename
	}
	s.mu.Lock()
	stored := maps.Clone(s.storeLocked(c.Param("collection"), body))
	s.mu.Unlock()
	return c.JSON(http.StatusCreated, map[string]any{"doc": stored, "message": "Successfully created."})
}

func (s *PayloadServer) update(c echo.Context) error {
	body, _, err := readBody(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
	}
	if status, ok := s.record(c, body, ""); !ok {
		return c.JSON(status, errorBody("injected failure"))
	}
	if !s.authorized(c) {
		return c.JSON(http.StatusForbidden, errorBody("You are not allowed to perform this action."))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range s.docs[c.Param("collection")] {
		if fmt.Sprint(doc["id"]) == c.Param("id") {
			for key, value := range body {
				if key != "id" {
					doc[key] = value
				}
			}
			return c.JSON(http.StatusOK, map[string]any{"doc": maps.Clone(doc), "message": "Updated successfully."})
		}
	}
	return c.JSON(http.StatusNotFound, errorBody("The requested resource was not found."))
}

func (s *PayloadServer) remove(c echo.Context) error {
	if status, ok := s.record(c, nil, ""); !ok {
		return c.JSON(status, errorBody("injected failure"))
	}
	if !s.authorized(c) {
		return c.JSON(http.StatusForbidden, errorBody("You are not allowed to perform this action."))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	collection := c.Param("collection")
	docs := s.docs[collection]
	for i, doc := range docs {
		if fmt.Sprint(doc["id"]) == c.Param("id") {
			s.docs[collection] = append(docs[:i:i], docs[i+1:]...)
			return c.JSON(http.StatusOK, map[string]any{"doc": doc, "message": "Deleted successfully."})
		}
	}
	return c.JSON(http.StatusNotFound, errorBody("The requested resource was not found."))
}

func (s *PayloadServer) storeLocked(collection string, doc map[string]any) map[string]any {
	stored := maps.Clone(doc)
	if stored == nil {
		stored = map[string]any{}
	}
	if _, ok := stored["id"]; !ok {
		s.nextID++
		stored["id"] = fmt.Sprintf("%s-%d", collection, s.nextID)
	}
	s.docs[collection] = append(s.docs[collection], stored)
	return stored
}

func readBody(c echo.Context) (map[string]any, string, error) {
	req := c.Request()
	if strings.HasPrefix(req.Header.Get("Content-Type"), "multipart/form-data") {
		form, err := c.MultipartForm()
		if err != nil {
			return nil, "", err
		}
		body := map[string]any{}
		for key, values := range form.Value {
			if len(values) > 0 {
				body[key] = values[0]
			}
		}
		filename := ""
		if files := form.File["file"]; len(files) > 0 {
			filename = files[0].Filename
			body["filesize"] = files[0].Size
		}
		return body, filename, nil
	}
	raw, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, "", err
	}
	body := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, "", err
		}
	}
	return body, "", nil
}

var wherePattern = regexp.MustCompile(`^where\[([^\]]+)\]\[([^\]]+)\](?:\[\d+\])?$`)

type filter struct {
	field    string
	operator string
	values   []string
}

func parseWhere(query url.Values) []filter {
	grouped := map[string]*filter{}
	var order []string
	for key, values := range query {
		m := wherePattern.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		id := m[1] + "|" + m[2]
		f, ok := grouped[id]
		if !ok {
			f = &filter{field: m[1], operator: m[2]}
			grouped[id] = f
			order = append(order, id)
		}
		for _, v := range values {
			if m[2] == "in" && strings.Contains(v, ",") {
				f.values = append(f.values, strings.Split(v, ",")...)
				continue
			}
			f.values = append(f.values, v)
		}
	}
	out := make([]filter, 0, len(order))
	for _, id := range order {
		out = append(out, *grouped[id])
	}
	return out
}

func matchesAll(doc map[string]any, filters []filter) bool {
	for _, f := range filters {
		value := fmt.Sprint(doc[f.field])
		if _, ok := doc[f.field]; !ok {
			return false
		}
		matched := false
		for _, candidate := range f.values {
			if candidate == value {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func intParam(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
