package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/kanbanlab/kanban-app/database"
	"github.com/kanbanlab/kanban-app/services"
)

func newTestServer(t *testing.T) (*httptest.Server, database.Store) {
	t.Helper()

	store := database.NewMemoryStore()
	t.Cleanup(func() { store.Close() })

	auth := services.NewAuthService(store, services.AuthConfig{
		JWTSecret:  "test-secret",
		SessionTTL: time.Hour,
		BcryptCost: bcrypt.MinCost,
	})

	server := httptest.NewServer(NewRouter(RouterConfig{
		Store:       store,
		AuthService: auth,
		Assistant:   services.NewAssistant(store, services.AssistantConfig{}),
	}))
	t.Cleanup(server.Close)
	return server, store
}

// apiClient wraps a cookie-jarred http.Client for one user's session.
type apiClient struct {
	t    *testing.T
	base string
	http *http.Client
}

func newAPIClient(t *testing.T, server *httptest.Server) *apiClient {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &apiClient{t: t, base: server.URL, http: &http.Client{Jar: jar}}
}

func (c *apiClient) do(method, path string, body any) *http.Response {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("encode request: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	if err != nil {
		c.t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func (c *apiClient) register(email string) database.User {
	c.t.Helper()

	resp := c.do("POST", "/api/auth/register", map[string]string{
		"email":     email,
		"password":  "hunter22",
		"firstName": "Test",
		"lastName":  "User",
	})
	if resp.StatusCode != http.StatusCreated {
		c.t.Fatalf("register returned %d", resp.StatusCode)
	}
	var body struct {
		User database.User `json:"user"`
	}
	decodeBody(c.t, resp, &body)
	return body.User
}

func TestRegisterProvisionsDefaultBoard(t *testing.T) {
	server, _ := newTestServer(t)
	client := newAPIClient(t, server)

	user := client.register("new@example.com")
	if user.ID == "" || user.Email != "new@example.com" {
		t.Fatalf("unexpected user in register response: %+v", user)
	}

	// The cookie from registration authenticates follow-up calls.
	resp := client.do("GET", "/api/auth/me", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("auth/me after register returned %d", resp.StatusCode)
	}
	resp.Body.Close()

	var boards []database.Board
	decodeBody(t, client.do("GET", "/api/boards", nil), &boards)
	if len(boards) != 1 || boards[0].Name != database.DefaultBoardName {
		t.Fatalf("boards after register: %+v", boards)
	}

	var columns []database.Column
	decodeBody(t, client.do("GET", "/api/boards/"+boards[0].ID+"/columns", nil), &columns)
	if len(columns) != len(database.DefaultColumns) {
		t.Fatalf("got %d columns, want %d", len(columns), len(database.DefaultColumns))
	}
	for i, col := range columns {
		want := database.DefaultColumns[i]
		if col.Title != want.Title || col.Color != want.Color || col.Position != i {
			t.Fatalf("column %d = %+v, want %q %q at %d", i, col, want.Title, want.Color, i)
		}
	}

	var tasks []database.Task
	decodeBody(t, client.do("GET", "/api/columns/"+columns[0].ID+"/tasks", nil), &tasks)
	if len(tasks) != 1 || tasks[0].Title != database.WelcomeTaskTitle || tasks[0].Position != 0 {
		t.Fatalf("backlog tasks after register: %+v", tasks)
	}
}

func TestAuthGateRejectsAnonymous(t *testing.T) {
	server, _ := newTestServer(t)
	client := newAPIClient(t, server)

	resp := client.do("GET", "/api/boards", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous /api/boards returned %d", resp.StatusCode)
	}
	var body struct {
		Message string `json:"message"`
	}
	decodeBody(t, resp, &body)
	if body.Message != "not authenticated" {
		t.Fatalf("message = %q", body.Message)
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	server, _ := newTestServer(t)
	newAPIClient(t, server).register("alice@example.com")

	check := func(email, password string) string {
		t.Helper()
		resp := newAPIClient(t, server).do("POST", "/api/auth/login", map[string]string{
			"email":    email,
			"password": password,
		})
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("login %s returned %d", email, resp.StatusCode)
		}
		var body struct {
			Message string `json:"message"`
		}
		decodeBody(t, resp, &body)
		return body.Message
	}

	wrongPassword := check("alice@example.com", "nope")
	unknownEmail := check("nobody@example.com", "hunter22")
	if wrongPassword != unknownEmail {
		t.Fatalf("distinguishable login errors: %q vs %q", wrongPassword, unknownEmail)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	server, _ := newTestServer(t)
	newAPIClient(t, server).register("dup@example.com")

	resp := newAPIClient(t, server).do("POST", "/api/auth/register", map[string]string{
		"email":     "dup@example.com",
		"password":  "hunter22",
		"firstName": "Other",
		"lastName":  "User",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("duplicate register returned %d", resp.StatusCode)
	}
	var body struct {
		Message string `json:"message"`
	}
	decodeBody(t, resp, &body)
	if body.Message != "user already exists" {
		t.Fatalf("message = %q", body.Message)
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	server, _ := newTestServer(t)
	client := newAPIClient(t, server)
	client.register("bye@example.com")

	resp := client.do("POST", "/api/auth/logout", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout returned %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = client.do("GET", "/api/auth/me", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("auth/me after logout returned %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUpdateProfile(t *testing.T) {
	server, _ := newTestServer(t)
	client := newAPIClient(t, server)
	client.register("profile@example.com")

	resp := client.do("PUT", "/api/auth/profile", map[string]string{"firstName": "Renamed"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile update returned %d", resp.StatusCode)
	}
	var body struct {
		User database.User `json:"user"`
	}
	decodeBody(t, resp, &body)
	if body.User.FirstName != "Renamed" || body.User.LastName != "User" {
		t.Fatalf("patched user: %+v", body.User)
	}
}

func TestMoveIntoCanonicalColumnSetsStatus(t *testing.T) {
	server, store := newTestServer(t)
	client := newAPIClient(t, server)
	user := client.register("mover@example.com")

	ctx := context.Background()
	board, err := store.CreateBoard(ctx, database.Board{UserID: user.ID, Name: "Work"})
	if err != nil {
		t.Fatalf("seed board: %v", err)
	}
	// A column carrying the canonical id so moves into it flip status.
	if _, err := store.CreateColumn(ctx, database.Column{ID: "done", BoardID: board.ID, UserID: user.ID, Title: "Done"}); err != nil {
		t.Fatalf("seed done column: %v", err)
	}
	start, err := store.CreateColumn(ctx, database.Column{BoardID: board.ID, UserID: user.ID, Title: "Queue"})
	if err != nil {
		t.Fatalf("seed start column: %v", err)
	}

	var task database.Task
	decodeBody(t, client.do("POST", "/api/tasks", map[string]any{
		"columnId": start.ID,
		"title":    "Ship it",
		"status":   database.StatusBacklog,
	}), &task)

	var moved database.Task
	resp := client.do("POST", "/api/tasks/"+task.ID+"/move", map[string]any{
		"columnId": "done",
		"position": 3,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("move returned %d", resp.StatusCode)
	}
	decodeBody(t, resp, &moved)

	if moved.ColumnID != "done" || moved.Position != 3 {
		t.Fatalf("moved task placement: %+v", moved)
	}
	if moved.Status != database.StatusDone {
		t.Fatalf("moved task status = %q, want done", moved.Status)
	}
}

func TestMoveIntoCustomColumnKeepsStatus(t *testing.T) {
	server, store := newTestServer(t)
	client := newAPIClient(t, server)
	user := client.register("custom@example.com")

	ctx := context.Background()
	board, _ := store.CreateBoard(ctx, database.Board{UserID: user.ID, Name: "Work"})
	from, _ := store.CreateColumn(ctx, database.Column{BoardID: board.ID, UserID: user.ID, Title: "From"})
	to, _ := store.CreateColumn(ctx, database.Column{BoardID: board.ID, UserID: user.ID, Title: "To"})

	var task database.Task
	decodeBody(t, client.do("POST", "/api/tasks", map[string]any{
		"columnId": from.ID,
		"title":    "Stay put",
		"status":   database.StatusReview,
	}), &task)

	var moved database.Task
	decodeBody(t, client.do("POST", "/api/tasks/"+task.ID+"/move", map[string]any{
		"columnId": to.ID,
		"position": 0,
	}), &moved)

	if moved.ColumnID != to.ID || moved.Status != database.StatusReview {
		t.Fatalf("custom-column move changed status: %+v", moved)
	}
}

func TestCreateTaskRejectsBadProgress(t *testing.T) {
	server, store := newTestServer(t)
	client := newAPIClient(t, server)
	user := client.register("progress@example.com")

	ctx := context.Background()
	board, _ := store.CreateBoard(ctx, database.Board{UserID: user.ID, Name: "Work"})
	col, _ := store.CreateColumn(ctx, database.Column{BoardID: board.ID, UserID: user.ID, Title: "Lane"})

	resp := client.do("POST", "/api/tasks", map[string]any{
		"columnId": col.ID,
		"title":    "Overdone",
		"progress": 150,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("progress 150 returned %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestCrossUserAccessIsNotFound(t *testing.T) {
	server, store := newTestServer(t)

	alice := newAPIClient(t, server)
	aliceUser := alice.register("alice2@example.com")
	bob := newAPIClient(t, server)
	bob.register("bob@example.com")

	ctx := context.Background()
	board, _ := store.CreateBoard(ctx, database.Board{UserID: aliceUser.ID, Name: "Private"})
	col, _ := store.CreateColumn(ctx, database.Column{BoardID: board.ID, UserID: aliceUser.ID, Title: "Lane"})

	var task database.Task
	decodeBody(t, alice.do("POST", "/api/tasks", map[string]any{
		"columnId": col.ID,
		"title":    "Secret",
	}), &task)

	for _, req := range []struct {
		method, path string
		body         any
	}{
		{"GET", "/api/tasks/" + task.ID, nil},
		{"PUT", "/api/tasks/" + task.ID, map[string]string{"title": "Stolen"}},
		{"DELETE", "/api/tasks/" + task.ID, nil},
		{"GET", "/api/boards/" + board.ID, nil},
	} {
		resp := bob.do(req.method, req.path, req.body)
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("%s %s as other user returned %d", req.method, req.path, resp.StatusCode)
		}
		resp.Body.Close()
	}

	// Alice's task is untouched.
	resp := alice.do("GET", "/api/tasks/"+task.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("owner lost access: %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestForeignDependencyDeleteIsNotFound(t *testing.T) {
	server, store := newTestServer(t)

	alice := newAPIClient(t, server)
	aliceUser := alice.register("alice3@example.com")
	bob := newAPIClient(t, server)
	bob.register("bob2@example.com")

	ctx := context.Background()
	board, _ := store.CreateBoard(ctx, database.Board{UserID: aliceUser.ID, Name: "Private"})
	col, _ := store.CreateColumn(ctx, database.Column{BoardID: board.ID, UserID: aliceUser.ID, Title: "Lane"})

	var from, to database.Task
	decodeBody(t, alice.do("POST", "/api/tasks", map[string]any{"columnId": col.ID, "title": "Blocker"}), &from)
	decodeBody(t, alice.do("POST", "/api/tasks", map[string]any{"columnId": col.ID, "title": "Blocked"}), &to)

	var dep database.Dependency
	decodeBody(t, alice.do("POST", "/api/dependencies", map[string]string{
		"fromTaskId": from.ID,
		"toTaskId":   to.ID,
	}), &dep)

	resp := bob.do("DELETE", "/api/dependencies/"+dep.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign dependency delete returned %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Alice still sees the edge.
	var deps []database.Dependency
	decodeBody(t, alice.do("GET", "/api/tasks/"+from.ID+"/dependencies", nil), &deps)
	if len(deps) != 1 {
		t.Fatalf("edge lost after foreign delete: %+v", deps)
	}
}

func TestCommentsAndDependencies(t *testing.T) {
	server, store := newTestServer(t)
	client := newAPIClient(t, server)
	user := client.register("collab@example.com")

	ctx := context.Background()
	board, _ := store.CreateBoard(ctx, database.Board{UserID: user.ID, Name: "Work"})
	col, _ := store.CreateColumn(ctx, database.Column{BoardID: board.ID, UserID: user.ID, Title: "Lane"})

	var blocker, blocked database.Task
	decodeBody(t, client.do("POST", "/api/tasks", map[string]any{"columnId": col.ID, "title": "Blocker"}), &blocker)
	decodeBody(t, client.do("POST", "/api/tasks", map[string]any{"columnId": col.ID, "title": "Blocked"}), &blocked)

	var comment database.Comment
	resp := client.do("POST", "/api/comments", map[string]string{
		"taskId":  blocker.ID,
		"content": "On it",
		"author":  "Test User",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create comment returned %d", resp.StatusCode)
	}
	decodeBody(t, resp, &comment)

	var comments []database.Comment
	decodeBody(t, client.do("GET", "/api/tasks/"+blocker.ID+"/comments", nil), &comments)
	if len(comments) != 1 || comments[0].Content != "On it" {
		t.Fatalf("comments: %+v", comments)
	}

	var dep database.Dependency
	resp = client.do("POST", "/api/dependencies", map[string]string{
		"fromTaskId": blocker.ID,
		"toTaskId":   blocked.ID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create dependency returned %d", resp.StatusCode)
	}
	decodeBody(t, resp, &dep)

	var deps []database.Dependency
	decodeBody(t, client.do("GET", "/api/tasks/"+blocker.ID+"/dependencies", nil), &deps)
	if len(deps) != 1 || deps[0].ToTaskID != blocked.ID {
		t.Fatalf("dependencies: %+v", deps)
	}

	// A reverse edge too, so the cascade check below has an outgoing
	// edge left to clean up.
	resp = client.do("POST", "/api/dependencies", map[string]string{
		"fromTaskId": blocked.ID,
		"toTaskId":   blocker.ID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create reverse dependency returned %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Deleting the task takes its comments and edges with it.
	resp = client.do("DELETE", "/api/tasks/"+blocker.ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete task returned %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = client.do("GET", "/api/tasks/"+blocker.ID+"/comments", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("comments of deleted task returned %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = client.do("GET", "/api/tasks/"+blocker.ID+"/dependencies", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("dependencies of deleted task returned %d", resp.StatusCode)
	}
	resp.Body.Close()

	decodeBody(t, client.do("GET", "/api/tasks/"+blocked.ID+"/dependencies", nil), &deps)
	if len(deps) != 0 {
		t.Fatalf("stale edges survived task delete: %+v", deps)
	}
}

// provisionFailStore makes registration's board provisioning fail.
type provisionFailStore struct {
	database.Store
}

func (s provisionFailStore) ProvisionDefaultBoard(context.Context, string) (database.Board, error) {
	return database.Board{}, errors.New("disk full")
}

func TestRegisterProvisioningFailureDiscardsSession(t *testing.T) {
	base := database.NewMemoryStore()
	t.Cleanup(func() { base.Close() })
	store := provisionFailStore{Store: base}

	auth := services.NewAuthService(store, services.AuthConfig{
		JWTSecret:  "test-secret",
		SessionTTL: time.Hour,
		BcryptCost: bcrypt.MinCost,
	})
	server := httptest.NewServer(NewRouter(RouterConfig{
		Store:       store,
		AuthService: auth,
		Assistant:   services.NewAssistant(store, services.AssistantConfig{}),
	}))
	t.Cleanup(server.Close)

	client := newAPIClient(t, server)
	resp := client.do("POST", "/api/auth/register", map[string]string{
		"email":     "halfway@example.com",
		"password":  "hunter22",
		"firstName": "Test",
		"lastName":  "User",
	})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("register with failing provisioning returned %d", resp.StatusCode)
	}
	resp.Body.Close()

	// No session survives the failure.
	resp = client.do("GET", "/api/auth/me", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("auth/me after failed register returned %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAISuggestionsWithoutKey(t *testing.T) {
	server, _ := newTestServer(t)
	client := newAPIClient(t, server)
	client.register("ai@example.com")

	var boards []database.Board
	decodeBody(t, client.do("GET", "/api/boards", nil), &boards)

	resp := client.do("POST", "/api/ai/suggestions", map[string]string{"boardId": boards[0].ID})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("suggestions without key returned %d", resp.StatusCode)
	}
	resp.Body.Close()
}
