// Package client is a typed Go client for the kanban REST API. It also
// carries the board-side state logic the browser client performs: the
// optimistic move command with rollback, and the task search filter.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"

	"github.com/kanbanlab/kanban-app/database"
)

// APIError carries the server's {message} body and status code.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a client against baseURL. The cookie jar holds the session
// cookie across calls.
func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("new cookie jar: %w", err)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Jar: jar},
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Message string `json:"message"`
		}
		json.NewDecoder(resp.Body).Decode(&apiErr)
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Message}
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

type userEnvelope struct {
	User database.User `json:"user"`
}

func (c *Client) Register(ctx context.Context, email, password, firstName, lastName string) (database.User, error) {
	var env userEnvelope
	err := c.do(ctx, http.MethodPost, "/api/auth/register", map[string]string{
		"email":     email,
		"password":  password,
		"firstName": firstName,
		"lastName":  lastName,
	}, &env)
	return env.User, err
}

func (c *Client) Login(ctx context.Context, email, password string) (database.User, error) {
	var env userEnvelope
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &env)
	return env.User, err
}

func (c *Client) Me(ctx context.Context) (database.User, error) {
	var env userEnvelope
	err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &env)
	return env.User, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

func (c *Client) Boards(ctx context.Context) ([]database.Board, error) {
	var boards []database.Board
	err := c.do(ctx, http.MethodGet, "/api/boards", nil, &boards)
	return boards, err
}

func (c *Client) Columns(ctx context.Context, boardID string) ([]database.Column, error) {
	var columns []database.Column
	err := c.do(ctx, http.MethodGet, "/api/boards/"+boardID+"/columns", nil, &columns)
	return columns, err
}

func (c *Client) Tasks(ctx context.Context, columnID string) ([]database.Task, error) {
	var tasks []database.Task
	err := c.do(ctx, http.MethodGet, "/api/columns/"+columnID+"/tasks", nil, &tasks)
	return tasks, err
}

// CreateTask appends a task: by convention position is the current task
// count in the target column, computed by the caller.
func (c *Client) CreateTask(ctx context.Context, task database.Task) (database.Task, error) {
	var created database.Task
	err := c.do(ctx, http.MethodPost, "/api/tasks", task, &created)
	return created, err
}

func (c *Client) UpdateTask(ctx context.Context, id string, patch database.TaskPatch) (database.Task, error) {
	var updated database.Task
	err := c.do(ctx, http.MethodPut, "/api/tasks/"+id, patch, &updated)
	return updated, err
}

func (c *Client) MoveTask(ctx context.Context, id, columnID string, position int) (database.Task, error) {
	var moved database.Task
	err := c.do(ctx, http.MethodPost, "/api/tasks/"+id+"/move", map[string]any{
		"columnId": columnID,
		"position": position,
	}, &moved)
	return moved, err
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+id, nil, nil)
}

func (c *Client) Comments(ctx context.Context, taskID string) ([]database.Comment, error) {
	var comments []database.Comment
	err := c.do(ctx, http.MethodGet, "/api/tasks/"+taskID+"/comments", nil, &comments)
	return comments, err
}

func (c *Client) CreateComment(ctx context.Context, taskID, content, author string) (database.Comment, error) {
	var comment database.Comment
	err := c.do(ctx, http.MethodPost, "/api/comments", map[string]string{
		"taskId":  taskID,
		"content": content,
		"author":  author,
	}, &comment)
	return comment, err
}

func (c *Client) Dependencies(ctx context.Context, taskID string) ([]database.Dependency, error) {
	var deps []database.Dependency
	err := c.do(ctx, http.MethodGet, "/api/tasks/"+taskID+"/dependencies", nil, &deps)
	return deps, err
}

func (c *Client) CreateDependency(ctx context.Context, fromTaskID, toTaskID string) (database.Dependency, error) {
	var dep database.Dependency
	err := c.do(ctx, http.MethodPost, "/api/dependencies", map[string]string{
		"fromTaskId": fromTaskID,
		"toTaskId":   toTaskID,
	}, &dep)
	return dep, err
}
