package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/kanbanlab/kanban-app/database"
)

var (
	// ErrNoAPIKey means the assistant is not configured at all.
	ErrNoAPIKey = errors.New("ai api key not configured")

	// ErrUpstream wraps any model-call failure; the provider detail is
	// logged, not surfaced.
	ErrUpstream = errors.New("ai request failed")
)

// Assistant snapshots a board and asks a chat-completion model for
// structured suggestions. The model's JSON comes back verbatim.
type Assistant struct {
	store      database.Store
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

type AssistantConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

func NewAssistant(store database.Store, cfg AssistantConfig) *Assistant {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Assistant{
		store:      store,
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		httpClient: cfg.HTTPClient,
	}
}

// Enabled reports whether an API key is configured.
func (a *Assistant) Enabled() bool {
	return a.apiKey != ""
}

type boardTask struct {
	database.Task
	ColumnTitle string
}

func (a *Assistant) snapshot(ctx context.Context, boardID, userID string) ([]database.Column, []boardTask, error) {
	columns, err := a.store.ListColumns(ctx, boardID, userID)
	if err != nil {
		return nil, nil, err
	}

	all := []boardTask{}
	for _, column := range columns {
		tasks, err := a.store.ListTasks(ctx, column.ID, userID)
		if err != nil {
			return nil, nil, err
		}
		for _, task := range tasks {
			all = append(all, boardTask{Task: task, ColumnTitle: column.Title})
		}
	}
	return columns, all, nil
}

// Suggestions asks the model for prioritization/workflow advice on the
// whole board.
func (a *Assistant) Suggestions(ctx context.Context, boardID, userID string) (json.RawMessage, error) {
	if !a.Enabled() {
		return nil, ErrNoAPIKey
	}

	columns, tasks, err := a.snapshot(ctx, boardID, userID)
	if err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(columns))
	for _, column := range columns {
		titles = append(titles, column.Title)
	}

	var lines strings.Builder
	for _, task := range tasks {
		due := "No deadline"
		if task.DueDate != nil {
			due = task.DueDate.Format("2006-01-02")
		}
		fmt.Fprintf(&lines, "- %s (%s, Priority: %s, Progress: %d%%, Due: %s)\n",
			task.Title, task.ColumnTitle, task.Priority, task.Progress, due)
	}

	prompt := fmt.Sprintf(`Analyze the following Kanban board data and provide optimization suggestions:

Columns: %s

Tasks:
%s
Please provide suggestions in JSON format with the following structure:
{
  "suggestions": [
    {
      "type": "priority" | "workflow" | "deadline" | "dependency",
      "title": "Brief suggestion title",
      "description": "Detailed explanation",
      "taskId": "task-id-if-applicable",
      "action": "specific action to take"
    }
  ]
}`, strings.Join(titles, ", "), lines.String())

	return a.complete(ctx,
		"You are an expert project management AI assistant that analyzes Kanban boards and provides actionable optimization suggestions.",
		prompt)
}

// OptimizeBoard asks the model where each task should live.
func (a *Assistant) OptimizeBoard(ctx context.Context, boardID, userID string) (json.RawMessage, error) {
	if !a.Enabled() {
		return nil, ErrNoAPIKey
	}

	_, tasks, err := a.snapshot(ctx, boardID, userID)
	if err != nil {
		return nil, err
	}

	var lines strings.Builder
	for _, task := range tasks {
		fmt.Fprintf(&lines, "- %s: %s (Priority: %s, Progress: %d%%)\n",
			task.Title, task.ColumnTitle, task.Priority, task.Progress)
	}

	prompt := fmt.Sprintf(`Analyze this Kanban board and suggest optimal task organization:

Current state:
%s
Provide optimization recommendations in JSON format:
{
  "optimizations": [
    {
      "taskId": "task-id",
      "currentColumn": "current-column-title",
      "suggestedColumn": "suggested-column-title",
      "reason": "explanation for the move"
    }
  ]
}`, lines.String())

	return a.complete(ctx,
		"You are a workflow optimization AI that helps organize Kanban boards for maximum efficiency.",
		prompt)
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat responseFmt   `json:"response_format"`
	MaxTokens      int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFmt struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (a *Assistant) complete(ctx context.Context, system, prompt string) (json.RawMessage, error) {
	body, err := json.Marshal(chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: responseFmt{Type: "json_object"},
		MaxTokens:      1000,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		log.Printf("AI call failed: %v", err)
		return nil, ErrUpstream
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("AI response read failed: %v", err)
		return nil, ErrUpstream
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("AI call returned status %d: %s", resp.StatusCode, data)
		return nil, ErrUpstream
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		log.Printf("AI response decode failed: %v", err)
		return nil, ErrUpstream
	}
	if len(parsed.Choices) == 0 {
		log.Printf("AI response had no choices")
		return nil, ErrUpstream
	}

	content := parsed.Choices[0].Message.Content
	if !json.Valid([]byte(content)) {
		log.Printf("AI returned non-JSON content")
		return nil, ErrUpstream
	}
	return json.RawMessage(content), nil
}
