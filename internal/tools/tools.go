// Package tools implements the search tools the generator can invoke while
// answering a query, plus the manager that dispatches calls and tracks the
// sources surfaced to the user.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Definition describes a tool to the model: its name, what it does, and the
// JSON schema of its arguments.
type Definition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// Source is one attribution entry shown alongside an answer.
type Source struct {
	Text string `json:"text"`
	Link string `json:"link,omitempty"`
}

// Tool executes with pre-parsed JSON arguments and returns text for the
// model. Failures are folded into the returned string so the model can react
// to them; they are never fatal to the request.
type Tool interface {
	Definition() Definition
	Execute(ctx context.Context, args map[string]any) string
}

// sourceTracker is implemented by tools that produce user-visible sources.
type sourceTracker interface {
	lastSources() []Source
	resetSources()
}

// Manager registers tools and dispatches model tool calls by name.
type Manager struct {
	mu    sync.Mutex
	tools map[string]Tool
	order []string
}

func NewManager(tools ...Tool) *Manager {
	m := &Manager{tools: make(map[string]Tool)}
	for _, tool := range tools {
		m.Register(tool)
	}
	return m
}

func (m *Manager) Register(tool Tool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name := tool.Definition().Name
	if _, exists := m.tools[name]; !exists {
		m.order = append(m.order, name)
	}
	m.tools[name] = tool
}

func (m *Manager) Definitions() []Definition {
	m.mu.Lock()
	defer m.mu.Unlock()
	defs := make([]Definition, 0, len(m.order))
	for _, name := range m.order {
		defs = append(defs, m.tools[name].Definition())
	}
	return defs
}

// Execute runs the named tool with raw JSON arguments. Unknown tools and
// malformed arguments produce an explanatory string, mirroring how execution
// errors are reported back to the model.
func (m *Manager) Execute(ctx context.Context, name, rawArgs string) string {
	m.mu.Lock()
	tool, ok := m.tools[name]
	m.mu.Unlock()
	if !ok {
		return fmt.Sprintf("Tool '%s' not found", name)
	}

	args := map[string]any{}
	if rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			slog.Error("could not parse tool arguments", "tool", name, "error", err)
			return fmt.Sprintf("Tool execution error: invalid arguments for '%s'", name)
		}
	}

	return tool.Execute(ctx, args)
}

// LastSources returns the sources recorded by the most recent searches.
func (m *Manager) LastSources() []Source {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sources []Source
	for _, name := range m.order {
		if tracker, ok := m.tools[name].(sourceTracker); ok {
			sources = append(sources, tracker.lastSources()...)
		}
	}
	return sources
}

func (m *Manager) ResetSources() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tool := range m.tools {
		if tracker, ok := tool.(sourceTracker); ok {
			tracker.resetSources()
		}
	}
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func intArg(args map[string]any, key string) *int {
	switch v := args[key].(type) {
	case float64:
		n := int(v)
		return &n
	case int:
		n := v
		return &n
	}
	return nil
}
