package llm

import (
	"context"
	"fmt"
	"testing"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-rag/internal/tools"
)

// scriptedClient returns pre-built completions in order and records the
// request params it saw.
type scriptedClient struct {
	responses []*openai.ChatCompletion
	err       error
	requests  []openai.ChatCompletionNewParams
}

func (c *scriptedClient) complete(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	c.requests = append(c.requests, params)
	if c.err != nil {
		return nil, c.err
	}
	next := c.responses[0]
	c.responses = c.responses[1:]
	return next, nil
}

type recordingRunner struct {
	calls  []string
	args   []string
	output string
}

func (r *recordingRunner) Definitions() []tools.Definition {
	return []tools.Definition{{
		Name:        "search_course_content",
		Description: "Search course materials",
		InputSchema: map[string]any{"type": "object"},
	}}
}

func (r *recordingRunner) Execute(ctx context.Context, name, args string) string {
	r.calls = append(r.calls, name)
	r.args = append(r.args, args)
	return r.output
}

func answer(content string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Content: content},
		}},
	}
}

func toolCall(id, name, args string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{
				ToolCalls: []openai.ChatCompletionMessageToolCall{{
					ID: id,
					Function: openai.ChatCompletionMessageToolCallFunction{
						Name:      name,
						Arguments: args,
					},
				}},
			},
		}},
	}
}

func TestGenerateDirectAnswer(t *testing.T) {
	client := &scriptedClient{responses: []*openai.ChatCompletion{answer("Paris.")}}
	generator := &Generator{client: client, model: "gpt-4o-mini"}
	runner := &recordingRunner{}

	out, err := generator.Generate(context.Background(), "What is the capital of France?", "", runner)
	require.NoError(t, err)
	assert.Equal(t, "Paris.", out)

	require.Len(t, client.requests, 1)
	assert.Equal(t, openai.ChatModel("gpt-4o-mini"), client.requests[0].Model)
	assert.Len(t, client.requests[0].Messages, 2)
	assert.Len(t, client.requests[0].Tools, 1)
	assert.Empty(t, runner.calls)
}

func TestGenerateWithToolRound(t *testing.T) {
	client := &scriptedClient{responses: []*openai.ChatCompletion{
		toolCall("call_1", "search_course_content", `{"query": "mcp"}`),
		answer("MCP is a protocol."),
	}}
	generator := &Generator{client: client, model: "gpt-4o-mini"}
	runner := &recordingRunner{output: "[MCP Course - Lesson 1]\nMCP servers expose tools."}

	out, err := generator.Generate(context.Background(), "What is MCP?", "", runner)
	require.NoError(t, err)
	assert.Equal(t, "MCP is a protocol.", out)

	require.Equal(t, []string{"search_course_content"}, runner.calls)
	assert.Equal(t, []string{`{"query": "mcp"}`}, runner.args)

	// Second request carries the assistant tool call plus the tool result.
	require.Len(t, client.requests, 2)
	assert.Len(t, client.requests[1].Messages, 4)
	assert.Len(t, client.requests[1].Tools, 1)
}

func TestGenerateToolBudgetExhausted(t *testing.T) {
	client := &scriptedClient{responses: []*openai.ChatCompletion{
		toolCall("call_1", "search_course_content", `{"query": "a"}`),
		toolCall("call_2", "search_course_content", `{"query": "b"}`),
		answer("Final answer."),
	}}
	generator := &Generator{client: client, model: "gpt-4o-mini"}
	runner := &recordingRunner{output: "result"}

	out, err := generator.Generate(context.Background(), "Compare lesson 1 and 2", "", runner)
	require.NoError(t, err)
	assert.Equal(t, "Final answer.", out)

	assert.Len(t, runner.calls, 2)

	// The forced final completion is made without tools.
	require.Len(t, client.requests, 3)
	assert.Empty(t, client.requests[2].Tools)
}

func TestGenerateIncludesHistory(t *testing.T) {
	client := &scriptedClient{responses: []*openai.ChatCompletion{answer("ok")}}
	generator := &Generator{client: client, model: "gpt-4o-mini"}

	_, err := generator.Generate(context.Background(), "follow-up", "User: hi\nAssistant: hello", &recordingRunner{})
	require.NoError(t, err)

	require.Len(t, client.requests, 1)
	system := client.requests[0].Messages[0].OfSystem
	require.NotNil(t, system)
	assert.Contains(t, system.Content.OfString.Value, "Previous conversation:\nUser: hi\nAssistant: hello")
}

func TestGenerateClientError(t *testing.T) {
	client := &scriptedClient{err: fmt.Errorf("rate limited")}
	generator := &Generator{client: client, model: "gpt-4o-mini"}

	_, err := generator.Generate(context.Background(), "q", "", &recordingRunner{})
	assert.ErrorContains(t, err, "rate limited")
}

func TestGenerateNoChoices(t *testing.T) {
	client := &scriptedClient{responses: []*openai.ChatCompletion{{}}}
	generator := &Generator{client: client, model: "gpt-4o-mini"}

	_, err := generator.Generate(context.Background(), "q", "", &recordingRunner{})
	assert.ErrorContains(t, err, "no choices")
}
