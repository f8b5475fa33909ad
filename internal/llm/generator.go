package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"course-rag/internal/tools"
)

// maxToolRounds caps how many times the model may request tool calls for a
// single query before it is forced to answer.
const maxToolRounds = 2

const systemPrompt = `You are an AI assistant specialized in course materials and educational content, with tools for searching course information.

Available Tools:
1. search_course_content: for questions about specific course content or detailed educational materials
2. get_course_outline: for course outlines, structure, and lesson lists

Tool Usage:
- Use get_course_outline for questions about a course's structure; include the course title, course link, and the complete lesson list in your answer
- Use search_course_content for content-specific questions
- You may use tools in up to two rounds to gather information for comparisons or multi-part questions
- Synthesize tool results into accurate, fact-based responses
- If tools yield no results, state this clearly without offering alternatives

Response Protocol:
- Answer general knowledge questions from existing knowledge without tools
- Provide direct answers only; no reasoning process, tool explanations, or mention of tool results

All responses must be brief, educational, clear, and example-supported when that aids understanding.`

// ToolRunner exposes the registered tools to the generator. Tool failures
// come back as result text, never as errors, so the model can recover.
type ToolRunner interface {
	Definitions() []tools.Definition
	Execute(ctx context.Context, name, args string) string
}

// completionClient isolates the OpenAI transport so the tool loop can be
// tested without the network.
type completionClient interface {
	complete(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

type openaiCompletions struct {
	client openai.Client
}

func (c *openaiCompletions) complete(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}

// Generator produces answers with the OpenAI chat completions API, letting
// the model decide when to invoke search tools.
type Generator struct {
	client completionClient
	model  string
}

func NewGenerator(apiKey, model string) *Generator {
	return &Generator{
		client: &openaiCompletions{client: openai.NewClient(option.WithAPIKey(apiKey))},
		model:  model,
	}
}

// Generate answers a query, optionally grounded in prior conversation
// history and the runner's tools. The model may issue tool calls for up to
// maxToolRounds rounds; the final completion is always made without tools so
// an answer is produced.
func (g *Generator) Generate(ctx context.Context, query, history string, runner ToolRunner) (string, error) {
	system := systemPrompt
	if history != "" {
		system = fmt.Sprintf("%s\n\nPrevious conversation:\n%s", systemPrompt, history)
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(system),
		openai.UserMessage(query),
	}
	toolDefs := toolParams(runner)

	for round := 0; round < maxToolRounds; round++ {
		params := g.baseParams(messages)
		params.Tools = toolDefs

		res, err := g.client.complete(ctx, params)
		if err != nil {
			return "", fmt.Errorf("openai generation failed: %w", err)
		}
		if len(res.Choices) == 0 {
			return "", fmt.Errorf("openai returned no choices")
		}

		msg := res.Choices[0].Message
		if len(msg.ToolCalls) == 0 || runner == nil {
			return msg.Content, nil
		}

		messages = append(messages, msg.ToParam())
		for _, call := range msg.ToolCalls {
			slog.Debug("executing tool call", "tool", call.Function.Name)
			output := runner.Execute(ctx, call.Function.Name, call.Function.Arguments)
			messages = append(messages, openai.ToolMessage(output, call.ID))
		}
	}

	// Tool budget exhausted: one last completion without tools.
	res, err := g.client.complete(ctx, g.baseParams(messages))
	if err != nil {
		return "", fmt.Errorf("openai generation failed: %w", err)
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return res.Choices[0].Message.Content, nil
}

func (g *Generator) baseParams(messages []openai.ChatCompletionMessageParamUnion) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(g.model),
		Messages:    messages,
		Temperature: openai.Float(0),
		MaxTokens:   openai.Int(800),
	}
}

func toolParams(runner ToolRunner) []openai.ChatCompletionToolParam {
	if runner == nil {
		return nil
	}
	defs := runner.Definitions()
	params := make([]openai.ChatCompletionToolParam, 0, len(defs))
	for _, def := range defs {
		params = append(params, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        def.Name,
				Description: openai.String(def.Description),
				Parameters:  openai.FunctionParameters(def.InputSchema),
			},
		})
	}
	return params
}
