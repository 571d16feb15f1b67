package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"english_tutor_backend/internal/llm"
	"english_tutor_backend/internal/model"
	"english_tutor_backend/internal/planner"
)

const semanticQueryPrompt = `You are an English curriculum designer. Write ONE descriptive sentence to be used as a semantic search query for learning material.
Rules:
1. The sentence must be about the focus topic: %s.
2. If the focus is a general review, build it around the weak topics: %s.
3. Never mention these mastered topics: %s.
4. Output only the sentence.`

// SemanticQueryWriter 生成语义检索用的描述句
type SemanticQueryWriter struct {
	gen llm.TextGenerator
}

func NewSemanticQueryWriter(gen llm.TextGenerator) *SemanticQueryWriter {
	return &SemanticQueryWriter{gen: gen}
}

func (w *SemanticQueryWriter) SemanticQuery(ctx context.Context, focusTopic string, weak, strong []string) (string, error) {
	out, err := w.gen.Generate(ctx, llm.Request{
		System:      fmt.Sprintf(semanticQueryPrompt, focusTopic, listOrNone(weak), listOrNone(strong)),
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: "Generate the semantic query."}},
		MaxTokens:   120,
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}
	return strings.Trim(strings.TrimSpace(out), `"`), nil
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

// 对话路由可选的工具
const (
	ToolPlanNewLesson       = "plan_new_lesson"
	ToolGeneralConversation = "general_conversation"
)

var routeSchema = &llm.Schema{
	Name: "topic-router",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"tool_name": map[string]any{
				"type": "string",
				"enum": []string{ToolPlanNewLesson, ToolGeneralConversation},
			},
			"topic_tag": map[string]any{"type": "string"},
		},
		"required":             []string{"tool_name", "topic_tag"},
		"additionalProperties": false,
	},
}

const routerPrompt = `You analyse a student's message to an English tutor and route it to the right tool, extracting a normalised topic tag.
Rules for topic_tag:
- English, lowercase, words joined with hyphens (for example "simple-present").
- If the message names no topic, use "` + planner.GeneralTopic + `".
Examples:
- "I want to practise the simple present" -> {"tool_name":"plan_new_lesson","topic_tag":"simple-present"}
- "Give me a lesson" -> {"tool_name":"plan_new_lesson","topic_tag":"` + planner.GeneralTopic + `"}
- "Hi, how are you?" -> {"tool_name":"general_conversation","topic_tag":"` + planner.GeneralTopic + `"}`

type Route struct {
	ToolName string `json:"tool_name"`
	TopicTag string `json:"topic_tag"`
}

// TopicRouter 判断聊天消息是要一节新课还是普通对话
type TopicRouter struct {
	gen llm.TextGenerator
}

func NewTopicRouter(gen llm.TextGenerator) *TopicRouter {
	return &TopicRouter{gen: gen}
}

func (r *TopicRouter) Route(ctx context.Context, history []model.ConversationTurn, message string) (Route, error) {
	out, err := r.gen.Generate(ctx, llm.Request{
		System:    routerPrompt,
		Messages:  append(historyMessages(history), llm.Message{Role: llm.RoleUser, Content: "Student message: " + message}),
		Schema:    routeSchema,
		MaxTokens: 100,
	})
	if err != nil {
		return Route{}, err
	}
	var route Route
	if err := json.Unmarshal([]byte(out), &route); err != nil {
		return Route{}, fmt.Errorf("decode route: %w", err)
	}
	route.TopicTag = NormalizeTopic(route.TopicTag)
	return route, nil
}

// NormalizeTopic 统一为小写连字符形式，空值视为通用练习
func NormalizeTopic(tag string) string {
	tag = strings.ToLower(strings.Join(strings.Fields(strings.ReplaceAll(tag, "_", " ")), "-"))
	if tag == "" {
		return planner.GeneralTopic
	}
	return tag
}

const conversationPrompt = `You are Alex, a friendly English tutor. Answer the student in the language they write in, taking the conversation so far into account.
Your main goal is the student's progress. Be encouraging and brief.`

// Conversationalist 普通聊天回复
type Conversationalist struct {
	gen llm.TextGenerator
}

func NewConversationalist(gen llm.TextGenerator) *Conversationalist {
	return &Conversationalist{gen: gen}
}

func (c *Conversationalist) Reply(ctx context.Context, history []model.ConversationTurn, message string) (string, error) {
	return c.gen.Generate(ctx, llm.Request{
		System:      conversationPrompt,
		Messages:    append(historyMessages(history), llm.Message{Role: llm.RoleUser, Content: message}),
		MaxTokens:   400,
		Temperature: 0.7,
	})
}

func historyMessages(turns []model.ConversationTurn) []llm.Message {
	msgs := make([]llm.Message, 0, len(turns)+1)
	for _, t := range turns {
		role := llm.RoleUser
		if t.Role == model.RoleAI {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: t.Content})
	}
	return msgs
}
