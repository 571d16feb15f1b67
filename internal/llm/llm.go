package llm

import "context"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// Schema 约束模型输出的 JSON 结构
type Schema struct {
	Name       string
	Definition map[string]any
}

type Request struct {
	System      string
	Messages    []Message
	Schema      *Schema
	MaxTokens   int
	Temperature float64
}

// TextGenerator 文本生成。请求带 Schema 时返回的内容已通过校验。
type TextGenerator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

const defaultMaxTokens = 1024
