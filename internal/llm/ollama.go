package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"smartlearn/internal/models"

	olla "github.com/ollama/ollama/api"
)

// Ollama 是一个用于 Ollama API 的 LLM 客户端。
type Ollama struct {
	client *olla.Client // Ollama 客户端实例。
	model  string       // 要使用的模型名称。
}

// NewOllama 创建一个新的 Ollama 客户端。
//
// 参数:
//
//	model: 要使用的模型名称。
//	baseURL: Ollama 服务的基准 URL。如果为空，则默认为 "http://localhost:11434"。
//
// 返回值:
//
//	*Ollama: 新创建的 Ollama 客户端实例。
//	error: 如果基准 URL 无效，则返回错误。
func NewOllama(model, baseURL string) (*Ollama, error) {
	// 如果 baseURL 为空，则使用默认地址。
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	// 将字符串 URL 转换为 *url.URL。
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	// 创建一个带有超时设置的 HTTP 客户端。
	hc := &http.Client{
		Timeout: 120 * time.Second,
	}

	// 创建 Ollama 客户端。
	client := olla.NewClient(parsedURL, hc)

	return &Ollama{client: client, model: model}, nil
}

// GenerateContent 使用 Ollama API 生成内容。
func (o *Ollama) GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	messages := o.toOllamaMessages(req)

	var sb strings.Builder
	stream := false

	// 调用 Ollama 客户端的 Chat 方法生成内容。
	err := o.client.Chat(ctx, &olla.ChatRequest{
		Model:    o.model,
		Messages: messages,
		Stream:   &stream, // 设置为非流式传输。
	}, func(resp olla.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with ollama: %w", err)
	}

	return &models.GenerateContentResponse{
		Content: []models.Content{
			{
				Parts: []*models.Part{{Text: sb.String()}},
				Role:  models.SpeakerModel,
			},
		},
		ModelVersion: o.model,
	}, nil
}

// toOllamaMessages 将内部请求转换为 Ollama 消息列表。
func (o *Ollama) toOllamaMessages(req *models.GenerateContentRequest) []olla.Message {
	var messages []olla.Message
	for _, content := range req.Content {
		role := "user"
		if content.Role == models.SpeakerModel {
			role = "assistant"
		}
		for _, part := range content.Parts {
			if part == nil || part.Text == "" {
				continue
			}
			messages = append(messages, olla.Message{
				Role:    role,
				Content: part.Text,
			})
		}
	}
	return messages
}
