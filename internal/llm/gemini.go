package llm

import (
	"context"
	"fmt"

	"smartlearn/internal/models"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini 是一个实现了 LLM 接口的结构体，用于与 Gemini API 交互。
type Gemini struct {
	model *genai.GenerativeModel // Gemini 生成模型实例。
}

// NewGemini 创建一个新的 Gemini 客户端。
//
// 参数:
//
//	ctx: 上下文，用于控制客户端的生命周期。
//	model: 要使用的 Gemini 模型名称。
//	apiKey: Gemini API 密钥。
//
// 返回值:
//
//	*Gemini: 新创建的 Gemini 客户端实例。
//	error: 如果无法创建 GenAI 客户端，则返回错误。
func NewGemini(ctx context.Context, model, apiKey string) (*Gemini, error) {
	// 使用 API 密钥创建 GenAI 客户端。
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &Gemini{
		model: client.GenerativeModel(model),
	}, nil
}

// GenerateContent 向 Gemini API 发送请求并返回响应。
// 请求中除最后一条内容外的部分作为会话历史，最后一条作为本次消息。
// 每次调用使用独立的会话，避免跨请求共享历史。
func (g *Gemini) GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	if len(req.Content) == 0 {
		return nil, fmt.Errorf("empty generate content request")
	}

	history := req.Content[:len(req.Content)-1]
	last := req.Content[len(req.Content)-1]

	session := g.model.StartChat()
	session.History = toGenaiHistory(history)

	resp, err := session.SendMessage(ctx, toGenaiParts(last.Parts)...)
	if err != nil {
		return nil, err
	}

	return fromGenaiResponse(resp), nil // 将 GenAI 响应转换为内部响应格式。
}

// toGenaiHistory 将内部 Content 切片转换为 GenAI 会话历史。
func toGenaiHistory(contents []models.Content) []*genai.Content {
	history := make([]*genai.Content, 0, len(contents))
	for _, c := range contents {
		history = append(history, &genai.Content{
			Parts: toGenaiParts(c.Parts),
			Role:  string(c.Role),
		})
	}
	return history
}

// toGenaiParts 将内部 Part 切片转换为 GenAI Part 切片。
func toGenaiParts(parts []*models.Part) []genai.Part {
	out := make([]genai.Part, 0, len(parts))
	for _, p := range parts {
		if p != nil && p.Text != "" {
			out = append(out, genai.Text(p.Text))
		}
	}
	return out
}

// fromGenaiResponse 将 GenAI GenerateContentResponse 转换为内部 GenerateContentResponse 结构体。
func fromGenaiResponse(resp *genai.GenerateContentResponse) *models.GenerateContentResponse {
	if resp == nil {
		return nil
	}
	var content []models.Content
	// 遍历 GenAI 响应中的候选者，并将其内容转换为内部 Content 结构体。
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		var parts []*models.Part
		for _, p := range cand.Content.Parts {
			if text, ok := p.(genai.Text); ok {
				parts = append(parts, &models.Part{Text: string(text)})
			}
		}
		content = append(content, models.Content{
			Parts: parts,
			Role:  models.SpeakerRole(cand.Content.Role),
		})
	}
	return &models.GenerateContentResponse{
		Content: content,
	}
}
