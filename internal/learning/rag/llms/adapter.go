package llms

import (
	"context"
	"fmt"
	"time"

	"smartlearn/internal/learning/rag/interfaces"
	"smartlearn/internal/llm"
	"smartlearn/internal/models"
)

// Adapter bridges the provider-agnostic llm clients to the pipeline LLM
// interface, mapping chat history into the request content and unwrapping
// the response down to plain text.
type Adapter struct {
	client  llm.LLM
	timeout time.Duration
}

// NewAdapter creates a new Adapter. A zero timeout disables the per-call bound.
func NewAdapter(client llm.LLM, timeout time.Duration) *Adapter {
	return &Adapter{client: client, timeout: timeout}
}

// Generate sends the prompt, preceded by any prior conversation turns, and
// returns the generated text.
func (a *Adapter) Generate(ctx context.Context, history []models.ChatMessage, prompt string) (string, error) {
	content := make([]models.Content, 0, len(history)+1)
	for _, msg := range history {
		role := models.SpeakerUser
		if msg.Role == models.ChatRoleAssistant {
			role = models.SpeakerModel
		}
		content = append(content, models.Content{
			Parts: []*models.Part{{Text: msg.Content}},
			Role:  role,
		})
	}
	content = append(content, models.Content{
		Parts: []*models.Part{{Text: prompt}},
		Role:  models.SpeakerUser,
	})

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	resp, err := a.client.GenerateContent(ctx, &models.GenerateContentRequest{Content: content})
	if err != nil {
		return "", fmt.Errorf("llm client failed to generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("llm response was empty or in an unexpected format")
	}
	return text, nil
}

// compile-time check to ensure Adapter implements the LLM interface
var _ interfaces.LLM = (*Adapter)(nil)
