package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dentaware/assistd/internal/domain"
)

// MockClient is the completion client used by tests and local development.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Complete(ctx context.Context, messages []domain.Message) (*domain.Completion, error) {
	last := ""
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleUser {
			last = messages[i].Content
			break
		}
	}
	content := fmt.Sprintf("Thanks for reaching out. You mentioned %q. Could you tell me a bit more about when it started?", last)

	raw, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return &domain.Completion{Content: content, Raw: raw}, nil
}
