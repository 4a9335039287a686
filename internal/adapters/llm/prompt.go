package llm

import (
	"fmt"

	"github.com/dentaware/assistd/internal/domain"
)

const assistantInstruction = "You are a professional dental assistant. Be concise, friendly, and clear when replying to patients."

const summaryInstruction = "You are a helpful assistant that summarizes dental consultations. Create a concise 3-sentence summary of the conversation, focusing on the main dental issues, advice given, and any follow-up needed. Be professional but friendly."

// SystemMessage is the fixed instruction prepended to every conversation
// before it is forwarded to the completion API.
func SystemMessage() domain.Message {
	return domain.Message{Role: domain.RoleSystem, Content: assistantInstruction}
}

// SummaryMessages wraps a rendered conversation with the fixed summarization
// instruction requesting exactly three sentences.
func SummaryMessages(conversation string) []domain.Message {
	return []domain.Message{
		{Role: domain.RoleSystem, Content: summaryInstruction},
		{Role: domain.RoleUser, Content: fmt.Sprintf(
			"Please summarize this dental consultation in exactly 3 sentences:\n\n%s", conversation)},
	}
}
