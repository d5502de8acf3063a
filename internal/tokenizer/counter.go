package tokenizer

import (
	"encoding/json"
	"strings"

	"github.com/mandalnilabja/chatrelay/internal/types"
)

// Message token overhead varies by model family.
const (
	messageOverheadGPT4  = 3 // <|start|>role<|end|>
	messageOverheadGPT35 = 4

	// Reply priming tokens (assistant response start)
	replyPrimingTokens = 3

	// Name field overhead (if present)
	nameOverhead = 1

	// Tool call structure overhead
	toolCallOverhead = 5
)

// messageView is the subset of an opaque message that carries countable text.
// Fields the relay does not understand are ignored.
type messageView struct {
	Role       string          `json:"role"`
	Name       string          `json:"name"`
	Content    json.RawMessage `json:"content"`
	ToolCalls  []toolCallView  `json:"tool_calls"`
	ToolCallID string          `json:"tool_call_id"`
}

type toolCallView struct {
	ID       string `json:"id"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// CountMessages counts prompt tokens for a slice of opaque messages.
// Messages that do not decode as objects contribute only the per-message overhead.
func (t *TiktokenTokenizer) CountMessages(messages []types.Message, model string) (int, error) {
	total := 0
	overhead := t.getMessageOverhead(model)

	for _, raw := range messages {
		var msg messageView
		if err := json.Unmarshal(raw, &msg); err != nil {
			total += overhead
			continue
		}
		tokens, err := t.countMessage(&msg, model)
		if err != nil {
			return 0, err
		}
		total += tokens + overhead
	}

	total += replyPrimingTokens
	return total, nil
}

func (t *TiktokenTokenizer) countMessage(msg *messageView, model string) (int, error) {
	total := 0

	roleTokens, err := t.CountTokens(msg.Role, model)
	if err != nil {
		return 0, err
	}
	total += roleTokens

	contentTokens, err := t.countContent(msg.Content, model)
	if err != nil {
		return 0, err
	}
	total += contentTokens

	if msg.Name != "" {
		nameTokens, err := t.CountTokens(msg.Name, model)
		if err != nil {
			return 0, err
		}
		total += nameTokens + nameOverhead
	}

	for _, call := range msg.ToolCalls {
		callTokens, err := t.countToolCall(call, model)
		if err != nil {
			return 0, err
		}
		total += callTokens
	}

	if msg.ToolCallID != "" {
		idTokens, err := t.CountTokens(msg.ToolCallID, model)
		if err != nil {
			return 0, err
		}
		total += idTokens
	}

	return total, nil
}

func (t *TiktokenTokenizer) countToolCall(call toolCallView, model string) (int, error) {
	total := toolCallOverhead
	for _, text := range []string{call.ID, call.Function.Name, call.Function.Arguments} {
		tokens, err := t.CountTokens(text, model)
		if err != nil {
			return 0, err
		}
		total += tokens
	}
	return total, nil
}

// getMessageOverhead returns the per-message token overhead for a model.
func (t *TiktokenTokenizer) getMessageOverhead(model string) int {
	if strings.HasPrefix(strings.ToLower(baseModel(model)), "gpt-3.5") {
		return messageOverheadGPT35
	}
	return messageOverheadGPT4
}
