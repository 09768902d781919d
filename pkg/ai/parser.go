package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseActionItems decodes the extraction answer into candidates.
// Accepts a bare JSON array or an object with an "action_items" array,
// optionally wrapped in a markdown code fence.
func ParseActionItems(content string) ([]ActionItemCandidate, error) {
	content = extractJSON(content)
	if content == "" {
		return nil, fmt.Errorf("%w: empty answer", ErrMalformedOutput)
	}

	var items []ActionItemCandidate
	switch content[0] {
	case '[':
		if err := json.Unmarshal([]byte(content), &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
		}
	case '{':
		var wrapped struct {
			ActionItems *[]ActionItemCandidate `json:"action_items"`
		}
		if err := json.Unmarshal([]byte(content), &wrapped); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
		}
		if wrapped.ActionItems == nil {
			return nil, fmt.Errorf("%w: missing action_items", ErrMalformedOutput)
		}
		items = *wrapped.ActionItems
	default:
		return nil, fmt.Errorf("%w: not JSON", ErrMalformedOutput)
	}

	cleaned := make([]ActionItemCandidate, 0, len(items))
	for _, item := range items {
		item.Description = strings.TrimSpace(item.Description)
		if item.Description == "" {
			continue
		}
		item.Assignee = nonEmpty(item.Assignee)
		item.Deadline = nonEmpty(item.Deadline)
		if item.Confidence < 0 {
			item.Confidence = 0
		}
		if item.Confidence > 1 {
			item.Confidence = 1
		}
		cleaned = append(cleaned, item)
	}
	return cleaned, nil
}

// extractJSON extracts JSON content from markdown code blocks or plain text
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	}

	return strings.TrimSpace(content)
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" || strings.EqualFold(v, "null") {
		return nil
	}
	return &v
}
