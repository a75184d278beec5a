package intent

import "strings"

// CompletionButtonID is the reserved payload identifier attached to the
// interactive button on every initial reminder message.
const CompletionButtonID = "completed_habit"

// Classification is the outcome of inspecting one inbound reply.
type Classification struct {
	Completion bool
}

var completionWords = map[string]bool{
	"completed": true,
	"complete":  true,
	"done":      true,
}

// Classify decides whether an inbound reply marks the tracked task as done.
// The substring checks are intentionally permissive: a false positive on
// unrelated text containing "done" is preferred over missing a real
// completion and firing a needless follow-up.
func Classify(text string, isButton bool) Classification {
	if isButton && text == CompletionButtonID {
		return Classification{Completion: true}
	}

	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return Classification{}
	}
	if completionWords[normalized] {
		return Classification{Completion: true}
	}
	if strings.Contains(normalized, "complete") || strings.Contains(normalized, "done") {
		return Classification{Completion: true}
	}
	if strings.HasPrefix(normalized, "yes") || strings.HasPrefix(normalized, "yep") {
		return Classification{Completion: true}
	}
	return Classification{}
}
