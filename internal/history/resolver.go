package history

import (
	"fmt"
	"strconv"
	"strings"
)

// Resolver turns user-friendly references into conversation IDs
type Resolver struct {
	store *Store
}

// NewResolver creates a resolver over the given store
func NewResolver(store *Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve converts a reference into a conversation ID.
//
// Accepted forms:
//   - "@last"    most recently updated conversation
//   - "@first"   oldest conversation
//   - "1","2"    1-based index into the list, newest first
//   - "conv-..." full ID or unique ID prefix
//   - anything else matches against titles, case-insensitive
func (r *Resolver) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty reference")
	}

	conversations, err := r.store.List()
	if err != nil {
		return "", fmt.Errorf("failed to list conversations: %w", err)
	}
	if len(conversations) == 0 {
		return "", fmt.Errorf("no conversations found")
	}

	switch strings.ToLower(ref) {
	case "@last":
		return conversations[0].ID, nil
	case "@first":
		return conversations[len(conversations)-1].ID, nil
	}

	if index, err := strconv.Atoi(ref); err == nil {
		if index < 1 || index > len(conversations) {
			return "", fmt.Errorf("index %d out of range (1-%d)", index, len(conversations))
		}
		return conversations[index-1].ID, nil
	}

	if strings.HasPrefix(ref, "conv-") {
		return resolveByID(conversations, ref)
	}

	return resolveByTitle(conversations, ref)
}

// ResolveConversation resolves a reference and loads the conversation
func (r *Resolver) ResolveConversation(ref string) (*Conversation, error) {
	id, err := r.Resolve(ref)
	if err != nil {
		return nil, err
	}
	return r.store.Get(id)
}

// resolveByID matches a full ID, or a unique ID prefix
func resolveByID(conversations []*Conversation, ref string) (string, error) {
	var matches []*Conversation
	for _, conv := range conversations {
		if conv.ID == ref {
			return conv.ID, nil
		}
		if strings.HasPrefix(conv.ID, ref) {
			matches = append(matches, conv)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("conversation not found: %s", ref)
	case 1:
		return matches[0].ID, nil
	default:
		return "", fmt.Errorf("id prefix %q is ambiguous (%d matches)", ref, len(matches))
	}
}

// resolveByTitle matches a case-insensitive title substring
func resolveByTitle(conversations []*Conversation, ref string) (string, error) {
	refLower := strings.ToLower(ref)
	var matches []*Conversation
	for _, conv := range conversations {
		if strings.Contains(strings.ToLower(conv.Title), refLower) {
			matches = append(matches, conv)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no conversation matching %q", ref)
	case 1:
		return matches[0].ID, nil
	default:
		var titles []string
		for _, m := range matches {
			titles = append(titles, fmt.Sprintf("%q", m.Title))
		}
		return "", fmt.Errorf("multiple conversations match %q: %s. Use an ID or be more specific",
			ref, strings.Join(titles, ", "))
	}
}

// ReferenceHelp describes the accepted reference forms for CLI output
func ReferenceHelp() string {
	return `Supported references:
  @last          Most recently updated conversation
  @first         Oldest conversation
  1, 2, 3        By index (1-based, newest first)
  "text"         Search by title substring
  conv-...       Conversation ID or unique prefix`
}
