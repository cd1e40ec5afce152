// Package history persists chat conversations locally so they can be
// listed and resumed across runs.
package history

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Message is a single turn in a conversation
type Message struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Thoughts  string    `json:"thoughts,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is a stored chat with the server-side ids needed to
// resume it.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages"`

	// Server-side conversation ids for resuming
	CID  string `json:"cid,omitempty"`
	RID  string `json:"rid,omitempty"`
	RCID string `json:"rcid,omitempty"`
}

// Metadata returns the [cid, rid, rcid] triple, or nil when the
// conversation has never reached the server.
func (c *Conversation) Metadata() []string {
	if c.CID == "" {
		return nil
	}
	return []string{c.CID, c.RID, c.RCID}
}

// Store persists conversations as one JSON file each
type Store struct {
	dir string
	mu  sync.RWMutex
}

// NewStore creates a store rooted at baseDir/history
func NewStore(baseDir string) (*Store, error) {
	dir := filepath.Join(baseDir, "history")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// DefaultStore creates a store at ~/.geminiweb/history
func DefaultStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return NewStore(filepath.Join(home, ".geminiweb"))
}

// Create starts a new conversation for the given model
func (s *Store) Create(model string) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	conv := &Conversation{
		ID:        newConversationID(now),
		Title:     "Chat " + now.Format("2006-01-02 15:04"),
		Model:     model,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []Message{},
	}

	if err := s.write(conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// Get loads a conversation by its full ID
func (s *Store) Get(id string) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(id)
}

// List returns all conversations, most recently updated first
func (s *Store) List() ([]*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	var conversations []*Conversation
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		conv, err := s.read(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			// Corrupted files are skipped, not fatal
			continue
		}
		conversations = append(conversations, conv)
	}

	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
	})
	return conversations, nil
}

// AppendMessage records one turn. The first user message also becomes
// the conversation title.
func (s *Store) AppendMessage(id, role, content, thoughts string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, err := s.read(id)
	if err != nil {
		return err
	}

	conv.Messages = append(conv.Messages, Message{
		Role:      role,
		Content:   content,
		Thoughts:  thoughts,
		Timestamp: time.Now(),
	})
	conv.UpdatedAt = time.Now()

	if role == "user" && len(conv.Messages) == 1 {
		conv.Title = truncateTitle(content)
	}

	return s.write(conv)
}

// SetMetadata stores the server-side ids of the latest turn
func (s *Store) SetMetadata(id, cid, rid, rcid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, err := s.read(id)
	if err != nil {
		return err
	}

	conv.CID = cid
	conv.RID = rid
	conv.RCID = rcid
	conv.UpdatedAt = time.Now()

	return s.write(conv)
}

// Rename changes a conversation's title
func (s *Store) Rename(id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, err := s.read(id)
	if err != nil {
		return err
	}

	conv.Title = title
	conv.UpdatedAt = time.Now()

	return s.write(conv)
}

// Delete removes a conversation
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("conversation not found: %s", id)
		}
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

// Clear deletes every stored conversation
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to read history directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			return fmt.Errorf("failed to delete %s: %w", entry.Name(), err)
		}
	}
	return nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *Store) read(id string) (*Conversation, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("conversation not found: %s", id)
		}
		return nil, fmt.Errorf("failed to read conversation: %w", err)
	}

	var conv Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("failed to parse conversation: %w", err)
	}
	return &conv, nil
}

// write persists through a temp file and rename so a crash mid-write
// never leaves a truncated conversation behind.
func (s *Store) write(conv *Conversation) error {
	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	path := s.path(conv.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write conversation: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

func newConversationID(now time.Time) string {
	suffix := make([]byte, 3)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("conv-%s-%s", now.Format("20060102-150405"), hex.EncodeToString(suffix))
}

func truncateTitle(content string) string {
	content = strings.TrimSpace(strings.ReplaceAll(content, "\n", " "))
	if len(content) > 50 {
		return content[:50] + "..."
	}
	return content
}
