package api

import (
	"fmt"
	"sync"

	"github.com/dmribeiro/geminiweb/internal/models"
)

// contentGenerator is the client surface a chat session needs
type contentGenerator interface {
	GenerateContent(prompt string, opts *GenerateOptions) (*models.ModelOutput, error)
}

// ChatSession maintains conversation context across messages.
//
// Metadata accessors are safe for concurrent use, but concurrent
// SendMessage calls on the same session are not supported: the
// conversation ids change with every turn, so parallel submissions
// would race on which branch the next turn continues from.
type ChatSession struct {
	client     contentGenerator
	mu         sync.RWMutex // Protects metadata, lastOutput, model
	model      models.Model
	metadata   []string // [cid, rid, rcid]
	lastOutput *models.ModelOutput
}

// copyMetadata copies the metadata slice to avoid sharing backing arrays
func copyMetadata(m []string) []string {
	if m == nil {
		return nil
	}
	result := make([]string, len(m))
	copy(result, m)
	return result
}

// SendMessage sends a message in the session and updates its context.
// images is optional - pass nil when no images are attached.
func (s *ChatSession) SendMessage(prompt string, images []*UploadedImage) (*models.ModelOutput, error) {
	s.mu.RLock()
	opts := &GenerateOptions{
		Model:    s.model,
		Metadata: copyMetadata(s.metadata),
		Images:   images,
	}
	s.mu.RUnlock()

	output, err := s.client.GenerateContent(prompt, opts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.lastOutput = output
	s.updateMetadataLocked(output)
	s.mu.Unlock()

	return output, nil
}

// updateMetadataLocked folds a response into the session metadata.
// Must be called with s.mu held for writing.
func (s *ChatSession) updateMetadataLocked(output *models.ModelOutput) {
	if len(output.Metadata) > 0 {
		s.metadata = copyMetadata(output.Metadata)
	}

	// Pin the chosen candidate's rcid so the next turn follows it
	switch {
	case len(s.metadata) >= 3:
		s.metadata[2] = output.RCID()
	case len(s.metadata) == 2:
		s.metadata = append(s.metadata, output.RCID())
	}
}

// SetMetadata sets metadata directly (for resuming conversations)
func (s *ChatSession) SetMetadata(cid, rid, rcid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata = []string{cid, rid, rcid}
}

// GetMetadata returns a copy of the current session metadata
func (s *ChatSession) GetMetadata() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyMetadata(s.metadata)
}

// CID returns the conversation ID
func (s *ChatSession) CID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.metadata) > 0 {
		return s.metadata[0]
	}
	return ""
}

// RID returns the reply ID
func (s *ChatSession) RID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.metadata) > 1 {
		return s.metadata[1]
	}
	return ""
}

// RCID returns the reply candidate ID
func (s *ChatSession) RCID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.metadata) > 2 {
		return s.metadata[2]
	}
	return ""
}

// GetModel returns the session's model
func (s *ChatSession) GetModel() models.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// SetModel changes the session's model
func (s *ChatSession) SetModel(model models.Model) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = model
}

// LastOutput returns the last response received in this session
func (s *ChatSession) LastOutput() *models.ModelOutput {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastOutput
}

// ChooseCandidate selects a different candidate from the last output,
// steering the conversation onto that branch. An out-of-range index
// is a usage error and leaves the session untouched.
func (s *ChatSession) ChooseCandidate(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastOutput == nil {
		return fmt.Errorf("no previous output in this session")
	}
	if err := s.lastOutput.Choose(index); err != nil {
		return err
	}

	s.updateMetadataLocked(s.lastOutput)
	return nil
}
