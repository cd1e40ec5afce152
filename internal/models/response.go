package models

import "fmt"

// Candidate represents a single response candidate from Gemini
type Candidate struct {
	RCID            string
	Text            string
	Thoughts        string // Only populated for thinking models
	WebImages       []WebImage
	GeneratedImages []GeneratedImage
}

// WebImage references an image from web search results.
// Fetchable without authentication.
type WebImage struct {
	URL   string
	Title string
	Alt   string
}

// GeneratedImage references an AI-generated image stored behind an
// authenticated URL. Fetching it requires the session cookies.
type GeneratedImage struct {
	URL   string
	Title string
	Alt   string
}

// ModelOutput represents the complete parsed response from Gemini
type ModelOutput struct {
	Metadata   []string // [cid, rid, rcid]
	Candidates []Candidate
	Chosen     int    // Index of selected candidate
	Raw        string // Decoded response body, for callers needing unmapped fields
}

// Text returns the chosen candidate's text
func (m *ModelOutput) Text() string {
	c := m.ChosenCandidate()
	if c == nil {
		return ""
	}
	return c.Text
}

// Thoughts returns the chosen candidate's thoughts
func (m *ModelOutput) Thoughts() string {
	c := m.ChosenCandidate()
	if c == nil {
		return ""
	}
	return c.Thoughts
}

// RCID returns the chosen candidate's response choice ID
func (m *ModelOutput) RCID() string {
	c := m.ChosenCandidate()
	if c == nil {
		return ""
	}
	return c.RCID
}

// ChosenCandidate returns a pointer to the chosen candidate.
// A stale out-of-range Chosen falls back to the first candidate.
func (m *ModelOutput) ChosenCandidate() *Candidate {
	if len(m.Candidates) == 0 {
		return nil
	}
	if m.Chosen < 0 || m.Chosen >= len(m.Candidates) {
		return &m.Candidates[0]
	}
	return &m.Candidates[m.Chosen]
}

// Choose selects the candidate at index, rejecting out-of-range values
func (m *ModelOutput) Choose(index int) error {
	if index < 0 || index >= len(m.Candidates) {
		return fmt.Errorf("candidate index %d out of range [0, %d)", index, len(m.Candidates))
	}
	m.Chosen = index
	return nil
}

// Images returns all images from the chosen candidate (web + generated)
func (m *ModelOutput) Images() []WebImage {
	c := m.ChosenCandidate()
	if c == nil {
		return nil
	}

	images := make([]WebImage, 0, len(c.WebImages)+len(c.GeneratedImages))
	images = append(images, c.WebImages...)

	for _, img := range c.GeneratedImages {
		images = append(images, WebImage(img))
	}

	return images
}

// CID returns the conversation ID from metadata
func (m *ModelOutput) CID() string {
	if len(m.Metadata) > 0 {
		return m.Metadata[0]
	}
	return ""
}

// RID returns the reply ID from metadata
func (m *ModelOutput) RID() string {
	if len(m.Metadata) > 1 {
		return m.Metadata[1]
	}
	return ""
}
