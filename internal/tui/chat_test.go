package tui

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dmribeiro/geminiweb/internal/api"
	apierrors "github.com/dmribeiro/geminiweb/internal/errors"
	"github.com/dmribeiro/geminiweb/internal/history"
	"github.com/dmribeiro/geminiweb/internal/models"
)

// fakeSession is a minimal chatSession for driving the model in tests
type fakeSession struct {
	lastPrompt string
	output     *models.ModelOutput
	err        error
	cid        string
	rid        string
	rcid       string
}

func (f *fakeSession) SendMessage(prompt string, images []*api.UploadedImage) (*models.ModelOutput, error) {
	f.lastPrompt = prompt
	if f.err != nil {
		return nil, f.err
	}
	return f.output, nil
}

func (f *fakeSession) SetMetadata(cid, rid, rcid string) { f.cid, f.rid, f.rcid = cid, rid, rcid }
func (f *fakeSession) CID() string                       { return f.cid }
func (f *fakeSession) RID() string                       { return f.rid }
func (f *fakeSession) RCID() string                      { return f.rcid }
func (f *fakeSession) GetModel() models.Model            { return models.DefaultModel }

// fakeRecorder records persistence calls
type fakeRecorder struct {
	appended []string // "role:content"
	metadata []string // "cid/rid/rcid"
}

func (f *fakeRecorder) AppendMessage(id, role, content, thoughts string) error {
	f.appended = append(f.appended, role+":"+content)
	return nil
}

func (f *fakeRecorder) SetMetadata(id, cid, rid, rcid string) error {
	f.metadata = append(f.metadata, cid+"/"+rid+"/"+rcid)
	return nil
}

func testOutput(text string) *models.ModelOutput {
	return &models.ModelOutput{
		Metadata:   []string{"c_1", "r_1"},
		Candidates: []models.Candidate{{RCID: "rc_1", Text: text}},
	}
}

// sized returns a model that has received a window size, so the
// viewport is initialized.
func sized(m Model) Model {
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(Model)
}

func TestChatModelSendFlow(t *testing.T) {
	session := &fakeSession{output: testOutput("Hello there")}
	m := sized(NewChatModel(session, "fast"))

	m.textarea.SetValue("Hi Gemini")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	if !m.loading {
		t.Error("model should be loading after submitting a message")
	}
	if len(m.messages) != 1 || m.messages[0].role != "user" {
		t.Fatalf("messages = %+v, want one user message", m.messages)
	}
	if m.messages[0].content != "Hi Gemini" {
		t.Errorf("content = %q, want Hi Gemini", m.messages[0].content)
	}
	if cmd == nil {
		t.Fatal("expected a command batch after submit")
	}

	// Deliver the response as the send command would
	updated, _ = m.Update(responseMsg{output: session.output})
	m = updated.(Model)

	if m.loading {
		t.Error("model should stop loading on response")
	}
	if len(m.messages) != 2 || m.messages[1].role != "assistant" {
		t.Fatalf("messages = %+v, want assistant reply appended", m.messages)
	}
	if m.messages[1].content != "Hello there" {
		t.Errorf("assistant content = %q", m.messages[1].content)
	}
}

func TestChatModelEmptyInputIgnored(t *testing.T) {
	m := sized(NewChatModel(&fakeSession{}, "fast"))

	m.textarea.SetValue("   ")
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	if m.loading || len(m.messages) != 0 {
		t.Errorf("blank input should not submit: loading=%v messages=%d", m.loading, len(m.messages))
	}
}

func TestChatModelExitCommands(t *testing.T) {
	for _, input := range []string{"exit", "quit", "/exit", "/quit"} {
		m := sized(NewChatModel(&fakeSession{}, "fast"))
		m.textarea.SetValue(input)

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if cmd == nil {
			t.Errorf("input %q should produce a quit command", input)
			continue
		}
		if msg := cmd(); msg != tea.Quit() {
			t.Errorf("input %q produced %v, want tea.QuitMsg", input, msg)
		}
	}
}

func TestChatModelErrorDisplayed(t *testing.T) {
	m := sized(NewChatModel(&fakeSession{}, "fast"))

	updated, _ := m.Update(errMsg{err: apierrors.NewAuthError("cookies expired")})
	m = updated.(Model)

	if m.loading {
		t.Error("loading should stop on error")
	}
	view := m.View()
	if !strings.Contains(view, "auto-login") {
		t.Error("auth errors should surface the auto-login hint")
	}
}

func TestChatModelPersistence(t *testing.T) {
	session := &fakeSession{output: testOutput("Paris.")}
	recorder := &fakeRecorder{}
	conv := &history.Conversation{ID: "conv-test"}

	m := sized(NewChatModelWithConversation(session, "fast", conv, recorder))

	m.textarea.SetValue("Capital of France?")
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	// Simulate the session having absorbed the response metadata
	session.SetMetadata("c_1", "r_1", "rc_1")
	updated, _ = m.Update(responseMsg{output: session.output})
	_ = updated.(Model)

	want := []string{"user:Capital of France?", "assistant:Paris."}
	if len(recorder.appended) != 2 || recorder.appended[0] != want[0] || recorder.appended[1] != want[1] {
		t.Errorf("appended = %v, want %v", recorder.appended, want)
	}
	if len(recorder.metadata) != 1 || recorder.metadata[0] != "c_1/r_1/rc_1" {
		t.Errorf("metadata = %v, want [c_1/r_1/rc_1]", recorder.metadata)
	}
}

func TestChatModelPreloadsConversation(t *testing.T) {
	conv := &history.Conversation{
		ID: "conv-test",
		Messages: []history.Message{
			{Role: "user", Content: "first question"},
			{Role: "assistant", Content: "first answer"},
		},
	}

	m := NewChatModelWithConversation(&fakeSession{}, "fast", conv, &fakeRecorder{})
	if len(m.messages) != 2 {
		t.Fatalf("len(messages) = %d, want 2 preloaded", len(m.messages))
	}
	if m.messages[1].content != "first answer" {
		t.Errorf("preloaded content = %q", m.messages[1].content)
	}
}

func TestChatModelSendMessageCmd(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		session := &fakeSession{output: testOutput("ok")}
		m := NewChatModel(session, "fast")

		msg := m.sendMessage("prompt")()
		resp, ok := msg.(responseMsg)
		if !ok {
			t.Fatalf("msg = %T, want responseMsg", msg)
		}
		if resp.output.Text() != "ok" {
			t.Errorf("Text() = %q", resp.output.Text())
		}
		if session.lastPrompt != "prompt" {
			t.Errorf("lastPrompt = %q", session.lastPrompt)
		}
	})

	t.Run("failure", func(t *testing.T) {
		session := &fakeSession{err: fmt.Errorf("boom")}
		m := NewChatModel(session, "fast")

		msg := m.sendMessage("prompt")()
		if _, ok := msg.(errMsg); !ok {
			t.Fatalf("msg = %T, want errMsg", msg)
		}
	})
}

func TestFormatErrorHints(t *testing.T) {
	m := NewChatModel(&fakeSession{}, "fast")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"auth", apierrors.NewAuthError("expired"), "auto-login"},
		{"usage limit", apierrors.NewUsageLimitError("quota"), "Usage limit"},
		{"network", apierrors.NewNetworkError("generate", fmt.Errorf("refused")), "internet connection"},
		{"timeout", apierrors.NewTimeoutError("slow"), "timed out"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.formatError(tt.err)
			if !strings.Contains(got, tt.want) {
				t.Errorf("formatError(%v) = %q, want substring %q", tt.err, got, tt.want)
			}
		})
	}

	if m.formatError(nil) != "" {
		t.Error("formatError(nil) should be empty")
	}
}
