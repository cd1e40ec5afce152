package models

import "testing"

func sampleOutput() *ModelOutput {
	return &ModelOutput{
		Metadata: []string{"c_123", "r_456", "rc_789"},
		Candidates: []Candidate{
			{RCID: "rc_789", Text: "first answer"},
			{RCID: "rc_790", Text: "second answer"},
			{RCID: "rc_791", Text: "third answer"},
		},
	}
}

func TestModelOutputAccessors(t *testing.T) {
	out := sampleOutput()

	if got := out.Text(); got != "first answer" {
		t.Errorf("Text() = %q, want %q", got, "first answer")
	}
	if got := out.RCID(); got != "rc_789" {
		t.Errorf("RCID() = %q, want %q", got, "rc_789")
	}
	if got := out.CID(); got != "c_123" {
		t.Errorf("CID() = %q, want %q", got, "c_123")
	}
	if got := out.RID(); got != "r_456" {
		t.Errorf("RID() = %q, want %q", got, "r_456")
	}
}

func TestModelOutputChoose(t *testing.T) {
	tests := []struct {
		name      string
		index     int
		wantErr   bool
		wantText  string
		wantRCID  string
	}{
		{"first candidate", 0, false, "first answer", "rc_789"},
		{"second candidate", 1, false, "second answer", "rc_790"},
		{"last candidate", 2, false, "third answer", "rc_791"},
		{"negative index", -1, true, "first answer", "rc_789"},
		{"index past end", 3, true, "first answer", "rc_789"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := sampleOutput()
			err := out.Choose(tt.index)

			if (err != nil) != tt.wantErr {
				t.Fatalf("Choose(%d) error = %v, wantErr %v", tt.index, err, tt.wantErr)
			}
			if got := out.Text(); got != tt.wantText {
				t.Errorf("Text() after Choose = %q, want %q", got, tt.wantText)
			}
			if got := out.RCID(); got != tt.wantRCID {
				t.Errorf("RCID() after Choose = %q, want %q", got, tt.wantRCID)
			}
		})
	}
}

func TestModelOutputEmpty(t *testing.T) {
	out := &ModelOutput{}

	if out.ChosenCandidate() != nil {
		t.Error("ChosenCandidate() on empty output should be nil")
	}
	if out.Text() != "" {
		t.Error("Text() on empty output should be empty")
	}
	if out.Images() != nil {
		t.Error("Images() on empty output should be nil")
	}
	if err := out.Choose(0); err == nil {
		t.Error("Choose(0) on empty output should fail")
	}
}

func TestModelOutputStaleChosenFallsBack(t *testing.T) {
	out := sampleOutput()
	out.Chosen = 10 // set directly, bypassing Choose

	if got := out.Text(); got != "first answer" {
		t.Errorf("Text() with stale Chosen = %q, want fallback to first", got)
	}
}

func TestModelOutputImages(t *testing.T) {
	out := &ModelOutput{
		Candidates: []Candidate{
			{
				RCID: "rc_1",
				WebImages: []WebImage{
					{URL: "https://example.com/web.jpg", Title: "web"},
				},
				GeneratedImages: []GeneratedImage{
					{URL: "https://example.com/gen", Title: "[Generated Image 1]"},
				},
			},
		},
	}

	images := out.Images()
	if len(images) != 2 {
		t.Fatalf("Images() returned %d entries, want 2", len(images))
	}
	if images[0].Title != "web" {
		t.Errorf("web images should come first, got %q", images[0].Title)
	}
	if images[1].Title != "[Generated Image 1]" {
		t.Errorf("generated image title = %q", images[1].Title)
	}
}

func TestModelFromName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"gemini-2.5-flash", "gemini-2.5-flash"},
		{"fast", "gemini-2.5-flash"},
		{"gemini-3.0-pro", "gemini-3.0-pro"},
		{"pro", "gemini-3.0-pro"},
		{"nonsense", "unspecified"},
		{"", "unspecified"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ModelFromName(tt.input); got.Name != tt.want {
				t.Errorf("ModelFromName(%q).Name = %q, want %q", tt.input, got.Name, tt.want)
			}
		})
	}
}

func TestModelHeadersDistinct(t *testing.T) {
	flash := Model25Flash.Header["x-goog-ext-525001261-jspb"]
	pro := Model30Pro.Header["x-goog-ext-525001261-jspb"]

	if flash == "" || pro == "" {
		t.Fatal("model routing headers must be set")
	}
	if flash == pro {
		t.Error("flash and pro must carry distinct routing headers")
	}
}
