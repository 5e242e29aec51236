package intent

import (
	"testing"

	"github.com/kalambet/devfolio/internal/mode"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    Intent
	}{
		{"comma list", "I use Python, AWS, and Docker", ProvideInfo},
		{"add skills section", "Please add a skills section", RequestChange},
		{"update experience", "Update my experience with the new job", RequestChange},
		{"plural project", "change the projects part", RequestChange},
		{"bare number", "I have 5 years", ProvideInfo},
		{"number glued to word", "about 5yrs", Discuss},
		{"technology only", "mostly docker these days", ProvideInfo},
		{"technology inside word", "digital marketing", Discuss},
		{"action without section", "please change the tone", Discuss},
		{"section without action", "tell me about yourself", Discuss},
		{"action word inside other word", "my address skills", Discuss},
		{"greeting", "hello there", Discuss},
		{"empty", "", Discuss},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.message, mode.PersonalBio); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.message, got, tt.want)
			}
		})
	}
}

func TestClassify_ChangeBeatsInfo(t *testing.T) {
	msg := "add Python, Go to my skills"
	if got := Classify(msg, mode.ProjectSummaries); got != RequestChange {
		t.Errorf("Classify(%q) = %s, want request-change", msg, got)
	}
}

func TestIntent_UpdatesCanvas(t *testing.T) {
	if !ProvideInfo.UpdatesCanvas() || !RequestChange.UpdatesCanvas() {
		t.Error("provide-info and request-change should update the canvas")
	}
	if Discuss.UpdatesCanvas() {
		t.Error("discuss should not update the canvas")
	}
}

func TestIntent_MarshalText(t *testing.T) {
	b, err := RequestChange.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	if string(b) != "request-change" {
		t.Errorf("MarshalText = %q, want %q", b, "request-change")
	}

	var got Intent
	if err := got.UnmarshalText([]byte("provide-info")); err != nil || got != ProvideInfo {
		t.Errorf("UnmarshalText(provide-info) = %v, %v", got, err)
	}
	if err := got.UnmarshalText([]byte("shout")); err == nil {
		t.Error("expected error for unknown intent")
	}
}
