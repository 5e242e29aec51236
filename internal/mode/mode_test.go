package mode

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"personal_bio", PersonalBio},
		{"Personal Bio", PersonalBio},
		{"project-summaries", ProjectSummaries},
		{"  LEARNING_REFLECTIONS ", LearningReflections},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParse_Unknown(t *testing.T) {
	if _, err := Parse("personal"); err == nil {
		t.Fatal("expected error for partial mode name")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	b, err := json.Marshal(struct {
		Mode Mode `json:"mode"`
	}{ProjectSummaries})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"mode":"project_summaries"}` {
		t.Errorf("got %s", b)
	}

	var out struct {
		Mode Mode `json:"mode"`
	}
	if err := json.Unmarshal([]byte(`{"mode":"Learning Reflections"}`), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Mode != LearningReflections {
		t.Errorf("Mode = %v, want LearningReflections", out.Mode)
	}
}

func TestEveryModeHasTables(t *testing.T) {
	for _, m := range All {
		if !strings.HasPrefix(m.DefaultCanvas(), "# ") {
			t.Errorf("%v: default canvas should start with an H1", m)
		}
		if len(m.Schema()) == 0 {
			t.Errorf("%v: empty schema", m)
		}
		if len(m.Sections()) == 0 {
			t.Errorf("%v: no section keywords", m)
		}
		found := false
		for _, s := range m.Schema() {
			if s.Name == m.PrimaryList() && s.Kind == List {
				found = true
			}
		}
		if !found {
			t.Errorf("%v: primary list %q missing from schema", m, m.PrimaryList())
		}
	}
}
