package extract

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalambet/devfolio/internal/chat"
)

func userMsgs(texts ...string) []chat.Message {
	out := make([]chat.Message, len(texts))
	for i, t := range texts {
		out[i] = chat.Message{Role: chat.RoleUser, Content: t}
	}
	return out
}

func TestExtract_Technologies(t *testing.T) {
	p := Extract(userMsgs("I use Python, AWS, and Docker"))

	assert.Equal(t, []string{"Python", "AWS", "Docker"}, p.Technologies)
	assert.Equal(t, []string{"Python"}, p.Skills[Backend])
	assert.Equal(t, []string{"AWS", "Docker"}, p.Skills[Cloud])
}

func TestExtract_TechnologiesWholeWordOnly(t *testing.T) {
	p := Extract(userMsgs("I enjoy javascripting and reacting quickly"))
	assert.Empty(t, p.Technologies)

	p = Extract(userMsgs("Our API runs on node.js"))
	assert.Equal(t, []string{"Node.js"}, p.Technologies)
}

func TestExtractName(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"my name is", "Hi, my name is Jane Doe and I'm a senior backend engineer.", "Jane Doe"},
		{"i am", "I am John Smith", "John Smith"},
		{"i'm", "I'm Ada Lovelace, nice to meet you", "Ada Lovelace"},
		{"fallback pair", "Hello there. Jane Doe here, working as a developer.", "Jane Doe"},
		{"role title rejected", "I am Senior Engineer at the moment", ""},
		{"technology pair rejected", "Python Django is what I use", ""},
		{"none", "i like writing code", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractName(tt.text))
		})
	}
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"I'm a senior backend engineer", "Senior Backend Engineer"},
		{"I work as a full stack developer", "Full-Stack Developer"},
		{"Lead data scientist here", "Lead Data Scientist"},
		{"I am an engineer", "Engineer"},
		{"I'm a senior frontend person", "Senior Frontend"},
		{"I am a senior person", "Senior"},
		{"I like cooking", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractTitle(tt.text), tt.text)
	}
}

func TestExtractContact(t *testing.T) {
	c := extractContact("Reach me at jane.doe@example.com or 555-123-4567. I'm based in Berlin, Germany.")
	assert.Equal(t, map[string]string{
		"email":    "jane.doe@example.com",
		"phone":    "555-123-4567",
		"location": "Berlin",
	}, c)
}

func TestExtractLocation_TooManyWords(t *testing.T) {
	assert.Equal(t, "", extractLocation("I learned this from a very long winding road trip across the entire country"))
	assert.Equal(t, "San Francisco", extractLocation("Currently living in San Francisco."))
}

func TestExtract_InvalidUTF8(t *testing.T) {
	require.NotPanics(t, func() {
		p := Extract(userMsgs("\xff\xff\xff\xff I am based in"))
		assert.Empty(t, p.Contact["location"])
	})

	p := FromText("caf\xe9 owner, based in Berlin, Germany")
	assert.Equal(t, "Berlin", p.Contact["location"])

	p = FromText("\xc3\x28 I use Python and I am living in Lisbon")
	assert.Equal(t, []string{"Python"}, p.Technologies)
	assert.Equal(t, "Lisbon", p.Contact["location"])
}

func TestExtract_NonASCII(t *testing.T) {
	p := FromText("Über-Entwickler. I'm based in São Paulo, Brazil and use Python")
	assert.Equal(t, "São Paulo", p.Contact["location"])
	assert.Equal(t, []string{"Python"}, p.Technologies)

	// 'İ' lowers to a longer byte sequence with full Unicode folding.
	p = FromText("İİİİİİ I am living in Ankara.")
	assert.Equal(t, "Ankara", p.Contact["location"])
}

func TestExtractLocation_CutsOnRuneBoundary(t *testing.T) {
	text := "based in a" + strings.Repeat("é", 30)
	got := extractLocation(text)
	assert.True(t, utf8.ValidString(got), "location %q is not valid UTF-8", got)
}

func TestExtractYears(t *testing.T) {
	assert.Equal(t, "7", extractYears("I have 7 years of experience"))
	assert.Equal(t, "12", extractYears("12+ yrs in the industry"))
	assert.Equal(t, "1", extractYears("about 1 year"))
	assert.Equal(t, "", extractYears("since 2019"))
}

func TestExtractCompanies(t *testing.T) {
	got := extractCompanies("I worked at Acme Corp for two years and currently at Globex. I also consulted with Initech.")
	assert.Equal(t, []string{"Acme Corp", "Globex", "Initech"}, got)

	assert.Empty(t, extractCompanies("I work with Python daily and partnered with A1 Labs"))
}

func TestExtractCompanies_Capped(t *testing.T) {
	var sb strings.Builder
	for _, c := range []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo", "Foxtrot", "Golf"} {
		fmt.Fprintf(&sb, "I worked at %s. ", c)
	}
	got := extractCompanies(sb.String())
	assert.Equal(t, []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo"}, got)
}

func TestExtract_Sentences(t *testing.T) {
	p := Extract(userMsgs(
		"I graduated from MIT with a degree in computer science.",
		"I built a realtime chat application using websockets!",
		"Reduced latency by 40% across the whole platform.",
		"I hold an AWS certification for solutions architecture",
	))

	assert.Equal(t, []string{"I graduated from MIT with a degree in computer science"}, p.Education)
	assert.Contains(t, p.Projects, "I built a realtime chat application using websockets")
	assert.Equal(t, []string{"Reduced latency by 40% across the whole platform"}, p.Achievements)
	assert.Equal(t, []string{"I hold an AWS certification for solutions architecture"}, p.Certifications)
	assert.Equal(t, "", p.Name)
}

func TestExtract_UsesRecentUserMessagesOnly(t *testing.T) {
	history := []chat.Message{
		{Role: chat.RoleUser, Content: "I love Rust"},
		{Role: chat.RoleAssistant, Content: "You should learn Kubernetes"},
	}
	p := Extract(history)
	assert.Equal(t, []string{"Rust"}, p.Technologies)

	for i := 0; i < Window-1; i++ {
		history = append(history, chat.Message{Role: chat.RoleUser, Content: "ok"})
	}
	p = Extract(history)
	assert.Empty(t, p.Technologies, "first message should have fallen out of the window")
}

func TestExtract_Deterministic(t *testing.T) {
	msgs := userMsgs(
		"Hi, my name is Jane Doe. I'm a senior backend engineer with 8 years of experience.",
		"I worked at Acme Corp and Globex. I use Go, Python, PostgreSQL, Redis, AWS, Docker and Kubernetes.",
		"I led the migration project that reduced costs by 30% for the whole company.",
		"Email me at jane@example.com. I'm based in Lisbon.",
	)

	a, err := json.Marshal(Extract(msgs))
	require.NoError(t, err)
	b, err := json.Marshal(Extract(msgs))
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestExtract_ListsCappedAndUnique(t *testing.T) {
	var msgs []string
	for i := 0; i < 8; i++ {
		msgs = append(msgs,
			fmt.Sprintf("I studied at university number %c and earned a degree there", 'A'+i),
			fmt.Sprintf("I built project %c which became a widely used application", 'A'+i),
			fmt.Sprintf("We increased revenue %c by a large margin that quarter", 'A'+i),
			fmt.Sprintf("I became certified in area %c after a long exam", 'A'+i),
			"I use Python, python, PYTHON and AWS",
		)
	}
	p := Extract(userMsgs(msgs...))

	lists := map[string]struct {
		values []string
		max    int
	}{
		"education":      {p.Education, MaxEducation},
		"projects":       {p.Projects, MaxProjects},
		"achievements":   {p.Achievements, MaxAchievements},
		"certifications": {p.Certifications, MaxCertifications},
		"companies":      {p.Experience.Companies, MaxCompanies},
		"technologies":   {p.Technologies, 0},
	}
	for name, l := range lists {
		if l.max > 0 {
			assert.LessOrEqual(t, len(l.values), l.max, name)
		}
		seen := make(map[string]bool)
		for _, v := range l.values {
			assert.False(t, seen[v], "%s has duplicate %q", name, v)
			seen[v] = true
		}
	}
	assert.Len(t, p.Education, MaxEducation)
	assert.Equal(t, []string{"Python", "AWS"}, p.Technologies)
}

func TestProfile_Digest(t *testing.T) {
	p := Profile{
		Name:         "Jane Doe",
		Title:        "Senior Engineer",
		Contact:      map[string]string{"email": "j@example.com"},
		Technologies: []string{"Go", "AWS"},
		Experience:   Experience{Years: "5"},
		Projects:     []string{"built a thing"},
	}
	assert.Equal(t, []string{
		"Name/Title: Jane Doe - Senior Engineer",
		"Contact info present",
		"Technologies: Go, AWS",
		"Experience: 5 years",
		"Projects data present",
	}, p.Digest())
	assert.False(t, p.IsEmpty())
	assert.True(t, Profile{}.IsEmpty())
}
