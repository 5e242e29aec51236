// Package extract builds a structured Profile from free-form chat text using
// ordered pattern rules. Each field has its own rule function; Extract is a
// pure function of the message contents.
package extract

import (
	"strings"

	"github.com/kalambet/devfolio/internal/chat"
)

// Window is how many of the most recent messages are consulted. Anything
// older falls out of extraction; this bounds the per-turn cost of
// recomputing the profile from scratch.
const Window = 20

// Extract runs every rule over the user-authored messages among the last
// Window messages.
func Extract(messages []chat.Message) Profile {
	return FromText(userText(messages))
}

// FromText runs every rule over text directly. Used for uploaded documents.
// Invalid UTF-8 is replaced before any rule sees it.
func FromText(text string) Profile {
	text = strings.ToValidUTF8(text, "\uFFFD")
	techs, skills := extractSkills(text)
	return Profile{
		Name:         extractName(text),
		Title:        extractTitle(text),
		Contact:      extractContact(text),
		Technologies: techs,
		Skills:       skills,
		Experience: Experience{
			Years:     extractYears(text),
			Companies: extractCompanies(text),
		},
		Education:      extractSentences(text, educationKeywords, minEducationLen, MaxEducation),
		Projects:       extractSentences(text, projectKeywords, minProjectLen, MaxProjects),
		Achievements:   extractSentences(text, achievementKeywords, minAchievementLen, MaxAchievements),
		Certifications: extractSentences(text, certificationKeywords, minCertificationLen, MaxCertifications),
	}
}

func userText(messages []chat.Message) string {
	var parts []string
	for _, m := range chat.Recent(messages, Window) {
		if m.Role == chat.RoleUser {
			parts = append(parts, m.Content)
		}
	}
	return strings.Join(parts, "\n")
}
