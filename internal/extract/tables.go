package extract

// technology is a display name plus the lower-case spellings that match it.
type technology struct {
	Name    string
	Aliases []string
}

var skillTable = []struct {
	Category Category
	Techs    []technology
}{
	{Frontend, []technology{
		{"JavaScript", []string{"javascript", "js"}},
		{"TypeScript", []string{"typescript", "ts"}},
		{"React", []string{"react", "reactjs", "react.js"}},
		{"Vue", []string{"vue", "vuejs", "vue.js"}},
		{"Angular", []string{"angular"}},
		{"Svelte", []string{"svelte"}},
		{"Next.js", []string{"next.js", "nextjs"}},
		{"HTML", []string{"html", "html5"}},
		{"CSS", []string{"css", "css3"}},
		{"Sass", []string{"sass", "scss"}},
		{"Tailwind", []string{"tailwind", "tailwindcss"}},
		{"Bootstrap", []string{"bootstrap"}},
		{"Redux", []string{"redux"}},
	}},
	{Backend, []technology{
		{"Python", []string{"python"}},
		{"Java", []string{"java"}},
		{"Node.js", []string{"node", "nodejs", "node.js"}},
		{"Golang", []string{"golang"}},
		{"Rust", []string{"rust"}},
		{"Ruby", []string{"ruby", "rails", "ruby on rails"}},
		{"PHP", []string{"php", "laravel"}},
		{"C#", []string{"c#", ".net", "dotnet"}},
		{"C++", []string{"c++"}},
		{"Kotlin", []string{"kotlin"}},
		{"Django", []string{"django"}},
		{"Flask", []string{"flask"}},
		{"FastAPI", []string{"fastapi"}},
		{"Spring", []string{"spring", "spring boot"}},
		{"Express", []string{"express", "expressjs"}},
		{"GraphQL", []string{"graphql"}},
	}},
	{Database, []technology{
		{"SQL", []string{"sql"}},
		{"PostgreSQL", []string{"postgresql", "postgres"}},
		{"MySQL", []string{"mysql"}},
		{"MongoDB", []string{"mongodb", "mongo"}},
		{"Redis", []string{"redis"}},
		{"SQLite", []string{"sqlite"}},
		{"Elasticsearch", []string{"elasticsearch"}},
		{"DynamoDB", []string{"dynamodb"}},
		{"Cassandra", []string{"cassandra"}},
	}},
	{Cloud, []technology{
		{"AWS", []string{"aws", "amazon web services"}},
		{"GCP", []string{"gcp", "google cloud"}},
		{"Azure", []string{"azure"}},
		{"Docker", []string{"docker", "containers"}},
		{"Kubernetes", []string{"kubernetes", "k8s"}},
		{"Terraform", []string{"terraform"}},
		{"Serverless", []string{"serverless", "lambda"}},
	}},
	{Tools, []technology{
		{"Git", []string{"git"}},
		{"GitHub", []string{"github"}},
		{"GitLab", []string{"gitlab"}},
		{"Jenkins", []string{"jenkins"}},
		{"Jira", []string{"jira"}},
		{"Linux", []string{"linux"}},
		{"Webpack", []string{"webpack"}},
		{"Figma", []string{"figma"}},
		{"Kafka", []string{"kafka"}},
		{"CI/CD", []string{"ci/cd"}},
	}},
}

var (
	seniorityWords = []string{"principal", "staff", "lead", "senior", "junior"}

	// Multi-word and hyphenated spellings come before their prefixes.
	domainWords = []string{
		"full-stack", "full stack", "fullstack", "frontend", "front-end", "backend", "back-end",
		"devops", "machine learning", "data", "cloud", "mobile", "software", "security", "platform",
	}

	roleNouns = []string{
		"developer", "engineer", "architect", "scientist", "analyst",
		"designer", "programmer", "consultant", "manager",
	}
)

// canonicalDomain folds spelling variants onto one title form.
var canonicalDomain = map[string]string{
	"full stack": "full-stack",
	"fullstack":  "full-stack",
	"front-end":  "frontend",
	"back-end":   "backend",
}

var (
	locationIntroducers = []string{"based in", "located in", "from", "living in"}

	educationKeywords = []string{
		"degree", "university", "college", "bachelor", "bachelor's", "master", "master's",
		"phd", "bsc", "msc", "graduated", "studied", "bootcamp", "diploma",
	}
	projectKeywords = []string{
		"project", "built", "build", "developed", "created", "launched",
		"designed", "implemented", "app", "application", "platform",
	}
	achievementKeywords = []string{
		"achieved", "award", "awarded", "won", "increased", "reduced", "improved",
		"led", "delivered", "recognized", "promoted", "saved", "%",
	}
	certificationKeywords = []string{
		"certified", "certification", "certificate", "pmp", "cka", "ckad", "cissp",
	}
)

const (
	minEducationLen     = 20
	minProjectLen       = 30
	minAchievementLen   = 25
	minCertificationLen = 20
)

// nameStopWords are capitalized words that never start or finish a name:
// sentence openers and words that are part of role titles.
var nameStopWords = map[string]bool{
	"hello": true, "hi": true, "hey": true, "the": true, "this": true, "that": true,
	"my": true, "please": true, "thanks": true, "thank": true, "currently": true,
	"also": true, "and": true, "but": true, "we": true, "our": true, "it": true,
	"i'm": true, "i've": true, "add": true, "update": true, "remove": true,
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true, "friday": true,
	"january": true, "february": true, "march": true, "april": true, "june": true,
	"july": true, "august": true, "september": true, "october": true, "november": true,
	"december": true,
}

// reservedWords holds every lower-cased token that belongs to a role title
// or a technology name; such words cannot be part of a person or company
// name.
var reservedWords = buildReservedWords()

func buildReservedWords() map[string]bool {
	out := make(map[string]bool)
	for _, w := range seniorityWords {
		out[w] = true
	}
	for _, w := range domainWords {
		out[w] = true
	}
	for _, w := range roleNouns {
		out[w] = true
	}
	for _, cat := range skillTable {
		for _, tech := range cat.Techs {
			out[lower(tech.Name)] = true
			for _, a := range tech.Aliases {
				out[a] = true
			}
		}
	}
	return out
}
