package normalize

import "strings"

// skillSynonyms maps common spelling variants to a canonical skill label.
// Keys are lowercase.
var skillSynonyms = map[string]string{
	"golang":        "Go",
	"go lang":       "Go",
	"js":            "JavaScript",
	"javascript":    "JavaScript",
	"ts":            "TypeScript",
	"typescript":    "TypeScript",
	"node":          "Node.js",
	"nodejs":        "Node.js",
	"node.js":       "Node.js",
	"react.js":      "React",
	"reactjs":       "React",
	"vue.js":        "Vue",
	"vuejs":         "Vue",
	"postgres":      "PostgreSQL",
	"postgresql":    "PostgreSQL",
	"psql":          "PostgreSQL",
	"mysql":         "MySQL",
	"mongo":         "MongoDB",
	"mongodb":       "MongoDB",
	"k8s":           "Kubernetes",
	"kubernetes":    "Kubernetes",
	"aws":           "AWS",
	"amazon web services": "AWS",
	"gcp":           "GCP",
	"google cloud":  "GCP",
	"ci/cd":         "CI/CD",
	"cicd":          "CI/CD",
	"ml":            "Machine Learning",
	"machine learning": "Machine Learning",
	"dl":            "Deep Learning",
	"excel":         "Microsoft Excel",
	"ms excel":      "Microsoft Excel",
	"power bi":      "Power BI",
	"powerbi":       "Power BI",
	"c sharp":       "C#",
	"c-sharp":       "C#",
	"csharp":        "C#",
	"dotnet":        ".NET",
	".net":          ".NET",
	"scrum":         "Scrum",
	"agile":         "Agile",
}

// NormalizeSkill folds a single skill to its canonical spelling. Unknown
// skills are whitespace-collapsed and left otherwise untouched.
func NormalizeSkill(s string) string {
	s = strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
	if s == "" {
		return ""
	}
	if canon, ok := skillSynonyms[strings.ToLower(s)]; ok {
		return canon
	}
	return s
}

// NormalizeSkills normalizes each skill and removes case-insensitive
// duplicates, preserving first-seen order.
func NormalizeSkills(skills []string) []string {
	seen := make(map[string]bool, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = NormalizeSkill(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
