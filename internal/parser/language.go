package parser

import (
	"path/filepath"
	"strings"
)

// languageByExtension maps lower-case file extensions to language names
var languageByExtension = map[string]string{
	".go":    "Go",
	".java":  "Java",
	".hack":  "Hack",
	".hck":   "Hack",
	".hhi":   "Hack",
	".hk":    "Hack",
	".py":    "Python",
	".ts":    "TypeScript",
	".tsx":   "TypeScript",
	".js":    "JavaScript",
	".jsx":   "JavaScript",
	".rs":    "Rust",
	".kt":    "Kotlin",
	".scala": "Scala",
	".swift": "Swift",
	".m":     "ObjectiveC",
	".mm":    "ObjectiveC",
	".c":     "C",
	".h":     "C",
	".cc":    "CPP",
	".cpp":   "CPP",
	".hpp":   "CPP",
	".cs":    "CSharp",
	".rb":    "Ruby",
}

// InferLanguage guesses a document's language from its file extension.
// It returns "" when the extension is unknown.
func InferLanguage(path string) string {
	return languageByExtension[strings.ToLower(filepath.Ext(path))]
}
