package report

import (
	"path"
	"strings"
)

// extensionLanguages maps file extensions to display languages.
// Documentation and data formats are deliberately absent so they never
// count toward an author's language mix.
var extensionLanguages = map[string]string{
	".java":   "Java",
	".kt":     "Kotlin",
	".py":     "Python",
	".go":     "Go",
	".rs":     "Rust",
	".js":     "JavaScript",
	".jsx":    "JavaScript",
	".ts":     "TypeScript",
	".tsx":    "TypeScript",
	".vue":    "Vue",
	".dart":   "Dart",
	".swift":  "Swift",
	".c":      "C",
	".h":      "C",
	".cc":     "C++",
	".cpp":    "C++",
	".hpp":    "C++",
	".cs":     "C#",
	".rb":     "Ruby",
	".php":    "PHP",
	".scala":  "Scala",
	".groovy": "Groovy",
	".sh":     "Shell",
	".sql":    "SQL",
	".html":   "HTML",
	".css":    "CSS",
	".scss":   "CSS",
	".less":   "CSS",
}

// languageForPath resolves the display language for a file path. The
// second return is false for unknown or non-code extensions.
func languageForPath(p string) (string, bool) {
	ext := strings.ToLower(path.Ext(p))
	lang, ok := extensionLanguages[ext]
	return lang, ok
}
