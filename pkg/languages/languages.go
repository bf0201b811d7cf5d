// Package languages classifies file paths by programming language.
package languages

import (
	"path"
	"strings"

	"github.com/src-d/enry/v2"
)

// Unknown is the label returned for paths that match no known language.
const Unknown = "unknown"

// extensionLabels is checked before enry so the common labels stay stable
// regardless of linguist data updates.
var extensionLabels = map[string]string{ //nolint:gochecknoglobals // read-only lookup table.
	".py":   "python",
	".ts":   "typescript",
	".tsx":  "typescript",
	".js":   "javascript",
	".jsx":  "javascript",
	".java": "java",
	".rb":   "ruby",
	".go":   "go",
	".rs":   "rust",
	".cpp":  "c++",
	".c":    "c",
	".cs":   "c#",
	".php":  "php",
	".html": "html",
	".css":  "css",
	".json": "json",
	".txt":  "plain text",
	".md":   "markdown",
}

// Classify returns the lower-case language label for a file path, or [Unknown].
// Only the final extension segment is considered and matching ignores case.
// Extensionless well-known names (Makefile, Dockerfile) are resolved by name.
func Classify(filePath string) string {
	base := path.Base(strings.ReplaceAll(filePath, "\\", "/"))
	if base == "." || base == "/" {
		return Unknown
	}

	ext := strings.ToLower(path.Ext(base))

	if ext != "" && ext != base {
		if label, ok := extensionLabels[ext]; ok {
			return label
		}
	}

	if lang, safe := enry.GetLanguageByFilename(base); safe && lang != "" {
		return strings.ToLower(lang)
	}

	if ext == "" || ext == base {
		return Unknown
	}

	if lang, safe := enry.GetLanguageByExtension("file" + ext); safe && lang != "" {
		return strings.ToLower(lang)
	}

	return Unknown
}
